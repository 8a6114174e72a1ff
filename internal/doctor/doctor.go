// Package doctor diagnoses a tutorial checkout: its config, its hooks and the
// rebase state left in the store.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/hooks"
	"github.com/jorge-barreto/stepwise/internal/store"
	"github.com/jorge-barreto/stepwise/internal/ux"
)

// Severity of a finding.
type Severity int

const (
	OK Severity = iota
	Warn
	Fail
)

// Finding is the result of one check.
type Finding struct {
	Severity Severity
	Check    string
	Message  string
	Hint     string // command that fixes the problem
}

// Input is what the checks look at.
type Input struct {
	HooksDir  string
	Exe       string
	Store     store.Store
	Config    *config.Config
	ConfigErr error // error loading the config, if any
	Rebasing  bool
}

// Diagnose runs every check.
func Diagnose(in Input) []Finding {
	var out []Finding
	out = append(out, checkConfig(in))
	out = append(out, checkInitialized(in))
	out = append(out, checkHooks(in)...)
	out = append(out, checkStore(in))
	if in.Config != nil {
		out = append(out, checkStrict(in))
	}
	return out
}

func checkConfig(in Input) Finding {
	f := Finding{Check: "config"}
	switch {
	case in.ConfigErr != nil && errors.Is(in.ConfigErr, fs.ErrNotExist):
		f.Severity, f.Message, f.Hint = Fail, config.File+" not found", "stepwise init"
	case in.ConfigErr != nil:
		f.Severity, f.Message = Fail, in.ConfigErr.Error()
	case in.Config == nil:
		f.Severity, f.Message, f.Hint = Fail, config.File+" not found", "stepwise init"
	default:
		f.Message = fmt.Sprintf("tutorial %q", in.Config.Name)
	}
	return f
}

func checkInitialized(in Input) Finding {
	f := Finding{Check: "store", Message: "initialized"}
	if !store.IsSet(in.Store, store.KeyInitialized) {
		f.Severity, f.Message, f.Hint = Fail, "repository is not initialized", "stepwise init"
	}
	return f
}

func checkHooks(in Input) []Finding {
	var out []Finding
	for _, hs := range hooks.Status(in.HooksDir, in.Exe) {
		f := Finding{Check: "hook " + hs.Name, Message: hs.State.String()}
		switch {
		case hs.State == hooks.Missing:
			f.Severity, f.Hint = Fail, "stepwise hooks install"
		case hs.State == hooks.Foreign:
			f.Severity, f.Message, f.Hint = Fail, "replaced by another hook", "stepwise hooks install"
		case hs.Stale:
			f.Severity, f.Message, f.Hint = Warn, "calls a different stepwise executable", "stepwise hooks install"
		}
		out = append(out, f)
	}
	return out
}

// staleKeys returns the rebase-scoped keys still set in the store.
func staleKeys(s store.Store) []string {
	all, err := s.Keys()
	if err != nil {
		return nil
	}
	var keys []string
	for _, k := range all {
		if store.IsTransient(k) && store.IsSet(s, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func checkStore(in Input) Finding {
	f := Finding{Check: "rebase state", Message: "clean"}
	if in.Rebasing {
		f.Message = "rebase in progress"
		return f
	}
	if keys := staleKeys(in.Store); len(keys) > 0 {
		f.Severity = Warn
		f.Message = "left over from an aborted rebase: " + strings.Join(keys, ", ")
		f.Hint = "stepwise doctor --fix"
	}
	return f
}

func checkStrict(in Input) Finding {
	f := Finding{Check: "strict mode", Message: "on"}
	if !hooks.StrictMode(in.Store, in.Config) {
		f.Severity, f.Message = Warn, "off, hooks do not enforce policies"
	}
	return f
}

// Fix clears stale rebase state and reinstalls the hooks.
func Fix(in Input) error {
	if !in.Rebasing && len(staleKeys(in.Store)) > 0 {
		if err := store.ClearTransient(in.Store); err != nil {
			return err
		}
	}
	for _, hs := range hooks.Status(in.HooksDir, in.Exe) {
		if hs.State != hooks.Installed || hs.Stale {
			return hooks.Install(in.HooksDir, in.Exe)
		}
	}
	return nil
}

// Print writes the findings and reports whether any check failed.
func Print(w io.Writer, findings []Finding) bool {
	failed := false
	fmt.Fprintf(w, "\n%s%s══ Doctor ══%s\n\n", ux.Bold, ux.Cyan, ux.Reset)
	for _, f := range findings {
		mark := ux.Green + "✓"
		switch f.Severity {
		case Warn:
			mark = ux.Yellow + "!"
		case Fail:
			mark = ux.Red + "✗"
			failed = true
		}
		fmt.Fprintf(w, "  %s %-22s%s %s\n", mark, f.Check, ux.Reset, f.Message)
		if f.Hint != "" {
			fmt.Fprintf(w, "      %sfix:%s %s\n", ux.Dim, ux.Reset, f.Hint)
		}
	}
	fmt.Fprintln(w)
	return failed
}
