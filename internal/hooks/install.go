package hooks

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/stepwise/internal/action"
)

// Names lists the hooks stepwise installs.
var Names = []string{"pre-commit", "pre-rebase", "prepare-commit-msg", "commit-msg"}

const shimMarker = "# stepwise-shim"

// Shim returns the script installed for hook name. It delegates to exe so
// hook behavior follows the installed binary.
func Shim(exe, name string) string {
	return fmt.Sprintf("#!/bin/sh\n%s\nexec %s hooks run %s \"$@\"\n", shimMarker, action.Quote(exe), name)
}

// Install writes the shims into hooksDir. A foreign hook is kept with a
// .backup suffix.
func Install(hooksDir, exe string) error {
	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	for _, name := range Names {
		path := filepath.Join(hooksDir, name)
		if st := statHook(path); st == Foreign {
			if err := os.Rename(path, path+".backup"); err != nil {
				return fmt.Errorf("backing up %s: %w", name, err)
			}
		}
		if err := os.WriteFile(path, []byte(Shim(exe, name)), 0755); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// State of an installed hook.
type State int

const (
	Missing State = iota
	Installed
	Foreign
)

func (s State) String() string {
	switch s {
	case Installed:
		return "installed"
	case Foreign:
		return "foreign"
	default:
		return "missing"
	}
}

// HookStatus is the state of one hook.
type HookStatus struct {
	Name  string
	State State
	// Stale is set for an installed shim that calls another executable.
	Stale bool
}

// Status reports the state of every stepwise hook in hooksDir against the
// shims exe would install.
func Status(hooksDir, exe string) []HookStatus {
	statuses := make([]HookStatus, 0, len(Names))
	for _, name := range Names {
		path := filepath.Join(hooksDir, name)
		hs := HookStatus{Name: name, State: statHook(path)}
		if hs.State == Installed {
			data, err := os.ReadFile(path)
			hs.Stale = err != nil || string(data) != Shim(exe, name)
		}
		statuses = append(statuses, hs)
	}
	return statuses
}

func statHook(path string) State {
	f, err := os.Open(path)
	if err != nil {
		return Missing
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for i := 0; i < 5 && scanner.Scan(); i++ {
		if strings.TrimSpace(scanner.Text()) == shimMarker {
			return Installed
		}
	}
	return Foreign
}
