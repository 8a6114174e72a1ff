// Package hooks implements the git hook callbacks that keep history mutations
// flowing through stepwise and that maintain the "Step N: " message prefix.
package hooks

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/refs"
	"github.com/jorge-barreto/stepwise/internal/step"
	"github.com/jorge-barreto/stepwise/internal/store"
)

// Violation is a policy failure reported verbatim to the operator.
type Violation string

func (v Violation) Error() string { return string(v) }

// Facts describes the git operation a hook was invoked for.
type Facts struct {
	Strict        bool
	Child         bool // invoked by stepwise itself
	Amend         bool
	Rebasing      bool
	CherryPicking bool
	Head          *step.Descriptor // step of HEAD, nil for the root or an empty history
	Staged        []string
	Branch        string
	Source        string // prepare-commit-msg message source
	Config        *config.Config
}

// PreCommit rejects commits made outside stepwise and manual edits outside
// the owning super step.
func PreCommit(f Facts) error {
	if !f.Strict || f.Child {
		return nil
	}
	if !f.Amend {
		return Violation("new commits are created with 'stepwise step push' or 'stepwise step tag'")
	}
	if !f.Rebasing {
		return Violation("commits can only be amended while editing a step, run 'stepwise step edit <step>' first")
	}

	m := f.Config.Manuals
	for _, p := range f.Staged {
		p = filepath.Clean(p)
		if p == filepath.Clean(m.RootView) {
			return Violation(fmt.Sprintf("%s is rendered from %s and can't be modified directly", m.RootView, f.Config.RootTemplate()))
		}
		switch {
		case f.Head != nil && f.Head.ID.IsSuper():
			n := f.Head.ID.Super
			if p != filepath.Clean(f.Config.Template(n)) && p != filepath.Clean(f.Config.View(n)) {
				return Violation(fmt.Sprintf("step %d may only modify its own manual files (%s, %s), got %s",
					n, f.Config.Template(n), f.Config.View(n), p))
			}
		case f.Head == nil:
			if p != filepath.Clean(f.Config.RootTemplate()) && isManual(m, p) {
				return Violation(fmt.Sprintf("manual files can't be modified outside a super step's own file: %s", p))
			}
		default:
			if isManual(m, p) {
				return Violation(fmt.Sprintf("manual files can't be modified in sub step %s: %s", f.Head.ID, p))
			}
		}
	}
	return nil
}

func isManual(m config.Manuals, p string) bool {
	for _, dir := range []string{m.Templates, m.Views} {
		rel, err := filepath.Rel(filepath.Clean(dir), p)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// PreRebase rejects rebases not started by stepwise and rebases of the
// generated per-step branches.
func PreRebase(f Facts) error {
	if !f.Strict {
		return nil
	}
	if !f.Child {
		return Violation("history is rewritten with 'stepwise step edit', 'stepwise step reword' or 'stepwise manual render'")
	}
	if base, ok := refs.GeneratedBase(f.Branch); ok {
		return Violation(fmt.Sprintf("branch %s is generated from the step index; check out %s first", f.Branch, base))
	}
	return nil
}

// PrepareCommitMsg strips the step prefix from the message the operator is
// about to edit and remembers it for CommitMsg.
func PrepareCommitMsg(f Facts, s store.Store, message string) (string, error) {
	if f.CherryPicking || store.IsSet(s, store.KeyHooksDisabled) {
		return message, nil
	}
	if f.Source != "" && f.Source != "commit" {
		return message, nil
	}
	bare, d := step.Strip(message)
	if d == nil {
		return message, nil
	}
	if err := s.Set(store.KeyForcedHookStep, d.ID.String()); err != nil {
		return "", err
	}
	return bare, nil
}

// CommitMsg puts the step prefix back on the final message.
func CommitMsg(f Facts, s store.Store, message string) (string, error) {
	if store.IsSet(s, store.KeyHooksDisabled) || step.Parse(message) != nil || isEmpty(message) {
		return message, nil
	}
	forced, err := s.Get(store.KeyForcedHookStep)
	if err != nil {
		return "", err
	}

	var id step.ID
	switch {
	case forced != "":
		if id, err = step.ParseID(forced); err != nil {
			return "", err
		}
		if err := s.Remove(store.KeyForcedHookStep); err != nil {
			return "", err
		}
	case f.Amend && f.Head != nil:
		id = f.Head.ID
	default:
		return message, nil
	}
	if id.Root {
		return message, nil
	}
	return step.Format(id, message)
}

// isEmpty reports whether message has no content besides comments, which
// makes git abort the commit.
func isEmpty(message string) bool {
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return false
		}
	}
	return true
}
