// Package superpick replays a super step commit as a patch so its manual files
// follow the step's new index and its cross references follow a renumbered
// submodule.
package superpick

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jorge-barreto/stepwise/internal/git"
	"github.com/jorge-barreto/stepwise/internal/manual"
	"github.com/jorge-barreto/stepwise/internal/step"
	"github.com/jorge-barreto/stepwise/internal/store"
)

var manualRe = regexp.MustCompile(`\bstep(\d+)\.(md|tmpl)\b`)

// RewriteManualRefs shifts every stepN.md and stepN.tmpl token by delta.
func RewriteManualRefs(patch string, delta int) string {
	if delta == 0 {
		return patch
	}
	return manualRe.ReplaceAllStringFunc(patch, func(tok string) string {
		m := manualRe.FindStringSubmatch(tok)
		n, _ := strconv.Atoi(m[1])
		return "step" + strconv.Itoa(n+delta) + "." + m[2]
	})
}

// RewriteStepRefs points diffStep calls on module at their renumbered steps.
// Calls on removed steps get the RemovedStep placeholder.
func RewriteStepRefs(patch, module string, m store.StepMap) string {
	return manual.DiffStepRe.ReplaceAllStringFunc(patch, func(call string) string {
		sub := manual.DiffStepRe.FindStringSubmatch(call)
		if sub[2] != module || sub[1] == manual.RemovedStep {
			return call
		}
		id, ok := m.Lookup(sub[1])
		if !ok {
			id = manual.RemovedStep
		}
		return strings.Replace(call, `"`+sub[1]+`"`, `"`+id+`"`, 1)
	})
}

// Replayer applies super step commits during a rebase.
type Replayer struct {
	Git   *git.Git
	Store store.Store
	Log   *slog.Logger
	// Sync re-renders the view of super step n and re-pins submodules,
	// staging the result.
	Sync func(ctx context.Context, n int) error
}

// Replay applies commit hash on top of HEAD as the next super step.
func (r *Replayer) Replay(ctx context.Context, hash string) error {
	subject, err := r.Git.Subject(ctx, hash)
	if err != nil {
		return err
	}
	d := step.ParseSuper(subject)
	if d == nil {
		return fmt.Errorf("%w: %s is not a super step: %q", step.ErrUsage, hash, subject)
	}
	history, err := r.Git.Subjects(ctx, "HEAD")
	if err != nil {
		return err
	}
	n := step.NextSuper(history, 0)
	delta := n - d.ID.Super

	patch, err := r.Git.Output(ctx, "format-patch", "-1", "--stdout", "-k", "--binary", hash)
	if err != nil {
		return err
	}
	patch = RewriteManualRefs(patch, delta) + "\n"

	if store.IsSet(r.Store, store.KeyStepMapPending) {
		cwd, err := r.Store.Get(store.KeySubmoduleCwd)
		if err != nil {
			return err
		}
		m, err := store.LoadStepMap(r.Store)
		if err != nil {
			return err
		}
		patch = RewriteStepRefs(patch, filepath.Base(cwd), m)
	}

	r.Log.InfoContext(ctx, "super-pick", "commit", hash, "from", d.ID.Super, "to", n)
	if _, err := r.Git.Input(ctx, strings.NewReader(patch), "am", "-k"); err != nil {
		return fmt.Errorf("applying step %d as step %d: %w", d.ID.Super, n, err)
	}

	if r.Sync != nil {
		if err := r.Sync(ctx, n); err != nil {
			return err
		}
	}
	return r.Git.Amend(ctx, "")
}
