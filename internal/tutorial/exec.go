package tutorial

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jorge-barreto/stepwise/internal/action"
	"github.com/jorge-barreto/stepwise/internal/editor"
	"github.com/jorge-barreto/stepwise/internal/git"
	"github.com/jorge-barreto/stepwise/internal/hooks"
	"github.com/jorge-barreto/stepwise/internal/refs"
	"github.com/jorge-barreto/stepwise/internal/step"
	"github.com/jorge-barreto/stepwise/internal/store"
	"github.com/jorge-barreto/stepwise/internal/superpick"
	"github.com/jorge-barreto/stepwise/internal/todo"
)

// Dispatch runs a generated instruction. Sequence editor actions receive the
// todo file path as their last argument.
func (t *Tutorial) Dispatch(ctx context.Context, a action.Action) error {
	flags, rest := a.Options()
	t.Log.DebugContext(ctx, "dispatch", "action", string(a.Kind), "args", a.Args)

	if a.Kind.IsSequenceEditor() {
		if len(rest) == 0 {
			return fmt.Errorf("%w: %s: missing todo file", step.ErrUsage, a.Kind)
		}
		path := rest[len(rest)-1]
		rest = rest[:len(rest)-1]
		ed := t.editor()
		return editor.Rewrite(path, func(ops []todo.Operation) ([]todo.Operation, error) {
			switch a.Kind {
			case action.Edit:
				return ed.Edit(ctx, ops, editor.EditOptions{
					Steps:      rest,
					Head:       flags["--head"] != "",
					From:       flags["--from"],
					UpdateRefs: flags["--update-refs"],
				})
			case action.Sort:
				return ed.Sort(ctx, ops, flags["--update-refs"])
			case action.Reword:
				return ed.Reword(ctx, ops, flags["--step"], flags["-m"])
			default:
				return ed.Render(ctx, ops)
			}
		})
	}

	switch a.Kind {
	case action.SuperPick:
		if len(rest) != 1 {
			return fmt.Errorf("%w: super-pick needs a commit", step.ErrUsage)
		}
		return t.SuperPick(ctx, rest[0])
	case action.Renumber:
		return t.Renumber(ctx)
	case action.Amend:
		return t.Amend(ctx, flags["-m"])
	case action.RenderStep:
		return t.RenderStep(ctx)
	case action.Rebranch:
		_, err := refs.Rebuild(ctx, t.Git)
		return err
	case action.DisableHooks:
		return t.Store.Set(store.KeyHooksDisabled, "1")
	case action.Cleanup:
		return store.ClearTransient(t.Store)
	case action.UpdateRefs:
		if len(rest) != 1 {
			return fmt.Errorf("%w: update-refs needs a repository path", step.ErrUsage)
		}
		return t.UpdateExternal(ctx, rest[0])
	}
	return fmt.Errorf("%w: unhandled action %s", step.ErrUsage, a.Kind)
}

// Renumber rewrites the step prefix of HEAD to follow the commits before it
// and records the change in the step map.
func (t *Tutorial) Renumber(ctx context.Context) error {
	history, err := t.Git.Subjects(ctx, "HEAD")
	if err != nil {
		return err
	}
	message, err := t.Git.Message(ctx, "HEAD")
	if err != nil {
		return err
	}
	bare, d := step.Strip(message)
	if d == nil {
		return nil
	}
	next := step.Next(history, 1)
	if next == d.ID {
		return nil
	}
	renamed, err := step.Format(next, bare)
	if err != nil {
		return err
	}
	if err := t.child().Amend(ctx, renamed); err != nil {
		return err
	}
	t.Log.InfoContext(ctx, "renumbered", "from", d.ID.String(), "to", next.String())
	if store.IsSet(t.Store, store.KeyStepMapPending) {
		return nil
	}
	return store.RecordStep(t.Store, d.ID.String(), next.String())
}

// SuperPick replays super step commit hash at the next super step index.
func (t *Tutorial) SuperPick(ctx context.Context, hash string) error {
	r := &superpick.Replayer{
		Git:   t.child(),
		Store: t.Store,
		Log:   t.Log,
		Sync: func(ctx context.Context, n int) error {
			if err := t.renderView(ctx, step.Super(n)); err != nil {
				return err
			}
			return t.submodules().Ensure(ctx, n)
		},
	}
	return r.Replay(ctx, hash)
}

// Amend rewrites the message of HEAD. An empty message opens the editor,
// where the hooks hide and restore the step prefix.
func (t *Tutorial) Amend(ctx context.Context, message string) error {
	if message == "" {
		return t.child().Run(ctx, "commit", "--amend", "--allow-empty")
	}
	subject, err := t.Git.Subject(ctx, "HEAD")
	if err != nil {
		return err
	}
	if d := step.Parse(subject); d != nil {
		if message, err = step.Format(d.ID, message); err != nil {
			return err
		}
	}
	return t.child().Amend(ctx, message)
}

// RenderStep re-renders the manual of HEAD when it is the root or a super
// step and folds the result into HEAD.
func (t *Tutorial) RenderStep(ctx context.Context) error {
	subject, err := t.Git.Subject(ctx, "HEAD")
	if err != nil {
		return err
	}
	id := step.RootID
	if d := step.Parse(subject); d != nil {
		if !d.ID.IsSuper() {
			return nil
		}
		id = d.ID
	}
	if err := t.renderView(ctx, id); err != nil {
		return err
	}
	return t.child().Amend(ctx, "")
}

// renderView renders and stages the view of id.
func (t *Tutorial) renderView(ctx context.Context, id step.ID) error {
	title := ""
	if id.Root {
		title = t.Config.Name
	} else if subject, err := t.Git.Subject(ctx, "HEAD"); err == nil {
		if d := step.Parse(subject); d != nil {
			title = d.Message
		}
	}
	view, err := t.renderer().Render(ctx, id, title)
	if err != nil {
		return err
	}
	_, err = t.Git.Output(ctx, "add", view)
	return err
}

// UpdateExternal replays the repository at path so its cross references to
// this tutorial follow the step map of the running rebase.
func (t *Tutorial) UpdateExternal(ctx context.Context, path string) error {
	ext := git.New(path).WithEnv(hooks.EnvChild + "=1")
	ext.Isolate = true

	edit := action.New(action.Edit, step.Root)
	if _, err := ext.WithEnv("GIT_SEQUENCE_EDITOR="+edit.Command(t.Exe)).Output(ctx, "rebase", "-i", "--root"); err != nil {
		return fmt.Errorf("starting rebase in %s: %w", path, err)
	}

	gitDir, err := ext.GitDir(ctx)
	if err != nil {
		return err
	}
	extStore, err := store.Open(gitDir)
	if err != nil {
		return err
	}
	m, err := store.LoadStepMap(t.Store)
	if err != nil {
		return err
	}
	if err := store.SaveStepMap(extStore, m); err != nil {
		return err
	}
	if err := extStore.Set(store.KeyStepMapPending, "1"); err != nil {
		return err
	}
	if err := extStore.Set(store.KeySubmoduleCwd, t.Root); err != nil {
		return err
	}

	t.Log.InfoContext(ctx, "updating external references", "repository", path, "module", filepath.Base(t.Root))
	if _, err := ext.Output(ctx, "rebase", "--continue"); err != nil {
		if _, abortErr := ext.Output(ctx, "rebase", "--abort"); abortErr != nil {
			t.Log.ErrorContext(ctx, "aborting external rebase", "repository", path, "error", abortErr)
		}
		return fmt.Errorf("updating %s: %w", path, err)
	}
	return nil
}
