package tutorial

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/stepwise/internal/action"
	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/hooks"
	"github.com/jorge-barreto/stepwise/internal/manual"
	"github.com/jorge-barreto/stepwise/internal/refs"
	"github.com/jorge-barreto/stepwise/internal/scaffold"
	"github.com/jorge-barreto/stepwise/internal/step"
	"github.com/jorge-barreto/stepwise/internal/store"
)

// Init prepares the repository: a fresh one gets the config, the root manual
// and the root commit; a clone of an existing tutorial only gets its hooks and
// store. name defaults to the directory name. Init returns the files it
// created.
func (t *Tutorial) Init(ctx context.Context, name string) ([]string, error) {
	if t.Root == "" {
		return nil, fmt.Errorf("%w: not inside a git repository, run 'git init' first", step.ErrUsage)
	}
	if err := store.AssertInitialized(t.Store, false); err != nil {
		return nil, err
	}
	if t.ConfigErr != nil {
		return nil, t.ConfigErr
	}

	var files []string
	if t.Config == nil {
		if t.Git.HasCommits(ctx) {
			return nil, fmt.Errorf("%w: %s has commits but no %s", step.ErrUsage, t.Root, config.File)
		}
		if name == "" {
			name = filepath.Base(t.Root)
		}
		cfg, written, err := scaffold.Init(t.Root, name)
		if err != nil {
			return nil, err
		}
		t.Config = cfg
		view, err := t.renderer().Render(ctx, step.RootID, cfg.Name)
		if err != nil {
			return nil, err
		}
		files = append(written, view)
		if _, err := t.Git.Output(ctx, append([]string{"add"}, files...)...); err != nil {
			return nil, err
		}
		if _, err := t.child().Output(ctx, "commit", "-q", "-m", cfg.Name); err != nil {
			return nil, err
		}
		t.Log.InfoContext(ctx, "root commit created", "tutorial", cfg.Name)
	}

	hooksDir, err := t.Git.HooksDir(ctx)
	if err != nil {
		return nil, err
	}
	if err := hooks.Install(hooksDir, t.Exe); err != nil {
		return nil, err
	}
	return files, t.Store.Set(store.KeyInitialized, "1")
}

// Push commits the staged changes as the next step.
func (t *Tutorial) Push(ctx context.Context, message string, allowEmpty bool) (step.ID, error) {
	if err := t.Ready(); err != nil {
		return step.ID{}, err
	}
	history, err := t.Git.Subjects(ctx, "HEAD")
	if err != nil {
		return step.ID{}, err
	}
	id := step.Next(history, 0)
	subject, err := step.Format(id, message)
	if err != nil {
		return step.ID{}, err
	}
	args := []string{"commit", "-q", "-m", subject}
	if allowEmpty {
		args = append(args, "--allow-empty")
	}
	if _, err := t.child().Output(ctx, args...); err != nil {
		return step.ID{}, err
	}
	t.Log.InfoContext(ctx, "step pushed", "step", id.String())
	return id, t.markNewStep(ctx, id)
}

// Pop removes the most recent step commit. Popping a commit that existed
// before the running rebase records the step as removed.
func (t *Tutorial) Pop(ctx context.Context) (step.ID, error) {
	if err := t.Ready(); err != nil {
		return step.ID{}, err
	}
	subject, err := t.Git.Subject(ctx, "HEAD")
	if err != nil {
		return step.ID{}, err
	}
	d := step.Parse(subject)
	if d == nil {
		return step.ID{}, fmt.Errorf("%w: HEAD is not a step commit", step.ErrUsage)
	}

	rebasing := t.Git.IsRebasing(ctx)
	if rebasing {
		head, err := t.Git.Output(ctx, "rev-parse", "HEAD")
		if err != nil {
			return step.ID{}, err
		}
		if orig, err := t.Git.OrigHead(ctx); err == nil {
			existed, err := t.Git.IsAncestor(ctx, head, orig)
			if err != nil {
				return step.ID{}, err
			}
			if existed {
				if err := store.RecordStep(t.Store, d.ID.String(), ""); err != nil {
					return step.ID{}, err
				}
			}
		}
	}

	if _, err := t.Git.Output(ctx, "reset", "-q", "--hard", "HEAD~1"); err != nil {
		return step.ID{}, err
	}
	t.Log.InfoContext(ctx, "step popped", "step", d.ID.String())

	current, err := t.CurrentStep(ctx)
	if err != nil {
		return step.ID{}, err
	}
	if err := t.markNewStep(ctx, current); err != nil {
		return step.ID{}, err
	}
	if !rebasing && d.ID.IsSuper() {
		if _, err := refs.Rebuild(ctx, t.Git); err != nil {
			return step.ID{}, err
		}
	}
	return d.ID, nil
}

// Tag closes the current super step with its manual.
func (t *Tutorial) Tag(ctx context.Context, message string) (step.ID, error) {
	if err := t.Ready(); err != nil {
		return step.ID{}, err
	}
	history, err := t.Git.Subjects(ctx, "HEAD")
	if err != nil {
		return step.ID{}, err
	}
	id := step.Super(step.NextSuper(history, 0))
	subject, err := step.Format(id, message)
	if err != nil {
		return step.ID{}, err
	}

	tmpl := t.Config.Template(id.Super)
	if _, err := os.Stat(filepath.Join(t.Root, tmpl)); errors.Is(err, fs.ErrNotExist) {
		if err := writeFile(filepath.Join(t.Root, tmpl), manual.StepTemplate(id.Super, message)); err != nil {
			return step.ID{}, err
		}
	}
	view, err := t.renderer().Render(ctx, id, message)
	if err != nil {
		return step.ID{}, err
	}
	if _, err := t.Git.Output(ctx, "add", tmpl, view); err != nil {
		return step.ID{}, err
	}
	if _, err := t.child().Output(ctx, "commit", "-q", "--allow-empty", "-m", subject); err != nil {
		return step.ID{}, err
	}
	t.Log.InfoContext(ctx, "step tagged", "step", id.String())

	if t.Git.IsRebasing(ctx) {
		return id, t.markNewStep(ctx, id)
	}
	_, err = refs.Rebuild(ctx, t.Git)
	return id, err
}

// markNewStep records where HEAD ended up so the pending sort pass can
// compute how far renumbering reaches.
func (t *Tutorial) markNewStep(ctx context.Context, id step.ID) error {
	if !t.Git.IsRebasing(ctx) {
		return nil
	}
	return t.Store.Set(store.KeyNewStep, id.String())
}

// EditOptions configures Edit.
type EditOptions struct {
	Steps      []string
	UpdateRefs string
}

// Edit starts a rebase that stops at each requested step.
func (t *Tutorial) Edit(ctx context.Context, opts EditOptions) error {
	if len(opts.Steps) == 0 {
		return fmt.Errorf("%w: no step to edit", step.ErrUsage)
	}
	for _, s := range opts.Steps {
		if _, err := step.ParseID(s); err != nil {
			return err
		}
	}
	var args []string
	if opts.UpdateRefs != "" {
		abs, err := filepath.Abs(opts.UpdateRefs)
		if err != nil {
			return err
		}
		args = append(args, "--update-refs", abs)
	}
	return t.rebase(ctx, action.New(action.Edit, append(args, opts.Steps...)...))
}

// Reword starts a rebase that amends the message of target, the most recent
// commit when empty. An empty message opens the editor.
func (t *Tutorial) Reword(ctx context.Context, target, message string) error {
	var args []string
	if target != "" {
		if _, err := step.ParseID(target); err != nil {
			return err
		}
		args = append(args, "--step", target)
	}
	if message != "" {
		args = append(args, "-m", message)
	}
	return t.rebase(ctx, action.New(action.Reword, args...))
}

// RenderAll re-renders every manual through a full history rebase.
func (t *Tutorial) RenderAll(ctx context.Context) error {
	return t.rebase(ctx, action.New(action.Render))
}

func (t *Tutorial) rebase(ctx context.Context, a action.Action) error {
	if err := t.Ready(); err != nil {
		return err
	}
	if t.Git.IsRebasing(ctx) {
		return fmt.Errorf("%w: a rebase is already in progress, finish it with 'git rebase --continue' or 'git rebase --abort'", step.ErrUsage)
	}
	g := t.child().WithEnv("GIT_SEQUENCE_EDITOR=" + a.Command(t.Exe))
	t.Log.InfoContext(ctx, "starting rebase", "action", string(a.Kind), "args", a.Args)
	return g.Run(ctx, "rebase", "-i", "--root")
}
