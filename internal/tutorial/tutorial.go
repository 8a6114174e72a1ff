// Package tutorial implements the user-level step operations and the handlers
// of the exec instructions generated during a rebase.
package tutorial

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/editor"
	"github.com/jorge-barreto/stepwise/internal/git"
	"github.com/jorge-barreto/stepwise/internal/hooks"
	"github.com/jorge-barreto/stepwise/internal/manual"
	"github.com/jorge-barreto/stepwise/internal/step"
	"github.com/jorge-barreto/stepwise/internal/store"
	"github.com/jorge-barreto/stepwise/internal/submodule"
)

// Tutorial is a repository managed by stepwise.
type Tutorial struct {
	Git    *git.Git
	Root   string // working tree, empty outside a repository
	GitDir string
	Config *config.Config // nil before init
	// ConfigErr holds the error of an unreadable or invalid config.
	ConfigErr error
	Store  store.Store
	Exe    string
	Log    *slog.Logger
}

// Open discovers the repository containing dir. Outside a repository the
// tutorial has a memory store and every repository operation fails. A config
// that fails to load is reported by the operations that need it.
func Open(ctx context.Context, dir, exe string) (*Tutorial, error) {
	t := &Tutorial{
		Git: git.New(dir),
		Exe: exe,
		Log: slog.New(slog.DiscardHandler),
	}
	if top, err := t.Git.TopLevel(ctx); err == nil {
		t.Root = top
		t.Git.Dir = top
		if t.GitDir, err = t.Git.GitDir(ctx); err != nil {
			return nil, err
		}
	}
	s, err := store.Open(t.GitDir)
	if err != nil {
		return nil, err
	}
	t.Store = s

	if t.Root != "" {
		cfg, err := config.LoadRoot(t.Root)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.ConfigErr = err
		}
		t.Config = cfg
	}
	return t, nil
}

// child returns git flagged as driven by stepwise, which hooks let through.
func (t *Tutorial) child() *git.Git {
	return t.Git.WithEnv(hooks.EnvChild + "=1")
}

// Ready fails unless the tutorial is initialized with a valid config.
func (t *Tutorial) Ready() error {
	if t.Root == "" {
		return fmt.Errorf("%w: not inside a git repository", step.ErrUsage)
	}
	if err := store.AssertInitialized(t.Store, true); err != nil {
		return err
	}
	if t.ConfigErr != nil {
		return t.ConfigErr
	}
	if t.Config == nil {
		return fmt.Errorf("%w: %s not found", step.ErrUsage, config.File)
	}
	return nil
}

func (t *Tutorial) editor() *editor.Editor {
	return &editor.Editor{Store: t.Store, Repo: t.Git, Exe: t.Exe, Log: t.Log}
}

func (t *Tutorial) renderer() *manual.Renderer {
	return &manual.Renderer{Root: t.Root, Config: t.Config, Diffs: t}
}

func (t *Tutorial) submodules() *submodule.Synchronizer {
	return &submodule.Synchronizer{Git: t.Git, Root: t.Root, Config: t.Config, Log: t.Log}
}

// Step is one step commit.
type Step struct {
	ID      step.ID
	Message string
	Hash    string
}

// Steps lists the root and every step commit, oldest first.
func (t *Tutorial) Steps(ctx context.Context) ([]Step, error) {
	commits, err := t.Git.Commits(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	steps := make([]Step, 0, len(commits))
	for i := len(commits) - 1; i >= 0; i-- {
		c := commits[i]
		if d := step.Parse(c.Subject); d != nil {
			steps = append(steps, Step{ID: d.ID, Message: d.Message, Hash: c.Hash})
		} else if i == len(commits)-1 {
			steps = append(steps, Step{ID: step.RootID, Message: c.Subject, Hash: c.Hash})
		}
	}
	return steps, nil
}

// CurrentStep is the step of the most recent step commit, or the root.
func (t *Tutorial) CurrentStep(ctx context.Context) (step.ID, error) {
	history, err := t.Git.Subjects(ctx, "HEAD")
	if err != nil {
		return step.ID{}, err
	}
	if d := step.Current(history); d != nil {
		return d.ID, nil
	}
	return step.RootID, nil
}

// StepDiff returns the diff of step id in module, the tutorial itself when
// module is empty.
func (t *Tutorial) StepDiff(ctx context.Context, module, id string) (string, error) {
	g := t.Git
	if module != "" {
		sm := t.Config.SubmoduleByName(module)
		if sm == nil {
			return "", fmt.Errorf("unknown submodule %q", module)
		}
		g = git.New(filepath.Join(t.Root, sm.Path))
		g.Isolate = true
	}
	hash, err := g.Output(ctx, "log", "-1", "--format=%H", "-E", "--grep=^Step "+regexp.QuoteMeta(id)+": ", "HEAD")
	if err != nil {
		return "", err
	}
	if hash == "" {
		return "", fmt.Errorf("step %s not found", id)
	}
	return g.Output(ctx, "show", "--format=", "--no-color", hash)
}

func writeFile(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(body), 0644)
}
