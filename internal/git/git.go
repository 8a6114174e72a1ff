// Package git shells out to the git executable. Using the CLI keeps the
// engine compatible with every sequencer feature it drives (interactive
// rebase, exec instructions, hooks).
package git

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git runs git commands in Dir with Env appended to the process environment.
type Git struct {
	Dir string
	Env []string
	// Isolate drops the repository variables git exports to hooks and exec
	// lines so commands target Dir rather than the calling repository.
	Isolate bool
}

// New returns a Git rooted at dir ("" means the current directory).
func New(dir string) *Git {
	return &Git{Dir: dir}
}

// WithEnv returns a copy of g with extra environment entries.
func (g *Git) WithEnv(kv ...string) *Git {
	cp := *g
	cp.Env = append(append([]string(nil), g.Env...), kv...)
	return &cp
}

func (g *Git) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	if len(g.Env) > 0 || g.Isolate {
		cmd.Env = append(g.environ(), g.Env...)
	}
	return cmd
}

var repoVars = []string{"GIT_DIR=", "GIT_WORK_TREE=", "GIT_INDEX_FILE=", "GIT_PREFIX=", "GIT_COMMON_DIR="}

func (g *Git) environ() []string {
	env := os.Environ()
	if !g.Isolate {
		return env
	}
	out := env[:0:0]
outer:
	for _, kv := range env {
		for _, v := range repoVars {
			if strings.HasPrefix(kv, v) {
				continue outer
			}
		}
		out = append(out, kv)
	}
	return out
}

// Output runs git and returns its stdout with surrounding whitespace trimmed.
func (g *Git) Output(ctx context.Context, args ...string) (string, error) {
	out, err := g.Input(ctx, nil, args...)
	return strings.TrimSpace(out), err
}

// Input runs git with stdin fed from input and returns raw stdout. Commands
// without input are retried while another process holds a git lock.
func (g *Git) Input(ctx context.Context, input io.Reader, args ...string) (string, error) {
	if input != nil {
		return g.input(ctx, input, args)
	}
	var out string
	err := withLockRetry(ctx, func() error {
		var err error
		out, err = g.input(ctx, nil, args)
		return err
	})
	return out, err
}

func (g *Git) input(ctx context.Context, input io.Reader, args []string) (string, error) {
	cmd := g.command(ctx, args)
	cmd.Stdin = input
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), wrapError(args, stderr.String(), err)
}

// Run runs git attached to the terminal, for commands that may open an editor
// or stop for the operator (rebase, interactive amend).
func (g *Git) Run(ctx context.Context, args ...string) error {
	cmd := g.command(ctx, args)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	var stderr bytes.Buffer
	cmd.Stderr = io.MultiWriter(os.Stderr, &stderr)
	err := cmd.Run()
	return wrapError(args, stderr.String(), err)
}

// GitDir returns the absolute path of the repository's private directory.
func (g *Git) GitDir(ctx context.Context) (string, error) {
	return g.Output(ctx, "rev-parse", "--absolute-git-dir")
}

// HooksDir returns the absolute path of the hooks directory.
func (g *Git) HooksDir(ctx context.Context) (string, error) {
	out, err := g.Output(ctx, "rev-parse", "--git-path", "hooks")
	if err != nil || filepath.IsAbs(out) {
		return out, err
	}
	return filepath.Abs(filepath.Join(g.Dir, out))
}

// TopLevel returns the root of the working tree.
func (g *Git) TopLevel(ctx context.Context) (string, error) {
	return g.Output(ctx, "rev-parse", "--show-toplevel")
}

func (g *Git) statGitPath(ctx context.Context, name string) bool {
	dir, err := g.GitDir(ctx)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, name))
	return err == nil
}

// IsRebasing reports whether a rebase is in progress.
func (g *Git) IsRebasing(ctx context.Context) bool {
	return g.statGitPath(ctx, "rebase-merge") || g.statGitPath(ctx, "rebase-apply")
}

// IsCherryPicking reports whether a cherry-pick is in progress.
func (g *Git) IsCherryPicking(ctx context.Context) bool {
	return g.statGitPath(ctx, "CHERRY_PICK_HEAD")
}

// rebaseFile reads a file of the in-progress interactive rebase.
func (g *Git) rebaseFile(ctx context.Context, name string) (string, error) {
	dir, err := g.GitDir(ctx)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, "rebase-merge", name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// CurrentBranch returns the checked-out branch. While rebasing it returns the
// branch being rebased even though HEAD is detached.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	if head, err := g.rebaseFile(ctx, "head-name"); err == nil {
		return strings.TrimPrefix(head, "refs/heads/"), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	return g.Output(ctx, "symbolic-ref", "--short", "-q", "HEAD")
}

// OrigHead returns the commit the running rebase started from.
func (g *Git) OrigHead(ctx context.Context) (string, error) {
	return g.rebaseFile(ctx, "orig-head")
}

// HasCommits reports whether HEAD points to a commit.
func (g *Git) HasCommits(ctx context.Context) bool {
	_, err := g.Output(ctx, "rev-parse", "--verify", "-q", "HEAD")
	return err == nil
}

// Subject returns the first line of rev's message.
func (g *Git) Subject(ctx context.Context, rev string) (string, error) {
	return g.Output(ctx, "log", "-1", "--format=%s", rev)
}

// Message returns the full message of rev.
func (g *Git) Message(ctx context.Context, rev string) (string, error) {
	out, err := g.Input(ctx, nil, "log", "-1", "--format=%B", rev)
	return strings.TrimRight(out, "\n") + "\n", err
}

// Commit is a hash and subject pair.
type Commit struct {
	Hash    string
	Subject string
}

// Commits lists the history reachable from rev, newest first.
func (g *Git) Commits(ctx context.Context, rev string) ([]Commit, error) {
	if !g.HasCommits(ctx) {
		return nil, nil
	}
	out, err := g.Output(ctx, "log", "--format=%H%x1f%s", rev)
	if err != nil {
		return nil, err
	}
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		hash, subject, ok := strings.Cut(line, "\x1f")
		if !ok {
			continue
		}
		commits = append(commits, Commit{Hash: hash, Subject: subject})
	}
	return commits, nil
}

// Subjects lists the subjects reachable from rev, newest first.
func (g *Git) Subjects(ctx context.Context, rev string) ([]string, error) {
	commits, err := g.Commits(ctx, rev)
	if err != nil {
		return nil, err
	}
	subjects := make([]string, len(commits))
	for i, c := range commits {
		subjects[i] = c.Subject
	}
	return subjects, nil
}

// StagedFiles lists paths staged relative to HEAD.
func (g *Git) StagedFiles(ctx context.Context) ([]string, error) {
	out, err := g.Output(ctx, "diff", "--cached", "--name-only")
	if err != nil || out == "" {
		return nil, err
	}
	return strings.Split(out, "\n"), nil
}

// IsAncestor reports whether a is an ancestor of b.
func (g *Git) IsAncestor(ctx context.Context, a, b string) (bool, error) {
	_, err := g.Output(ctx, "merge-base", "--is-ancestor", a, b)
	if err == nil {
		return true, nil
	}
	if IsExit(err, 1) {
		return false, nil
	}
	return false, err
}

// RootCommit returns the initial commit reachable from HEAD.
func (g *Git) RootCommit(ctx context.Context) (string, error) {
	out, err := g.Output(ctx, "rev-list", "--max-parents=0", "HEAD")
	if err != nil {
		return "", err
	}
	lines := strings.Split(out, "\n")
	return lines[len(lines)-1], nil
}

// Amend folds staged changes into HEAD. message replaces the HEAD message
// unless empty, in which case nothing happens when nothing is staged.
func (g *Git) Amend(ctx context.Context, message string) error {
	if message == "" {
		if _, err := g.Output(ctx, "diff", "--cached", "--quiet"); err == nil {
			return nil
		} else if !IsExit(err, 1) {
			return err
		}
		current, err := g.Message(ctx, "HEAD")
		if err != nil {
			return err
		}
		message = current
	}
	_, err := g.Output(ctx, "commit", "--amend", "--allow-empty", "-m", message)
	return err
}
