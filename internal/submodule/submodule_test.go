package submodule

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/git"
)

var identity = []string{
	"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
	"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
	"GIT_CONFIG_NOSYSTEM=1",
}

func TestEnsure(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
	ctx := context.Background()
	root := t.TempDir()
	parent := git.New(root).WithEnv(append(identity, "HOME="+root)...)
	run := func(g *git.Git, args ...string) string {
		t.Helper()
		out, err := g.Output(ctx, args...)
		require.NoError(t, err, "git %v", args)
		return out
	}

	run(parent, "init", "-q", "-b", "demo")
	run(parent, "commit", "-q", "--allow-empty", "-m", "demo")

	server := parent.WithEnv()
	server.Dir = filepath.Join(root, "server")
	run(parent, "init", "-q", "-b", "server", "server")
	run(server, "commit", "-q", "--allow-empty", "-m", "server")
	run(server, "commit", "-q", "--allow-empty", "-m", "Step 1: One")
	run(server, "tag", "step1")
	run(server, "commit", "-q", "--allow-empty", "-m", "Step 2: Two")
	step1 := run(server, "rev-parse", "step1")

	cfg, err := config.Default("demo")
	require.NoError(t, err)
	cfg.Submodules = []config.Submodule{{Name: "server", Path: "server"}}

	s := &Synchronizer{Git: parent, Root: root, Config: cfg, Log: slog.New(slog.DiscardHandler)}
	require.NoError(t, s.Ensure(ctx, 1))
	assert.Equal(t, step1, run(server, "rev-parse", "HEAD"))
	assert.Contains(t, run(parent, "diff", "--cached", "--name-only"), "server")

	head := run(server, "rev-parse", "HEAD")
	require.NoError(t, s.Ensure(ctx, 5), "missing steps are skipped")
	assert.Equal(t, head, run(server, "rev-parse", "HEAD"))
}
