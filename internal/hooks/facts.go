package hooks

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/git"
	"github.com/jorge-barreto/stepwise/internal/step"
	"github.com/jorge-barreto/stepwise/internal/store"
)

// EnvChild marks git invocations made by stepwise itself.
const EnvChild = "STEPWISE_CHILD"

// IsChild reports whether the current process descends from stepwise.
func IsChild() bool {
	return os.Getenv(EnvChild) != ""
}

// Gather collects the facts for hook name invoked with args.
func Gather(ctx context.Context, g *git.Git, s store.Store, cfg *config.Config, name string, args []string) (Facts, error) {
	f := Facts{
		Strict:        StrictMode(s, cfg),
		Child:         IsChild(),
		Rebasing:      g.IsRebasing(ctx),
		CherryPicking: g.IsCherryPicking(ctx),
		Config:        cfg,
	}
	if subject, err := g.Subject(ctx, "HEAD"); err == nil {
		f.Head = step.Parse(subject)
	}

	switch name {
	case "pre-commit":
		f.Amend = parentIsAmend()
		staged, err := g.StagedFiles(ctx)
		if err != nil {
			return f, err
		}
		f.Staged = staged
	case "pre-rebase":
		branch, err := g.CurrentBranch(ctx)
		if len(args) > 1 {
			branch, err = args[1], nil
		}
		if err != nil {
			return f, err
		}
		f.Branch = branch
	case "prepare-commit-msg":
		if len(args) > 1 {
			f.Source = args[1]
		}
		f.Amend = f.Source == "commit"
	case "commit-msg":
		f.Amend = parentIsAmend()
	}
	return f, nil
}

// StrictMode reports whether policies are enforced. A strict-mode entry in
// the store overrides the config.
func StrictMode(s store.Store, cfg *config.Config) bool {
	v, _ := s.Get(store.KeyStrictMode)
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return cfg.IsStrict()
	case "0", "false", "off", "no":
		return false
	}
	return true
}

// parentIsAmend inspects the command line of the git process running the hook.
func parentIsAmend() bool {
	for _, arg := range parentArgs() {
		if arg == "--amend" {
			return true
		}
	}
	return false
}

func parentArgs() []string {
	ppid := strconv.Itoa(os.Getppid())
	if data, err := os.ReadFile("/proc/" + ppid + "/cmdline"); err == nil {
		return strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	}
	out, err := exec.Command("ps", "-o", "args=", "-p", ppid).Output()
	if err != nil {
		return nil
	}
	return strings.Fields(string(out))
}
