package hooks

import (
	"context"
	"fmt"
	"os"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/git"
	"github.com/jorge-barreto/stepwise/internal/store"
)

// Run evaluates hook name. args are the arguments git passed to the hook.
// Repositories that were not initialized pass every hook.
func Run(ctx context.Context, g *git.Git, s store.Store, cfg *config.Config, name string, args []string) error {
	if cfg == nil || !store.IsSet(s, store.KeyInitialized) {
		return nil
	}
	f, err := Gather(ctx, g, s, cfg, name, args)
	if err != nil {
		return err
	}
	switch name {
	case "pre-commit":
		return PreCommit(f)
	case "pre-rebase":
		return PreRebase(f)
	case "prepare-commit-msg":
		return rewriteMessage(args, func(msg string) (string, error) { return PrepareCommitMsg(f, s, msg) })
	case "commit-msg":
		return rewriteMessage(args, func(msg string) (string, error) { return CommitMsg(f, s, msg) })
	}
	return fmt.Errorf("unknown hook %q", name)
}

func rewriteMessage(args []string, fn func(string) (string, error)) error {
	if len(args) == 0 {
		return fmt.Errorf("missing message file argument")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	msg, err := fn(string(data))
	if err != nil {
		return err
	}
	if msg == string(data) {
		return nil
	}
	return os.WriteFile(args[0], []byte(msg), 0644)
}
