// Package submodule keeps nested tutorials pinned to the super step of the
// tutorial that contains them.
package submodule

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/git"
	"github.com/jorge-barreto/stepwise/internal/refs"
)

// Synchronizer checks out submodules at matching super steps.
type Synchronizer struct {
	Git    *git.Git // the containing repository
	Root   string   // its working tree
	Config *config.Config
	Log    *slog.Logger
}

// Ensure checks out step n in every configured submodule that has it and
// stages the new pins. Submodules with fewer steps keep their checkout.
func (s *Synchronizer) Ensure(ctx context.Context, n int) error {
	var (
		mu     sync.Mutex
		pinned []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, sm := range s.Config.Submodules {
		g.Go(func() error {
			sub := git.New(filepath.Join(s.Root, sm.Path))
			sub.Isolate = true
			hash, err := sub.Output(gctx, "rev-parse", "--verify", "-q", refs.Tag(n)+"^{commit}")
			if err != nil {
				s.Log.WarnContext(gctx, "submodule has no matching step", "submodule", sm.Name, "step", n)
				return nil
			}
			if _, err := sub.Output(gctx, "checkout", "-q", hash); err != nil {
				return fmt.Errorf("submodule %s: %w", sm.Name, err)
			}
			s.Log.InfoContext(gctx, "submodule pinned", "submodule", sm.Name, "step", n, "commit", hash)
			mu.Lock()
			pinned = append(pinned, sm.Path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if len(pinned) == 0 {
		return nil
	}
	// One add keeps the parent index lock uncontended.
	if _, err := s.Git.Output(ctx, append([]string{"add", "--"}, pinned...)...); err != nil {
		return fmt.Errorf("staging submodules: %w", err)
	}
	return nil
}
