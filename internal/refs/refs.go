// Package refs maintains the step index: one tag and one branch per super
// step plus a branch for the root commit. The index is always rebuilt from
// scratch because any rebase may have changed every hash.
package refs

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jorge-barreto/stepwise/internal/git"
	"github.com/jorge-barreto/stepwise/internal/step"
)

var tagRe = regexp.MustCompile(`^step\d+$`)

// Tag names the tag of super step n.
func Tag(n int) string { return "step" + strconv.Itoa(n) }

// Branch names the branch of super step n of the tutorial branch base.
func Branch(base string, n int) string { return base + "-" + Tag(n) }

// RootBranch names the branch of the root commit.
func RootBranch(base string) string { return base + "-root" }

// BranchPattern matches the branches generated for base.
func BranchPattern(base string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `-(step\d+|root)$`)
}

var generatedRe = regexp.MustCompile(`^(.+)-(step\d+|root)$`)

// GeneratedBase reports whether branch is a generated step branch and returns
// the tutorial branch it was generated from.
func GeneratedBase(branch string) (string, bool) {
	m := generatedRe.FindStringSubmatch(branch)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Index is the rebuilt set of refs.
type Index struct {
	Base  string
	Root  string         // root commit hash
	Steps map[int]string // super step -> commit hash
}

// Rebuild deletes every generated ref and recreates them from HEAD.
func Rebuild(ctx context.Context, g *git.Git) (*Index, error) {
	base, err := g.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving tutorial branch: %w", err)
	}
	if err := clear(ctx, g, base); err != nil {
		return nil, err
	}

	commits, err := g.Commits(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	idx := &Index{Base: base, Steps: make(map[int]string)}
	if len(commits) == 0 {
		return idx, nil
	}
	if idx.Root, err = g.RootCommit(ctx); err != nil {
		return nil, err
	}
	if _, err := g.Output(ctx, "branch", "-f", RootBranch(base), idx.Root); err != nil {
		return nil, err
	}
	for _, c := range commits {
		d := step.ParseSuper(c.Subject)
		if d == nil {
			continue
		}
		n := d.ID.Super
		if _, seen := idx.Steps[n]; seen {
			continue
		}
		idx.Steps[n] = c.Hash
		if _, err := g.Output(ctx, "tag", "-f", Tag(n), c.Hash); err != nil {
			return nil, err
		}
		if _, err := g.Output(ctx, "branch", "-f", Branch(base, n), c.Hash); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func clear(ctx context.Context, g *git.Git, base string) error {
	out, err := g.Output(ctx, "tag", "--list", "step*")
	if err != nil {
		return err
	}
	var tags []string
	for _, t := range lines(out) {
		if tagRe.MatchString(t) {
			tags = append(tags, t)
		}
	}
	if len(tags) > 0 {
		if _, err := g.Output(ctx, append([]string{"tag", "-d"}, tags...)...); err != nil {
			return err
		}
	}

	out, err = g.Output(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads/"+base+"-*")
	if err != nil {
		return err
	}
	pattern := BranchPattern(base)
	var branches []string
	for _, b := range lines(out) {
		if pattern.MatchString(b) {
			branches = append(branches, b)
		}
	}
	if len(branches) > 0 {
		if _, err := g.Output(ctx, append([]string{"branch", "-D"}, branches...)...); err != nil {
			return err
		}
	}
	return nil
}

func lines(out string) []string {
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}
