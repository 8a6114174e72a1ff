// Package manual renders the tutorial manuals. Each super step owns a template
// whose rendered view is committed alongside it; the root template renders to
// the top-level README.
package manual

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/step"
)

// RemovedStep replaces references to steps that no longer exist.
const RemovedStep = "XX.XX"

// DiffStepRe matches a diffStep call and captures its step and module.
var DiffStepRe = regexp.MustCompile(`\{\{\s*diffStep\s+"([^"]+)"\s+"([^"]*)"\s*\}\}`)

// DiffSource resolves the diff introduced by a step of a module. The empty
// module is the tutorial itself.
type DiffSource interface {
	StepDiff(ctx context.Context, module, id string) (string, error)
}

// Data is passed to templates.
type Data struct {
	Tutorial string
	Step     string // "root" or the super step number
	Title    string
}

// Renderer renders templates under Root.
type Renderer struct {
	Root   string
	Config *config.Config
	Diffs  DiffSource
}

// Render writes the view of id and returns its path relative to Root.
func (r *Renderer) Render(ctx context.Context, id step.ID, title string) (string, error) {
	src, dst := r.Config.RootTemplate(), r.Config.Manuals.RootView
	if !id.Root {
		if !id.IsSuper() {
			return "", fmt.Errorf("%w: sub step %s has no manual", step.ErrUsage, id)
		}
		src, dst = r.Config.Template(id.Super), r.Config.View(id.Super)
	}

	text, err := os.ReadFile(filepath.Join(r.Root, src))
	if err != nil {
		return "", fmt.Errorf("reading manual template: %w", err)
	}
	out, err := r.Execute(ctx, src, string(text), Data{Tutorial: r.Config.Name, Step: id.String(), Title: title})
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.Root, dst)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return dst, os.WriteFile(path, []byte(out), 0644)
}

// Execute renders a template body.
func (r *Renderer) Execute(ctx context.Context, name, text string, data Data) (string, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"diffStep": func(id, module string) (string, error) {
			return r.diffStep(ctx, id, module)
		},
	}).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) diffStep(ctx context.Context, id, module string) (string, error) {
	if id == RemovedStep {
		return "_This step no longer exists._\n", nil
	}
	if r.Diffs == nil {
		return "", fmt.Errorf("diffStep %s: no diff source", id)
	}
	diff, err := r.Diffs.StepDiff(ctx, module, id)
	if err != nil {
		return "", fmt.Errorf("diffStep %s %q: %w", id, module, err)
	}
	title := "Step " + id
	if module != "" {
		title = module + " " + title
	}
	return fmt.Sprintf("#### %s\n\n```diff\n%s\n```\n", title, strings.TrimRight(diff, "\n")), nil
}

// RootTemplate is the template written by init.
func RootTemplate(name string) string {
	return "# " + name + "\n\nThis tutorial is built step by step. Each step is a commit; super steps come with a manual.\n"
}

// StepTemplate is the template written when a super step is tagged.
func StepTemplate(n int, title string) string {
	return fmt.Sprintf("# Step %d: %s\n", n, title)
}
