// Package scaffold writes the file set of a new tutorial.
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/stepwise/internal/config"
	"github.com/jorge-barreto/stepwise/internal/manual"
	"github.com/jorge-barreto/stepwise/internal/ux"
)

// Init writes the config and the root manual template of a tutorial named
// name under root. It returns the config and the written paths relative to
// root.
func Init(root, name string) (*config.Config, []string, error) {
	if _, err := os.Stat(filepath.Join(root, config.File)); err == nil {
		return nil, nil, fmt.Errorf("%s already exists in %s", config.File, root)
	}
	cfg, err := config.Default(name)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Save(filepath.Join(root, config.File)); err != nil {
		return nil, nil, fmt.Errorf("writing %s: %w", config.File, err)
	}

	files := []string{config.File}
	for _, dir := range []string{cfg.Manuals.Templates, cfg.Manuals.Views} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	tmpl := cfg.RootTemplate()
	if err := os.WriteFile(filepath.Join(root, tmpl), []byte(manual.RootTemplate(cfg.Name)), 0644); err != nil {
		return nil, nil, fmt.Errorf("writing %s: %w", tmpl, err)
	}
	files = append(files, tmpl)
	return cfg, files, nil
}

var descriptions = map[string]string{
	config.File: "tutorial configuration",
}

// PrintSuccess reports the files created by init and the next commands.
func PrintSuccess(w io.Writer, name string, files []string) {
	fmt.Fprintf(w, "\n%s%s✓ Initialized tutorial %s%s\n\n", ux.Bold, ux.Green, name, ux.Reset)
	fmt.Fprintf(w, "  Created:\n")
	for _, f := range files {
		desc, ok := descriptions[f]
		if !ok {
			desc = "manual template"
		}
		fmt.Fprintf(w, "    %s%-40s%s %s\n", ux.Cyan, f, ux.Reset, desc)
	}
	fmt.Fprintf(w, "\n  Next steps:\n")
	fmt.Fprintf(w, "    1. Stage a change and run %sstepwise step push -m <message>%s\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(w, "    2. Close a chapter with %sstepwise step tag -m <title>%s\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(w, "    3. Run %sstepwise docs%s for the full guide\n\n", ux.Cyan, ux.Reset)
}
