package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("config: 'name' is required")
	}
	if !nameRe.MatchString(cfg.Name) {
		return fmt.Errorf("config: name %q must be usable as a branch name (letters, digits, '.', '_', '-')", cfg.Name)
	}

	if cfg.Manuals.Templates == "" {
		cfg.Manuals.Templates = filepath.Join(Dir, "manuals", "templates")
	}
	if cfg.Manuals.Views == "" {
		cfg.Manuals.Views = filepath.Join(Dir, "manuals", "views")
	}
	if cfg.Manuals.RootView == "" {
		cfg.Manuals.RootView = "README.md"
	}
	for _, p := range []struct{ key, val string }{
		{"manuals.templates", cfg.Manuals.Templates},
		{"manuals.views", cfg.Manuals.Views},
		{"manuals.root-view", cfg.Manuals.RootView},
	} {
		if err := relativePath(p.val); err != nil {
			return fmt.Errorf("config: %s: %w", p.key, err)
		}
	}
	if cfg.Manuals.Templates == cfg.Manuals.Views {
		return fmt.Errorf("config: manuals.templates and manuals.views must differ")
	}

	seen := make(map[string]bool)
	for i := range cfg.Submodules {
		s := &cfg.Submodules[i]
		if s.Name == "" {
			return fmt.Errorf("config: submodule %d: 'name' is required", i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("config: duplicate submodule name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Path == "" {
			s.Path = s.Name
		}
		if err := relativePath(s.Path); err != nil {
			return fmt.Errorf("config: submodule %q: %w", s.Name, err)
		}
	}
	return nil
}

func relativePath(p string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("path %q must be relative", p)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes the working tree", p)
	}
	return nil
}
