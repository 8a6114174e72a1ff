package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_NameRequired(t *testing.T) {
	cfg := &Config{}
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "'name' is required") {
		t.Fatalf("expected name required error, got %v", err)
	}
}

func TestValidate_NameMustBeBranchSafe(t *testing.T) {
	for _, name := range []string{"my tutorial", "-x", "a/b", "..."} {
		if err := Validate(&Config{Name: name}); err == nil {
			t.Fatalf("expected error for name %q", name)
		}
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := &Config{Name: "demo"}
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Manuals.Templates != ".stepwise/manuals/templates" {
		t.Fatalf("templates = %q", cfg.Manuals.Templates)
	}
	if cfg.Manuals.Views != ".stepwise/manuals/views" {
		t.Fatalf("views = %q", cfg.Manuals.Views)
	}
	if cfg.Manuals.RootView != "README.md" {
		t.Fatalf("root view = %q", cfg.Manuals.RootView)
	}
	if !cfg.IsStrict() {
		t.Fatal("strict should default to true")
	}
}

func TestValidate_AbsoluteManualPath(t *testing.T) {
	cfg := &Config{Name: "demo", Manuals: Manuals{Views: "/tmp/views"}}
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "must be relative") {
		t.Fatalf("got %v", err)
	}
}

func TestValidate_EscapingManualPath(t *testing.T) {
	cfg := &Config{Name: "demo", Manuals: Manuals{RootView: "../README.md"}}
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "escapes") {
		t.Fatalf("got %v", err)
	}
}

func TestValidate_SameTemplateAndViewDir(t *testing.T) {
	cfg := &Config{Name: "demo", Manuals: Manuals{Templates: "docs", Views: "docs"}}
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("got %v", err)
	}
}

func TestValidate_Submodules(t *testing.T) {
	cfg := &Config{Name: "demo", Submodules: []Submodule{{Name: "server"}}}
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Submodules[0].Path != "server" {
		t.Fatalf("path should default to name, got %q", cfg.Submodules[0].Path)
	}
	if cfg.SubmoduleByName("server") == nil || cfg.SubmoduleByName("client") != nil {
		t.Fatal("SubmoduleByName mismatch")
	}

	dup := &Config{Name: "demo", Submodules: []Submodule{{Name: "a"}, {Name: "a", Path: "b"}}}
	if err := Validate(dup); err == nil || !strings.Contains(err.Error(), "duplicate submodule") {
		t.Fatalf("got %v", err)
	}

	unnamed := &Config{Name: "demo", Submodules: []Submodule{{Path: "x"}}}
	if err := Validate(unnamed); err == nil || !strings.Contains(err.Error(), "'name' is required") {
		t.Fatalf("got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("name: demo\nstrict: false\nsubmodules:\n  - name: server\n    path: srv\n"), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "demo" || cfg.IsStrict() {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := cfg.SubmoduleByName("server").Path; got != "srv" {
		t.Fatalf("submodule path = %q", got)
	}
	if got := cfg.View(3); got != ".stepwise/manuals/views/step3.md" {
		t.Fatalf("view = %q", got)
	}
	if got := cfg.Template(3); got != ".stepwise/manuals/templates/step3.tmpl" {
		t.Fatalf("template = %q", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("name: [unclosed"), 0644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg, err := Default("demo")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Save(filepath.Join(root, File)); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadRoot(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "demo" || loaded.Manuals != cfg.Manuals || !loaded.IsStrict() {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}
