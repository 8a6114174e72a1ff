package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/stepwise/internal/config"
)

func TestInit_CreatesFileSet(t *testing.T) {
	dir := t.TempDir()
	cfg, files, err := Init(dir, "demo")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}

	for _, path := range []string{
		config.File,
		cfg.RootTemplate(),
		cfg.Manuals.Templates,
		cfg.Manuals.Views,
	} {
		if _, err := os.Stat(filepath.Join(dir, path)); err != nil {
			t.Fatalf("%s not created: %v", path, err)
		}
	}
}

func TestInit_GeneratedConfigIsValid(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := Init(dir, "demo"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	cfg, err := config.LoadRoot(dir)
	if err != nil {
		t.Fatalf("config.LoadRoot failed on generated config: %v", err)
	}
	if cfg.Name != "demo" {
		t.Fatalf("name = %q", cfg.Name)
	}
	if !cfg.IsStrict() {
		t.Fatal("new tutorials are strict")
	}

	tmpl, err := os.ReadFile(filepath.Join(dir, cfg.RootTemplate()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(tmpl), "# demo\n") {
		t.Fatalf("root template = %q", tmpl)
	}
}

func TestInit_FailsIfConfigExists(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := Init(dir, "demo"); err != nil {
		t.Fatal(err)
	}

	_, _, err := Init(dir, "demo")
	if err == nil {
		t.Fatal("expected error when the config already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected error containing 'already exists', got: %s", err)
	}
}

func TestInit_RejectsBadName(t *testing.T) {
	if _, _, err := Init(t.TempDir(), "-bad"); err == nil {
		t.Fatal("expected an invalid name to fail")
	}
}

func TestPrintSuccess(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "demo", []string{config.File, ".stepwise/manuals/templates/root.tmpl"})
	out := buf.String()
	for _, want := range []string{"Initialized tutorial demo", config.File, "root.tmpl", "stepwise step push"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
