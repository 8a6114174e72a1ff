package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain turns the test binary into the stepwise CLI when re-executed, so
// hook shims and rebase instructions call back into the code under test.
func TestMain(m *testing.M) {
	if os.Getenv("STEPWISE_TEST_AS_CLI") == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

type sandbox struct {
	t   *testing.T
	dir string
	env []string
}

func newSandbox(t *testing.T) *sandbox {
	return newNamedSandbox(t, "demo")
}

// newNamedSandbox initializes a tutorial called name on branch name.
func newNamedSandbox(t *testing.T, name string) *sandbox {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found on PATH")
	}
	dir := t.TempDir()
	home := t.TempDir()
	env := append(os.Environ(),
		"STEPWISE_TEST_AS_CLI=1",
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_NOSYSTEM=1", "HOME="+home,
		"GIT_EDITOR=true", "NO_COLOR=1",
	)
	sb := &sandbox{t: t, dir: dir, env: env}
	sb.git("init", "-q", "-b", name)
	sb.stepwise("init", "--name", name)
	return sb
}

// at returns a sandbox for another directory with the same environment.
func (sb *sandbox) at(dir string) *sandbox {
	return &sandbox{t: sb.t, dir: dir, env: sb.env}
}

func (sb *sandbox) read(rel string) string {
	sb.t.Helper()
	data, err := os.ReadFile(filepath.Join(sb.dir, rel))
	require.NoError(sb.t, err)
	return string(data)
}

func (sb *sandbox) write(rel, body string) {
	sb.t.Helper()
	path := filepath.Join(sb.dir, rel)
	require.NoError(sb.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(sb.t, os.WriteFile(path, []byte(body), 0o644))
}

func (sb *sandbox) head() string {
	sb.t.Helper()
	return sb.git("log", "-1", "--format=%s")
}

func (sb *sandbox) assertRebaseDone() {
	sb.t.Helper()
	dir := sb.git("rev-parse", "--absolute-git-dir")
	_, err := os.Stat(filepath.Join(dir, "rebase-merge"))
	assert.True(sb.t, os.IsNotExist(err), "rebase finished in %s", sb.dir)
}

func (sb *sandbox) run(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = sb.dir
	cmd.Env = sb.env
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (sb *sandbox) git(args ...string) string {
	sb.t.Helper()
	out, err := sb.run("git", args...)
	require.NoError(sb.t, err, "git %v:\n%s", args, out)
	return strings.TrimSpace(out)
}

func (sb *sandbox) stepwise(args ...string) string {
	sb.t.Helper()
	out, err := sb.run(os.Args[0], args...)
	require.NoError(sb.t, err, "stepwise %v:\n%s", args, out)
	return out
}

func (sb *sandbox) subjects() []string {
	sb.t.Helper()
	return strings.Split(sb.git("log", "--format=%s"), "\n")
}

func TestInsertStepDuringEdit(t *testing.T) {
	sb := newSandbox(t)
	sb.stepwise("step", "push", "-m", "dummy", "--allow-empty")
	sb.stepwise("step", "push", "-m", "dummy", "--allow-empty")
	sb.stepwise("step", "tag", "-m", "Intro")
	assert.Equal(t, []string{"Step 1: Intro", "Step 1.2: dummy", "Step 1.1: dummy", "demo"}, sb.subjects())

	sb.stepwise("step", "edit", "1.1")
	assert.Equal(t, "Step 1.1: dummy", sb.git("log", "-1", "--format=%s"))

	sb.stepwise("step", "push", "-m", "new", "--allow-empty")
	sb.git("rebase", "--continue")

	assert.Equal(t, []string{"Step 1: Intro", "Step 1.3: dummy", "Step 1.2: new", "Step 1.1: dummy", "demo"}, sb.subjects())
	_, err := os.Stat(filepath.Join(sb.dir, ".git", "rebase-merge"))
	assert.True(t, os.IsNotExist(err), "rebase finished")
	assert.Equal(t, sb.git("rev-parse", "HEAD"), sb.git("rev-parse", "step1^{commit}"))
	assert.Empty(t, strings.TrimSpace(sb.stepwise("store", "get", "old-step")), "transient state cleared")
}

func TestPopDuringEdit(t *testing.T) {
	sb := newSandbox(t)
	sb.stepwise("step", "push", "-m", "a", "--allow-empty")
	sb.stepwise("step", "push", "-m", "b", "--allow-empty")
	sb.stepwise("step", "push", "-m", "c", "--allow-empty")

	sb.stepwise("step", "edit", "1.2")
	sb.stepwise("step", "pop")
	sb.git("rebase", "--continue")

	assert.Equal(t, []string{"Step 1.2: c", "Step 1.1: a", "demo"}, sb.subjects())
}

func TestReword(t *testing.T) {
	sb := newSandbox(t)
	sb.stepwise("step", "push", "-m", "a", "--allow-empty")
	sb.stepwise("step", "push", "-m", "b", "--allow-empty")

	sb.stepwise("step", "reword", "-m", "better", "1.1")
	assert.Equal(t, []string{"Step 1.2: b", "Step 1.1: better", "demo"}, sb.subjects())
}

func TestPlainCommitRejected(t *testing.T) {
	sb := newSandbox(t)
	out, err := sb.run("git", "commit", "--allow-empty", "-m", "sneaky")
	require.Error(t, err)
	assert.Contains(t, out, "stepwise step push")
	assert.Equal(t, []string{"demo"}, sb.subjects())

	_, err = sb.run("git", "rebase", "-i", "--root")
	require.Error(t, err, "rebases go through stepwise")
}

func TestStatusAndDoctor(t *testing.T) {
	sb := newSandbox(t)
	sb.stepwise("step", "push", "-m", "first", "--allow-empty")

	out := sb.stepwise("status")
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "first")

	out = sb.stepwise("doctor")
	assert.Contains(t, out, "hook pre-commit")

	require.NoError(t, os.Remove(filepath.Join(sb.dir, ".git", "hooks", "commit-msg")))
	_, err := sb.run(os.Args[0], "doctor")
	assert.Error(t, err)
	sb.stepwise("doctor", "--fix")
}

// Inserting a step at the first of two edited steps renumbers everything
// after it, including the commits past the second pause.
func TestEditTwoStepsKeepsNumbersContiguous(t *testing.T) {
	sb := newSandbox(t)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		sb.stepwise("step", "push", "-m", msg, "--allow-empty")
	}

	sb.stepwise("step", "edit", "1.4", "1.2")
	assert.Equal(t, "Step 1.2: b", sb.head())

	sb.stepwise("step", "push", "-m", "new", "--allow-empty")
	sb.git("rebase", "--continue")
	assert.Equal(t, "Step 1.5: d", sb.head(), "second pause lands on the renumbered step")

	sb.git("rebase", "--continue")
	assert.Equal(t, []string{
		"Step 1.6: e", "Step 1.5: d", "Step 1.4: c", "Step 1.3: new",
		"Step 1.2: b", "Step 1.1: a", "demo",
	}, sb.subjects())
	sb.assertRebaseDone()
	assert.Empty(t, strings.TrimSpace(sb.stepwise("store", "get", "old-step")))
}

// Popping a super step moves the next super step and its manual files down.
func TestPopSuperStepShiftsLaterManuals(t *testing.T) {
	sb := newSandbox(t)
	for _, s := range []struct{ sub, super string }{{"a", "One"}, {"b", "Two"}, {"c", "Three"}} {
		sb.stepwise("step", "push", "-m", s.sub, "--allow-empty")
		sb.stepwise("step", "tag", "-m", s.super)
	}
	templates := filepath.Join(".stepwise", "manuals", "templates")
	views := filepath.Join(".stepwise", "manuals", "views")
	require.FileExists(t, filepath.Join(sb.dir, templates, "step3.tmpl"))

	sb.stepwise("step", "edit", "2")
	assert.Equal(t, "Step 2: Two", sb.head())
	sb.stepwise("step", "pop")
	sb.git("rebase", "--continue")

	assert.Equal(t, []string{
		"Step 2: Three", "Step 2.2: c", "Step 2.1: b", "Step 1: One", "Step 1.1: a", "demo",
	}, sb.subjects())
	sb.assertRebaseDone()

	assert.Contains(t, sb.read(filepath.Join(templates, "step2.tmpl")), "Three")
	assert.Contains(t, sb.read(filepath.Join(views, "step2.md")), "Three")
	assert.NoFileExists(t, filepath.Join(sb.dir, templates, "step3.tmpl"))
	assert.NoFileExists(t, filepath.Join(sb.dir, views, "step3.md"))
	assert.Empty(t, sb.git("status", "--porcelain"))

	assert.Equal(t, sb.git("rev-parse", "HEAD"), sb.git("rev-parse", "step2^{commit}"))
	assert.Equal(t, "step1\nstep2", sb.git("tag", "--list"))
}

// newBook builds the tutorial "book" with the tutorial "lib" as a submodule.
// The manual of book's first super step shows steps 1.1 and 1.2 of lib.
func newBook(t *testing.T) (book, lib *sandbox) {
	t.Helper()
	src := newNamedSandbox(t, "lib")
	src.stepwise("step", "push", "-m", "x", "--allow-empty")
	src.stepwise("step", "push", "-m", "y", "--allow-empty")
	src.stepwise("step", "tag", "-m", "One")

	book = newNamedSandbox(t, "book")
	book.git("-c", "protocol.file.allow=always", "submodule", "add", "-q", src.dir, "lib")
	lib = book.at(filepath.Join(book.dir, "lib"))
	lib.stepwise("init")

	cfg := book.read(filepath.Join(".stepwise", "config.yaml"))
	book.write(filepath.Join(".stepwise", "config.yaml"), cfg+"submodules:\n  - name: lib\n    path: lib\n")
	book.git("add", ".gitmodules", "lib", filepath.Join(".stepwise", "config.yaml"))
	book.stepwise("step", "push", "-m", "add lib")

	book.write(filepath.Join(".stepwise", "manuals", "templates", "step1.tmpl"),
		"# Lib\n\n{{diffStep \"1.1\" \"lib\"}}\n{{diffStep \"1.2\" \"lib\"}}\n")
	book.stepwise("step", "tag", "-m", "Lib")
	return book, lib
}

func TestUpdateRefs_InsertedStep(t *testing.T) {
	book, lib := newBook(t)

	lib.stepwise("step", "edit", "--update-refs", "..", "1.1")
	lib.stepwise("step", "push", "-m", "new", "--allow-empty")
	lib.git("rebase", "--continue")

	assert.Equal(t, []string{"Step 1: One", "Step 1.3: y", "Step 1.2: new", "Step 1.1: x", "lib"}, lib.subjects())
	lib.assertRebaseDone()

	tmpl := book.read(filepath.Join(".stepwise", "manuals", "templates", "step1.tmpl"))
	assert.Contains(t, tmpl, `{{diffStep "1.1" "lib"}}`)
	assert.Contains(t, tmpl, `{{diffStep "1.3" "lib"}}`)
	assert.NotContains(t, tmpl, `{{diffStep "1.2" "lib"}}`)
	assert.Equal(t, []string{"Step 1: Lib", "Step 1.1: add lib", "book"}, book.subjects())
	book.assertRebaseDone()
}

func TestUpdateRefs_RemovedStep(t *testing.T) {
	book, lib := newBook(t)

	lib.stepwise("step", "edit", "--update-refs", "..", "1.2")
	lib.stepwise("step", "pop")
	lib.git("rebase", "--continue")

	assert.Equal(t, []string{"Step 1: One", "Step 1.1: x", "lib"}, lib.subjects())

	tmpl := book.read(filepath.Join(".stepwise", "manuals", "templates", "step1.tmpl"))
	assert.Contains(t, tmpl, `{{diffStep "1.1" "lib"}}`)
	assert.Contains(t, tmpl, `{{diffStep "XX.XX" "lib"}}`)
	assert.Contains(t, book.read(filepath.Join(".stepwise", "manuals", "views", "step1.md")), "no longer exists")
	book.assertRebaseDone()
}
