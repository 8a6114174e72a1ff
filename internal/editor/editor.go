// Package editor rewrites interactive rebase instruction lists. It is invoked
// as git's sequence editor, either by a user command starting a rebase or by an
// exec line it generated itself, and leaves the state the next pass needs in
// the store.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"

	"github.com/jorge-barreto/stepwise/internal/action"
	"github.com/jorge-barreto/stepwise/internal/step"
	"github.com/jorge-barreto/stepwise/internal/store"
	"github.com/jorge-barreto/stepwise/internal/todo"
)

// Repo exposes the history the editor reasons about.
type Repo interface {
	// Subjects lists the commit subjects reachable from rev, newest first.
	Subjects(ctx context.Context, rev string) ([]string, error)
}

// Editor rewrites todo lists.
type Editor struct {
	Store store.Store
	Repo  Repo
	Exe   string // executable written into generated instructions
	Log   *slog.Logger
}

// EditOptions configures Edit.
type EditOptions struct {
	Steps []string // step ids or "root"
	// Head marks a nested pass reopened mid-rebase: the sequencer pauses on
	// the commit it just replayed instead of on a listed one.
	Head bool
	// From is the number the paused commit carried before the walk that
	// demoted it renumbered it. Only used with Head.
	From string
	// UpdateRefs is the path of a repository whose cross references follow
	// this one's step numbers.
	UpdateRefs string
}

func (e *Editor) log() *slog.Logger {
	if e.Log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Log
}

func (e *Editor) exec(kind action.Kind, args ...string) todo.Operation {
	return todo.NewExec(action.New(kind, args...).Command(e.Exe))
}

func (e *Editor) reopen(kind action.Kind, args ...string) todo.Operation {
	return todo.NewExec(action.New(kind, args...).EditTodo(e.Exe))
}

func updateRefsArgs(path string) []string {
	if path == "" {
		return nil
	}
	return []string{"--update-refs", path}
}

// Edit marks the requested steps for editing and schedules a sort pass after
// each of them.
func (e *Editor) Edit(ctx context.Context, ops []todo.Operation, opts EditOptions) ([]todo.Operation, error) {
	if opts.Head {
		if err := e.Store.Remove(store.KeyHooksDisabled); err != nil {
			return nil, err
		}
	} else {
		if err := store.ClearTransient(e.Store); err != nil {
			return nil, err
		}
		if err := e.Store.Set(store.KeySession, uuid.NewString()); err != nil {
			return nil, err
		}
	}

	var edited []int
	current := step.RootID
	if opts.Head {
		ops = todo.Insert(ops, 0, todo.Operation{Method: todo.Break})
		edited = append(edited, 0)
		history, err := e.Repo.Subjects(ctx, "HEAD")
		if err != nil {
			return nil, err
		}
		if d := step.Current(history); d != nil {
			current = d.ID
		}
	} else {
		if len(opts.Steps) == 0 {
			return nil, fmt.Errorf("%w: no step to edit", step.ErrUsage)
		}
		for _, s := range opts.Steps {
			id, err := step.ParseID(s)
			if err != nil {
				return nil, err
			}
			i := findStep(ops, id)
			if i < 0 {
				return nil, fmt.Errorf("%w: step %s not found", step.ErrUsage, id)
			}
			ops[i].Method = todo.Edit
			edited = append(edited, i)
		}
		sort.Ints(edited)
		if d := step.Parse(ops[edited[0]].Payload); d != nil {
			current = d.ID
		}
	}

	old := current
	if opts.Head && opts.From != "" {
		id, err := step.ParseID(opts.From)
		if err != nil {
			return nil, fmt.Errorf("nested edit: %w", err)
		}
		old = id
	}

	if len(ops) > 1 {
		if err := e.Store.Set(store.KeyOldStep, old.String()); err != nil {
			return nil, err
		}
		if err := e.Store.Set(store.KeyNewStep, current.String()); err != nil {
			return nil, err
		}
		sortOp := e.reopen(action.Sort, updateRefsArgs(opts.UpdateRefs)...)
		for k := len(edited) - 1; k >= 0; k-- {
			if k > 0 && edited[k] == edited[k-1] {
				continue
			}
			ops = todo.Insert(ops, edited[k]+1, sortOp)
		}
	}

	if !opts.Head {
		ops = append(ops, e.exec(action.Rebranch))
	}
	e.log().InfoContext(ctx, "edit", "steps", opts.Steps, "head", opts.Head, "old", old.String(), "current", current.String())
	return ops, nil
}

// findStep locates the commit of id. The root is the first commit of a root
// rebase when it carries no step prefix.
func findStep(ops []todo.Operation, id step.ID) int {
	if id.Root {
		if len(ops) > 0 && ops[0].IsCommit() && step.Parse(ops[0].Payload) == nil {
			return 0
		}
		return -1
	}
	for i, op := range ops {
		if !op.IsCommit() {
			continue
		}
		if d := step.Parse(op.Payload); d != nil && d.ID == id {
			return i
		}
	}
	return -1
}

// Sort schedules renumbering of the commits that follow an edited step, up to
// the limit implied by how the edit changed the step sequence.
func (e *Editor) Sort(ctx context.Context, ops []todo.Operation, updateRefs string) ([]todo.Operation, error) {
	if err := e.Store.Remove(store.KeyHooksDisabled); err != nil {
		return nil, err
	}
	oldRaw, err := e.Store.Get(store.KeyOldStep)
	if err != nil {
		return nil, err
	}
	newRaw, err := e.Store.Get(store.KeyNewStep)
	if err != nil {
		return nil, err
	}
	pending := store.IsSet(e.Store, store.KeyStepMapPending)

	if oldRaw == newRaw && !pending {
		e.log().InfoContext(ctx, "sort: step sequence unchanged", "step", oldRaw)
		if err := e.Store.Set(store.KeyHooksDisabled, "1"); err != nil {
			return nil, err
		}
		// Numbers are unchanged, but a later edit still needs its own pass.
		for i, op := range ops {
			if op.Method == todo.Edit || op.Method == "e" {
				ops[i].Method = todo.Pick
				return e.nest(ops, i, step.Parse(op.Payload), false, updateRefs), nil
			}
		}
		return ops, nil
	}

	limit := step.Infinity
	if !pending {
		oldID, err := step.ParseID(oldRaw)
		if err != nil {
			return nil, fmt.Errorf("old step: %w", err)
		}
		newID, err := step.ParseID(newRaw)
		if err != nil {
			return nil, fmt.Errorf("new step: %w", err)
		}
		limit = step.Limit(oldID, newID)
	}
	e.log().InfoContext(ctx, "sort", "old", oldRaw, "new", newRaw, "limit", step.FormatLimit(limit), "pending", pending)

	deferred := false
walk:
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		if !op.IsCommit() {
			continue
		}
		d := step.Parse(op.Payload)
		if d == nil {
			continue
		}
		if d.ID.Super > limit {
			ops = todo.Insert(ops, i, e.exec(action.DisableHooks))
			break walk
		}

		replay := op
		replay.Method = todo.Pick
		if d.ID.IsSuper() {
			replay = e.exec(action.SuperPick, op.Hash)
		}
		ops[i] = replay

		if op.Method == todo.Edit || op.Method == "e" {
			ops = e.nest(ops, i, d, true, updateRefs)
			deferred = true
			e.log().InfoContext(ctx, "sort: deferring to nested edit", "step", d.ID.String())
			break walk
		}

		ops = todo.Insert(ops, i+1, e.exec(action.Renumber))
		i++
	}

	if !deferred {
		if updateRefs != "" {
			ops = append(ops, e.exec(action.UpdateRefs, updateRefs))
		}
		ops = append(ops, e.exec(action.Cleanup))
	}
	return ops, nil
}

// nest replaces the sort pass scheduled after the commit at i with a nested
// edit that pauses on that commit once it has been replayed. d is the
// commit's descriptor before replay, so the nested pass can tell how far the
// walk moved it.
func (e *Editor) nest(ops []todo.Operation, i int, d *step.Descriptor, renumber bool, updateRefs string) []todo.Operation {
	sortCmd := e.reopen(action.Sort, updateRefsArgs(updateRefs)...).Command()
	if i+1 < len(ops) && ops[i+1].Method == todo.Exec && ops[i+1].Command() == sortCmd {
		ops = todo.Remove(ops, i+1)
	}
	var after []todo.Operation
	if renumber {
		after = append(after, e.exec(action.Renumber))
	}
	nested := []string{"--head"}
	if d != nil {
		nested = append(nested, "--from", d.ID.String())
	}
	nested = append(nested, updateRefsArgs(updateRefs)...)
	after = append(after, e.reopen(action.Edit, nested...))
	return todo.Insert(ops, i+1, after...)
}

// Reword schedules an amend of target, or of the most recent commit when
// target is empty.
func (e *Editor) Reword(ctx context.Context, ops []todo.Operation, target, message string) ([]todo.Operation, error) {
	i := -1
	if target == "" {
		for k := len(ops) - 1; k >= 0; k-- {
			if ops[k].IsCommit() {
				i = k
				break
			}
		}
	} else {
		id, err := step.ParseID(target)
		if err != nil {
			return nil, err
		}
		i = findStep(ops, id)
	}
	if i < 0 {
		return nil, fmt.Errorf("%w: step %s not found", step.ErrUsage, target)
	}

	var args []string
	if message != "" {
		args = []string{"-m", message}
	}
	e.log().InfoContext(ctx, "reword", "target", target, "at", ops[i].Hash)
	return todo.Insert(ops, i+1, e.exec(action.Amend, args...)), nil
}

// Render schedules a manual render after the root and every super step.
func (e *Editor) Render(ctx context.Context, ops []todo.Operation) ([]todo.Operation, error) {
	if err := store.ClearTransient(e.Store); err != nil {
		return nil, err
	}
	if err := e.Store.Set(store.KeySession, uuid.NewString()); err != nil {
		return nil, err
	}
	for i := 0; i < len(ops); i++ {
		if !ops[i].IsCommit() {
			continue
		}
		d := step.Parse(ops[i].Payload)
		isRoot := i == 0 && d == nil
		if isRoot || (d != nil && d.ID.IsSuper()) {
			ops = todo.Insert(ops, i+1, e.exec(action.RenderStep))
			i++
		}
	}
	e.log().InfoContext(ctx, "render", "operations", len(ops))
	return append(ops, e.exec(action.Rebranch)), nil
}

// Rewrite applies fn to the todo file at path.
func Rewrite(path string, fn func([]todo.Operation) ([]todo.Operation, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading todo list: %w", err)
	}
	ops, err := fn(todo.Decode(string(data)))
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(todo.Encode(ops)), 0644)
}
