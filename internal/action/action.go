// Package action defines the closed vocabulary of re-entry points the engine
// writes into sequencer instructions. Every generated exec line and sequence
// editor invocation is an Action serialized as `<exe> rebase <kind> [args]`.
package action

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind names an action.
type Kind string

const (
	// Sequence editor actions: git appends the todo file path.
	Edit   Kind = "edit"
	Sort   Kind = "sort"
	Reword Kind = "reword"
	Render Kind = "render"

	// Exec actions: run as a sequencer exec instruction.
	SuperPick    Kind = "super-pick"
	Renumber     Kind = "renumber"
	Amend        Kind = "amend"
	RenderStep   Kind = "render-step"
	Rebranch     Kind = "rebranch"
	DisableHooks Kind = "disable-hooks"
	Cleanup      Kind = "cleanup"
	UpdateRefs   Kind = "update-refs"
)

var kinds = map[Kind]bool{
	Edit: true, Sort: true, Reword: true, Render: true,
	SuperPick: true, Renumber: true, Amend: true, RenderStep: true,
	Rebranch: true, DisableHooks: true, Cleanup: true, UpdateRefs: true,
}

// IsSequenceEditor reports whether k rewrites a todo file.
func (k Kind) IsSequenceEditor() bool {
	switch k {
	case Edit, Sort, Reword, Render:
		return true
	}
	return false
}

// Action is one re-entry into the engine.
type Action struct {
	Kind Kind
	Args []string
}

// New builds an action.
func New(kind Kind, args ...string) Action {
	return Action{Kind: kind, Args: args}
}

// Parse reads an action from command line arguments (kind first).
func Parse(args []string) (Action, error) {
	if len(args) == 0 {
		return Action{}, fmt.Errorf("action: missing kind")
	}
	k := Kind(args[0])
	if !kinds[k] {
		return Action{}, fmt.Errorf("action: unknown kind %q", args[0])
	}
	return Action{Kind: k, Args: append([]string(nil), args[1:]...)}, nil
}

// Flags taking a value. Any other argument starting with "-" is boolean.
var valued = map[string]bool{
	"--update-refs": true,
	"--step":        true,
	"--from":        true,
	"-m":            true,
}

// Options splits Args into flag values and positional arguments. Boolean flags
// map to "true".
func (a Action) Options() (flags map[string]string, rest []string) {
	flags = make(map[string]string)
	for i := 0; i < len(a.Args); i++ {
		arg := a.Args[i]
		switch {
		case valued[arg] && i+1 < len(a.Args):
			flags[arg] = a.Args[i+1]
			i++
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			flags[arg] = "true"
		default:
			rest = append(rest, arg)
		}
	}
	return flags, rest
}

// Argv returns the CLI arguments, without the executable, that re-enter a.
func (a Action) Argv() []string {
	return append([]string{"rebase", string(a.Kind)}, a.Args...)
}

// Command renders a as a shell command line.
func (a Action) Command(exe string) string {
	words := append([]string{exe}, a.Argv()...)
	for i, w := range words {
		words[i] = Quote(w)
	}
	return strings.Join(words, " ")
}

// EditTodo renders a shell command that reopens the remaining todo list with
// a as the sequence editor. a must be a sequence editor action.
func (a Action) EditTodo(exe string) string {
	return "GIT_SEQUENCE_EDITOR=" + Quote(a.Command(exe)) + " git rebase --edit-todo"
}

var safeRe = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// Quote quotes s for a POSIX shell when needed.
func Quote(s string) string {
	if safeRe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
