// Package todo reads and writes git's interactive rebase instruction list.
//
// Only instruction lines are kept: comments and blank lines are dropped on
// decode and are not written back.
package todo

import (
	"regexp"
	"strings"
)

// Sequencer methods the engine produces or inspects.
const (
	Pick   = "pick"
	Edit   = "edit"
	Exec   = "exec"
	Reword = "reword"
	Break  = "break"
)

var (
	instructionRe = regexp.MustCompile(`^[a-z]+\s.{7}.*$`)
	bareRe        = regexp.MustCompile(`^(break|noop)$`)
)

// Operation is one instruction line. For exec lines Hash holds the first word
// of the command.
type Operation struct {
	Method  string
	Hash    string
	Payload string
}

// Decode parses instruction text into operations.
func Decode(text string) []Operation {
	var ops []Operation
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case bareRe.MatchString(line):
			ops = append(ops, Operation{Method: line})
		case instructionRe.MatchString(line):
			parts := strings.SplitN(line, " ", 3)
			op := Operation{Method: parts[0]}
			if len(parts) > 1 {
				op.Hash = parts[1]
			}
			if len(parts) > 2 {
				op.Payload = parts[2]
			}
			ops = append(ops, op)
		}
	}
	return ops
}

// Encode renders operations one per line with a trailing newline.
func Encode(ops []Operation) string {
	var b strings.Builder
	for _, op := range ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (op Operation) String() string {
	fields := []string{op.Method}
	if op.Hash != "" {
		fields = append(fields, op.Hash)
	}
	if op.Payload != "" {
		fields = append(fields, op.Payload)
	}
	return strings.Join(fields, " ")
}

// IsCommit reports whether op replays a commit.
func (op Operation) IsCommit() bool {
	switch op.Method {
	case Pick, Edit, Reword, "p", "e", "r":
		return op.Hash != ""
	}
	return false
}

// Command returns the shell command of an exec operation.
func (op Operation) Command() string {
	if op.Method != Exec && op.Method != "x" {
		return ""
	}
	if op.Payload == "" {
		return op.Hash
	}
	return op.Hash + " " + op.Payload
}

// NewExec builds an exec operation running command.
func NewExec(command string) Operation {
	head, rest, _ := strings.Cut(command, " ")
	return Operation{Method: Exec, Hash: head, Payload: rest}
}

// Insert places op at index i, shifting later operations.
func Insert(ops []Operation, i int, op ...Operation) []Operation {
	out := make([]Operation, 0, len(ops)+len(op))
	out = append(out, ops[:i]...)
	out = append(out, op...)
	return append(out, ops[i:]...)
}

// Remove deletes the operation at index i.
func Remove(ops []Operation, i int) []Operation {
	return append(ops[:i], ops[i+1:]...)
}
