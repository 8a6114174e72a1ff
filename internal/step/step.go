package step

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUsage marks caller mistakes: missing arguments, unknown steps, bad descriptors.
var ErrUsage = errors.New("usage error")

// Root is the textual name of the pseudo-step denoting the initial commit.
const Root = "root"

var (
	descriptorRe = regexp.MustCompile(`^Step (\d+)(?:\.(\d+))?: ((?s).*)$`)
	superRe      = regexp.MustCompile(`^Step (\d+): ((?s).*)$`)
	subRe        = regexp.MustCompile(`^Step (\d+)\.(\d+): ((?s).*)$`)
	idRe         = regexp.MustCompile(`^(\d+)(?:\.(\d+))?$`)
)

// ID identifies a step. Sub is 0 for super steps. The zero value with Root set
// denotes the initial commit.
type ID struct {
	Root  bool
	Super int
	Sub   int
}

// RootID is the pseudo-step of the initial commit.
var RootID = ID{Root: true}

// Super returns the ID of super step n.
func Super(n int) ID { return ID{Super: n} }

// Sub returns the ID of sub step n.m.
func Sub(n, m int) ID { return ID{Super: n, Sub: m} }

// IsSuper reports whether id names a super step.
func (id ID) IsSuper() bool { return !id.Root && id.Sub == 0 }

// Norm returns the super component, with root normalized to 0.
func (id ID) Norm() int {
	if id.Root {
		return 0
	}
	return id.Super
}

func (id ID) String() string {
	switch {
	case id.Root:
		return Root
	case id.Sub == 0:
		return strconv.Itoa(id.Super)
	default:
		return fmt.Sprintf("%d.%d", id.Super, id.Sub)
	}
}

// ParseID parses "root", "N" or "N.M".
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == Root {
		return RootID, nil
	}
	m := idRe.FindStringSubmatch(s)
	if m == nil {
		return ID{}, fmt.Errorf("%w: invalid step %q", ErrUsage, s)
	}
	id, ok := numbers(m[1], m[2])
	if !ok || id.Super == 0 || (m[2] != "" && id.Sub == 0) {
		return ID{}, fmt.Errorf("%w: invalid step %q", ErrUsage, s)
	}
	return id, nil
}

// numbers converts the captured super and sub digits. sub may be empty.
// Values that overflow an int are rejected.
func numbers(super, sub string) (ID, bool) {
	sup, err := strconv.Atoi(super)
	if err != nil {
		return ID{}, false
	}
	n := 0
	if sub != "" {
		if n, err = strconv.Atoi(sub); err != nil {
			return ID{}, false
		}
	}
	return ID{Super: sup, Sub: n}, true
}

// Descriptor is the parsed form of a step commit message.
type Descriptor struct {
	ID      ID
	Message string
}

// Parse matches "Step N: msg" and "Step N.M: msg". Returns nil when message
// does not carry a step prefix.
func Parse(message string) *Descriptor {
	m := descriptorRe.FindStringSubmatch(firstLine(message))
	if m == nil {
		return nil
	}
	id, ok := numbers(m[1], m[2])
	if !ok {
		return nil
	}
	return &Descriptor{ID: id, Message: m[3]}
}

// ParseSuper matches only the "Step N: msg" form.
func ParseSuper(message string) *Descriptor {
	m := superRe.FindStringSubmatch(firstLine(message))
	if m == nil {
		return nil
	}
	id, ok := numbers(m[1], "")
	if !ok {
		return nil
	}
	return &Descriptor{ID: id, Message: m[2]}
}

// ParseSub matches only the "Step N.M: msg" form.
func ParseSub(message string) *Descriptor {
	m := subRe.FindStringSubmatch(firstLine(message))
	if m == nil {
		return nil
	}
	id, ok := numbers(m[1], m[2])
	if !ok {
		return nil
	}
	return &Descriptor{ID: id, Message: m[3]}
}

// Format renders a step commit subject.
func Format(id ID, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: step message is required", ErrUsage)
	}
	if id.Root {
		return message, nil
	}
	return fmt.Sprintf("Step %s: %s", id, message), nil
}

// Strip removes the step prefix from message, returning the bare message and
// the descriptor that was removed (nil when there was none).
func Strip(message string) (string, *Descriptor) {
	d := Parse(message)
	if d == nil {
		return message, nil
	}
	rest := ""
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		rest = message[i:]
	}
	return d.Message + rest, d
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
