// Package docs holds the built-in help topics shown by `stepwise docs`.
package docs

import (
	"fmt"
	"io"
	"strings"

	"github.com/jorge-barreto/stepwise/internal/ux"
)

// Topic is one article. Content is plain text and starts with Title.
type Topic struct {
	Name    string
	Title   string
	Summary string
	Content string
}

// All returns every topic in display order.
func All() []Topic {
	return topics
}

// Get finds a topic by name or by an unambiguous name prefix, so
// `stepwise docs sub` opens the submodules topic.
func Get(name string) (Topic, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	var matches []Topic
	for _, t := range topics {
		if t.Name == name {
			return t, nil
		}
		if name != "" && strings.HasPrefix(t.Name, name) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Topic{}, fmt.Errorf("unknown topic %q, run 'stepwise docs' to list available topics", name)
	}
	names := make([]string, len(matches))
	for i, t := range matches {
		names[i] = t.Name
	}
	return Topic{}, fmt.Errorf("topic %q is ambiguous: %s", name, strings.Join(names, ", "))
}

// List writes the topic index.
func List(w io.Writer) {
	fmt.Fprintf(w, "\n%sAvailable topics:%s\n\n", ux.Bold, ux.Reset)
	for _, t := range topics {
		fmt.Fprintf(w, "  %s%-12s%s %s\n", ux.Cyan, t.Name, ux.Reset, t.Summary)
	}
	fmt.Fprintln(w, "\nRun 'stepwise docs <topic>' to read a topic.")
}
