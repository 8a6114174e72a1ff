package ux

import (
	"fmt"
	"io"

	"github.com/jorge-barreto/stepwise/internal/step"
)

// Row is one step in the status listing.
type Row struct {
	ID      step.ID
	Message string
	Hash    string
}

// Status is what `stepwise status` shows.
type Status struct {
	Tutorial string
	Branch   string
	Current  step.ID
	Rebasing bool
	Editing  string // old-step of the running rebase
	Steps    []Row  // oldest first
}

// RenderStatus prints the tutorial header and its steps.
func RenderStatus(w io.Writer, st Status) {
	fmt.Fprintf(w, "%sTutorial:%s %s\n", Bold, Reset, st.Tutorial)
	if st.Branch != "" {
		fmt.Fprintf(w, "%sBranch:%s   %s\n", Bold, Reset, st.Branch)
	}
	if st.Rebasing {
		editing := ""
		if st.Editing != "" {
			editing = fmt.Sprintf(" (editing step %s)", st.Editing)
		}
		fmt.Fprintf(w, "%sState:%s    %srebase in progress%s%s\n", Bold, Reset, Yellow, Reset, editing)
	} else {
		fmt.Fprintf(w, "%sState:%s    %sclean%s\n", Bold, Reset, Green, Reset)
	}
	fmt.Fprintf(w, "%sCurrent:%s  %s\n", Bold, Reset, st.Current)

	fmt.Fprintf(w, "\n%sSteps:%s\n", Bold, Reset)
	if len(st.Steps) == 0 {
		fmt.Fprintf(w, "  %s(none)%s\n", Dim, Reset)
		return
	}
	RenderSteps(w, st.Steps, st.Current)
}

// RenderSteps prints one line per step, indenting sub steps under their super
// step and marking current.
func RenderSteps(w io.Writer, rows []Row, current step.ID) {
	for _, r := range rows {
		marker := "  "
		if r.ID == current {
			marker = fmt.Sprintf("%s→%s ", Yellow, Reset)
		}
		indent := ""
		label := fmt.Sprintf("%-6s", r.ID)
		switch {
		case r.ID.Root:
		case r.ID.IsSuper():
			label = Bold + label + Reset
		default:
			indent = "  "
		}
		fmt.Fprintf(w, "  %s%s%s%s%s  %s %s\n", marker, indent, Dim, short(r.Hash), Reset, label, r.Message)
	}
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
