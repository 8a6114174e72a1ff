package step

// Next computes the step that follows the most recent step commit in history.
// history holds commit subjects, newest first; the first offset entries are
// skipped so a commit can be renumbered relative to its predecessors.
//
// When offset is non-zero and the commit right before the skipped boundary is
// itself a super step, the bare super number is returned: that commit closes a
// super step rather than extending it.
func Next(history []string, offset int) ID {
	if offset > 0 && offset <= len(history) && ParseSuper(history[offset-1]) != nil {
		return Super(NextSuper(history, offset))
	}
	recent := recentStep(history, offset)
	switch {
	case recent == nil:
		return Sub(1, 1)
	case recent.ID.IsSuper():
		return Sub(recent.ID.Super+1, 1)
	default:
		return Sub(recent.ID.Super, recent.ID.Sub+1)
	}
}

// NextSuper is Next truncated to its super component.
func NextSuper(history []string, offset int) int {
	recent := recentStep(history, offset)
	switch {
	case recent == nil:
		return 1
	case recent.ID.IsSuper():
		return recent.ID.Super + 1
	default:
		return recent.ID.Super
	}
}

// Current returns the descriptor of the most recent step commit, or nil.
func Current(history []string) *Descriptor {
	return recentStep(history, 0)
}

func recentStep(history []string, offset int) *Descriptor {
	if offset < 0 {
		offset = 0
	}
	for i := offset; i < len(history); i++ {
		if d := Parse(history[i]); d != nil {
			return d
		}
	}
	return nil
}
