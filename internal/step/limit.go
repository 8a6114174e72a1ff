package step

import "math"

// Infinity means the renumbering walk cannot be bounded and must reach the end
// of history.
const Infinity = math.MaxInt

// Limit returns the last super step whose commits must be renumbered after
// old was replaced by new. Super steps past the limit keep their numbers.
func Limit(old, new ID) int {
	oS, nS := old.Norm(), new.Norm()
	oSub, nSub := old.Sub != 0, new.Sub != 0

	switch {
	case oS == nS && oSub:
		// confined to one super step
		return oS
	case oS == nS:
		// the super step itself is splitting or shifting
		return Infinity
	case !oSub && nSub && nS == oS+1:
		return nS
	case !nSub && oSub && oS == nS+1:
		return oS
	default:
		return Infinity
	}
}

// FormatLimit renders a limit for logs.
func FormatLimit(limit int) string {
	if limit == Infinity {
		return "infinity"
	}
	return Super(limit).String()
}
