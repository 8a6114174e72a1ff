package ux

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
)

// ANSI color helpers. They are empty strings once colors are disabled.
var (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// ColorEnabled reports whether f is a terminal that should receive colors.
// NO_COLOR and CLICOLOR=0 turn colors off, CLICOLOR_FORCE turns them on.
func ColorEnabled(f *os.File) bool {
	return termenv.NewOutput(f).EnvColorProfile() != termenv.Ascii
}

// SetColor turns the color helpers on or off.
func SetColor(on bool) {
	if !on {
		Reset, Bold, Dim, Red, Green, Yellow, Cyan = "", "", "", "", "", "", ""
		return
	}
	Reset, Bold, Dim = "\033[0m", "\033[1m", "\033[2m"
	Red, Green, Yellow, Cyan = "\033[31m", "\033[32m", "\033[33m", "\033[36m"
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// StepDone prints a timestamped confirmation such as "✓ pushed Step 1.2: x".
func StepDone(w io.Writer, verb, subject string) {
	fmt.Fprintf(w, "%s[%s]%s  %s✓ %s%s %s\n", Dim, timestamp(), Reset, Green, verb, Reset, subject)
}

// RebaseStarted prints the header of a history rewrite.
func RebaseStarted(w io.Writer, what string) {
	fmt.Fprintf(w, "\n%s[%s]%s %s══ %s ══%s\n", Dim, timestamp(), Reset, Cyan, what, Reset)
}

// RebaseHint explains how to continue an edit the rebase stopped for.
func RebaseHint(w io.Writer) {
	fmt.Fprintf(w, "\n%sContinue:%s git rebase --continue   %sAbort:%s git rebase --abort\n",
		Yellow, Reset, Yellow, Reset)
}

// Warn prints a warning line.
func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s! %s%s\n", Yellow, fmt.Sprintf(format, args...), Reset)
}

// Error prints an error line.
func Error(w io.Writer, err error) {
	fmt.Fprintf(w, "%serror:%s %v\n", Red, Reset, err)
}
