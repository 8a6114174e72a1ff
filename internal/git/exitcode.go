package git

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Error reports a git invocation that exited non-zero.
type Error struct {
	Args   []string
	Code   int
	Stderr string
}

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.Code)
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

// wrapError turns a command error into *Error when git ran and failed.
func wrapError(args []string, stderr string, err error) error {
	code, err := exitCode(err)
	if err != nil {
		return fmt.Errorf("running git: %w", err)
	}
	if code == 0 {
		return nil
	}
	return &Error{Args: args, Code: code, Stderr: stderr}
}

// exitCode extracts an exit code from a command error.
// Returns (code, nil) for ExitError, (0, err) for other errors, (0, nil) for nil.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}

// IsExit reports whether err is a git failure with the given exit code.
func IsExit(err error, code int) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Code == code
}
