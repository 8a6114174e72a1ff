package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// Preflight checks that the binaries the engine shells out to are available on PATH.
func Preflight() error {
	var missing []string
	for _, bin := range []string{"git", "sh"} {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required binaries not found in PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
