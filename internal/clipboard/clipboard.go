// Package clipboard copies text to the system clipboard via shell commands.
package clipboard

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// candidates lists clipboard writers per platform, in preference order.
func candidates() [][]string {
	switch runtime.GOOS {
	case "darwin":
		return [][]string{{"pbcopy"}}
	case "linux", "freebsd", "openbsd", "netbsd":
		var c [][]string
		if os.Getenv("WAYLAND_DISPLAY") != "" {
			c = append(c, []string{"wl-copy"})
		}
		return append(c,
			[]string{"xclip", "-selection", "clipboard"},
			[]string{"xsel", "--clipboard", "--input"},
		)
	default:
		return nil
	}
}

// getClipboardCommand returns the first installed clipboard writer.
func getClipboardCommand() (*exec.Cmd, error) {
	for _, args := range candidates() {
		if _, err := exec.LookPath(args[0]); err == nil {
			return exec.Command(args[0], args[1:]...), nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	_, err := getClipboardCommand()
	return err == nil
}

// Copy copies text to the system clipboard.
// Returns ErrClipboardUnavailable if clipboard access is not available.
func Copy(text string) error {
	cmd, err := getClipboardCommand()
	if err != nil {
		return err
	}
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// CopyLines copies lines joined by newlines.
func CopyLines(lines []string) error {
	return Copy(strings.Join(lines, "\n"))
}
