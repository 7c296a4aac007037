// Package opener launches resolved URLs in an external program.
package opener

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// SystemProgram selects the platform's default URL handler.
const SystemProgram = "system"

// ErrUnsupportedPlatform is returned when no default handler is known.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Opener opens URLs with a configured program.
type Opener struct {
	program string
	goos    string
}

// NewOpener creates an opener for program. An empty program means the
// system default handler.
func NewOpener(program string) *Opener {
	if program == "" {
		program = SystemProgram
	}
	return &Opener{program: program, goos: runtime.GOOS}
}

// Program returns the configured program name.
func (o *Opener) Program() string {
	return o.program
}

// Command returns the command that opens target without starting it.
func (o *Opener) Command(target string) (*exec.Cmd, error) {
	switch o.goos {
	case "darwin":
		return o.darwinCommand(target), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return o.unixCommand(target), nil
	default:
		if o.program == SystemProgram {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, o.goos)
		}
		return exec.Command(o.program, target), nil
	}
}

// Open starts the program on target and does not wait for it to exit.
func (o *Opener) Open(target string) error {
	cmd, err := o.Command(target)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", o.program, err)
	}
	return cmd.Process.Release()
}

// OpenAll opens every target in order and stops at the first failure.
func (o *Opener) OpenAll(targets []string) error {
	for _, target := range targets {
		if err := o.Open(target); err != nil {
			return err
		}
	}
	return nil
}

func (o *Opener) darwinCommand(target string) *exec.Cmd {
	if o.program == SystemProgram {
		return exec.Command("open", target)
	}
	return exec.Command("open", "-a", o.program, target)
}

func (o *Opener) unixCommand(target string) *exec.Cmd {
	if o.program == SystemProgram {
		return exec.Command("xdg-open", target)
	}
	return exec.Command(o.program, target)
}
