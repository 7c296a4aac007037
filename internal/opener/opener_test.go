package opener

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewOpener_DefaultsToSystem(t *testing.T) {
	if got := NewOpener("").Program(); got != SystemProgram {
		t.Errorf("Program() = %q, want %q", got, SystemProgram)
	}
}

func TestCommand(t *testing.T) {
	const target = "https://doi.org/10.1021/cb400796c"
	tests := []struct {
		goos    string
		program string
		want    []string
	}{
		{"linux", "", []string{"xdg-open", target}},
		{"linux", "firefox", []string{"firefox", target}},
		{"darwin", "", []string{"open", target}},
		{"darwin", "Safari", []string{"open", "-a", "Safari", target}},
		{"windows", "chrome.exe", []string{"chrome.exe", target}},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.program, func(t *testing.T) {
			o := NewOpener(tt.program)
			o.goos = tt.goos
			cmd, err := o.Command(target)
			if err != nil {
				t.Fatalf("Command() error = %v", err)
			}
			if !reflect.DeepEqual(cmd.Args, tt.want) {
				t.Errorf("Args = %v, want %v", cmd.Args, tt.want)
			}
		})
	}
}

func TestCommand_UnsupportedPlatform(t *testing.T) {
	o := NewOpener("")
	o.goos = "plan9"
	if _, err := o.Command("https://example.org"); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("Command() error = %v, want ErrUnsupportedPlatform", err)
	}
}

func TestOpen_MissingProgram(t *testing.T) {
	o := NewOpener("tos-no-such-program")
	o.goos = "linux"
	if err := o.Open("https://example.org"); err == nil {
		t.Error("Open() should fail when the program does not exist")
	}
}

func TestOpenAll_Empty(t *testing.T) {
	if err := NewOpener("tos-no-such-program").OpenAll(nil); err != nil {
		t.Errorf("OpenAll(nil) error = %v", err)
	}
}
