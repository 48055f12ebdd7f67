package tui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// Notifier signals the end of a snapshot run.
// In the foreground it rings the terminal bell; otherwise it uses an
// OS-native notification where one is available.
type Notifier struct {
	out   io.Writer
	runOS func(title, message string) error
}

// NewNotifier creates a Notifier that writes bell to the given output.
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out, runOS: notifyOS}
}

// Bell writes the terminal bell character to output.
func (n *Notifier) Bell() {
	fmt.Fprint(n.out, Bell)
}

// Notify rings the bell when foreground is true and sends an OS
// notification otherwise.
func (n *Notifier) Notify(title, message string, foreground bool) error {
	if foreground {
		n.Bell()
		return nil
	}
	if n.runOS == nil {
		return nil
	}
	return n.runOS(title, message)
}

// notifyOS uses osascript on macOS and is a no-op elsewhere.
func notifyOS(title, message string) error {
	if runtime.GOOS != "darwin" {
		return nil
	}
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}
