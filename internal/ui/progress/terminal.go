// Package progress provides progress indication for long-running batches.
//
// Displays render to stderr so stdout stays clean for tables and JSON.
// They are only started when stderr is a terminal.
package progress

import (
	"fmt"
	"io"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/mattn/go-isatty"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled reports whether progress should be drawn: stderr is a terminal
// and output was not silenced.
func Enabled(quiet bool) bool {
	return !quiet && IsTerminal(os.Stderr)
}

// newProgram builds a non-interactive program on out.
// Input is disabled so stdin stays free for piped data and Ctrl-C reaches
// the process signal handler.
func newProgram(model tea.Model, out io.Writer) *tea.Program {
	return tea.NewProgram(model,
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(out),
		tea.WithColorProfile(colorprofile.Detect(out, os.Environ())),
	)
}

// clearLine erases the display line.
func clearLine(out io.Writer) {
	fmt.Fprint(out, "\r\033[K")
}
