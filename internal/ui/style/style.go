// Package style holds the colours, icons and terminal output shared by the
// logger and the progress renderer.
package style

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
)

// Profile returns the colour profile of the terminal, or Ascii when NO_COLOR is set.
func Profile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// NewOutput wraps w in a termenv output using Profile. A nil w writes to stderr.
func NewOutput(w io.Writer) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w, termenv.WithProfile(Profile()), termenv.WithTTY(true))
}

// Paint renders s in colour c on out.
func Paint(out *termenv.Output, c lipgloss.Color, s string) string {
	return out.String(s).Foreground(termenv.RGBColor(string(c))).String()
}
