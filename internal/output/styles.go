package output

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/kerf/pkg/build"
)

var (
	ColorCyan    = lipgloss.Color("14")
	ColorGreen   = lipgloss.Color("82")
	ColorYellow  = lipgloss.Color("220")
	ColorBoldRed = lipgloss.Color("204")
)

var (
	// StyleNoun styles file names and format ids.
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleDim styles secondary details.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// StatusStyle returns the style for a build status text.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case build.StatusReady:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case build.StatusRendering:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case build.StatusAborted:
		return lipgloss.NewStyle().Faint(true)
	case build.StatusError:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// FormatStatus renders a build event as one status line.
func FormatStatus(ev build.Event) string {
	line := StatusStyle(ev.Status).Render(ev.Status)
	switch {
	case ev.Err != nil:
		line += " " + ev.Err.Error()
	case ev.State == build.Succeeded:
		line += " " + StyleDim.Render(fmt.Sprintf("%d object(s)", len(ev.Objects)))
	}
	return line
}

// FormatWritten renders the line printed after an export has been stored.
func FormatWritten(path string, size int) string {
	return fmt.Sprintf("wrote %s %s", StyleNoun.Render(path), StyleDim.Render(fmt.Sprintf("(%d bytes)", size)))
}
