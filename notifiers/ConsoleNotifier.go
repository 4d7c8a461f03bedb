package notifiers

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00B894"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D63031"))
)

// ConsoleNotifier prints notifications as toast-like lines for the CLI.
type ConsoleNotifier struct {
	Writer io.Writer
}

func (n ConsoleNotifier) Success(message string) {
	fmt.Fprintf(n.Writer, "%s %s\n", successStyle.Render("✔"), message)
}

func (n ConsoleNotifier) Error(message string) {
	fmt.Fprintf(n.Writer, "%s %s\n", errorStyle.Render("✖"), message)
}
