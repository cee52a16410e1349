package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	// TitleStyle renders section headings in command output.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

	// LabelStyle renders the left-hand column of key/value lines.
	LabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))

	// WarnStyle renders counts that need the user's attention.
	WarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))

	// ErrStyle renders failures.
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56"))
)

// sizeUnits are the binary-prefix steps used by FormatSize.
var sizeUnits = []string{"", "K", "M", "G", "T", "P", "E", "Z"}

// FormatSize renders a byte count with a binary prefix, e.g. "1.500 MB".
func FormatSize(bytes int64) string {
	value := float64(bytes)
	for _, unit := range sizeUnits {
		if value < 1024 {
			return fmt.Sprintf("%.3f %sB", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.3f YB", value)
}
