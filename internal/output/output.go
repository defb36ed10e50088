// Package output provides styled terminal output helpers (success, error,
// warning, marker formatting) using lipgloss.
package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/trigtrack/internal/models"
)

var (
	// Styles
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	conditionStyles = map[models.Condition]lipgloss.Style{
		models.ConditionGood:            lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.ConditionSlightlyDamaged: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.ConditionDamaged:         lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.ConditionToppled:         lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.ConditionMissing:         lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.ConditionPossiblyMissing: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// Subtle prints a dimmed message
func Subtle(format string, args ...interface{}) {
	fmt.Println(subtleStyle.Render(fmt.Sprintf(format, args...)))
}

// FormatCondition formats a marker condition with color
func FormatCondition(c models.Condition) string {
	style, ok := conditionStyles[c]
	if !ok {
		return c.String()
	}
	return style.Render(c.String())
}

// FormatScore renders a 1-10 half-star score as stars ("★★★½")
func FormatScore(score int) string {
	if score <= 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < score/2; i++ {
		b.WriteRune('★')
	}
	if score%2 == 1 {
		b.WriteRune('½')
	}
	return b.String()
}
