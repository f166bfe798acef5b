package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/project"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// Colors
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorText      = lipgloss.Color("252")
	ColorAccent    = lipgloss.Color("205") // Pink

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)

	StyleInputBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	StyleDocumentBox = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(ColorSuccess).
				Padding(0, 1)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Underline(true)

	StyleSelected = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)

	// Transcript prefixes
	StylePrefixUser      = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	StylePrefixAssistant = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StylePrefixWarn      = lipgloss.NewStyle().Foreground(ColorWarning)
	StylePrefixError     = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

var priorityColors = map[dashboard.Priority]lipgloss.Color{
	dashboard.PriorityCritical: ColorError,
	dashboard.PriorityHigh:     ColorWarning,
	dashboard.PriorityMedium:   ColorPrimary,
}

// PriorityStyle returns the bar/label style for a priority bucket.
func PriorityStyle(p dashboard.Priority) lipgloss.Style {
	c, ok := priorityColors[p]
	if !ok {
		c = ColorSecondary
	}
	return lipgloss.NewStyle().Foreground(c)
}

var titleCaser = cases.Title(language.English)

// StageLabel renders a stage as "Final Document".
func StageLabel(s project.Stage) string {
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}

// Icon returns a styled icon string
func Icon(icon string, style lipgloss.Style) string {
	return style.Render(icon)
}
