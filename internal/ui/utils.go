package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// IsInteractive reports whether both stdin and stdout are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Panel is a bordered box with an optional title.
type Panel struct {
	Title       string
	Content     string
	BorderColor lipgloss.Color
	Width       int
}

func NewPanel(title, content string) *Panel {
	return &Panel{Title: title, Content: content, BorderColor: ColorSecondary}
}

func (p *Panel) WithBorderColor(color lipgloss.Color) *Panel {
	p.BorderColor = color
	return p
}

func (p *Panel) WithWidth(width int) *Panel {
	p.Width = width
	return p
}

// Render returns the styled panel as a string.
func (p *Panel) Render() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.BorderColor).
		Padding(0, 1)
	if p.Width > 0 {
		style = style.Width(p.Width)
	}
	content := p.Content
	if p.Title != "" {
		content = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Render(p.Title) + "\n" + content
	}
	return style.Render(content)
}

// RenderErrorPanel renders a panel with a red border.
func RenderErrorPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorError).Render()
}

// WrapText word-wraps text to width columns, keeping existing line breaks.
func WrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) <= width {
			continue
		}
		var out []string
		current := ""
		for _, word := range strings.Fields(line) {
			switch {
			case current == "":
				current = word
			case lipgloss.Width(current)+1+lipgloss.Width(word) <= width:
				current += " " + word
			default:
				out = append(out, current)
				current = word
			}
		}
		if current != "" {
			out = append(out, current)
		}
		lines[i] = strings.Join(out, "\n")
	}
	return strings.Join(lines, "\n")
}
