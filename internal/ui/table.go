package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows as a compact fixed-width terminal table.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int // per column, 0 = unlimited
}

// ColumnWidths returns the display width of each column.
func (t *Table) ColumnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	if t.MaxWidth > 0 {
		for i := range widths {
			widths[i] = min(widths[i], t.MaxWidth)
		}
	}
	return widths
}

// Render outputs the table to a string.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.ColumnWidths()
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	cellStyle := lipgloss.NewStyle().Foreground(ColorText)

	var sb strings.Builder
	cells := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		cells[i] = headerStyle.Render(padRight(h, widths[i]))
	}
	sb.WriteString(" " + strings.Join(cells, "  ") + "\n")

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = StyleSubtle.Render(strings.Repeat("─", w))
	}
	sb.WriteString(" " + strings.Join(seps, "──") + "\n")

	for _, row := range t.Rows {
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = fit(row[i], widths[i])
			}
			cells[i] = cellStyle.Render(padRight(val, widths[i]))
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}
	return sb.String()
}

// fit shortens s to width runes, ending with an ellipsis when cut.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
