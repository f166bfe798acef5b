package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephgoksu/ReqWing/internal/dashboard"
)

const maxBarWidth = 40

// RenderDashboard draws portfolio totals, the priority histogram as a bar
// chart, and the recent projects table.
func RenderDashboard(stats dashboard.Stats, width int) string {
	return renderDashboard(stats, width, -1)
}

// renderDashboard marks recent project number selected (none when negative).
func renderDashboard(stats dashboard.Stats, width, selected int) string {
	var sb strings.Builder

	sb.WriteString(StyleSectionTitle.Render("Portfolio") + "\n\n")
	fmt.Fprintf(&sb, "  Projects      %s\n", StyleTitle.Render(strconv.Itoa(stats.TotalProjects)))
	fmt.Fprintf(&sb, "  Requirements  %s\n", StyleTitle.Render(strconv.Itoa(stats.TotalRequirements)))
	fmt.Fprintf(&sb, "  Avg/project   %s\n\n", StyleTitle.Render(strconv.FormatFloat(stats.AvgRequirementsPerProject, 'f', 1, 64)))

	sb.WriteString(StyleSectionTitle.Render("Requirements by priority") + "\n\n")
	sb.WriteString(renderHistogram(stats, barWidth(width)))

	sb.WriteString("\n" + StyleSectionTitle.Render("Recent projects") + "\n\n")
	if len(stats.RecentProjects) == 0 {
		sb.WriteString(StyleSubtle.Render("  No projects yet.") + "\n")
		return sb.String()
	}
	table := &Table{Headers: []string{"ID", "Title", "Reqs", "Stage"}, MaxWidth: 48}
	if selected >= 0 {
		table.Headers = append([]string{""}, table.Headers...)
	}
	for i, p := range stats.RecentProjects {
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.Title,
			strconv.Itoa(p.RequirementCount),
			StageLabel(p.Stage),
		}
		if selected >= 0 {
			marker := " "
			if i == selected {
				marker = "›"
			}
			row = append([]string{marker}, row...)
		}
		table.Rows = append(table.Rows, row)
	}
	sb.WriteString(table.Render())
	return sb.String()
}

func renderHistogram(stats dashboard.Stats, width int) string {
	total := stats.HistogramTotal()
	var sb strings.Builder
	for _, p := range dashboard.Priorities {
		n := stats.Count(p)
		bar := 0
		if total > 0 {
			bar = n * width / total
			if n > 0 && bar == 0 {
				bar = 1
			}
		}
		style := PriorityStyle(p)
		fmt.Fprintf(&sb, "  %-8s %s %d\n", p, style.Render(strings.Repeat("█", bar)), n)
	}
	return sb.String()
}

func barWidth(termWidth int) int {
	if termWidth <= 0 {
		return maxBarWidth
	}
	return max(10, min(maxBarWidth, termWidth-20))
}
