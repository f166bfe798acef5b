package ui

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/josephgoksu/ReqWing/internal/utils"
)

func (m ChatModel) renderTranscript(rec *project.Record) string {
	width := max(20, m.Viewport.Width-2)
	if rec == nil || len(rec.Transcript) == 0 {
		return StyleSubtle.Render(WrapText("Tell me about the software you want to build. I'll extract requirements, ask a few clarifying questions, and draft a requirements document.", width))
	}

	var sb strings.Builder
	for i, msg := range rec.Transcript {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if msg.Role == project.RoleUser {
			sb.WriteString(StylePrefixUser.Render("You") + "\n")
		} else {
			sb.WriteString(StylePrefixAssistant.Render("ReqWing") + "\n")
		}
		sb.WriteString(WrapText(msg.Content, width))
	}
	if len(rec.Requirements) > 0 && rec.Stage == project.StageClarification {
		sb.WriteString("\n\n" + StyleSectionTitle.Render("Current requirements") + "\n")
		sb.WriteString(WrapText(utils.BulletList(rec.Requirements), width))
	}
	return sb.String()
}

func (m ChatModel) View() string {
	var s strings.Builder

	rec := m.deps.Session.Active()
	title := project.DefaultTitle
	stage := project.StageInitial
	if rec != nil {
		title, stage = rec.Title, rec.Stage
	}
	s.WriteString(StyleHeader.Render("◆ ReqWing"))
	s.WriteString(" " + StyleText.Render(title) + " " + StyleSubtle.Render("["+StageLabel(stage)+"]") + "\n")

	sepWidth := max(40, m.Viewport.Width)
	sep := StyleSubtle.Render(strings.Repeat("─", sepWidth)) + "\n"
	s.WriteString(sep)

	switch m.view {
	case ViewDashboard:
		s.WriteString(renderDashboard(m.dashboardStats(), m.width, m.dashIdx))
		s.WriteString(sep)
		s.WriteString(StyleSubtle.Render("[↑/↓] Select | [Enter] Open | [Tab/Esc] Back | [h] History | [q] Quit"))
	case ViewHistory:
		s.WriteString(m.renderHistory())
		s.WriteString(sep)
		s.WriteString(StyleSubtle.Render("[↑/↓] Select | [Enter] Load | [n] New project | [Esc] Back"))
	case ViewScoring:
		s.WriteString(m.Viewport.View() + "\n" + sep)
		s.WriteString(m.renderScoring())
	case ViewDocument:
		s.WriteString(StyleDocumentBox.Render(m.Viewport.View()) + "\n")
		s.WriteString(StyleSubtle.Render("[d] Download requirements.md | [u] Update | [n] New | [h] History | [Tab] Dashboard | [j/k] Scroll"))
	default:
		s.WriteString(m.Viewport.View() + "\n" + sep)
		if m.upload != nil {
			s.WriteString(StyleSuccess.Render("📎 "+m.upload.Name) + "\n")
		}
		s.WriteString(StyleInputBox.Render(m.Input.View()) + "\n")
		s.WriteString(StyleSubtle.Render("[Enter] Send | [Tab] Dashboard | [Ctrl+R] History | [Ctrl+N] New | [Ctrl+C] Quit"))
	}
	s.WriteString("\n")

	switch {
	case m.busy:
		s.WriteString(m.Spinner.View() + " " + m.busyLabel + StyleSubtle.Render(" (Esc to cancel)"))
	case m.failure != "":
		s.WriteString(RenderErrorPanel("Request failed", WrapText(m.failure, max(20, m.width-6))+"\n"+StyleSubtle.Render("Nothing was changed. Try again.")))
	case m.notice != "":
		s.WriteString(m.noticeStyle.Render(m.notice))
	}
	s.WriteString("\n")
	return s.String()
}

func (m ChatModel) renderScoring() string {
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("Rate each requirement from 1 (nice to have) to 10 (must have)") + "\n\n")
	for i, req := range m.requirements() {
		score := m.scores[req]
		bar := strings.Repeat("■", score) + strings.Repeat("·", project.MaxScore-score)
		line := fmt.Sprintf("%2d %s  %s", score, bar, utils.Truncate(req, max(20, m.width-24)))
		if i == m.scoreIdx {
			sb.WriteString(StyleSelected.Render("› "+line) + "\n")
		} else {
			sb.WriteString("  " + PriorityStyle(dashboard.Classify(score)).Render(line) + "\n")
		}
	}
	sb.WriteString("\n" + StyleSubtle.Render("[↑/↓] Select | [←/→] Adjust | [Enter] Generate document | [Tab] Dashboard"))
	return sb.String()
}

func (m ChatModel) renderHistory() string {
	records := m.deps.Session.Projects().List()
	if len(records) == 0 {
		return StyleSubtle.Render("No saved projects yet.") + "\n"
	}
	var sb strings.Builder
	sb.WriteString(StyleSectionTitle.Render("Projects") + "\n\n")
	active := m.deps.Session.Active()
	for i, r := range records {
		marker := "  "
		if active != nil && active.ID == r.ID {
			marker = Icon("●", StyleSuccess) + " "
		}
		line := fmt.Sprintf("%s%-42s %3d reqs  %s", marker, utils.Truncate(r.Title, 42), len(r.Requirements), StageLabel(r.Stage))
		if i == m.historyIdx {
			sb.WriteString(StyleSelected.Render("› "+line) + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}
	return sb.String()
}
