package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/docload"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/export"
	"github.com/josephgoksu/ReqWing/internal/logger"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/josephgoksu/ReqWing/internal/session"
)

// ChatView is the screen the chat model is showing.
type ChatView int

const (
	ViewChat ChatView = iota
	ViewScoring
	ViewDocument
	ViewDashboard
	ViewHistory
)

// Layout constants
const (
	DefaultViewportWidth  = 80
	DefaultViewportHeight = 15
	MinViewportHeight     = 6
	DefaultTextareaHeight = 3
	HeaderFooterHeight    = 10
	DefaultStepTimeout    = 2 * time.Minute
)

// FileCommand attaches a document to the next submission.
const FileCommand = "/file"

// ChatDeps are the collaborators of the chat model.
type ChatDeps struct {
	Engine      *elicit.Engine
	Session     *session.Session
	Loader      *docload.Loader
	Exporter    *export.Exporter
	ExportDir   string
	StepTimeout time.Duration
}

// ChatModel is the interactive elicitation TUI.
type ChatModel struct {
	ctx  context.Context
	deps ChatDeps

	view     ChatView
	prevView ChatView
	width    int

	busy      bool
	busyLabel string
	cancel    context.CancelFunc

	notice      string
	noticeStyle lipgloss.Style
	failure     string

	upload     *elicit.Upload
	scoreIdx   int
	scores     map[string]int
	historyIdx int
	dashIdx    int

	Spinner  spinner.Model
	Input    textarea.Model
	Viewport viewport.Model
}

// MsgOutcome carries the result of an engine action.
type MsgOutcome struct {
	Action  string
	Outcome *elicit.Outcome
	Err     error
}

// MsgExported reports a finished document download.
type MsgExported struct {
	Path string
	Err  error
}

// NewChatModel builds the chat TUI for a session.
func NewChatModel(ctx context.Context, deps ChatDeps) ChatModel {
	if deps.StepTimeout <= 0 {
		deps.StepTimeout = DefaultStepTimeout
	}

	ti := textarea.New()
	ti.Placeholder = "Describe your project idea... (/file <path> to attach a document)"
	ti.Focus()
	ti.CharLimit = 0
	ti.SetWidth(DefaultViewportWidth - 6)
	ti.SetHeight(DefaultTextareaHeight)
	ti.ShowLineNumbers = false

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StylePrimary

	m := ChatModel{
		ctx:         ctx,
		deps:        deps,
		width:       DefaultViewportWidth,
		noticeStyle: StyleSubtle,
		Spinner:     s,
		Input:       ti,
		Viewport:    viewport.New(DefaultViewportWidth, DefaultViewportHeight),
	}
	m.syncView()
	return m
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.Spinner.Tick)
}

// CurrentView returns the screen being shown.
func (m ChatModel) CurrentView() ChatView { return m.view }

// Busy reports whether an engine action is in flight.
func (m ChatModel) Busy() bool { return m.busy }

// Notice returns the status line text.
func (m ChatModel) Notice() string { return m.notice }

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.Viewport.Width = msg.Width - 4
		m.Viewport.Height = max(MinViewportHeight, msg.Height-HeaderFooterHeight)
		m.Input.SetWidth(msg.Width - 6)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case MsgOutcome:
		return m.handleOutcome(msg), nil

	case MsgExported:
		m.busy = false
		if msg.Err != nil {
			m.setNotice("Download failed: "+msg.Err.Error(), StyleError)
		} else {
			m.setNotice("Saved "+msg.Path, StyleSuccess)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}

	if m.busy {
		if msg.Type == tea.KeyEsc && m.cancel != nil {
			m.cancel()
			m.setNotice("Cancelling...", StyleWarning)
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab:
		if m.view == ViewDashboard {
			m.view = m.prevView
		} else {
			m.prevView = m.view
			m.view = ViewDashboard
			m.dashIdx = 0
		}
		m.refreshViewport()
		return m, nil
	case tea.KeyCtrlR:
		m.openHistory()
		return m, nil
	case tea.KeyCtrlN:
		m.newProject()
		return m, nil
	}

	switch m.view {
	case ViewScoring:
		return m.scoringKey(msg)
	case ViewDocument:
		return m.documentKey(msg)
	case ViewDashboard:
		return m.dashboardKey(msg)
	case ViewHistory:
		return m.historyKey(msg)
	default:
		return m.chatKey(msg)
	}
}

func (m ChatModel) chatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m.submitInput()
	case tea.KeyPgUp:
		m.Viewport.HalfPageUp()
		return m, nil
	case tea.KeyPgDown:
		m.Viewport.HalfPageDown()
		return m, nil
	}
	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m ChatModel) scoringKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	reqs := m.requirements()
	switch msg.String() {
	case "up", "k":
		if m.scoreIdx > 0 {
			m.scoreIdx--
		}
	case "down", "j":
		if m.scoreIdx < len(reqs)-1 {
			m.scoreIdx++
		}
	case "left", "h", "-":
		m.adjustScore(reqs, -1)
	case "right", "l", "+":
		m.adjustScore(reqs, 1)
	case "enter":
		scores := make(map[string]int, len(m.scores))
		for k, v := range m.scores {
			scores[k] = v
		}
		return m.run("prioritize", "Generating requirements document...", func(ctx context.Context) (*elicit.Outcome, error) {
			return m.deps.Engine.Prioritize(ctx, m.deps.Session, scores)
		})
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *ChatModel) adjustScore(reqs []string, delta int) {
	if m.scoreIdx >= len(reqs) {
		return
	}
	req := reqs[m.scoreIdx]
	m.scores[req] = min(project.MaxScore, max(project.MinScore, m.scores[req]+delta))
}

func (m ChatModel) documentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "d":
		return m.download()
	case "u":
		return m.run("update", "Reopening project...", func(ctx context.Context) (*elicit.Outcome, error) {
			return m.deps.Engine.RequestUpdate(ctx, m.deps.Session)
		})
	case "n":
		m.newProject()
	case "h":
		m.openHistory()
	case "j", "down":
		m.Viewport.ScrollDown(1)
	case "k", "up":
		m.Viewport.ScrollUp(1)
	case "g":
		m.Viewport.GotoTop()
	case "G":
		m.Viewport.GotoBottom()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m ChatModel) dashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	recent := m.dashboardStats().RecentProjects
	switch msg.String() {
	case "up", "k":
		if m.dashIdx > 0 {
			m.dashIdx--
		}
	case "down", "j":
		if m.dashIdx < len(recent)-1 {
			m.dashIdx++
		}
	case "enter":
		if m.dashIdx < len(recent) {
			p := recent[m.dashIdx]
			if _, err := m.deps.Session.Load(p.ID); err != nil {
				m.setNotice("Could not load project: "+err.Error(), StyleError)
				return m, nil
			}
			m.setNotice("Loaded "+p.Title, StyleSuccess)
			m.syncView()
		}
	case "esc":
		m.view = m.prevView
		m.refreshViewport()
	case "h":
		m.openHistory()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m ChatModel) historyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	records := m.deps.Session.Projects().List()
	switch msg.String() {
	case "up", "k":
		if m.historyIdx > 0 {
			m.historyIdx--
		}
	case "down", "j":
		if m.historyIdx < len(records)-1 {
			m.historyIdx++
		}
	case "enter":
		if m.historyIdx < len(records) {
			if _, err := m.deps.Session.Load(records[m.historyIdx].ID); err != nil {
				m.setNotice("Could not load project: "+err.Error(), StyleError)
				return m, nil
			}
			m.setNotice("Loaded "+records[m.historyIdx].Title, StyleSuccess)
			m.syncView()
		}
	case "n":
		m.newProject()
	case "esc":
		m.syncView()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m ChatModel) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.Input.Value())

	if rest, ok := strings.CutPrefix(text, FileCommand); ok && (rest == "" || rest[0] == ' ') {
		m.attach(strings.TrimSpace(rest))
		m.Input.Reset()
		return m, nil
	}

	logger.SetLastInput(text)
	switch m.stage() {
	case project.StageInitial:
		sub := elicit.Submission{Text: text, Upload: m.upload}
		return m.run("submit", "Extracting requirements...", func(ctx context.Context) (*elicit.Outcome, error) {
			return m.deps.Engine.Submit(ctx, m.deps.Session, sub)
		})
	case project.StageClarification:
		return m.run("answer", "Refining requirements...", func(ctx context.Context) (*elicit.Outcome, error) {
			return m.deps.Engine.Answer(ctx, m.deps.Session, text)
		})
	}
	return m, nil
}

func (m *ChatModel) attach(path string) {
	if path == "" {
		m.setNotice("Usage: /file <path to .txt, .md or .pdf>", StyleWarning)
		return
	}
	if m.stage() != project.StageInitial {
		m.setNotice("Documents can only be attached to a project description.", StyleWarning)
		return
	}
	if m.deps.Loader == nil {
		m.setNotice("Document uploads are disabled.", StyleWarning)
		return
	}
	name, data, err := m.deps.Loader.ReadFile(path)
	if err != nil {
		m.setNotice("Could not attach: "+err.Error(), StyleError)
		return
	}
	m.upload = &elicit.Upload{Name: name, Data: data}
	m.setNotice(fmt.Sprintf("Attached %s (%d bytes). Press Enter to submit.", name, len(data)), StyleSuccess)
}

// run executes an engine action off the UI goroutine.
func (m ChatModel) run(action, label string, fn func(context.Context) (*elicit.Outcome, error)) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithTimeout(m.ctx, m.deps.StepTimeout)
	m.busy = true
	m.busyLabel = label
	m.cancel = cancel
	m.notice = ""
	m.failure = ""
	return m, tea.Batch(m.Spinner.Tick, func() tea.Msg {
		defer cancel()
		out, err := fn(ctx)
		return MsgOutcome{Action: action, Outcome: out, Err: err}
	})
}

func (m ChatModel) handleOutcome(msg MsgOutcome) ChatModel {
	m.busy = false
	m.cancel = nil

	if msg.Err != nil {
		var e *elicit.Error
		switch {
		case errors.Is(msg.Err, context.Canceled):
			m.setNotice("Cancelled.", StyleWarning)
		case errors.Is(msg.Err, context.DeadlineExceeded):
			m.setNotice("The model took too long to respond. Try again.", StyleError)
		case errors.As(msg.Err, &e) && e.Warning():
			m.setNotice(e.Err.Error(), StyleWarning)
		default:
			m.setNotice("", StyleError)
			m.failure = msg.Err.Error()
		}
		return m
	}

	out := msg.Outcome
	if len(out.Warnings) > 0 {
		m.setNotice(strings.Join(out.Warnings, " "), StyleWarning)
	}
	if msg.Action == "submit" {
		m.upload = nil
	}
	if out.Record != nil {
		logger.SetProject(out.Record.ID, string(out.Record.Stage))
	}
	m.Input.Reset()
	m.syncView()
	return m
}

func (m ChatModel) download() (tea.Model, tea.Cmd) {
	rec := m.deps.Session.Active()
	if m.deps.Exporter == nil || rec == nil {
		return m, nil
	}
	m.busy = true
	m.busyLabel = "Saving requirements.md..."
	exporter, dir := m.deps.Exporter, m.deps.ExportDir
	return m, func() tea.Msg {
		path, err := exporter.Write(rec, dir)
		return MsgExported{Path: path, Err: err}
	}
}

func (m *ChatModel) newProject() {
	if err := m.deps.Session.NewProject(); err != nil {
		m.setNotice("Could not save current project: "+err.Error(), StyleError)
		return
	}
	m.upload = nil
	m.Input.Reset()
	m.setNotice("Started a new project.", StyleSuccess)
	m.syncView()
}

func (m *ChatModel) openHistory() {
	if err := m.deps.Session.Save(); err != nil {
		m.setNotice("Could not save current project: "+err.Error(), StyleError)
		return
	}
	m.historyIdx = 0
	m.view = ViewHistory
}

// syncView picks the screen for the active record's stage.
func (m *ChatModel) syncView() {
	switch m.stage() {
	case project.StagePrioritization:
		m.view = ViewScoring
		m.resetScores()
	case project.StageFinalDocument:
		m.view = ViewDocument
	default:
		m.view = ViewChat
		m.Input.Focus()
		if m.stage() == project.StageClarification {
			m.Input.Placeholder = "Type your answer..."
		} else {
			m.Input.Placeholder = "Describe your project idea... (/file <path> to attach a document)"
		}
	}
	m.refreshViewport()
}

func (m *ChatModel) resetScores() {
	rec := m.deps.Session.Active()
	m.scoreIdx = 0
	m.scores = map[string]int{}
	if rec == nil {
		return
	}
	for _, req := range rec.Requirements {
		score, ok := rec.PriorityScores[req]
		if !ok {
			score = project.DefaultScore
		}
		m.scores[req] = score
	}
}

func (m *ChatModel) refreshViewport() {
	rec := m.deps.Session.Active()
	if m.view == ViewDocument && rec != nil {
		m.Viewport.SetContent(WrapText(rec.FinalDocument, m.Viewport.Width-2))
		return
	}
	m.Viewport.SetContent(m.renderTranscript(rec))
	m.Viewport.GotoBottom()
}

func (m *ChatModel) setNotice(text string, style lipgloss.Style) {
	m.notice = text
	m.noticeStyle = style
	m.failure = ""
}

func (m ChatModel) dashboardStats() dashboard.Stats {
	return dashboard.Compute(m.deps.Session.Projects().List())
}

func (m ChatModel) stage() project.Stage {
	if rec := m.deps.Session.Active(); rec != nil {
		return rec.Stage
	}
	return project.StageInitial
}

func (m ChatModel) requirements() []string {
	if rec := m.deps.Session.Active(); rec != nil {
		return rec.Requirements
	}
	return nil
}
