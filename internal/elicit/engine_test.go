package elicit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/josephgoksu/ReqWing/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSteps struct {
	extraction  Extraction
	extractErr  error
	refinements []Refinement
	refineErr   error
	document    string
	finalizeErr error

	extractInputs []string
	refineCalls   []string
	finalScores   map[string]int
}

func (f *fakeSteps) Extract(_ context.Context, text string) (Extraction, error) {
	f.extractInputs = append(f.extractInputs, text)
	return f.extraction, f.extractErr
}

func (f *fakeSteps) Refine(_ context.Context, reqs []string, question, answer string) (Refinement, error) {
	f.refineCalls = append(f.refineCalls, question+"="+answer)
	if f.refineErr != nil {
		return Refinement{}, f.refineErr
	}
	if len(f.refinements) == 0 {
		return Refinement{UpdatedRequirements: reqs}, nil
	}
	r := f.refinements[0]
	f.refinements = f.refinements[1:]
	return r, nil
}

func (f *fakeSteps) Finalize(_ context.Context, _ []string, scores map[string]int) (string, error) {
	f.finalScores = scores
	return f.document, f.finalizeErr
}

type fakeDocs struct {
	text string
	err  error
}

func (d fakeDocs) ReadDocument(string, []byte) (string, error) { return d.text, d.err }

type recordingObserver struct {
	steps       []string
	transitions []string
}

func (o *recordingObserver) StepDone(step string, _ time.Duration, err error) {
	o.steps = append(o.steps, fmt.Sprintf("%s:%v", step, err == nil))
}

func (o *recordingObserver) Transitioned(from, to project.Stage) {
	o.transitions = append(o.transitions, string(from)+"->"+string(to))
}

const srs = "# Software Requirements Specification\n## 1. Introduction\n..."

func loginSteps() *fakeSteps {
	return &fakeSteps{
		extraction: Extraction{
			InitialRequirements: []string{"Login"},
			ClarifyingQuestions: []string{"Which auth provider?"},
		},
		refinements: []Refinement{{UpdatedRequirements: []string{"Login", "Google OAuth"}}},
		document:    srs,
	}
}

func requireKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok, "expected *elicit.Error, got %T", err)
	assert.Equal(t, want, kind, "error: %v", err)
}

func TestSubmit_WithQuestionsEntersClarification(t *testing.T) {
	s := session.New()
	e := New(loginSteps())

	out, err := e.Submit(context.Background(), s, Submission{Text: "A login page"})
	require.NoError(t, err)

	r := out.Record
	assert.Equal(t, project.StageClarification, r.Stage)
	assert.Equal(t, []string{"Which auth provider?"}, r.ClarificationQuestions)
	assert.Equal(t, 0, r.QuestionIndex)
	assert.Equal(t, []string{"Login"}, r.Requirements)
	assert.Equal(t, project.StageInitial, out.From)
	assert.Equal(t, project.StageClarification, out.To)

	require.Len(t, r.Transcript, 2)
	assert.Equal(t, project.Message{Role: project.RoleUser, Content: "A login page"}, r.Transcript[0])
	assert.Equal(t, "Thanks! I have a few clarifying questions.\n\n*1. Which auth provider?*", r.Transcript[1].Content)

	stored, err := s.Projects().Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StageClarification, stored.Stage)
	assert.Equal(t, "A login page...", stored.Title)
}

func TestSubmit_NoQuestionsSkipsToPrioritization(t *testing.T) {
	steps := &fakeSteps{extraction: Extraction{InitialRequirements: []string{"Export CSV"}, ClarifyingQuestions: []string{}}}
	s := session.New()

	out, err := New(steps).Submit(context.Background(), s, Submission{Text: "CSV export"})
	require.NoError(t, err)
	assert.Equal(t, project.StagePrioritization, out.Record.Stage)
	assert.Equal(t, MsgNoQuestions, out.Reply)
}

func TestSubmit_WhitespaceRejectedWithoutMutation(t *testing.T) {
	steps := loginSteps()
	s := session.New()

	_, err := New(steps).Submit(context.Background(), s, Submission{Text: "  \n\t "})
	requireKind(t, err, KindInput)

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.True(t, e.Warning())
	assert.Nil(t, s.Active())
	assert.Equal(t, 0, s.Projects().Len())
	assert.Empty(t, steps.extractInputs, "no step call on rejected input")
}

func TestSubmit_DocumentOnly(t *testing.T) {
	steps := loginSteps()
	s := session.New()
	e := New(steps, WithDocumentReader(fakeDocs{text: "Spec from file"}))

	out, err := e.Submit(context.Background(), s, Submission{Upload: &Upload{Name: "idea.md", Data: []byte("x")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Spec from file"}, steps.extractInputs)
	assert.Equal(t, MsgProjectIdea, out.Record.Transcript[0].Content)
}

func TestSubmit_TextAndDocumentCombined(t *testing.T) {
	steps := loginSteps()
	e := New(steps, WithDocumentReader(fakeDocs{text: "Doc body"}))

	_, err := e.Submit(context.Background(), session.New(), Submission{Text: "Intro", Upload: &Upload{Name: "a.txt"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro\n\nDoc body"}, steps.extractInputs)
}

func TestSubmit_DocumentFailureDegradesToText(t *testing.T) {
	steps := loginSteps()
	e := New(steps, WithDocumentReader(fakeDocs{err: errors.New("bad pdf")}))

	out, err := e.Submit(context.Background(), session.New(), Submission{Text: "Just text", Upload: &Upload{Name: "broken.pdf"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Just text"}, steps.extractInputs)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "broken.pdf")
}

func TestSubmit_DocumentFailureWithoutText(t *testing.T) {
	s := session.New()
	e := New(loginSteps(), WithDocumentReader(fakeDocs{err: errors.New("bad pdf")}))

	_, err := e.Submit(context.Background(), s, Submission{Upload: &Upload{Name: "broken.pdf"}})
	requireKind(t, err, KindDocument)
	assert.Nil(t, s.Active())
}

func TestSubmit_StepFailureIsAllOrNothing(t *testing.T) {
	steps := loginSteps()
	steps.extractErr = fmt.Errorf("%w: missing key clarifying_questions", ErrMalformedOutput)
	s := session.New()

	_, err := New(steps).Submit(context.Background(), s, Submission{Text: "Idea"})
	requireKind(t, err, KindStep)
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.Nil(t, s.Active())
	assert.Equal(t, 0, s.Projects().Len())
}

func TestSubmit_WrongStage(t *testing.T) {
	s := session.New()
	e := New(loginSteps())
	_, err := e.Submit(context.Background(), s, Submission{Text: "Idea"})
	require.NoError(t, err)

	_, err = e.Submit(context.Background(), s, Submission{Text: "Again"})
	requireKind(t, err, KindStage)
}

func TestAnswer_AdvancesAndConsolidates(t *testing.T) {
	steps := &fakeSteps{
		extraction: Extraction{InitialRequirements: []string{"Login"}, ClarifyingQuestions: []string{"Q1?", "Q2?"}},
		refinements: []Refinement{
			{UpdatedRequirements: []string{"Login", "SSO"}},
			{UpdatedRequirements: []string{"Login", "SSO", "Audit log"}},
		},
	}
	s := session.New()
	e := New(steps)
	ctx := context.Background()

	_, err := e.Submit(ctx, s, Submission{Text: "Idea"})
	require.NoError(t, err)

	out, err := e.Answer(ctx, s, "Use SSO")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Record.QuestionIndex)
	assert.Equal(t, project.StageClarification, out.Record.Stage)
	assert.Equal(t, "Got it. Next:\n\n*2. Q2?*", out.Reply)

	out, err = e.Answer(ctx, s, "Keep audit log")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Record.QuestionIndex)
	assert.Equal(t, project.StagePrioritization, out.Record.Stage)
	assert.Equal(t, "Great, that's everything! Here's the consolidated list:\n\n- Login\n- SSO\n- Audit log\n\nNow, let's prioritize.", out.Reply)
	assert.Equal(t, []string{"Q1?=Use SSO", "Q2?=Keep audit log"}, steps.refineCalls)

	_, err = e.Answer(ctx, s, "extra")
	requireKind(t, err, KindStage)
	assert.Equal(t, 2, s.Active().QuestionIndex, "index never exceeds question count")
}

func TestAnswer_FailureKeepsIndex(t *testing.T) {
	steps := loginSteps()
	s := session.New()
	e := New(steps)
	ctx := context.Background()
	_, err := e.Submit(ctx, s, Submission{Text: "Idea"})
	require.NoError(t, err)
	before := s.Active()

	steps.refineErr = errors.New("connection reset")
	_, err = e.Answer(ctx, s, "Google")
	requireKind(t, err, KindStep)

	after := s.Active()
	assert.Equal(t, before.QuestionIndex, after.QuestionIndex)
	assert.Equal(t, before.Requirements, after.Requirements)
	assert.Equal(t, len(before.Transcript), len(after.Transcript))

	steps.refineErr = nil
	out, err := e.Answer(ctx, s, "Google")
	require.NoError(t, err, "user may retry the same action")
	assert.Equal(t, 1, out.Record.QuestionIndex)
}

func TestAnswer_EmptyRefinementRejected(t *testing.T) {
	steps := loginSteps()
	steps.refinements = []Refinement{{UpdatedRequirements: nil}}
	s := session.New()
	e := New(steps)
	_, err := e.Submit(context.Background(), s, Submission{Text: "Idea"})
	require.NoError(t, err)

	_, err = e.Answer(context.Background(), s, "whatever")
	requireKind(t, err, KindStep)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestAnswer_Validation(t *testing.T) {
	e := New(loginSteps())
	_, err := e.Answer(context.Background(), session.New(), "   ")
	requireKind(t, err, KindInput)

	_, err = e.Answer(context.Background(), session.New(), "yes")
	requireKind(t, err, KindStage)
	assert.ErrorIs(t, err, session.ErrNoActiveProject)
}

func reachPrioritization(t *testing.T, steps *fakeSteps) (*Engine, *session.Session) {
	t.Helper()
	s := session.New()
	e := New(steps)
	ctx := context.Background()
	_, err := e.Submit(ctx, s, Submission{Text: "Idea"})
	require.NoError(t, err)
	_, err = e.Answer(ctx, s, "Google")
	require.NoError(t, err)
	require.Equal(t, project.StagePrioritization, s.Active().Stage)
	return e, s
}

func TestPrioritize_GeneratesDocument(t *testing.T) {
	steps := loginSteps()
	e, s := reachPrioritization(t, steps)

	out, err := e.Prioritize(context.Background(), s, map[string]int{"Login": 9})
	require.NoError(t, err)

	r := out.Record
	assert.Equal(t, project.StageFinalDocument, r.Stage)
	assert.Equal(t, srs, r.FinalDocument)
	assert.Equal(t, map[string]int{"Login": 9, "Google OAuth": project.DefaultScore}, r.PriorityScores)
	assert.Equal(t, steps.finalScores, r.PriorityScores)
	assert.Equal(t, srs, r.Transcript[len(r.Transcript)-1].Content)
}

func TestPrioritize_InvalidScores(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]int
	}{
		{"too high", map[string]int{"Login": 11}},
		{"too low", map[string]int{"Login": 0}},
		{"unknown requirement", map[string]int{"Logout": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, s := reachPrioritization(t, loginSteps())
			_, err := e.Prioritize(context.Background(), s, tt.scores)
			requireKind(t, err, KindInput)
			assert.Equal(t, project.StagePrioritization, s.Active().Stage)
		})
	}
}

func TestPrioritize_FailureStoresNothing(t *testing.T) {
	steps := loginSteps()
	steps.finalizeErr = errors.New("timeout")
	e, s := reachPrioritization(t, steps)

	_, err := e.Prioritize(context.Background(), s, map[string]int{"Login": 9})
	requireKind(t, err, KindStep)

	r := s.Active()
	assert.Equal(t, project.StagePrioritization, r.Stage)
	assert.Empty(t, r.FinalDocument)
	assert.Empty(t, r.PriorityScores)
}

func TestPrioritize_EmptyDocumentIsMalformed(t *testing.T) {
	steps := loginSteps()
	steps.document = "  "
	e, s := reachPrioritization(t, steps)

	_, err := e.Prioritize(context.Background(), s, nil)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestRequestUpdate_LoopsBackPreservingIdentity(t *testing.T) {
	steps := loginSteps()
	e, s := reachPrioritization(t, steps)
	ctx := context.Background()
	done, err := e.Prioritize(ctx, s, map[string]int{"Login": 8})
	require.NoError(t, err)

	out, err := e.RequestUpdate(ctx, s)
	require.NoError(t, err)
	r := out.Record
	assert.Equal(t, done.Record.ID, r.ID)
	assert.Equal(t, project.StageInitial, r.Stage)
	assert.Empty(t, r.FinalDocument)
	require.Len(t, r.Transcript, len(done.Record.Transcript)+1)
	assert.Equal(t, done.Record.Transcript, r.Transcript[:len(done.Record.Transcript)])
	assert.Equal(t, MsgUpdateRequested, r.Transcript[len(r.Transcript)-1].Content)

	// resubmission keeps the id and uses the update wording
	steps.refinements = nil
	out, err = e.Submit(ctx, s, Submission{Text: "Add budgets"})
	require.NoError(t, err)
	assert.Equal(t, done.Record.ID, out.Record.ID)
	assert.True(t, strings.HasPrefix(out.Reply, "Thanks for the update!"))
	assert.Equal(t, 1, s.Projects().Len())
}

func TestRequestUpdate_WrongStage(t *testing.T) {
	e, s := reachPrioritization(t, loginSteps())
	_, err := e.RequestUpdate(context.Background(), s)
	requireKind(t, err, KindStage)
}

func TestObserverNotified(t *testing.T) {
	obs := &recordingObserver{}
	steps := loginSteps()
	s := session.New()
	e := New(steps, WithObserver(obs))
	ctx := context.Background()

	_, err := e.Submit(ctx, s, Submission{Text: "Idea"})
	require.NoError(t, err)
	steps.refineErr = errors.New("down")
	_, _ = e.Answer(ctx, s, "x")

	assert.Equal(t, []string{"extract:true", "refine:false"}, obs.steps)
	assert.Equal(t, []string{"initial->clarification"}, obs.transitions)
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "input", KindInput.String())
	assert.Equal(t, "step", KindStep.String())
	assert.Equal(t, "unknown", ErrorKind(99).String())

	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}
