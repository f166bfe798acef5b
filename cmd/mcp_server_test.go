package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/josephgoksu/ReqWing/internal/docload"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/josephgoksu/ReqWing/internal/session"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedSteps struct{}

func (cannedSteps) Extract(context.Context, string) (elicit.Extraction, error) {
	return elicit.Extraction{
		InitialRequirements: []string{"Log expenses", "Monthly report"},
		ClarifyingQuestions: []string{"Who are the users?"},
	}, nil
}

func (cannedSteps) Refine(_ context.Context, reqs []string, _, _ string) (elicit.Refinement, error) {
	return elicit.Refinement{UpdatedRequirements: reqs}, nil
}

func (cannedSteps) Finalize(context.Context, []string, map[string]int) (string, error) {
	return "# Software Requirements Specification\n\n## 1. Introduction\n", nil
}

func resultText(t *testing.T, res *mcpsdk.CallToolResultFor[any]) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	return tc.Text
}

func newTestTools(readFile func(string) (string, []byte, error)) (*mcpTools, *session.Session) {
	tools := &mcpTools{
		engine:   elicit.New(cannedSteps{}, elicit.WithDocumentReader(docload.NewLoader(afero.NewMemMapFs(), 0))),
		sessions: session.NewManager(0),
		readFile: readFile,
	}
	return tools, tools.sessions.Get("test")
}

func TestMCPTools_Workflow(t *testing.T) {
	tools, s := newTestTools(nil)
	ctx := context.Background()

	res, err := tools.status(s)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "No active project")

	res, err = tools.submit(ctx, s, SubmitParams{Idea: "Expense tracker for freelancers"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	text := resultText(t, res)
	assert.Contains(t, text, "Who are the users?")
	assert.Contains(t, text, "Call elicit_answer")

	res, err = tools.answer(ctx, s, AnswerParams{Answer: "Freelancers"})
	require.NoError(t, err)
	text = resultText(t, res)
	assert.Contains(t, text, "elicit_prioritize")
	assert.Contains(t, text, "- Log expenses")

	res, err = tools.prioritize(ctx, s, PrioritizeParams{Scores: map[string]int{"Log expenses": 9}})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "# Software Requirements Specification")

	res, err = tools.status(s)
	require.NoError(t, err)
	text = resultText(t, res)
	assert.Contains(t, text, "Stage: final_document")
	assert.Contains(t, text, "Log expenses (score 9)")

	res, err = tools.dashboard(s)
	require.NoError(t, err)
	text = resultText(t, res)
	assert.Contains(t, text, "Projects: 1")
	assert.Contains(t, text, "Critical: 1")
	assert.Contains(t, text, "High: 1")

	res, err = tools.update(ctx, s)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), elicit.MsgUpdateRequested)
	assert.Equal(t, project.StageInitial, s.Active().Stage)
}

func TestMCPTools_ErrorsAreToolResults(t *testing.T) {
	tools, s := newTestTools(nil)

	res, err := tools.answer(context.Background(), s, AnswerParams{Answer: "too early"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not available")

	res, err = tools.submit(context.Background(), s, SubmitParams{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Nil(t, s.Active())
}

func TestMCPTools_DocumentPath(t *testing.T) {
	readErr := errors.New("no such file")
	tools, s := newTestTools(func(path string) (string, []byte, error) {
		if path == "idea.md" {
			return "idea.md", []byte("# Idea\nTrack receipts."), nil
		}
		return "", nil, readErr
	})
	ctx := context.Background()

	res, err := tools.submit(ctx, s, SubmitParams{DocumentPath: "idea.md"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, elicit.MsgProjectIdea, s.Active().Transcript[0].Content)

	_, other := newTestTools(nil)
	res, err = tools.submit(ctx, other, SubmitParams{DocumentPath: "missing.md"})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, third := newTestTools(nil)
	res, err = tools.submit(ctx, third, SubmitParams{Idea: "Budget app", DocumentPath: "missing.md"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Warning: Error reading file missing.md")
}

func TestNextStepHint_ListsRequirementsForScoring(t *testing.T) {
	r := project.New()
	r.Stage = project.StagePrioritization
	r.Requirements = []string{"Track expenses", "Export CSV"}

	hint := nextStepHint(r)
	assert.True(t, strings.HasSuffix(hint, "scores 1-10 for:\n- Track expenses\n- Export CSV"), hint)
}
