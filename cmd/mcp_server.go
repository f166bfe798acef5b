/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/josephgoksu/ReqWing/internal/dashboard"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/josephgoksu/ReqWing/internal/session"
	"github.com/josephgoksu/ReqWing/internal/utils"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI tool integration",
	Long: `Start a Model Context Protocol (MCP) server so AI assistants can run
the elicitation workflow on the user's behalf.

Tools:
  elicit_submit      describe a project idea (optionally with a document path)
  elicit_answer      answer the pending clarifying question
  elicit_prioritize  score requirements 1-10 and generate the document
  elicit_update      reopen a finished document for changes
  elicit_status      show the active project
  elicit_dashboard   show session statistics

The server speaks JSON-RPC over stdio and runs until the client disconnects.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCPServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// SubmitParams defines the parameters for elicit_submit.
type SubmitParams struct {
	Idea         string `json:"idea,omitempty"`          // Free-text project description
	DocumentPath string `json:"document_path,omitempty"` // Optional .txt, .md or .pdf file
}

// AnswerParams defines the parameters for elicit_answer.
type AnswerParams struct {
	Answer string `json:"answer"`
}

// PrioritizeParams defines the parameters for elicit_prioritize.
// Requirements left out get the default score of 5.
type PrioritizeParams struct {
	Scores map[string]int `json:"scores,omitempty"`
}

// EmptyParams is used by tools without arguments.
type EmptyParams struct{}

// mcpMarkdownResponse wraps Markdown content in an MCP tool result.
func mcpMarkdownResponse(markdown string) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: markdown}},
	}, nil
}

// mcpErrorResponse wraps an error in an MCP tool result with IsError=true.
// Tool errors are returned in the result so the model can see them and self-correct.
func mcpErrorResponse(err error) (*mcpsdk.CallToolResultFor[any], error) {
	return &mcpsdk.CallToolResultFor[any]{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "**Error:** " + friendlyError(err)}},
		IsError: true,
	}, nil
}

// mcpTools holds the workflow state behind the MCP tools. Each MCP client
// connection gets its own session.
type mcpTools struct {
	engine   *elicit.Engine
	sessions *session.Manager
	readFile func(path string) (string, []byte, error)
}

func (t *mcpTools) session(ss *mcpsdk.ServerSession) *session.Session {
	return t.sessions.Get(fmt.Sprintf("mcp-%p", ss))
}

func (t *mcpTools) submit(ctx context.Context, s *session.Session, p SubmitParams) (*mcpsdk.CallToolResultFor[any], error) {
	sub := elicit.Submission{Text: p.Idea}
	if p.DocumentPath != "" {
		if t.readFile == nil {
			return mcpErrorResponse(fmt.Errorf("document uploads are not enabled"))
		}
		name, data, err := t.readFile(p.DocumentPath)
		if err != nil {
			if strings.TrimSpace(p.Idea) == "" {
				return mcpErrorResponse(err)
			}
			out, serr := t.engine.Submit(ctx, s, sub)
			if serr == nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("Error reading file %s: %v", p.DocumentPath, err))
			}
			return t.outcome(out, serr)
		}
		sub.Upload = &elicit.Upload{Name: name, Data: data}
	}
	return t.outcome(t.engine.Submit(ctx, s, sub))
}

func (t *mcpTools) answer(ctx context.Context, s *session.Session, p AnswerParams) (*mcpsdk.CallToolResultFor[any], error) {
	return t.outcome(t.engine.Answer(ctx, s, p.Answer))
}

func (t *mcpTools) prioritize(ctx context.Context, s *session.Session, p PrioritizeParams) (*mcpsdk.CallToolResultFor[any], error) {
	return t.outcome(t.engine.Prioritize(ctx, s, p.Scores))
}

func (t *mcpTools) update(ctx context.Context, s *session.Session) (*mcpsdk.CallToolResultFor[any], error) {
	return t.outcome(t.engine.RequestUpdate(ctx, s))
}

func (t *mcpTools) status(s *session.Session) (*mcpsdk.CallToolResultFor[any], error) {
	rec := s.Active()
	if rec == nil {
		return mcpMarkdownResponse("No active project. Call elicit_submit with a project idea to start.")
	}
	return mcpMarkdownResponse(formatRecord(rec))
}

func (t *mcpTools) dashboard(s *session.Session) (*mcpsdk.CallToolResultFor[any], error) {
	if err := s.Save(); err != nil {
		return mcpErrorResponse(err)
	}
	return mcpMarkdownResponse(formatStats(dashboard.Compute(s.Projects().List())))
}

func (t *mcpTools) outcome(out *elicit.Outcome, err error) (*mcpsdk.CallToolResultFor[any], error) {
	if err != nil {
		return mcpErrorResponse(err)
	}
	var sb strings.Builder
	for _, w := range out.Warnings {
		fmt.Fprintf(&sb, "> Warning: %s\n\n", w)
	}
	sb.WriteString(out.Reply)
	sb.WriteString("\n\n---\n")
	sb.WriteString(nextStepHint(out.Record))
	return mcpMarkdownResponse(sb.String())
}

func nextStepHint(r *project.Record) string {
	switch r.Stage {
	case project.StageClarification:
		return fmt.Sprintf("Stage: clarification (question %d of %d). Call elicit_answer.",
			r.QuestionIndex+1, len(r.ClarificationQuestions))
	case project.StagePrioritization:
		return fmt.Sprintf("Stage: prioritization. Call elicit_prioritize with scores 1-10 for:\n%s",
			utils.BulletList(r.Requirements))
	case project.StageFinalDocument:
		return "Stage: final document. Call elicit_update to request changes."
	default:
		return "Stage: initial. Call elicit_submit with the changes."
	}
}

func formatRecord(r *project.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\nStage: %s\n\n", r.Title, r.Stage)
	if len(r.Requirements) > 0 {
		sb.WriteString("### Requirements\n")
		for _, req := range r.Requirements {
			if score := r.Score(req); score > 0 {
				fmt.Fprintf(&sb, "- %s (score %d)\n", req, score)
			} else {
				fmt.Fprintf(&sb, "- %s\n", req)
			}
		}
		sb.WriteString("\n")
	}
	if q, ok := r.CurrentQuestion(); ok && r.Stage == project.StageClarification {
		fmt.Fprintf(&sb, "Pending question: %s\n", q)
	}
	if r.HasDocument() {
		sb.WriteString("\n" + r.FinalDocument + "\n")
	}
	return sb.String()
}

func formatStats(s dashboard.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Dashboard\n\n- Projects: %d\n- Requirements: %d\n- Avg requirements per project: %.1f\n\n",
		s.TotalProjects, s.TotalRequirements, s.AvgRequirementsPerProject)
	sb.WriteString("### Priorities\n")
	for _, b := range s.PriorityHistogram {
		fmt.Fprintf(&sb, "- %s: %d\n", b.Priority, b.Count)
	}
	if len(s.RecentProjects) > 0 {
		sb.WriteString("\n### Recent projects\n")
		for _, p := range s.RecentProjects {
			fmt.Fprintf(&sb, "- %s (%d requirements, %s)\n", p.Title, p.RequirementCount, p.Stage)
		}
	}
	return sb.String()
}

func runMCPServer(ctx context.Context) error {
	// stdout carries JSON-RPC only; status output goes to stderr.
	fmt.Fprintln(os.Stderr, "ReqWing MCP Server starting...")

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	tools := &mcpTools{
		engine:   rt.Engine,
		sessions: session.NewManager(0),
		readFile: rt.Loader.ReadFile,
	}

	impl := &mcpsdk.Implementation{
		Name:    "reqwing-mcp",
		Version: GetVersion(),
	}
	serverOpts := &mcpsdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.InitializedParams) {
			fmt.Fprintln(os.Stderr, "MCP connection established")
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "[DEBUG] Client initialized")
			}
		},
	}
	server := mcpsdk.NewServer(impl, serverOpts)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "elicit_submit",
		Description: "Start or resubmit a project: pass a free-text idea and/or a path to a .txt, .md or .pdf document. Returns extracted requirements and the first clarifying question.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[SubmitParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return tools.submit(ctx, tools.session(ss), params.Arguments)
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "elicit_answer",
		Description: "Answer the pending clarifying question. The requirement list is refined with the answer.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[AnswerParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return tools.answer(ctx, tools.session(ss), params.Arguments)
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "elicit_prioritize",
		Description: "Score requirements from 1 (low) to 10 (critical), keyed by exact requirement text, and generate the Software Requirements Specification. Unscored requirements default to 5.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[PrioritizeParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return tools.prioritize(ctx, tools.session(ss), params.Arguments)
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "elicit_update",
		Description: "Reopen the finished document so the project can be resubmitted with changes.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[EmptyParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return tools.update(ctx, tools.session(ss))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "elicit_status",
		Description: "Show the active project: stage, requirements, pending question and document.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[EmptyParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return tools.status(tools.session(ss))
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "elicit_dashboard",
		Description: "Show statistics over all projects of this session: counts, average requirements and the priority histogram.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[EmptyParams]) (*mcpsdk.CallToolResultFor[any], error) {
		return tools.dashboard(tools.session(ss))
	})

	if err := server.Run(ctx, mcpsdk.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
