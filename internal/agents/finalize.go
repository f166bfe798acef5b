package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/josephgoksu/ReqWing/internal/agents/core"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/rules"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Finalize stage names.
const (
	StageValidate   = "validate"
	StagePrioritize = "prioritize"
	StageSummarize  = "summarize"
)

// FinalizeInput is the pipeline input.
type FinalizeInput struct {
	Requirements []string
	Scores       map[string]int
}

// Validation is the validate stage's output.
type Validation struct {
	Input    FinalizeInput
	Findings []rules.Finding
	Report   string
}

// Prioritization is the prioritize stage's output.
type Prioritization struct {
	Validation Validation
	Ranking    string
}

// StageObserver is told how each pipeline stage went.
type StageObserver func(stage string, d time.Duration, err error)

// RulesSource provides the active business rules.
type RulesSource interface {
	Current() *rules.BusinessRules
}

// FinalizePipeline chains validate -> prioritize -> summarize. Each stage
// consumes the previous stage's typed output; stages never run in parallel
// and are not retried.
type FinalizePipeline struct {
	validator   core.BaseAgent
	prioritizer core.BaseAgent
	writer      core.BaseAgent
	rules       RulesSource
	checker     *rules.Checker
	observe     StageObserver
	tracer      trace.Tracer
	graph       compose.Runnable[FinalizeInput, string]
}

// NewFinalizePipeline compiles the pipeline graph. checker may be nil to skip
// the policy pre-check.
func NewFinalizePipeline(ctx context.Context, chatModel model.BaseChatModel, src RulesSource, checker *rules.Checker, observe StageObserver) (*FinalizePipeline, error) {
	p := &FinalizePipeline{
		// The validator's system prompt is a format string filled with the current rules per call.
		validator:   core.NewBaseAgent(StageValidate, "Business Logic & Strategy Expert", SystemPromptValidator, chatModel),
		prioritizer: core.NewBaseAgent(StagePrioritize, "Product Manager", SystemPromptPrioritizer, chatModel),
		writer:      core.NewBaseAgent(StageSummarize, "Lead Technical Writer", SystemPromptWriter, chatModel),
		rules:       src,
		checker:     checker,
		observe:     observe,
		tracer:      otel.Tracer("github.com/josephgoksu/ReqWing/internal/agents"),
	}

	graph := compose.NewGraph[FinalizeInput, string]()
	_ = graph.AddLambdaNode(StageValidate, compose.InvokableLambda(p.validate))
	_ = graph.AddLambdaNode(StagePrioritize, compose.InvokableLambda(p.prioritize))
	_ = graph.AddLambdaNode(StageSummarize, compose.InvokableLambda(p.summarize))

	_ = graph.AddEdge(compose.START, StageValidate)
	_ = graph.AddEdge(StageValidate, StagePrioritize)
	_ = graph.AddEdge(StagePrioritize, StageSummarize)
	_ = graph.AddEdge(StageSummarize, compose.END)

	compiled, err := graph.Compile(ctx, compose.WithGraphName("finalize"))
	if err != nil {
		return nil, fmt.Errorf("compile finalize pipeline: %w", err)
	}
	p.graph = compiled
	return p, nil
}

// Run produces the final document. The result is normalized and must follow
// the SRS template.
func (p *FinalizePipeline) Run(ctx context.Context, in FinalizeInput) (string, error) {
	doc, err := p.graph.Invoke(ctx, in, compose.WithCallbacks(core.LogHandler("finalize")))
	if err != nil {
		return "", err
	}
	doc = NormalizeDocument(doc)
	if err := CheckTemplate(doc); err != nil {
		return "", fmt.Errorf("%w: %v", elicit.ErrMalformedOutput, err)
	}
	return doc, nil
}

func (p *FinalizePipeline) validate(ctx context.Context, in FinalizeInput) (out Validation, err error) {
	ctx, done := p.stage(ctx, StageValidate)
	defer func() { done(err) }()

	current := p.rules.Current()
	out.Input = in
	if p.checker != nil {
		out.Findings, err = p.checker.Check(ctx, current, in.Requirements)
		if err != nil {
			return out, err
		}
	}

	reqJSON, _ := json.MarshalIndent(nonNilList(in.Requirements), "", "  ")
	prompt := fmt.Sprintf(ValidateTask, reqJSON, findingsBlock(out.Findings))
	system := fmt.Sprintf(p.validator.SystemPrompt(), current.JSON())

	out.Report, err = p.validator.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(prompt),
	})
	return out, err
}

func (p *FinalizePipeline) prioritize(ctx context.Context, in Validation) (out Prioritization, err error) {
	ctx, done := p.stage(ctx, StagePrioritize)
	defer func() { done(err) }()

	scoresJSON, _ := json.MarshalIndent(orderedScores(in.Input), "", "  ")
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(PrioritizeTask, scoresJSON))
	sb.WriteString("\n\n## Validation Context\n")
	sb.WriteString(in.Report)

	out.Validation = in
	out.Ranking, err = p.prioritizer.GenerateFromPrompt(ctx, sb.String())
	return out, err
}

func (p *FinalizePipeline) summarize(ctx context.Context, in Prioritization) (doc string, err error) {
	ctx, done := p.stage(ctx, StageSummarize)
	defer func() { done(err) }()

	var sb strings.Builder
	sb.WriteString(SummarizeTask)
	sb.WriteString("\n\n## Prioritization Context\n")
	sb.WriteString(in.Ranking)
	sb.WriteString("\n\n## Validation Context\n")
	sb.WriteString(in.Validation.Report)

	return p.writer.GenerateFromPrompt(ctx, sb.String())
}

// stage opens a span and returns a completion func that reports to the observer.
func (p *FinalizePipeline) stage(ctx context.Context, name string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "finalize."+name, trace.WithAttributes(attribute.String("stage", name)))
	return ctx, func(err error) {
		d := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stage failed")
			slog.Warn("finalize stage failed", "stage", name, "duration", d, "error", err)
		} else {
			slog.Debug("finalize stage done", "stage", name, "duration", d)
		}
		span.End()
		if p.observe != nil {
			p.observe(name, d, err)
		}
	}
}

func findingsBlock(findings []rules.Finding) string {
	if len(findings) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\nAutomated policy pre-check (keyword based; confirm or dismiss each):\n")
	for _, f := range findings {
		sb.WriteString("- ")
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

type scoredRequirement struct {
	Requirement string `json:"requirement"`
	Score       int    `json:"score"`
}

// orderedScores lists scores in requirement order, highest score first.
func orderedScores(in FinalizeInput) []scoredRequirement {
	out := make([]scoredRequirement, 0, len(in.Requirements))
	for _, r := range in.Requirements {
		out = append(out, scoredRequirement{Requirement: r, Score: in.Scores[r]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func nonNilList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
