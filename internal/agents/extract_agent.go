package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/josephgoksu/ReqWing/internal/agents/core"
	"github.com/josephgoksu/ReqWing/internal/elicit"
)

// ExtractAgent turns a free-form project description into an initial
// requirements list and clarifying questions.
type ExtractAgent struct {
	core.BaseAgent
	chain *core.DeterministicChain[elicit.Extraction]
}

// NewExtractAgent builds the extract chain.
func NewExtractAgent(ctx context.Context, chatModel model.BaseChatModel) (*ExtractAgent, error) {
	parse := func(content string) (elicit.Extraction, error) {
		return core.ParseStrictJSON[elicit.Extraction](content, "initial_requirements", "clarifying_questions")
	}
	chain, err := core.NewDeterministicChain(ctx, "extract", chatModel, SystemPromptStrategicLead, ExtractTemplate, parse)
	if err != nil {
		return nil, fmt.Errorf("build extract chain: %w", err)
	}
	return &ExtractAgent{
		BaseAgent: core.NewBaseAgent("extract", "Strategic Product Lead", SystemPromptStrategicLead, chatModel),
		chain:     chain,
	}, nil
}

// Run executes the extraction.
func (a *ExtractAgent) Run(ctx context.Context, request string) (elicit.Extraction, error) {
	out, d, err := a.chain.Invoke(ctx, map[string]any{"request": request})
	if err != nil {
		return elicit.Extraction{}, stepError(err)
	}
	slog.Debug("extract done", "role", a.Role(), "duration", d, "requirements", len(out.InitialRequirements), "questions", len(out.ClarifyingQuestions))
	return out, nil
}
