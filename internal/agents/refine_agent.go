package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/josephgoksu/ReqWing/internal/agents/core"
	"github.com/josephgoksu/ReqWing/internal/elicit"
)

// RefineAgent integrates one clarification answer into the requirements list.
type RefineAgent struct {
	core.BaseAgent
	chain *core.DeterministicChain[elicit.Refinement]
}

// NewRefineAgent builds the refine chain.
func NewRefineAgent(ctx context.Context, chatModel model.BaseChatModel) (*RefineAgent, error) {
	parse := func(content string) (elicit.Refinement, error) {
		return core.ParseStrictJSON[elicit.Refinement](content, "updated_requirements")
	}
	chain, err := core.NewDeterministicChain(ctx, "refine", chatModel, SystemPromptRefinement, RefineTemplate, parse)
	if err != nil {
		return nil, fmt.Errorf("build refine chain: %w", err)
	}
	return &RefineAgent{
		BaseAgent: core.NewBaseAgent("refine", "Requirements Refinement Specialist", SystemPromptRefinement, chatModel),
		chain:     chain,
	}, nil
}

// Run executes the refinement.
func (a *RefineAgent) Run(ctx context.Context, requirements []string, question, answer string) (elicit.Refinement, error) {
	if requirements == nil {
		requirements = []string{}
	}
	out, d, err := a.chain.Invoke(ctx, map[string]any{
		"question":     question,
		"answer":       answer,
		"requirements": requirements,
	})
	if err != nil {
		return elicit.Refinement{}, stepError(err)
	}
	slog.Debug("refine done", "role", a.Role(), "duration", d, "requirements", len(out.UpdatedRequirements))
	return out, nil
}
