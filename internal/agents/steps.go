/*
Package agents implements the three transformation steps (extract, refine,
finalize) on top of an Eino chat model.
*/
package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/josephgoksu/ReqWing/internal/agents/core"
	"github.com/josephgoksu/ReqWing/internal/elicit"
	"github.com/josephgoksu/ReqWing/internal/rules"
)

// Steps implements elicit.Steps.
type Steps struct {
	extract  *ExtractAgent
	refine   *RefineAgent
	finalize *FinalizePipeline
}

var _ elicit.Steps = (*Steps)(nil)

// Config wires the steps.
type Config struct {
	ChatModel model.BaseChatModel
	Rules     RulesSource
	// Checker runs the policy pre-check before validation; nil disables it.
	Checker       *rules.Checker
	StageObserver StageObserver
}

// NewSteps builds all agents against one chat model.
func NewSteps(ctx context.Context, cfg Config) (*Steps, error) {
	if cfg.ChatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if cfg.Rules == nil {
		return nil, errors.New("business rules source is required")
	}
	extract, err := NewExtractAgent(ctx, cfg.ChatModel)
	if err != nil {
		return nil, err
	}
	refine, err := NewRefineAgent(ctx, cfg.ChatModel)
	if err != nil {
		return nil, err
	}
	finalize, err := NewFinalizePipeline(ctx, cfg.ChatModel, cfg.Rules, cfg.Checker, cfg.StageObserver)
	if err != nil {
		return nil, err
	}
	return &Steps{extract: extract, refine: refine, finalize: finalize}, nil
}

// Extract implements elicit.Steps.
func (s *Steps) Extract(ctx context.Context, text string) (elicit.Extraction, error) {
	return s.extract.Run(ctx, text)
}

// Refine implements elicit.Steps.
func (s *Steps) Refine(ctx context.Context, requirements []string, question, answer string) (elicit.Refinement, error) {
	return s.refine.Run(ctx, requirements, question, answer)
}

// Finalize implements elicit.Steps.
func (s *Steps) Finalize(ctx context.Context, requirements []string, scores map[string]int) (string, error) {
	return s.finalize.Run(ctx, FinalizeInput{Requirements: requirements, Scores: scores})
}

// stepError marks unparseable model output as elicit.ErrMalformedOutput.
func stepError(err error) error {
	var pe *core.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", elicit.ErrMalformedOutput, err)
	}
	return err
}
