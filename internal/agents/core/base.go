/*
Package core provides BaseAgent and the shared Eino plumbing every
transformation step agent is built from.
*/
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// BaseAgent provides shared functionality for all LLM-powered agents.
type BaseAgent struct {
	name         string
	role         string
	systemPrompt string
	chatModel    model.BaseChatModel
}

// NewBaseAgent creates a new BaseAgent. role is the persona shown in logs;
// systemPrompt is sent as the system message of every call.
func NewBaseAgent(name, role, systemPrompt string, chatModel model.BaseChatModel) BaseAgent {
	return BaseAgent{
		name:         name,
		role:         role,
		systemPrompt: systemPrompt,
		chatModel:    chatModel,
	}
}

// Name returns the agent identifier.
func (b *BaseAgent) Name() string { return b.name }

// Role returns the agent persona.
func (b *BaseAgent) Role() string { return b.role }

// SystemPrompt returns the persona prompt.
func (b *BaseAgent) SystemPrompt() string { return b.systemPrompt }

// Messages builds the system + user message pair for one call.
func (b *BaseAgent) Messages(userPrompt string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(b.systemPrompt),
		schema.UserMessage(userPrompt),
	}
}

// Generate sends messages to the LLM and returns the response content.
func (b *BaseAgent) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	if b.chatModel == nil {
		return "", errors.New("no chat model configured")
	}
	resp, err := b.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	if resp == nil {
		return "", errors.New("llm generate: empty response")
	}
	return resp.Content, nil
}

// GenerateFromPrompt sends the system prompt plus one user prompt.
func (b *BaseAgent) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	return b.Generate(ctx, b.Messages(prompt))
}
