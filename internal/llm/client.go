// Package llm provides a unified interface for LLM providers using CloudWeGo Eino.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider    Provider
	Model       string
	APIKey      string  // Required for every provider except Ollama
	BaseURL     string  // Overrides the provider endpoint (Ollama, Groq, OpenAI-compatible gateways)
	Temperature float32 // 0 uses DefaultTemperature
	MaxTokens   int     // 0 uses DefaultMaxTokens
}

func (c Config) modelName() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModelForProvider(c.Provider)
}

func (c Config) temperature() *float32 {
	t := c.Temperature
	if t == 0 {
		t = DefaultTemperature
	}
	return &t
}

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return DefaultMaxTokens
}

// NewChatModel creates a ChatModel instance based on the provider configuration.
// It returns an Eino BaseChatModel that can be used for Generate() calls.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	if RequiresAPIKey(cfg.Provider) && cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderGroq, ProviderOpenAI:
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == ProviderGroq {
			baseURL = DefaultGroqURL
		}
		maxTokens := cfg.maxTokens()
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:       cfg.modelName(),
			APIKey:      cfg.APIKey,
			BaseURL:     baseURL,
			Temperature: cfg.temperature(),
			MaxTokens:   &maxTokens,
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.modelName(),
		})

	case ProviderAnthropic:
		c := &claude.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.modelName(),
			MaxTokens:   cfg.maxTokens(),
			Temperature: cfg.temperature(),
		}
		if cfg.BaseURL != "" {
			c.BaseURL = &cfg.BaseURL
		}
		return claude.NewChatModel(ctx, c)

	case ProviderGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		maxTokens := cfg.maxTokens()
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client:      client,
			Model:       cfg.modelName(),
			Temperature: cfg.temperature(),
			MaxTokens:   &maxTokens,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: groq, openai, ollama, anthropic, gemini)", cfg.Provider)
	}
}

// ValidateProvider checks if the given provider string is supported.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(p) {
	case ProviderGroq, ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini:
		return Provider(p), nil
	default:
		return "", fmt.Errorf("unsupported provider: %s", p)
	}
}
