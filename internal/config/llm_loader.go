package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/josephgoksu/ReqWing/internal/llm"
	"github.com/spf13/viper"
)

// LoadLLMConfig loads LLM configuration from Viper and environment variables.
// Precedence: explicit config > environment > defaults.
func LoadLLMConfig() (llm.Config, error) {
	provider := viper.GetString("llm.provider")
	model := viper.GetString("llm.model")
	if provider == "" && model != "" {
		if inferred, ok := llm.InferProvider(model); ok {
			provider = string(inferred)
		}
	}
	if provider == "" {
		provider = string(llm.DefaultProvider)
	}

	llmProvider, err := llm.ValidateProvider(provider)
	if err != nil {
		return llm.Config{}, fmt.Errorf("invalid provider: %w", err)
	}

	if model == "" {
		model = llm.DefaultModelForProvider(llmProvider)
	}

	baseURL := viper.GetString("llm.baseURL")
	if baseURL == "" {
		switch llmProvider {
		case llm.ProviderOllama:
			baseURL = llm.DefaultOllamaURL
		case llm.ProviderGroq:
			baseURL = llm.DefaultGroqURL
		}
	}

	temperature := float32(viper.GetFloat64("llm.temperature"))
	if temperature < 0 || temperature > 2 {
		return llm.Config{}, fmt.Errorf("llm.temperature must be between 0 and 2, got %v", temperature)
	}

	return llm.Config{
		Provider:    llmProvider,
		Model:       model,
		APIKey:      ResolveAPIKey(llmProvider),
		BaseURL:     baseURL,
		Temperature: temperature,
		MaxTokens:   viper.GetInt("llm.maxTokens"),
	}, nil
}

// ResolveAPIKey returns the API key for a provider: llm.apiKeys.<provider>
// first, then the provider's environment variable.
func ResolveAPIKey(provider llm.Provider) string {
	path := fmt.Sprintf("llm.apiKeys.%s", provider)
	if viper.IsSet(path) {
		if key := strings.TrimSpace(viper.GetString(path)); key != "" {
			return key
		}
	}
	return providerEnvKey(provider)
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderGroq:
		return strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}
