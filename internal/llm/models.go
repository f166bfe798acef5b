package llm

import "strings"

var defaultModels = map[Provider]string{
	ProviderGroq:      "llama-3.1-8b-instant",
	ProviderOpenAI:    "gpt-5-mini",
	ProviderAnthropic: "claude-3-5-sonnet-latest",
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOllama:    "llama3.1",
}

// DefaultModelForProvider returns the default chat model for a provider,
// or "" for unknown providers.
func DefaultModelForProvider(p Provider) string {
	return defaultModels[p]
}

// InferProvider guesses the provider from a model name.
func InferProvider(model string) (Provider, bool) {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gpt-"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return ProviderOpenAI, true
	case strings.HasPrefix(m, "claude"):
		return ProviderAnthropic, true
	case strings.HasPrefix(m, "gemini"):
		return ProviderGemini, true
	case strings.HasPrefix(m, "llama-"), strings.HasPrefix(m, "mixtral"), strings.HasPrefix(m, "gemma"):
		return ProviderGroq, true
	}
	return "", false
}

// RequiresAPIKey reports whether the provider needs an API key.
func RequiresAPIKey(p Provider) bool {
	return p != ProviderOllama
}
