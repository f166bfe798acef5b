package llm

// Provider constants
const (
	// DefaultProvider is the default LLM provider
	DefaultProvider = ProviderGroq

	// ProviderGroq represents Groq's OpenAI-compatible API
	ProviderGroq Provider = "groq"

	// ProviderOpenAI represents the OpenAI provider
	ProviderOpenAI Provider = "openai"

	// ProviderOllama represents the Ollama provider
	ProviderOllama Provider = "ollama"

	// ProviderAnthropic represents the Anthropic provider
	ProviderAnthropic Provider = "anthropic"

	// ProviderGemini represents the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Endpoints
const (
	DefaultOllamaURL = "http://localhost:11434"
	DefaultGroqURL   = "https://api.groq.com/openai/v1"
)

// DefaultTemperature keeps extraction output close to deterministic.
const DefaultTemperature float32 = 0.1

// DefaultMaxTokens caps a single completion (required by the Anthropic API).
const DefaultMaxTokens = 4096
