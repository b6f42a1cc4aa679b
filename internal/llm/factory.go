package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/ytverify/internal/model"
)

// apiKeyEnv lists the environment variables consulted per provider, in order
var apiKeyEnv = map[string][]string{
	"":          {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"google":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"claude":    {"ANTHROPIC_API_KEY"},
}

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "gemini", "google", "":
		return NewGeminiProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: gemini, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the runtime config into provider config
func ConfigFromModel(cfg *model.Config) Config {
	modelName := cfg.LLM.Model
	switch strings.ToLower(cfg.LLM.Provider) {
	case "", "gemini", "google":
	default:
		// The shipped default names a Gemini model; other providers use their own default
		if modelName == defaultGeminiModel {
			modelName = ""
		}
	}

	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      modelName,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}

// LoadConfigFromEnv fills a missing API key and Ollama URL from the environment
func LoadConfigFromEnv(config Config) Config {
	if config.APIKey == "" {
		for _, name := range apiKeyEnv[strings.ToLower(config.Provider)] {
			if v := os.Getenv(name); v != "" {
				config.APIKey = v
				break
			}
		}
	}
	if config.BaseURL == "" && strings.EqualFold(config.Provider, "ollama") {
		config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return config
}
