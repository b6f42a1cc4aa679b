package llm

import "fmt"

const (
	// geminiBaseURL is Google's OpenAI-compatible endpoint for Gemini models
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultGeminiModel = "gemini-1.5-flash"
)

// NewGeminiProvider creates a Gemini provider over the OpenAI-compatible API
func NewGeminiProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini: %w", ErrMissingAPIKey)
	}
	return newChatProvider("gemini", config, geminiBaseURL, defaultGeminiModel), nil
}
