package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ppiankov/ytverify/internal/util"
)

// DefaultTemperature keeps fact-checking output focused
const DefaultTemperature = 0.3

var (
	// ErrMissingAPIKey is returned when a hosted provider has no credential
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("empty response from model")
)

// Provider defines the interface for generative-text providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate sends one prompt and returns the completion. No retries.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for one completion
type GenerateRequest struct {
	// Prompt is the user message
	Prompt string

	// System is an optional system instruction
	System string

	// Model overrides the configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature; zero means DefaultTemperature
	Temperature float64
}

// GenerateResponse contains the model output
type GenerateResponse struct {
	// Text is the generated completion, trimmed
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "gemini", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "gemini",
		Model:     defaultGeminiModel,
		Timeout:   60,
		MaxTokens: 2048,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return fallback
}

func (c Config) newHTTPClient(fallback time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(c.HTTPProxy, c.HTTPSProxy, c.NoProxy)
	return &http.Client{
		Timeout:   c.timeout(fallback),
		Transport: transport,
	}
}

// resolve fills request defaults from the provider config
func (c Config) resolve(req GenerateRequest, defaultModel string) (model string, maxTokens int, temperature float64) {
	model = req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = defaultModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	temperature = req.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	return model, maxTokens, temperature
}

// Reason describes a Generate failure without leaking provider response text
func Reason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "the language model timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, ErrEmptyResponse):
		return "empty response"
	case errors.Is(err, ErrMissingAPIKey):
		return "API key not configured"
	default:
		return "the language model request failed"
	}
}
