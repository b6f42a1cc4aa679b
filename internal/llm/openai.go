package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAIProvider implements the Provider interface for OpenAI Chat Completions
// and any endpoint that speaks the same protocol
type OpenAIProvider struct {
	client       *openai.Client
	config       Config
	name         string
	defaultModel string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI: %w", ErrMissingAPIKey)
	}
	return newChatProvider("openai", config, "", openai.GPT4oMini), nil
}

func newChatProvider(name string, config Config, defaultBaseURL, defaultModel string) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	switch {
	case config.BaseURL != "":
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	case defaultBaseURL != "":
		clientConfig.BaseURL = defaultBaseURL
	}
	clientConfig.HTTPClient = config.newHTTPClient(0)

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(clientConfig),
		config:       config,
		name:         name,
		defaultModel: defaultModel,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Listing models is the lightest authenticated call
	_, err := p.client.ListModels(ctx)
	if err != nil {
		logrus.WithError(err).WithField("provider", p.name).Warn("LLM availability check failed")
		return false
	}
	return true
}

// Generate sends one chat completion request
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model, maxTokens, temperature := p.config.resolve(req, p.defaultModel)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout(30*time.Second))
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}

	usedModel := resp.Model
	if usedModel == "" {
		usedModel = model
	}

	return &GenerateResponse{
		Text:       text,
		Model:      usedModel,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
