// Package extract turns raw captions into a transcript and asks the model
// for the transcript's checkable claims.
package extract

import (
	"context"
	"strings"

	"github.com/ppiankov/ytverify/internal/llm"
	"github.com/ppiankov/ytverify/internal/model"
)

// DefaultClaimBudget is the transcript prefix, in characters, sent for extraction
const DefaultClaimBudget = 4000

// ClaimExtractor asks the model for the key factual claims in a transcript
type ClaimExtractor struct {
	provider  llm.Provider
	budget    int
	maxTokens int
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(provider llm.Provider, budget, maxTokens int) *ClaimExtractor {
	if budget <= 0 {
		budget = DefaultClaimBudget
	}
	return &ClaimExtractor{
		provider:  provider,
		budget:    budget,
		maxTokens: maxTokens,
	}
}

// Extract makes exactly one model call and returns its text as the claim set
func (e *ClaimExtractor) Extract(ctx context.Context, t model.Transcript) (model.ClaimSet, error) {
	const op = "extract claims"

	if e.provider == nil {
		return "", model.NewFailure(model.ConfigurationError, op, "Gemini API key not configured", nil)
	}

	prompt := llm.ClaimPrompt(t.DisplayTitle(), Truncate(t.Text, e.budget))

	resp, err := e.provider.Generate(ctx, llm.GenerateRequest{
		Prompt:    prompt,
		System:    llm.FactCheckSystem,
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return "", model.NewFailure(model.ExtractionFailed, op, "Error extracting claims: "+llm.Reason(err), err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", model.NewFailure(model.ExtractionFailed, op, "Error extracting claims: empty response", llm.ErrEmptyResponse)
	}
	return model.ClaimSet(text), nil
}

// Truncate returns at most budget runes of text, cut at a word boundary when one is near
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}

	cut := string(runes[:budget])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)*9/10 {
		cut = cut[:i]
	}
	return cut
}
