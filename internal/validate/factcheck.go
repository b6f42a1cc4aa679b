// Package validate asks the model to judge extracted claims.
package validate

import (
	"context"
	"strings"

	"github.com/ppiankov/ytverify/internal/llm"
	"github.com/ppiankov/ytverify/internal/model"
)

// FactChecker labels each claim TRUE, FALSE or PARTIALLY TRUE with an
// explanation and a confidence level
type FactChecker struct {
	provider  llm.Provider
	maxTokens int
}

// NewFactChecker creates a new fact checker
func NewFactChecker(provider llm.Provider, maxTokens int) *FactChecker {
	return &FactChecker{provider: provider, maxTokens: maxTokens}
}

// Check makes exactly one model call over the claim set
func (c *FactChecker) Check(ctx context.Context, claims model.ClaimSet) (model.VerificationReport, error) {
	const op = "fact-check claims"

	if c.provider == nil {
		return "", model.NewFailure(model.ConfigurationError, op, "Gemini API key not configured", nil)
	}
	if strings.TrimSpace(string(claims)) == "" {
		return "", model.NewFailure(model.FactCheckFailed, op, "Error fact-checking claims: no claims to check", nil)
	}

	resp, err := c.provider.Generate(ctx, llm.GenerateRequest{
		Prompt:    llm.FactCheckPrompt(string(claims)),
		System:    llm.FactCheckSystem,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", model.NewFailure(model.FactCheckFailed, op, "Error fact-checking claims: "+llm.Reason(err), err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", model.NewFailure(model.FactCheckFailed, op, "Error fact-checking claims: empty response", llm.ErrEmptyResponse)
	}
	return model.VerificationReport(text), nil
}
