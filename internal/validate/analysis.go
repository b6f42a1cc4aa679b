package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/ytverify/internal/llm"
	"github.com/ppiankov/ytverify/internal/model"
)

// Analyzer runs the structured mode: one prompt over the timestamped
// transcript that returns claims and verdicts as JSON
type Analyzer struct {
	provider  llm.Provider
	maxTokens int
}

// NewAnalyzer creates a structured analyzer
func NewAnalyzer(provider llm.Provider, maxTokens int) *Analyzer {
	return &Analyzer{provider: provider, maxTokens: maxTokens}
}

// Analyze sends the timestamped transcript and decodes the JSON answer.
// Summary counters are recomputed from the claims list.
func (a *Analyzer) Analyze(ctx context.Context, title, timestamped string) (*model.Analysis, error) {
	const op = "analyze transcript"

	if a.provider == nil {
		return nil, model.NewFailure(model.ConfigurationError, op, "Gemini API key not configured", nil)
	}

	resp, err := a.provider.Generate(ctx, llm.GenerateRequest{
		Prompt:    llm.AnalysisPrompt(title, timestamped),
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, model.NewFailure(model.FactCheckFailed, op, "Error analyzing transcript: "+llm.Reason(err), err)
	}

	analysis, err := ParseAnalysis(resp.Text)
	if err != nil {
		return nil, model.NewFailure(model.FactCheckFailed, op, "Error analyzing transcript: model returned invalid JSON", err)
	}

	reported := analysis.Summary.VideoLengthAnalyzed
	analysis.Recount()
	analysis.Summary.VideoLengthAnalyzed = reported
	return analysis, nil
}

// ParseAnalysis decodes a model answer, tolerating markdown code fences
// and prose around the JSON object
func ParseAnalysis(text string) (*model.Analysis, error) {
	body := stripFences(text)

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		start := strings.IndexByte(body, '{')
		end := strings.LastIndexByte(body, '}')
		if start < 0 || end <= start {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		if err2 := json.Unmarshal([]byte(body[start:end+1]), &analysis); err2 != nil {
			return nil, fmt.Errorf("decode analysis: %w", err2)
		}
	}
	return &analysis, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
