package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ppiankov/ytverify/internal/llm"
	"github.com/ppiankov/ytverify/internal/model"
)

type stubProvider struct {
	text    string
	err     error
	prompts []string
}

func (s *stubProvider) Name() string                         { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *stubProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	s.prompts = append(s.prompts, req.Prompt)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.GenerateResponse{Text: s.text, Model: "stub"}, nil
}

func TestClaimExtractor_Extract(t *testing.T) {
	provider := &stubProvider{text: "1. The Earth is flat.\n2. Water boils at 100C."}
	extractor := NewClaimExtractor(provider, 0, 0)

	transcript := model.Transcript{Title: "Test Video", Text: strings.Repeat("word ", 2000)}
	claims, err := extractor.Extract(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if claims != "1. The Earth is flat.\n2. Water boils at 100C." {
		t.Errorf("Expected model text verbatim, got %q", claims)
	}
	if len(provider.prompts) != 1 {
		t.Fatalf("Expected exactly one model call, got %d", len(provider.prompts))
	}

	prompt := provider.prompts[0]
	if !strings.Contains(prompt, "Video Title: Test Video") {
		t.Error("Expected title in prompt")
	}
	if strings.Count(prompt, "word") > DefaultClaimBudget/5 {
		t.Errorf("Expected transcript truncated to budget, got %d words", strings.Count(prompt, "word"))
	}
}

func TestClaimExtractor_UnknownTitle(t *testing.T) {
	provider := &stubProvider{text: "1. claim"}
	extractor := NewClaimExtractor(provider, 100, 0)

	if _, err := extractor.Extract(context.Background(), model.Transcript{Text: "some text"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(provider.prompts[0], "Video Title: Unknown Video") {
		t.Error("Expected placeholder title in prompt")
	}
}

func TestClaimExtractor_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider
	}{
		{"service error", &stubProvider{err: errors.New("quota exceeded: key abc123")}},
		{"timeout", &stubProvider{err: context.DeadlineExceeded}},
		{"blank output", &stubProvider{text: "  \n "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewClaimExtractor(tt.provider, 0, 0)
			_, err := extractor.Extract(context.Background(), model.Transcript{Text: "text"})
			if !model.IsKind(err, model.ExtractionFailed) {
				t.Fatalf("Expected ExtractionFailed, got %v", err)
			}
			if strings.Contains(model.AsFailure(err).PublicMessage(), "abc123") {
				t.Error("Expected raw service error to stay out of the public message")
			}
			if len(tt.provider.prompts) != 1 {
				t.Errorf("Expected a single attempt without retry, got %d", len(tt.provider.prompts))
			}
		})
	}
}

func TestClaimExtractor_NoProvider(t *testing.T) {
	extractor := NewClaimExtractor(nil, 0, 0)
	_, err := extractor.Extract(context.Background(), model.Transcript{Text: "text"})
	if !model.IsKind(err, model.ConfigurationError) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Expected unchanged text, got %q", got)
	}

	long := strings.Repeat("ünïcödé ", 100)
	got := Truncate(long, 50)
	if !utf8.ValidString(got) {
		t.Error("Expected valid UTF-8 after truncation")
	}
	if n := utf8.RuneCountInString(got); n > 50 {
		t.Errorf("Expected at most 50 runes, got %d", n)
	}

	if got := Truncate("abcdefghij", 4); got != "abcd" {
		t.Errorf("Expected hard cut without nearby space, got %q", got)
	}
}
