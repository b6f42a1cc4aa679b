// Package captions retrieves caption tracks for a video through a
// catalogue of client strategies, retrying and falling back on failure.
package captions

import (
	"context"
	"fmt"

	"github.com/ppiankov/ytverify/internal/model"
)

// Source performs exactly one caption retrieval attempt per Fetch call.
// Implementations must release any staging they create before returning.
type Source interface {
	// Name identifies the backend in logs and health output
	Name() string

	// Fetch retrieves the title and raw caption payload using the given strategy
	Fetch(ctx context.Context, ref model.VideoReference, strategy Strategy, languages []string) (*Captions, error)
}

// Captions is the payload of a successful attempt
type Captions struct {
	Title    string              // Empty when the source reported none
	Raw      string              // Caption text in its transport format
	Format   model.CaptionFormat // Transport format of Raw
	Language string              // Language code of the track, when known
}

// RetrievalError is a failure already classified by the source
type RetrievalError struct {
	Kind   model.AttemptKind
	Reason string
	Err    error
}

func (e *RetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func classified(kind model.AttemptKind, reason string, err error) error {
	return &RetrievalError{Kind: kind, Reason: reason, Err: err}
}

// preferredLanguages drops the "auto" pseudo-language and applies a default
func preferredLanguages(languages []string) []string {
	out := make([]string, 0, len(languages))
	seen := make(map[string]bool)
	for _, lang := range languages {
		if lang == "" || lang == "auto" || seen[lang] {
			continue
		}
		seen[lang] = true
		out = append(out, lang)
	}
	if len(out) == 0 {
		out = append(out, "en")
	}
	return out
}
