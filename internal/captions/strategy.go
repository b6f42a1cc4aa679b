package captions

import (
	"maps"
	"time"

	"github.com/ppiankov/ytverify/internal/model"
)

// Strategy is one client configuration to try against a caption source
type Strategy struct {
	Name          string              // Label used in logs and attempt records
	Client        string              // Simulated player client: android, ios, web; empty for the source default
	Format        model.CaptionFormat // Preferred transport format
	UserAgent     string
	Headers       map[string]string
	SocketTimeout time.Duration // Per-socket timeout passed to the scraper, zero for its default
}

const (
	androidUA = "com.google.android.youtube/17.31.35 (Linux; U; Android 11) gzip"
	iosUA     = "com.google.ios.youtube/17.31.4 (iPhone14,3; U; CPU iOS 15_6 like Mac OS X)"
	chromeUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// DefaultCatalogue returns the built-in strategies, most likely to succeed first
func DefaultCatalogue() []Strategy {
	return []Strategy{
		{
			Name:      "android",
			Client:    "android",
			Format:    model.FormatVTT,
			UserAgent: androidUA,
			Headers: map[string]string{
				"Accept-Language": "en-US,en;q=0.9",
			},
		},
		{
			Name:      "ios",
			Client:    "ios",
			Format:    model.FormatVTT,
			UserAgent: iosUA,
		},
		{
			Name:      "web",
			Client:    "web",
			Format:    model.FormatSRT,
			UserAgent: chromeUA,
			Headers: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.5",
				"Referer":         "https://www.youtube.com/",
			},
		},
		{
			Name:          "basic",
			Format:        model.FormatSRT,
			SocketTimeout: 30 * time.Second,
		},
	}
}

// Selector walks a fixed strategy catalogue. It performs no I/O.
type Selector struct {
	catalogue []Strategy
}

// NewSelector creates a selector over catalogue, or the default catalogue when empty
func NewSelector(catalogue []Strategy) *Selector {
	if len(catalogue) == 0 {
		catalogue = DefaultCatalogue()
	}
	return &Selector{catalogue: catalogue}
}

// Len returns the number of strategies
func (s *Selector) Len() int {
	return len(s.catalogue)
}

// At returns a copy of strategy i, so callers cannot alter the catalogue
func (s *Selector) At(i int) Strategy {
	st := s.catalogue[i%len(s.catalogue)]
	st.Headers = maps.Clone(st.Headers)
	return st
}

// Next picks the strategy to try after prev failed with kind.
// After bot detection it skips ahead to the first strategy with a different
// client identity, so the following request does not look the same.
func (s *Selector) Next(prev int, kind model.AttemptKind) int {
	n := len(s.catalogue)
	prev %= n

	if kind == model.AttemptBotDetected {
		failed := s.catalogue[prev]
		for step := 1; step < n; step++ {
			j := (prev + step) % n
			if s.catalogue[j].Client != failed.Client || s.catalogue[j].UserAgent != failed.UserAgent {
				return j
			}
		}
	}

	return (prev + 1) % n
}
