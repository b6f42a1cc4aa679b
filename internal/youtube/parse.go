// Package youtube turns user-supplied video URLs into validated video references.
package youtube

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/ytverify/internal/model"
)

// IDLength is the fixed length of a video identifier
const IDLength = 11

var idRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var (
	watchHosts = map[string]bool{
		"youtube.com":              true,
		"www.youtube.com":          true,
		"m.youtube.com":            true,
		"music.youtube.com":        true,
		"youtube-nocookie.com":     true,
		"www.youtube-nocookie.com": true,
	}
	shortHosts = map[string]bool{
		"youtu.be":     true,
		"www.youtu.be": true,
	}
)

// pathPatterns are tried in order after the ?v= query parameter
var pathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/embed/([^/?#]+)`),
	regexp.MustCompile(`^/v/([^/?#]+)`),
	regexp.MustCompile(`^/shorts/([^/?#]+)`),
	regexp.MustCompile(`^/live/([^/?#]+)`),
}

// ValidID reports whether id has the shape of a video identifier
func ValidID(id string) bool {
	return idRe.MatchString(id)
}

// WatchURL returns the canonical watch page URL for id
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Parse extracts a VideoReference from rawURL.
//
// Recognized shapes, first match wins: watch?v=ID, youtu.be/ID, /embed/ID,
// /v/ID, /shorts/ID, /live/ID. When none match, a naive split on "v=" and
// "&" is attempted. The identifier must be 11 characters of [A-Za-z0-9_-].
func Parse(rawURL string) (model.VideoReference, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return model.VideoReference{}, invalid("Video URL is required")
	}

	if id, ok := structuredID(trimmed); ok {
		return model.VideoReference{ID: id, URL: trimmed}, nil
	}

	if id, ok := naiveID(trimmed); ok {
		return model.VideoReference{ID: id, URL: trimmed}, nil
	}

	return model.VideoReference{}, invalid("Invalid YouTube URL")
}

func structuredID(raw string) (string, bool) {
	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())

	switch {
	case watchHosts[host]:
		if v := u.Query().Get("v"); v != "" {
			if ValidID(v) {
				return v, true
			}
			return "", false
		}
		for _, re := range pathPatterns {
			if m := re.FindStringSubmatch(u.Path); m != nil {
				if ValidID(m[1]) {
					return m[1], true
				}
				return "", false
			}
		}
	case shortHosts[host]:
		segment := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
		if ValidID(segment) {
			return segment, true
		}
	}

	return "", false
}

func naiveID(raw string) (string, bool) {
	idx := strings.LastIndex(raw, "v=")
	if idx < 0 {
		return "", false
	}
	id := raw[idx+len("v="):]
	if cut := strings.IndexAny(id, "&#"); cut >= 0 {
		id = id[:cut]
	}
	if !ValidID(id) {
		return "", false
	}
	return id, true
}

func invalid(msg string) error {
	return model.NewFailure(model.InvalidInput, "parse url", msg, nil)
}
