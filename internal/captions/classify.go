package captions

import (
	"errors"
	"strings"

	"github.com/ppiankov/ytverify/internal/model"
)

// Marker phrases matched case-insensitively against failure messages.
// Tables are checked in the order bot, permanent, no-captions, transient.
var (
	BotMarkers = []string{
		"sign in to confirm",
		"not a bot",
		"confirm you're not a bot",
		"captcha",
		"unusual traffic",
		"http error 429",
		"too many requests",
		"login_required",
		"requires a po token",
	}

	PermanentMarkers = []string{
		"video unavailable",
		"this video is unavailable",
		"private video",
		"this video has been removed",
		"is not a valid url",
		"unsupported url",
		"members-only",
		"join this channel",
		"http error 404",
		"http error 410",
	}

	NoCaptionMarkers = []string{
		"there are no subtitles",
		"no subtitles",
		"no captions",
		"no caption tracks",
		"subtitles are disabled",
		"transcripts are disabled",
	}

	TransientMarkers = []string{
		"timed out",
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure in name resolution",
		"http error 500",
		"http error 502",
		"http error 503",
		"http error 504",
		"incomplete read",
		"eof",
	}
)

// Classify maps a raw retrieval error to an attempt outcome kind.
// Errors already classified by a source keep their kind. Network errors,
// timeouts and anything unrecognized are transient.
func Classify(err error) model.AttemptKind {
	if err == nil {
		return model.AttemptSuccess
	}

	var re *RetrievalError
	if errors.As(err, &re) {
		return re.Kind
	}

	if kind, ok := ClassifyMessage(err.Error()); ok {
		return kind
	}

	return model.AttemptTransient
}

// ClassifyMessage matches msg against the marker tables
func ClassifyMessage(msg string) (model.AttemptKind, bool) {
	lower := strings.ToLower(strings.ReplaceAll(msg, "’", "'"))

	tables := []struct {
		kind    model.AttemptKind
		markers []string
	}{
		{model.AttemptBotDetected, BotMarkers},
		{model.AttemptPermanent, PermanentMarkers},
		{model.AttemptNoCaptions, NoCaptionMarkers},
		{model.AttemptTransient, TransientMarkers},
	}

	for _, table := range tables {
		for _, marker := range table.markers {
			if strings.Contains(lower, marker) {
				return table.kind, true
			}
		}
	}
	return "", false
}
