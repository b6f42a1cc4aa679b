package model

import "time"

// VideoReference identifies a single video and the URL it was parsed from
type VideoReference struct {
	ID  string `json:"video_id"`  // 11-character video identifier
	URL string `json:"video_url"` // Original URL as supplied by the caller
}

// CaptionFormat tags the serialization of raw caption text
type CaptionFormat string

const (
	FormatSRT       CaptionFormat = "srt"       // Numbered timecode blocks
	FormatVTT       CaptionFormat = "vtt"       // WebVTT cues with header lines
	FormatTimedText CaptionFormat = "timedtext" // YouTube srv1 XML
	FormatPlain     CaptionFormat = "plain"     // Already plain text
)

// AttemptKind classifies the outcome of one retrieval attempt
type AttemptKind string

const (
	AttemptSuccess      AttemptKind = "success"
	AttemptTransient    AttemptKind = "transient"
	AttemptBotDetected  AttemptKind = "bot_detected"
	AttemptNoCaptions   AttemptKind = "no_captions"
	AttemptPermanent    AttemptKind = "permanent"
	AttemptInsufficient AttemptKind = "insufficient_content"

	// AttemptEmpty means this client identity got no caption track. Another
	// client may still get one, so it is retryable.
	AttemptEmpty AttemptKind = "empty"
)

// Retryable reports whether the controller may try another strategy after this outcome
func (k AttemptKind) Retryable() bool {
	switch k {
	case AttemptTransient, AttemptBotDetected, AttemptInsufficient, AttemptEmpty:
		return true
	default:
		return false
	}
}

// RetrievalAttempt records one strategy attempt against the caption source
type RetrievalAttempt struct {
	Index     int           `json:"index"`            // 0-based attempt number
	Strategy  string        `json:"strategy"`         // Strategy name from the catalogue
	StartedAt time.Time     `json:"started_at"`       // When the attempt began
	Duration  time.Duration `json:"duration"`         // Wall time of the attempt
	Kind      AttemptKind   `json:"kind"`             // Outcome classification
	Reason    string        `json:"reason,omitempty"` // Failure reason (empty on success)
	Format    CaptionFormat `json:"format,omitempty"` // Format of the payload on success
}
