package model

import "unicode/utf8"

// UnknownTitle is shown wherever a video title could not be retrieved
const UnknownTitle = "Unknown Video"

// Transcript is the normalized spoken content of a video
type Transcript struct {
	Title  string        `json:"title,omitempty"` // Empty when the source reported no title
	Text   string        `json:"text"`            // Clean prose, single-spaced
	Format CaptionFormat `json:"format"`          // Format the text was normalized from
}

// Length returns the transcript length in characters
func (t Transcript) Length() int {
	return utf8.RuneCountInString(t.Text)
}

// HasTitle reports whether the source supplied a title
func (t Transcript) HasTitle() bool {
	return t.Title != ""
}

// DisplayTitle returns the title or the placeholder when none was supplied
func (t Transcript) DisplayTitle() string {
	if t.Title == "" {
		return UnknownTitle
	}
	return t.Title
}

// ClaimSet is the numbered list of claims returned by the extraction stage
type ClaimSet string

// VerificationReport is the per-claim verdict text returned by the fact-check stage
type VerificationReport string
