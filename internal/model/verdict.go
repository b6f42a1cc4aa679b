package model

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// VerdictStatus is the normalized label assigned to a checked claim
type VerdictStatus string

const (
	VerdictTrue    VerdictStatus = "TRUE"
	VerdictFalse   VerdictStatus = "FALSE"
	VerdictPartial VerdictStatus = "PARTIALLY TRUE"
	VerdictUnknown VerdictStatus = "UNKNOWN"
)

// Verdict is one claim's entry recovered from a VerificationReport
type Verdict struct {
	Claim       string        `json:"claim,omitempty"`
	Status      VerdictStatus `json:"status"`
	Explanation string        `json:"explanation,omitempty"`
	Confidence  string        `json:"confidence,omitempty"` // High, Medium or Low as written by the model
}

// VerdictTally counts verdicts by status
type VerdictTally struct {
	Total   int `json:"total"`
	True    int `json:"true"`
	False   int `json:"false"`
	Partial int `json:"partial"`
	Unknown int `json:"unknown"`
}

var (
	numberedLineRe = regexp.MustCompile(`^\s*(?:claim\s*)?(\d+)[.):]\s*(.*)$`)
	statusLineRe   = regexp.MustCompile(`(?i)^\s*[-•]?\s*(?:status|verdict|assessment)\s*:\s*\[?\s*(partially true|mostly true|misleading|true|false|unverifiable|unknown)`)
	explainLineRe  = regexp.MustCompile(`(?i)^\s*[-•]?\s*(?:explanation|reasoning)\s*:\s*(.*)$`)
	confLineRe     = regexp.MustCompile(`(?i)^\s*[-•]?\s*confidence\s*:\s*\[?\s*([a-z]+)\s*\]?.*$`)
	claimLabelRe   = regexp.MustCompile(`(?i)^\s*claim\s*:\s*`)
)

// ParseVerdicts recovers per-claim verdicts from free-text fact-check output.
// The report follows the Status / Explanation / Confidence prompt convention;
// lines that fit none of it are ignored.
func ParseVerdicts(report string) []Verdict {
	var (
		verdicts  []Verdict
		lastClaim string
		current   *Verdict
	)

	flush := func() {
		if current != nil {
			verdicts = append(verdicts, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(report, "\n") {
		line := strings.TrimSpace(strings.ReplaceAll(raw, "*", ""))
		if line == "" {
			continue
		}

		if m := statusLineRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &Verdict{Claim: lastClaim, Status: normalizeStatus(m[1])}
			lastClaim = ""
			continue
		}
		if m := explainLineRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				current.Explanation = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := confLineRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				current.Confidence = capitalize(m[1])
			}
			continue
		}
		if m := numberedLineRe.FindStringSubmatch(line); m != nil {
			flush()
			lastClaim = strings.TrimSpace(claimLabelRe.ReplaceAllString(m[2], ""))
			continue
		}
		if claimLabelRe.MatchString(line) {
			lastClaim = strings.TrimSpace(claimLabelRe.ReplaceAllString(line, ""))
		}
	}
	flush()

	return verdicts
}

// TallyVerdicts counts verdicts by status
func TallyVerdicts(verdicts []Verdict) VerdictTally {
	tally := VerdictTally{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.Status {
		case VerdictTrue:
			tally.True++
		case VerdictFalse:
			tally.False++
		case VerdictPartial:
			tally.Partial++
		default:
			tally.Unknown++
		}
	}
	return tally
}

func normalizeStatus(s string) VerdictStatus {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "PARTIALLY"), strings.HasPrefix(s, "MISLEADING"), strings.HasPrefix(s, "MOSTLY"):
		return VerdictPartial
	case strings.HasPrefix(s, "TRUE"):
		return VerdictTrue
	case strings.HasPrefix(s, "FALSE"):
		return VerdictFalse
	default:
		return VerdictUnknown
	}
}

func capitalize(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Analysis is the structured single-prompt result: claims with timestamps
// and a summary, decoded from the model's JSON answer.
type Analysis struct {
	Claims  []AnalyzedClaim `json:"claims"`
	Summary AnalysisSummary `json:"summary"`
}

// AnalyzedClaim is one entry of a structured analysis
type AnalyzedClaim struct {
	Text               string     `json:"text"`
	Timestamp          FlexString `json:"timestamp"`           // Start time in seconds
	VerificationStatus string     `json:"verification_status"` // TRUE, FALSE or UNKNOWN
	Confidence         string     `json:"confidence"`          // HIGH, MEDIUM, LOW or UNKNOWN
	Explanation        string     `json:"explanation"`
}

// AnalysisSummary aggregates a structured analysis
type AnalysisSummary struct {
	TotalClaims         FlexInt    `json:"total_claims"`
	TrueCount           FlexInt    `json:"true_count"`
	FalseCount          FlexInt    `json:"false_count"`
	UnknownCount        FlexInt    `json:"unknown_count"`
	VideoLengthAnalyzed FlexString `json:"video_length_analyzed,omitempty"`
}

// Recount rebuilds the summary counters from the claims list
func (a *Analysis) Recount() {
	a.Summary.TotalClaims = FlexInt(len(a.Claims))
	a.Summary.TrueCount, a.Summary.FalseCount, a.Summary.UnknownCount = 0, 0, 0
	for _, c := range a.Claims {
		switch normalizeStatus(c.VerificationStatus) {
		case VerdictTrue:
			a.Summary.TrueCount++
		case VerdictFalse:
			a.Summary.FalseCount++
		default:
			a.Summary.UnknownCount++
		}
	}
}

// FalseClaims returns the claims labelled FALSE
func (a *Analysis) FalseClaims() []AnalyzedClaim {
	var out []AnalyzedClaim
	for _, c := range a.Claims {
		if normalizeStatus(c.VerificationStatus) == VerdictFalse {
			out = append(out, c)
		}
	}
	return out
}

// FlexInt decodes integers that models sometimes emit as strings
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = FlexInt(f)
	return nil
}

// FlexString decodes a value that may be a JSON string or number
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(data)
	return nil
}
