package model

import "time"

// PipelineResult is the successful outcome of one check request.
// Failures are reported as *Failure errors instead.
type PipelineResult struct {
	Success          bool               `json:"success"`
	VideoTitle       string             `json:"video_title"`
	VideoURL         string             `json:"video_url"`
	TranscriptLength int                `json:"transcript_length"`
	Claims           ClaimSet           `json:"claims"`
	FactCheckResults VerificationReport `json:"fact_check_results"`

	// Diagnostics kept out of the HTTP contract
	VideoID   string             `json:"-"`
	Strategy  string             `json:"-"`
	Attempts  []RetrievalAttempt `json:"-"`
	CheckedAt time.Time          `json:"-"`
}

// Report is the on-disk form of a check, written by the CLI
type Report struct {
	VideoID    string             `json:"video_id"`
	CheckedAt  time.Time          `json:"checked_at"`
	Strategy   string             `json:"strategy,omitempty"`
	Attempts   []RetrievalAttempt `json:"attempts,omitempty"`
	Result     *PipelineResult    `json:"result"`
	Verdicts   []Verdict          `json:"verdicts,omitempty"`
	Tally      VerdictTally       `json:"tally"`
	Structured *Analysis          `json:"structured,omitempty"`
}

// NewReport assembles the on-disk report for a successful check
func NewReport(result *PipelineResult) *Report {
	verdicts := ParseVerdicts(string(result.FactCheckResults))
	return &Report{
		VideoID:   result.VideoID,
		CheckedAt: result.CheckedAt,
		Strategy:  result.Strategy,
		Attempts:  result.Attempts,
		Result:    result,
		Verdicts:  verdicts,
		Tally:     TallyVerdicts(verdicts),
	}
}
