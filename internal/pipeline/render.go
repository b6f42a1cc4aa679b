package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/ytverify/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════════"

// Renderer writes check results to files and terminals
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer. The footer is a one-line disclaimer in Markdown output.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes v as indented JSON to path, creating parent directories
func (r *Renderer) RenderJSON(v any, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteJSON(f, v); err != nil {
		return err
	}
	return f.Close()
}

// WriteJSON encodes v as indented JSON without HTML escaping
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder
	res := report.Result

	fmt.Fprintf(&b, "# Fact check: %s\n\n", res.VideoTitle)
	fmt.Fprintf(&b, "- Video: %s\n", res.VideoURL)
	fmt.Fprintf(&b, "- Transcript length: %d characters\n", res.TranscriptLength)
	if report.Strategy != "" {
		fmt.Fprintf(&b, "- Caption strategy: %s (%d attempts)\n", report.Strategy, len(report.Attempts))
	}
	fmt.Fprintf(&b, "- Checked: %s\n\n", report.CheckedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Claims\n\n")
	b.WriteString(strings.TrimSpace(string(res.Claims)))
	b.WriteString("\n\n## Fact check\n\n")
	b.WriteString(strings.TrimSpace(string(res.FactCheckResults)))
	b.WriteString("\n")

	if report.Tally.Total > 0 {
		b.WriteString("\n## Tally\n\n| Status | Count |\n|---|---|\n")
		fmt.Fprintf(&b, "| True | %d |\n| Partially true | %d |\n| False | %d |\n| Unknown | %d |\n",
			report.Tally.True, report.Tally.Partial, report.Tally.False, report.Tally.Unknown)
	}

	if r.includeFooter {
		b.WriteString("\n---\n_Verdicts are generated by a language model and may be wrong. Verify important claims independently._\n")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a short terminal summary of a check
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	res := report.Result

	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "  %s\n", res.VideoTitle)
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "Video:      %s\n", res.VideoURL)
	fmt.Fprintf(w, "Transcript: %d characters\n", res.TranscriptLength)
	if report.Strategy != "" {
		fmt.Fprintf(w, "Captions:   %s strategy, %d attempt(s)\n", report.Strategy, len(report.Attempts))
	}
	fmt.Fprintln(w)

	if report.Tally.Total == 0 {
		fmt.Fprintln(w, strings.TrimSpace(string(res.FactCheckResults)))
		fmt.Fprintln(w)
		return
	}

	for i, v := range report.Verdicts {
		mark := "?"
		switch v.Status {
		case model.VerdictTrue:
			mark = "✓"
		case model.VerdictFalse:
			mark = "✗"
		case model.VerdictPartial:
			mark = "~"
		}
		claim := v.Claim
		if claim == "" {
			claim = fmt.Sprintf("Claim %d", i+1)
		}
		fmt.Fprintf(w, "%s %s\n", mark, claim)
		line := string(v.Status)
		if v.Confidence != "" {
			line += ", confidence " + v.Confidence
		}
		fmt.Fprintf(w, "    %s\n", line)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d | True: %d | Partially true: %d | False: %d | Unknown: %d\n",
		report.Tally.Total, report.Tally.True, report.Tally.Partial, report.Tally.False, report.Tally.Unknown)
	fmt.Fprintln(w)
}

// RenderAnalysisSummary prints the structured-mode summary with false claims listed first
func (r *Renderer) RenderAnalysisSummary(w io.Writer, res *AnalysisResult) {
	a := res.Analysis

	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "  FACT CHECK SUMMARY")
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "Video:        %s\n", res.VideoTitle)
	fmt.Fprintf(w, "Total claims: %d\n", a.Summary.TotalClaims)
	fmt.Fprintf(w, "True:         %d\n", a.Summary.TrueCount)
	fmt.Fprintf(w, "False:        %d\n", a.Summary.FalseCount)
	fmt.Fprintf(w, "Unknown:      %d\n", a.Summary.UnknownCount)
	if a.Summary.VideoLengthAnalyzed != "" {
		fmt.Fprintf(w, "Analyzed:     %ss\n", a.Summary.VideoLengthAnalyzed)
	}
	fmt.Fprintln(w)

	falseClaims := a.FalseClaims()
	if len(falseClaims) == 0 {
		fmt.Fprintln(w, "✓ No false claims detected")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "✗ FALSE CLAIMS DETECTED:")
	for _, c := range falseClaims {
		fmt.Fprintf(w, "\n  [%ss] %s\n", c.Timestamp, c.Text)
		if c.Explanation != "" {
			fmt.Fprintf(w, "    %s\n", c.Explanation)
		}
		if c.Confidence != "" {
			fmt.Fprintf(w, "    Confidence: %s\n", c.Confidence)
		}
	}
	fmt.Fprintln(w)
}
