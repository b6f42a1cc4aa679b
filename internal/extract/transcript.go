package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/ytverify/internal/captions"
	"github.com/ppiankov/ytverify/internal/model"
)

// DefaultMinTranscriptLength is the longest normalized transcript still too short to analyze
const DefaultMinTranscriptLength = 50

var (
	// Matches both SRT (00:00:01,000) and VTT (00:01.000) cue timings
	timecodeLine = regexp.MustCompile(`^\s*(?:\d{1,2}:)?\d{1,2}:\d{2}[.,]\d{1,3}\s*-->`)
	digitsOnly   = regexp.MustCompile(`^\s*\d+\s*$`)
	cueStart     = regexp.MustCompile(`^\s*(?:(\d{1,2}):)?(\d{1,2}):(\d{2})[.,](\d{1,3})\s*-->`)

	// VTT karaoke timing tags such as <00:00:01.500>
	inlineTimestamp = regexp.MustCompile(`<\d{1,2}:\d{2}(?::\d{2})?[.,]\d{1,3}>`)
)

// vttHeaders are line prefixes that carry no spoken text.
// NOTE, STYLE and REGION blocks run to the next blank line.
var (
	vttHeaders = []string{"WEBVTT", "NOTE", "STYLE", "REGION", "Kind:", "Language:"}
	vttBlocks  = []string{"NOTE", "STYLE", "REGION"}
)

// Normalize converts a raw caption payload into single-spaced prose.
// An empty format is detected from the payload.
func Normalize(raw string, format model.CaptionFormat) string {
	if format == "" {
		format = DetectFormat(raw)
	}

	switch format {
	case model.FormatSRT:
		return joinClean(srtLines(raw))
	case model.FormatVTT:
		return joinClean(dedupeConsecutive(vttLines(raw)))
	case model.FormatTimedText:
		cues, err := parseTimedText(raw)
		if err != nil {
			return stripMarkup(raw)
		}
		texts := make([]string, 0, len(cues))
		for _, c := range cues {
			texts = append(texts, c.Text)
		}
		return joinClean(texts)
	default:
		return stripMarkup(raw)
	}
}

// NewTranscript normalizes captions and rejects results of minLength runes or fewer
func NewTranscript(caps *captions.Captions, minLength int) (model.Transcript, error) {
	if minLength <= 0 {
		minLength = DefaultMinTranscriptLength
	}

	t := model.Transcript{
		Title:  strings.TrimSpace(caps.Title),
		Text:   Normalize(caps.Raw, caps.Format),
		Format: caps.Format,
	}

	if t.Length() <= minLength {
		return t, model.NewFailure(model.InsufficientContent, "normalize transcript",
			"Captions were found but contain too little text to analyze",
			fmt.Errorf("normalized transcript has %d characters, need more than %d", t.Length(), minLength))
	}
	return t, nil
}

// DetectFormat guesses the transport format of an unlabelled payload
func DetectFormat(raw string) model.CaptionFormat {
	trimmed := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	switch {
	case strings.HasPrefix(trimmed, "WEBVTT"):
		return model.FormatVTT
	case strings.HasPrefix(trimmed, "<?xml"), strings.HasPrefix(trimmed, "<transcript"), strings.HasPrefix(trimmed, "<timedtext"):
		return model.FormatTimedText
	case strings.Contains(trimmed, "-->"):
		return model.FormatSRT
	default:
		return model.FormatPlain
	}
}

// srtLines drops sequence numbers and timecode lines
func srtLines(raw string) []string {
	lines := splitLines(raw)
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if timecodeLine.MatchString(line) {
			continue
		}
		if digitsOnly.MatchString(line) && nextIsTimecode(lines, i) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func nextIsTimecode(lines []string, i int) bool {
	for j := i + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		return timecodeLine.MatchString(lines[j])
	}
	return false
}

// vttLines drops headers, note blocks, cue indices and timing lines.
// Header lines are only recognized before the first cue; after it only
// NOTE blocks are skipped, and only when they open a block.
func vttLines(raw string) []string {
	lines := splitLines(raw)
	out := make([]string, 0, len(lines))
	inBlock := false
	inCues := false
	blockStart := true
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			inBlock = false
			blockStart = true
			continue
		}
		atStart := blockStart
		blockStart = false
		if inBlock {
			continue
		}
		if strings.Contains(trimmed, "-->") {
			inCues = true
			continue
		}
		if !inCues && isVTTHeader(trimmed) {
			inBlock = isVTTBlock(trimmed)
			continue
		}
		if inCues && atStart && isNoteLine(trimmed) {
			inBlock = true
			continue
		}
		if digitsOnly.MatchString(trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// isNoteLine matches a WebVTT comment block opener: "NOTE" alone or followed by space
func isNoteLine(line string) bool {
	return line == "NOTE" || strings.HasPrefix(line, "NOTE ") || strings.HasPrefix(line, "NOTE\t")
}

func isVTTHeader(line string) bool {
	return hasAnyPrefix(line, vttHeaders)
}

func isVTTBlock(line string) bool {
	return hasAnyPrefix(line, vttBlocks)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// dedupeConsecutive removes lines repeated by rolling auto-captions
func dedupeConsecutive(lines []string) []string {
	out := make([]string, 0, len(lines))
	prev := ""
	for _, line := range lines {
		clean := stripMarkup(line)
		if clean == "" || clean == prev {
			continue
		}
		out = append(out, clean)
		prev = clean
	}
	return out
}

func splitLines(raw string) []string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.Split(strings.ReplaceAll(raw, "\r", "\n"), "\n")
}

func joinClean(parts []string) string {
	return stripMarkup(strings.Join(parts, " "))
}

// stripMarkup removes tags, decodes entities until stable, drops stray
// angle brackets and collapses whitespace. Its output is a fixed point.
func stripMarkup(s string) string {
	s = inlineTimestamp.ReplaceAllString(s, " ")

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.TextToken:
			b.WriteString(z.Token().Data)
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}

	text := b.String()
	for {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}

	text = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return ' '
		}
		return r
	}, text)

	return strings.Join(strings.Fields(text), " ")
}

// Cue is one timed caption segment
type Cue struct {
	Start time.Duration
	Text  string
}

// ParseCues extracts timed segments from SRT, VTT or timedtext payloads.
// Plain text yields a single cue at zero.
func ParseCues(raw string, format model.CaptionFormat) []Cue {
	if format == "" {
		format = DetectFormat(raw)
	}

	switch format {
	case model.FormatTimedText:
		cues, err := parseTimedText(raw)
		if err == nil {
			return cues
		}
	case model.FormatSRT, model.FormatVTT:
		return parseTimedLines(raw, format)
	}

	if text := stripMarkup(raw); text != "" {
		return []Cue{{Text: text}}
	}
	return nil
}

func parseTimedLines(raw string, format model.CaptionFormat) []Cue {
	var (
		cues    []Cue
		current *Cue
		buf     []string
		prev    string
	)

	flush := func() {
		if current == nil {
			return
		}
		text := stripMarkup(strings.Join(buf, " "))
		if text != "" && text != prev {
			current.Text = text
			cues = append(cues, *current)
			prev = text
		}
		current = nil
		buf = buf[:0]
	}

	for _, line := range splitLines(raw) {
		trimmed := strings.TrimSpace(line)
		if m := cueStart.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = &Cue{Start: cueOffset(m)}
			continue
		}
		if trimmed == "" {
			flush()
			continue
		}
		if current == nil {
			continue
		}
		if format == model.FormatVTT && digitsOnly.MatchString(trimmed) {
			continue
		}
		buf = append(buf, trimmed)
	}
	flush()
	return cues
}

func cueOffset(m []string) time.Duration {
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	frac := m[4]
	for len(frac) < 3 {
		frac += "0"
	}
	ms, _ := strconv.Atoi(frac)
	return time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(ms)*time.Millisecond
}

// parseTimedText reads srv1 (<text start="1.2">) and srv3 (<p t="1200">) documents
func parseTimedText(raw string) ([]Cue, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var (
		cues  []Cue
		depth int
		start time.Duration
		buf   strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if len(cues) > 0 {
				break
			}
			return nil, fmt.Errorf("parse timedtext: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
				continue
			}
			switch el.Name.Local {
			case "text":
				depth = 1
				start = secondsAttr(el.Attr, "start")
				buf.Reset()
			case "p":
				depth = 1
				start = millisAttr(el.Attr, "t")
				buf.Reset()
			}
		case xml.CharData:
			if depth > 0 {
				buf.Write(el)
			}
		case xml.EndElement:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				if text := stripMarkup(buf.String()); text != "" {
					cues = append(cues, Cue{Start: start, Text: text})
				}
			}
		}
	}

	if len(cues) == 0 && !strings.Contains(raw, "<text") && !strings.Contains(raw, "<p") {
		return nil, fmt.Errorf("parse timedtext: no text elements")
	}
	return cues, nil
}

func secondsAttr(attrs []xml.Attr, name string) time.Duration {
	for _, a := range attrs {
		if a.Name.Local == name {
			f, err := strconv.ParseFloat(a.Value, 64)
			if err == nil {
				return time.Duration(f * float64(time.Second))
			}
		}
	}
	return 0
}

func millisAttr(attrs []xml.Attr, name string) time.Duration {
	for _, a := range attrs {
		if a.Name.Local == name {
			n, err := strconv.ParseInt(a.Value, 10, 64)
			if err == nil {
				return time.Duration(n) * time.Millisecond
			}
		}
	}
	return 0
}

// TruncationMarker is appended when FormatTimestamped hits its limit
const TruncationMarker = "[TRANSCRIPT TRUNCATED AT %.1fs DUE TO LENGTH LIMIT]"

// FormatTimestamped renders cues as "[12.3s]: text" lines, stopping before maxLen characters
func FormatTimestamped(cues []Cue, maxLen int) string {
	var b strings.Builder
	for _, c := range cues {
		line := fmt.Sprintf("[%.1fs]: %s\n", c.Start.Seconds(), c.Text)
		if maxLen > 0 && b.Len()+len(line) > maxLen {
			fmt.Fprintf(&b, TruncationMarker+"\n", c.Start.Seconds())
			break
		}
		b.WriteString(line)
	}
	return strings.TrimRight(b.String(), "\n")
}
