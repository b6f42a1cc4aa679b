package extract

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/ytverify/internal/captions"
	"github.com/ppiankov/ytverify/internal/model"
)

const sampleSRT = "1\r\n00:00:01,000 --> 00:00:04,000\r\n<i>The Great Wall</i> of China\r\nis visible from space.\r\n\r\n" +
	"2\r\n00:00:04,500 --> 00:00:08,000\r\nWater boils at 100 degrees &amp;amp; more.\r\n\r\n" +
	"3\r\n00:00:08,000 --> 00:00:10,000\r\n2024\r\nwas a leap year.\r\n"

const sampleVTT = `WEBVTT
Kind: captions
Language: en

NOTE this block
spans two lines

STYLE
::cue { color: white }

1
00:00:01.000 --> 00:00:03.000 align:start position:0%
the earth<00:00:01.500><c> orbits</c><c> the</c>

2
00:00:03.000 --> 00:00:05.000 align:start position:0%
the earth orbits the
the earth orbits the
sun once a year

00:05.000 --> 00:07.000
42
`

const sampleSrv1 = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="2.1">Vaccines cause autism</text>
<text start="2.6" dur="3">according to &amp;quot;some&amp;quot; people</text>
</transcript>`

const sampleSrv3 = `<?xml version="1.0" encoding="utf-8" ?>
<timedtext format="3"><body>
<p t="1200" d="2000"><s>The moon</s><s t="400"> is made of cheese</s></p>
<p t="3500" d="1000">and that is all</p>
</body></timedtext>`

var srtTimecode = regexp.MustCompile(`\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3}`)

func TestNormalize_SRT(t *testing.T) {
	got := Normalize(sampleSRT, model.FormatSRT)
	expected := "The Great Wall of China is visible from space. Water boils at 100 degrees & more. 2024 was a leap year."
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
	if srtTimecode.MatchString(got) {
		t.Errorf("Expected no timecodes in output, got %q", got)
	}
}

func TestNormalize_VTT(t *testing.T) {
	got := Normalize(sampleVTT, model.FormatVTT)
	expected := "the earth orbits the sun once a year"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
	for _, banned := range []string{"WEBVTT", "Kind:", "NOTE", "::cue", "-->", "42", "align:"} {
		if strings.Contains(got, banned) {
			t.Errorf("Expected %q to be dropped, got %q", banned, got)
		}
	}
}

func TestNormalize_TimedText(t *testing.T) {
	got := Normalize(sampleSrv1, model.FormatTimedText)
	expected := `Vaccines cause autism according to "some" people`
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	got = Normalize(sampleSrv3, "")
	expected = "The moon is made of cheese and that is all"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestNormalize_Plain(t *testing.T) {
	got := Normalize("  hello <b>world</b>\n\n &lt;tag&gt;  ok ", model.FormatPlain)
	if got != "hello world tag ok" {
		t.Errorf("Expected %q, got %q", "hello world tag ok", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []struct {
		name   string
		raw    string
		format model.CaptionFormat
	}{
		{"srt", sampleSRT, model.FormatSRT},
		{"vtt", sampleVTT, model.FormatVTT},
		{"srv1", sampleSrv1, model.FormatTimedText},
		{"srv3", sampleSrv3, model.FormatTimedText},
		{"plain", "a &amp;amp;lt; b >> c", model.FormatPlain},
		{"detected", sampleSRT, ""},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			once := Normalize(tt.raw, tt.format)
			twice := Normalize(once, tt.format)
			if once != twice {
				t.Errorf("Expected idempotent output\nonce:  %q\ntwice: %q", once, twice)
			}
			if plain := Normalize(once, model.FormatPlain); plain != once {
				t.Errorf("Expected clean text to be a fixed point, got %q", plain)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]model.CaptionFormat{
		sampleSRT:                   model.FormatSRT,
		sampleVTT:                   model.FormatVTT,
		sampleSrv1:                  model.FormatTimedText,
		"\ufeffWEBVTT\n\n":           model.FormatVTT,
		"just some text":            model.FormatPlain,
		"<transcript></transcript>": model.FormatTimedText,
	}
	for raw, want := range tests {
		if got := DetectFormat(raw); got != want {
			t.Errorf("DetectFormat(%.20q): expected %s, got %s", raw, want, got)
		}
	}
}

func TestNewTranscript(t *testing.T) {
	caps := &captions.Captions{Title: "  Test Video ", Raw: sampleSRT, Format: model.FormatSRT}
	tr, err := NewTranscript(caps, 50)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tr.Title != "Test Video" {
		t.Errorf("Expected trimmed title, got %q", tr.Title)
	}
	if tr.Length() != len([]rune(tr.Text)) {
		t.Errorf("Expected length in runes, got %d", tr.Length())
	}
}

func TestNewTranscript_Threshold(t *testing.T) {
	atLimit := &captions.Captions{Raw: strings.Repeat("ü", 50), Format: model.FormatPlain}
	if _, err := NewTranscript(atLimit, 50); !model.IsKind(err, model.InsufficientContent) {
		t.Errorf("Expected InsufficientContent for exactly 50 runes, got %v", err)
	}

	overLimit := &captions.Captions{Raw: strings.Repeat("ü", 51), Format: model.FormatPlain}
	tr, err := NewTranscript(overLimit, 50)
	if err != nil {
		t.Fatalf("Expected 51 runes to pass, got %v", err)
	}
	if tr.Length() != 51 {
		t.Errorf("Expected length 51, got %d", tr.Length())
	}
}

func TestNewTranscript_Insufficient(t *testing.T) {
	caps := &captions.Captions{Raw: "WEBVTT\n\n00:00.000 --> 00:01.000\nhi\n", Format: model.FormatVTT}
	tr, err := NewTranscript(caps, 50)
	if !model.IsKind(err, model.InsufficientContent) {
		t.Fatalf("Expected InsufficientContent, got %v", err)
	}
	if tr.Text != "hi" {
		t.Errorf("Expected partial text to be returned, got %q", tr.Text)
	}
	if tr.DisplayTitle() != model.UnknownTitle {
		t.Errorf("Expected placeholder title, got %q", tr.DisplayTitle())
	}
}

func TestParseCues(t *testing.T) {
	cues := ParseCues(sampleSRT, model.FormatSRT)
	if len(cues) != 3 {
		t.Fatalf("Expected 3 cues, got %d", len(cues))
	}
	if cues[1].Start != 4500*time.Millisecond {
		t.Errorf("Expected second cue at 4.5s, got %v", cues[1].Start)
	}
	if cues[2].Text != "2024 was a leap year." {
		t.Errorf("Expected digit text lines inside SRT cues to be kept, got %q", cues[2].Text)
	}

	cues = ParseCues(sampleVTT, model.FormatVTT)
	if len(cues) != 2 {
		t.Fatalf("Expected 2 VTT cues, got %d: %+v", len(cues), cues)
	}
	if cues[0].Text != "the earth orbits the" {
		t.Errorf("Expected inline timestamps stripped, got %q", cues[0].Text)
	}

	cues = ParseCues(sampleSrv3, model.FormatTimedText)
	if len(cues) != 2 || cues[0].Start != 1200*time.Millisecond {
		t.Errorf("Expected srv3 cues with millisecond offsets, got %+v", cues)
	}

	cues = ParseCues("plain words", model.FormatPlain)
	if len(cues) != 1 || cues[0].Start != 0 {
		t.Errorf("Expected a single cue at zero, got %+v", cues)
	}
}

func TestFormatTimestamped(t *testing.T) {
	cues := []Cue{
		{Start: 1500 * time.Millisecond, Text: "first"},
		{Start: 12300 * time.Millisecond, Text: "second"},
		{Start: 30 * time.Second, Text: "third"},
	}

	got := FormatTimestamped(cues, 0)
	expected := "[1.5s]: first\n[12.3s]: second\n[30.0s]: third"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}

	got = FormatTimestamped(cues, 25)
	if !strings.HasSuffix(got, "[TRANSCRIPT TRUNCATED AT 12.3s DUE TO LENGTH LIMIT]") {
		t.Errorf("Expected truncation marker, got %q", got)
	}
	if strings.Contains(got, "second") {
		t.Errorf("Expected second cue to be cut, got %q", got)
	}
}

func TestNormalize_VTTHeaderWordsInCueText(t *testing.T) {
	raw := `WEBVTT
Kind: captions

00:00:01.000 --> 00:00:03.000
NOTE that the dam was finished in 1936

NOTE editor comment
not spoken

00:00:03.000 --> 00:00:05.000
Language: the first thing a child learns
`
	got := Normalize(raw, model.FormatVTT)
	expected := "NOTE that the dam was finished in 1936 Language: the first thing a child learns"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}
