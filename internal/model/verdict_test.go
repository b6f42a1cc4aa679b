package model

import (
	"encoding/json"
	"testing"
)

const sampleReport = `**1. The Eiffel Tower was completed in 1889.**
- **Status:** TRUE
- **Explanation:** It opened for the 1889 World's Fair.
- **Confidence:** High

2. The Great Wall is visible from the Moon with the naked eye.
- Status: FALSE
- Explanation: Astronauts have repeatedly said it is not.
- Confidence: High

3. Coffee is the second most traded commodity.
- Status: [PARTIALLY TRUE/MISLEADING]
- Explanation: A common myth; it is a major commodity but not second.
- Confidence: Medium
`

func TestParseVerdicts(t *testing.T) {
	verdicts := ParseVerdicts(sampleReport)
	if len(verdicts) != 3 {
		t.Fatalf("Expected 3 verdicts, got %d: %+v", len(verdicts), verdicts)
	}

	want := []VerdictStatus{VerdictTrue, VerdictFalse, VerdictPartial}
	for i, v := range verdicts {
		if v.Status != want[i] {
			t.Errorf("verdict %d: expected %s, got %s", i, want[i], v.Status)
		}
	}

	if verdicts[0].Claim != "The Eiffel Tower was completed in 1889." {
		t.Errorf("Unexpected claim text: %q", verdicts[0].Claim)
	}
	if verdicts[1].Confidence != "High" {
		t.Errorf("Expected High confidence, got %q", verdicts[1].Confidence)
	}
	if verdicts[2].Confidence != "Medium" {
		t.Errorf("Expected Medium confidence, got %q", verdicts[2].Confidence)
	}
	if verdicts[1].Explanation == "" {
		t.Error("Expected explanation to be captured")
	}

	tally := TallyVerdicts(verdicts)
	if tally.Total != 3 || tally.True != 1 || tally.False != 1 || tally.Partial != 1 || tally.Unknown != 0 {
		t.Errorf("Unexpected tally: %+v", tally)
	}
}

func TestParseVerdicts_NoStructure(t *testing.T) {
	if got := ParseVerdicts("I could not verify these claims."); len(got) != 0 {
		t.Errorf("Expected no verdicts, got %+v", got)
	}
}

func TestAnalysis_DecodeLooseTypes(t *testing.T) {
	raw := `{
		"claims": [
			{"text": "Water boils at 100C at sea level", "timestamp": 12.5, "verification_status": "TRUE", "confidence": "HIGH", "explanation": "Standard pressure."},
			{"text": "The moon is made of cheese", "timestamp": "40.0", "verification_status": "FALSE", "confidence": "HIGH", "explanation": "It is rock."}
		],
		"summary": {"total_claims": "5", "true_count": 1, "false_count": "1", "unknown_count": 0, "video_length_analyzed": 120}
	}`

	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if a.Claims[0].Timestamp != "12.5" {
		t.Errorf("Expected numeric timestamp kept as text, got %q", a.Claims[0].Timestamp)
	}
	if a.Summary.TotalClaims != 5 {
		t.Errorf("Expected quoted count to decode, got %d", a.Summary.TotalClaims)
	}

	a.Recount()
	if a.Summary.TotalClaims != 2 || a.Summary.TrueCount != 1 || a.Summary.FalseCount != 1 {
		t.Errorf("Unexpected recount: %+v", a.Summary)
	}
	if got := a.FalseClaims(); len(got) != 1 || got[0].Text != "The moon is made of cheese" {
		t.Errorf("Unexpected false claims: %+v", got)
	}
}
