package couples

import (
	"encoding/json"
	"strings"
	"testing"

	"blueprint-backend/internal/llm"
)

func TestDecodeAnalysisStripsFences(t *testing.T) {
	raw := "```json\n" + validAnalysisJSON + "\n```"
	analysis, err := decodeAnalysis(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decodeAnalysis: %v", err)
	}
	if analysis.Summary != "A strong pairing." {
		t.Fatalf("unexpected summary: %q", analysis.Summary)
	}
}

func TestDecodeAnalysisRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{not-json"},
		{name: "empty object", raw: "{}"},
		{name: "missing lists", raw: `{"summary":"s","compatibility":"c","closingPrompt":"p"}`},
		{name: "empty list entry", raw: `{
			"summary":"s","compatibility":"c","closingPrompt":"p",
			"partnerATips":[""],"partnerBTips":["x"],"exercises":["x"],"practices":["x"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeAnalysis(json.RawMessage(tt.raw)); err == nil {
				t.Fatalf("expected decode error")
			}
		})
	}
}

func TestFallbackAnalysisAlwaysComplete(t *testing.T) {
	a := llm.PartnerProfile{Name: "Alice", Primary: "sensual", Secondary: "energetic"}
	b := llm.PartnerProfile{Name: "Bob", Primary: "kinky"}

	analysis := fallbackAnalysis(a, b)
	if err := validateAnalysis(analysis); err != nil {
		t.Fatalf("fallback analysis failed its own validation: %v", err)
	}
	if !strings.Contains(analysis.Summary, "Alice") || !strings.Contains(analysis.Summary, "Bob") {
		t.Fatalf("expected partner names in summary: %q", analysis.Summary)
	}
	if !strings.Contains(analysis.Summary, "sensual") || !strings.Contains(analysis.Summary, "kinky") {
		t.Fatalf("expected blueprint labels in summary: %q", analysis.Summary)
	}
}

func TestFallbackAnalysisUnknownBlueprint(t *testing.T) {
	a := llm.PartnerProfile{Name: "Alice", Primary: "mystery"}
	b := llm.PartnerProfile{Name: "Bob", Primary: "sexual"}

	analysis := fallbackAnalysis(a, b)
	if err := validateAnalysis(analysis); err != nil {
		t.Fatalf("fallback should tolerate unknown labels: %v", err)
	}
}
