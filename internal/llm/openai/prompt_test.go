package openai

import (
	"strings"
	"testing"

	"blueprint-backend/internal/llm"
)

func testInput() llm.GenerateInput {
	return llm.GenerateInput{
		CoupleID: "couple-1",
		PartnerA: llm.PartnerProfile{
			Name:    "Alice",
			Primary: "sensual",
			Scores:  [5]float64{1, 4.5, 2, 0.5, 1},
		},
		PartnerB: llm.PartnerProfile{
			Name:      "Bob",
			Primary:   "kinky",
			Secondary: "sexual",
			Scores:    [5]float64{0, 1, 3.5, 5, 2},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	messages := BuildPrompt("v1", testInput(), "gpt-4o-mini")
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" || !strings.Contains(messages[0].Content, "JSON only") {
		t.Fatalf("unexpected system message: %+v", messages[0])
	}
	if messages[1].Role != "developer" || strings.TrimSpace(messages[1].Content) == "" {
		t.Fatalf("expected developer message with template, got %+v", messages[1])
	}
	if strings.Contains(messages[1].Content, "{{PROMPT_VERSION}}") {
		t.Fatal("template placeholders must be substituted")
	}

	user := messages[2].Content
	for _, want := range []string{
		"Partner A:", "Name: Alice", "Primary blueprint: sensual", "Secondary blueprint: none",
		"Partner B:", "Name: Bob", "Secondary blueprint: sexual",
		"0.0, 1.0, 3.5, 5.0, 2.0",
	} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestBuildPromptUnknownVersionFallsBack(t *testing.T) {
	messages := BuildPrompt("v99", testInput(), "gpt-4o-mini")
	if len(messages) != 3 || strings.TrimSpace(messages[1].Content) == "" {
		t.Fatalf("expected fallback template, got %+v", messages)
	}
}

func TestIsReasoningModel(t *testing.T) {
	cases := map[string]bool{
		"o1-mini":     true,
		"o3":          true,
		"O4-mini":     true,
		"gpt-5":       true,
		"gpt-4o-mini": false,
		"":            false,
	}
	for model, want := range cases {
		if got := isReasoningModel(model); got != want {
			t.Fatalf("isReasoningModel(%q) = %v, want %v", model, got, want)
		}
	}
}
