package openai

import (
	"fmt"
	"log"
	"strings"

	"blueprint-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPromptStrict  = "You are a couples compatibility engine. Respond with JSON only. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

// BuildPrompt creates the chat messages for a couples analysis request.
func BuildPrompt(promptVersion string, input llm.GenerateInput, model string) []Message {
	developer := resolvePromptTemplate(promptVersion, model)
	return []Message{
		{Role: "system", Content: systemPromptStrict},
		{Role: "developer", Content: developer},
		{Role: "user", Content: buildUserPrompt(input)},
	}
}

func buildFixPrompt(promptVersion string, model string, raw []byte) []Message {
	developer := resolvePromptTemplate(promptVersion, model)
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: developer},
		{Role: "user", Content: fixUserPrompt(raw)},
	}
}

func resolvePromptTemplate(promptVersion string, model string) string {
	version := strings.TrimSpace(promptVersion)
	template, ok := llm.PromptTemplate(version)
	if !ok {
		log.Printf("unknown prompt version %q, defaulting to v1", version)
		version = "v1"
		template, _ = llm.PromptTemplate(version)
	}

	replacer := strings.NewReplacer(
		"{{PROMPT_VERSION}}", version,
		"{{MODEL}}", model,
	)
	return replacer.Replace(template)
}

func buildUserPrompt(input llm.GenerateInput) string {
	var b strings.Builder
	writeProfile(&b, "Partner A", input.PartnerA)
	b.WriteString("\n")
	writeProfile(&b, "Partner B", input.PartnerB)
	return b.String()
}

func writeProfile(b *strings.Builder, label string, p llm.PartnerProfile) {
	fmt.Fprintf(b, "%s:\n", label)
	fmt.Fprintf(b, "  Name: %s\n", p.Name)
	fmt.Fprintf(b, "  Primary blueprint: %s\n", p.Primary)
	secondary := p.Secondary
	if strings.TrimSpace(secondary) == "" {
		secondary = "none"
	}
	fmt.Fprintf(b, "  Secondary blueprint: %s\n", secondary)
	fmt.Fprintf(b, "  Scores (energetic, sensual, sexual, kinky, shapeshifter): %.1f, %.1f, %.1f, %.1f, %.1f\n",
		p.Scores[0], p.Scores[1], p.Scores[2], p.Scores[3], p.Scores[4])
}

func fixUserPrompt(raw []byte) string {
	return fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))
}
