package couples

import (
	"encoding/json"
	"fmt"
	"strings"

	"blueprint-backend/internal/llm"
	"blueprint-backend/internal/quiz"
)

// decodeAnalysis parses generator output into a CouplesAnalysis, stripping any
// code-fence wrapping first. It returns an error when the payload is not JSON
// or any required field is missing or empty.
func decodeAnalysis(raw json.RawMessage) (CouplesAnalysis, error) {
	cleaned := llm.StripCodeFences(string(raw))
	var analysis CouplesAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return CouplesAnalysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	if err := validateAnalysis(analysis); err != nil {
		return CouplesAnalysis{}, err
	}
	return analysis, nil
}

func validateAnalysis(a CouplesAnalysis) error {
	if strings.TrimSpace(a.Summary) == "" {
		return fmt.Errorf("analysis missing summary")
	}
	if strings.TrimSpace(a.Compatibility) == "" {
		return fmt.Errorf("analysis missing compatibility")
	}
	for name, list := range map[string][]string{
		"partnerATips": a.PartnerATips,
		"partnerBTips": a.PartnerBTips,
		"exercises":    a.Exercises,
		"practices":    a.Practices,
	} {
		if len(list) == 0 {
			return fmt.Errorf("analysis missing %s", name)
		}
		for _, item := range list {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("analysis has empty entry in %s", name)
			}
		}
	}
	if strings.TrimSpace(a.ClosingPrompt) == "" {
		return fmt.Errorf("analysis missing closingPrompt")
	}
	return nil
}

var blueprintThemes = map[quiz.Blueprint]string{
	quiz.BlueprintEnergetic:    "anticipation, space, and slow builds",
	quiz.BlueprintSensual:      "all five senses, atmosphere, and unhurried touch",
	quiz.BlueprintSexual:       "directness, visual desire, and enthusiastic physicality",
	quiz.BlueprintKinky:        "playfulness, taboo, and negotiated power exchange",
	quiz.BlueprintShapeshifter: "variety, and moving fluidly between all the styles",
}

func themeFor(b quiz.Blueprint) string {
	if theme, ok := blueprintThemes[b]; ok {
		return theme
	}
	return "curiosity and open communication"
}

// fallbackAnalysis builds a deterministic templated analysis from the two
// blueprint labels alone. Every field is always populated, so malformed
// generator output degrades to something usable rather than an error.
func fallbackAnalysis(a, b llm.PartnerProfile) CouplesAnalysis {
	primaryA := quiz.Blueprint(a.Primary)
	primaryB := quiz.Blueprint(b.Primary)
	themeA := themeFor(primaryA)
	themeB := themeFor(primaryB)

	return CouplesAnalysis{
		Summary: fmt.Sprintf(
			"%s leads with the %s blueprint and %s leads with the %s blueprint. That gives you two distinct doorways into connection, and this guide is about learning to use both.",
			a.Name, a.Primary, b.Name, b.Primary),
		Compatibility: fmt.Sprintf(
			"%s is most alive around %s, while %s lights up through %s. Neither style is a problem to fix; friction usually means one of you is being asked to speak the other's language without a map. Trade turns planning time together so each of you gets met in your own style first.",
			a.Name, themeA, b.Name, themeB),
		PartnerATips: []string{
			fmt.Sprintf("Tell %s one specific thing that reliably works for you, in plain words.", b.Name),
			fmt.Sprintf("Once a week, plan something in %s's style (%s) without being asked.", b.Name, themeB),
			"When something misses for you, say what you'd like instead rather than what went wrong.",
		},
		PartnerBTips: []string{
			fmt.Sprintf("Tell %s one specific thing that reliably works for you, in plain words.", a.Name),
			fmt.Sprintf("Once a week, plan something in %s's style (%s) without being asked.", a.Name, themeA),
			"When something misses for you, say what you'd like instead rather than what went wrong.",
		},
		Exercises: []string{
			fmt.Sprintf("Blueprint swap night: one evening fully in the %s style, another fully in the %s style.", a.Primary, b.Primary),
			"Each write three yes / three maybe / three no items, then compare lists with no persuasion allowed.",
			"Spend ten minutes on touch where the only goal is for the receiver to narrate what they notice.",
		},
		Practices: []string{
			"A weekly fifteen-minute check-in about what felt good and what you each want more of.",
			"Revisit the quiz every few months; blueprints drift, and the analysis can be regenerated.",
		},
		ClosingPrompt: fmt.Sprintf(
			"Ask each other: what is one thing the %s and %s blueprints could build together that neither of you would reach alone?",
			a.Primary, b.Primary),
	}
}
