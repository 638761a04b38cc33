package quiz

import (
	"errors"
	"testing"
)

func TestScoreDerivesPrimaryAndSecondary(t *testing.T) {
	answers := []Answer{
		{Blueprint: BlueprintSensual, Value: 5},
		{Blueprint: BlueprintSensual, Value: 4},
		{Blueprint: BlueprintKinky, Value: 3},
		{Blueprint: BlueprintEnergetic, Value: 1},
	}

	scores, primary, secondary, err := Score(answers)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if primary != BlueprintSensual {
		t.Fatalf("expected sensual primary, got %s", primary)
	}
	if secondary != BlueprintKinky {
		t.Fatalf("expected kinky secondary, got %s", secondary)
	}
	if scores[BlueprintSensual.Index()] != 9 {
		t.Fatalf("expected sensual total 9, got %v", scores[BlueprintSensual.Index()])
	}
}

func TestScoreTieBreaksByVectorOrder(t *testing.T) {
	answers := []Answer{
		{Blueprint: BlueprintSexual, Value: 4},
		{Blueprint: BlueprintEnergetic, Value: 4},
	}

	_, primary, secondary, err := Score(answers)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// Energetic precedes sexual in the vector, so it wins the tie.
	if primary != BlueprintEnergetic || secondary != BlueprintSexual {
		t.Fatalf("unexpected tie-break: primary=%s secondary=%s", primary, secondary)
	}
}

func TestScoreSecondaryEmptyWhenSingleCategory(t *testing.T) {
	answers := []Answer{
		{Blueprint: BlueprintShapeshifter, Value: 5},
	}

	_, primary, secondary, err := Score(answers)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if primary != BlueprintShapeshifter {
		t.Fatalf("expected shapeshifter primary, got %s", primary)
	}
	if secondary != "" {
		t.Fatalf("expected empty secondary, got %s", secondary)
	}
}

func TestScoreValidation(t *testing.T) {
	if _, _, _, err := Score(nil); !errors.Is(err, ErrNoAnswers) {
		t.Fatalf("expected ErrNoAnswers, got %v", err)
	}
	if _, _, _, err := Score([]Answer{{Blueprint: "unknown", Value: 3}}); err == nil {
		t.Fatalf("expected error for unknown blueprint")
	}
	if _, _, _, err := Score([]Answer{{Blueprint: BlueprintKinky, Value: 6}}); err == nil {
		t.Fatalf("expected error for out-of-range value")
	}
}

func TestBlueprintIndexRoundTrip(t *testing.T) {
	for i, b := range Blueprints {
		if !b.Valid() {
			t.Fatalf("%s should be valid", b)
		}
		if b.Index() != i {
			t.Fatalf("%s index = %d, want %d", b, b.Index(), i)
		}
	}
	if Blueprint("other").Valid() {
		t.Fatalf("unexpected valid blueprint")
	}
	if Blueprint("other").Index() != -1 {
		t.Fatalf("expected -1 index for unknown blueprint")
	}
}
