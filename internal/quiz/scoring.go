package quiz

import (
	"errors"
	"fmt"
)

// Scores is the fixed-size vector of per-blueprint totals, in the order of
// Blueprints.
type Scores [5]float64

// Answer is one quiz response: which blueprint the question probes and the
// agreement value the user picked (0..5 Likert scale).
type Answer struct {
	Blueprint Blueprint `json:"blueprint"`
	Value     int       `json:"value"`
}

const (
	answerValueMin = 0
	answerValueMax = 5
)

var ErrNoAnswers = errors.New("no answers submitted")

// Score totals the answers into a score vector and derives the primary and
// secondary blueprint labels. Secondary is empty when fewer than two
// categories received any score.
func Score(answers []Answer) (Scores, Blueprint, Blueprint, error) {
	var scores Scores
	if len(answers) == 0 {
		return scores, "", "", ErrNoAnswers
	}
	for i, a := range answers {
		idx := a.Blueprint.Index()
		if idx < 0 {
			return scores, "", "", fmt.Errorf("answer %d: unknown blueprint %q", i, a.Blueprint)
		}
		if a.Value < answerValueMin || a.Value > answerValueMax {
			return scores, "", "", fmt.Errorf("answer %d: value %d out of range", i, a.Value)
		}
		scores[idx] += float64(a.Value)
	}

	primary, secondary := scores.Rank()
	return scores, primary, secondary, nil
}

// Rank returns the highest- and second-highest-scoring blueprints. Ties break
// by vector order so results are deterministic. Secondary is empty when its
// score is zero.
func (s Scores) Rank() (Blueprint, Blueprint) {
	first, second := -1, -1
	for i := range s {
		if first == -1 || s[i] > s[first] {
			second = first
			first = i
			continue
		}
		if second == -1 || s[i] > s[second] {
			second = i
		}
	}
	primary := Blueprints[first]
	var secondary Blueprint
	if second >= 0 && s[second] > 0 {
		secondary = Blueprints[second]
	}
	return primary, secondary
}
