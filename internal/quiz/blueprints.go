package quiz

// Blueprint is one of the five fixed personality-style categories a quiz
// result maps onto.
type Blueprint string

const (
	BlueprintEnergetic    Blueprint = "energetic"
	BlueprintSensual      Blueprint = "sensual"
	BlueprintSexual       Blueprint = "sexual"
	BlueprintKinky        Blueprint = "kinky"
	BlueprintShapeshifter Blueprint = "shapeshifter"
)

// Blueprints lists all categories in score-vector order.
var Blueprints = [5]Blueprint{
	BlueprintEnergetic,
	BlueprintSensual,
	BlueprintSexual,
	BlueprintKinky,
	BlueprintShapeshifter,
}

// Valid reports whether b is one of the five known categories.
func (b Blueprint) Valid() bool {
	for _, known := range Blueprints {
		if b == known {
			return true
		}
	}
	return false
}

// Index returns b's position in the score vector, or -1.
func (b Blueprint) Index() int {
	for i, known := range Blueprints {
		if b == known {
			return i
		}
	}
	return -1
}
