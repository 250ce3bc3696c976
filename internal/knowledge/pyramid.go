package knowledge

// AbilityLevel is one tier of the ability pyramid.
type AbilityLevel struct {
	Name      string
	Threshold float64
	Focus     string
}

// Pyramid is ordered from the top tier down.
var Pyramid = []AbilityLevel{
	{Name: "expert", Threshold: 0.8, Focus: "system design, performance optimization and trade-offs"},
	{Name: "advanced", Threshold: 0.6, Focus: "architecture decisions and troubleshooting in real projects"},
	{Name: "intermediate", Threshold: 0.4, Focus: "practical usage and common pitfalls"},
	{Name: "basic", Threshold: 0, Focus: "core concepts and fundamentals"},
}

// AbilityFor picks the tier for the mean of the last three scores.
func AbilityFor(scores []float64) (AbilityLevel, bool) {
	if len(scores) == 0 {
		return AbilityLevel{}, false
	}
	if len(scores) > focusWindow {
		scores = scores[len(scores)-focusWindow:]
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	for _, level := range Pyramid {
		if mean >= level.Threshold {
			return level, true
		}
	}
	return Pyramid[len(Pyramid)-1], true
}
