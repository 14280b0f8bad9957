package affect

// Scaled is an aggregate's valence and arousal means rescaled onto 0-1 across the
// aggregate set.
type Scaled struct {
	Key     string
	Valence float64
	Arousal float64
}

// ScaleAggregates min-max rescales the valence and arousal means of aggs.
// The smallest mean maps to 0 and the largest to 1. When a column has no spread
// every value in it is SingleKeyScaledValue.
func ScaleAggregates(aggs []Aggregate) []Scaled {
	out := make([]Scaled, len(aggs))
	if len(aggs) == 0 {
		return out
	}

	vMin, vMax := aggs[0].Valence, aggs[0].Valence
	aMin, aMax := aggs[0].Arousal, aggs[0].Arousal
	for _, a := range aggs[1:] {
		vMin, vMax = min(vMin, a.Valence), max(vMax, a.Valence)
		aMin, aMax = min(aMin, a.Arousal), max(aMax, a.Arousal)
	}

	for i, a := range aggs {
		out[i] = Scaled{
			Key:     a.Key,
			Valence: minMax(a.Valence, vMin, vMax),
			Arousal: minMax(a.Arousal, aMin, aMax),
		}
	}
	return out
}

func minMax(x, lo, hi float64) float64 {
	if hi == lo {
		return SingleKeyScaledValue
	}
	return (x - lo) / (hi - lo)
}
