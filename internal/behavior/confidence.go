package behavior

const (
	// breadthTarget is the distinct-state count treated as full breadth.
	breadthTarget = 100.0

	// depthTarget is the average inputs-per-state treated as full depth.
	depthTarget = 10.0

	// progressTarget is the total recorded-input count treated as a fully
	// learned session.
	progressTarget = 10000.0
)

// Confidence derives a [0, 1] score from memory shape:
//
//	min((distinct/breadthTarget) * (avgInputsPerState/depthTarget), 1)
//
// rewarding both breadth (distinct states seen) and depth (repeated
// observations per state). It is non-decreasing as inputs accumulate for a
// fixed distinct-state count, and only a reset moves it backwards.
func Confidence(st Stats) float64 {
	if st.DistinctStates == 0 {
		return 0
	}
	breadth := float64(st.DistinctStates) / breadthTarget
	depth := float64(st.TotalActions) / float64(st.DistinctStates) / depthTarget
	return clamp01(breadth * depth)
}

// Progress maps the total recorded-input count onto [0, 1] against the
// session learning target.
func Progress(st Stats) float64 {
	return clamp01(float64(st.TotalActions) / progressTarget)
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
