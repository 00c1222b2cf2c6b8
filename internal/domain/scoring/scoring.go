// Package scoring holds the heuristic engines that turn agent metrics into
// scores, verdicts and findings. Every engine is a pure function of its
// inputs and an explicit reference time.
package scoring

import "math"

const (
	minScore = 0
	maxScore = 100
)

// tier maps a bound to the points awarded when a value passes it.
type tier struct {
	bound  float64
	points int
}

// atLeast returns the points of the first tier with v >= bound.
func atLeast(v float64, tiers []tier) int {
	for _, t := range tiers {
		if v >= t.bound {
			return t.points
		}
	}
	return 0
}

// over returns the points of the first tier with v > bound.
func over(v float64, tiers []tier) int {
	for _, t := range tiers {
		if v > t.bound {
			return t.points
		}
	}
	return 0
}

// under returns the points of the first tier with v < bound.
func under(v float64, tiers []tier) int {
	for _, t := range tiers {
		if v < t.bound {
			return t.points
		}
	}
	return 0
}

// atMost returns the points of the first tier with v <= bound.
func atMost(v float64, tiers []tier) int {
	for _, t := range tiers {
		if v <= t.bound {
			return t.points
		}
	}
	return 0
}

func clamp(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

func roundClamp(v float64) int {
	return clamp(int(math.Round(v)))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
