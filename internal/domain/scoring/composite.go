package scoring

import (
	"math"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
)

const compositeSuccessCap = 35

var (
	compositeVolumeTiers    = []tier{{500, 25}, {200, 20}, {100, 17}, {50, 13}, {20, 9}, {5, 5}, {1, 2}}
	compositeRecencyTiers   = []tier{{1, 20}, {6, 17}, {24, 14}, {72, 9}, {168, 4}}
	compositeDiversityTiers = []tier{{30, 10}, {15, 8}, {5, 5}, {1, 2}}
	compositeRankTiers      = []tier{{10, 10}, {25, 8}, {50, 6}, {100, 4}, {200, 2}}
)

// CompositeBreakdown holds the five composite sub-scores.
type CompositeBreakdown struct {
	SuccessRate int `json:"success_rate"`
	Volume      int `json:"volume"`
	Activity    int `json:"activity"`
	Diversity   int `json:"diversity"`
	Rank        int `json:"rank"`
}

// CompositeResult is the output of the composite score engine.
type CompositeResult struct {
	Score     int                `json:"score"`
	Grade     string             `json:"grade"`
	Breakdown CompositeBreakdown `json:"breakdown"`
}

// Composite sums five capped sub-scores into a 0-100 score with a letter grade.
func Composite(m model.AgentMetrics, now time.Time) CompositeResult {
	success := math.Min(compositeSuccessCap, m.SuccessRate/100*compositeSuccessCap)

	b := CompositeBreakdown{
		SuccessRate: int(math.Round(success)),
		Volume:      atLeast(float64(m.JobsCompleted), compositeVolumeTiers),
		Diversity:   atLeast(float64(m.UniqueBuyers), compositeDiversityTiers),
	}
	if hours, ok := m.HoursSinceActivity(now); ok {
		b.Activity = under(hours, compositeRecencyTiers)
	}
	if m.Rank != nil {
		b.Rank = atMost(float64(*m.Rank), compositeRankTiers)
	}

	score := roundClamp(success + float64(b.Volume+b.Activity+b.Diversity+b.Rank))
	return CompositeResult{
		Score:     score,
		Grade:     Grade(score),
		Breakdown: b,
	}
}

// Grade maps a composite score to a letter grade.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 55:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}
