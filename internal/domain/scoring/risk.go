package scoring

import (
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
)

// Risk flags.
const (
	FlagLowBuyerDiversity = "low_buyer_diversity"
	FlagHighConcentration = "high_concentration"
	FlagDecliningActivity = "declining_activity"
	FlagNoRecentActivity  = "no_recent_activity"
	FlagLowSuccessRate    = "low_success_rate"
	FlagNewAgent          = "new_agent"
	FlagLowRevenue        = "low_revenue"
)

// Risk verdicts.
const (
	VerdictLowRisk    = "low_risk"
	VerdictMediumRisk = "medium_risk"
	VerdictHighRisk   = "high_risk"
)

const (
	riskBaseline         = 50
	riskPerformerBonus   = 30
	activityFlagPenalty  = 15
	inactiveHoursBarrier = 168
)

var riskPenalties = map[string]int{
	FlagLowSuccessRate:    20,
	FlagLowBuyerDiversity: 15,
	FlagHighConcentration: 10,
	FlagNewAgent:          5,
	FlagLowRevenue:        5,
}

// RiskResult is the output of the risk engine. Higher scores mean more risk.
type RiskResult struct {
	Score   int      `json:"risk_score"`
	Flags   []string `json:"flags"`
	Verdict string   `json:"verdict"`
}

// Risk starts from a baseline, adds a penalty per triggered flag and subtracts
// a bonus for established high performers.
func Risk(m model.AgentMetrics, now time.Time) RiskResult {
	flags := RiskFlags(m, now)

	score := riskBaseline
	activityPenalized := false
	for _, f := range flags {
		switch f {
		case FlagDecliningActivity, FlagNoRecentActivity:
			if !activityPenalized {
				score += activityFlagPenalty
				activityPenalized = true
			}
		default:
			score += riskPenalties[f]
		}
	}
	score = clamp(score)

	if m.UniqueBuyers >= 30 && m.SuccessRate >= 90 && m.JobsCompleted >= 100 {
		score -= riskPerformerBonus
	}
	score = clamp(score)

	return RiskResult{
		Score:   score,
		Flags:   flags,
		Verdict: RiskVerdict(score),
	}
}

// RiskFlags returns the triggered flags in a stable order.
func RiskFlags(m model.AgentMetrics, now time.Time) []string {
	flags := make([]string, 0, 7)

	if m.UniqueBuyers < 10 {
		flags = append(flags, FlagLowBuyerDiversity)
	}
	if m.UniqueBuyers < 5 && m.JobsCompleted > 20 {
		flags = append(flags, FlagHighConcentration)
	}
	if hours, ok := m.HoursSinceActivity(now); ok {
		if hours > inactiveHoursBarrier {
			flags = append(flags, FlagDecliningActivity)
		}
	} else if m.JobsCompleted > 0 {
		flags = append(flags, FlagNoRecentActivity)
	}
	if m.SuccessRate < 85 {
		flags = append(flags, FlagLowSuccessRate)
	}
	if m.JobsCompleted < 20 {
		flags = append(flags, FlagNewAgent)
	}
	if m.Revenue < 10 && m.JobsCompleted > 5 {
		flags = append(flags, FlagLowRevenue)
	}
	return flags
}

// RiskVerdict maps a risk score to low, medium or high risk.
func RiskVerdict(score int) string {
	switch {
	case score < 30:
		return VerdictLowRisk
	case score < 60:
		return VerdictMediumRisk
	default:
		return VerdictHighRisk
	}
}
