package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

var (
	healthSuccessTiers = []tier{{95, 40}, {90, 35}, {85, 30}, {80, 25}, {70, 20}, {50, 10}, {math.Inf(-1), 5}}
	healthRecencyTiers = []tier{{1, 30}, {6, 25}, {24, 20}, {72, 10}, {168, 5}}
	healthVolumeTiers  = []tier{{500, 30}, {200, 25}, {100, 20}, {50, 15}, {20, 10}, {5, 5}}
)

// HealthBreakdown holds the three health sub-scores.
type HealthBreakdown struct {
	SuccessRate int `json:"success_rate"`
	Activity    int `json:"activity"`
	Volume      int `json:"volume"`
}

// HealthChecks are boolean probes reported next to the score.
type HealthChecks struct {
	IsOnline           bool `json:"is_online"`
	HasActiveOfferings bool `json:"has_active_offerings"`
	RecentActivity     bool `json:"recent_activity"`
	GoodSuccessRate    bool `json:"good_success_rate"`
}

// HealthResult is the output of the health engine.
type HealthResult struct {
	Score           int             `json:"health_score"`
	Status          string          `json:"status"`
	Breakdown       HealthBreakdown `json:"breakdown"`
	Checks          HealthChecks    `json:"checks"`
	Recommendations []string        `json:"recommendations"`
}

// Health scores success rate (max 40), recency (max 30) and job volume (max 30).
func Health(m model.AgentMetrics, now time.Time) HealthResult {
	hours, active := m.HoursSinceActivity(now)

	b := HealthBreakdown{
		SuccessRate: atLeast(m.SuccessRate, healthSuccessTiers),
		Volume:      over(float64(m.JobsCompleted), healthVolumeTiers),
	}
	if active {
		b.Activity = under(hours, healthRecencyTiers)
	}
	score := clamp(b.SuccessRate + b.Activity + b.Volume)

	return HealthResult{
		Score:     score,
		Status:    HealthStatus(score),
		Breakdown: b,
		Checks: HealthChecks{
			IsOnline:           active,
			HasActiveOfferings: len(m.Offerings) > 0,
			RecentActivity:     active && hours < 24,
			GoodSuccessRate:    m.SuccessRate >= 90,
		},
		Recommendations: healthRecommendations(m, score, hours, active),
	}
}

// HealthStatus maps a health score to healthy, warning or critical.
func HealthStatus(score int) string {
	switch {
	case score >= 80:
		return StatusHealthy
	case score >= 60:
		return StatusWarning
	default:
		return StatusCritical
	}
}

func healthRecommendations(m model.AgentMetrics, score int, hours float64, active bool) []string {
	var recs []string

	switch {
	case score >= 85:
		recs = append(recs, "Agent is performing excellently! Keep up the good work.")
	case score >= 70:
		recs = append(recs, "Agent is in good health with room for improvement.")
	case score >= 50:
		recs = append(recs, "Agent needs attention - some issues detected.")
	default:
		recs = append(recs, "⚠️ Agent has critical issues - immediate action required.")
	}

	if m.SuccessRate < 90 {
		recs = append(recs, fmt.Sprintf("Improve success rate (currently %.1f%%) - check for errors in handlers", m.SuccessRate))
	}

	switch {
	case !active:
		recs = append(recs, "No job history found - agent may be new or offline")
	case hours > 72:
		recs = append(recs, "Low recent activity - check if seller runtime is running")
	case hours > 24:
		recs = append(recs, "No jobs in last 24h - consider marketing or pricing adjustments")
	}

	switch {
	case m.JobsCompleted < 10:
		recs = append(recs, "New agent - focus on building reputation and getting first customers")
	case m.JobsCompleted < 50:
		recs = append(recs, "Growing agent - continue building trust and expanding offerings")
	}

	if len(m.Offerings) < 3 {
		recs = append(recs, "Consider adding more offerings to increase touchpoints")
	}
	return recs
}
