package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/scoring"
)

// Health renders a health check.
func Health(m model.AgentMetrics, res scoring.HealthResult, now time.Time) (Report, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "🩺 HEALTH CHECK - %s\n", m.AgentName)
	fmt.Fprintf(&b, "📊 Health Score: %d/100 (%s)\n", res.Score, res.Status)
	fmt.Fprintf(&b, "📈 Success: %.1f%% | Jobs: %s | Last active: %s\n",
		m.SuccessRate, count(m.JobsCompleted), scoring.LastActive(m, now))
	fmt.Fprintf(&b, "🔎 Online: %s | Offerings: %s | Active 24h: %s | Success ≥90%%: %s\n",
		yesNo(res.Checks.IsOnline), yesNo(res.Checks.HasActiveOfferings),
		yesNo(res.Checks.RecentActivity), yesNo(res.Checks.GoodSuccessRate))
	numbered(&b, "💡 Recommendations:", res.Recommendations, "")
	summary := finish(&b)

	return build(struct {
		identity
		stamp
		scoring.HealthResult
		Metrics Snapshot `json:"metrics"`
	}{newIdentity(m), newStamp(summary, now), res, NewSnapshot(m)}, summary)
}

// Risk renders risk flags.
func Risk(m model.AgentMetrics, res scoring.RiskResult, now time.Time) (Report, error) {
	flags := "none"
	if len(res.Flags) > 0 {
		flags = strings.Join(res.Flags, ", ")
	}
	summary := fmt.Sprintf("🔍 RISK FLAGS - %s\nRisk Score: %d/100\nVerdict: %s\nFlags: %s",
		m.AgentName, res.Score, res.Verdict, flags)

	return build(struct {
		identity
		stamp
		scoring.RiskResult
		Metrics Snapshot `json:"metrics"`
	}{newIdentity(m), newStamp(summary, now), res, NewSnapshot(m)}, summary)
}

// Score renders a composite score.
func Score(m model.AgentMetrics, res scoring.CompositeResult, now time.Time) (Report, error) {
	summary := fmt.Sprintf("⚡ AGENT SCORE - %s\n📊 Score: %d/100 (%s)\n📈 Success: %.1f%% | Jobs: %s | Revenue: %s\n🏅 Rank: #%s | Buyers: %s",
		m.AgentName, res.Score, res.Grade,
		m.SuccessRate, count(m.JobsCompleted), money(m.Revenue),
		rank(m.Rank), count(m.UniqueBuyers))

	return build(struct {
		identity
		stamp
		scoring.CompositeResult
	}{newIdentity(m), newStamp(summary, now), res}, summary)
}

// Reputation renders a reputation report.
func Reputation(m model.AgentMetrics, res scoring.ReputationResult, now time.Time) (Report, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 REPUTATION REPORT - %s (%s)\n", m.AgentName, res.Period)
	fmt.Fprintf(&b, "📊 Overall Score: %d/100 (%s)\n", res.Score, res.Status)
	fmt.Fprintf(&b, "📈 Success Rate: %.2f%%\n", m.SuccessRate)
	fmt.Fprintf(&b, "💼 Jobs: %s\n", count(m.JobsCompleted))
	fmt.Fprintf(&b, "💰 Revenue: %s\n", money(m.Revenue))
	fmt.Fprintf(&b, "🏅 Rank: #%s\n", rank(m.Rank))
	fmt.Fprintf(&b, "📝 %s\n", res.Summary)
	numbered(&b, "✅ Strengths:", res.Strengths, "")
	numbered(&b, "⚠️ Weaknesses:", res.Weaknesses, "")
	numbered(&b, "💡 Recommendations:", res.Recommendations, "")
	summary := finish(&b)

	return build(struct {
		identity
		stamp
		scoring.ReputationResult
		Metrics              Snapshot `json:"metrics"`
		NextCheckRecommended string   `json:"next_check_recommended"`
	}{newIdentity(m), newStamp(summary, now), res, NewSnapshot(m), "7d"}, summary)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
