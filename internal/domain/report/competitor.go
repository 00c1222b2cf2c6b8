package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/scoring"
)

// Competitor renders a leaderboard competitor analysis.
func Competitor(m model.AgentMetrics, res scoring.CompetitorResult, now time.Time) (Report, error) {
	var b strings.Builder
	competitorSummary(&b, "🔍 COMPETITOR ANALYSIS", m, res)
	numbered(&b, "💡 Recommendations:", res.Recommendations, "")
	summary := finish(&b)

	return build(struct {
		stamp
		scoring.CompetitorResult
	}{newStamp(summary, now), res}, summary)
}

// DeepDive renders the premium competitor analysis.
func DeepDive(m model.AgentMetrics, res scoring.DeepDiveResult, now time.Time) (Report, error) {
	var b strings.Builder
	competitorSummary(&b, "🕵️ COMPETITOR DEEP DIVE", m, res.CompetitorResult)

	fmt.Fprintf(&b, "\n🎯 Threat Levels: 🔴 %d high | 🟡 %d medium | 🟢 %d low\n",
		res.ThreatSummary.High, res.ThreatSummary.Medium, res.ThreatSummary.Low)
	for i, d := range res.PeerDetails {
		fmt.Fprintf(&b, "%d. %s %s (#%d) - threat %d/6, %s/job, %s/buyer",
			i+1, threatIcon(d.ThreatLevel), d.Name, d.Rank, d.ThreatScore, money(d.RevenuePerJob), money(d.RevenuePerBuyer))
		if !d.MetricsAvailable {
			b.WriteString(" (leaderboard data only)")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n🧩 Service Gap:\n")
	fmt.Fprintf(&b, "  Shared: %s\n", listOrNone(res.ServiceGap.Shared))
	fmt.Fprintf(&b, "  Only you: %s\n", listOrNone(res.ServiceGap.Unique))
	fmt.Fprintf(&b, "  Only competitors: %s\n", listOrNone(res.ServiceGap.Gaps))

	numbered(&b, "💡 Recommendations:", res.Recommendations, "")
	summary := finish(&b)

	return build(struct {
		stamp
		scoring.DeepDiveResult
	}{newStamp(summary, now), res}, summary)
}

func competitorSummary(b *strings.Builder, title string, m model.AgentMetrics, res scoring.CompetitorResult) {
	pos := res.MarketPosition
	vs := res.VsCompetitors

	fmt.Fprintf(b, "%s - %s\n", title, m.AgentName)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(b, "\n📊 Market Position (out of %d agents):\n", pos.TotalAgents)
	fmt.Fprintf(b, "  Rank: #%d | Revenue: top %d%% | Jobs: top %d%% | Buyers: top %d%% | $/job: top %d%%\n",
		pos.Rank, 100-pos.RevenuePercentile, 100-pos.JobsPercentile, 100-pos.BuyersPercentile, 100-pos.EfficiencyPercentile)
	b.WriteString("\n📈 Your Metrics:\n")
	fmt.Fprintf(b, "  Revenue: %s | Jobs: %s | Rate: %.1f%% | Buyers: %s\n",
		money(m.Revenue), count(m.JobsCompleted), m.SuccessRate, count(m.UniqueBuyers))
	b.WriteString("\n⚔️ vs Competitors (avg):\n")
	fmt.Fprintf(b, "  Revenue: %s (%s avg) | Jobs: %s (%.0f avg) | Rate: %s (%.1f%% avg)\n",
		vs.Revenue, money(vs.AvgRevenue), vs.Jobs, vs.AvgJobs, vs.SuccessRate, vs.AvgSuccessRate)

	lines := make([]string, len(res.Competitors))
	for i, c := range res.Competitors {
		lines[i] = fmt.Sprintf("%s (#%d) - Revenue: %s, Jobs: %s, Rate: %.1f%%, Buyers: %s",
			c.Name, c.Rank, money(c.Revenue), count(c.Jobs), c.SuccessRate, count(c.UniqueBuyers))
	}
	numbered(b, fmt.Sprintf("🏆 Top %d Closest Competitors:", len(res.Competitors)), lines, "")
	numbered(b, "✅ Strengths:", res.Strengths, "")
	numbered(b, "⚠️ Weaknesses:", res.Weaknesses, "")
}

func threatIcon(level string) string {
	switch level {
	case scoring.ThreatHigh:
		return "🔴"
	case scoring.ThreatMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
