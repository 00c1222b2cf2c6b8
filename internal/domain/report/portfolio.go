package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/agentpulse/internal/domain/scoring"
)

// Portfolio renders a multi-agent report.
func Portfolio(res scoring.PortfolioResult, now time.Time) (Report, error) {
	var b strings.Builder
	sb := res.StatusBreakdown

	fmt.Fprintf(&b, "📋 MULTI-AGENT REPORT (%d agents)\n", res.AgentsAnalyzed)
	b.WriteString("──────────\n")
	fmt.Fprintf(&b, "📊 Portfolio Health: %d/100 | Avg Risk: %d/100\n", res.Health, res.Risk)
	fmt.Fprintf(&b, "💼 Total Jobs: %s | Total Revenue: %s\n", count(res.TotalJobs), money(res.TotalRevenue))
	fmt.Fprintf(&b, "🏆 Best: %s (%.0f/100)\n", res.Best.Name, res.Best.Value)
	fmt.Fprintf(&b, "⚠️ Worst: %s (%.0f/100)\n", res.Worst.Name, res.Worst.Value)
	b.WriteString("\n📊 Status Breakdown:\n")
	fmt.Fprintf(&b, "  Health: 🟢 %d healthy | 🟡 %d warning | 🔴 %d critical\n", sb.Healthy, sb.Warning, sb.Critical)
	fmt.Fprintf(&b, "  Risk: 🟢 %d low | 🟡 %d medium | 🔴 %d high\n", sb.LowRisk, sb.MediumRisk, sb.HighRisk)
	b.WriteString("\n⚡ Efficiency:\n")
	fmt.Fprintf(&b, "  Avg $/job: %s\n", money(res.Efficiency.AvgRevenuePerJob))
	fmt.Fprintf(&b, "  Avg $/buyer: %s\n", money(res.Efficiency.AvgRevenuePerBuyer))
	b.WriteString("\n")
	fmt.Fprintf(&b, "🏅 Top 3 by Revenue: %s\n", joinRefs(res.Highlights.TopByRevenue, func(v float64) string { return money(v) }))
	fmt.Fprintf(&b, "🏅 Top 3 by Jobs: %s\n", joinRefs(res.Highlights.TopByJobs, func(v float64) string { return count(int(v)) }))
	fmt.Fprintf(&b, "🏅 Top 3 by Efficiency: %s\n", joinRefs(res.Highlights.TopByEfficiency, func(v float64) string { return money(v) + "/job" }))
	fmt.Fprintf(&b, "🔻 Bottom 3 by Health: %s\n", joinRefs(res.Highlights.BottomByHealth, func(v float64) string { return fmt.Sprintf("%.0f/100", v) }))

	lines := make([]string, len(res.Rankings))
	for i, a := range res.Rankings {
		lines[i] = fmt.Sprintf("%s %s (ID:%s) - Health: %d/100, Risk: %d/100 (%s), Jobs: %s, Rev: %s, $/job: %s, Last active: %s",
			healthIcon(a.HealthStatus), a.AgentName, a.AgentID, a.HealthScore, a.RiskScore, a.RiskVerdict,
			count(a.Jobs), money(a.Revenue), money(a.RevenuePerJob), a.LastActive)
	}
	numbered(&b, "📈 Full Rankings:", lines, "")
	numbered(&b, "💡 Recommendations:", res.Recommendations, "  ")
	if len(res.Errors) > 0 {
		fmt.Fprintf(&b, "\n⚠️ Errors (%d): %s\n", len(res.Errors), strings.Join(res.Errors, "; "))
	}
	summary := finish(&b)

	return build(struct {
		stamp
		scoring.PortfolioResult
	}{newStamp(summary, now), res}, summary)
}

func joinRefs(refs []scoring.AgentRef, format func(float64) string) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = fmt.Sprintf("%s (%s)", r.Name, format(r.Value))
	}
	return strings.Join(parts, ", ")
}

func healthIcon(status string) string {
	switch status {
	case scoring.StatusHealthy:
		return "🟢"
	case scoring.StatusWarning:
		return "🟡"
	default:
		return "🔴"
	}
}
