package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
)

// Reputation periods.
const (
	Period7d      = "7d"
	Period30d     = "30d"
	Period90d     = "90d"
	DefaultPeriod = Period30d
)

// ValidPeriod reports whether p is an accepted reputation period.
func ValidPeriod(p string) bool {
	return p == Period7d || p == Period30d || p == Period90d
}

// hoursWhenInactive stands in for an unknown last activity in narrative checks.
const hoursWhenInactive = 999

// Trends are narrative labels derived from current metrics.
type Trends struct {
	JobsGrowth    string `json:"jobs_growth"`
	RevenueGrowth string `json:"revenue_growth"`
	RatingTrend   string `json:"rating_trend"`
}

// CompetitivePosition summarizes rank, inferred category and pricing tier.
type CompetitivePosition struct {
	Rank            *int   `json:"rank"`
	Category        string `json:"category"`
	PricingVsMarket string `json:"pricing_vs_market"`
}

// ReputationResult is the output of the reputation engine.
type ReputationResult struct {
	Score               int                 `json:"overall_score"`
	Status              string              `json:"status"`
	Period              string              `json:"period"`
	Summary             string              `json:"summary"`
	Trends              Trends              `json:"trends"`
	Strengths           []string            `json:"strengths"`
	Weaknesses          []string            `json:"weaknesses"`
	Recommendations     []string            `json:"recommendations"`
	CompetitivePosition CompetitivePosition `json:"competitive_position"`
}

// Reputation blends linear and logarithmic sub-scores and derives narrative findings.
func Reputation(m model.AgentMetrics, period string, now time.Time) ReputationResult {
	if period == "" {
		period = DefaultPeriod
	}
	score := ReputationScore(m)
	hours, ok := m.HoursSinceActivity(now)
	if !ok {
		hours = hoursWhenInactive
	}

	strengths := reputationStrengths(m, hours)
	weaknesses := reputationWeaknesses(m, hours)

	return ReputationResult{
		Score:               score,
		Status:              reputationStatus(score),
		Period:              period,
		Summary:             reputationSummary(score),
		Trends:              reputationTrends(m),
		Strengths:           strengths,
		Weaknesses:          weaknesses,
		Recommendations:     reputationRecommendations(m, hours, len(strengths), len(weaknesses)),
		CompetitivePosition: Position(m),
	}
}

// ReputationScore computes the 0-100 reputation score.
func ReputationScore(m model.AgentMetrics) int {
	score := m.SuccessRate / 100 * 30
	score += math.Min(25, math.Log10(float64(m.JobsCompleted)+1)*8)
	score += math.Min(20, math.Log10(m.Revenue+1)*5)
	score += m.Rating / 5 * 15
	score += math.Min(10, math.Log10(float64(m.UniqueBuyers)+1)*3)
	return roundClamp(score)
}

// Position infers the agent's category from its first offering and its
// pricing tier from the mean offering price.
func Position(m model.AgentMetrics) CompetitivePosition {
	category := "general"
	if len(m.Offerings) > 0 {
		name := m.Offerings[0].Name
		switch {
		case strings.Contains(name, "token"):
			category = "analytics"
		case strings.Contains(name, "content"):
			category = "content"
		case strings.Contains(name, "monitor"):
			category = "monitoring"
		}
	}

	avg := 1.0
	if len(m.Offerings) > 0 {
		var sum float64
		for _, o := range m.Offerings {
			sum += o.Price
		}
		avg = sum / float64(len(m.Offerings))
	}

	var pricing string
	switch {
	case avg < 0.5:
		pricing = "budget"
	case avg < 2:
		pricing = "competitive"
	case avg < 5:
		pricing = "premium"
	default:
		pricing = "luxury"
	}

	return CompetitivePosition{Rank: m.Rank, Category: category, PricingVsMarket: pricing}
}

func reputationStatus(score int) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "developing"
	default:
		return "struggling"
	}
}

func reputationSummary(score int) string {
	switch {
	case score >= 80:
		return "Excellent agent with strong reputation and performance"
	case score >= 60:
		return "Good agent with solid track record and room for growth"
	case score >= 40:
		return "Developing agent with potential but needs improvement"
	default:
		return "New or struggling agent requiring significant optimization"
	}
}

func reputationTrends(m model.AgentMetrics) Trends {
	t := Trends{JobsGrowth: "low activity", RevenueGrowth: "early stage", RatingTrend: "needs improvement"}
	switch {
	case m.JobsCompleted > 100:
		t.JobsGrowth = "high activity"
	case m.JobsCompleted > 20:
		t.JobsGrowth = "moderate activity"
	}
	switch {
	case m.Revenue > 200:
		t.RevenueGrowth = "strong revenue"
	case m.Revenue > 50:
		t.RevenueGrowth = "moderate revenue"
	}
	switch {
	case m.Rating >= 4.5:
		t.RatingTrend = "excellent"
	case m.Rating >= 3.5:
		t.RatingTrend = "good"
	}
	return t
}

func reputationStrengths(m model.AgentMetrics, hours float64) []string {
	var out []string
	switch {
	case m.SuccessRate >= 95:
		out = append(out, fmt.Sprintf("Excellent success rate (%.1f%%)", m.SuccessRate))
	case m.SuccessRate >= 90:
		out = append(out, fmt.Sprintf("High success rate (%.1f%%)", m.SuccessRate))
	}
	switch {
	case m.JobsCompleted > 100:
		out = append(out, "Extensive experience with 100+ jobs completed")
	case m.JobsCompleted > 50:
		out = append(out, "Solid track record with 50+ jobs")
	}
	switch {
	case m.Rating >= 4.5:
		out = append(out, "Outstanding customer satisfaction (4.5+ stars)")
	case m.Rating >= 4.0:
		out = append(out, "Good customer reviews (4+ stars)")
	}
	if m.UniqueBuyers > 30 {
		out = append(out, "Wide customer base with 30+ unique buyers")
	}
	if m.Revenue > 200 {
		out = append(out, fmt.Sprintf("Strong revenue generation ($%.2f)", m.Revenue))
	}
	if hours < 6 {
		out = append(out, "High activity - recently completed jobs")
	}
	if len(m.Offerings) >= 5 {
		out = append(out, "Diverse service portfolio with multiple offerings")
	}
	if len(out) == 0 {
		out = append(out, "Building reputation - room for growth")
	}
	return out
}

func reputationWeaknesses(m model.AgentMetrics, hours float64) []string {
	var out []string
	if m.SuccessRate < 85 {
		out = append(out, fmt.Sprintf("Success rate needs improvement (%.1f%%)", m.SuccessRate))
	}
	if m.JobsCompleted < 20 {
		out = append(out, "Limited experience - new agent")
	}
	if m.Rating < 4.0 {
		out = append(out, "Customer satisfaction could be higher")
	}
	if m.UniqueBuyers < 10 {
		out = append(out, "Small customer base - needs more visibility")
	}
	if len(m.Offerings) < 3 {
		out = append(out, "Limited offering variety")
	}
	if hours > 72 {
		out = append(out, "Low recent activity - possible downtime")
	}
	if m.Revenue < 50 {
		out = append(out, "Low revenue generation - pricing or demand issues")
	}
	if len(out) == 0 {
		out = append(out, "No significant weaknesses identified")
	}
	return out
}

func reputationRecommendations(m model.AgentMetrics, hours float64, strengths, weaknesses int) []string {
	var out []string
	if m.SuccessRate < 90 {
		out = append(out, "Focus on improving service quality - debug handlers and test edge cases")
	}
	if m.JobsCompleted < 50 {
		out = append(out, "Build reputation through consistent delivery and competitive pricing")
	}
	switch {
	case len(m.Offerings) < 3:
		out = append(out, "Add 2-3 new offerings to increase touchpoints and revenue streams")
	case len(m.Offerings) < 5:
		out = append(out, "Consider adding complementary services to existing offerings")
	}
	if hours > 24 {
		out = append(out, "Increase marketing efforts - share on Twitter, Discord, partner with other agents")
	}
	if m.Revenue < 100 {
		out = append(out, "Review pricing strategy - test different price points for better conversion")
	}
	if m.UniqueBuyers < 20 {
		out = append(out, "Expand customer base through partnerships and referral programs")
	}
	if m.Rating < 4.5 {
		out = append(out, "Improve customer experience - faster response times and better result quality")
	}
	if strengths > weaknesses {
		out = append(out, "Leverage your strengths in marketing materials and positioning")
	}
	out = append(out, "Monitor health regularly with AgentPulse health_check (0.25 USDC)")
	return out
}
