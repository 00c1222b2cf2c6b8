package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
)

// MaxPortfolioAgents caps the number of agents in one multi-agent report.
const MaxPortfolioAgents = 10

const highlightCount = 3

// AgentAnalysis is one agent's health and risk inside a portfolio.
type AgentAnalysis struct {
	AgentID         string   `json:"agent_id"`
	AgentName       string   `json:"agent_name"`
	HealthScore     int      `json:"health_score"`
	HealthStatus    string   `json:"health_status"`
	RiskScore       int      `json:"risk_score"`
	RiskVerdict     string   `json:"risk_verdict"`
	RiskFlags       []string `json:"risk_flags"`
	SuccessRate     float64  `json:"success_rate"`
	Jobs            int      `json:"jobs"`
	Revenue         float64  `json:"revenue"`
	Rank            *int     `json:"rank"`
	UniqueBuyers    int      `json:"unique_buyers"`
	LastActive      string   `json:"last_active"`
	RevenuePerJob   float64  `json:"revenue_per_job"`
	RevenuePerBuyer float64  `json:"revenue_per_buyer"`
}

// AgentRef names an agent together with one figure of interest.
type AgentRef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// StatusBreakdown counts agents per health status and risk verdict.
type StatusBreakdown struct {
	Healthy    int `json:"healthy"`
	Warning    int `json:"warning"`
	Critical   int `json:"critical"`
	LowRisk    int `json:"low_risk"`
	MediumRisk int `json:"medium_risk"`
	HighRisk   int `json:"high_risk"`
}

// Efficiency holds the portfolio's mean revenue ratios.
type Efficiency struct {
	AvgRevenuePerJob   float64 `json:"avg_revenue_per_job"`
	AvgRevenuePerBuyer float64 `json:"avg_revenue_per_buyer"`
}

// Highlights lists the top and bottom agents along several axes.
type Highlights struct {
	TopByRevenue    []AgentRef `json:"top_by_revenue"`
	TopByJobs       []AgentRef `json:"top_by_jobs"`
	TopByEfficiency []AgentRef `json:"top_by_efficiency"`
	BottomByHealth  []AgentRef `json:"bottom_by_health"`
}

// PortfolioResult aggregates a batch of agent analyses.
type PortfolioResult struct {
	Health          int             `json:"portfolio_health"`
	Risk            int             `json:"portfolio_risk"`
	Status          string          `json:"status"`
	AgentsAnalyzed  int             `json:"agents_analyzed"`
	TotalJobs       int             `json:"total_jobs"`
	TotalRevenue    float64         `json:"total_revenue"`
	Best            AgentRef        `json:"best_agent"`
	Worst           AgentRef        `json:"worst_agent"`
	CriticalCount   int             `json:"critical_count"`
	HighRiskCount   int             `json:"high_risk_count"`
	StatusBreakdown StatusBreakdown `json:"status_breakdown"`
	Efficiency      Efficiency      `json:"efficiency"`
	Highlights      Highlights      `json:"highlights"`
	Rankings        []AgentAnalysis `json:"rankings"`
	Recommendations []string        `json:"recommendations"`
	Errors          []string        `json:"errors,omitempty"`
}

// Analyze runs the health and risk engines for one agent.
func Analyze(m model.AgentMetrics, now time.Time) AgentAnalysis {
	h := Health(m, now)
	r := Risk(m, now)
	return AgentAnalysis{
		AgentID:         m.AgentID,
		AgentName:       m.AgentName,
		HealthScore:     h.Score,
		HealthStatus:    h.Status,
		RiskScore:       r.Score,
		RiskVerdict:     r.Verdict,
		RiskFlags:       r.Flags,
		SuccessRate:     m.SuccessRate,
		Jobs:            m.JobsCompleted,
		Revenue:         m.Revenue,
		Rank:            m.Rank,
		UniqueBuyers:    m.UniqueBuyers,
		LastActive:      LastActive(m, now),
		RevenuePerJob:   m.RevenuePerJob(),
		RevenuePerBuyer: m.RevenuePerBuyer(),
	}
}

// LastActive renders the time since last activity for humans.
func LastActive(m model.AgentMetrics, now time.Time) string {
	hours, ok := m.HoursSinceActivity(now)
	switch {
	case !ok:
		return "unknown"
	case hours < 1:
		return "< 1 hour ago"
	case hours < 24:
		return fmt.Sprintf("%.0fh ago", math.Round(hours))
	default:
		return fmt.Sprintf("%.0fd ago", math.Round(hours/24))
	}
}

// Portfolio aggregates analyses ranked by health score. errs are carried as
// per-agent failures.
func Portfolio(analyses []AgentAnalysis, errs []string) (PortfolioResult, error) {
	if len(analyses) == 0 {
		return PortfolioResult{}, ErrNoAnalyses
	}

	sorted := sortedBy(analyses, func(a, b AgentAnalysis) bool { return a.HealthScore > b.HealthScore })

	var health, risk, rpj, rpb []float64
	res := PortfolioResult{AgentsAnalyzed: len(analyses), Rankings: sorted}
	for _, a := range analyses {
		health = append(health, float64(a.HealthScore))
		risk = append(risk, float64(a.RiskScore))
		rpj = append(rpj, a.RevenuePerJob)
		rpb = append(rpb, a.RevenuePerBuyer)
		res.TotalJobs += a.Jobs
		res.TotalRevenue += a.Revenue

		switch a.HealthStatus {
		case StatusHealthy:
			res.StatusBreakdown.Healthy++
		case StatusWarning:
			res.StatusBreakdown.Warning++
		default:
			res.StatusBreakdown.Critical++
		}
		switch a.RiskVerdict {
		case VerdictLowRisk:
			res.StatusBreakdown.LowRisk++
		case VerdictMediumRisk:
			res.StatusBreakdown.MediumRisk++
		default:
			res.StatusBreakdown.HighRisk++
		}
	}

	res.Health = int(math.Round(mean(health)))
	res.Risk = int(math.Round(mean(risk)))
	res.Status = HealthStatus(res.Health)
	res.CriticalCount = res.StatusBreakdown.Critical
	res.HighRiskCount = res.StatusBreakdown.HighRisk
	res.Efficiency = Efficiency{AvgRevenuePerJob: mean(rpj), AvgRevenuePerBuyer: mean(rpb)}

	best, worst := sorted[0], sorted[len(sorted)-1]
	res.Best = AgentRef{ID: best.AgentID, Name: best.AgentName, Value: float64(best.HealthScore)}
	res.Worst = AgentRef{ID: worst.AgentID, Name: worst.AgentName, Value: float64(worst.HealthScore)}

	res.Highlights = Highlights{
		TopByRevenue: refs(sortedBy(analyses, func(a, b AgentAnalysis) bool { return a.Revenue > b.Revenue }),
			func(a AgentAnalysis) float64 { return a.Revenue }),
		TopByJobs: refs(sortedBy(analyses, func(a, b AgentAnalysis) bool { return a.Jobs > b.Jobs }),
			func(a AgentAnalysis) float64 { return float64(a.Jobs) }),
		TopByEfficiency: refs(sortedBy(analyses, func(a, b AgentAnalysis) bool { return a.RevenuePerJob > b.RevenuePerJob }),
			func(a AgentAnalysis) float64 { return a.RevenuePerJob }),
		BottomByHealth: refs(sortedBy(analyses, func(a, b AgentAnalysis) bool { return a.HealthScore < b.HealthScore }),
			func(a AgentAnalysis) float64 { return float64(a.HealthScore) }),
	}

	res.Recommendations = portfolioRecommendations(analyses, res.Health, worst)
	if len(errs) > 0 {
		res.Errors = errs
	}
	return res, nil
}

func portfolioRecommendations(analyses []AgentAnalysis, avgHealth int, worst AgentAnalysis) []string {
	var critical, highRisk []string
	for _, a := range analyses {
		if a.HealthStatus == StatusCritical {
			critical = append(critical, a.AgentName)
		}
		if a.RiskVerdict == VerdictHighRisk {
			highRisk = append(highRisk, a.AgentName)
		}
	}

	var out []string
	if len(critical) > 0 {
		out = append(out, fmt.Sprintf("%d agent(s) in CRITICAL state: %s. Immediate attention required.",
			len(critical), strings.Join(critical, ", ")))
	}
	if len(highRisk) > 0 {
		out = append(out, fmt.Sprintf("%d agent(s) flagged HIGH RISK: %s. Review risk flags.",
			len(highRisk), strings.Join(highRisk, ", ")))
	}
	switch {
	case avgHealth >= 80:
		out = append(out, "Portfolio is in good overall health. Continue monitoring.")
	case avgHealth >= 60:
		out = append(out, "Portfolio health is moderate. Focus on improving underperforming agents.")
	default:
		out = append(out, "Portfolio health is poor. Consider replacing low-performing agents.")
	}
	if worst.HealthScore < 40 {
		out = append(out, fmt.Sprintf("Consider replacing %s (score: %d), lowest performer.", worst.AgentName, worst.HealthScore))
	}
	return out
}

func sortedBy(in []AgentAnalysis, less func(a, b AgentAnalysis) bool) []AgentAnalysis {
	out := make([]AgentAnalysis, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func refs(in []AgentAnalysis, value func(AgentAnalysis) float64) []AgentRef {
	n := highlightCount
	if len(in) < n {
		n = len(in)
	}
	out := make([]AgentRef, n)
	for i := 0; i < n; i++ {
		out[i] = AgentRef{ID: in[i].AgentID, Name: in[i].AgentName, Value: value(in[i])}
	}
	return out
}
