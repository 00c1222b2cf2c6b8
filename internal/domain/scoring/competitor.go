package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/agentpulse/internal/domain/model"
)

const (
	// unrankedPosition stands in for a target missing from the leaderboard.
	unrankedPosition = 9999
	// PeerCount is the number of nearest peers reported.
	PeerCount = 10
)

// Comparison labels.
const (
	Above = "above"
	Below = "below"
	OnPar = "on_par"
)

// MarketPosition places the target within the full leaderboard.
type MarketPosition struct {
	RevenuePercentile     int `json:"revenue_percentile"`
	JobsPercentile        int `json:"jobs_percentile"`
	SuccessRatePercentile int `json:"success_rate_percentile"`
	BuyersPercentile      int `json:"buyers_percentile"`
	EfficiencyPercentile  int `json:"efficiency_percentile"`
	Rank                  int `json:"rank"`
	TotalAgents           int `json:"total_agents"`
}

// VsCompetitors compares the target with the mean of its nearest peers.
type VsCompetitors struct {
	Revenue        string  `json:"revenue"`
	Jobs           string  `json:"jobs"`
	SuccessRate    string  `json:"success_rate"`
	AvgRevenue     float64 `json:"avg_revenue"`
	AvgJobs        float64 `json:"avg_jobs"`
	AvgSuccessRate float64 `json:"avg_success_rate"`
}

// Peer is one of the target's nearest leaderboard neighbours.
type Peer struct {
	AgentID      string  `json:"agent_id"`
	Name         string  `json:"name"`
	Rank         int     `json:"rank"`
	Revenue      float64 `json:"revenue"`
	Jobs         int     `json:"jobs"`
	SuccessRate  float64 `json:"success_rate"`
	UniqueBuyers int     `json:"unique_buyers"`
	Similarity   float64 `json:"similarity"`
}

// CompetitorResult is the output of the competitor engine.
type CompetitorResult struct {
	AgentID         string         `json:"agent_id"`
	AgentName       string         `json:"agent_name"`
	Score           int            `json:"score"`
	Status          string         `json:"status"`
	MarketPosition  MarketPosition `json:"market_position"`
	VsCompetitors   VsCompetitors  `json:"vs_competitors"`
	Competitors     []Peer         `json:"competitors"`
	Strengths       []string       `json:"strengths"`
	Weaknesses      []string       `json:"weaknesses"`
	Recommendations []string       `json:"recommendations"`
}

// TargetEntry projects the target's metrics onto a leaderboard row.
// A missing rank becomes 9999.
func TargetEntry(m model.AgentMetrics) model.LeaderboardEntry {
	rank := unrankedPosition
	if m.Rank != nil {
		rank = *m.Rank
	}
	return model.LeaderboardEntry{
		AgentID:       m.AgentID,
		Name:          m.AgentName,
		Rank:          rank,
		Revenue:       m.Revenue,
		JobsCompleted: m.JobsCompleted,
		SuccessRate:   m.SuccessRate,
		UniqueBuyers:  m.UniqueBuyers,
	}
}

// Percentile returns the rounded share of values strictly below value.
func Percentile(value float64, values []float64) int {
	if len(values) == 0 {
		return 0
	}
	below := 0
	for _, v := range values {
		if v < value {
			below++
		}
	}
	return int(math.Round(float64(below) / float64(len(values)) * 100))
}

// Similarity is 1 / (1 + relative revenue gap + relative job gap + rank gap/1000).
func Similarity(target, other model.LeaderboardEntry) float64 {
	revDiff := math.Abs(other.Revenue-target.Revenue) / math.Max(target.Revenue, 1)
	jobDiff := math.Abs(float64(other.JobsCompleted-target.JobsCompleted)) / math.Max(float64(target.JobsCompleted), 1)
	rankDiff := math.Abs(float64(other.Rank-target.Rank)) / 1000
	return 1 / (1 + revDiff + jobDiff + rankDiff)
}

// NearestPeers returns up to n leaderboard rows most similar to target,
// never including the target itself.
func NearestPeers(target model.LeaderboardEntry, board []model.LeaderboardEntry, n int) []Peer {
	peers := make([]Peer, 0, len(board))
	for _, e := range board {
		if e.AgentID == target.AgentID {
			continue
		}
		peers = append(peers, Peer{
			AgentID:      e.AgentID,
			Name:         e.Name,
			Rank:         e.Rank,
			Revenue:      e.Revenue,
			Jobs:         e.JobsCompleted,
			SuccessRate:  e.SuccessRate,
			UniqueBuyers: e.UniqueBuyers,
			Similarity:   Similarity(target, e),
		})
	}
	sort.SliceStable(peers, func(i, j int) bool { return peers[i].Similarity > peers[j].Similarity })
	if len(peers) > n {
		peers = peers[:n]
	}
	return peers
}

// CompareCompetitors positions target against the leaderboard and its nearest peers.
func CompareCompetitors(m model.AgentMetrics, board []model.LeaderboardEntry) CompetitorResult {
	target := TargetEntry(m)
	peers := NearestPeers(target, board, PeerCount)

	revenues := make([]float64, len(board))
	jobs := make([]float64, len(board))
	rates := make([]float64, len(board))
	buyers := make([]float64, len(board))
	efficiency := make([]float64, len(board))
	for i, e := range board {
		revenues[i] = e.Revenue
		jobs[i] = float64(e.JobsCompleted)
		rates[i] = e.SuccessRate
		buyers[i] = float64(e.UniqueBuyers)
		efficiency[i] = e.RevenuePerJob()
	}

	pos := MarketPosition{
		RevenuePercentile:     Percentile(target.Revenue, revenues),
		JobsPercentile:        Percentile(float64(target.JobsCompleted), jobs),
		SuccessRatePercentile: Percentile(target.SuccessRate, rates),
		BuyersPercentile:      Percentile(float64(target.UniqueBuyers), buyers),
		EfficiencyPercentile:  Percentile(target.RevenuePerJob(), efficiency),
		Rank:                  target.Rank,
		TotalAgents:           len(board),
	}

	vs := compareWithPeers(target, peers)
	strengths, weaknesses := positionFindings(target, pos)

	return CompetitorResult{
		AgentID:         target.AgentID,
		AgentName:       target.Name,
		Score:           int(math.Round(float64(pos.RevenuePercentile+pos.JobsPercentile+pos.SuccessRatePercentile) / 3)),
		Status:          competitorStatus(pos.RevenuePercentile),
		MarketPosition:  pos,
		VsCompetitors:   vs,
		Competitors:     peers,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Recommendations: competitorRecommendations(target, vs, len(strengths)),
	}
}

func compareWithPeers(target model.LeaderboardEntry, peers []Peer) VsCompetitors {
	rev := make([]float64, len(peers))
	jobs := make([]float64, len(peers))
	rates := make([]float64, len(peers))
	for i, p := range peers {
		rev[i] = p.Revenue
		jobs[i] = float64(p.Jobs)
		rates[i] = p.SuccessRate
	}
	vs := VsCompetitors{AvgRevenue: mean(rev), AvgJobs: mean(jobs), AvgSuccessRate: mean(rates)}
	vs.Revenue = relative(target.Revenue, vs.AvgRevenue, vs.AvgRevenue*0.8)
	vs.Jobs = relative(float64(target.JobsCompleted), vs.AvgJobs, vs.AvgJobs*0.8)
	vs.SuccessRate = relative(target.SuccessRate, vs.AvgSuccessRate, vs.AvgSuccessRate-5)
	return vs
}

func relative(v, avg, floor float64) string {
	switch {
	case v > avg:
		return Above
	case v < floor:
		return Below
	default:
		return OnPar
	}
}

func positionFindings(t model.LeaderboardEntry, pos MarketPosition) (strengths, weaknesses []string) {
	strengths, weaknesses = []string{}, []string{}
	switch {
	case pos.RevenuePercentile >= 75:
		strengths = append(strengths, fmt.Sprintf("Top %d%% in revenue ($%.2f)", 100-pos.RevenuePercentile, t.Revenue))
	case pos.RevenuePercentile < 40:
		weaknesses = append(weaknesses, fmt.Sprintf("Revenue below average (percentile: %d%%)", pos.RevenuePercentile))
	}
	switch {
	case pos.JobsPercentile >= 75:
		strengths = append(strengths, fmt.Sprintf("Top %d%% in job volume (%d jobs)", 100-pos.JobsPercentile, t.JobsCompleted))
	case pos.JobsPercentile < 40:
		weaknesses = append(weaknesses, fmt.Sprintf("Job volume below average (percentile: %d%%)", pos.JobsPercentile))
	}
	switch {
	case t.SuccessRate >= 95:
		strengths = append(strengths, fmt.Sprintf("Excellent success rate: %.1f%%", t.SuccessRate))
	case t.SuccessRate < 85:
		weaknesses = append(weaknesses, fmt.Sprintf("Success rate needs improvement: %.1f%%", t.SuccessRate))
	}
	switch {
	case pos.BuyersPercentile >= 75:
		strengths = append(strengths, fmt.Sprintf("Strong buyer diversity: %d unique buyers", t.UniqueBuyers))
	case pos.BuyersPercentile < 40:
		weaknesses = append(weaknesses, fmt.Sprintf("Low buyer diversity: %d unique buyers", t.UniqueBuyers))
	}
	if pos.EfficiencyPercentile >= 75 {
		strengths = append(strengths, fmt.Sprintf("Top %d%% in revenue per job ($%.2f/job)", 100-pos.EfficiencyPercentile, t.RevenuePerJob()))
	}
	switch {
	case t.Rank > 0 && t.Rank <= 25:
		strengths = append(strengths, fmt.Sprintf("Elite ranking: #%d", t.Rank))
	case t.Rank > 0 && t.Rank <= 100:
		strengths = append(strengths, fmt.Sprintf("Strong ranking: #%d", t.Rank))
	}
	return strengths, weaknesses
}

func competitorRecommendations(t model.LeaderboardEntry, vs VsCompetitors, strengths int) []string {
	out := []string{}
	if vs.Revenue == Below {
		gap := math.Round((vs.AvgRevenue - t.Revenue) / math.Max(vs.AvgRevenue, 1) * 100)
		out = append(out, fmt.Sprintf("Revenue is %.0f%% below competitors. Consider lowering prices to attract more volume, or adding premium offerings.", gap))
	}
	if vs.Jobs == Below {
		out = append(out, "Job volume is below competitors. Improve discoverability: update description with more triggers, ensure fast SLA.")
	}
	if vs.SuccessRate == Below {
		out = append(out, fmt.Sprintf("Success rate (%.1f%%) is below competitor average (%.1f%%). Fix error handling in offerings.", t.SuccessRate, vs.AvgSuccessRate))
	}
	if t.UniqueBuyers < 10 {
		out = append(out, "Diversify buyer base. Currently relying on few buyers, high concentration risk.")
	}
	if strengths == 0 {
		out = append(out, "No clear competitive advantages found. Focus on one metric (speed, price, or quality) to differentiate.")
	}
	if vs.Revenue == Above && vs.Jobs == Above {
		out = append(out, "Outperforming competitors on revenue and volume. Consider raising prices to maximize margin.")
	}
	return out
}

func competitorStatus(revenuePercentile int) string {
	switch {
	case revenuePercentile >= 75:
		return "strong"
	case revenuePercentile >= 40:
		return "average"
	default:
		return "weak"
	}
}
