package scoring

import (
	"sort"
	"strings"

	"github.com/okian/agentpulse/internal/domain/model"
)

// Threat levels.
const (
	ThreatHigh   = "high"
	ThreatMedium = "medium"
	ThreatLow    = "low"
)

// PeerIntel is a peer's full metrics as fetched for the deep dive.
// Available is false when the fetch failed; the peer is then assessed on
// its leaderboard row alone.
type PeerIntel struct {
	Metrics   model.AgentMetrics
	Available bool
}

// PeerDetail extends a Peer with efficiency figures and a threat assessment.
type PeerDetail struct {
	Peer
	RevenuePerJob    float64  `json:"revenue_per_job"`
	RevenuePerBuyer  float64  `json:"revenue_per_buyer"`
	ThreatScore      int      `json:"threat_score"`
	ThreatLevel      string   `json:"threat_level"`
	Offerings        []string `json:"offerings"`
	SharedServices   []string `json:"shared_services"`
	MetricsAvailable bool     `json:"metrics_available"`
}

// ServiceGap compares the target's service names with its peers'.
type ServiceGap struct {
	Shared []string `json:"shared_services"`
	Unique []string `json:"unique_services"`
	Gaps   []string `json:"gap_services"`
}

// ThreatSummary counts peers per threat level.
type ThreatSummary struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// DeepDiveResult is the premium competitor analysis.
type DeepDiveResult struct {
	CompetitorResult
	PeerDetails   []PeerDetail  `json:"peer_details"`
	ThreatSummary ThreatSummary `json:"threat_summary"`
	ServiceGap    ServiceGap    `json:"service_gap"`
}

// Threat scores how strongly peer competes with target:
// outranks +2, revenue >20% higher +2, jobs >50% higher +1,
// success rate >3pp higher +1.
func Threat(target, peer model.LeaderboardEntry) (score int, level string) {
	if peer.Rank > 0 && peer.Rank < target.Rank {
		score += 2
	}
	if peer.Revenue > target.Revenue*1.2 {
		score += 2
	}
	if float64(peer.JobsCompleted) > float64(target.JobsCompleted)*1.5 {
		score++
	}
	if peer.SuccessRate > target.SuccessRate+3 {
		score++
	}
	switch {
	case score >= 4:
		level = ThreatHigh
	case score >= 2:
		level = ThreatMedium
	default:
		level = ThreatLow
	}
	return score, level
}

// DeepDive runs the base comparison and then assesses each peer using its
// fetched metrics and offerings. intel is keyed by peer agent id.
func DeepDive(m model.AgentMetrics, board []model.LeaderboardEntry, intel map[string]PeerIntel) DeepDiveResult {
	base := CompareCompetitors(m, board)
	target := TargetEntry(m)
	targetServices := serviceNames(m.Offerings)

	res := DeepDiveResult{
		CompetitorResult: base,
		PeerDetails:      make([]PeerDetail, 0, len(base.Competitors)),
	}

	peerServices := make([][]string, 0, len(base.Competitors))
	for _, p := range base.Competitors {
		row := model.LeaderboardEntry{
			AgentID:       p.AgentID,
			Name:          p.Name,
			Rank:          p.Rank,
			Revenue:       p.Revenue,
			JobsCompleted: p.Jobs,
			SuccessRate:   p.SuccessRate,
			UniqueBuyers:  p.UniqueBuyers,
		}
		d := PeerDetail{Peer: p, Offerings: []string{}, SharedServices: []string{}}
		if in, ok := intel[p.AgentID]; ok && in.Available {
			d.MetricsAvailable = true
			row.Revenue = in.Metrics.Revenue
			row.JobsCompleted = in.Metrics.JobsCompleted
			row.SuccessRate = in.Metrics.SuccessRate
			row.UniqueBuyers = in.Metrics.UniqueBuyers
			d.Offerings = serviceNames(in.Metrics.Offerings)
			d.SharedServices = intersect(targetServices, d.Offerings)
			peerServices = append(peerServices, d.Offerings)
		}
		d.RevenuePerJob = row.RevenuePerJob()
		if row.UniqueBuyers > 0 {
			d.RevenuePerBuyer = row.Revenue / float64(row.UniqueBuyers)
		}
		d.ThreatScore, d.ThreatLevel = Threat(target, row)
		switch d.ThreatLevel {
		case ThreatHigh:
			res.ThreatSummary.High++
		case ThreatMedium:
			res.ThreatSummary.Medium++
		default:
			res.ThreatSummary.Low++
		}
		res.PeerDetails = append(res.PeerDetails, d)
	}

	res.ServiceGap = Gap(targetServices, peerServices)
	return res
}

// Gap computes shared, target-only and peer-only service names.
func Gap(target []string, peers [][]string) ServiceGap {
	mine := make(map[string]struct{}, len(target))
	for _, s := range target {
		mine[s] = struct{}{}
	}
	theirs := map[string]struct{}{}
	for _, list := range peers {
		for _, s := range list {
			theirs[s] = struct{}{}
		}
	}

	gap := ServiceGap{Shared: []string{}, Unique: []string{}, Gaps: []string{}}
	for s := range mine {
		if _, ok := theirs[s]; ok {
			gap.Shared = append(gap.Shared, s)
		} else {
			gap.Unique = append(gap.Unique, s)
		}
	}
	for s := range theirs {
		if _, ok := mine[s]; !ok {
			gap.Gaps = append(gap.Gaps, s)
		}
	}
	sort.Strings(gap.Shared)
	sort.Strings(gap.Unique)
	sort.Strings(gap.Gaps)
	return gap
}

func serviceNames(offerings []model.Offering) []string {
	seen := make(map[string]struct{}, len(offerings))
	out := make([]string, 0, len(offerings))
	for _, o := range offerings {
		name := strings.ToLower(strings.TrimSpace(o.Name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	out := []string{}
	for _, s := range b {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
