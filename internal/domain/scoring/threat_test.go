package scoring_test

import (
	"testing"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestThreat(t *testing.T) {
	Convey("Given a target ranked fifth", t, func() {
		target := model.LeaderboardEntry{Rank: 5, Revenue: 1000, JobsCompleted: 100, SuccessRate: 90}

		Convey("A peer ahead on every axis is a high threat", func() {
			score, level := scoring.Threat(target, model.LeaderboardEntry{Rank: 2, Revenue: 1300, JobsCompleted: 160, SuccessRate: 95})
			So(score, ShouldEqual, 6)
			So(level, ShouldEqual, scoring.ThreatHigh)
		})

		Convey("A peer that only outranks is a medium threat", func() {
			score, level := scoring.Threat(target, model.LeaderboardEntry{Rank: 4, Revenue: 1000, JobsCompleted: 100, SuccessRate: 90})
			So(score, ShouldEqual, 2)
			So(level, ShouldEqual, scoring.ThreatMedium)
		})

		Convey("Thresholds are strict", func() {
			score, level := scoring.Threat(target, model.LeaderboardEntry{Rank: 9, Revenue: 1200, JobsCompleted: 150, SuccessRate: 93})
			So(score, ShouldEqual, 0)
			So(level, ShouldEqual, scoring.ThreatLow)
		})

		Convey("An unranked peer never outranks", func() {
			score, _ := scoring.Threat(target, model.LeaderboardEntry{Rank: 0, JobsCompleted: 151})
			So(score, ShouldEqual, 1)
		})
	})
}

func TestGap(t *testing.T) {
	Convey("Given target and peer service names", t, func() {
		gap := scoring.Gap(
			[]string{"swap", "audit"},
			[][]string{{"swap", "bridge"}, {"yield", "bridge"}},
		)

		Convey("Then names are split into shared, unique and gaps, sorted", func() {
			So(gap.Shared, ShouldResemble, []string{"swap"})
			So(gap.Unique, ShouldResemble, []string{"audit"})
			So(gap.Gaps, ShouldResemble, []string{"bridge", "yield"})
		})
	})

	Convey("Given no peers", t, func() {
		gap := scoring.Gap([]string{"swap"}, nil)

		Convey("Then every target service is unique and lists are never nil", func() {
			So(gap.Unique, ShouldResemble, []string{"swap"})
			So(gap.Shared, ShouldNotBeNil)
			So(gap.Gaps, ShouldBeEmpty)
		})
	})
}

func TestThreatDeepDive(t *testing.T) {
	Convey("Given a leaderboard and intel for one peer", t, func() {
		board := leaderboard(12)
		m := model.AgentMetrics{
			AgentID: "105", AgentName: "agent-5", Rank: model.IntPtr(6),
			Revenue: 750, JobsCompleted: 400, SuccessRate: 95, UniqueBuyers: 20,
			Offerings: []model.Offering{{Name: "Swap"}, {Name: "Audit"}},
		}
		intel := map[string]scoring.PeerIntel{
			"104": {Available: true, Metrics: model.AgentMetrics{
				Revenue: 5000, JobsCompleted: 900, SuccessRate: 99, UniqueBuyers: 50,
				Offerings: []model.Offering{{Name: "swap"}, {Name: "Bridge"}},
			}},
		}

		res := scoring.DeepDive(m, board, intel)

		Convey("Then every competitor gets a detail and a threat level", func() {
			So(res.PeerDetails, ShouldHaveLength, len(res.Competitors))
			total := res.ThreatSummary.High + res.ThreatSummary.Medium + res.ThreatSummary.Low
			So(total, ShouldEqual, len(res.PeerDetails))
		})

		Convey("Then the fetched peer uses its live metrics", func() {
			var found bool
			for _, d := range res.PeerDetails {
				if d.AgentID != "104" {
					So(d.MetricsAvailable, ShouldBeFalse)
					continue
				}
				found = true
				So(d.MetricsAvailable, ShouldBeTrue)
				So(d.ThreatLevel, ShouldEqual, scoring.ThreatHigh)
				So(d.SharedServices, ShouldResemble, []string{"swap"})
				So(d.RevenuePerBuyer, ShouldEqual, 100)
			}
			So(found, ShouldBeTrue)
			So(res.ServiceGap.Gaps, ShouldResemble, []string{"bridge"})
			So(res.ServiceGap.Unique, ShouldResemble, []string{"audit"})
		})
	})
}
