package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestReputation(t *testing.T) {
	Convey("Given the reputation engine", t, func() {
		Convey("When the agent saturates every component", func() {
			m := model.AgentMetrics{
				SuccessRate:   100,
				JobsCompleted: 999,
				Revenue:       9999,
				Rating:        5,
				UniqueBuyers:  999,
				LastActivity:  ago(2 * time.Hour),
				Offerings: []model.Offering{
					{Name: "token_scan", Price: 0.3}, {Name: "b", Price: 0.3}, {Name: "c", Price: 0.3},
					{Name: "d", Price: 0.3}, {Name: "e", Price: 0.3},
				},
			}
			res := scoring.Reputation(m, "", now)

			Convey("Then the blended score and narrative reflect it", func() {
				So(res.Score, ShouldEqual, 98)
				So(res.Status, ShouldEqual, "excellent")
				So(res.Period, ShouldEqual, scoring.DefaultPeriod)
				So(res.Summary, ShouldStartWith, "Excellent agent")
				So(res.Trends, ShouldResemble, scoring.Trends{
					JobsGrowth: "high activity", RevenueGrowth: "strong revenue", RatingTrend: "excellent",
				})
				So(res.Strengths, ShouldContain, "Excellent success rate (100.0%)")
				So(res.Strengths, ShouldContain, "High activity - recently completed jobs")
				So(res.Strengths, ShouldContain, "Diverse service portfolio with multiple offerings")
				So(res.Weaknesses, ShouldResemble, []string{"No significant weaknesses identified"})
				So(res.CompetitivePosition.Category, ShouldEqual, "analytics")
				So(res.CompetitivePosition.PricingVsMarket, ShouldEqual, "budget")
				So(res.Recommendations[len(res.Recommendations)-1], ShouldContainSubstring, "health_check")
			})
		})

		Convey("When the agent has no data", func() {
			res := scoring.Reputation(model.AgentMetrics{}, scoring.Period7d, now)

			Convey("Then it is struggling with placeholder strengths", func() {
				So(res.Score, ShouldEqual, 0)
				So(res.Status, ShouldEqual, "struggling")
				So(res.Period, ShouldEqual, "7d")
				So(res.Strengths, ShouldResemble, []string{"Building reputation - room for growth"})
				So(res.Weaknesses, ShouldContain, "Low recent activity - possible downtime")
				So(res.CompetitivePosition.Category, ShouldEqual, "general")
				So(res.CompetitivePosition.PricingVsMarket, ShouldEqual, "competitive")
				So(res.CompetitivePosition.Rank, ShouldBeNil)
			})
		})

		Convey("Then pricing tiers follow the mean offering price", func() {
			price := func(p float64) string {
				return scoring.Position(model.AgentMetrics{Offerings: []model.Offering{{Name: "content_pack", Price: p}}}).PricingVsMarket
			}
			So(price(0.49), ShouldEqual, "budget")
			So(price(1.99), ShouldEqual, "competitive")
			So(price(4.99), ShouldEqual, "premium")
			So(price(5), ShouldEqual, "luxury")
		})

		Convey("Then only known periods are valid", func() {
			So(scoring.ValidPeriod("7d"), ShouldBeTrue)
			So(scoring.ValidPeriod("90d"), ShouldBeTrue)
			So(scoring.ValidPeriod("1y"), ShouldBeFalse)
		})
	})
}
