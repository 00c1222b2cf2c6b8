package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/okian/agentpulse/internal/adapters/marketplace"
	service "github.com/okian/agentpulse/internal/app"
	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func decode(raw string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		panic(err)
	}
	return out
}

func TestCatalogue(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(newFakeMarket(), service.WithClock(clock))

		Convey("Then every offering is listed with its price, cheapest first", func() {
			prices := map[string]float64{}
			var names []string
			for _, o := range svc.Offerings() {
				prices[o.Name()] = o.Price()
				names = append(names, o.Name())
			}
			So(prices, ShouldResemble, map[string]float64{
				service.HealthCheck:        0.25,
				service.AgentRiskFlags:     0.1,
				service.AgentScore:         0.05,
				service.ReputationReport:   1,
				service.CompetitorAnalysis: 200,
				service.CompetitorDeepDive: 500,
				service.MultiAgentReport:   100,
			})
			So(names[0], ShouldEqual, service.AgentScore)
			So(names[len(names)-1], ShouldEqual, service.CompetitorDeepDive)
		})

		Convey("Then unknown offerings are rejected", func() {
			_, err := svc.Validate("nope", nil)
			So(errors.Is(err, service.ErrUnknownOffering), ShouldBeTrue)
			_, err = svc.Execute(context.Background(), "nope", nil, model.JobContext{})
			So(errors.Is(err, service.ErrUnknownOffering), ShouldBeTrue)
		})
	})
}

func TestValidation(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(newFakeMarket(), service.WithClock(clock))
		check := func(name string, req model.Requirements) service.Validation {
			v, err := svc.Validate(name, req)
			So(err, ShouldBeNil)
			return v
		}

		Convey("Then health checks require an agent reference", func() {
			So(check(service.HealthCheck, model.Requirements{}).Valid, ShouldBeFalse)
			So(check(service.HealthCheck, model.Requirements{"agentId": float64(3212)}).Valid, ShouldBeTrue)
		})

		Convey("Then references must be strings or numbers", func() {
			v := check(service.AgentScore, model.Requirements{"agent_id": []any{"x"}})
			So(v.Valid, ShouldBeFalse)
			So(v.Reason, ShouldEqual, "agent_id must be a string or number")
		})

		Convey("Then score, risk and reputation may omit the reference", func() {
			So(check(service.AgentScore, model.Requirements{}).Valid, ShouldBeTrue)
			So(check(service.AgentRiskFlags, model.Requirements{}).Valid, ShouldBeTrue)
			So(check(service.ReputationReport, model.Requirements{}).Valid, ShouldBeTrue)
		})

		Convey("Then the reputation period is checked", func() {
			So(check(service.ReputationReport, model.Requirements{"period": "90d"}).Valid, ShouldBeTrue)
			v := check(service.ReputationReport, model.Requirements{"period": "1y"})
			So(v.Valid, ShouldBeFalse)
			So(v.Reason, ShouldContainSubstring, "7d, 30d, 90d")
		})

		Convey("Then competitor analyses require a target", func() {
			So(check(service.CompetitorAnalysis, model.Requirements{}).Reason, ShouldContainSubstring, "required")
			So(check(service.CompetitorDeepDive, model.Requirements{"target": "Pulse"}).Valid, ShouldBeTrue)
		})

		Convey("Then multi-agent reports take one to ten references", func() {
			So(check(service.MultiAgentReport, model.Requirements{}).Valid, ShouldBeFalse)
			So(check(service.MultiAgentReport, model.Requirements{"agent_ids": " ,; "}).Valid, ShouldBeFalse)
			So(check(service.MultiAgentReport, model.Requirements{"agent_ids": "1,2,3"}).Valid, ShouldBeTrue)
			v := check(service.MultiAgentReport, model.Requirements{"agent_ids": "1,2,3,4,5,6,7,8,9,10,11"})
			So(v.Valid, ShouldBeFalse)
			So(v.Reason, ShouldContainSubstring, "Got 11")
		})
	})
}

func TestRequestPayment(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(newFakeMarket(), service.WithClock(clock))
		pay := func(name string, req model.Requirements) string {
			msg, err := svc.RequestPayment(name, req)
			So(err, ShouldBeNil)
			return msg
		}

		Convey("Then each message names the agent and the price", func() {
			So(pay(service.HealthCheck, model.Requirements{"agent_id": "3212"}), ShouldEqual,
				"Health check requested for agent 3212 - 0.25 USDC")
			So(pay(service.AgentRiskFlags, model.Requirements{}), ShouldEqual, "Risk flags check for agent self - 0.1 USDC")
			So(pay(service.AgentScore, model.Requirements{"agent": float64(7)}), ShouldEqual, "Agent score for 7 - 0.05 USDC")
			So(pay(service.ReputationReport, model.Requirements{"agent_id": "7", "period": "7d"}), ShouldEqual,
				"Comprehensive reputation report requested for agent 7 (7d analysis) - 1 USDC")
			So(pay(service.CompetitorAnalysis, model.Requirements{"agent_id": "7"}), ShouldEqual,
				"Competitor analysis for agent 7 - 200 USDC")
			So(pay(service.CompetitorDeepDive, model.Requirements{"agent_id": "7"}), ShouldEndWith, "- 500 USDC")
			So(pay(service.MultiAgentReport, model.Requirements{"agent_ids": "1;2 3"}), ShouldEqual,
				"Multi-agent report for 3 agents - 100 USDC")
		})
	})
}

func TestSingleAgentOfferings(t *testing.T) {
	Convey("Given a marketplace with a healthy and a risky agent", t, func() {
		market := newFakeMarket()
		market.add(healthyAgent("3212", "Pulse"))
		market.add(riskyAgent("4029", "Shaky"))
		market.names["0x1111111111111111111111111111111111111111"] = "4029"
		sink := &fakeSink{}
		svc := service.New(market, service.WithSink(sink), service.WithClock(clock))
		ctx := context.Background()

		Convey("When a health check runs", func() {
			rep, err := svc.Execute(ctx, service.HealthCheck, model.Requirements{"agent_id": "3212"}, model.JobContext{JobID: "job_9"})

			Convey("Then the report scores the agent and the result is mirrored", func() {
				So(err, ShouldBeNil)
				out := decode(rep.Deliverable)
				So(out["health_score"], ShouldEqual, float64(100))
				So(out["status"], ShouldEqual, "healthy")
				So(out["human_summary"], ShouldEqual, rep.HumanSummary)
				So(rep.HumanSummary, ShouldContainSubstring, "HEALTH CHECK - Pulse")

				got := sink.delivered()
				So(got, ShouldHaveLength, 1)
				So(got[0].JobID, ShouldEqual, "job_9")
				So(got[0].Service, ShouldEqual, "Health Check")
				So(got[0].Price, ShouldEqual, 0.25)
				So(got[0].Score, ShouldEqual, float64(100))
				So(got[0].Metrics.JobsCompleted, ShouldEqual, 600)
			})
		})

		Convey("When risk flags run without a reference", func() {
			rep, err := svc.Execute(ctx, service.AgentRiskFlags, model.Requirements{},
				model.JobContext{ClientAddress: "0x1111111111111111111111111111111111111111"})

			Convey("Then the buyer's wallet is analyzed", func() {
				So(err, ShouldBeNil)
				out := decode(rep.Deliverable)
				So(out["agent_id"], ShouldEqual, "4029")
				So(out["flags"], ShouldContain, "high_concentration")
				So(out["verdict"], ShouldEqual, "high_risk")
				res := sink.delivered()[0]
				So(res.Status, ShouldEqual, "high_risk")
				So(res.Score, ShouldEqual, 100-out["risk_score"].(float64))
				So(res.Flags, ShouldContain, "high_concentration")
				So(res.Flags, ShouldHaveLength, len(out["flags"].([]any)))
			})
		})

		Convey("When an agent score runs by name", func() {
			rep, err := svc.Execute(ctx, service.AgentScore, model.Requirements{"target": "Pulse"}, model.JobContext{})

			Convey("Then the composite score is graded", func() {
				So(err, ShouldBeNil)
				out := decode(rep.Deliverable)
				So(out["agent_id"], ShouldEqual, "3212")
				So(out["grade"], ShouldNotBeEmpty)
				So(out, ShouldContainKey, "breakdown")
				So(sink.delivered()[0].Status, ShouldEqual, out["grade"])
			})
		})

		Convey("When a reputation report runs", func() {
			rep, err := svc.Execute(ctx, service.ReputationReport, model.Requirements{"agent_id": "3212", "period": "7d"}, model.JobContext{})

			Convey("Then the period and narratives are carried to the sink", func() {
				So(err, ShouldBeNil)
				out := decode(rep.Deliverable)
				So(out["period"], ShouldEqual, "7d")
				res := sink.delivered()[0]
				So(res.Period, ShouldEqual, "7d")
				So(res.Summary, ShouldNotBeEmpty)
				So(res.Trends, ShouldNotBeNil)
				So(res.CompetitivePosition, ShouldNotBeNil)
				So(res.Strengths, ShouldNotBeEmpty)
			})
		})

		Convey("When the reference cannot be resolved", func() {
			_, err := svc.Execute(ctx, service.HealthCheck, model.Requirements{"agent_id": "Nobody"}, model.JobContext{})

			Convey("Then a resolution error lists the accepted formats and nothing is mirrored", func() {
				So(errors.Is(err, marketplace.ErrAgentNotFound), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "profile URL")
				So(sink.delivered(), ShouldBeEmpty)
			})
		})

		Convey("When every fetch strategy fails", func() {
			market.broken["3212"] = true
			_, err := svc.Execute(ctx, service.AgentScore, model.Requirements{"agent_id": "3212"}, model.JobContext{})

			Convey("Then the error points at the public profile", func() {
				So(errors.Is(err, marketplace.ErrMetricsUnavailable), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "https://agdp.io/agent/3212")
			})
		})

		Convey("When requirements are invalid", func() {
			_, err := svc.Execute(ctx, service.ReputationReport, model.Requirements{"period": "1y"}, model.JobContext{})

			Convey("Then the job is rejected before any upstream call", func() {
				var verr *service.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				So(market.count(), ShouldEqual, 0)
			})
		})
	})
}

func board(n int) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, model.LeaderboardEntry{
			AgentID:       fmt.Sprintf("%d", 100+i),
			Name:          fmt.Sprintf("Peer %d", i),
			Rank:          i,
			Revenue:       float64(10000 - i*100),
			JobsCompleted: 1000 - i*10,
			SuccessRate:   95,
			UniqueBuyers:  50,
		})
	}
	return out
}

func TestCompetitorOfferings(t *testing.T) {
	Convey("Given a target on a twelve-agent leaderboard", t, func() {
		market := newFakeMarket()
		target := healthyAgent("105", "Peer 5")
		market.add(target)
		market.board = board(12)
		market.offerings["105"] = []model.Offering{{Name: "Health Check", Price: 1}}
		for _, e := range market.board {
			if e.AgentID == "105" {
				continue
			}
			market.add(model.AgentMetrics{
				AgentID: e.AgentID, AgentName: e.Name, Revenue: e.Revenue,
				JobsCompleted: e.JobsCompleted, SuccessRate: e.SuccessRate, UniqueBuyers: e.UniqueBuyers,
			})
			market.offerings[e.AgentID] = []model.Offering{{Name: "Health Check"}, {Name: "Swap"}}
		}
		sink := &fakeSink{}
		svc := service.New(market, service.WithSink(sink), service.WithClock(clock))
		ctx := context.Background()

		Convey("When a competitor analysis runs", func() {
			rep, err := svc.Execute(ctx, service.CompetitorAnalysis, model.Requirements{"agent_id": "105"}, model.JobContext{})

			Convey("Then ten peers are compared and the target is excluded", func() {
				So(err, ShouldBeNil)
				out := decode(rep.Deliverable)
				competitors := out["competitors"].([]any)
				So(competitors, ShouldHaveLength, 10)
				for _, c := range competitors {
					So(c.(map[string]any)["agent_id"], ShouldNotEqual, "105")
				}
				pos := out["market_position"].(map[string]any)
				So(pos["rank"], ShouldEqual, float64(5))
				So(pos["total_agents"], ShouldEqual, float64(12))

				res := sink.delivered()[0]
				So(res.Service, ShouldEqual, "Competitor Analysis")
				So(*res.Metrics.Rank, ShouldEqual, 5)
			})
		})

		Convey("When a deep dive runs and one peer cannot be fetched", func() {
			market.broken["104"] = true
			rep, err := svc.Execute(ctx, service.CompetitorDeepDive, model.Requirements{"agent_id": "105"}, model.JobContext{})

			Convey("Then the batch completes and the broken peer is marked", func() {
				So(err, ShouldBeNil)
				out := decode(rep.Deliverable)
				details := out["peer_details"].([]any)
				So(details, ShouldHaveLength, 10)
				available := 0
				seen := map[any]bool{}
				for _, d := range details {
					row := d.(map[string]any)
					So(seen[row["agent_id"]], ShouldBeFalse)
					seen[row["agent_id"]] = true
					if row["metrics_available"] == true {
						available++
					} else {
						So(row["agent_id"], ShouldEqual, "104")
					}
				}
				So(available, ShouldEqual, 9)
				gap := out["service_gap"].(map[string]any)
				So(gap["shared_services"], ShouldContain, "health check")
				So(gap["gap_services"], ShouldContain, "swap")
				So(sink.delivered()[0].Price, ShouldEqual, float64(500))
			})
		})

		Convey("When the leaderboard is unavailable", func() {
			market.board = nil
			_, err := svc.Execute(ctx, service.CompetitorAnalysis, model.Requirements{"agent_id": "105"}, model.JobContext{})

			Convey("Then the report fails explicitly", func() {
				So(errors.Is(err, service.ErrLeaderboardUnavailable), ShouldBeTrue)
				So(sink.delivered(), ShouldBeEmpty)
			})
		})
	})
}

func TestMultiAgentReport(t *testing.T) {
	Convey("Given seven known agents", t, func() {
		market := newFakeMarket()
		var refs []string
		for i := 1; i <= 7; i++ {
			id := fmt.Sprintf("%d", 3000+i)
			if i%2 == 0 {
				market.add(riskyAgent(id, "Agent "+id))
			} else {
				market.add(healthyAgent(id, "Agent "+id))
			}
			refs = append(refs, id)
		}
		sink := &fakeSink{}
		svc := service.New(market, service.WithSink(sink), service.WithClock(clock))
		ctx := context.Background()

		Convey("When eleven references are submitted", func() {
			many := append(append([]string{}, refs...), "1", "2", "3", "4")
			_, err := svc.Execute(ctx, service.MultiAgentReport,
				model.Requirements{"agent_ids": strings.Join(many, ",")}, model.JobContext{})

			Convey("Then validation rejects them without any upstream call", func() {
				So(errors.Is(err, service.ErrValidation), ShouldBeTrue)
				So(errors.Is(err, service.ErrTooManyAgents), ShouldBeTrue)
				So(market.count(), ShouldEqual, 0)
			})
		})

		Convey("When ten references are submitted and three cannot be resolved", func() {
			ten := append(append([]string{}, refs...), "GhostA", "GhostB", "GhostC")
			rep, err := svc.Execute(ctx, service.MultiAgentReport,
				model.Requirements{"agent_ids": strings.Join(ten, ",")}, model.JobContext{JobID: "job_m"})

			Convey("Then the seven others are reported with three errors", func() {
				So(err, ShouldBeNil)
				out := decode(rep.Deliverable)
				So(out["agents_analyzed"], ShouldEqual, float64(7))
				So(out["rankings"], ShouldHaveLength, 7)
				So(out["errors"], ShouldHaveLength, 3)
				So(out["errors"].([]any)[0], ShouldStartWith, "Agent GhostA:")

				res := sink.delivered()[0]
				So(res.AgentID, ShouldEqual, "portfolio")
				So(res.AgentName, ShouldEqual, "Portfolio (7 agents)")
				So(res.Metrics.JobsCompleted, ShouldEqual, 4*600+3*25)
			})
		})

		Convey("When a list with duplicates is submitted", func() {
			rep, err := svc.Execute(ctx, service.MultiAgentReport,
				model.Requirements{"agent_ids": []any{float64(3001), "3001", "3002"}}, model.JobContext{})

			Convey("Then each agent is analyzed once", func() {
				So(err, ShouldBeNil)
				So(decode(rep.Deliverable)["agents_analyzed"], ShouldEqual, float64(2))
			})
		})

		Convey("When no reference can be analyzed", func() {
			market.broken["3001"] = true
			_, err := svc.Execute(ctx, service.MultiAgentReport,
				model.Requirements{"agents": "3001 Ghost"}, model.JobContext{})

			Convey("Then the batch fails with every per-agent error", func() {
				So(errors.Is(err, service.ErrNoAgentsAnalyzed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Agent 3001:")
				So(err.Error(), ShouldContainSubstring, "Agent Ghost:")
				So(sink.delivered(), ShouldBeEmpty)
			})
		})
	})
}
