package marketplace_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/agentpulse/internal/adapters/marketplace"
	"github.com/okian/agentpulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const scrapedPage = `<html><body>
<h1> Scraped Bot </h1>
<div class="stats">
  <div class="jobs-completed">1,204 jobs</div>
  <div class="revenue">$3,400.25</div>
  <div class="unique-buyers">37</div>
  <div class="success-rate">97.5%</div>
</div>
</body></html>`

const textOnlyPage = `<html><body>
<p>Jobs Completed <span>42</span></p>
<p>Revenue <b>$1,250.50</b></p>
<p>Unique Buyers: 9</p>
</body></html>`

func TestFetchMetricsFromAPI(t *testing.T) {
	Convey("Given an upstream with metrics, ranking and offerings", t, func() {
		u := newUpstream(t)
		u.metrics["3212"] = `{"data":{
			"name":"Pulse",
			"successfulJobCount":90,
			"totalJobCount":100,
			"successRate":0,
			"uniqueBuyerCount":12,
			"revenue":"1,234.5",
			"rating":null,
			"lastActiveAt":"2999-12-31T00:00:00.000Z"}}`
		u.epochs = `{"data":[{"id":3,"status":"ACTIVE"}]}`
		u.ranking = `{"data":[{"agentId":99,"rank":1},{"agentId":3212,"rank":7,"name":"Pulse"}]}`
		u.offerings["3212"] = `{"data":[{"name":"health_check","price":0.25,"slaMinutes":5},{"name":""}]}`
		c := u.client()

		Convey("When fetching metrics", func() {
			m, err := c.FetchMetrics(context.Background(), "3212")

			Convey("Then the record is normalized without invented values", func() {
				So(err, ShouldBeNil)
				So(m.DataSource, ShouldEqual, model.SourceAPI)
				So(m.AgentName, ShouldEqual, "Pulse")
				So(m.SuccessRate, ShouldEqual, 90)
				So(m.JobsCompleted, ShouldEqual, 90)
				So(m.Revenue, ShouldEqual, 1234.5)
				So(m.Rating, ShouldEqual, 0)
				So(m.LastActivity, ShouldBeNil)
			})

			Convey("Then rank and offerings are enriched", func() {
				So(m.Rank, ShouldNotBeNil)
				So(*m.Rank, ShouldEqual, 7)
				So(m.Offerings, ShouldResemble, []model.Offering{{Name: "health_check", Price: 0.25, SLAMinutes: 5}})
				So(u.lastRankPath(), ShouldContainSubstring, "/api/agdp-leaderboard-epochs/3/ranking")
				So(u.lastRankPath(), ShouldContainSubstring, "pageSize%5D=1000")
			})

			Convey("Then the configured user agent is sent", func() {
				So(u.lastUserAgent(), ShouldEqual, "AgentPulse/1.0")
				So(u.count("profile"), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an upstream whose leaderboard is down", t, func() {
		u := newUpstream(t)
		u.metrics["5"] = `{"data":{"name":"Five","successfulJobCount":3,"totalJobCount":0,"lastActiveAt":"2026-10-01T10:00:00.000Z"}}`
		c := u.client(marketplace.WithDefaultEpoch(4))

		Convey("When fetching metrics", func() {
			m, err := c.FetchMetrics(context.Background(), "5")

			Convey("Then rank is absent and the fetch still succeeds", func() {
				So(err, ShouldBeNil)
				So(m.Rank, ShouldBeNil)
				So(m.Offerings, ShouldNotBeNil)
				So(m.Offerings, ShouldBeEmpty)
				So(m.SuccessRate, ShouldEqual, 0)
				So(m.LastActivity, ShouldNotBeNil)
				So(m.LastActivity.Day(), ShouldEqual, 1)
			})
		})
	})
}

func TestFetchMetricsFallbacks(t *testing.T) {
	Convey("Given an upstream with an empty metrics payload", t, func() {
		u := newUpstream(t)
		u.metrics["10"] = `{"data":{}}`
		u.pages["10"] = scrapedPage
		c := u.client()

		Convey("When fetching metrics", func() {
			m, err := c.FetchMetrics(context.Background(), "10")

			Convey("Then the page is scraped with CSS selectors", func() {
				So(err, ShouldBeNil)
				So(m.DataSource, ShouldEqual, model.SourceScraping)
				So(m.AgentName, ShouldEqual, "Scraped Bot")
				So(m.JobsCompleted, ShouldEqual, 1204)
				So(m.Revenue, ShouldEqual, 3400.25)
				So(m.UniqueBuyers, ShouldEqual, 37)
				So(m.SuccessRate, ShouldEqual, 97.5)
				So(m.Rank, ShouldBeNil)
				So(u.count("ranking"), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a failing API and a page with only loose text", t, func() {
		u := newUpstream(t)
		u.pages["11"] = textOnlyPage
		c := u.client()

		Convey("When fetching metrics", func() {
			m, err := c.FetchProfile(context.Background(), "11")

			Convey("Then text patterns recover the numbers from one download", func() {
				So(err, ShouldBeNil)
				So(m.DataSource, ShouldEqual, model.SourceScraping)
				So(m.AgentName, ShouldEqual, "Agent 11")
				So(m.JobsCompleted, ShouldEqual, 42)
				So(m.Revenue, ShouldEqual, 1250.5)
				So(m.UniqueBuyers, ShouldEqual, 9)
				So(u.count("profile"), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an agent no source knows", t, func() {
		u := newUpstream(t)
		u.pages["77"] = `<html><body><h1>Empty</h1><div class="revenue">n/a</div></body></html>`
		c := u.client()

		Convey("When fetching metrics", func() {
			_, err := c.FetchMetrics(context.Background(), "77")

			Convey("Then a fetch-exhausted error points at the profile", func() {
				var ferr *marketplace.FetchExhaustedError
				So(errors.As(err, &ferr), ShouldBeTrue)
				So(errors.Is(err, marketplace.ErrMetricsUnavailable), ShouldBeTrue)
				So(ferr.ProfileURL, ShouldEqual, u.server.URL+"/agent/77")
				So(err.Error(), ShouldContainSubstring, "verify the agent manually")
				So(u.count("profile"), ShouldEqual, 1)
				So(u.count("offerings"), ShouldEqual, 0)
			})
		})
	})
}

func TestLeaderboardAndOfferings(t *testing.T) {
	Convey("Given an upstream ranking without an active epoch", t, func() {
		u := newUpstream(t)
		u.ranking = `{"data":[
			{"agentId":"1","name":"One","rank":1,"revenue":900,"successfulJobCount":300,"successRate":98,"uniqueBuyerCount":80},
			{"agentId":2,"rank":2,"revenue":"450.5","successfulJobCount":"120"},
			{"name":"no id"}]}`
		c := u.client(marketplace.WithDefaultEpoch(4), marketplace.WithPageSize(50))

		Convey("When fetching the leaderboard", func() {
			board := c.FetchLeaderboard(context.Background())

			Convey("Then rows are normalized and the default epoch is used", func() {
				So(board, ShouldHaveLength, 2)
				So(board[0], ShouldResemble, model.LeaderboardEntry{
					AgentID: "1", Name: "One", Rank: 1, Revenue: 900, JobsCompleted: 300, SuccessRate: 98, UniqueBuyers: 80,
				})
				So(board[1].AgentID, ShouldEqual, "2")
				So(board[1].Name, ShouldEqual, "Agent 2")
				So(board[1].Revenue, ShouldEqual, 450.5)
				So(u.lastRankPath(), ShouldContainSubstring, "/api/agdp-leaderboard-epochs/4/ranking")
				So(u.lastRankPath(), ShouldContainSubstring, "pageSize%5D=50")
			})

			Convey("Then RankOf finds ranked agents only", func() {
				So(*marketplace.RankOf(board, "2"), ShouldEqual, 2)
				So(marketplace.RankOf(board, "3"), ShouldBeNil)
			})
		})
	})

	Convey("Given an upstream that is down", t, func() {
		u := newUpstream(t)
		c := u.client()

		Convey("Then the leaderboard and offerings are empty, not errors", func() {
			board := c.FetchLeaderboard(context.Background())
			So(board, ShouldNotBeNil)
			So(board, ShouldBeEmpty)

			offerings := c.FetchOfferings(context.Background(), "1")
			So(offerings, ShouldNotBeNil)
			So(offerings, ShouldBeEmpty)
		})
	})
}

func TestFetchMetricsOddPayloads(t *testing.T) {
	Convey("Given counts far beyond any real agent", t, func() {
		u := newUpstream(t)
		u.metrics["20"] = `{"data":{"name":"Huge","successfulJobCount":1e20,"totalJobCount":2e20,"uniqueBuyerCount":3e19,"revenue":10}}`
		c := u.client()

		Convey("When fetching the profile", func() {
			m, err := c.FetchProfile(context.Background(), "20")

			Convey("Then counts are capped, never negative", func() {
				So(err, ShouldBeNil)
				So(m.DataSource, ShouldEqual, model.SourceAPI)
				So(m.JobsCompleted, ShouldEqual, math.MaxInt32)
				So(m.UniqueBuyers, ShouldEqual, math.MaxInt32)
				So(m.SuccessRate, ShouldBeBetweenOrEqual, 0, 100)
			})
		})
	})

	Convey("Given a payload with fields of the wrong JSON type", t, func() {
		u := newUpstream(t)
		u.metrics["21"] = `{"data":{"name":"Odd","successfulJobCount":120,"revenue":50,"rating":{"avg":4.5},
			"uniqueBuyerCount":true,"totalJobCount":[1,2],"lastActiveAt":{"at":1},"successRate":1e999}}`
		c := u.client()

		Convey("When fetching the profile", func() {
			m, err := c.FetchProfile(context.Background(), "21")

			Convey("Then the odd fields become zero and the rest is kept", func() {
				So(err, ShouldBeNil)
				So(m.DataSource, ShouldEqual, model.SourceAPI)
				So(m.AgentName, ShouldEqual, "Odd")
				So(m.JobsCompleted, ShouldEqual, 120)
				So(m.Revenue, ShouldEqual, 50)
				So(m.Rating, ShouldEqual, 0)
				So(m.UniqueBuyers, ShouldEqual, 0)
				So(m.SuccessRate, ShouldEqual, 0)
				So(m.LastActivity, ShouldBeNil)
				So(u.count("profile"), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a non-string name", t, func() {
		u := newUpstream(t)
		u.metrics["22"] = `{"data":{"name":{"first":"x"},"successfulJobCount":5}}`
		c := u.client()

		Convey("Then the placeholder name is used", func() {
			m, err := c.FetchProfile(context.Background(), "22")
			So(err, ShouldBeNil)
			So(m.AgentName, ShouldEqual, "Agent 22")
			So(m.JobsCompleted, ShouldEqual, 5)
		})
	})

	Convey("Given a scraped page with an absurd job count", t, func() {
		u := newUpstream(t)
		u.pages["23"] = `<html><body><div class="jobs-completed">99999999999999999999999</div><div class="unique-buyers">88888888888888888888</div></body></html>`
		c := u.client()

		Convey("Then scraped counts are capped too", func() {
			m, err := c.FetchProfile(context.Background(), "23")
			So(err, ShouldBeNil)
			So(m.DataSource, ShouldEqual, model.SourceScraping)
			So(m.JobsCompleted, ShouldEqual, math.MaxInt32)
			So(m.UniqueBuyers, ShouldEqual, math.MaxInt32)
		})
	})
}
