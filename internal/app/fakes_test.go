package service_test

import (
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/okian/agentpulse/internal/adapters/marketplace"
	"github.com/okian/agentpulse/internal/domain/model"
)

var digits = regexp.MustCompile(`^\d+$`)

// fakeMarket serves canned agents and counts every upstream call.
type fakeMarket struct {
	mu        sync.Mutex
	calls     int
	agents    map[string]model.AgentMetrics
	names     map[string]string
	offerings map[string][]model.Offering
	board     []model.LeaderboardEntry
	broken    map[string]bool
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		agents:    map[string]model.AgentMetrics{},
		names:     map[string]string{},
		offerings: map[string][]model.Offering{},
		broken:    map[string]bool{},
	}
}

func (f *fakeMarket) add(m model.AgentMetrics) {
	f.agents[m.AgentID] = m
	f.names[m.AgentName] = m.AgentID
}

func (f *fakeMarket) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeMarket) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeMarket) Resolve(_ context.Context, ref, wallet string) (string, error) {
	if digits.MatchString(ref) {
		return ref, nil
	}
	f.hit()
	if id, ok := f.names[ref]; ok {
		return id, nil
	}
	if id, ok := f.names[wallet]; ok && wallet != "" {
		return id, nil
	}
	return "", &marketplace.ResolutionError{Reference: ref}
}

func (f *fakeMarket) FetchProfile(_ context.Context, id string) (model.AgentMetrics, error) {
	f.hit()
	m, ok := f.agents[id]
	if !ok || f.broken[id] {
		return model.AgentMetrics{}, &marketplace.FetchExhaustedError{AgentID: id, ProfileURL: "https://agdp.io/agent/" + id}
	}
	return m, nil
}

func (f *fakeMarket) FetchMetrics(ctx context.Context, id string) (model.AgentMetrics, error) {
	m, err := f.FetchProfile(ctx, id)
	if err != nil {
		return m, err
	}
	m.Offerings = f.FetchOfferings(ctx, id)
	m.Rank = marketplace.RankOf(f.FetchLeaderboard(ctx), id)
	return m, nil
}

func (f *fakeMarket) FetchOfferings(_ context.Context, id string) []model.Offering {
	f.hit()
	if o, ok := f.offerings[id]; ok {
		return o
	}
	return []model.Offering{}
}

func (f *fakeMarket) FetchLeaderboard(_ context.Context) []model.LeaderboardEntry {
	f.hit()
	return f.board
}

// fakeSink records delivered results.
type fakeSink struct {
	mu      sync.Mutex
	results []model.Result
}

func (s *fakeSink) Deliver(_ context.Context, r model.Result) string { //nolint:gocritic // hugeParam: mirrors the interface
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return r.JobID
}

func (s *fakeSink) delivered() []model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Result(nil), s.results...)
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func healthyAgent(id, name string) model.AgentMetrics {
	return model.AgentMetrics{
		AgentID:       id,
		AgentName:     name,
		SuccessRate:   96,
		JobsCompleted: 600,
		UniqueBuyers:  40,
		Revenue:       5000,
		Rating:        4.8,
		LastActivity:  model.TimePtr(now.Add(-30 * time.Minute)),
		DataSource:    model.SourceAPI,
	}
}

func riskyAgent(id, name string) model.AgentMetrics {
	return model.AgentMetrics{
		AgentID:       id,
		AgentName:     name,
		SuccessRate:   80,
		JobsCompleted: 25,
		UniqueBuyers:  3,
		Revenue:       8,
		DataSource:    model.SourceAPI,
	}
}
