package api

import (
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/okian/agentpulse/internal/adapters/repository"
	"github.com/okian/agentpulse/pkg/metrics"
)

type serviceStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

type statsResponse struct {
	Offerings     int                     `json:"offerings"`
	ResultsStored int                     `json:"results_stored"`
	AverageScore  float64                 `json:"average_score"`
	LastResultAt  int64                   `json:"last_result_at,omitempty"`
	ByService     map[string]serviceStats `json:"by_service"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Goroutines    int                     `json:"goroutines"`
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	jobs    Jobs
	store   repository.Store
	now     func() time.Time
	started time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(jobs Jobs, store repository.Store, now func() time.Time) *StatsHandler {
	return &StatsHandler{jobs: jobs, store: store, now: now, started: now()}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	results, err := h.store.List(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	out := statsResponse{
		Offerings:     len(h.jobs.Offerings()),
		ResultsStored: len(results),
		ByService:     map[string]serviceStats{},
		UptimeSeconds: int64(h.now().Sub(h.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}
	var total float64
	for _, res := range results {
		s := out.ByService[res.Service]
		s.AverageScore = (s.AverageScore*float64(s.Count) + res.Score) / float64(s.Count+1)
		s.Count++
		out.ByService[res.Service] = s
		total += res.Score
		if res.Timestamp > out.LastResultAt {
			out.LastResultAt = res.Timestamp
		}
	}
	if len(results) > 0 {
		out.AverageScore = round1(total / float64(len(results)))
	}
	for k, s := range out.ByService {
		s.AverageScore = round1(s.AverageScore)
		out.ByService[k] = s
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystemMemoryUsage(mem.Alloc)
	metrics.UpdateSystemGoroutineCount(out.Goroutines)
	metrics.UpdateResultsStored(out.ResultsStored)

	writeJSON(w, http.StatusOK, out)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
