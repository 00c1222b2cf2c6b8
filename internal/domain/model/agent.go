// Package model contains domain models passed between layers.
package model

import "time"

// DataSource records which fetch strategy produced an AgentMetrics record.
type DataSource string

const (
	SourceAPI      DataSource = "api"
	SourceScraping DataSource = "scraping"
	SourceNone     DataSource = "none"
)

// Offering is a priced service an agent publishes.
type Offering struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	SLAMinutes  int     `json:"sla_minutes,omitempty"`
}

// AgentMetrics is the normalized public performance record of one agent.
// Numeric fields default to zero and optional fields stay nil when the
// upstream provides nothing.
type AgentMetrics struct {
	AgentID       string
	AgentName     string
	SuccessRate   float64 // 0-100
	JobsCompleted int
	UniqueBuyers  int
	Revenue       float64
	Rating        float64 // 0-5
	Rank          *int
	LastActivity  *time.Time
	Offerings     []Offering
	DataSource    DataSource
}

// HoursSinceActivity returns the hours elapsed between the last activity and now.
// ok is false when the last activity is unknown.
func (m AgentMetrics) HoursSinceActivity(now time.Time) (hours float64, ok bool) {
	if m.LastActivity == nil {
		return 0, false
	}
	return now.Sub(*m.LastActivity).Hours(), true
}

// RevenuePerJob returns revenue divided by completed jobs, 0 without jobs.
func (m AgentMetrics) RevenuePerJob() float64 {
	if m.JobsCompleted <= 0 {
		return 0
	}
	return m.Revenue / float64(m.JobsCompleted)
}

// RevenuePerBuyer returns revenue divided by unique buyers, 0 without buyers.
func (m AgentMetrics) RevenuePerBuyer() float64 {
	if m.UniqueBuyers <= 0 {
		return 0
	}
	return m.Revenue / float64(m.UniqueBuyers)
}

// LeaderboardEntry is one row of the active epoch ranking.
type LeaderboardEntry struct {
	AgentID       string
	Name          string
	Rank          int
	Revenue       float64
	JobsCompleted int
	SuccessRate   float64
	UniqueBuyers  int
}

// RevenuePerJob returns revenue divided by completed jobs, 0 without jobs.
func (e LeaderboardEntry) RevenuePerJob() float64 {
	if e.JobsCompleted <= 0 {
		return 0
	}
	return e.Revenue / float64(e.JobsCompleted)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }
