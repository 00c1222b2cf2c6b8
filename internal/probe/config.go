// Package probe drives a running AgentPulse service over HTTP: it executes
// offerings for a set of agents and reads back the stored results.
package probe

import (
	"encoding/json"
	"time"
)

// Config holds the settings of a probe run.
type Config struct {
	BaseURL       string        // base URL of the service
	Offering      string        // offering to execute
	Refs          []string      // agent references, one job each
	Period        string        // reputation period, optional
	ClientAddress string        // wallet used as the resolver fallback, optional
	Workers       int           // concurrent jobs
	Timeout       time.Duration // per-request timeout
	OutputFile    string        // JSON file for outcomes, optional
	Verbose       bool          // print deliverables as well as summaries
}

// Outcome is the result of one executed job.
type Outcome struct {
	Ref         string          `json:"ref"`
	JobID       string          `json:"job_id"`
	Status      int             `json:"status"`
	Deliverable json.RawMessage `json:"deliverable,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Error       string          `json:"error,omitempty"`
	Duration    time.Duration   `json:"duration_ns"`
}

// OK reports whether the job produced a deliverable.
func (o Outcome) OK() bool { return o.Error == "" }

// Stats holds run statistics.
type Stats struct {
	Jobs      int
	Succeeded int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
