// Package report renders scoring results for two audiences: a flat
// snake_case JSON deliverable for machines and a text block for humans.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/okian/agentpulse/internal/domain/model"
)

// Producer is stamped on every deliverable.
const Producer = "AgentPulse v1.0"

// Report is the assembled output of one job.
type Report struct {
	Deliverable  string
	HumanSummary string
}

// Snapshot is the subset of agent metrics echoed in deliverables.
type Snapshot struct {
	SuccessRate   float64    `json:"success_rate"`
	JobsCompleted int        `json:"jobs_completed"`
	UniqueBuyers  int        `json:"unique_buyers"`
	Revenue       float64    `json:"revenue"`
	Rating        float64    `json:"rating"`
	Rank          *int       `json:"rank"`
	LastActivity  *time.Time `json:"last_activity"`
	Offerings     int        `json:"offerings"`
	DataSource    string     `json:"data_source"`
}

// NewSnapshot copies the reportable fields of m.
func NewSnapshot(m model.AgentMetrics) Snapshot {
	return Snapshot{
		SuccessRate:   m.SuccessRate,
		JobsCompleted: m.JobsCompleted,
		UniqueBuyers:  m.UniqueBuyers,
		Revenue:       m.Revenue,
		Rating:        m.Rating,
		Rank:          m.Rank,
		LastActivity:  m.LastActivity,
		Offerings:     len(m.Offerings),
		DataSource:    string(m.DataSource),
	}
}

// identity names the analyzed agent in single-agent deliverables.
type identity struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
}

func newIdentity(m model.AgentMetrics) identity {
	return identity{AgentID: m.AgentID, AgentName: m.AgentName}
}

// stamp is shared by every deliverable.
type stamp struct {
	Timestamp    int64  `json:"timestamp"`
	AnalyzedBy   string `json:"analyzed_by"`
	HumanSummary string `json:"human_summary"`
}

func newStamp(summary string, now time.Time) stamp {
	return stamp{Timestamp: now.UnixMilli(), AnalyzedBy: Producer, HumanSummary: summary}
}

func build(v any, summary string) (Report, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Report{}, fmt.Errorf("marshal deliverable: %w", err)
	}
	return Report{Deliverable: string(raw), HumanSummary: summary}, nil
}

var printer = message.NewPrinter(language.English)

// count formats an integer with thousands separators.
func count(n int) string {
	return printer.Sprintf("%d", n)
}

// money formats a dollar amount with thousands separators and cents.
func money(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func rank(r *int) string {
	if r == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *r)
}

// numbered writes a titled, numbered list. Nothing is written for an empty list.
func numbered(b *strings.Builder, title string, items []string, indent string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", title)
	for i, it := range items {
		fmt.Fprintf(b, "%s%d. %s\n", indent, i+1, it)
	}
}

func finish(b *strings.Builder) string {
	return strings.TrimRight(b.String(), "\n")
}
