package marketplace

import (
	"bytes"
	"encoding/json"
		"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
)

// noActivitySentinel is what the metrics endpoint reports for agents that never ran a job.
const noActivitySentinel = "2999-12-31T00:00:00.000Z"

// maxCount bounds decoded counts so absurd upstream values cannot overflow int.
const maxCount = math.MaxInt32

// number decodes a JSON number, a numeric string ("1,234.5") or null.
// Anything else, including out-of-range literals, decodes to zero.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if json.Unmarshal(b, &s) != nil {
			return nil
		}
		raw = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), "$")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = number(f)
	return nil
}

// ident decodes an identifier that may arrive as a string or a number.
// Other JSON values decode to empty.
type ident string

func (i *ident) UnmarshalJSON(b []byte) error {
	*i = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if json.Unmarshal(b, &s) == nil {
			*i = ident(strings.TrimSpace(s))
		}
		return nil
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil && !math.IsInf(f, 0) {
		*i = ident(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return nil
}

// text decodes a JSON string. Numbers keep their literal; other values
// decode to empty.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch {
	case b[0] == '"':
		var s string
		if json.Unmarshal(b, &s) == nil {
			*t = text(s)
		}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*t = text(b)
	}
	return nil
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type metricsPayload struct {
	Name               *text   `json:"name"`
	SuccessfulJobCount *number `json:"successfulJobCount"`
	TotalJobCount      *number `json:"totalJobCount"`
	SuccessRate        *number `json:"successRate"`
	UniqueBuyerCount   *number `json:"uniqueBuyerCount"`
	Revenue            *number `json:"revenue"`
	Rating             *number `json:"rating"`
	LastActiveAt       *text   `json:"lastActiveAt"`
}

func (p *metricsPayload) empty() bool {
	return p == nil || (p.Name == nil && p.SuccessfulJobCount == nil && p.TotalJobCount == nil &&
		p.SuccessRate == nil && p.UniqueBuyerCount == nil && p.Revenue == nil && p.Rating == nil &&
		p.LastActiveAt == nil)
}

type directoryAgent struct {
	ID                 ident   `json:"id"`
	Name               *text   `json:"name"`
	SuccessfulJobCount *number `json:"successfulJobCount"`
	Revenue            *number `json:"revenue"`
	WalletAddress      *text   `json:"walletAddress"`
	OwnerAddress       *text   `json:"ownerAddress"`
}

type offeringPayload struct {
	Name        *text   `json:"name"`
	Price       *number `json:"price"`
	Description *text   `json:"description"`
	SLAMinutes  *number `json:"slaMinutes"`
}

type epochPayload struct {
	ID     ident   `json:"id"`
	Status *text  `json:"status"`
}

type rankingPayload struct {
	AgentID            ident   `json:"agentId"`
	Name               *text   `json:"name"`
	Rank               *number `json:"rank"`
	Revenue            *number `json:"revenue"`
	SuccessfulJobCount *number `json:"successfulJobCount"`
	SuccessRate        *number `json:"successRate"`
	UniqueBuyerCount   *number `json:"uniqueBuyerCount"`
}

// normalizeMetrics is the one place where absent upstream values become
// zeros or nil. It never invents values.
func normalizeMetrics(agentID string, p *metricsPayload) model.AgentMetrics {
	jobs := count(p.SuccessfulJobCount)
	return model.AgentMetrics{
		AgentID:       agentID,
		AgentName:     nameOr(p.Name, agentID),
		SuccessRate:   successRate(p.SuccessRate, jobs, count(p.TotalJobCount)),
		JobsCompleted: jobs,
		UniqueBuyers:  count(p.UniqueBuyerCount),
		Revenue:       nonNegative(p.Revenue),
		Rating:        clamp(value(p.Rating), 0, 5),
		LastActivity:  lastActivity(p.LastActiveAt),
		Offerings:     []model.Offering{},
		DataSource:    model.SourceAPI,
	}
}

// successRate prefers a positive upstream rate, then successful/total jobs, then 0.
func successRate(provided *number, successful, total int) float64 {
	if v := value(provided); v > 0 {
		return clamp(v, 0, 100)
	}
	if total <= 0 {
		return 0
	}
	return clamp(float64(successful)/float64(total)*100, 0, 100)
}

func lastActivity(raw *text) *time.Time {
	s := strings.TrimSpace(str(raw))
	if s == "" || s == noActivitySentinel {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() >= 2999 {
				return nil
			}
			return &t
		}
	}
	return nil
}

func normalizeOffering(p offeringPayload) (model.Offering, bool) {
	name := strings.TrimSpace(str(p.Name))
	if name == "" {
		return model.Offering{}, false
	}
	return model.Offering{
		Name:        name,
		Price:       nonNegative(p.Price),
		Description: strings.TrimSpace(str(p.Description)),
		SLAMinutes:  count(p.SLAMinutes),
	}, true
}

func normalizeRanking(p rankingPayload) (model.LeaderboardEntry, bool) {
	id := strings.TrimSpace(string(p.AgentID))
	if id == "" {
		return model.LeaderboardEntry{}, false
	}
	return model.LeaderboardEntry{
		AgentID:       id,
		Name:          nameOr(p.Name, id),
		Rank:          count(p.Rank),
		Revenue:       nonNegative(p.Revenue),
		JobsCompleted: count(p.SuccessfulJobCount),
		SuccessRate:   clamp(value(p.SuccessRate), 0, 100),
		UniqueBuyers:  count(p.UniqueBuyerCount),
	}, true
}

func value(n *number) float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}

func nonNegative(n *number) float64 {
	return math.Max(0, value(n))
}

func count(n *number) int {
	return toCount(value(n))
}

// toCount rounds v to a non-negative int no larger than maxCount.
func toCount(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int(math.Min(math.Round(v), maxCount))
}

func str(s *text) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

func nameOr(s *text, agentID string) string {
	if name := strings.TrimSpace(str(s)); name != "" {
		return name
	}
	return "Agent " + agentID
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
