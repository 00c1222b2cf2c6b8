package model

import (
	"errors"
	"strings"
)

// ErrIncompleteResult is returned by Result.Validate.
var ErrIncompleteResult = errors.New("result requires jobId, agentId and service")

// ResultMetrics is the metrics snapshot carried by a Result.
type ResultMetrics struct {
	SuccessRate   float64 `json:"successRate"`
	JobsCompleted int     `json:"jobsCompleted"`
	Revenue       float64 `json:"revenue"`
	Rank          *int    `json:"rank"`
	UniqueBuyers  int     `json:"uniqueBuyers"`
}

// ResultTrends mirrors the reputation trend narratives.
type ResultTrends struct {
	JobsGrowth    string `json:"jobsGrowth,omitempty"`
	RevenueGrowth string `json:"revenueGrowth,omitempty"`
	RatingTrend   string `json:"ratingTrend,omitempty"`
}

// ResultPosition mirrors the reputation competitive position.
type ResultPosition struct {
	Rank            *int   `json:"rank"`
	Category        string `json:"category,omitempty"`
	PricingVsMarket string `json:"pricingVsMarket,omitempty"`
}

// Result is the record mirrored to the result store after every job.
type Result struct {
	JobID           string        `json:"jobId"`
	AgentID         string        `json:"agentId"`
	AgentName       string        `json:"agentName"`
	Service         string        `json:"service"`
	Price           float64       `json:"price"`
	Score           float64       `json:"score"`
	Status          string        `json:"status"`
	Metrics         ResultMetrics `json:"metrics"`
	Recommendations []string      `json:"recommendations"`
	Timestamp       int64         `json:"timestamp,omitempty"`

	// Risk checks only.
	Flags []string `json:"flags,omitempty"`

	// Reputation reports only.
	Period              string          `json:"period,omitempty"`
	Summary             string          `json:"summary,omitempty"`
	Strengths           []string        `json:"strengths,omitempty"`
	Weaknesses          []string        `json:"weaknesses,omitempty"`
	Trends              *ResultTrends   `json:"trends,omitempty"`
	CompetitivePosition *ResultPosition `json:"competitivePosition,omitempty"`
}

// Validate checks the fields every stored result needs.
func (r *Result) Validate() error {
	if strings.TrimSpace(r.JobID) == "" || strings.TrimSpace(r.AgentID) == "" || strings.TrimSpace(r.Service) == "" {
		return ErrIncompleteResult
	}
	return nil
}

// MetricsOf builds the Result metrics snapshot of m.
func MetricsOf(m AgentMetrics) ResultMetrics {
	return ResultMetrics{
		SuccessRate:   m.SuccessRate,
		JobsCompleted: m.JobsCompleted,
		Revenue:       m.Revenue,
		Rank:          m.Rank,
		UniqueBuyers:  m.UniqueBuyers,
	}
}
