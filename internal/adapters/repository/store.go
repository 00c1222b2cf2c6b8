// Package repository persists the most recent job results.
package repository

import (
	"context"

	"github.com/okian/agentpulse/internal/domain/model"
)

// Store provides read/write access to stored results.
type Store interface {
	// Save validates r, stamps its timestamp when missing and stores it as the newest result.
	Save(ctx context.Context, r model.Result) (model.Result, error)

	// List returns up to limit results, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]model.Result, error)

	// Find returns the newest result whose job ID matches jobID exactly,
	// as "job_<jobID>", or as a substring, in that order of preference.
	// Returns ErrNotFound when nothing matches.
	Find(ctx context.Context, jobID string) (model.Result, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) int
}
