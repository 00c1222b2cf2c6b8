package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/metrics"
)

const (
	defaultLimit = 100
	filePerm     = 0o600
	dirPerm      = 0o750
)

// FileStore keeps results as a JSON array on disk, newest first.
// Reads are served from memory; every Save rewrites the file atomically.
type FileStore struct {
	path  string
	limit int
	now   func() time.Time

	mu      sync.RWMutex
	results []model.Result
}

// NewFileStore opens the store at path. A missing file is an empty store.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	s := &FileStore{path: path, limit: defaultLimit, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	metrics.UpdateResultsStored(len(s.results))
	return s, nil
}

func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.results = []model.Result{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}
	var results []model.Result
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &results); err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptFile, err)
		}
	}
	if len(results) > s.limit {
		results = results[:s.limit]
	}
	if results == nil {
		results = []model.Result{}
	}
	s.results = results
	return nil
}

// Save stores r as the newest result.
func (s *FileStore) Save(_ context.Context, r model.Result) (model.Result, error) { //nolint:gocritic // hugeParam: stored by value
	if err := r.Validate(); err != nil {
		return model.Result{}, fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	if r.Timestamp == 0 {
		r.Timestamp = s.now().UnixMilli()
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Result, 0, min(len(s.results)+1, s.limit))
	next = append(next, r)
	for _, old := range s.results {
		if len(next) == s.limit {
			break
		}
		next = append(next, old)
	}
	if err := s.persist(next); err != nil {
		return model.Result{}, err
	}
	s.results = next

	metrics.RecordResultSaved()
	metrics.UpdateResultsStored(len(next))
	return r, nil
}

// List returns up to limit results, newest first.
func (s *FileStore) List(_ context.Context, limit int) ([]model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.results)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Result, n)
	copy(out, s.results[:n])
	return out, nil
}

// Find looks a result up by job ID.
func (s *FileStore) Find(_ context.Context, jobID string) (model.Result, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return model.Result{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefixed := "job_" + jobID
	for _, match := range []func(string) bool{
		func(id string) bool { return id == jobID },
		func(id string) bool { return id == prefixed },
		func(id string) bool { return strings.Contains(id, jobID) },
	} {
		for _, r := range s.results {
			if match(r.JobID) {
				return r, nil
			}
		}
	}
	return model.Result{}, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
}

// Count returns the number of stored results.
func (s *FileStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// persist writes results to a temp file and renames it over the target.
func (s *FileStore) persist(results []model.Result) error {
	raw, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close results: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace results: %w", err)
	}
	return nil
}
