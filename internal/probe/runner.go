package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	service "github.com/okian/agentpulse/internal/app"
	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/logger"
)

const (
	directoryPermission = 0750
	filePermission      = 0600
)

// ErrNoRefs is returned when a run has no agent references.
var ErrNoRefs = errors.New("at least one agent reference is required")

// ErrJobsFailed is returned when at least one job did not produce a deliverable.
var ErrJobsFailed = errors.New("some jobs failed")

// Job is one execute call planned by a run.
type Job struct {
	Ref          string
	Requirements model.Requirements
	Context      model.JobContext
}

// Plan turns the configured references into jobs. The multi-agent report
// takes every reference in a single job; other offerings get one job per
// reference.
func Plan(cfg *Config) []Job {
	mk := func(ref string, req model.Requirements) Job {
		if cfg.Period != "" {
			req["period"] = cfg.Period
		}
		return Job{
			Ref:          ref,
			Requirements: req,
			Context:      model.JobContext{ClientAddress: cfg.ClientAddress, JobID: "probe_" + uuid.NewString()},
		}
	}
	if len(cfg.Refs) == 0 {
		return nil
	}
	if cfg.Offering == service.MultiAgentReport {
		joined := strings.Join(cfg.Refs, ",")
		return []Job{mk(joined, model.Requirements{"agent_ids": joined})}
	}
	jobs := make([]Job, 0, len(cfg.Refs))
	for _, ref := range cfg.Refs {
		jobs = append(jobs, mk(ref, model.Requirements{"agent_id": ref}))
	}
	return jobs
}

// Run checks the service, executes the planned jobs concurrently and prints
// a summary per job to out, in input order.
func Run(ctx context.Context, cfg *Config, out io.Writer) ([]Outcome, Stats, error) {
	stats := Stats{StartTime: time.Now()}
	jobs := Plan(cfg)
	if len(jobs) == 0 {
		return nil, stats, ErrNoRefs
	}
	log := logger.Get().Named("probe")
	log.Info(ctx, "starting probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("offering", cfg.Offering),
		logger.Int("jobs", len(jobs)),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return nil, stats, fmt.Errorf("service health check failed: %w", err)
	}

	outcomes := execute(ctx, client, cfg, jobs)
	for _, o := range outcomes {
		printOutcome(out, o, cfg.Verbose)
		stats.Jobs++
		if o.OK() {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}

	if cfg.OutputFile != "" {
		if err := saveOutcomes(cfg.OutputFile, outcomes); err != nil {
			log.Warn(ctx, "failed to save outcomes", logger.Error(err))
		} else {
			log.Info(ctx, "outcomes saved to file", logger.String("filename", cfg.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "final statistics",
		logger.Int("jobs", stats.Jobs),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)
	if stats.Failed > 0 {
		return outcomes, stats, fmt.Errorf("%w: %d of %d", ErrJobsFailed, stats.Failed, stats.Jobs)
	}
	return outcomes, stats, nil
}

func execute(ctx context.Context, client *Client, cfg *Config, jobs []Job) []Outcome {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	outcomes := make([]Outcome, len(jobs))
	next := make(chan int, workers*2)
	var done atomic.Int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				outcomes[i] = executeOne(ctx, client, cfg.Offering, jobs[i])
				if cfg.Verbose {
					logger.Get().Debug(ctx, "job finished",
						logger.String("ref", jobs[i].Ref),
						logger.Int("done", int(done.Add(1))),
						logger.Int("total", len(jobs)),
					)
				}
			}
		}()
	}

	go func() {
		defer close(next)
		for i := range jobs {
			select {
			case <-ctx.Done():
				return
			case next <- i:
			}
		}
	}()
	wg.Wait()

	// Jobs never handed to a worker were cut off by ctx.
	for i := range outcomes {
		if outcomes[i].Ref == "" {
			cause := context.Cause(ctx)
			if cause == nil {
				cause = context.Canceled
			}
			outcomes[i] = Outcome{Ref: jobs[i].Ref, JobID: jobs[i].Context.JobID, Error: cause.Error()}
		}
	}
	return outcomes
}

func executeOne(ctx context.Context, client *Client, offering string, job Job) Outcome {
	start := time.Now()
	o := Outcome{Ref: job.Ref, JobID: job.Context.JobID}
	reply, err := client.Execute(ctx, offering, job.Requirements, job.Context)
	o.Duration = time.Since(start)
	o.Status = reply.Status
	switch {
	case err != nil:
		o.Error = err.Error()
	case reply.Error != "":
		o.Error = reply.Error
	default:
		o.Summary = reply.Summary
		if json.Valid([]byte(reply.Deliverable)) {
			o.Deliverable = json.RawMessage(reply.Deliverable)
		} else {
			o.Deliverable, _ = json.Marshal(reply.Deliverable)
		}
	}
	return o
}

func printOutcome(w io.Writer, o Outcome, verbose bool) {
	if !o.OK() {
		fmt.Fprintf(w, "✗ %s (HTTP %d): %s\n\n", o.Ref, o.Status, o.Error)
		return
	}
	fmt.Fprintf(w, "✓ %s (%s)\n%s\n", o.Ref, o.Duration.Round(time.Millisecond), o.Summary)
	if verbose {
		fmt.Fprintf(w, "%s\n", o.Deliverable)
	}
	fmt.Fprintln(w)
}

// saveOutcomes writes outcomes as an indented JSON array.
func saveOutcomes(filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	return os.WriteFile(filename, append(data, '\n'), filePermission)
}

// ListResults prints the stored results, newest first.
func ListResults(ctx context.Context, cfg *Config, limit int, out io.Writer) ([]model.Result, error) {
	results, err := NewClient(cfg.BaseURL, cfg.Timeout).Results(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No stored results.")
		return results, nil
	}
	for _, r := range results {
		when := "unknown"
		if r.Timestamp > 0 {
			when = time.UnixMilli(r.Timestamp).UTC().Format(time.RFC3339)
		}
		name := r.AgentName
		if name == "" {
			name = "Agent " + r.AgentID
		}
		fmt.Fprintf(out, "%-24s %-22s %-28s %5.0f  %-12s %s\n", r.JobID, r.Service, name, r.Score, r.Status, when)
	}
	return results, nil
}
