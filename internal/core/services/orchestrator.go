package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
	"github.com/custodia-labs/skema-cli/internal/logger"
)

// RunStatus is a point-in-time snapshot of an active run, polled by
// the CLI progress view.
type RunStatus struct {
	RunID       string
	Running     bool
	Total       int
	Completed   int
	Succeeded   int
	Quarantined int
	Failed      int
}

// RunSummary is the final accounting of one run. Problems carries the
// per-file detail for everything that did not succeed, enough to
// diagnose without re-running.
type RunSummary struct {
	RunID       string
	Total       int
	Succeeded   int
	Quarantined int
	Failed      int
	Problems    []domain.TransformResult
	StartedAt   time.Time
	EndedAt     time.Time
}

// Orchestrator owns the transform phase of a run: it scans the
// manifest for pending work, fans out to a bounded worker pool, and
// applies every result back to the manifest as its sole writer. The
// single-writer discipline is what makes terminal updates race-free
// while many workers read concurrently.
type Orchestrator struct {
	manifest driven.ManifestStore
	worker   *TransformWorker
	workers  int

	mu     sync.RWMutex
	active *RunStatus
}

// NewOrchestrator creates an orchestrator dispatching to the given
// worker. workers <= 0 means one worker per available CPU.
func NewOrchestrator(manifest driven.ManifestStore, worker *TransformWorker, workers int) *Orchestrator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Orchestrator{
		manifest: manifest,
		worker:   worker,
		workers:  workers,
	}
}

// Run transforms every pending manifest entry. In normal mode pending
// means RAW_INGESTED; in reprocess mode, QUARANTINED records get
// another attempt (typically after the catalog gained a recipe).
// Only one run may be active per orchestrator.
func (o *Orchestrator) Run(ctx context.Context, reprocess bool) (*RunSummary, error) {
	scanStatus := domain.StatusRawIngested
	if reprocess {
		scanStatus = domain.StatusQuarantined
	}

	pending, err := o.manifest.ListByStatus(ctx, scanStatus)
	if err != nil {
		return nil, fmt.Errorf("list pending work: %w", err)
	}

	runStarted := time.Now().UTC()
	summary := &RunSummary{
		RunID:     uuid.New().String(),
		Total:     len(pending),
		StartedAt: runStarted,
	}

	if !o.begin(summary.RunID, len(pending)) {
		return nil, domain.ErrRunInProgress
	}
	defer o.finish()

	logger.Section(fmt.Sprintf("Run %s", summary.RunID))
	logger.Info("Dispatching %d files to %d workers (reprocess=%v)", len(pending), o.workers, reprocess)

	jobs := make(chan domain.Hash)
	results := make(chan *domain.TransformResult)

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for hash := range jobs {
				results <- o.safeProcess(ctx, hash)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(jobs)
		for _, rec := range pending {
			select {
			case <-ctx.Done():
				return
			case jobs <- rec.FileHash:
			}
		}
	}()

	// Sole-writer loop: results arrive in completion order and each
	// becomes exactly one terminal manifest update. The applied set
	// is a local guard so a duplicate result can never produce a
	// second transition.
	applied := make(map[domain.Hash]struct{}, len(pending))
	for res := range results {
		if _, dup := applied[res.FileHash]; dup {
			logger.Warn("Dropping duplicate result for %s", res.FileHash.Short())
			continue
		}
		applied[res.FileHash] = struct{}{}

		if err := o.manifest.UpdateTerminal(ctx, runStarted, res); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				logger.Warn("Terminal state for %s already written this run", res.FileHash.Short())
				continue
			}
			// A manifest write failure is a store-level problem;
			// keep draining so workers can finish, but surface it.
			logger.Error("Recording result for %s failed: %v", res.FileHash.Short(), err)
			continue
		}

		o.record(res)
		switch res.Status {
		case domain.StatusTransformedSuccess:
			summary.Succeeded++
		case domain.StatusQuarantined:
			summary.Quarantined++
			summary.Problems = append(summary.Problems, *res)
		default:
			summary.Failed++
			summary.Problems = append(summary.Problems, *res)
		}
	}

	summary.EndedAt = time.Now().UTC()
	logger.Info("Run %s complete: %d success, %d quarantined, %d failed",
		summary.RunID, summary.Succeeded, summary.Quarantined, summary.Failed)

	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// Status returns a copy of the active run's progress, or a non-running
// snapshot when idle.
func (o *Orchestrator) Status() RunStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.active == nil {
		return RunStatus{}
	}
	return *o.active
}

// safeProcess invokes the worker and converts a crash of the worker
// goroutine itself into a failure result, so one misbehaving file
// never stalls the batch.
func (o *Orchestrator) safeProcess(ctx context.Context, hash domain.Hash) (res *domain.TransformResult) {
	defer func() {
		if r := recover(); r != nil {
			res = &domain.TransformResult{
				FileHash:     hash,
				Status:       domain.StatusTransformationFailed,
				ErrorMessage: fmt.Sprintf("worker crashed: %v", r),
				StartedAt:    time.Now().UTC(),
				EndedAt:      time.Now().UTC(),
			}
		}
	}()
	return o.worker.Process(ctx, hash)
}

// begin claims the orchestrator for one run.
func (o *Orchestrator) begin(runID string, total int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil && o.active.Running {
		return false
	}
	o.active = &RunStatus{RunID: runID, Running: true, Total: total}
	return true
}

// record folds one applied result into the progress snapshot.
func (o *Orchestrator) record(res *domain.TransformResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active.Completed++
	switch res.Status {
	case domain.StatusTransformedSuccess:
		o.active.Succeeded++
	case domain.StatusQuarantined:
		o.active.Quarantined++
	default:
		o.active.Failed++
	}
}

// finish marks the run over; the snapshot stays readable until the
// next run begins.
func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		o.active.Running = false
	}
}
