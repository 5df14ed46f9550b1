package candidate

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/capture"
)

// Result of the extraction of one cycle.
type Result struct {
	Cycle      time.Time
	Candidates []core.Candidate
}

// Worker runs the extraction of each completed cycle in its own goroutine, at most one at a time.
type Worker struct {
	params  Parameters
	busy    chan struct{}
	results chan Result

	done      chan struct{}
	closeOnce sync.Once
}

// NewWorker returns a new worker that extracts with the given parameters.
func NewWorker(params Parameters) *Worker {
	return &Worker{
		params:  params,
		busy:    make(chan struct{}, 1),
		results: make(chan Result),
		done:    make(chan struct{}),
	}
}

// Close the worker. A running extraction finishes without delivering its result.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
	})
}

// Results returns the channel of extraction results. The worker stays busy until its result is received.
func (w *Worker) Results() <-chan Result {
	return w.results
}

// Submit the snapshot of the given cycle for extraction. The snapshot must not be used by the caller afterwards.
// If an extraction is still running, the snapshot is dropped and Submit returns false.
func (w *Worker) Submit(cycle time.Time, snapshot capture.Snapshot) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.busy <- struct{}{}:
	default:
		zap.S().Warnf("extraction hangs, cycle %v dropped", cycle.Format(time.TimeOnly))
		return false
	}

	go func() {
		defer func() { <-w.busy }()
		start := time.Now()
		candidates := Extract(snapshot, w.params)
		zap.S().Debugf("extracted %d candidates from %d slots in %v", len(candidates), snapshot.Slots, time.Since(start))
		select {
		case w.results <- Result{Cycle: cycle, Candidates: candidates}:
		case <-w.done:
			zap.S().Debugf("worker closed, result of cycle %v discarded", cycle.Format(time.TimeOnly))
		}
	}()
	return true
}
