package scenario

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/capmodel/internal/captable"
)

// Recalculator debounces scenario recomputation for interactive callers.
// Each Update supersedes any pending or in-flight run: the stale run's
// context is cancelled, and its result is dropped so the callback never
// sees output computed from positions that are no longer current.
type Recalculator struct {
	o        *Orchestrator
	debounce time.Duration
	onResult func(*Result, error)

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64
	wg     sync.WaitGroup
}

// NewRecalculator wraps an orchestrator. onResult is invoked with the
// freshest result only; superseded runs are silently discarded. Context
// cancellation errors from superseded runs are not reported.
func NewRecalculator(o *Orchestrator, debounce time.Duration, onResult func(*Result, error)) *Recalculator {
	return &Recalculator{o: o, debounce: debounce, onResult: onResult}
}

// Update schedules a recomputation with the given inputs after the
// debounce window. A newer Update within the window replaces the older
// one; an in-flight computation is cancelled.
func (r *Recalculator) Update(positions captable.PositionList, sc *captable.Scenario) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	gen := r.gen

	if r.timer != nil {
		r.timer.Stop()
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	pos := positions.Clone()
	scCopy := sc.Clone()

	r.timer = time.AfterFunc(r.debounce, func() {
		r.run(gen, pos, scCopy)
	})
}

// run executes one recomputation if it is still the freshest request.
func (r *Recalculator) run(gen uint64, positions captable.PositionList, sc *captable.Scenario) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()

		res, err := r.o.Run(ctx, positions, sc)

		r.mu.Lock()
		stale := gen != r.gen
		r.mu.Unlock()
		if stale || ctx.Err() != nil {
			return
		}
		r.onResult(res, err)
	}()
}

// Close cancels any pending or in-flight work and waits for it to stop.
func (r *Recalculator) Close() {
	r.mu.Lock()
	r.gen++ // invalidate anything in flight
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
