package tocc

import (
	"context"
	"sync"
	"time"
)

// restartTracker counts restarts per transaction for the Scheduler's
// bounded-restart mode.
//
// MV-TOCC transactions never block on one another — they only proceed or
// abort — so there is no lock-wait graph to build a cycle out of, and
// nothing to run a cycle-detecting DFS over. The periodic ticker/select
// shape that a wait-for-graph deadlock detector would use is repurposed
// here for the other liveness hazard this model can still exhibit: a
// transaction restarting over and over without ever making progress.
type restartTracker struct {
	mu     sync.Mutex
	counts map[uint64]int
}

func newRestartTracker() *restartTracker {
	return &restartTracker{counts: make(map[uint64]int)}
}

func (r *restartTracker) record(txID uint64, restarts int) {
	r.mu.Lock()
	r.counts[txID] = restarts
	r.mu.Unlock()
}

func (r *restartTracker) forget(txID uint64) {
	r.mu.Lock()
	delete(r.counts, txID)
	r.mu.Unlock()
}

// snapshot returns transactions whose restart count exceeds cap. cap <= 0
// means unbounded: nothing is ever starved.
func (r *restartTracker) snapshot(cap int) map[uint64]int {
	if cap <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var over map[uint64]int
	for id, n := range r.counts {
		if n > cap {
			if over == nil {
				over = make(map[uint64]int)
			}
			over[id] = n
		}
	}
	return over
}

// runStarvationWatchdog periodically logs any transaction over the restart
// cap. DriveToCompletion itself enforces the cap synchronously right after
// each restart; this goroutine is a redundant, best-effort observability
// pass over the same state, the same double-checking shape LogChannel's
// background trimmer uses over its own inline trim.
func (s *Scheduler) runStarvationWatchdog(ctx context.Context, interval time.Duration) {
	defer close(s.watchdogDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			over := s.restarts.snapshot(s.cfg.restartCap)
			for txID, n := range over {
				s.logger.Warn("transaction over restart cap", "txid", txID, "restarts", n, "cap", s.cfg.restartCap)
			}
		}
	}
}
