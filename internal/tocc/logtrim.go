package tocc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogRecord is one entry of the optional observability stream: {ts, txid,
// op, key, outcome}. A record is appended after the Store operation has
// returned and released the key's guard, so records for the same key from
// concurrently running transactions are not guaranteed to appear in the
// order the Store applied those operations.
type LogRecord struct {
	RunID   uuid.UUID
	TS      uint64
	TxID    uint64
	Op      Op
	Key     int
	Outcome string
}

func (r LogRecord) String() string {
	if r.Op == OpCommit {
		return fmt.Sprintf("ts=%d tx=%d op=%s outcome=%s", r.TS, r.TxID, r.Op, r.Outcome)
	}
	return fmt.Sprintf("ts=%d tx=%d op=%s key=%d outcome=%s", r.TS, r.TxID, r.Op, r.Key, r.Outcome)
}

// LogChannel is an append-only, capacity-bounded record of every
// Store-affecting operation a Scheduler drove. It never feeds back into
// admission or version-selection decisions — it exists purely for
// diagnostics.
//
// The ring-buffer trim runs on a ticker/select shape borrowed from a
// background garbage collector, but trims log entries rather than Version
// records: the core never deletes a Version, so there is nothing else for
// a periodic pass to collect here.
type LogChannel struct {
	mu      sync.Mutex
	runID   uuid.UUID
	records []LogRecord
	cap     int
	logger  *slog.Logger

	trimDone chan struct{}
}

func newLogChannel(runID uuid.UUID, capacity int, logger *slog.Logger) *LogChannel {
	return &LogChannel{
		runID:    runID,
		cap:      capacity,
		logger:   logger,
		trimDone: make(chan struct{}),
	}
}

func (c *LogChannel) append(r LogRecord) {
	r.RunID = c.runID
	c.mu.Lock()
	c.records = append(c.records, r)
	c.trimLocked()
	c.mu.Unlock()
}

// trimLocked drops the oldest entries once the buffer exceeds capacity.
// Caller must hold c.mu.
func (c *LogChannel) trimLocked() {
	if c.cap <= 0 || len(c.records) <= c.cap {
		return
	}
	drop := len(c.records) - c.cap
	c.records = c.records[drop:]
}

// Records returns a copy of the currently retained log entries, oldest
// first.
func (c *LogChannel) Records() []LogRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogRecord, len(c.records))
	copy(out, c.records)
	return out
}

// runTrimmer periodically re-checks the buffer against its capacity. append
// already trims inline and the capacity is fixed when the channel is
// created, so this pass is a redundant safety check.
func (c *LogChannel) runTrimmer(ctx context.Context, interval time.Duration) {
	defer close(c.trimDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			before := len(c.records)
			c.trimLocked()
			after := len(c.records)
			c.mu.Unlock()
			if before != after {
				c.logger.Debug("log channel trimmed", "dropped", before-after)
			}
		}
	}
}
