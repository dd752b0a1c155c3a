package tocc

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Scheduler issues timestamps, drives transactions concurrently, and
// restarts aborted ones with fresh timestamps.
//
// RunID correlates every LogRecord this Scheduler produces, so log lines
// from independent Scheduler instances — e.g. two tests running in
// parallel, each with its own gts counter, isolated behind the Scheduler so
// multiple instances stay independent — never alias.
type Scheduler struct {
	RunID uuid.UUID

	store *Store
	gts   atomic.Uint64

	cfg      config
	logger   *slog.Logger
	logCh    *LogChannel
	restarts *restartTracker

	watchdogCancel context.CancelFunc
	watchdogDone   chan struct{}
}

// NewScheduler creates a Scheduler over store and starts its background
// restart watchdog and log trimmer. Call Close when done.
func NewScheduler(store *Store, opts ...Option) *Scheduler {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	runID := uuid.New()
	s := &Scheduler{
		RunID:        runID,
		store:        store,
		cfg:          cfg,
		logger:       cfg.logger,
		logCh:        newLogChannel(runID, cfg.logCapacity, cfg.logger),
		restarts:     newRestartTracker(),
		watchdogDone: make(chan struct{}),
	}

	watchdogCtx, cancel := context.WithCancel(context.Background())
	s.watchdogCancel = cancel
	go s.runStarvationWatchdog(watchdogCtx, cfg.watchdogInterval)
	go s.logCh.runTrimmer(watchdogCtx, cfg.watchdogInterval)

	return s
}

// Close stops the background watchdog and log trimmer. Blocks until both
// exit.
func (s *Scheduler) Close() {
	s.watchdogCancel()
	<-s.watchdogDone
	<-s.logCh.trimDone
}

func (s *Scheduler) nextTimestamp() uint64 {
	return s.gts.Add(1)
}

// DriveToCompletion runs every transaction in txs to a terminal state: each
// pass assigns a fresh, strictly increasing ts to every pending transaction
// atomically before launching it — never after, which would let two
// transactions race to grab the same ts — waits for the pass to finish,
// then requeues anything that aborted.
//
// It returns the first ProgramError or InvariantViolation encountered; a
// transaction hitting one of those does not restart. It returns a
// StarvationError once a transaction's restart count exceeds the configured
// cap (0 = unbounded by default). It returns nil once every transaction has
// committed.
func (s *Scheduler) DriveToCompletion(ctx context.Context, txs []*Transaction) error {
	pending := make([]*Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Status() == StatusPending {
			pending = append(pending, tx)
		}
	}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := pending
		pending = nil

		g, gctx := errgroup.WithContext(ctx)
		_ = gctx // transactions don't poll ctx themselves; cancellation only stops the next pass from launching
		for _, tx := range batch {
			tx := tx
			ts := s.nextTimestamp()
			tx.activate(ts)
			s.logger.Debug("activate", "txid", tx.ID, "ts", ts)
			g.Go(func() error {
				return tx.Run(s.store, s.logCh)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, tx := range batch {
			switch tx.Status() {
			case StatusAborted:
				tx.reset()
				s.restarts.record(tx.ID, tx.restarts)
				if s.cfg.restartCap > 0 && tx.restarts > s.cfg.restartCap {
					return &StarvationError{TxID: tx.ID, Restarts: tx.restarts}
				}
				s.logger.Debug("restart", "txid", tx.ID, "attempt", tx.restarts)
				pending = append(pending, tx)
			case StatusCommitted:
				s.restarts.forget(tx.ID)
				s.logger.Debug("committed", "txid", tx.ID, "ts", tx.ts)
			}
		}
	}
	return nil
}

// FormatLog renders the Scheduler's log channel as one line per record, in
// order, for CLI output and test assertions.
func (s *Scheduler) FormatLog() string {
	var b strings.Builder
	for _, r := range s.logCh.Records() {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Log returns the Scheduler's log channel, for direct inspection in tests.
func (s *Scheduler) Log() *LogChannel { return s.logCh }
