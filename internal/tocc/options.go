package tocc

import (
	"log/slog"
	"os"
	"time"
)

type config struct {
	logger *slog.Logger

	// restartCap bounds restarts per transaction before DriveToCompletion
	// surfaces a StarvationError. 0 means unbounded.
	restartCap int

	// watchdogInterval is how often the restart watchdog scans for
	// transactions over the cap.
	watchdogInterval time.Duration

	// logCapacity bounds the in-memory log channel's ring buffer.
	logCapacity int
}

func defaultConfig() config {
	return config{
		logger:           slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		restartCap:       0,
		watchdogInterval: 50 * time.Millisecond,
		logCapacity:      4096,
	}
}

// Option is a functional option shared by Store and Scheduler construction.
type Option func(*config)

// WithLogger sets a custom *slog.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRestartCap bounds the number of restarts a single transaction may
// accumulate before the Scheduler surfaces a StarvationError. 0 (the
// default) means unbounded.
func WithRestartCap(n int) Option {
	return func(c *config) { c.restartCap = n }
}

// WithWatchdogInterval sets how often the Scheduler's restart watchdog scans
// for starved transactions.
func WithWatchdogInterval(d time.Duration) Option {
	return func(c *config) { c.watchdogInterval = d }
}

// WithLogCapacity bounds the Scheduler's in-memory log channel.
func WithLogCapacity(n int) Option {
	return func(c *config) { c.logCapacity = n }
}
