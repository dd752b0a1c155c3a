// Command tocckv drives a batch of randomly generated transactions against
// an in-memory MV-TOCC store and prints the resulting chain state and
// operation log. It is a demo harness built on top of the core package,
// not part of it.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	flag "github.com/spf13/pflag"

	"mvtocc/internal/tocc"
	"mvtocc/workload"
)

func main() {
	var (
		keys             = flag.Int("keys", 10, "number of keys to seed")
		transactions     = flag.Int("transactions", 5, "number of transactions to generate")
		opsPerTx         = flag.Int("ops-per-tx", 5, "instructions per transaction before commit")
		restartCap       = flag.Int("restart-cap", 0, "restarts allowed before a transaction starves (0 = unbounded)")
		watchdogInterval = flag.Duration("watchdog-interval", 50*time.Millisecond, "how often the restart watchdog scans for starved transactions")
		seed             = flag.Uint64("seed", 1, "workload generator seed")
		verbose          = flag.BoolP("verbose", "v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store := tocc.NewStore(tocc.WithLogger(logger))
	store.Seed(*keys)

	gen := workload.NewGenerator(*seed, *keys, *opsPerTx)
	programs := gen.Batch(*transactions)

	sched := tocc.NewScheduler(store,
		tocc.WithLogger(logger),
		tocc.WithRestartCap(*restartCap),
		tocc.WithWatchdogInterval(*watchdogInterval),
	)
	defer sched.Close()

	txs := make([]*tocc.Transaction, 0, len(programs))
	for i, program := range programs {
		tx, err := tocc.NewTransaction(uint64(i+1), program)
		if err != nil {
			fmt.Fprintf(os.Stderr, "transaction %d rejected: %v\n", i+1, err)
			os.Exit(1)
		}
		txs = append(txs, tx)
	}

	if err := sched.DriveToCompletion(context.Background(), txs); err != nil {
		fmt.Fprintf(os.Stderr, "schedule failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("run:", sched.RunID)
	fmt.Println()
	fmt.Println("final chains:")
	printSnapshot(store.Snapshot())
	fmt.Println()
	fmt.Println("log:")
	fmt.Print(sched.FormatLog())
}

func printSnapshot(snap map[int][]tocc.ChainEntry) {
	keys := make([]int, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		fmt.Printf("key %d:\n", k)
		for _, e := range snap[k] {
			fmt.Printf("  v%d val=%d wts=%d rts=%d\n", e.Seq, e.Val, e.Wts, e.Rts)
		}
	}
}
