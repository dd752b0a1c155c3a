package tocc

import "sync/atomic"

// Status is the Transaction state machine: pending -> active ->
// committed | aborted, and aborted -> pending on Scheduler restart.
type Status uint32

const (
	StatusPending Status = iota
	StatusActive
	StatusCommitted
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusCommitted:
		return "committed"
	case StatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Transaction holds the program, private write-buffer cache, and status of
// one attempt. A restarted transaction keeps its ID and program but gets a
// fresh ts and an emptied cache.
//
// A Transaction is driven by exactly one goroutine at a time — the
// Scheduler hands it to a worker for the duration of one Run call and never
// touches it concurrently with that worker.
type Transaction struct {
	ID      uint64
	ts      uint64
	program []Instruction
	cache   map[int]int64
	status  atomic.Uint32

	restarts int
}

// NewTransaction validates program (Commit exactly once, only last) and
// returns a Transaction in StatusPending.
func NewTransaction(id uint64, program []Instruction) (*Transaction, error) {
	if err := validateProgram(program); err != nil {
		return nil, newProgramError(id, err.Error())
	}
	return &Transaction{
		ID:      id,
		program: program,
		cache:   make(map[int]int64),
	}, nil
}

func (t *Transaction) Status() Status { return Status(t.status.Load()) }

// activate transitions pending -> active with a freshly assigned ts. Called
// only by the Scheduler, which owns timestamp assignment.
func (t *Transaction) activate(ts uint64) {
	t.ts = ts
	t.status.Store(uint32(StatusActive))
}

// reset clears the cache and returns the transaction to pending for a
// restart. It keeps the ID and program; the next activate call assigns a
// fresh ts.
func (t *Transaction) reset() {
	t.cache = make(map[int]int64)
	t.restarts++
	t.status.Store(uint32(StatusPending))
}

// Run iterates program against store. It returns a non-nil err only for a
// ProgramError or an InvariantViolation — fatal, no restart. A Store rollback transitions the
// transaction to aborted and returns nil; the caller (Scheduler) decides
// whether to restart.
func (t *Transaction) Run(store *Store, logCh *LogChannel) error {
	for _, instr := range t.program {
		rollback, err := execute(t, store, instr, logCh)
		if err != nil {
			t.status.Store(uint32(StatusAborted))
			return err
		}
		if rollback {
			t.status.Store(uint32(StatusAborted))
			return nil
		}
		if instr.Op == OpCommit {
			t.status.Store(uint32(StatusCommitted))
			return nil
		}
	}
	return nil
}
