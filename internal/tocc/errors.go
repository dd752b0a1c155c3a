package tocc

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four error kinds the scheduler distinguishes.
// Rollback is deliberately unexported: it is caught inside Transaction.Run
// and must never surface to the Scheduler or its caller.
var (
	errRollback = errors.New("tocc: rollback")

	// ErrProgram marks a malformed program: an arithmetic op or Write
	// referencing a key outside the cache, division by zero, or an
	// unknown op. Fatal for the current attempt; the transaction does
	// not restart.
	ErrProgram = errors.New("tocc: program error")

	// ErrStarvation marks a transaction that exceeded its restart cap.
	ErrStarvation = errors.New("tocc: starvation")

	// ErrInvariant marks a Store invariant violation. Process-fatal.
	ErrInvariant = errors.New("tocc: invariant violation")
)

// ProgramError wraps ErrProgram with the offending transaction and a
// human-readable reason.
type ProgramError struct {
	TxID   uint64
	Reason string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("tocc: program error in tx %d: %s", e.TxID, e.Reason)
}

func (e *ProgramError) Unwrap() error { return ErrProgram }

func newProgramError(txID uint64, reason string) *ProgramError {
	return &ProgramError{TxID: txID, Reason: reason}
}

// StarvationError wraps ErrStarvation with the offending transaction and
// how many times it was restarted before the cap was hit.
type StarvationError struct {
	TxID     uint64
	Restarts int
}

func (e *StarvationError) Error() string {
	return fmt.Sprintf("tocc: tx %d starved after %d restarts", e.TxID, e.Restarts)
}

func (e *StarvationError) Unwrap() error { return ErrStarvation }

// InvariantViolation wraps ErrInvariant with the key and chain detail that
// failed a Store invariant check.
type InvariantViolation struct {
	Key    int
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("tocc: invariant violated for key %d: %s", e.Key, e.Detail)
}

func (e *InvariantViolation) Unwrap() error { return ErrInvariant }
