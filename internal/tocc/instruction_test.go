package tocc

import (
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestFloorDivision verifies that division always rounds toward negative
// infinity, never toward zero.
func TestFloorDivision(t *testing.T) {
	require.Equal(t, int64(-4), floorDiv(-7, 2))
	require.Equal(t, int64(3), floorDiv(7, 2))
	require.Equal(t, int64(-3), floorDiv(-6, 2))
	require.Equal(t, int64(-1), floorDiv(-1, 2))
}

func TestValidateProgramRejectsCommitNotLast(t *testing.T) {
	err := validateProgram([]Instruction{Commit(), Read(1)})
	require.Error(t, err)
}

func TestValidateProgramRejectsMissingCommit(t *testing.T) {
	err := validateProgram([]Instruction{Read(1), Add(1, 1)})
	require.Error(t, err)
}

func TestValidateProgramAcceptsWellFormed(t *testing.T) {
	err := validateProgram([]Instruction{Read(1), Add(1, 1), Write(1), Commit()})
	require.NoError(t, err)
}

// TestArithmeticWithoutReadIsProgramError verifies that an Add referencing a
// key never Read surfaces as a ProgramError at run time.
func TestArithmeticWithoutReadIsProgramError(t *testing.T) {
	s := NewStore()
	s.Seed(1)

	tx, err := NewTransaction(1, []Instruction{Add(1, 1), Commit()})
	require.NoError(t, err) // structurally valid program; the cache-miss fires at Run time
	tx.activate(1)

	logCh := newLogChannel(uuid.New(), 16, slog.New(slog.DiscardHandler))
	runErr := tx.Run(s, logCh)
	var perr *ProgramError
	require.ErrorAs(t, runErr, &perr)
	require.Equal(t, StatusAborted, tx.Status())
}
