package workload

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mvtocc/internal/tocc"
)

func TestProgramEndsInExactlyOneCommit(t *testing.T) {
	g := NewGenerator(1, 5, 8)
	for i := 0; i < 50; i++ {
		program := g.Program()
		require.NotEmpty(t, program)
		for _, instr := range program[:len(program)-1] {
			require.NotEqual(t, tocc.OpCommit, instr.Op)
		}
		require.Equal(t, tocc.OpCommit, program[len(program)-1].Op)
	}
}

func TestProgramNeverUsesKeyBeforeReadingIt(t *testing.T) {
	g := NewGenerator(42, 4, 10)
	for i := 0; i < 50; i++ {
		read := make(map[int]bool)
		for _, instr := range g.Program() {
			switch instr.Op {
			case tocc.OpRead:
				read[instr.Key] = true
			case tocc.OpCommit:
				// no key
			default:
				require.True(t, read[instr.Key], "op %s used key %d before it was read", instr.Op, instr.Key)
			}
		}
	}
}

func TestProgramNeverDividesByZero(t *testing.T) {
	g := NewGenerator(7, 3, 20)
	for i := 0; i < 50; i++ {
		for _, instr := range g.Program() {
			if instr.Op == tocc.OpDiv {
				require.NotZero(t, instr.N)
			}
		}
	}
}
