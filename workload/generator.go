// Package workload generates random transaction programs for the demo CLI
// and for liveness/stress tests. It supplies Transaction inputs and nothing
// more — it never imports anything from internal/tocc beyond the
// Instruction/Op constructors it must produce valid programs out of.
package workload

import (
	"math/rand/v2"

	"mvtocc/internal/tocc"
)

// Generator produces well-formed random programs: every instruction other
// than the first reference to a key is preceded by a Read of that key, and
// every program ends in exactly one Commit.
type Generator struct {
	NumKeys int
	NumOps  int
	rng     *rand.Rand
}

// NewGenerator creates a Generator over keys 1..=numKeys, each program
// containing up to numOps instructions before Commit.
func NewGenerator(seed uint64, numKeys, numOps int) *Generator {
	return &Generator{
		NumKeys: numKeys,
		NumOps:  numOps,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Program generates one random, well-formed program.
func (g *Generator) Program() []tocc.Instruction {
	program := make([]tocc.Instruction, 0, g.NumOps+1)
	read := make(map[int]bool, g.NumOps)

	for i := 0; i < g.NumOps; i++ {
		key := g.rng.IntN(g.NumKeys) + 1
		if !read[key] {
			program = append(program, tocc.Read(key))
			read[key] = true
			continue
		}

		switch g.rng.IntN(5) {
		case 0:
			program = append(program, tocc.Write(key))
		case 1:
			program = append(program, tocc.Add(key, int64(g.rng.IntN(200)+1)))
		case 2:
			program = append(program, tocc.Sub(key, int64(g.rng.IntN(200)+1)))
		case 3:
			program = append(program, tocc.Mul(key, int64(g.rng.IntN(5)+1)))
		case 4:
			program = append(program, tocc.Div(key, int64(g.rng.IntN(19)+1))) // never 0
		}
	}

	if len(program) == 0 || program[len(program)-1].Op != tocc.OpCommit {
		program = append(program, tocc.Commit())
	}
	return program
}

// Batch generates n independent programs.
func (g *Generator) Batch(n int) [][]tocc.Instruction {
	out := make([][]tocc.Instruction, n)
	for i := range out {
		out[i] = g.Program()
	}
	return out
}
