package vector

import (
	"iter"

	"github.com/ezrec/ucore/core"
)

// Vector is the stimulus of one vector file line.
type Vector struct {
	LineNo int       // Source line number.
	Words  []string  // Source words, after expansion.
	Pins   core.Pins // Pin levels to apply.
	Cycles int       // Rising edges to apply the pins for.
	Expect bool      // Set to compare uo_out after the edges.
	Value  uint8     // Expected uo_out.
}

// Program is a parsed vector file.
type Program struct {
	Protocol core.Protocol
	Vectors  []Vector
}

// Cycles returns the total number of edges of the program.
func (prog *Program) Cycles() (cycles int) {
	for _, vec := range prog.Vectors {
		cycles += vec.Cycles
	}

	return
}

// Expects returns the number of vectors that check uo_out.
func (prog *Program) Expects() (count int) {
	for _, vec := range prog.Vectors {
		if vec.Expect {
			count++
		}
	}

	return
}

// Edges iterates over every edge of the program, with the tick it occurs on.
func (prog *Program) Edges() iter.Seq2[int, *Vector] {
	return func(yield func(tick int, vec *Vector) bool) {
		tick := 0
		for n := range prog.Vectors {
			vec := &prog.Vectors[n]
			for range vec.Cycles {
				tick++
				if !yield(tick, vec) {
					return
				}
			}
		}
	}
}

// Debug returns the vector applied at a tick, counting from 1.
func (prog *Program) Debug(tick int) (vec *Vector) {
	for at, edge := range prog.Edges() {
		if at == tick {
			vec = edge
			break
		}
	}

	return
}
