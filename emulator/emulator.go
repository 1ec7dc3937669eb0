// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/ucore/core"
	"github.com/ezrec/ucore/internal"
	"github.com/ezrec/ucore/vector"
)

var _emulator_defines = map[string]string{
	"MIN_HOLD": fmt.Sprintf("%d", core.LATENCY),
}

// Emulator state. Core + vector program + trace.
type Emulator struct {
	Verbose    bool            // If set, enables verbose logging.
	*core.Core                 // Reference to the core simulation.
	Program    *vector.Program // Reference to the vector program.
	Trace      Trace           // Trace of the applied vectors.

	index    int // Next vector to apply.
	failures int // Mismatched expectations since Reset.
}

// NewEmulator creates a new emulator for a bus protocol.
func NewEmulator(protocol core.Protocol) (emu *Emulator) {
	emu = &Emulator{
		Core:    core.NewCore(protocol),
		Program: &vector.Program{Protocol: protocol},
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		core.Defines(),
	)
}

// Reset the emulator to the start of the program, replacing the core if
// the program asks for another protocol.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrProgramMissing
		return
	}

	if emu.Core.Protocol() != emu.Program.Protocol {
		if emu.Verbose {
			log.Printf("emulator: protocol %v", emu.Program.Protocol)
		}
		emu.Core = core.NewCore(emu.Program.Protocol)
	}

	emu.Core.Verbose = emu.Verbose
	emu.Core.Reset()
	emu.Trace.Rewind()
	emu.index = 0
	emu.failures = 0

	return
}

// Failures returns the mismatched expectations since the last Reset.
func (emu *Emulator) Failures() int {
	return emu.failures
}

// LineNo returns the line number of the next vector.
func (emu *Emulator) LineNo() int {
	if emu.index < len(emu.Program.Vectors) {
		return emu.Program.Vectors[emu.index].LineNo
	}

	return 0
}

// Tick applies a single vector of the program.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.index >= len(emu.Program.Vectors) {
		done = true
		return
	}

	vec := &emu.Program.Vectors[emu.index]
	emu.index++

	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: vec.LineNo, Err: err}
		}
	}()

	emu.Core.Verbose = emu.Verbose
	for range vec.Cycles {
		emu.Core.Step(vec.Pins)
	}

	out := emu.Core.Output()
	err = emu.Trace.Record(emu.Core.Ticks(), vec.Pins, vec.Cycles, out)
	if err != nil {
		return
	}

	if vec.Expect && out != vec.Value {
		emu.failures++
		err = &ErrMismatch{Tick: emu.Core.Ticks(), Expected: vec.Value, Actual: out}
	}

	return
}

// Run applies the whole program. Mismatches do not stop the run; all of
// them are returned.
func (emu *Emulator) Run() (err error) {
	var errs []error
	for {
		done, tick_err := emu.Tick()
		if done {
			break
		}
		if tick_err == nil {
			continue
		}
		errs = append(errs, tick_err)
		var mismatch *ErrMismatch
		if !errors.As(tick_err, &mismatch) {
			break
		}
	}

	err = errors.Join(errs...)

	return
}
