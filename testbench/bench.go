// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package testbench

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/ezrec/ucore/core"
	"github.com/ezrec/ucore/internal"
)

const latency = core.LATENCY

// Reset sequence and hold times of the reference harness.
const (
	RESET_IDLE   = 5 // Edges of idle before reset.
	RESET_HOLD   = 5 // Edges of reset held low.
	RESET_SETTLE = 3 // Edges after reset release before enable.
	HOLD         = 4 // Edges a helper holds a stimulus before sampling.
)

var _bench_defines = map[string]string{
	"RESET_IDLE":   fmt.Sprintf("%d", RESET_IDLE),
	"RESET_HOLD":   fmt.Sprintf("%d", RESET_HOLD),
	"RESET_SETTLE": fmt.Sprintf("%d", RESET_SETTLE),
	"HOLD":         fmt.Sprintf("%d", HOLD),
}

// Bench is the external driver of a core.
type Bench struct {
	Verbose bool       // If set, logs every pin change.
	Core    *core.Core // Device under test.
	Output  io.Writer  // Destination of script log messages; log.Printf if nil.

	pins      core.Pins
	settled   int   // Active edges since the last pin change.
	evalErr   error // First error raised by a script defined evaluator.
	failures  int
	scriptErr error

	state *lua.LState             // Shared by every Lua script of the bench.
	prior map[int]luaPriorBinding // Bindings replaced by Lua define_op.
}

type luaPriorBinding struct {
	op   core.Operation
	eval core.Evaluator
}

// NewBench creates a bench around a core.
func NewBench(dut *core.Core) (b *Bench) {
	b = &Bench{
		Core: dut,
		pins: core.Pins{RstN: true},
	}

	return
}

// Defines returns the names predeclared in stimulus scripts.
func (b *Bench) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(core.Defines(), maps.All(_bench_defines))
}

// Pins returns the pin levels currently driven.
func (b *Bench) Pins() core.Pins {
	return b.pins
}

// Settled returns the active edges applied since the pins last changed.
func (b *Bench) Settled() int {
	return b.settled
}

// Failures returns the number of failed expectations.
func (b *Bench) Failures() int {
	return b.failures
}

// Logf writes a script log message.
func (b *Bench) Logf(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if b.Output == nil {
		log.Print(text)
		return
	}

	fmt.Fprintln(b.Output, text)
}

// Set drives new pin levels, effective from the next edge.
func (b *Bench) Set(pins core.Pins) (err error) {
	if pins.Ena && !b.pins.Ena && !pins.RstN {
		err = ErrSequence
		return
	}

	if pins != b.pins {
		if b.Verbose {
			log.Printf("testbench: %04d: ui=0x%02x uio=0x%02x rst_n=%v ena=%v",
				b.Core.Ticks(), pins.Ui, pins.Uio, pins.RstN, pins.Ena)
		}
		b.settled = 0
	}
	b.pins = pins

	return
}

// Clock applies rising edges with the current pin levels.
func (b *Bench) Clock(cycles int) (err error) {
	if cycles < 0 {
		err = fmt.Errorf("%w: clock %d", ErrArgument, cycles)
		return
	}

	for range cycles {
		b.Core.Step(b.pins)
		if b.Core.State() == core.STATE_ACTIVE {
			b.settled++
		} else {
			b.settled = 0
		}
		if b.evalErr != nil {
			err, b.evalErr = b.evalErr, nil
			return
		}
	}

	return
}

// Sample reads the output bus. Sampling before LATENCY active edges have
// been applied to the current pins is a protocol violation.
func (b *Bench) Sample() (out uint8, err error) {
	if b.settled < latency {
		err = &ErrSample{Tick: b.Core.Ticks(), Settled: b.settled}
		return
	}

	out = b.Core.Output()
	return
}

// ResetSequence idles, resets, settles and enables the core.
func (b *Bench) ResetSequence() (err error) {
	steps := []struct {
		pins   core.Pins
		cycles int
	}{
		{core.Pins{RstN: true}, RESET_IDLE},
		{core.Pins{RstN: false}, RESET_HOLD},
		{core.Pins{RstN: true}, RESET_SETTLE},
	}

	for _, step := range steps {
		err = b.Set(step.pins)
		if err != nil {
			return
		}
		err = b.Clock(step.cycles)
		if err != nil {
			return
		}
	}

	err = b.Set(core.Pins{RstN: true, Ena: true})
	return
}

func (b *Bench) need(protocol core.Protocol, what string) (err error) {
	if b.Core.Protocol() != protocol {
		err = fmt.Errorf("%w: %v needs the %v protocol", ErrArgument, what, protocol)
	}
	return
}

// field checks that a value fits its bus field.
func field(name string, value, mask uint8) (err error) {
	if value&^mask != 0 {
		err = fmt.Errorf("%w: %v=%#x exceeds %#x", ErrArgument, name, value, mask)
	}
	return
}

// byteArg converts a script integer to a byte.
func byteArg(name string, value int) (out uint8, err error) {
	if value < 0 || value > 0xff {
		err = fmt.Errorf("%w: %v=%d", ErrArgument, name, value)
		return
	}
	out = uint8(value)
	return
}

// Load writes a register pair with the split protocol and holds it.
func (b *Bench) Load(q core.LoadSelect, hi, lo uint8) (err error) {
	err = b.need(core.PROTOCOL_SPLIT, "load")
	if err != nil {
		return
	}
	err = errors.Join(
		field("q", uint8(q), core.NIBBLE_MASK),
		field("hi", hi, core.NIBBLE_MASK),
		field("lo", lo, core.NIBBLE_MASK),
	)
	if err != nil {
		return
	}

	pins := b.pins
	pins.Ui, pins.Uio = core.EncodeSplit(0, q, hi, lo)
	err = b.Set(pins)
	if err != nil {
		return
	}

	err = b.Clock(HOLD)
	return
}

// Operate selects a split protocol operation and samples its result.
func (b *Bench) Operate(op uint8) (out uint8, err error) {
	err = b.need(core.PROTOCOL_SPLIT, "op")
	if err != nil {
		return
	}
	err = field("op", op, core.NIBBLE_MASK)
	if err != nil {
		return
	}

	pins := b.pins
	pins.Ui, _ = core.EncodeSplit(op, core.Q_NONE, 0, 0)
	return b.hold(pins)
}

// Direct presents direct protocol operands and samples the result.
func (b *Bench) Direct(sel uint8, ops core.Operands) (out uint8, err error) {
	err = b.need(core.PROTOCOL_DIRECT, "direct")
	if err != nil {
		return
	}
	err = errors.Join(
		field("sel", sel, core.PAIR_MASK),
		field("a", ops.A, core.NIBBLE_MASK),
		field("b", ops.B, core.NIBBLE_MASK),
		field("c", ops.C, core.TRIAD_MASK),
		field("d", ops.D, core.TRIAD_MASK),
	)
	if err != nil {
		return
	}

	pins := b.pins
	pins.Ui, pins.Uio = core.EncodeDirect(sel, ops)
	return b.hold(pins)
}

func (b *Bench) hold(pins core.Pins) (out uint8, err error) {
	err = b.Set(pins)
	if err != nil {
		return
	}
	err = b.Clock(HOLD)
	if err != nil {
		return
	}

	return b.Sample()
}

// Expect compares a sampled value with its expectation.
func (b *Bench) Expect(actual, expected int, msg string) (err error) {
	if actual == expected {
		return
	}

	b.failures++
	err = &ErrExpect{Tick: b.Core.Ticks(), Message: msg, Expected: expected, Actual: actual}

	return
}

// Define binds a selector to a script supplied evaluator. Errors raised
// while evaluating it abort the clock edge that called it.
func (b *Bench) Define(sel int, eval func(ops core.Operands) (core.Result, error)) (err error) {
	return b.Core.Dispatcher.Define(sel, func(ops core.Operands) core.Result {
		res, err := eval(ops)
		if err != nil && b.evalErr == nil {
			b.evalErr = err
		}
		return res
	})
}

// Run executes a stimulus script, chosen by file extension.
func (b *Bench) Run(filename string, src []byte) (err error) {
	switch filepath.Ext(filename) {
	case ".star", ".sky", ".bzl":
		err = b.RunStarlark(filename, src)
	case ".lua":
		err = b.RunLua(filename, src)
	default:
		err = &ErrScript{Script: filename, Err: ErrScriptType}
	}

	return
}

// Close releases the Lua interpreter and returns the selectors bound by
// Lua scripts to their previous bindings.
func (b *Bench) Close() (err error) {
	if b.state == nil {
		return
	}

	var errs []error
	for sel, prior := range b.prior {
		if prior.op == core.OP_CUSTOM {
			errs = append(errs, b.Core.Dispatcher.Define(sel, prior.eval))
		} else {
			errs = append(errs, b.Core.Dispatcher.Assign(sel, prior.op))
		}
	}
	clear(b.prior)

	b.state.Close()
	b.state = nil

	err = errors.Join(errs...)
	return
}

// RunFile reads and executes a stimulus script.
func (b *Bench) RunFile(filename string) (err error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return
	}

	return b.Run(filename, src)
}
