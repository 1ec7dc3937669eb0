// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package core

import (
	"fmt"
	"log"
)

// Core is the simulation context of one μcore instance.
type Core struct {
	Verbose bool // Set to enable verbose logging.

	RegisterFile             // Operand registers.
	Dispatcher   *Dispatcher // Selector table of the core's protocol.

	inUi    uint8 // Input latch, bus-1.
	inUio   uint8 // Input latch, bus-2.
	result  uint8 // Formatted result latch.
	output  uint8 // Output latch, drives uo_out.
	state   State
	ticks   int
	changes int // Edges with a changed output latch.
}

// NewCore creates a core in its power-on state for a bus protocol.
func NewCore(protocol Protocol) (core *Core) {
	core = &Core{
		Dispatcher: NewDispatcher(protocol),
	}

	core.Reset()

	return
}

// Protocol returns the bus protocol of the core.
func (core *Core) Protocol() Protocol {
	return core.Dispatcher.Protocol
}

// Reset forces the power-on state: registers, latches and counters are
// cleared and the controller is held. Selector bindings are kept.
func (core *Core) Reset() {
	if core.Verbose {
		log.Printf("core: reset")
	}

	core.clear()
	core.state = STATE_HELD
	core.ticks = 0
	core.changes = 0
}

func (core *Core) clear() {
	core.RegisterFile.Reset()
	core.inUi = 0
	core.inUio = 0
	core.result = 0
	core.output = 0
}

// State returns the controller state sampled at the last edge.
func (core *Core) State() State {
	return core.state
}

// Output returns the level of the output bus.
func (core *Core) Output() uint8 {
	return core.output
}

// Ticks returns the rising edges seen since the last Reset.
func (core *Core) Ticks() int {
	return core.ticks
}

// Changes returns the number of edges that changed the output bus.
func (core *Core) Changes() int {
	return core.changes
}

// Step advances the core by one rising clock edge with the given pin
// levels, and returns the output bus after the edge.
//
// While active, the edge moves every pipeline stage forward:
//   - the output latch takes the formatted result,
//   - the input latch is decoded, a selected register pair is loaded and the
//     selected operation is evaluated over the (possibly just loaded) operands,
//   - the input latch samples the buses.
func (core *Core) Step(pins Pins) uint8 {
	core.ticks++

	switch {
	case !pins.RstN:
		if core.state != STATE_HELD && core.Verbose {
			log.Printf("core: %04d: reset held", core.ticks)
		}
		core.state = STATE_HELD
		if core.output != 0 {
			core.changes++
		}
		core.clear()
		return core.output
	case !pins.Ena:
		if core.state != STATE_DISABLED && core.Verbose {
			log.Printf("core: %04d: disabled", core.ticks)
		}
		core.state = STATE_DISABLED
		return core.output
	}

	if core.state != STATE_ACTIVE && core.Verbose {
		log.Printf("core: %04d: active", core.ticks)
	}
	core.state = STATE_ACTIVE

	prior := core.output
	core.output = core.result

	dec := Decode(core.Protocol(), core.inUi, core.inUio)
	ops := dec.Operands
	if core.Protocol() == PROTOCOL_SPLIT {
		if core.RegisterFile.Load(dec.Load, dec.Data) && core.Verbose {
			log.Printf("core: %04d: load %v 0x%02x", core.ticks, dec.Load, dec.Data)
		}
		ops = core.RegisterFile.Operands()
	}
	res := core.Dispatcher.Dispatch(dec.Selector, ops)
	core.result = res.Pack()

	core.inUi = pins.Ui
	core.inUio = pins.Uio

	if core.output != prior {
		core.changes++
		if core.Verbose {
			log.Printf("core: %04d: uo_out 0x%02x", core.ticks, core.output)
		}
	}

	return core.output
}

// String returns the current core state as a string.
func (core *Core) String() (text string) {
	text += fmt.Sprintf("% 8s: %v\n", "protocol", core.Protocol())
	text += fmt.Sprintf("% 8s: %v\n", "state", core.state)
	text += fmt.Sprintf("% 8s: %d\n", "ticks", core.ticks)
	for reg := REG_A; reg <= REG_D; reg++ {
		text += fmt.Sprintf("% 8s: %X\n", reg.String(), core.Read(reg))
	}
	text += fmt.Sprintf("% 8s: %02X_%02X\n", "in", core.inUi, core.inUio)
	text += fmt.Sprintf("% 8s: %02X\n", "result", core.result)
	text += fmt.Sprintf("% 8s: %02X\n", "uo_out", core.output)

	return
}
