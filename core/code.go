package core

import (
	"fmt"
	"iter"
	"maps"
)

// Protocol is the operand bus protocol variant of a core.
type Protocol int

//go:generate go tool stringer -linecomment -type=Protocol
const (
	PROTOCOL_SPLIT  = Protocol(0) // split
	PROTOCOL_DIRECT = Protocol(1) // direct
)

// ParseProtocol returns the protocol named by its String() form.
func ParseProtocol(name string) (protocol Protocol, err error) {
	for _, protocol = range []Protocol{PROTOCOL_SPLIT, PROTOCOL_DIRECT} {
		if protocol.String() == name {
			return
		}
	}

	err = fmt.Errorf("%w: %q", ErrProtocolUnknown, name)
	return
}

// Operation is a function the dispatcher can evaluate.
//
// The values of the assigned operations are also their split protocol
// Op codes.
type Operation int

//go:generate go tool stringer -linecomment -type=Operation
const (
	OP_ADD        = Operation(0) // add
	OP_MANHATTAN  = Operation(1) // manhattan
	OP_BOX_AREA   = Operation(2) // box_area
	OP_TENSOR_MUL = Operation(3) // tensor_mul
	OP_FOCAL_MEAN = Operation(4) // focal_mean
	OP_NONE       = Operation(5) // none
	OP_CUSTOM     = Operation(6) // custom
)

// ParseOperation returns the operation named by its String() form.
func ParseOperation(name string) (op Operation, err error) {
	for op = OP_ADD; op <= OP_CUSTOM; op++ {
		if op.String() == name {
			return
		}
	}

	err = fmt.Errorf("%w: %q", ErrOperationUnknown, name)
	return
}

// Format is the packing of a result onto the output bus.
type Format int

//go:generate go tool stringer -linecomment -type=Format
const (
	FORMAT_MAGNITUDE = Format(0) // magnitude
	FORMAT_PACKED    = Format(1) // packed
)

// State is the timing and reset controller state.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_HELD     = State(0) // held
	STATE_DISABLED = State(1) // disabled
	STATE_ACTIVE   = State(2) // active
)

// Register is an operand register index.
type Register int

//go:generate go tool stringer -linecomment -type=Register
const (
	REG_A = Register(0) // a
	REG_B = Register(1) // b
	REG_C = Register(2) // c
	REG_D = Register(3) // d
)

// LoadSelect is the Q field of the split protocol.
type LoadSelect uint8

const (
	Q_NONE    = LoadSelect(0b0000) // No register write.
	Q_LOAD_CD = LoadSelect(0b0101) // Load C (high nibble) and D (low nibble).
	Q_LOAD_AB = LoadSelect(0b0110) // Load A (high nibble) and B (low nibble).
)

func (q LoadSelect) String() string {
	switch q {
	case Q_NONE:
		return "none"
	case Q_LOAD_AB:
		return "ab"
	case Q_LOAD_CD:
		return "cd"
	}
	return fmt.Sprintf("q%04b", uint8(q))
}

const (
	LATENCY = 3 // Rising edges from stimulus to a settled output.

	OP_CODES    = 16 // Split protocol Op codes.
	OPSEL_CODES = 4  // Direct protocol OpSel codes.

	NIBBLE_MASK = 0xf // 4-bit field.
	TRIAD_MASK  = 0x7 // 3-bit field.
	PAIR_MASK   = 0x3 // 2-bit field.

	SPLIT_OP_SHIFT   = 4 // ui_in[7:4]
	SPLIT_Q_SHIFT    = 0 // ui_in[3:0]
	SPLIT_HI_SHIFT   = 4 // uio_in[7:4]
	SPLIT_LO_SHIFT   = 0 // uio_in[3:0]
	DIRECT_A_SHIFT   = 0 // ui_in[3:0]
	DIRECT_B_SHIFT   = 4 // ui_in[7:4]
	DIRECT_C_SHIFT   = 0 // uio_in[2:0]
	DIRECT_D_SHIFT   = 3 // uio_in[5:3]
	DIRECT_SEL_SHIFT = 6 // uio_in[7:6]
)

var _core_defines = map[string]string{
	"LATENCY":          fmt.Sprintf("%d", LATENCY),
	"Q_NONE":           fmt.Sprintf("0x%x", uint8(Q_NONE)),
	"Q_LOAD_AB":        fmt.Sprintf("0x%x", uint8(Q_LOAD_AB)),
	"Q_LOAD_CD":        fmt.Sprintf("0x%x", uint8(Q_LOAD_CD)),
	"OP_ADD":           fmt.Sprintf("%d", OP_ADD),
	"OP_MANHATTAN":     fmt.Sprintf("%d", OP_MANHATTAN),
	"OP_BOX_AREA":      fmt.Sprintf("%d", OP_BOX_AREA),
	"OP_TENSOR_MUL":    fmt.Sprintf("%d", OP_TENSOR_MUL),
	"OP_FOCAL_MEAN":    fmt.Sprintf("%d", OP_FOCAL_MEAN),
	"OPSEL_MANHATTAN":  "0",
	"OPSEL_BOX_AREA":   "1",
	"OPSEL_TENSOR_MUL": "2",
	"OPSEL_FOCAL_MEAN": "3",
}

// Defines returns the predefined names of the core.
func Defines() iter.Seq2[string, string] {
	return maps.All(_core_defines)
}

// Pins is the level of every input pin during one rising clock edge.
type Pins struct {
	Ui   uint8 // ui_in, bus-1.
	Uio  uint8 // uio_in, bus-2.
	RstN bool  // rst_n, active-low synchronous reset.
	Ena  bool  // ena, activity gate.
}

// Operands are the four operand values seen by the dispatcher.
type Operands struct {
	A, B, C, D uint8
}

// Result is the dispatcher output for one cycle.
type Result struct {
	Format    Format
	Magnitude uint16 // FORMAT_MAGNITUDE value.
	M         uint8  // FORMAT_PACKED high field.
	N         uint8  // FORMAT_PACKED low field.
}

// Evaluator computes a result from operands.
type Evaluator func(ops Operands) Result
