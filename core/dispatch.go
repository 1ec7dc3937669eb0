package core

import (
	"slices"
)

var _split_table = [OP_CODES]Operation{
	OP_ADD, OP_MANHATTAN, OP_BOX_AREA, OP_TENSOR_MUL,
	OP_FOCAL_MEAN, OP_NONE, OP_NONE, OP_NONE,
	OP_NONE, OP_NONE, OP_NONE, OP_NONE,
	OP_NONE, OP_NONE, OP_NONE, OP_NONE,
}

var _direct_table = [OPSEL_CODES]Operation{
	OP_MANHATTAN, OP_BOX_AREA, OP_TENSOR_MUL, OP_FOCAL_MEAN,
}

// Dispatcher maps selector codes to operations.
type Dispatcher struct {
	Protocol Protocol // Protocol the selector table belongs to.

	table  []Operation
	custom map[uint8]Evaluator
}

// NewDispatcher creates a dispatcher with the default selector table of a protocol.
func NewDispatcher(protocol Protocol) (dp *Dispatcher) {
	dp = &Dispatcher{Protocol: protocol}
	dp.Restore()
	return
}

// Restore returns the selector table to its defaults.
func (dp *Dispatcher) Restore() {
	switch dp.Protocol {
	case PROTOCOL_DIRECT:
		dp.table = slices.Clone(_direct_table[:])
	default:
		dp.table = slices.Clone(_split_table[:])
	}
	clear(dp.custom)
}

// Codes returns the number of selector codes.
func (dp *Dispatcher) Codes() int {
	return len(dp.table)
}

// Operation returns the operation bound to a selector.
func (dp *Dispatcher) Operation(sel uint8) Operation {
	return dp.table[int(sel)%len(dp.table)]
}

// Binding returns the operation bound to a selector and, for OP_CUSTOM,
// its evaluator.
func (dp *Dispatcher) Binding(sel int) (op Operation, eval Evaluator) {
	if sel < 0 || sel >= len(dp.table) {
		op = OP_NONE
		return
	}

	op = dp.table[sel]
	if op == OP_CUSTOM {
		eval = dp.custom[uint8(sel)]
	}

	return
}

// Assign binds a selector to a built-in operation.
func (dp *Dispatcher) Assign(sel int, op Operation) (err error) {
	if sel < 0 || sel >= len(dp.table) {
		err = &ErrSelector{Protocol: dp.Protocol, Selector: sel, Err: ErrSelectorRange}
		return
	}
	if op < OP_ADD || op >= OP_CUSTOM {
		err = &ErrSelector{Protocol: dp.Protocol, Selector: sel, Err: ErrOperationUnknown}
		return
	}

	dp.table[sel] = op
	delete(dp.custom, uint8(sel))

	return
}

// Define binds a selector to an evaluator, typically one pinned down by
// golden vectors of the real unit.
func (dp *Dispatcher) Define(sel int, eval Evaluator) (err error) {
	if sel < 0 || sel >= len(dp.table) {
		err = &ErrSelector{Protocol: dp.Protocol, Selector: sel, Err: ErrSelectorRange}
		return
	}
	if eval == nil {
		err = &ErrSelector{Protocol: dp.Protocol, Selector: sel, Err: ErrEvaluatorMissing}
		return
	}

	if dp.custom == nil {
		dp.custom = make(map[uint8]Evaluator)
	}
	dp.table[sel] = OP_CUSTOM
	dp.custom[uint8(sel)] = eval

	return
}

// Dispatch evaluates the operation selected by sel.
func (dp *Dispatcher) Dispatch(sel uint8, ops Operands) Result {
	sel = uint8(int(sel) % len(dp.table))

	op := dp.table[sel]
	if op == OP_CUSTOM {
		return dp.custom[sel](ops)
	}

	return Evaluate(op, ops)
}

// Evaluate computes a built-in operation.
func Evaluate(op Operation, ops Operands) (res Result) {
	a := uint16(ops.A)
	b := uint16(ops.B)
	c := uint16(ops.C)
	d := uint16(ops.D)

	switch op {
	case OP_ADD:
		res = MakeMagnitude(a + b + c + d)
	case OP_MANHATTAN:
		res = MakeMagnitude(absDiff(a, c) + absDiff(b, d))
	case OP_BOX_AREA:
		res = MakeMagnitude(absDiff(a, c) * absDiff(b, d))
	case OP_FOCAL_MEAN:
		// Truncating mean of the 2x2 neighbourhood.
		res = MakeMagnitude((a + b + c + d) >> 2)
	case OP_TENSOR_MUL:
		p1 := (ops.A & PAIR_MASK) * (ops.B & PAIR_MASK)
		p2 := (ops.C & PAIR_MASK) * (ops.D & PAIR_MASK)
		res = MakePacked(p2, p1)
	default:
		res = MakeMagnitude(0)
	}

	return
}

func absDiff(x, y uint16) uint16 {
	if x > y {
		return x - y
	}
	return y - x
}
