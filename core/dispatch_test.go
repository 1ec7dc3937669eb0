package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		op   Operation
		ops  Operands
		out  uint8
	}){
		{"add_1", OP_ADD, Operands{4, 8, 6, 2}, 20},
		{"add_2", OP_ADD, Operands{5, 3, 1, 7}, 16},
		{"add_max", OP_ADD, Operands{15, 15, 15, 15}, 60},
		{"manhattan_1", OP_MANHATTAN, Operands{4, 8, 6, 2}, 8},
		{"manhattan_2", OP_MANHATTAN, Operands{7, 2, 2, 6}, 9},
		{"manhattan_zero", OP_MANHATTAN, Operands{3, 3, 3, 3}, 0},
		{"box_area_1", OP_BOX_AREA, Operands{2, 7, 6, 1}, 24},
		{"box_area_2", OP_BOX_AREA, Operands{1, 1, 3, 6}, 10},
		{"box_area_flat", OP_BOX_AREA, Operands{5, 2, 5, 9}, 0},
		{"box_area_max", OP_BOX_AREA, Operands{0, 15, 15, 0}, 225},
		{"focal_mean_1", OP_FOCAL_MEAN, Operands{4, 8, 6, 2}, 5},
		{"focal_mean_2", OP_FOCAL_MEAN, Operands{4, 5, 6, 7}, 5},
		{"focal_mean_3", OP_FOCAL_MEAN, Operands{15, 15, 15, 15}, 15},
		{"tensor_mul", OP_TENSOR_MUL, Operands{2, 3, 4, 5}, 0x06},
		{"tensor_mul_hi", OP_TENSOR_MUL, Operands{3, 3, 3, 2}, 0x69},
		{"none", OP_NONE, Operands{15, 15, 15, 15}, 0},
	}

	for _, entry := range table {
		res := Evaluate(entry.op, entry.ops)
		assert.Equal(entry.out, res.Pack(), entry.name)
	}
}

func TestEvaluate_Properties(t *testing.T) {
	assert := assert.New(t)

	abs := func(x int) int {
		if x < 0 {
			return -x
		}
		return x
	}

	for v := range 1 << 16 {
		a, b, c, d := v&0xf, (v>>4)&0xf, (v>>8)&0xf, (v>>12)&0xf
		ops := Operands{A: uint8(a), B: uint8(b), C: uint8(c), D: uint8(d)}
		here := fmt.Sprintf("%+v", ops)

		add := Evaluate(OP_ADD, ops)
		assert.Equal(FORMAT_MAGNITUDE, add.Format)
		assert.Equal(uint8(a+b+c+d), add.Pack(), here)

		dist := Evaluate(OP_MANHATTAN, ops)
		assert.Equal(uint8(abs(a-c)+abs(b-d)), dist.Pack(), here)

		area := Evaluate(OP_BOX_AREA, ops)
		assert.Equal(uint8(abs(c-a)*abs(b-d)), area.Pack(), here)

		mul := Evaluate(OP_TENSOR_MUL, ops)
		assert.Equal(FORMAT_PACKED, mul.Format)
		assert.Equal(uint8((a&3)*(b&3)), mul.N, here)
		assert.Equal(uint8((c&3)*(d&3)), mul.M, here)
	}
}

func TestDispatcher_Split(t *testing.T) {
	assert := assert.New(t)

	dp := NewDispatcher(PROTOCOL_SPLIT)
	assert.Equal(OP_CODES, dp.Codes())

	assert.Equal(OP_ADD, dp.Operation(0))
	assert.Equal(OP_MANHATTAN, dp.Operation(1))
	assert.Equal(OP_BOX_AREA, dp.Operation(2))
	assert.Equal(OP_TENSOR_MUL, dp.Operation(3))
	assert.Equal(OP_FOCAL_MEAN, dp.Operation(4))
	for sel := 5; sel < OP_CODES; sel++ {
		assert.Equal(OP_NONE, dp.Operation(uint8(sel)))
	}

	ops := Operands{4, 8, 6, 2}
	assert.Equal(uint8(20), dp.Dispatch(0, ops).Pack())
	assert.Equal(uint8(8), dp.Dispatch(1, ops).Pack())
}

func TestDispatcher_Direct(t *testing.T) {
	assert := assert.New(t)

	dp := NewDispatcher(PROTOCOL_DIRECT)
	assert.Equal(OPSEL_CODES, dp.Codes())

	ops := Operands{2, 3, 4, 5}
	assert.Equal(uint8(4), dp.Dispatch(0, ops).Pack())
	assert.Equal(uint8(4), dp.Dispatch(1, ops).Pack())
	assert.Equal(uint8(0x06), dp.Dispatch(2, ops).Pack())
	assert.Equal(uint8(3), dp.Dispatch(3, ops).Pack())
}

func TestDispatcher_Define(t *testing.T) {
	assert := assert.New(t)

	dp := NewDispatcher(PROTOCOL_SPLIT)

	err := dp.Define(7, func(ops Operands) Result {
		return MakePacked(ops.A, ops.D)
	})
	assert.NoError(err)
	assert.Equal(OP_CUSTOM, dp.Operation(7))
	assert.Equal(uint8(0x47), dp.Dispatch(7, Operands{4, 5, 6, 7}).Pack())

	err = dp.Define(16, func(ops Operands) Result { return Result{} })
	assert.True(errors.Is(err, ErrSelectorRange))
	var sel_err *ErrSelector
	assert.True(errors.As(err, &sel_err))
	assert.Equal(16, sel_err.Selector)

	err = dp.Define(8, nil)
	assert.True(errors.Is(err, ErrEvaluatorMissing))

	err = dp.Assign(7, OP_BOX_AREA)
	assert.NoError(err)
	assert.Equal(OP_BOX_AREA, dp.Operation(7))

	err = dp.Assign(7, OP_CUSTOM)
	assert.True(errors.Is(err, ErrOperationUnknown))

	err = dp.Assign(-1, OP_ADD)
	assert.True(errors.Is(err, ErrSelectorRange))

	dp.Define(9, func(ops Operands) Result { return MakeMagnitude(1) })
	dp.Restore()
	assert.Equal(OP_NONE, dp.Operation(7))
	assert.Equal(OP_NONE, dp.Operation(9))
}

func TestDispatcher_Binding(t *testing.T) {
	assert := assert.New(t)

	dp := NewDispatcher(PROTOCOL_SPLIT)

	op, eval := dp.Binding(int(OP_MANHATTAN))
	assert.Equal(OP_MANHATTAN, op)
	assert.Nil(eval)

	dp.Define(11, func(ops Operands) Result { return MakeMagnitude(uint16(ops.B)) })
	op, eval = dp.Binding(11)
	assert.Equal(OP_CUSTOM, op)
	assert.NotNil(eval)
	assert.Equal(uint16(5), eval(Operands{4, 5, 6, 7}).Magnitude)

	op, eval = dp.Binding(OP_CODES)
	assert.Equal(OP_NONE, op)
	assert.Nil(eval)
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	protocol, err := ParseProtocol("direct")
	assert.NoError(err)
	assert.Equal(PROTOCOL_DIRECT, protocol)

	_, err = ParseProtocol("serial")
	assert.True(errors.Is(err, ErrProtocolUnknown))

	op, err := ParseOperation("box_area")
	assert.NoError(err)
	assert.Equal(OP_BOX_AREA, op)

	_, err = ParseOperation("divide")
	assert.True(errors.Is(err, ErrOperationUnknown))
}
