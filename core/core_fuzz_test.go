package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzStep(f *testing.F) {
	for rv := range 0x10 {
		rst_n := (rv & 1) == 1
		ena := ((rv >> 1) & 1) == 1
		direct := ((rv >> 2) & 1) == 1
		f.Add(uint8(rv<<4), uint8(0x45), rst_n, ena, direct)
		f.Add(uint8(0xff), uint8(0xff), rst_n, ena, direct)
		f.Add(uint8(0x06), uint8(rv), rst_n, ena, direct)
	}

	f.Fuzz(func(t *testing.T, ui uint8, uio uint8, rst_n bool, ena bool, direct bool) {
		assert := assert.New(t)

		protocol := PROTOCOL_SPLIT
		if direct {
			protocol = PROTOCOL_DIRECT
		}

		core := NewCore(protocol)
		doResetSequence(core)
		if protocol == PROTOCOL_SPLIT {
			doLoad(core, 0xa, 0x3, 0x7, 0xc)
		}
		doHold(core, Pins{RstN: true, Ena: true, Ui: 0x10}, 4)

		pre_regs := core.RegisterFile
		pre_out := core.Output()

		pins := Pins{Ui: ui, Uio: uio, RstN: rst_n, Ena: ena}
		out := doHold(core, pins, LATENCY)

		here := fmt.Sprintf("%v %+v\n%v", protocol, pins, core.String())

		switch {
		case !rst_n:
			assert.Equal(uint8(0), out, here)
			assert.Equal(Operands{}, core.Operands(), here)
			assert.Equal(STATE_HELD, core.State(), here)
		case !ena:
			assert.Equal(pre_out, out, here)
			assert.Equal(pre_regs, core.RegisterFile, here)
			assert.Equal(STATE_DISABLED, core.State(), here)
		default:
			dec := Decode(protocol, ui, uio)
			ops := dec.Operands
			if protocol == PROTOCOL_SPLIT {
				regs := pre_regs
				regs.Load(dec.Load, dec.Data)
				ops = regs.Operands()
				assert.Equal(regs, core.RegisterFile, here)
			} else {
				assert.Equal(pre_regs, core.RegisterFile, here)
			}
			sel := dec.Selector
			expected := Evaluate(NewDispatcher(protocol).Operation(sel), ops).Pack()
			assert.Equal(expected, out, here)
			assert.Equal(STATE_ACTIVE, core.State(), here)

			// Holding the inputs keeps the output stable.
			assert.Equal(out, doHold(core, pins, 5), here)
		}
	})
}
