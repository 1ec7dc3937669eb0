package emulator

import (
	"fmt"
	"io"

	"github.com/ezrec/ucore/core"
)

// Trace writes one vector file line per applied vector, so that a
// recorded trace can be replayed as a golden vector file.
type Trace struct {
	Output io.Writer

	lines int
	last  core.Pins
}

// Rewind forgets the pin history; the next record lists every pin.
func (tr *Trace) Rewind() {
	tr.lines = 0
	tr.last = core.Pins{}
}

// Lines returns the number of lines written since the last Rewind.
func (tr *Trace) Lines() int {
	return tr.lines
}

func bit(value bool) int {
	if value {
		return 1
	}
	return 0
}

// Record writes a vector line with the sampled output as its expectation.
func (tr *Trace) Record(tick int, pins core.Pins, cycles int, out uint8) (err error) {
	if tr.Output == nil {
		return
	}

	text := ""
	if tr.lines == 0 || pins.Ui != tr.last.Ui {
		text += fmt.Sprintf("ui=0x%02x ", pins.Ui)
	}
	if tr.lines == 0 || pins.Uio != tr.last.Uio {
		text += fmt.Sprintf("uio=0x%02x ", pins.Uio)
	}
	if tr.lines == 0 || pins.RstN != tr.last.RstN {
		text += fmt.Sprintf("rst_n=%d ", bit(pins.RstN))
	}
	if tr.lines == 0 || pins.Ena != tr.last.Ena {
		text += fmt.Sprintf("ena=%d ", bit(pins.Ena))
	}
	text += fmt.Sprintf("cycles=%d expect=0x%02x ; tick %d\n", cycles, out, tick)

	n, err := io.WriteString(tr.Output, text)
	if err == nil && n != len(text) {
		err = ErrTraceShort
	}

	tr.lines++
	tr.last = pins

	return
}
