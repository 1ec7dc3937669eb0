package emulator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ucore/core"
)

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

func TestTrace_Record(t *testing.T) {
	assert := assert.New(t)

	out := &bytes.Buffer{}
	tr := &Trace{Output: out}

	assert.NoError(tr.Record(5, core.Pins{RstN: true}, 5, 0))
	assert.NoError(tr.Record(10, core.Pins{}, 5, 0))
	assert.NoError(tr.Record(14, core.Pins{Ui: 0x06, Uio: 0x45, Ena: true}, 4, 0x09))
	assert.NoError(tr.Record(18, core.Pins{Ui: 0x06, Uio: 0x45, Ena: true}, 4, 0x09))

	assert.Equal(4, tr.Lines())
	assert.Equal(
		"ui=0x00 uio=0x00 rst_n=1 ena=0 cycles=5 expect=0x00 ; tick 5\n"+
			"rst_n=0 cycles=5 expect=0x00 ; tick 10\n"+
			"ui=0x06 uio=0x45 ena=1 cycles=4 expect=0x09 ; tick 14\n"+
			"cycles=4 expect=0x09 ; tick 18\n",
		out.String())

	tr.Rewind()
	assert.Equal(0, tr.Lines())
}

func TestTrace_Discard(t *testing.T) {
	assert := assert.New(t)

	tr := &Trace{}
	assert.NoError(tr.Record(1, core.Pins{}, 1, 0))
	assert.Equal(0, tr.Lines())
}

func TestTrace_Short(t *testing.T) {
	assert := assert.New(t)

	tr := &Trace{Output: shortWriter{}}
	assert.ErrorIs(tr.Record(1, core.Pins{}, 1, 0), ErrTraceShort)
}
