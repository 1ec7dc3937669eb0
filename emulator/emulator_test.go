package emulator

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ucore/core"
	"github.com/ezrec/ucore/vector"
)

var resetLines = []string{
	"ui=0 uio=0 rst_n=1 ena=0 cycles=5",
	"rst_n=0 cycles=5",
	"rst_n=1 cycles=3",
}

func doProgram(emu *Emulator, lines []string, t *testing.T) {
	vp := &vector.Parser{}
	for key, value := range emu.Defines() {
		vp.Predefine(key, value)
	}
	prog, err := vp.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	emu.Program = prog

	err = emu.Reset()
	if err != nil {
		t.Fatal(err)
	}
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(core.PROTOCOL_SPLIT)

	assert.False(emu.Verbose)
	assert.NotNil(emu.Core)
	assert.Equal(core.PROTOCOL_SPLIT, emu.Protocol())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)

	emu.Program = nil
	assert.ErrorIs(emu.Reset(), ErrProgramMissing)
}

func TestEmulatorLoadOperate(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(core.PROTOCOL_SPLIT)

	lines := append([]string{}, resetLines...)
	lines = append(lines,
		"ena=1 ui=$(Q_LOAD_AB) uio=0x45 cycles=MIN_HOLD",
		"ui=$(Q_LOAD_CD) uio=0x67 cycles=MIN_HOLD",
		"ui=$(OP_ADD << 4) cycles=4 expect=0x16",
		"ui=$(OP_MANHATTAN << 4) cycles=4 expect=0x04",
		"ui=$(OP_BOX_AREA << 4) cycles=4 expect=0x04",
		"ui=$(OP_TENSOR_MUL << 4) cycles=4 expect=0x60",
		"ui=$(OP_FOCAL_MEAN << 4) cycles=4 expect=0x05",
		"ui=0xf0 cycles=4 expect=0x00",
	)
	doProgram(emu, lines, t)

	trace := &bytes.Buffer{}
	emu.Trace.Output = trace

	assert.Equal(1, emu.LineNo())
	err := emu.Run()
	assert.NoError(err)
	assert.Equal(0, emu.Failures())
	assert.Equal(emu.Program.Cycles(), emu.Ticks())
	assert.Equal(0, emu.LineNo())
	assert.Equal(len(lines), emu.Trace.Lines())

	first, _, _ := strings.Cut(trace.String(), "\n")
	assert.Equal("ui=0x00 uio=0x00 rst_n=1 ena=0 cycles=5 expect=0x00 ; tick 5", first)
}

func TestEmulatorMismatch(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(core.PROTOCOL_SPLIT)

	lines := append([]string{}, resetLines...)
	lines = append(lines,
		"ena=1 ui=$(Q_LOAD_AB) uio=0x48 cycles=4",
		"ui=$(Q_LOAD_CD) uio=0x62 cycles=4",
		"ui=$(OP_ADD << 4) cycles=4 expect=21",
		"ui=$(OP_MANHATTAN << 4) cycles=4 expect=8",
		"ui=$(OP_BOX_AREA << 4) cycles=4 expect=13",
	)
	doProgram(emu, lines, t)

	err := emu.Run()
	assert.Error(err)
	assert.Equal(2, emu.Failures())

	var runtime *ErrRuntime
	assert.True(errors.As(err, &runtime))
	assert.Equal(6, runtime.LineNo)

	var mismatch *ErrMismatch
	assert.True(errors.As(err, &mismatch))
	assert.Equal(uint8(21), mismatch.Expected)
	assert.Equal(uint8(20), mismatch.Actual)
	assert.Equal(25, mismatch.Tick)
}

func TestEmulatorDirect(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(core.PROTOCOL_SPLIT)

	lines := []string{".protocol direct"}
	lines = append(lines, resetLines...)
	lines = append(lines,
		"ena=1 ui=0x32 uio=$(OPSEL_TENSOR_MUL << 6 | 5 << 3 | 4) cycles=4 expect=0x06",
		"ui=0x27 uio=$(OPSEL_MANHATTAN << 6 | 6 << 3 | 2) cycles=4 expect=9",
	)
	doProgram(emu, lines, t)

	assert.Equal(core.PROTOCOL_DIRECT, emu.Protocol())
	assert.NoError(emu.Run())
}

func TestEmulatorReplay(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(core.PROTOCOL_SPLIT)

	lines := append([]string{}, resetLines...)
	lines = append(lines,
		"ena=1 ui=$(Q_LOAD_AB) uio=0x93 cycles=4",
		"ui=$(Q_LOAD_CD) uio=0x2e cycles=4",
	)
	for op := range core.OP_CODES {
		lines = append(lines, fmt.Sprintf("ui=0x%x0 cycles=1", op))
		lines = append(lines, "cycles=3")
	}
	doProgram(emu, lines, t)

	golden := &bytes.Buffer{}
	emu.Trace.Output = golden
	assert.NoError(emu.Run())

	// The recorded trace is itself a passing vector file.
	replay := NewEmulator(core.PROTOCOL_SPLIT)
	doProgram(replay, strings.Split(golden.String(), "\n"), t)
	assert.Equal(emu.Program.Cycles(), replay.Program.Cycles())
	assert.Equal(len(lines), replay.Program.Expects())
	assert.NoError(replay.Run())
	assert.Equal(0, replay.Failures())
}

func TestEmulatorFile(t *testing.T) {
	assert := assert.New(t)

	inf, err := os.Open("testdata/sweep.vec")
	if err != nil {
		t.Fatal(err)
	}
	defer inf.Close()

	emu := NewEmulator(core.PROTOCOL_SPLIT)

	vp := &vector.Parser{}
	for key, value := range emu.Defines() {
		vp.Predefine(key, value)
	}
	emu.Program, err = vp.Parse(inf)
	assert.NoError(err)
	assert.Equal(11, len(emu.Program.Vectors))
	assert.Equal(6, emu.Program.Expects())

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run())
	assert.Equal(5+5+3+4*8, emu.Ticks())
}
