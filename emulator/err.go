package emulator

import (
	"errors"

	"github.com/ezrec/ucore/translate"
)

var f = translate.From

var (
	ErrProgramMissing = errors.New(f("program missing"))
	ErrTraceShort     = errors.New(f("trace write short"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrMismatch is a sampled output that differs from the expected value.
type ErrMismatch struct {
	Tick     int
	Expected uint8
	Actual   uint8
}

func (err *ErrMismatch) Error() string {
	return f("tick %d uo_out 0x%02x, expected 0x%02x", err.Tick, err.Actual, err.Expected)
}
