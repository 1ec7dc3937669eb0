package testbench

import (
	"errors"

	"github.com/ezrec/ucore/translate"
)

var f = translate.From

var (
	ErrLatency    = errors.New(f("output sampled before the pipeline settled"))
	ErrSequence   = errors.New(f("enable raised while reset is held"))
	ErrAssert     = errors.New(f("assertion failed"))
	ErrScriptType = errors.New(f("script type unknown"))
	ErrArgument   = errors.New(f("argument invalid"))
)

// ErrSample is a sample taken too early.
type ErrSample struct {
	Tick    int
	Settled int
}

func (err *ErrSample) Error() string {
	return f("tick %d sampled after %d of %d edges", err.Tick, err.Settled, latency)
}

func (err *ErrSample) Unwrap() error {
	return ErrLatency
}

// ErrExpect is a failed expectation.
type ErrExpect struct {
	Tick     int
	Message  string
	Expected int
	Actual   int
}

func (err *ErrExpect) Error() string {
	return f("tick %d %v: got 0x%02x, expected 0x%02x", err.Tick, err.Message, err.Actual, err.Expected)
}

func (err *ErrExpect) Unwrap() error {
	return ErrAssert
}

// ErrScript locates an error inside a stimulus script.
type ErrScript struct {
	Script string
	Err    error
}

func (err *ErrScript) Error() string {
	return f("%v: %v", err.Script, err.Err)
}

func (err *ErrScript) Unwrap() error {
	return err.Err
}
