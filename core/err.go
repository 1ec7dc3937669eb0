package core

import (
	"errors"

	"github.com/ezrec/ucore/translate"
)

var f = translate.From

var (
	// Configuration errors
	ErrProtocolUnknown  = errors.New(f("protocol unknown"))
	ErrOperationUnknown = errors.New(f("operation unknown"))
	ErrSelectorRange    = errors.New(f("selector out of range"))
	ErrEvaluatorMissing = errors.New(f("evaluator missing"))
)

// ErrSelector reports a selector that could not be bound.
type ErrSelector struct {
	Protocol Protocol
	Selector int
	Err      error
}

func (err *ErrSelector) Error() string {
	return f("%v selector %d %v", err.Protocol, err.Selector, err.Err)
}

func (err *ErrSelector) Unwrap() error {
	return err.Err
}
