package testbench

import (
	"fmt"
	"strconv"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/ucore/core"
	"github.com/ezrec/ucore/internal"
)

// starlarkUint8 converts a starlark value to a bus field.
func starlarkUint8(name string, v starlark.Value) (value uint8, err error) {
	i, err := starlark.AsInt32(v)
	if err != nil {
		err = fmt.Errorf("%w: %v: %v", ErrArgument, name, err)
		return
	}
	if i < 0 || i > 0xff {
		err = fmt.Errorf("%w: %v=%d", ErrArgument, name, i)
		return
	}
	value = uint8(i)
	return
}

// starlarkFields converts a list of bus field arguments.
func starlarkFields(names []string, values ...starlark.Value) (fields []uint8, err error) {
	fields = make([]uint8, len(values))
	for n, v := range values {
		fields[n], err = starlarkUint8(names[n], v)
		if err != nil {
			return
		}
	}
	return
}

// starlarkResult converts an evaluator return value: an int is a magnitude,
// a pair is a packed {M, N} result.
func starlarkResult(v starlark.Value) (res core.Result, err error) {
	switch v := v.(type) {
	case starlark.Int:
		var i int
		i, err = starlark.AsInt32(v)
		if err == nil && i < 0 {
			err = fmt.Errorf("%w: negative result %d", ErrArgument, i)
		}
		res = core.MakeMagnitude(uint16(i))
	case starlark.Tuple:
		if v.Len() != 2 {
			err = fmt.Errorf("%w: result pair has %d items", ErrArgument, v.Len())
			return
		}
		var m, n uint8
		m, err = starlarkUint8("m", v.Index(0))
		if err != nil {
			return
		}
		n, err = starlarkUint8("n", v.Index(1))
		res = core.MakePacked(m, n)
	default:
		err = fmt.Errorf("%w: result type %v", ErrArgument, v.Type())
	}

	return
}

type starlarkFunc func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// starlarkBuiltin records the first Go error a builtin returns, so that the
// original error survives the trip through the interpreter.
func (b *Bench) starlarkBuiltin(name string, impl starlarkFunc) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (v starlark.Value, err error) {
		v, err = impl(thread, fn, args, kwargs)
		if err != nil && b.scriptErr == nil {
			b.scriptErr = err
		}
		return
	})
}

func (b *Bench) starlarkBuiltins() starlark.StringDict {
	out := func(value uint8, err error) (starlark.Value, error) {
		if err != nil {
			return nil, err
		}
		return starlark.MakeInt(int(value)), nil
	}

	return starlark.StringDict{
		"set": b.starlarkBuiltin("set", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var ui, uio, rst_n, ena starlark.Value
			err := starlark.UnpackArgs(fn.Name(), args, kwargs, "ui?", &ui, "uio?", &uio, "rst_n?", &rst_n, "ena?", &ena)
			if err != nil {
				return nil, err
			}
			pins := b.pins
			if ui != nil && ui != starlark.None {
				if pins.Ui, err = starlarkUint8("ui", ui); err != nil {
					return nil, err
				}
			}
			if uio != nil && uio != starlark.None {
				if pins.Uio, err = starlarkUint8("uio", uio); err != nil {
					return nil, err
				}
			}
			if rst_n != nil && rst_n != starlark.None {
				pins.RstN = bool(rst_n.Truth())
			}
			if ena != nil && ena != starlark.None {
				pins.Ena = bool(ena.Truth())
			}
			return starlark.None, b.Set(pins)
		}),
		"clock": b.starlarkBuiltin("clock", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			cycles := 1
			err := starlark.UnpackArgs(fn.Name(), args, kwargs, "cycles?", &cycles)
			if err != nil {
				return nil, err
			}
			return starlark.None, b.Clock(cycles)
		}),
		"out": b.starlarkBuiltin("out", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			err := starlark.UnpackArgs(fn.Name(), args, kwargs)
			if err != nil {
				return nil, err
			}
			return out(b.Sample())
		}),
		"reset": b.starlarkBuiltin("reset", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			err := starlark.UnpackArgs(fn.Name(), args, kwargs)
			if err != nil {
				return nil, err
			}
			return starlark.None, b.ResetSequence()
		}),
		"load_pair": b.starlarkBuiltin("load_pair", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var q, hi, lo starlark.Value
			err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 3, &q, &hi, &lo)
			if err != nil {
				return nil, err
			}
			fields, err := starlarkFields([]string{"q", "hi", "lo"}, q, hi, lo)
			if err != nil {
				return nil, err
			}
			return starlark.None, b.Load(core.LoadSelect(fields[0]), fields[1], fields[2])
		}),
		"op": b.starlarkBuiltin("op", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var code starlark.Value
			err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &code)
			if err != nil {
				return nil, err
			}
			op, err := starlarkUint8("op", code)
			if err != nil {
				return nil, err
			}
			return out(b.Operate(op))
		}),
		"direct": b.starlarkBuiltin("direct", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var sel, a, bb, c, d starlark.Value
			err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 5, &sel, &a, &bb, &c, &d)
			if err != nil {
				return nil, err
			}
			fields, err := starlarkFields([]string{"sel", "a", "b", "c", "d"}, sel, a, bb, c, d)
			if err != nil {
				return nil, err
			}
			ops := core.Operands{A: fields[1], B: fields[2], C: fields[3], D: fields[4]}
			return out(b.Direct(fields[0], ops))
		}),
		"expect": b.starlarkBuiltin("expect", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var actual, expected int
			msg := ""
			err := starlark.UnpackArgs(fn.Name(), args, kwargs, "actual", &actual, "expected", &expected, "msg?", &msg)
			if err != nil {
				return nil, err
			}
			return starlark.None, b.Expect(actual, expected, msg)
		}),
		"define_op": b.starlarkBuiltin("define_op", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var sel int
			var eval starlark.Callable
			err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &sel, &eval)
			if err != nil {
				return nil, err
			}
			return starlark.None, b.Define(sel, func(ops core.Operands) (res core.Result, err error) {
				operands := starlark.Tuple{
					starlark.MakeInt(int(ops.A)),
					starlark.MakeInt(int(ops.B)),
					starlark.MakeInt(int(ops.C)),
					starlark.MakeInt(int(ops.D)),
				}
				v, err := starlark.Call(thread, eval, operands, nil)
				if err != nil {
					return
				}
				return starlarkResult(v)
			})
		}),
		"log": b.starlarkBuiltin("log", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var msg string
			err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &msg)
			if err != nil {
				return nil, err
			}
			b.Logf("%v", msg)
			return starlark.None, nil
		}),
	}
}

// RunStarlark executes a Starlark stimulus script.
func (b *Bench) RunStarlark(filename string, src []byte) (err error) {
	defer func() {
		if err != nil {
			err = &ErrScript{Script: filename, Err: err}
		}
	}()

	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			b.Logf("%v", msg)
		},
	}

	pred := b.starlarkBuiltins()
	for key, value := range internal.SortedSeq2(b.Defines()) {
		v, perr := strconv.ParseUint(value, 0, 32)
		if perr != nil {
			continue
		}
		pred[key] = starlark.MakeUint64(v)
	}

	opts := &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
	}

	b.scriptErr = nil
	_, err = starlark.ExecFileOptions(opts, thread, filename, src, pred)
	if err != nil && b.scriptErr != nil {
		err = b.scriptErr
	}
	b.scriptErr = nil

	return
}
