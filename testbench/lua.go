package testbench

import (
	"bytes"
	"fmt"
	"strconv"

	lua "github.com/yuin/gopher-lua"

	"github.com/ezrec/ucore/core"
	"github.com/ezrec/ucore/internal"
)

// luaRaise records a Go error and raises it in the Lua state, so that the
// original error survives the trip through the interpreter.
func (b *Bench) luaRaise(L *lua.LState, err error) int {
	if b.scriptErr == nil {
		b.scriptErr = err
	}
	L.RaiseError("%v", err)
	return 0
}

func luaBool(v lua.LValue) bool {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return v != 0
	}
	return lua.LVAsBool(v)
}

func luaUint8(name string, v lua.LValue) (value uint8, err error) {
	n, ok := v.(lua.LNumber)
	if !ok || n < 0 || n > 0xff || n != lua.LNumber(int(n)) {
		err = fmt.Errorf("%w: %v=%v", ErrArgument, name, v)
		return
	}
	value = uint8(n)
	return
}

// luaResult converts evaluator returns: one number is a magnitude, two
// numbers are a packed {M, N} result.
func luaResult(r1, r2 lua.LValue) (res core.Result, err error) {
	if r2 == lua.LNil {
		n, ok := r1.(lua.LNumber)
		if !ok || n < 0 {
			err = fmt.Errorf("%w: result %v", ErrArgument, r1)
			return
		}
		res = core.MakeMagnitude(uint16(n))
		return
	}

	m, err := luaUint8("m", r1)
	if err != nil {
		return
	}
	n, err := luaUint8("n", r2)
	if err != nil {
		return
	}
	res = core.MakePacked(m, n)

	return
}

// luaByte checks an integer argument and converts it to a byte.
func (b *Bench) luaByte(L *lua.LState, n int, name string) uint8 {
	value, err := byteArg(name, L.CheckInt(n))
	if err != nil {
		b.luaRaise(L, err)
	}
	return value
}

func (b *Bench) luaBuiltins() map[string]lua.LGFunction {
	out := func(L *lua.LState, value uint8, err error) int {
		if err != nil {
			return b.luaRaise(L, err)
		}
		L.Push(lua.LNumber(value))
		return 1
	}

	return map[string]lua.LGFunction{
		"set": func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			pins := b.pins
			var err error
			if v := tbl.RawGetString("ui"); v != lua.LNil {
				if pins.Ui, err = luaUint8("ui", v); err != nil {
					return b.luaRaise(L, err)
				}
			}
			if v := tbl.RawGetString("uio"); v != lua.LNil {
				if pins.Uio, err = luaUint8("uio", v); err != nil {
					return b.luaRaise(L, err)
				}
			}
			if v := tbl.RawGetString("rst_n"); v != lua.LNil {
				pins.RstN = luaBool(v)
			}
			if v := tbl.RawGetString("ena"); v != lua.LNil {
				pins.Ena = luaBool(v)
			}
			if err = b.Set(pins); err != nil {
				return b.luaRaise(L, err)
			}
			return 0
		},
		"clock": func(L *lua.LState) int {
			if err := b.Clock(L.OptInt(1, 1)); err != nil {
				return b.luaRaise(L, err)
			}
			return 0
		},
		"out": func(L *lua.LState) int {
			value, err := b.Sample()
			return out(L, value, err)
		},
		"reset": func(L *lua.LState) int {
			if err := b.ResetSequence(); err != nil {
				return b.luaRaise(L, err)
			}
			return 0
		},
		"load_pair": func(L *lua.LState) int {
			q := b.luaByte(L, 1, "q")
			hi := b.luaByte(L, 2, "hi")
			lo := b.luaByte(L, 3, "lo")
			if err := b.Load(core.LoadSelect(q), hi, lo); err != nil {
				return b.luaRaise(L, err)
			}
			return 0
		},
		"op": func(L *lua.LState) int {
			value, err := b.Operate(b.luaByte(L, 1, "op"))
			return out(L, value, err)
		},
		"direct": func(L *lua.LState) int {
			sel := b.luaByte(L, 1, "sel")
			ops := core.Operands{
				A: b.luaByte(L, 2, "a"),
				B: b.luaByte(L, 3, "b"),
				C: b.luaByte(L, 4, "c"),
				D: b.luaByte(L, 5, "d"),
			}
			value, err := b.Direct(sel, ops)
			return out(L, value, err)
		},
		"expect": func(L *lua.LState) int {
			err := b.Expect(L.CheckInt(1), L.CheckInt(2), L.OptString(3, ""))
			if err != nil {
				return b.luaRaise(L, err)
			}
			return 0
		},
		"define_op": func(L *lua.LState) int {
			sel := L.CheckInt(1)
			fn := L.CheckFunction(2)
			op, eval := b.Core.Dispatcher.Binding(sel)
			// Evaluators run on the bench state, not on a coroutine.
			state := b.state
			err := b.Define(sel, func(ops core.Operands) (res core.Result, err error) {
				err = state.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true},
					lua.LNumber(ops.A), lua.LNumber(ops.B), lua.LNumber(ops.C), lua.LNumber(ops.D))
				if err != nil {
					return
				}
				r1, r2 := state.Get(-2), state.Get(-1)
				state.Pop(2)
				return luaResult(r1, r2)
			})
			if err != nil {
				return b.luaRaise(L, err)
			}
			if _, ok := b.prior[sel]; !ok {
				b.prior[sel] = luaPriorBinding{op: op, eval: eval}
			}
			return 0
		},
		"log": func(L *lua.LState) int {
			b.Logf("%v", L.CheckString(1))
			return 0
		},
	}
}

// luaState returns the interpreter shared by the Lua scripts of the bench,
// creating it on first use. Functions bound by define_op stay callable
// until Close.
func (b *Bench) luaState() *lua.LState {
	if b.state != nil {
		return b.state
	}

	L := lua.NewState()
	for key, value := range internal.SortedSeq2(b.Defines()) {
		v, err := strconv.ParseUint(value, 0, 32)
		if err != nil {
			continue
		}
		L.SetGlobal(key, lua.LNumber(v))
	}
	for name, fn := range b.luaBuiltins() {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	b.state = L
	b.prior = make(map[int]luaPriorBinding)

	return L
}

// RunLua executes a Lua stimulus script. Globals and define_op bindings
// persist across scripts run on the same bench.
func (b *Bench) RunLua(filename string, src []byte) (err error) {
	defer func() {
		if err != nil {
			err = &ErrScript{Script: filename, Err: err}
		}
	}()

	L := b.luaState()
	top := L.GetTop()
	defer L.SetTop(top)

	chunk, err := L.Load(bytes.NewReader(src), filename)
	if err != nil {
		return
	}

	b.scriptErr = nil
	L.Push(chunk)
	err = L.PCall(0, lua.MultRet, nil)
	if err != nil && b.scriptErr != nil {
		err = b.scriptErr
	}
	b.scriptErr = nil

	return
}
