// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vector

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/ucore/core"
)

// Macro represents a macro definition in a vector file.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = func() (equ map[string]string) {
	equ = maps.Collect(core.Defines())
	equ["LINENO"] = "0"
	return
}()

// Field limits; cycles is capped at 1<<20 edges per line.
var fieldMax = map[string]uint64{
	"ui":     0xff,
	"uio":    0xff,
	"rst_n":  1,
	"ena":    1,
	"expect": 0xff,
	"cycles": 1 << 20,
}

// Parser is a single pass macro expanding parser for stimulus vector files.
//
// Each vector line is a list of FIELD=VALUE words. The pin fields ui, uio,
// rst_n and ena hold their level until changed; cycles (default 1) and
// expect apply to their own line only.
type Parser struct {
	Verbose  bool          // If set, verbosely logs the parser actions.
	Protocol core.Protocol // Protocol until a .protocol directive.
	Vector   []Vector      // List of generated vectors.

	predefine map[string]string   // Predefines
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	protocol core.Protocol
	pins     core.Pins
}

// Predefine defines a new equate or redefines an existing equate.
func (vp *Parser) Predefine(equ string, value string) {
	if vp.predefine == nil {
		vp.predefine = map[string]string{equ: value}
	} else {
		vp.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (vp *Parser) valueOf(word string) (value uint64, err error) {
	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}

	value, err = strconv.ParseUint(strings.ReplaceAll(word, "_", ""), 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = uint64(^uint8(value))
	}

	return
}

// parenEval does $(...) evaluations
func (vp *Parser) parenEval(expr string) (value uint64, err error) {
	thread := starlark.Thread{Name: "vector"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range vp.Equate {
		var value64 uint64
		value64, err = vp.valueOf(str)
		if err != nil {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeUint64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 < 0 {
		err = ErrParseExpression(expr)
		return
	}
	value = uint64(st_int64)
	return
}

// parseLine expands a single line into words.
func (vp *Parser) parseLine(line string, lineno int) (words []string, err error) {
	vp.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := vp.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := vp.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		vp.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	// Equates substitute whole words, and the value side of FIELD=VALUE.
	for n, word := range words {
		equate, ok := vp.Equate[word]
		if ok {
			words[n] = equate
			continue
		}
		field, value, ok := strings.Cut(word, "=")
		if !ok {
			continue
		}
		equate, ok = vp.Equate[value]
		if ok {
			words[n] = field + "=" + equate
		}
	}

	// .macro processing
	macro, ok := vp.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(vp.Equate)
		for n, arg := range macro.Args {
			vp.Equate[arg] = words[1+n]
		}
		defer func() { vp.Equate = old_equate }()

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			words, err = vp.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = vp.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program of vectors.
func (vp *Parser) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	vp.Vector = vp.Vector[:0]
	if vp.Macro == nil {
		vp.Macro = make(map[string](*Macro))
	}
	clear(vp.Macro)
	vp.Equate = maps.Clone(sysEquate)
	for attr, val := range vp.predefine {
		vp.Equate[attr] = val
	}
	vp.protocol = vp.Protocol
	vp.pins = core.Pins{RstN: true}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if vp.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := vp.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			vp.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = vp.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = vp.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if err = scanner.Err(); err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	prog = &Program{
		Protocol: vp.protocol,
		Vectors:  slices.Clone(vp.Vector),
	}

	return
}

// parseWords evaluates the words of a vector file line.
func (vp *Parser) parseWords(words []string, lineno int) (err error) {
	if len(words) == 0 {
		return
	}

	if strings.HasPrefix(words[0], ".") {
		switch words[0] {
		case ".protocol":
			if len(words) != 2 {
				err = ErrProtocolSyntax
				return
			}
			if len(vp.Vector) != 0 {
				err = ErrProtocolLate
				return
			}
			vp.protocol, err = core.ParseProtocol(words[1])
		default:
			err = ErrDirectiveInvalid
		}
		return
	}

	vec := Vector{
		LineNo: lineno,
		Words:  slices.Clone(words),
		Cycles: 1,
	}
	pins := vp.pins

	seen := map[string]bool{}
	for _, word := range words {
		field, text, ok := strings.Cut(word, "=")
		if !ok {
			err = ErrField(word)
			return
		}
		limit, ok := fieldMax[field]
		if !ok {
			err = ErrField(field)
			return
		}
		if seen[field] {
			err = fmt.Errorf("%w: %v", ErrFieldDuplicate, field)
			return
		}
		seen[field] = true

		var value uint64
		value, err = vp.valueOf(text)
		if err != nil {
			return
		}
		if value > limit {
			err = fmt.Errorf("%w: %v=%v", ErrFieldRange, field, text)
			return
		}

		switch field {
		case "ui":
			pins.Ui = uint8(value)
		case "uio":
			pins.Uio = uint8(value)
		case "rst_n":
			pins.RstN = value != 0
		case "ena":
			pins.Ena = value != 0
		case "cycles":
			vec.Cycles = int(value)
		case "expect":
			vec.Expect = true
			vec.Value = uint8(value)
		default:
			err = ErrFieldInvalid
			return
		}
	}

	vec.Pins = pins
	vp.pins = pins
	vp.Vector = append(vp.Vector, vec)

	return
}
