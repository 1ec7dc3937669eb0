// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/ezrec/ucore/core"
	"github.com/ezrec/ucore/emulator"
	"github.com/ezrec/ucore/testbench"
	"github.com/ezrec/ucore/translate"
	"github.com/ezrec/ucore/vector"
)

// dump pretty prints the final core state to stderr.
func dump(dut *core.Core) {
	printer := pp.New()
	printer.SetOutput(os.Stderr)
	printer.SetColoringEnabled(term.IsTerminal(int(os.Stderr.Fd())))
	printer.Println(dut)
}

func runScript(script string, protocol core.Protocol, verbose bool) *core.Core {
	dut := core.NewCore(protocol)
	dut.Verbose = verbose

	bench := testbench.NewBench(dut)
	bench.Verbose = verbose

	err := bench.RunFile(script)
	if err != nil {
		log.Fatal(err)
	}

	err = bench.Close()
	if err != nil {
		log.Fatal(err)
	}

	return dut
}

func runVectors(input, output string, protocol core.Protocol, verbose bool) *core.Core {
	emu := emulator.NewEmulator(protocol)
	emu.Verbose = verbose

	var inf io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer f.Close()
		inf = f
	}

	vp := &vector.Parser{Verbose: verbose, Protocol: protocol}
	for key, value := range emu.Defines() {
		vp.Predefine(key, value)
	}
	prog, err := vp.Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}
	emu.Program = prog

	if output == "-" {
		emu.Trace.Output = os.Stdout
	} else if len(output) != 0 {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Trace.Output = ouf
	}

	err = emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	err = emu.Run()
	if err != nil {
		log.Fatalf("%v: %v", input, err)
	}

	return emu.Core
}

func main() {
	var protocol string
	var script string
	var input string
	var output string
	var verbose bool
	var dumpState bool

	flag.StringVar(&protocol, "p", "split", "Bus protocol (split, direct)")
	flag.StringVar(&script, "x", "", ".star or .lua stimulus script to run")
	flag.StringVar(&input, "i", "-", "Vector file input")
	flag.StringVar(&output, "o", "-", "Trace output")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&dumpState, "dump", false, "Dump the final core state")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	proto, err := core.ParseProtocol(protocol)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}

	var dut *core.Core
	if len(script) != 0 {
		dut = runScript(script, proto, verbose)
	} else {
		dut = runVectors(input, output, proto, verbose)
	}

	if verbose {
		translate.Logf("%v: %d ticks, state %v", os.Args[0], dut.Ticks(), dut.State())
	}

	if dumpState {
		dump(dut)
	}
}
