// Package core implements the behavioral model of the μcore, a small clocked
// arithmetic unit with an 8-bit-in/8-bit-out pin interface.
//
// The core consists of four 4-bit operand registers (A, B, C, D), an operand
// bus decoder for two bus protocols (split load/operate and direct operand),
// an operation dispatcher, an output formatter, and a timing and reset
// controller. All activity is driven by Core.Step, one rising clock edge per
// call, and a stimulus becomes visible on the output bus LATENCY edges after
// it is first presented.
package core
