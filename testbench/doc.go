// Package testbench drives a μcore the way an external hardware test
// harness does: it holds pin levels, applies clock edges, and samples the
// output bus, refusing samples taken before the pipeline has settled.
//
// Stimulus can be written in Starlark or Lua; both see the same builtins.
package testbench
