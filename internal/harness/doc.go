// Package harness runs YAML scenarios against a live engine.
//
// A scenario is a list of steps. Each step names the principal sending it
// (as), an operation (op) and its arguments. Records produced by a step
// can be bound to an alias and referenced by later steps:
//
//	steps:
//	  - as: alice
//	    op: sword
//	    bind: excalibur
//	    args: {strength: 10}
//	  - as: alice
//	    op: transfer
//	    args: {object: excalibur, to: bob}
//
// Every step runs as its own transaction through engine.Execute with
// sequential digests, so identifiers are reproducible across runs. A step
// that aborts must declare the expected code in expect_error; any other
// abort fails the scenario.
//
// The run produces a Result whose Render output is a plain-text trace
// keyed by aliases rather than identifiers, followed by the final
// ownership of every alias. Tests compare that text with golden files.
package harness
