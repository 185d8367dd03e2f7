// Package tracepoint compiles and executes tracepoint expressions: small
// source snippets evaluated at a step to produce a logged value (spec
// §4.8). Grounded on the original engine's
// tracepoint_interpreter/mod.rs (Instruction/Opcode/Bytecode shapes); the
// compiler and executor are this rewrite's own, since the original's
// compiler.rs/executor.rs were not retrieved.
package tracepoint

import "github.com/codetracer/db-backend/internal/value"

// Interpreter compiles tracepoint sources to Bytecode and caches the
// result by source text, so a tracepoint hit on every step of a scan
// compiles once.
type Interpreter struct {
	cache map[string]compiled
}

type compiled struct {
	bc  Bytecode
	err error
}

// New creates an empty Interpreter.
func New() *Interpreter {
	return &Interpreter{cache: make(map[string]compiled)}
}

// Eval compiles (if not cached) and executes source against lookup,
// returning the logged Result. A compile error surfaces as a Value{kind
// =Error} Result spanning the whole source, matching the executor's
// error-in/error-out convention for uniformity — callers don't need a
// separate compile-vs-run error path.
func (in *Interpreter) Eval(source string, lookup Lookup) Result {
	c, ok := in.cache[source]
	if !ok {
		node, err := parse(source)
		if err != nil {
			c = compiled{err: err}
		} else {
			c = compiled{bc: compile(node)}
		}
		in.cache[source] = c
	}
	if c.err != nil {
		return Result{
			Value: value.Error(c.err.Error()),
			Range: Range{Start: 0, End: len([]rune(source))},
		}
	}
	return execute(c.bc, lookup)
}
