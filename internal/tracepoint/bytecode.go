package tracepoint

// OpKind tags one executor instruction, the set spec §4.8 names:
// PushInt/PushFloat/PushBool/PushString/PushVariable, UnaryOperation,
// BinaryOperation, Index, JumpIfFalse, Log. This rewrite adds one
// compiler-internal OpJump (unconditional) — see DESIGN.md — since
// JumpIfFalse alone, being a pure conditional-consume, cannot express the
// && / || short-circuit join point without duplicating the right-hand
// subexpression's bytecode.
type OpKind int

const (
	OpPushInt OpKind = iota
	OpPushFloat
	OpPushBool
	OpPushString
	OpPushVariable
	OpUnaryOperation
	OpBinaryOperation
	OpIndex
	OpJumpIfFalse
	OpJump
	OpLog
)

// Opcode is one bytecode instruction. Only the fields relevant to Kind are
// meaningful. Range is the source span of the subexpression that produced
// it, carried so a runtime error can highlight the offending subexpression
// (spec §4.8).
type Opcode struct {
	Kind  OpKind
	Int   int64
	Float float64
	Bool  bool
	Str   string // PushString / PushVariable value, or the operator spelling
	Rel   int    // relative jump offset for JumpIfFalse / Jump
	Range Range
}

// Bytecode is a compiled tracepoint program: a flat instruction sequence
// ending in Log.
type Bytecode struct {
	Opcodes []Opcode
}

// compile lowers an expression tree to Bytecode, appending a trailing Log
// so evaluating a tracepoint always produces exactly one logged value.
func compile(node Node) Bytecode {
	var c compilerState
	c.emitNode(node)
	c.emit(Opcode{Kind: OpLog, Range: node.Span()})
	return Bytecode{Opcodes: c.opcodes}
}

type compilerState struct {
	opcodes []Opcode
}

func (c *compilerState) emit(op Opcode) int {
	c.opcodes = append(c.opcodes, op)
	return len(c.opcodes) - 1
}

func (c *compilerState) emitNode(node Node) {
	switch n := node.(type) {
	case IntLit:
		c.emit(Opcode{Kind: OpPushInt, Int: n.Value, Range: n.R})
	case FloatLit:
		c.emit(Opcode{Kind: OpPushFloat, Float: n.Value, Range: n.R})
	case BoolLit:
		c.emit(Opcode{Kind: OpPushBool, Bool: n.Value, Range: n.R})
	case StringLit:
		c.emit(Opcode{Kind: OpPushString, Str: n.Value, Range: n.R})
	case Ident:
		c.emit(Opcode{Kind: OpPushVariable, Str: n.Name, Range: n.R})
	case Unary:
		c.emitNode(n.Operand)
		c.emit(Opcode{Kind: OpUnaryOperation, Str: n.Op, Range: n.R})
	case Index:
		c.emitNode(n.Base)
		c.emitNode(n.Index)
		c.emit(Opcode{Kind: OpIndex, Range: n.R})
	case Binary:
		if shortCircuitOps[n.Op] {
			c.emitShortCircuit(n)
		} else {
			c.emitNode(n.Left)
			c.emitNode(n.Right)
			c.emit(Opcode{Kind: OpBinaryOperation, Str: n.Op, Range: n.R})
		}
	}
}

// emitShortCircuit compiles "left && right" / "left || right" so the right
// operand is only evaluated when it can change the result — spec §4.8's
// "short-circuit boolean evaluation is compiled via JumpIfFalse".
//
// "a && b":
//
//	<a>
//	JumpIfFalse -> Lfalse   (pop a; if false, short-circuit to false)
//	<b>
//	JumpIfFalse -> Lfalse   (pop b; if false, result is false)
//	PushBool(true)
//	Jump -> Lend
//
// Lfalse:
//
//	PushBool(false)
//
// Lend:
//
// "a || b" is the mirror: JumpIfFalse on a jumps to evaluating b, while a
// true a falls through to PushBool(true) and jumps to Lend.
func (c *compilerState) emitShortCircuit(n Binary) {
	c.emitNode(n.Left)
	if n.Op == "&&" {
		jumpToFalse1 := c.emit(Opcode{Kind: OpJumpIfFalse, Range: n.Left.Span()})
		c.emitNode(n.Right)
		jumpToFalse2 := c.emit(Opcode{Kind: OpJumpIfFalse, Range: n.Right.Span()})
		c.emit(Opcode{Kind: OpPushBool, Bool: true, Range: n.R})
		jumpToEnd := c.emit(Opcode{Kind: OpJump, Range: n.R})
		falseTarget := len(c.opcodes)
		c.emit(Opcode{Kind: OpPushBool, Bool: false, Range: n.R})
		endTarget := len(c.opcodes)
		c.patch(jumpToFalse1, falseTarget)
		c.patch(jumpToFalse2, falseTarget)
		c.patch(jumpToEnd, endTarget)
		return
	}
	// "||": if left is true, short-circuit to true; else evaluate right.
	jumpToRight := c.emit(Opcode{Kind: OpJumpIfFalse, Range: n.Left.Span()})
	c.emit(Opcode{Kind: OpPushBool, Bool: true, Range: n.R})
	jumpToEnd := c.emit(Opcode{Kind: OpJump, Range: n.R})
	rightTarget := len(c.opcodes)
	c.emitNode(n.Right)
	jumpIfRightFalse := c.emit(Opcode{Kind: OpJumpIfFalse, Range: n.Right.Span()})
	c.emit(Opcode{Kind: OpPushBool, Bool: true, Range: n.R})
	jumpToEnd2 := c.emit(Opcode{Kind: OpJump, Range: n.R})
	falseTarget := len(c.opcodes)
	c.emit(Opcode{Kind: OpPushBool, Bool: false, Range: n.R})
	endTarget := len(c.opcodes)
	c.patch(jumpToRight, rightTarget)
	c.patch(jumpIfRightFalse, falseTarget)
	c.patch(jumpToEnd, endTarget)
	c.patch(jumpToEnd2, endTarget)
}

// patch sets the opcode at index to jump (relative) to target.
func (c *compilerState) patch(index, target int) {
	c.opcodes[index].Rel = target - index
}
