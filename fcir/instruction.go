package fcir

import "github.com/fcxlang/fcxc/ir"

// Instruction is one FC IR instruction: a flattened struct rather than a
// per-opcode type, for the same Go-has-no-union-type reason ir.Instruction
// gives. Two-operand destructive form mirrors the real ISA: for ADD,
// SUB, AND, OR, XOR, IMUL, NEG, NOT, and MOV, Dest is both an input and
// the result.
type Instruction struct {
	Opcode Opcode
	Line   int32

	Dest Operand
	Src  Operand

	// CC is the condition code of a Jcc.
	CC CondCode

	// CalleeName/CalleeIndirect/IsExternalABI describe CALL; Operand Src
	// carries the indirect-call target VReg when CalleeIndirect is true.
	CalleeName     string
	CalleeIndirect bool
	IsExternalABI  bool
	TailCall       bool

	// Locked marks XCHG (implicitly locked by the ISA), CMPXCHG (LOCK
	// CMPXCHG), and the ADD/SUB/AND/OR/XOR that atomic fetch operations
	// lower to, so the formatter/encoder can print the LOCK prefix.
	Locked bool

	// Asm carries the inline-asm payload for OpInlineAsm passthrough;
	// the backend, not this package, resolves constraints and clobbers.
	Asm *ir.InlineAsm
}

func (i *Instruction) String() string { return i.Opcode.String() }
