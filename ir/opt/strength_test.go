package opt

import (
	"testing"

	"github.com/fcxlang/fcxc/ir"
)

func TestStrengthReduceMulPowerOfTwo(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeU64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := fn.AllocVReg(ir.TypeU64)
	eight := b.Const(8, ir.TypeU64)
	prod := b.Binary(ir.OpMul, x.Reg, eight.Reg, ir.TypeU64)
	b.Return(prod.Reg)
	fn.Finalize()

	if !StrengthReduce(fn) {
		t.Fatal("expected a change")
	}
	prodInstr := instructionDefining(fn, prod.Reg)
	if prodInstr.Opcode != ir.OpShl {
		t.Fatalf("expected SHL, got %s", prodInstr.Opcode)
	}
	constInstr := instructionDefining(fn, eight.Reg)
	if constInstr.Imm != 3 {
		t.Fatalf("expected shift amount rewritten to 3, got %d", constInstr.Imm)
	}
}

func TestStrengthReduceModPowerOfTwo(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeU64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := fn.AllocVReg(ir.TypeU64)
	sixteen := b.Const(16, ir.TypeU64)
	rem := b.Binary(ir.OpMod, x.Reg, sixteen.Reg, ir.TypeU64)
	b.Return(rem.Reg)
	fn.Finalize()

	StrengthReduce(fn)
	remInstr := instructionDefining(fn, rem.Reg)
	if remInstr.Opcode != ir.OpAnd {
		t.Fatalf("expected AND, got %s", remInstr.Opcode)
	}
	constInstr := instructionDefining(fn, sixteen.Reg)
	if constInstr.Imm != 15 {
		t.Fatalf("expected mask rewritten to 15, got %d", constInstr.Imm)
	}
}

func TestStrengthReduceSignedDivUnaffected(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := fn.AllocVReg(ir.TypeI64)
	four := b.Const(4, ir.TypeI64)
	q := b.Binary(ir.OpDiv, x.Reg, four.Reg, ir.TypeI64)
	b.Return(q.Reg)
	fn.Finalize()

	if StrengthReduce(fn) {
		t.Fatal("signed division must not be strength-reduced")
	}
}
