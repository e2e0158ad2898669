package opt

import (
	"testing"

	"github.com/fcxlang/fcxc/ir"
)

func TestSimplifyAddZeroBecomesMov(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := fn.AllocVReg(ir.TypeI64)
	zero := b.Const(0, ir.TypeI64)
	sum := b.Binary(ir.OpAdd, x.Reg, zero.Reg, ir.TypeI64)
	b.Return(sum.Reg)
	fn.Finalize()

	if !SimplifyAlgebraic(fn) {
		t.Fatal("expected a change")
	}
	sumInstr := instructionDefining(fn, sum.Reg)
	if sumInstr.Opcode != ir.OpMov || sumInstr.Args[0] != x.Reg {
		t.Fatalf("expected MOV v%d, got %s %v", x.Reg, sumInstr.Opcode, sumInstr.Args)
	}
}

func TestSimplifyMulZeroBecomesConstZero(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := fn.AllocVReg(ir.TypeI64)
	zero := b.Const(0, ir.TypeI64)
	prod := b.Binary(ir.OpMul, x.Reg, zero.Reg, ir.TypeI64)
	b.Return(prod.Reg)
	fn.Finalize()

	SimplifyAlgebraic(fn)
	prodInstr := instructionDefining(fn, prod.Reg)
	if prodInstr.Opcode != ir.OpConst || prodInstr.Imm != 0 {
		t.Fatalf("expected CONST 0, got %s %d", prodInstr.Opcode, prodInstr.Imm)
	}
}

func TestSimplifySelfXorBecomesConstZero(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := fn.AllocVReg(ir.TypeI64)
	res := b.Binary(ir.OpXor, x.Reg, x.Reg, ir.TypeI64)
	b.Return(res.Reg)
	fn.Finalize()

	SimplifyAlgebraic(fn)
	resInstr := instructionDefining(fn, res.Reg)
	if resInstr.Opcode != ir.OpConst || resInstr.Imm != 0 {
		t.Fatalf("expected CONST 0, got %s %d", resInstr.Opcode, resInstr.Imm)
	}
}

func TestSimplifyDoubleNegationCollapses(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := fn.AllocVReg(ir.TypeI64)
	n1 := b.Unary(ir.OpNeg, x.Reg, ir.TypeI64)
	n2 := b.Unary(ir.OpNeg, n1.Reg, ir.TypeI64)
	b.Return(n2.Reg)
	fn.Finalize()

	if !SimplifyAlgebraic(fn) {
		t.Fatal("expected a change")
	}
	n2Instr := instructionDefining(fn, n2.Reg)
	if n2Instr.Opcode != ir.OpMov || n2Instr.Args[0] != x.Reg {
		t.Fatalf("expected MOV v%d, got %s %v", x.Reg, n2Instr.Opcode, n2Instr.Args)
	}
}
