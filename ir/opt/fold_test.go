package opt

import (
	"testing"

	"github.com/fcxlang/fcxc/ir"
)

func TestFoldConstantsAdd(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := b.Const(3, ir.TypeI64)
	y := b.Const(4, ir.TypeI64)
	sum := b.Binary(ir.OpAdd, x.Reg, y.Reg, ir.TypeI64)
	b.Return(sum.Reg)
	fn.Finalize()

	if !FoldConstants(fn) {
		t.Fatal("expected FoldConstants to report a change")
	}
	sumInstr := instructionDefining(fn, sum.Reg)
	if sumInstr.Opcode != ir.OpConst || sumInstr.Imm != 7 {
		t.Fatalf("expected sum folded to CONST 7, got %s %d", sumInstr.Opcode, sumInstr.Imm)
	}
	if FoldConstants(fn) {
		t.Fatal("expected second fold pass to report no change (fixed point)")
	}
}

func TestFoldConstantsDivByZeroUnfolded(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	x := b.Const(10, ir.TypeI64)
	zero := b.Const(0, ir.TypeI64)
	q := b.Binary(ir.OpDiv, x.Reg, zero.Reg, ir.TypeI64)
	b.Return(q.Reg)
	fn.Finalize()

	FoldConstants(fn)
	qInstr := instructionDefining(fn, q.Reg)
	if qInstr.Opcode != ir.OpDiv {
		t.Fatalf("division by zero must not be folded, got %s", qInstr.Opcode)
	}
}

func TestFoldBigIntAdd(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI1024)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	a := b.ConstBigInt(ir.BigIntFromUint64(1), ir.TypeI1024)
	c := b.ConstBigInt(ir.BigIntFromUint64(2), ir.TypeI1024)
	sum := b.Binary(ir.OpAdd, a.Reg, c.Reg, ir.TypeI1024)
	b.Return(sum.Reg)
	fn.Finalize()

	FoldConstants(fn)
	sumInstr := instructionDefining(fn, sum.Reg)
	if sumInstr.Opcode != ir.OpConstBigInt {
		t.Fatalf("expected bigint sum folded, got %s", sumInstr.Opcode)
	}
	if sumInstr.BigImm.Limbs[0] != 3 {
		t.Fatalf("expected limb[0]=3, got %d", sumInstr.BigImm.Limbs[0])
	}
}

// instructionDefining walks fn looking for the instruction defining reg;
// test-only helper mirroring the single-definition invariant the builder
// guarantees.
func instructionDefining(fn *ir.Function, reg ir.VReg) *ir.Instruction {
	var found *ir.Instruction
	fn.AllInstructions(func(_ *ir.BasicBlock, instr *ir.Instruction) {
		if instr.Dest == reg {
			found = instr
		}
	})
	return found
}
