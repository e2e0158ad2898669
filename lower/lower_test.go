package lower

import (
	"testing"

	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/fcir"
	"github.com/fcxlang/fcxc/ir"
)

func buildLowered(t *testing.T, build func(fn *ir.Function, b *ir.Builder)) (*fcir.Function, *diag.List) {
	t.Helper()
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)
	build(fn, b)
	fn.Finalize()

	var diags diag.List
	fcMod := fcir.NewModule("m")
	fcFn := LowerFunction(fn, fcMod, &diags)
	return fcFn, &diags
}

func TestLowerSimpleSubtractReturn(t *testing.T) {
	fcFn, diags := buildLowered(t, func(fn *ir.Function, b *ir.Builder) {
		x := fn.AllocVReg(ir.TypeI64)
		c := b.Const(21, ir.TypeI64)
		result := b.Binary(ir.OpSub, c.Reg, x.Reg, ir.TypeI64)
		b.Return(result.Reg)
	})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Items())
	}
	var ops []fcir.Opcode
	fcFn.AllInstructions(func(_ *fcir.BasicBlock, instr *fcir.Instruction) {
		ops = append(ops, instr.Opcode)
	})
	want := []fcir.Opcode{
		fcir.OpMov, // const 21
		fcir.OpMov, // mov result, c
		fcir.OpSub, // sub result, x
		fcir.OpMov, // mov rax, result
		fcir.OpRet,
	}
	if len(ops) != len(want) {
		t.Fatalf("expected %d instructions, got %d: %v", len(want), len(ops), ops)
	}
	for i, op := range want {
		if ops[i] != op {
			t.Fatalf("instruction %d: expected %s, got %s", i, op, ops[i])
		}
	}
}

func TestLowerCompareProducesSentinel(t *testing.T) {
	fcFn, _ := buildLowered(t, func(fn *ir.Function, b *ir.Builder) {
		x := fn.AllocVReg(ir.TypeI64)
		y := fn.AllocVReg(ir.TypeI64)
		cmp := b.Binary(ir.OpCmpGt, x.Reg, y.Reg, ir.TypeI64)
		trueBlk := fn.NewBlock("")
		falseBlk := fn.NewBlock("")
		b.Branch(cmp.Reg, trueBlk.ID(), falseBlk.ID())
		b.SetBlock(trueBlk)
		b.Return(ir.VRegInvalid)
		b.SetBlock(falseBlk)
		b.Return(ir.VRegInvalid)
	})

	var found bool
	fcFn.AllInstructions(func(_ *fcir.BasicBlock, instr *fcir.Instruction) {
		if instr.Opcode == fcir.OpMov && instr.Src.Kind == fcir.OperandImm {
			if cc, ok := fcir.IsSentinel(instr.Src.Imm); ok && cc == fcir.CondGt {
				found = true
			}
		}
	})
	if !found {
		t.Fatal("expected a MOV of the CondGt sentinel")
	}
}

func TestLowerSyscallSequence(t *testing.T) {
	fcFn, _ := buildLowered(t, func(fn *ir.Function, b *ir.Builder) {
		fd := fn.AllocVReg(ir.TypeI64)
		buf := fn.AllocVReg(ir.TypeTypedPtr)
		length := fn.AllocVReg(ir.TypeI64)
		num := b.Const(1, ir.TypeI64)
		res := b.Syscall(num.Reg, []ir.VReg{fd.Reg, buf.Reg, length.Reg})
		b.Return(res.Reg)
	})

	var ops []fcir.Opcode
	fcFn.AllInstructions(func(_ *fcir.BasicBlock, instr *fcir.Instruction) {
		ops = append(ops, instr.Opcode)
	})
	// const 1; push rcx; push r11; mov rdx,len; mov rsi,buf; mov rdi,fd;
	// mov rax,num; syscall; mov dest,rax; pop r11; pop rcx; mov rax,dest; ret
	wantPrefix := []fcir.Opcode{
		fcir.OpMov, fcir.OpPush, fcir.OpPush,
		fcir.OpMov, fcir.OpMov, fcir.OpMov,
		fcir.OpMov, fcir.OpSyscall, fcir.OpMov,
		fcir.OpPop, fcir.OpPop,
	}
	if len(ops) < len(wantPrefix) {
		t.Fatalf("too few instructions: %v", ops)
	}
	for i, op := range wantPrefix {
		if ops[i] != op {
			t.Fatalf("instruction %d: expected %s, got %s (%v)", i, op, ops[i], ops)
		}
	}
}

func TestLowerRawPointerArithmeticErrors(t *testing.T) {
	_, diags := buildLowered(t, func(fn *ir.Function, b *ir.Builder) {
		ptr := fn.AllocVReg(ir.TypeRawPtr)
		offset := fn.AllocVReg(ir.TypeI64)
		result := b.PtrAdd(ptr.Reg, offset.Reg, ir.TypeRawPtr)
		b.Return(result.Reg)
	})
	if !diags.HasErrors() {
		t.Fatal("expected a lowering error for raw-pointer arithmetic")
	}
	found := false
	for _, d := range diags.Items() {
		if d.Kind == diag.KindLowering {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a KindLowering diagnostic")
	}
}

func TestLowerRawPointerSubtractionErrors(t *testing.T) {
	_, diags := buildLowered(t, func(fn *ir.Function, b *ir.Builder) {
		ptr := fn.AllocVReg(ir.TypeRawPtr)
		offset := fn.AllocVReg(ir.TypeI64)
		result := b.PtrSub(ptr.Reg, offset.Reg, ir.TypeRawPtr)
		b.Return(result.Reg)
	})
	if !diags.HasErrors() {
		t.Fatal("expected a lowering error for raw-pointer subtraction")
	}
	found := false
	for _, d := range diags.Items() {
		if d.Kind == diag.KindLowering {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a KindLowering diagnostic")
	}
}

func TestLowerTypedPointerSubtractionScalesByElementSize(t *testing.T) {
	fcFn, diags := buildLowered(t, func(fn *ir.Function, b *ir.Builder) {
		ptr := fn.AllocVReg(ir.TypeTypedPtr)
		offset := fn.AllocVReg(ir.TypeI64)
		result := b.PtrSub(ptr.Reg, offset.Reg, ir.TypeTypedPtr)
		b.Return(result.Reg)
	})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Items())
	}
	var sawScale, sawSub bool
	fcFn.AllInstructions(func(_ *fcir.BasicBlock, instr *fcir.Instruction) {
		if instr.Opcode == fcir.OpIMul && instr.Src.Kind == fcir.OperandImm && instr.Src.Imm == int64(ir.TypeTypedPtr.ByteSize()) {
			sawScale = true
		}
		if instr.Opcode == fcir.OpSub {
			sawSub = true
		}
	})
	if !sawScale {
		t.Fatal("expected the offset to be scaled by the typed pointer's ByteSize")
	}
	if !sawSub {
		t.Fatal("expected the scaled offset to be subtracted, not added")
	}
}

func TestLowerSyscallArgumentsMoveInReverseOrder(t *testing.T) {
	fcFn, _ := buildLowered(t, func(fn *ir.Function, b *ir.Builder) {
		fd := fn.AllocVReg(ir.TypeI64)
		buf := fn.AllocVReg(ir.TypeTypedPtr)
		length := fn.AllocVReg(ir.TypeI64)
		num := b.Const(1, ir.TypeI64)
		res := b.Syscall(num.Reg, []ir.VReg{fd.Reg, buf.Reg, length.Reg})
		b.Return(res.Reg)
	})

	var argMoves []fcir.Instruction
	fcFn.AllInstructions(func(_ *fcir.BasicBlock, instr *fcir.Instruction) {
		if instr.Opcode == fcir.OpMov && instr.Dest.Kind == fcir.OperandVReg {
			for _, reg := range syscallArgRegs[:3] {
				if instr.Dest.Reg == reg {
					argMoves = append(argMoves, *instr)
				}
			}
		}
	})
	if len(argMoves) != 3 {
		t.Fatalf("expected 3 argument moves, got %d", len(argMoves))
	}
	// length (the last SyscallArgs entry) must be moved into its register
	// before fd (the first), since the moves run last-argument-first.
	if argMoves[0].Dest.Reg != syscallArgRegs[2] {
		t.Fatalf("expected the first emitted argument move to target register %d (length), got %d", syscallArgRegs[2], argMoves[0].Dest.Reg)
	}
	if argMoves[2].Dest.Reg != syscallArgRegs[0] {
		t.Fatalf("expected the last emitted argument move to target register %d (fd), got %d", syscallArgRegs[0], argMoves[2].Dest.Reg)
	}
}

func TestLowerAtomicCASUsesRAX(t *testing.T) {
	fcFn, _ := buildLowered(t, func(fn *ir.Function, b *ir.Builder) {
		ptr := fn.AllocVReg(ir.TypeTypedPtr)
		expected := b.Const(7, ir.TypeI64)
		newVal := b.Const(42, ir.TypeI64)
		b.AtomicCAS(ptr.Reg, expected.Reg, newVal.Reg, ir.TypeI64)
	})
	var sawCmpxchg bool
	fcFn.AllInstructions(func(_ *fcir.BasicBlock, instr *fcir.Instruction) {
		if instr.Opcode == fcir.OpCmpxchg {
			sawCmpxchg = true
			if !instr.Locked {
				t.Fatal("expected CMPXCHG to be locked")
			}
		}
	})
	if !sawCmpxchg {
		t.Fatal("expected a CMPXCHG instruction")
	}
}
