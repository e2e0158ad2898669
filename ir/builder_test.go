package ir

import "testing"

func TestBuilderAddSub(t *testing.T) {
	fn := NewFunction("add_sub", TypeI64)
	entry := fn.NewBlock("")
	b := NewBuilder(fn)
	b.SetBlock(entry)

	x := fn.AllocVReg(TypeI64)
	c := b.Const(10, TypeI64)
	sum := b.Binary(OpAdd, x.Reg, c.Reg, TypeI64)
	b.Return(sum.Reg)

	fn.Finalize()

	if got := entry.Len(); got != 3 {
		t.Fatalf("expected 3 instructions, got %d", got)
	}
	if entry.Tail().Opcode != OpReturn {
		t.Fatalf("expected block to end in RETURN, got %s", entry.Tail().Opcode)
	}
}

func TestBuilderBranchRequiresReservedLabel(t *testing.T) {
	fn := NewFunction("f", TypeVoid)
	entry := fn.NewBlock("")
	b := NewBuilder(fn)
	b.SetBlock(entry)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for unreserved label")
		}
	}()
	b.Jump(BlockID(99))
}

func TestFinalizeImplicitFallthrough(t *testing.T) {
	fn := NewFunction("f", TypeI64)
	entry := fn.NewBlock("")
	next := fn.NewBlock("")
	b := NewBuilder(fn)
	b.SetBlock(entry)
	b.Const(1, TypeI64)
	b.SetBlock(next)
	b.Return(VRegInvalid)

	fn.Finalize()

	if len(entry.Succs()) != 1 || entry.Succs()[0] != next.ID() {
		t.Fatalf("expected implicit fallthrough from entry to next, got %v", entry.Succs())
	}
	if len(next.Preds()) != 1 || next.Preds()[0] != entry.ID() {
		t.Fatalf("expected next to list entry as predecessor, got %v", next.Preds())
	}
}

func TestPreColoredVRegRoundTrips(t *testing.T) {
	fn := NewFunction("f", TypeI64)
	tv := fn.BindPreColored(VRegRDI, TypeI64)
	if tv.Reg != VRegRDI {
		t.Fatalf("expected %d, got %d", VRegRDI, tv.Reg)
	}
	if !tv.Reg.IsPreColored() {
		t.Fatal("expected pre-colored VReg to report IsPreColored")
	}
}

func TestAllocVRegNeverYieldsPreColoredRange(t *testing.T) {
	fn := NewFunction("f", TypeI64)
	for i := 0; i < 20; i++ {
		tv := fn.AllocVReg(TypeI64)
		if tv.Reg.IsPreColored() {
			t.Fatalf("AllocVReg returned pre-colored id %d", tv.Reg)
		}
	}
}
