package opt

import (
	"testing"

	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/ir"
)

func TestAnalyzePointerFlavorsWarnsOnLoadThroughKnownNull(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)

	null := b.Const(0, ir.TypeTypedPtr)
	aliased := b.Mov(null.Reg, ir.TypeTypedPtr)
	loaded := b.Load(aliased.Reg, 0, ir.TypeI64)
	b.Return(loaded.Reg)
	fn.Finalize()

	var list diag.List
	AnalyzePointerFlavors(fn, &list)

	var found bool
	for _, d := range list.Items() {
		if d.Kind == diag.KindAnalysisNullDeref {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a null-dereference diagnostic for a load through a MOV-propagated null pointer")
	}
}

func TestAnalyzePointerFlavorsIgnoresNonNullPointers(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	ptr := fn.AllocVReg(ir.TypeTypedPtr)
	fn.Params = []ir.Param{{Reg: ptr.Reg, Type: ir.TypeTypedPtr}}
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)
	loaded := b.Load(ptr.Reg, 0, ir.TypeI64)
	b.Return(loaded.Reg)
	fn.Finalize()

	var list diag.List
	AnalyzePointerFlavors(fn, &list)

	if list.HasErrors() || len(list.Items()) != 0 {
		t.Fatalf("expected no diagnostics for a load through a parameter pointer of unknown nullness, got %v", list.Items())
	}
}

func TestRunInvokesPointerFlavorAnalysis(t *testing.T) {
	fn := ir.NewFunction("f", ir.TypeI64)
	blk := fn.NewBlock("")
	b := ir.NewBuilder(fn)
	b.SetBlock(blk)
	null := b.Const(0, ir.TypeTypedPtr)
	loaded := b.Load(null.Reg, 0, ir.TypeI64)
	b.Return(loaded.Reg)
	fn.Finalize()

	var list diag.List
	Run(fn, NewConfig(LevelO1), &list)

	var found bool
	for _, d := range list.Items() {
		if d.Kind == diag.KindAnalysisNullDeref {
			found = true
		}
	}
	if !found {
		t.Fatal("expected Run to invoke the pointer-flavor analysis and report the null load")
	}
}
