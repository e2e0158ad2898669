package opt

import (
	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/ir"
)

// AnalyzePointerFlavors tags every VReg with one of the four pointer
// flavors (non-pointer, typed-ptr, raw-ptr, byte-ptr) carried by its
// declared type, propagates that flavor through MOV and PTR_CAST, and
// warns on a load or store through a flavor-tagged VReg it can prove is
// null. This is independent of AnalyzeMemorySafety: that analysis
// tracks allocation origin and freed-ness, this one only ever looks at
// declared pointer type and constant-null propagation.
func AnalyzePointerFlavors(fn *ir.Function, list *diag.List) {
	flavor := make(map[ir.VReg]ir.Type)
	for _, p := range fn.Params {
		if p.Type.IsPointer() {
			flavor[p.Reg] = p.Type
		}
	}
	null := make(map[ir.VReg]bool)

	fn.AllInstructions(func(_ *ir.BasicBlock, instr *ir.Instruction) {
		switch instr.Opcode {
		case ir.OpConst:
			if instr.Typ.IsPointer() {
				flavor[instr.Dest] = instr.Typ
				if instr.Imm == 0 {
					null[instr.Dest] = true
				}
			}
		case ir.OpIntToPtr:
			if instr.Typ.IsPointer() {
				flavor[instr.Dest] = instr.Typ
				if null[instr.Args[0]] {
					null[instr.Dest] = true
				}
			}
		case ir.OpMov, ir.OpPtrCast:
			if f, ok := flavor[instr.Args[0]]; ok {
				flavor[instr.Dest] = f
				if null[instr.Args[0]] {
					null[instr.Dest] = true
				}
			}
		case ir.OpLoad:
			if f, ok := flavor[instr.Base]; ok && null[instr.Base] {
				list.Warnf(diag.KindAnalysisNullDeref, fn.Name, instr.Line,
					"load through %s pointer v%d known to be null", f, instr.Base)
			}
		case ir.OpStore:
			if f, ok := flavor[instr.Base]; ok && null[instr.Base] {
				list.Warnf(diag.KindAnalysisNullDeref, fn.Name, instr.Line,
					"store through %s pointer v%d known to be null", f, instr.Base)
			}
		}
	})
}
