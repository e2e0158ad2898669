package opt

import (
	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/ir"
)

// AnalyzeMemorySafety performs a linear, per-function scan flagging
// null-pointer dereference, double-free, use-after-free, and free of a
// pointer this function never allocated. The scan is intentionally
// conservative and local: it tracks freed-ness only along the
// instruction stream in block order and does not attempt inter-block
// dataflow merging, so it can miss a real bug on a diverging path but
// will never block a compile — every finding is a warning.
func AnalyzeMemorySafety(fn *ir.Function, list *diag.List) {
	origins := PropagatePointerOrigins(fn)
	freed := make(map[ir.VReg]bool)
	nullPtrs := make(map[ir.VReg]bool)

	fn.AllInstructions(func(_ *ir.BasicBlock, instr *ir.Instruction) {
		switch instr.Opcode {
		case ir.OpConst:
			if instr.Imm == 0 && instr.Typ.IsPointer() {
				nullPtrs[instr.Dest] = true
			}
		case ir.OpIntToPtr:
			if isKnownZero(instr.Args[0], nullPtrs) {
				nullPtrs[instr.Dest] = true
			}
		case ir.OpLoad:
			if nullPtrs[instr.Base] {
				list.Warnf(diag.KindAnalysisNullDeref, fn.Name, instr.Line,
					"load from pointer v%d known to be null", instr.Base)
			}
			if freed[instr.Base] {
				list.Warnf(diag.KindAnalysisUseAfterFree, fn.Name, instr.Line,
					"load from pointer v%d after it was freed", instr.Base)
			}
		case ir.OpStore:
			if nullPtrs[instr.Base] {
				list.Warnf(diag.KindAnalysisNullDeref, fn.Name, instr.Line,
					"store to pointer v%d known to be null", instr.Base)
			}
			if freed[instr.Base] {
				list.Warnf(diag.KindAnalysisUseAfterFree, fn.Name, instr.Line,
					"store to pointer v%d after it was freed", instr.Base)
			}
		case ir.OpDealloc, ir.OpSlabFree:
			ptr := instr.Args[0]
			if freed[ptr] {
				list.Warnf(diag.KindAnalysisDoubleFree, fn.Name, instr.Line,
					"pointer v%d freed more than once", ptr)
			}
			if _, ok := origins[ptr]; !ok {
				list.Warnf(diag.KindAnalysisFreeNeverAllocated, fn.Name, instr.Line,
					"pointer v%d freed but this function never allocated it", ptr)
			}
			freed[ptr] = true
		}
	})
}

func isKnownZero(reg ir.VReg, nullPtrs map[ir.VReg]bool) bool {
	return nullPtrs[reg]
}
