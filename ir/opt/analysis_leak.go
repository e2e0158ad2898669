package opt

import (
	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/ir"
)

// AnalyzeLeaks flags heap, arena, slab, and pool allocations that are
// never freed and never escape the function (via RETURN, STORE to
// memory, or as a CALL argument). Stack allocations are excluded: their
// lifetime is scope-bound and never the caller's responsibility.
func AnalyzeLeaks(fn *ir.Function, list *diag.List) {
	allocLine := make(map[ir.VReg]int32)
	allocKind := make(map[ir.VReg]ir.AllocKind)
	freedOrEscaped := make(map[ir.VReg]bool)

	fn.AllInstructions(func(_ *ir.BasicBlock, instr *ir.Instruction) {
		switch instr.Opcode {
		case ir.OpAllocHeap, ir.OpAllocArena, ir.OpAllocSlab, ir.OpAllocPool:
			allocLine[instr.Dest] = instr.Line
			allocKind[instr.Dest] = instr.AllocK
		case ir.OpDealloc, ir.OpSlabFree:
			freedOrEscaped[instr.Args[0]] = true
		case ir.OpArenaReset:
			for reg, kind := range allocKind {
				if kind == ir.AllocArena {
					freedOrEscaped[reg] = true
				}
			}
		case ir.OpReturn:
			for _, a := range instr.Args {
				freedOrEscaped[a] = true
			}
		case ir.OpStore:
			freedOrEscaped[instr.Args[0]] = true
		case ir.OpCall, ir.OpSyscall:
			instr.Uses(func(v ir.VReg) { freedOrEscaped[v] = true })
		case ir.OpMov, ir.OpPtrAdd, ir.OpPtrSub, ir.OpPtrCast:
			if freedOrEscaped[instr.Args[0]] {
				freedOrEscaped[instr.Dest] = true
			}
		}
	})

	for reg, line := range allocLine {
		if !freedOrEscaped[reg] {
			list.Warnf(diag.KindAnalysisLeak, fn.Name, line,
				"pointer v%d allocated but never freed or returned", reg)
		}
	}
}
