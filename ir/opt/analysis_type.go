package opt

import (
	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/ir"
)

// AnalyzeTypes propagates each VReg's declared type across the function
// and flags operand type mismatches the opcode cannot tolerate. This
// analysis is read-only: it never mutates fn, and every finding is
// reported through list at SeverityWarning so it can never fail a
// compile on its own.
func AnalyzeTypes(fn *ir.Function, list *diag.List) {
	types := make(map[ir.VReg]ir.Type)
	for _, p := range fn.Params {
		types[p.Reg] = p.Type
	}

	fn.AllInstructions(func(_ *ir.BasicBlock, instr *ir.Instruction) {
		if instr.Dest.Valid() {
			types[instr.Dest] = instr.Typ
		}
		if !instr.Opcode.IsBinary() {
			return
		}
		lhs, lok := types[instr.Args[0]]
		rhs, rok := types[instr.Args[1]]
		if !lok || !rok {
			return
		}
		if lhs == rhs {
			return
		}
		if instr.Opcode.IsCompare() {
			return // comparisons across widths are legal; the operand width governs the comparison.
		}
		list.Warnf(diag.KindAnalysisTypeMismatch, fn.Name, instr.Line,
			"operand type mismatch in %s: v%d is %s, v%d is %s",
			instr.Opcode, instr.Args[0], lhs, instr.Args[1], rhs)
	})
}
