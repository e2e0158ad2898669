package opt

import (
	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/ir"
)

// Run drives constant folding, algebraic simplification, strength
// reduction, and dead-code elimination to a fixed point over fn, in
// that order each iteration, stopping as soon as a full round leaves fn
// unchanged or cfg.MaxIterations rounds have run. It then runs the four
// read-only analyses once each against the optimized function and
// appends their findings to list.
func Run(fn *ir.Function, cfg Config, list *diag.List) {
	for i := 0; i < cfg.MaxIterations; i++ {
		changed := false
		changed = FoldConstants(fn) || changed
		changed = SimplifyAlgebraic(fn) || changed
		changed = StrengthReduce(fn) || changed
		changed = EliminateDeadCode(fn) || changed
		if !changed {
			break
		}
	}

	AnalyzeTypes(fn, list)
	AnalyzePointerFlavors(fn, list)
	AnalyzeMemorySafety(fn, list)
	AnalyzeLeaks(fn, list)
}
