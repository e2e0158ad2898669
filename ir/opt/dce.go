package opt

import "github.com/fcxlang/fcxc/ir"

// EliminateDeadCode runs one mark-and-sweep dead-code elimination pass
// over fn. An instruction is live if it has a side effect (store, call,
// syscall, atomic, MMIO, branch/jump/return, inline asm) or if its
// result feeds a live instruction, transitively. Everything else is
// removed. Returns whether anything was removed.
func EliminateDeadCode(fn *ir.Function) bool {
	live := make(map[*ir.Instruction]bool)
	defOf := make(map[ir.VReg]*ir.Instruction)

	var roots []*ir.Instruction
	for _, blk := range fn.Blocks() {
		for cur := blk.Root(); cur != nil; cur = cur.Next() {
			if cur.Dest.Valid() {
				defOf[cur.Dest] = cur
			}
			if cur.Opcode.HasSideEffect() || cur.Opcode.IsTerminator() {
				roots = append(roots, cur)
			}
		}
	}

	var mark func(instr *ir.Instruction)
	mark = func(instr *ir.Instruction) {
		if instr == nil || live[instr] {
			return
		}
		live[instr] = true
		instr.Uses(func(v ir.VReg) {
			if def, ok := defOf[v]; ok {
				mark(def)
			}
		})
	}
	for _, r := range roots {
		mark(r)
	}

	changed := false
	for _, blk := range fn.Blocks() {
		cur := blk.Root()
		for cur != nil {
			next := cur.Next()
			if !live[cur] {
				blk.Remove(cur)
				changed = true
			}
			cur = next
		}
	}
	return changed
}
