package opt

import "github.com/fcxlang/fcxc/ir"

// PropagatePointerOrigins walks fn and maps every pointer-typed VReg back
// to the AllocKind of the allocation instruction that produced it,
// following MOV, PTR_ADD, PTR_SUB, and PTR_CAST chains. A VReg with no
// traceable origin (a parameter, a loaded pointer, or the result of
// pointer-to-int/int-to-pointer) is left unmapped; callers treat "not in
// the map" as "origin unknown", not as an error.
func PropagatePointerOrigins(fn *ir.Function) map[ir.VReg]ir.AllocKind {
	origins := make(map[ir.VReg]ir.AllocKind)

	fn.AllInstructions(func(_ *ir.BasicBlock, instr *ir.Instruction) {
		switch instr.Opcode {
		case ir.OpAllocHeap:
			origins[instr.Dest] = ir.AllocHeap
		case ir.OpAllocStack:
			origins[instr.Dest] = ir.AllocStack
		case ir.OpAllocArena:
			origins[instr.Dest] = ir.AllocArena
		case ir.OpAllocSlab:
			origins[instr.Dest] = ir.AllocSlab
		case ir.OpAllocPool:
			origins[instr.Dest] = ir.AllocPool
		case ir.OpMov, ir.OpPtrCast:
			if k, ok := origins[instr.Args[0]]; ok {
				origins[instr.Dest] = k
			}
		case ir.OpPtrAdd, ir.OpPtrSub:
			if k, ok := origins[instr.Args[0]]; ok {
				origins[instr.Dest] = k
			}
		}
	})
	return origins
}
