// Package hmso implements the Hierarchical Multi-Stage Optimizer:
// per-unit function summaries, a whole-program call graph and global
// index, two chunk-partitioning strategies, a parallel chunk optimizer,
// a single-threaded cross-chunk pass, and an incremental build cache.
package hmso

import (
	"hash/fnv"

	"github.com/fcxlang/fcxc/ir"
)

// BehaviorFlags is a bitset of per-function behavior facts derived by
// linear scan.
type BehaviorFlags uint32

const (
	FlagPure BehaviorFlags = 1 << iota
	FlagConst
	FlagLeaf
	FlagNoRecurse
	FlagNoReturn
	FlagInlineHint
	FlagNoInline
	FlagHot
	FlagCold
	FlagHasAtomics
	FlagHasSyscalls
	FlagVectorizable
)

// MemoryAccessFlags is a bitset of per-function memory-access facts.
type MemoryAccessFlags uint32

const (
	MemRead MemoryAccessFlags = 1 << iota
	MemWrite
	MemAlloc
	MemFree
	MemArgmem
	MemGlobal
)

// CallSite is one direct call a function makes.
type CallSite struct {
	CalleeName string
	CallCount  uint32
	ArgCount   int
	Indirect   bool
	TailCall   bool
}

// FunctionSummary is the per-function output of the summarizer.
type FunctionSummary struct {
	Name                string
	ContentHash         uint64
	InstructionCount    uint32
	BasicBlockCount     uint32
	CyclomaticComplexity uint32
	LoopDepthMax        uint32
	Behavior            BehaviorFlags
	MemoryAccess        MemoryAccessFlags
	CallSites           []CallSite
	InlineCost          uint32
}

func (s *FunctionSummary) HasFlag(f BehaviorFlags) bool { return s.Behavior&f != 0 }

// Summarize computes the FunctionSummary for fn.
func Summarize(fn *ir.Function) *FunctionSummary {
	s := &FunctionSummary{Name: fn.Name, BasicBlockCount: uint32(fn.NumBlocks())}

	var (
		hasStore, hasLoad, hasCall, hasSyscall, hasReturn, hasAtomic bool
		edgeCount                                                    uint32
		callSites                                                    = make(map[string]*CallSite)
	)

	fn.AllInstructions(func(_ *ir.BasicBlock, instr *ir.Instruction) {
		s.InstructionCount++
		s.InlineCost += inlineCostOf(instr.Opcode)

		switch instr.Opcode {
		case ir.OpStore, ir.OpAtomicStore:
			hasStore = true
			s.MemoryAccess |= MemWrite
		case ir.OpLoad, ir.OpAtomicLoad:
			hasLoad = true
			s.MemoryAccess |= MemRead
		case ir.OpCall:
			hasCall = true
			cs, ok := callSites[instr.CalleeName]
			if !ok {
				cs = &CallSite{CalleeName: instr.CalleeName, ArgCount: len(instr.CallArgs), Indirect: instr.Indirect, TailCall: instr.TailCall}
				callSites[instr.CalleeName] = cs
			}
			cs.CallCount++
		case ir.OpSyscall:
			hasSyscall = true
		case ir.OpReturn:
			hasReturn = true
		case ir.OpAllocHeap, ir.OpAllocStack, ir.OpAllocArena, ir.OpAllocSlab, ir.OpAllocPool:
			s.MemoryAccess |= MemAlloc
		case ir.OpDealloc, ir.OpSlabFree, ir.OpArenaReset:
			s.MemoryAccess |= MemFree
		case ir.OpAtomicSwap, ir.OpAtomicCAS, ir.OpAtomicFetchAdd, ir.OpAtomicFetchSub,
			ir.OpAtomicFetchAnd, ir.OpAtomicFetchOr, ir.OpAtomicFetchXor:
			hasAtomic = true
		}
		if instr.Opcode.IsTerminator() {
			edgeCount++ // JUMP and RETURN count one edge each; BRANCH contributes two.
			if instr.Opcode == ir.OpBranch {
				edgeCount++
			}
		}
	})

	for _, cs := range callSites {
		s.CallSites = append(s.CallSites, *cs)
	}

	// Cyclomatic complexity: E - N + 2, over the control-flow graph.
	n := s.BasicBlockCount
	if n == 0 {
		n = 1
	}
	s.CyclomaticComplexity = edgeCount - n + 2

	if !hasStore && !hasCall && !hasSyscall {
		s.Behavior |= FlagPure
		if !hasLoad {
			s.Behavior |= FlagConst
		}
	}
	if !hasCall {
		s.Behavior |= FlagLeaf
	}
	if !hasReturn {
		s.Behavior |= FlagNoReturn
	}
	if hasAtomic {
		s.Behavior |= FlagHasAtomics
	}
	if hasSyscall {
		s.Behavior |= FlagHasSyscalls
	}
	recursive := false
	for _, cs := range s.CallSites {
		if cs.CalleeName == fn.Name {
			recursive = true
			break
		}
	}
	if !recursive {
		s.Behavior |= FlagNoRecurse
	}

	s.ContentHash = contentHash(fn)
	return s
}

// inlineCostOf is the weighted per-opcode cost inline-candidate scoring
// and general size estimation both reuse.
func inlineCostOf(op ir.Opcode) uint32 {
	switch {
	case op == ir.OpConst || op == ir.OpConstBigInt:
		return 1
	case op == ir.OpDiv || op == ir.OpMod:
		return 10
	case op == ir.OpMul:
		return 3
	case op == ir.OpLoad || op == ir.OpStore:
		return 5
	case op == ir.OpCall:
		return 20
	case op == ir.OpSyscall:
		return 50
	case op.IsBinary() || op.IsUnary():
		return 2
	default:
		return 1
	}
}

// contentHash is FNV-1a over the function name XOR the opcode stream, in
// instruction order.
func contentHash(fn *ir.Function) uint64 {
	h := fnv.New64a()
	h.Write([]byte(fn.Name))
	nameHash := h.Sum64()

	h2 := fnv.New64a()
	fn.AllInstructions(func(_ *ir.BasicBlock, instr *ir.Instruction) {
		var b [2]byte
		b[0] = byte(instr.Opcode)
		b[1] = byte(instr.Opcode >> 8)
		h2.Write(b[:])
	})
	return nameHash ^ h2.Sum64()
}
