package hmso

import (
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/fcxlang/fcxc/diag"
	"github.com/fcxlang/fcxc/ir"
	"github.com/fcxlang/fcxc/ir/opt"
)

// maxCalleeInstructionsForInline rejects inline candidates whose callee
// is larger than this, regardless of benefit score.
const maxCalleeInstructionsForInline = 200

// InlineCandidate is one scored call site eligible for interprocedural
// inlining within a single chunk.
type InlineCandidate struct {
	CallerName string
	CalleeName string
	CallCount  uint32
	Benefit    int
}

// ScoreInlineCandidates walks every call site whose caller and callee
// are both present in members (by function name, keyed to their
// summaries) and scores it per the chunk optimizer's benefit formula.
// Recursive call sites and callees over 200 instructions are rejected
// outright rather than scored.
func ScoreInlineCandidates(members map[string]*FunctionSummary) []InlineCandidate {
	var candidates []InlineCandidate
	for callerName, caller := range members {
		for _, cs := range caller.CallSites {
			if cs.CalleeName == callerName {
				continue // self-referring call site: recursive, rejected.
			}
			callee, ok := members[cs.CalleeName]
			if !ok {
				continue // callee outside this chunk.
			}
			if callee.InstructionCount > maxCalleeInstructionsForInline {
				continue
			}
			benefit := inlineBenefit(cs, callee, caller.HasFlag(FlagHot))
			candidates = append(candidates, InlineCandidate{
				CallerName: callerName, CalleeName: cs.CalleeName,
				CallCount: cs.CallCount, Benefit: benefit,
			})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Benefit > candidates[j].Benefit })
	return candidates
}

func inlineBenefit(cs CallSite, callee *FunctionSummary, callerHot bool) int {
	benefit := 10 * int(cs.CallCount)
	if callee.HasFlag(FlagPure) {
		benefit += 20
	}
	if callee.HasFlag(FlagConst) {
		benefit += 30
	}
	if callee.HasFlag(FlagLeaf) {
		benefit += 15
	}
	switch {
	case callee.InstructionCount < 20:
		benefit += 50
	case callee.InstructionCount < 50:
		benefit += 20
	}
	if callerHot {
		benefit *= 2
	}
	benefit -= int(cs.CallCount) * int(callee.InstructionCount) / 10
	return benefit
}

// chunkInlineCap bounds how many candidates a single chunk pass applies,
// so inlining itself cannot run away within one optimizer run.
const chunkInlineCap = 64

// OptimizeChunk runs the chunk optimizer's three always-on stages
// (inline-candidate discovery/application, intraprocedural
// re-optimization) plus the reserved expensive-path hook when the
// chunk's hotness and ExpensiveOpts flag both call for it. Functions are
// looked up in fns by name; diags collects every function's analysis
// findings.
func OptimizeChunk(c *Chunk, fns map[string]*ir.Function, summaries map[string]*FunctionSummary, diags *diag.List, logger *slog.Logger) {
	logger = logOrDefault(logger)
	candidates := ScoreInlineCandidates(summaries)
	if len(candidates) > chunkInlineCap {
		candidates = candidates[:chunkInlineCap]
	}
	applyInlineCandidates(candidates, fns)

	cfg := opt.NewConfig(toOptLevel(c.Level))
	for _, id := range c.Nodes {
		_ = id // node identity isn't needed once we have the function by name below.
	}
	for name, fn := range fns {
		if _, inChunk := summaries[name]; !inChunk {
			continue
		}
		opt.Run(fn, cfg, diags)
	}

	if c.Hotness >= 0.5 && c.ExpensiveOpts {
		runExpensivePath(c, fns)
	}

	c.Optimized = true
	logger.Debug("hmso: chunk optimized", "chunk", c.ID, "functions", len(c.Nodes), "inline_candidates", len(candidates), "hotness", c.Hotness)
}

func toOptLevel(l Level) opt.Level {
	switch l {
	case LevelO2:
		return opt.LevelO2
	case LevelO3:
		return opt.LevelO3
	case LevelOMax:
		return opt.LevelOMax
	default:
		return opt.LevelO1
	}
}

// applyInlineCandidates splices each candidate's callee body into every
// matching direct, non-indirect call site in its caller, highest benefit
// first. Only single-block callees are spliced: a callee with internal
// control flow would require splitting the caller's block and rewiring
// branch targets, which this pass leaves to a future dedicated
// control-flow-aware inliner rather than attempting here. Skipped
// candidates simply leave their CALL in place for a later round.
func applyInlineCandidates(candidates []InlineCandidate, fns map[string]*ir.Function) {
	for _, cand := range candidates {
		caller, ok := fns[cand.CallerName]
		if !ok {
			continue
		}
		callee, ok := fns[cand.CalleeName]
		if !ok || callee.NumBlocks() != 1 {
			continue
		}
		inlineCallsTo(caller, callee)
	}
}

// inlineCallsTo splices callee into every CALL in caller that directly
// and non-indirectly targets it.
func inlineCallsTo(caller, callee *ir.Function) {
	for _, blk := range caller.Blocks() {
		instr := blk.Root()
		for instr != nil {
			next := instr.Next()
			if instr.Opcode == ir.OpCall && !instr.Indirect && instr.CalleeName == callee.Name {
				spliceCall(caller, blk, instr, callee)
			}
			instr = next
		}
	}
}

// spliceCall replaces call with a clone of callee's single block, with
// every VReg callee defines remapped to a freshly allocated VReg in
// caller and every parameter remapped directly to the matching call
// argument. The call itself becomes a MOV of the remapped return value,
// or is dropped entirely when callee returns nothing.
func spliceCall(caller *ir.Function, blk *ir.BasicBlock, call *ir.Instruction, callee *ir.Function) {
	entry := callee.EntryBlock()
	if entry == nil {
		return
	}

	remap := make(map[ir.VReg]ir.VReg, len(callee.Params)+8)
	for i, p := range callee.Params {
		if i < len(call.CallArgs) {
			remap[p.Reg] = call.CallArgs[i]
		}
	}

	var returnValue ir.VReg = ir.VRegInvalid
	for cur := entry.Root(); cur != nil; cur = cur.Next() {
		switch cur.Opcode {
		case ir.OpPhi, ir.OpBranch, ir.OpJump:
			// Control flow inside a nominally single-block callee:
			// leave the call unsplit.
			return
		case ir.OpReturn:
			if len(cur.Args) > 0 && cur.Args[0].Valid() {
				returnValue = remapUse(cur.Args[0], remap)
			}
		default:
			blk.InsertBefore(call, cloneRemapped(cur, remap, caller))
		}
	}

	if call.Dest.Valid() && returnValue.Valid() {
		call.ReplaceWithMov(returnValue, call.Typ)
	} else {
		blk.Remove(call)
	}
}

// remapDef allocates (once, memoized in remap) the caller VReg that
// stands in for a VReg callee defines.
func remapDef(old ir.VReg, typ ir.Type, remap map[ir.VReg]ir.VReg, caller *ir.Function) ir.VReg {
	if !old.Valid() {
		return old
	}
	fresh := caller.AllocVReg(typ).Reg
	remap[old] = fresh
	return fresh
}

// remapUse looks up the caller VReg standing in for a VReg callee reads.
// A miss (a VReg never defined or bound as a parameter within the
// callee, which should not occur in valid IR) is left unmapped rather
// than silently aliasing an unrelated caller register.
func remapUse(old ir.VReg, remap map[ir.VReg]ir.VReg) ir.VReg {
	if !old.Valid() {
		return old
	}
	if r, ok := remap[old]; ok {
		return r
	}
	return old
}

// cloneRemapped deep-copies src with every VReg-valued field translated
// through remap, allocating fresh caller VRegs for anything src defines.
func cloneRemapped(src *ir.Instruction, remap map[ir.VReg]ir.VReg, caller *ir.Function) *ir.Instruction {
	clone := *src
	if src.Dest.Valid() {
		clone.Dest = remapDef(src.Dest, src.Typ, remap, caller)
	}
	if len(src.Args) > 0 {
		clone.Args = make([]ir.VReg, len(src.Args))
		for i, a := range src.Args {
			clone.Args[i] = remapUse(a, remap)
		}
	}
	if src.Base.Valid() {
		clone.Base = remapUse(src.Base, remap)
	}
	if src.HasIndex && src.Index.Valid() {
		clone.Index = remapUse(src.Index, remap)
	}
	if len(src.CallArgs) > 0 {
		clone.CallArgs = make([]ir.VReg, len(src.CallArgs))
		for i, a := range src.CallArgs {
			clone.CallArgs[i] = remapUse(a, remap)
		}
	}
	if src.SyscallNum.Valid() {
		clone.SyscallNum = remapUse(src.SyscallNum, remap)
	}
	if len(src.SyscallArgs) > 0 {
		clone.SyscallArgs = make([]ir.VReg, len(src.SyscallArgs))
		for i, a := range src.SyscallArgs {
			clone.SyscallArgs[i] = remapUse(a, remap)
		}
	}
	return &clone
}

// runExpensivePath is the reserved superoptimization/polyhedral-loop
// slot. Only the plumbing needs to exist and be idempotent here; both
// branches are no-ops.
func runExpensivePath(c *Chunk, fns map[string]*ir.Function) {
	for _, id := range c.Nodes {
		_ = id
	}
	_ = fns // superoptimization slot (single-block, <=20 instructions) and
	// polyhedral slot (loop bodies) both reserved for future work.
}

// RunChunkWorkerPool processes chunks in parallel, ordered by hotness
// descending so hot chunks finish first under resource pressure.
// Grounded on the channel-plus-WaitGroup worker-pool shape used for
// parallel search tasks elsewhere in the pack.
func RunChunkWorkerPool(chunks []*Chunk, numThreads int, work func(*Chunk)) {
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	ordered := make([]*Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Hotness > ordered[j].Hotness })

	ch := make(chan *Chunk, len(ordered))
	for _, c := range ordered {
		ch <- c
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < numThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range ch {
				work(c)
			}
		}()
	}
	wg.Wait()
}
