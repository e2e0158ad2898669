package hmso

import "github.com/fcxlang/fcxc/hmso/objfile"

// ToObjfileSummary converts a summarizer result into the object file's
// on-disk summary shape.
func ToObjfileSummary(s *FunctionSummary) objfile.FunctionSummary {
	out := objfile.FunctionSummary{
		Name:                 s.Name,
		ContentHash:          s.ContentHash,
		InstructionCount:     s.InstructionCount,
		BasicBlockCount:      s.BasicBlockCount,
		CyclomaticComplexity: s.CyclomaticComplexity,
		Flags:                uint32(s.Behavior),
		MemoryAccess:         uint32(s.MemoryAccess),
		InlineCost:           s.InlineCost,
	}
	for _, cs := range s.CallSites {
		out.CallSites = append(out.CallSites, objfile.CallSite{CalleeName: cs.CalleeName, CallCount: cs.CallCount})
	}
	return out
}

// FromObjfileSummary converts an on-disk summary record back into the
// summarizer's in-memory shape, as the global index needs when it loads
// units from object files instead of compiling them fresh.
func FromObjfileSummary(s objfile.FunctionSummary) *FunctionSummary {
	out := &FunctionSummary{
		Name:                 s.Name,
		ContentHash:          s.ContentHash,
		InstructionCount:     s.InstructionCount,
		BasicBlockCount:      s.BasicBlockCount,
		CyclomaticComplexity: s.CyclomaticComplexity,
		Behavior:             BehaviorFlags(s.Flags),
		MemoryAccess:         MemoryAccessFlags(s.MemoryAccess),
		InlineCost:           s.InlineCost,
	}
	for _, cs := range s.CallSites {
		out.CallSites = append(out.CallSites, CallSite{CalleeName: cs.CalleeName, CallCount: cs.CallCount})
	}
	return out
}
