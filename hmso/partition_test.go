package hmso

import "testing"

func chainUnit(n int) Unit {
	fns := make([]*FunctionSummary, n)
	for i := 0; i < n; i++ {
		fns[i] = &FunctionSummary{Name: name(i), InstructionCount: 10}
		if i > 0 {
			fns[i-1].CallSites = []CallSite{{CalleeName: name(i), CallCount: 1}}
		}
	}
	return unit("chain.fcx", fns...)
}

func name(i int) string {
	return string(rune('a' + i))
}

func TestPartitionByCallGraphRespectsMaxChunkSize(t *testing.T) {
	idx := BuildGlobalIndex([]Unit{chainUnit(30)}, []string{name(0)}, nil)
	chunks := PartitionByCallGraph(idx, LevelOMax, nil) // min 5, max 50

	total := 0
	for _, c := range chunks {
		if len(c.Nodes) > 50 {
			t.Fatalf("chunk %d exceeds max size: %d nodes", c.ID, len(c.Nodes))
		}
		total += len(c.Nodes)
	}
	if total != 30 {
		t.Fatalf("expected all 30 reachable nodes partitioned, got %d", total)
	}
}

func TestPartitionByCallGraphProducesNoEmptyChunks(t *testing.T) {
	idx := BuildGlobalIndex([]Unit{chainUnit(12)}, []string{name(0)}, nil)
	// A 12-function chain at LevelO3 (min 10, max 100): every chunk the
	// partitioner returns holds at least one node.
	chunks := PartitionByCallGraph(idx, LevelO3, nil)
	for _, c := range chunks {
		if len(c.Nodes) == 0 {
			t.Fatalf("chunk %d has zero nodes", c.ID)
		}
	}
}

func TestPartitionByProfileSeedsHotPathsFromHighFanInFunctions(t *testing.T) {
	hot := &FunctionSummary{Name: "hot", InstructionCount: 5}
	callers := make([]*FunctionSummary, 5)
	for i := range callers {
		callers[i] = &FunctionSummary{Name: name(i), CallSites: []CallSite{{CalleeName: "hot", CallCount: 100}}}
	}
	units := []Unit{unit("u.fcx", append(callers, hot)...)}
	idx := BuildGlobalIndex(units, []string{name(0), name(1), name(2), name(3), name(4)}, nil)

	chunks := PartitionByProfile(idx, LevelO3, nil)
	found := false
	for _, c := range chunks {
		if c.ExpensiveOpts {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one hot-path chunk with ExpensiveOpts set")
	}
}
