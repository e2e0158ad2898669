package hmso

import "testing"

func TestFindCrossChunkOpportunitiesOnlyFlagsHotBoundaryEdges(t *testing.T) {
	g := NewCallGraph()
	a := g.AddNode(Node{Name: "a"})
	b := g.AddNode(Node{Name: "b"})
	c := g.AddNode(Node{Name: "c"})
	g.AddEdge(Edge{Caller: a, Callee: b, StaticCount: 20, DynamicCount: 20}) // hot, crosses chunks
	g.AddEdge(Edge{Caller: b, Callee: c, StaticCount: 1, DynamicCount: 1})   // cold, crosses chunks

	idx := &GlobalIndex{Graph: g}
	chunks := []*Chunk{{ID: 0, Nodes: []NodeID{a}}, {ID: 1, Nodes: []NodeID{b}}, {ID: 2, Nodes: []NodeID{c}}}

	opps := FindCrossChunkOpportunities(idx, chunks)
	if len(opps) != 1 {
		t.Fatalf("expected exactly one hot cross-chunk opportunity, got %d", len(opps))
	}
	if opps[0].Caller != a || opps[0].Callee != b {
		t.Fatalf("expected the hot a->b edge flagged, got %+v", opps[0])
	}
}

func TestFindCrossChunkOpportunitiesIgnoresInChunkEdges(t *testing.T) {
	g := NewCallGraph()
	a := g.AddNode(Node{Name: "a"})
	b := g.AddNode(Node{Name: "b"})
	g.AddEdge(Edge{Caller: a, Callee: b, StaticCount: 100, DynamicCount: 100})

	idx := &GlobalIndex{Graph: g}
	chunks := []*Chunk{{ID: 0, Nodes: []NodeID{a, b}}}

	opps := FindCrossChunkOpportunities(idx, chunks)
	if len(opps) != 0 {
		t.Fatalf("expected no opportunities for an edge inside one chunk, got %d", len(opps))
	}
}

func TestFindCrossChunkOpportunitiesCapsAtTen(t *testing.T) {
	g := NewCallGraph()
	nodes := make([]NodeID, 0, 24)
	for i := 0; i < 24; i++ {
		nodes = append(nodes, g.AddNode(Node{Name: name(i)}))
	}
	for i := 0; i+1 < len(nodes); i += 2 {
		g.AddEdge(Edge{Caller: nodes[i], Callee: nodes[i+1], StaticCount: uint32(100 - i), DynamicCount: uint64(100 - i)})
	}
	chunks := make([]*Chunk, len(nodes))
	for i, n := range nodes {
		chunks[i] = &Chunk{ID: i, Nodes: []NodeID{n}}
	}
	idx := &GlobalIndex{Graph: g}

	opps := FindCrossChunkOpportunities(idx, chunks)
	if len(opps) != crossChunkApplyCap {
		t.Fatalf("expected opportunities capped at %d, got %d", crossChunkApplyCap, len(opps))
	}
	for i := 1; i < len(opps); i++ {
		if opps[i].Benefit > opps[i-1].Benefit {
			t.Fatal("expected opportunities sorted descending by benefit")
		}
	}
}

func TestApplyCrossChunkMergesCombinesChunksAndDropsTheMergedOne(t *testing.T) {
	a := NodeID(0)
	b := NodeID(1)
	chunks := []*Chunk{
		{ID: 0, Nodes: []NodeID{a}, TotalInstructions: 10},
		{ID: 1, Nodes: []NodeID{b}, TotalInstructions: 20},
	}
	opps := []CrossChunkOpportunity{{CallerChunk: 0, CalleeChunk: 1, Caller: a, Callee: b, Benefit: 100}}

	merged := ApplyCrossChunkMerges(chunks, opps)
	if len(merged) != 1 {
		t.Fatalf("expected the two chunks to merge into one, got %d", len(merged))
	}
	if merged[0].TotalInstructions != 30 {
		t.Fatalf("expected merged instruction totals to sum, got %d", merged[0].TotalInstructions)
	}
	if len(merged[0].Nodes) != 2 {
		t.Fatalf("expected merged chunk to hold both nodes, got %v", merged[0].Nodes)
	}
}

func TestApplyCrossChunkMergesChainsThroughAlreadyMergedChunks(t *testing.T) {
	a, b, c := NodeID(0), NodeID(1), NodeID(2)
	chunks := []*Chunk{
		{ID: 0, Nodes: []NodeID{a}},
		{ID: 1, Nodes: []NodeID{b}},
		{ID: 2, Nodes: []NodeID{c}},
	}
	opps := []CrossChunkOpportunity{
		{CallerChunk: 0, CalleeChunk: 1, Caller: a, Callee: b, Benefit: 200},
		{CallerChunk: 1, CalleeChunk: 2, Caller: b, Callee: c, Benefit: 100},
	}
	merged := ApplyCrossChunkMerges(chunks, opps)
	if len(merged) != 1 {
		t.Fatalf("expected all three chunks to chain-merge into one, got %d: %+v", len(merged), merged)
	}
	if len(merged[0].Nodes) != 3 {
		t.Fatalf("expected all three nodes in the merged chunk, got %v", merged[0].Nodes)
	}
}
