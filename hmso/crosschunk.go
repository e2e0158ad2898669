package hmso

import "sort"

// CrossChunkOpportunity is one hot call-graph edge crossing a chunk
// boundary, a candidate for either inlining across the boundary or
// merging the two chunks outright.
type CrossChunkOpportunity struct {
	CallerChunk int
	CalleeChunk int
	Caller      NodeID
	Callee      NodeID
	Benefit     int
}

// crossChunkApplyCap bounds how many opportunities one cross-chunk pass
// applies.
const crossChunkApplyCap = 10

// FindCrossChunkOpportunities builds the dense function->chunk lookup
// and walks every call-graph edge, emitting an opportunity for each hot
// edge (static or dynamic count >= 10) whose endpoints land in different
// chunks.
func FindCrossChunkOpportunities(idx *GlobalIndex, chunks []*Chunk) []CrossChunkOpportunity {
	chunkOf := make(map[NodeID]int)
	for _, c := range chunks {
		for _, n := range c.Nodes {
			chunkOf[n] = c.ID
		}
	}

	var opportunities []CrossChunkOpportunity
	for _, e := range idx.Graph.Edges {
		callerChunk, ok1 := chunkOf[e.Caller]
		calleeChunk, ok2 := chunkOf[e.Callee]
		if !ok1 || !ok2 || callerChunk == calleeChunk {
			continue
		}
		hot := e.Hot || e.DynamicCount >= hotCallSiteThreshold || uint64(e.StaticCount) >= hotCallSiteThreshold
		if !hot {
			continue
		}
		opportunities = append(opportunities, CrossChunkOpportunity{
			CallerChunk: callerChunk, CalleeChunk: calleeChunk,
			Caller: e.Caller, Callee: e.Callee,
			Benefit: 10 * int(e.StaticCount),
		})
	}

	sort.Slice(opportunities, func(i, j int) bool { return opportunities[i].Benefit > opportunities[j].Benefit })
	if len(opportunities) > crossChunkApplyCap {
		opportunities = opportunities[:crossChunkApplyCap]
	}
	return opportunities
}

// ApplyCrossChunkMerges merges, for each opportunity, the callee's chunk
// into the caller's chunk. Single-threaded: it mutates
// multiple chunks and rewrites the function-to-chunk map, which the
// parallel chunk-optimization stage must never do concurrently.
func ApplyCrossChunkMerges(chunks []*Chunk, opportunities []CrossChunkOpportunity) []*Chunk {
	byID := make(map[int]*Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}
	merged := make(map[int]int) // old chunk id -> surviving chunk id

	resolve := func(id int) int {
		for {
			if target, ok := merged[id]; ok {
				id = target
				continue
			}
			return id
		}
	}

	for _, op := range opportunities {
		from := resolve(op.CalleeChunk)
		into := resolve(op.CallerChunk)
		if from == into {
			continue
		}
		target, ok1 := byID[into]
		source, ok2 := byID[from]
		if !ok1 || !ok2 {
			continue
		}
		target.Nodes = append(target.Nodes, source.Nodes...)
		target.TotalInstructions += source.TotalInstructions
		delete(byID, from)
		merged[from] = into
	}

	out := make([]*Chunk, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
