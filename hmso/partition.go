package hmso

import (
	"log/slog"
	"sort"
)

// Chunk is an optimization chunk: a set of function nodes processed
// together by one chunk-optimizer worker. Cross-chunk merges may append
// nodes to a chunk after partitioning.
type Chunk struct {
	ID                 int
	Nodes              []NodeID
	TotalInstructions  uint32
	Hotness            float64
	Level              Level
	ExpensiveOpts      bool
	Optimized          bool
}

// Level mirrors ir/opt.Level's ordinals without importing ir/opt, since
// HMSO chunk levels are a property of the chunk, not of any one
// function's in-flight optimizer state.
type Level int

const (
	LevelO1 Level = iota
	LevelO2
	LevelO3
	LevelOMax
)

// chunkSizeRange returns (min, max) per optimization level, per the
// partitioner's per-level configuration.
func chunkSizeRange(level Level) (min, max int) {
	switch level {
	case LevelO2:
		return 20, 300
	case LevelO3:
		return 10, 100
	case LevelOMax:
		return 5, 50
	default:
		return 20, 300
	}
}

// PartitionByCallGraph builds chunks from SCCs with no profile data: an
// SCC joins the open chunk unless it already holds min_chunk_size
// functions, then a new chunk opens; chunks exceeding max_chunk_size are
// then split into equal slices.
func PartitionByCallGraph(idx *GlobalIndex, level Level, logger *slog.Logger) []*Chunk {
	logger = logOrDefault(logger)
	minSize, maxSize := chunkSizeRange(level)

	sccNodes := make(map[int][]NodeID)
	var sccOrder []int
	seen := make(map[int]bool)
	for i, n := range idx.Graph.Nodes {
		if !n.Reachable {
			continue
		}
		sccNodes[n.SCCID] = append(sccNodes[n.SCCID], NodeID(i))
		if !seen[n.SCCID] {
			seen[n.SCCID] = true
			sccOrder = append(sccOrder, n.SCCID)
		}
	}
	sort.Ints(sccOrder)

	var chunks []*Chunk
	cur := &Chunk{ID: 0, Level: level}
	for _, sccID := range sccOrder {
		nodes := sccNodes[sccID]
		if len(cur.Nodes) >= minSize {
			chunks = append(chunks, cur)
			cur = &Chunk{ID: len(chunks), Level: level}
		}
		cur.Nodes = append(cur.Nodes, nodes...)
	}
	if len(cur.Nodes) > 0 {
		chunks = append(chunks, cur)
	}

	out := splitOversizedChunks(idx, chunks, maxSize, level)
	logger.Debug("hmso: call-graph partition complete", "chunks", len(out))
	return out
}

func splitOversizedChunks(idx *GlobalIndex, chunks []*Chunk, maxSize int, level Level) []*Chunk {
	var out []*Chunk
	for _, c := range chunks {
		if len(c.Nodes) <= maxSize {
			out = append(out, finalizeChunk(idx, c))
			continue
		}
		for offset := 0; offset < len(c.Nodes); offset += maxSize {
			end := offset + maxSize
			if end > len(c.Nodes) {
				end = len(c.Nodes)
			}
			out = append(out, finalizeChunk(idx, &Chunk{
				ID: len(out), Nodes: c.Nodes[offset:end], Level: level,
			}))
		}
	}
	for i, c := range out {
		c.ID = i
	}
	return out
}

func finalizeChunk(idx *GlobalIndex, c *Chunk) *Chunk {
	for _, n := range c.Nodes {
		s := idx.Summary(idx.Graph.Nodes[n])
		c.TotalInstructions += s.InstructionCount
		if s.HasFlag(FlagHot) {
			c.Hotness += 1
		}
	}
	if len(c.Nodes) > 0 {
		c.Hotness /= float64(len(c.Nodes))
	}
	return c
}

// hotSeedMinCallers is the static proxy for "hot": a function with at
// least this many distinct callers is a hot-path seed.
const hotSeedMinCallers = 4

// hotPathMaxDepth bounds how far profile-guided partitioning follows the
// most-dynamically-executed outgoing edge from a seed.
const hotPathMaxDepth = 10

// PartitionByProfile identifies hot paths from seeds with >=4 callers,
// following each seed's most-dynamically-executed outgoing edge up to
// depth 10. Hot-path chunks inherit an aggressive level with expensive
// opts enabled; everything else becomes one residual cold chunk at O1.
func PartitionByProfile(idx *GlobalIndex, hotLevel Level, logger *slog.Logger) []*Chunk {
	logger = logOrDefault(logger)
	callerCount := make(map[NodeID]int)
	for _, e := range idx.Graph.Edges {
		callerCount[e.Callee]++
	}

	inHotChunk := make(map[NodeID]bool)
	var chunks []*Chunk

	for i, n := range idx.Graph.Nodes {
		if !n.Reachable {
			continue
		}
		seed := NodeID(i)
		if callerCount[seed] < hotSeedMinCallers || inHotChunk[seed] {
			continue
		}
		path := []NodeID{seed}
		inHotChunk[seed] = true
		cur := seed
		for depth := 0; depth < hotPathMaxDepth; depth++ {
			next, ok := mostDynamicOutgoing(idx.Graph, cur)
			if !ok || inHotChunk[next] {
				break
			}
			path = append(path, next)
			inHotChunk[next] = true
			cur = next
		}
		chunks = append(chunks, finalizeChunk(idx, &Chunk{
			ID: len(chunks), Nodes: path, Level: hotLevel, ExpensiveOpts: true,
		}))
	}

	var cold []NodeID
	for i, n := range idx.Graph.Nodes {
		if n.Reachable && !inHotChunk[NodeID(i)] {
			cold = append(cold, NodeID(i))
		}
	}
	if len(cold) > 0 {
		chunks = append(chunks, finalizeChunk(idx, &Chunk{
			ID: len(chunks), Nodes: cold, Level: LevelO1, ExpensiveOpts: false,
		}))
	}

	logger.Debug("hmso: profile-guided partition complete", "chunks", len(chunks))
	return chunks
}

func mostDynamicOutgoing(g *CallGraph, from NodeID) (NodeID, bool) {
	var (
		best    NodeID
		bestVal uint64
		found   bool
	)
	for i, e := range g.Edges {
		if e.Caller != from {
			continue
		}
		if !found || e.DynamicCount > bestVal {
			best, bestVal, found = g.Edges[i].Callee, e.DynamicCount, true
		}
	}
	return best, found
}
