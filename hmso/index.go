package hmso

import "log/slog"

// Unit is one loaded object-file's summary set, as the global index
// consumes it. The global index owns only the summaries; IR bodies stay
// on disk until a chunk optimizer actually needs one.
type Unit struct {
	SourcePath string
	Functions  []*FunctionSummary
}

// GlobalIndex is the whole-program view built once per HMSO stage: a
// flat symbol table, a call graph with SCCs computed, and reachability
// from the program's entry points. It is read-only once built and torn
// down at stage end, so chunk optimizer workers share it lock-free.
type GlobalIndex struct {
	Units   []Unit
	Symbols map[string][]NodeID // duplicates tolerated; later units shadow for link purposes
	Graph   *CallGraph
}

// edgeCapFactor is the "10x node_count" safety cap on total edges a
// global index will build.
const edgeCapFactor = 10

// BuildGlobalIndex loads the given units (skipping none here — invalid
// magic is a loader-level concern handled by objfile before a Unit ever
// reaches this function) and builds the call graph, SCCs, and
// reachability from entryPoints ∪ {"main", "_start"}. logger may be nil,
// in which case slog.Default() is used; index-build stats are logged at
// Debug and dead functions at Warn.
func BuildGlobalIndex(units []Unit, entryPoints []string, logger *slog.Logger) *GlobalIndex {
	logger = logOrDefault(logger)
	idx := &GlobalIndex{Units: units, Symbols: make(map[string][]NodeID), Graph: NewCallGraph()}

	for unitIdx, u := range units {
		for fnIdx, summary := range u.Functions {
			node := Node{UnitIndex: unitIdx, FuncIndex: fnIdx, Name: summary.Name}
			id := idx.Graph.AddNode(node)
			idx.Symbols[summary.Name] = append(idx.Symbols[summary.Name], id)
		}
	}

	edgeCap := edgeCapFactor * len(idx.Graph.Nodes)
	nodeOf := 0
	for _, u := range units {
		for _, summary := range u.Functions {
			caller := NodeID(nodeOf)
			nodeOf++
			for _, cs := range summary.CallSites {
				targets := idx.Symbols[cs.CalleeName]
				if len(targets) == 0 {
					continue // unresolved external symbol; no call-graph edge.
				}
				if len(idx.Graph.Edges) >= edgeCap {
					break
				}
				idx.Graph.AddEdge(Edge{
					Caller: caller, Callee: targets[0],
					StaticCount: cs.CallCount, DynamicCount: uint64(cs.CallCount),
					Hot: cs.CallCount >= hotCallSiteThreshold,
				})
			}
		}
	}

	idx.Graph.ComputeSCCs()

	entries := map[string]bool{"main": true, "_start": true}
	for _, e := range entryPoints {
		entries[e] = true
	}
	dead := idx.Graph.ReachableFrom(entries)

	logger.Debug("hmso: global index built", "units", len(units), "functions", len(idx.Graph.Nodes), "edges", len(idx.Graph.Edges))
	for _, id := range dead {
		logger.Warn("hmso: unreachable function", "name", idx.Graph.Nodes[id].Name)
	}

	return idx
}

// hotCallSiteThreshold marks an edge hot once its static count reaches
// this; used as a default before real profile data narrows it, and as
// the cross-chunk optimizer's own hot-edge threshold.
const hotCallSiteThreshold = 10

// DeadFunctions returns every node the reachability pass never marked,
// in index order.
func (g *GlobalIndex) DeadFunctions() []Node {
	var dead []Node
	for _, n := range g.Graph.Nodes {
		if !n.Reachable {
			dead = append(dead, n)
		}
	}
	return dead
}

// Summary returns the FunctionSummary a node names.
func (g *GlobalIndex) Summary(n Node) *FunctionSummary {
	return g.Units[n.UnitIndex].Functions[n.FuncIndex]
}
