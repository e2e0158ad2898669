package hmso

// NodeID identifies a function node within a CallGraph.
type NodeID int

// Node is one call-graph node: a function in a specific unit.
type Node struct {
	UnitIndex int
	FuncIndex int
	Name      string
	SCCID     int
	Reachable bool
}

// Edge is a directed call-site edge between two nodes.
type Edge struct {
	Caller      NodeID
	Callee      NodeID
	StaticCount uint32
	DynamicCount uint64
	Hot         bool
}

// CallGraph is the whole-program call graph the global index builds.
type CallGraph struct {
	Nodes []Node
	Edges []Edge
	adj   [][]int // adj[n] holds indices into Edges of n's outgoing edges
}

func NewCallGraph() *CallGraph { return &CallGraph{} }

func (g *CallGraph) AddNode(n Node) NodeID {
	id := NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, n)
	g.adj = append(g.adj, nil)
	return id
}

// AddEdge appends an edge. It enforces no capacity limit: any cap on the
// number of edges is applied by the caller before calling AddEdge.
func (g *CallGraph) AddEdge(e Edge) {
	idx := len(g.Edges)
	g.Edges = append(g.Edges, e)
	g.adj[e.Caller] = append(g.adj[e.Caller], idx)
}

// ComputeSCCs runs Tarjan's algorithm iteratively (no recursion, so call
// graphs with long chains don't blow the Go stack) and writes each
// node's SCCID in place.
func (g *CallGraph) ComputeSCCs() {
	n := len(g.Nodes)
	index := make([]int, n)
	lowlink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	nextIndex := 0
	sccID := 0

	type frame struct {
		node    int
		edgePos int
	}

	for start := 0; start < n; start++ {
		if index[start] != -1 {
			continue
		}
		var call []frame
		call = append(call, frame{node: start})

		for len(call) > 0 {
			top := &call[len(call)-1]
			v := top.node

			if top.edgePos == 0 {
				index[v] = nextIndex
				lowlink[v] = nextIndex
				nextIndex++
				stack = append(stack, v)
				onStack[v] = true
			}

			recursed := false
			for top.edgePos < len(g.adj[v]) {
				e := g.Edges[g.adj[v][top.edgePos]]
				top.edgePos++
				w := int(e.Callee)
				if index[w] == -1 {
					call = append(call, frame{node: w})
					recursed = true
					break
				} else if onStack[w] {
					if index[w] < lowlink[v] {
						lowlink[v] = index[w]
					}
				}
			}
			if recursed {
				continue
			}

			// All of v's edges visited; pop and propagate lowlink to the
			// parent frame before closing out v's own SCC.
			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := &call[len(call)-1]
				if lowlink[v] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					g.Nodes[w].SCCID = sccID
					if w == v {
						break
					}
				}
				sccID++
			}
		}
	}
}

// ReachableFrom marks every node reachable from entryNames (matched by
// function name) and returns the set of node indices left unmarked:
// the dead functions.
func (g *CallGraph) ReachableFrom(entryNames map[string]bool) (dead []NodeID) {
	nameToNodes := make(map[string][]int)
	for i, n := range g.Nodes {
		nameToNodes[n.Name] = append(nameToNodes[n.Name], i)
	}

	var stack []int
	for name := range entryNames {
		for _, i := range nameToNodes[name] {
			stack = append(stack, i)
		}
	}
	visited := make([]bool, len(g.Nodes))
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[v] {
			continue
		}
		visited[v] = true
		g.Nodes[v].Reachable = true
		for _, ei := range g.adj[v] {
			w := int(g.Edges[ei].Callee)
			if !visited[w] {
				stack = append(stack, w)
			}
		}
	}
	for i, ok := range visited {
		if !ok {
			dead = append(dead, NodeID(i))
		}
	}
	return dead
}
