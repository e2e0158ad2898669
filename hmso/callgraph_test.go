package hmso

import "testing"

func TestComputeSCCsMergesACycle(t *testing.T) {
	g := NewCallGraph()
	a := g.AddNode(Node{Name: "a"})
	b := g.AddNode(Node{Name: "b"})
	c := g.AddNode(Node{Name: "c"})
	g.AddEdge(Edge{Caller: a, Callee: b})
	g.AddEdge(Edge{Caller: b, Callee: c})
	g.AddEdge(Edge{Caller: c, Callee: a}) // closes a cycle a->b->c->a

	g.ComputeSCCs()
	if g.Nodes[a].SCCID != g.Nodes[b].SCCID || g.Nodes[b].SCCID != g.Nodes[c].SCCID {
		t.Fatalf("expected a, b, c in one SCC, got %d %d %d", g.Nodes[a].SCCID, g.Nodes[b].SCCID, g.Nodes[c].SCCID)
	}
}

func TestComputeSCCsSeparatesAcyclicNodes(t *testing.T) {
	g := NewCallGraph()
	a := g.AddNode(Node{Name: "a"})
	b := g.AddNode(Node{Name: "b"})
	g.AddEdge(Edge{Caller: a, Callee: b})

	g.ComputeSCCs()
	if g.Nodes[a].SCCID == g.Nodes[b].SCCID {
		t.Fatal("a and b are not mutually reachable and must land in separate SCCs")
	}
}

func TestReachableFromMarksTransitiveCallees(t *testing.T) {
	g := NewCallGraph()
	main := g.AddNode(Node{Name: "main"})
	helper := g.AddNode(Node{Name: "helper"})
	deep := g.AddNode(Node{Name: "deep"})
	dead := g.AddNode(Node{Name: "dead"})
	g.AddEdge(Edge{Caller: main, Callee: helper})
	g.AddEdge(Edge{Caller: helper, Callee: deep})

	deadList := g.ReachableFrom(map[string]bool{"main": true})

	if !g.Nodes[main].Reachable || !g.Nodes[helper].Reachable || !g.Nodes[deep].Reachable {
		t.Fatal("main, helper, and deep must all be reachable")
	}
	if g.Nodes[dead].Reachable {
		t.Fatal("dead must not be reachable")
	}
	if len(deadList) != 1 || deadList[0] != dead {
		t.Fatalf("expected exactly dead in the dead list, got %+v", deadList)
	}
}
