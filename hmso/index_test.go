package hmso

import "testing"

func unit(name string, fns ...*FunctionSummary) Unit {
	return Unit{SourcePath: name, Functions: fns}
}

func TestBuildGlobalIndexResolvesCallEdges(t *testing.T) {
	main := &FunctionSummary{Name: "main", CallSites: []CallSite{{CalleeName: "helper", CallCount: 3}}}
	helper := &FunctionSummary{Name: "helper"}
	idx := BuildGlobalIndex([]Unit{unit("a.fcx", main, helper)}, nil, nil)

	if len(idx.Graph.Edges) != 1 {
		t.Fatalf("expected one resolved edge, got %d", len(idx.Graph.Edges))
	}
	if !idx.Graph.Nodes[0].Reachable || !idx.Graph.Nodes[1].Reachable {
		t.Fatal("main and helper must both be reachable from the default main entry point")
	}
}

func TestBuildGlobalIndexSkipsUnresolvedExternalCalls(t *testing.T) {
	main := &FunctionSummary{Name: "main", CallSites: []CallSite{{CalleeName: "_fcx_alloc", CallCount: 1}}}
	idx := BuildGlobalIndex([]Unit{unit("a.fcx", main)}, nil, nil)

	if len(idx.Graph.Edges) != 0 {
		t.Fatalf("expected no edge for an unresolved external symbol, got %d", len(idx.Graph.Edges))
	}
}

func TestDeadFunctionsReportsUnreachableFunctions(t *testing.T) {
	main := &FunctionSummary{Name: "main"}
	orphan := &FunctionSummary{Name: "orphan"}
	idx := BuildGlobalIndex([]Unit{unit("a.fcx", main, orphan)}, nil, nil)

	dead := idx.DeadFunctions()
	if len(dead) != 1 || dead[0].Name != "orphan" {
		t.Fatalf("expected exactly orphan reported dead, got %+v", dead)
	}
}

func TestCustomEntryPointKeepsFunctionReachable(t *testing.T) {
	main := &FunctionSummary{Name: "main"}
	exported := &FunctionSummary{Name: "fcx_exported_init"}
	idx := BuildGlobalIndex([]Unit{unit("a.fcx", main, exported)}, []string{"fcx_exported_init"}, nil)

	if len(idx.DeadFunctions()) != 0 {
		t.Fatalf("expected no dead functions once fcx_exported_init is an entry point, got %+v", idx.DeadFunctions())
	}
}

func TestSummaryReturnsTheRightFunction(t *testing.T) {
	main := &FunctionSummary{Name: "main"}
	idx := BuildGlobalIndex([]Unit{unit("a.fcx", main)}, nil, nil)
	got := idx.Summary(idx.Graph.Nodes[0])
	if got.Name != "main" {
		t.Fatalf("expected main, got %s", got.Name)
	}
}
