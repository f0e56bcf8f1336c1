package render_test

import (
	"strings"
	"testing"

	"github.com/mpyw/poolalloc/internal/callgraph"
	"github.com/mpyw/poolalloc/internal/render"
)

func TestCallGraph(t *testing.T) {
	t.Parallel()

	reg := callgraph.NewRegistry()
	main := reg.Add(callgraph.FuncInfo{Name: "main"})
	f := reg.Add(callgraph.FuncInfo{Name: "f"})
	g2 := reg.Add(callgraph.FuncInfo{Name: "g"})
	ext := reg.Add(callgraph.FuncInfo{Name: "ext", External: true})

	g := callgraph.New(reg)
	g.Insert(callgraph.CallSite{Caller: main, ID: 0}, f)
	g.Insert(callgraph.CallSite{Caller: main, ID: 1}, f)
	g.Insert(callgraph.CallSite{Caller: f, ID: 2}, g2)
	g.Insert(callgraph.CallSite{Caller: g2, ID: 3}, f)
	g.Insert(callgraph.CallSite{Caller: g2, ID: 4}, ext)
	g.BuildSCCs()

	lg := render.CallGraph(g)

	wantNodes := []string{"main", "f (2 functions)", "ext"}
	if len(lg.Nodes) != len(wantNodes) {
		t.Fatalf("nodes = %v, want %v", lg.Nodes, wantNodes)
	}
	for _, n := range wantNodes {
		if !contains(lg.Nodes, n) {
			t.Errorf("missing node %q in %v", n, lg.Nodes)
		}
	}
	if len(lg.Edges) != 2 {
		t.Errorf("edges = %+v, want main->f and f->ext", lg.Edges)
	}
	for _, e := range lg.Edges {
		if e.Caller == e.Callee {
			t.Errorf("self edge %+v", e)
		}
	}

	dot := render.CallGraphDOT(g, "poolalloc")
	if dot == "" {
		t.Fatal("expected non-empty DOT output")
	}
	if !strings.Contains(dot, "ext") {
		t.Errorf("DOT output lacks the external node:\n%s", dot)
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
