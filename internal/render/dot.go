// Package render draws the collapsed call graph as Graphviz DOT.
package render

import (
	"fmt"

	"github.com/zboralski/lattice"
	latticerender "github.com/zboralski/lattice/render"

	"github.com/mpyw/poolalloc/internal/callgraph"
)

// CallGraph converts the collapsed graph g into a lattice graph. Each SCC
// becomes one node named after its leader, suffixed with the member count
// for multi-function cycles.
func CallGraph(g *callgraph.Graph) *lattice.Graph {
	reg := g.Registry()
	label := func(f callgraph.Func) string {
		name := reg.Name(f)
		if n := len(g.Members(f)); n > 1 {
			name = fmt.Sprintf("%s (%d functions)", name, n)
		}
		return name
	}

	lg := &lattice.Graph{}
	for _, f := range g.Functions() {
		if g.Resolve(f) != f {
			continue
		}
		lg.Nodes = append(lg.Nodes, label(f))
		for _, c := range g.Callees(f) {
			lg.Edges = append(lg.Edges, lattice.Edge{
				Caller: label(f),
				Callee: label(c),
			})
		}
	}
	lg.Dedup()
	return lg
}

// CallGraphDOT renders g as a DOT document titled title.
func CallGraphDOT(g *callgraph.Graph, title string) string {
	return latticerender.DOT(CallGraph(g), title)
}
