package callgraph

import "golang.org/x/tools/container/intsets"

// BuildRoots returns the functions that call but are never called by a known
// function: the set difference knownCallers − knownCallees, in ascending
// handle order.
//
// Roots are reported in leader form, so the graph must be collapsed first;
// calling BuildRoots before BuildSCCs panics.
func (g *Graph) BuildRoots() []Func {
	g.mustCollapsed("BuildRoots")

	var callers, callees, roots intsets.Sparse
	for _, k := range g.keys.AppendTo(nil) {
		callers.Insert(k)
		callees.UnionWith(g.simple[Func(k)])
	}
	roots.Difference(&callers, &callees)
	return toFuncs(roots.AppendTo(nil))
}

// ReverseTopological returns the SCC leaders in callee-before-caller order.
// It is a DFS post-order starting from the roots in handle order; since the
// collapsed graph is a DAG every leader is reached from some root.
func (g *Graph) ReverseTopological() []Func {
	g.mustCollapsed("ReverseTopological")

	visited := make(map[Func]bool, len(g.simple))
	var order []Func
	visit := func(start Func) {
		if visited[start] {
			return
		}
		visited[start] = true
		work := []frame{{f: start, callees: g.simple[start].AppendTo(nil)}}
		for len(work) > 0 {
			top := &work[len(work)-1]
			if top.next < len(top.callees) {
				c := Func(top.callees[top.next])
				top.next++
				if !visited[c] {
					visited[c] = true
					work = append(work, frame{f: c, callees: g.simple[c].AppendTo(nil)})
				}
				continue
			}
			order = append(order, top.f)
			work = work[:len(work)-1]
		}
	}

	for _, r := range g.BuildRoots() {
		visit(r)
	}
	for _, k := range g.keys.AppendTo(nil) {
		visit(Func(k))
	}
	return order
}
