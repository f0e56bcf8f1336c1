// Package callgraph provides the whole-program call graph used to scope
// pool allocation.
//
// # Lifecycle
//
//	┌──────────────┐  Insert / InsureEntry   ┌──────────────┐
//	│   building   │ ──────────────────────▶ │   building   │
//	└──────────────┘                         └──────────────┘
//	        │ BuildSCCs
//	        ▼
//	┌──────────────┐  Resolve / BuildRoots / Callees / ReverseTopological
//	│  collapsed   │ ─────────────────────────────────────────────────────▶
//	└──────────────┘
//
// The graph keeps two parallel edge relations:
//   - SimpleCallees: caller → set of callees, flattened and deduplicated.
//     Tarjan's algorithm runs over this relation.
//   - ActualCallees: call site → set of callees, for clients that need
//     call-site precision.
//
// Every function that appears as a caller or callee has an entry (possibly
// empty) in SimpleCallees, so SCC traversal visits leaves too.
//
// After BuildSCCs both relations describe a DAG over SCC leaders. Consumers
// map any function to its leader with Resolve before querying.
package callgraph

import (
	"golang.org/x/tools/container/intsets"

	"github.com/mpyw/poolalloc/internal/unionfind"
)

// Graph is the call graph of one analysis run.
// It is built, collapsed once, then only queried.
type Graph struct {
	reg *Registry

	keys   intsets.Sparse               // functions with a SimpleCallees entry
	simple map[Func]*intsets.Sparse     // SimpleCallees
	actual map[CallSite]*intsets.Sparse // ActualCallees
	sites  []CallSite                   // ActualCallees keys in insertion order

	sccs      *unionfind.Set
	members   map[Func][]Func // leader -> members of multi-node classes
	collapsed bool
}

// New creates an empty Graph over the functions of reg.
func New(reg *Registry) *Graph {
	return &Graph{
		reg:    reg,
		simple: make(map[Func]*intsets.Sparse),
		actual: make(map[CallSite]*intsets.Sparse),
	}
}

// Registry returns the registry the graph was built over.
func (g *Graph) Registry() *Registry { return g.reg }

// Collapsed reports whether BuildSCCs has run.
func (g *Graph) Collapsed() bool { return g.collapsed }

func (g *Graph) mustBuild(op string) {
	if g.collapsed {
		panic("callgraph: " + op + " after BuildSCCs")
	}
}

func (g *Graph) mustCollapsed(op string) {
	if !g.collapsed {
		panic("callgraph: " + op + " before BuildSCCs")
	}
}

func (g *Graph) mustValid(f Func) {
	if !g.reg.valid(f) {
		panic("callgraph: unknown function handle")
	}
}

// entry returns the SimpleCallees set of f, creating it if needed.
func (g *Graph) entry(f Func) *intsets.Sparse {
	s, ok := g.simple[f]
	if !ok {
		s = new(intsets.Sparse)
		g.simple[f] = s
		g.keys.Insert(int(f))
	}
	return s
}

// Insert records that site may call callee. A callee of NoFunc only makes
// sure the caller is a node, which is how unresolved indirect calls enter
// the graph. Insert is additive and may be repeated for the same site as
// more callees get resolved.
//
// Declaration-only callers never get outgoing edges: external code is
// modeled as calling nothing.
func (g *Graph) Insert(site CallSite, callee Func) {
	g.mustBuild("Insert")
	g.mustValid(site.Caller)

	callees := g.entry(site.Caller)
	set, ok := g.actual[site]
	if !ok {
		set = new(intsets.Sparse)
		g.actual[site] = set
		g.sites = append(g.sites, site)
	}
	if callee == NoFunc || g.reg.IsExternal(site.Caller) {
		return
	}
	g.mustValid(callee)
	set.Insert(int(callee))
	callees.Insert(int(callee))
	g.entry(callee)
}

// InsureEntry registers f as a node even if no callee is known for it.
func (g *Graph) InsureEntry(f Func) {
	g.mustBuild("InsureEntry")
	g.mustValid(f)
	g.entry(f)
}

// Functions returns every node of SimpleCallees in ascending handle order.
func (g *Graph) Functions() []Func {
	return toFuncs(g.keys.AppendTo(nil))
}

// Callees returns the SimpleCallees of f in ascending handle order.
func (g *Graph) Callees(f Func) []Func {
	s, ok := g.simple[f]
	if !ok {
		return nil
	}
	return toFuncs(s.AppendTo(nil))
}

// Sites returns every call site in insertion order.
func (g *Graph) Sites() []CallSite {
	return append([]CallSite(nil), g.sites...)
}

// SiteCallees returns the ActualCallees of site in ascending handle order.
// An unresolved site yields an empty slice.
func (g *Graph) SiteCallees(site CallSite) []Func {
	s, ok := g.actual[site]
	if !ok {
		return nil
	}
	return toFuncs(s.AppendTo(nil))
}

// Resolve maps f to the leader of its SCC. Before BuildSCCs, and for
// functions outside any multi-node SCC, it returns f itself.
func (g *Graph) Resolve(f Func) Func {
	if g.sccs == nil {
		return f
	}
	return Func(g.sccs.Find(int(f)))
}

// Members returns the functions collapsed into leader, leader first, or just
// leader for single-node components.
func (g *Graph) Members(leader Func) []Func {
	if m, ok := g.members[leader]; ok {
		return append([]Func(nil), m...)
	}
	return []Func{leader}
}

// SCCs returns the multi-node components, each leader first, ordered by
// leader handle.
func (g *Graph) SCCs() [][]Func {
	var leaders intsets.Sparse
	for l := range g.members {
		leaders.Insert(int(l))
	}
	var out [][]Func
	for _, l := range leaders.AppendTo(nil) {
		out = append(out, g.Members(Func(l)))
	}
	return out
}

func toFuncs(xs []int) []Func {
	if len(xs) == 0 {
		return nil
	}
	out := make([]Func, len(xs))
	for i, x := range xs {
		out[i] = Func(x)
	}
	return out
}
