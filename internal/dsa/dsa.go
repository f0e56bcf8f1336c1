// Package dsa discovers the data structures of a program: classes of heap
// allocation sites whose objects may point to each other or flow into the
// same variables.
//
// The analysis is unification based (Steensgaard style) and
// field-insensitive. Each SSA value that may carry memory gets a node
// standing for the objects it points to; each node class has one content
// node for the objects stored in its memory. Value flow unifies nodes,
// loads and stores unify with contents, and calls bind arguments and
// results to the parameters and returns of every defined callee.
//
// Two classes of heap objects stay separate data structures when one is
// only stored into the other; such stores are reported as escapes so the
// pool heuristic can decide whether they share a pool. Objects handed to
// code the analysis cannot see are uncontrolled, and so is everything
// reachable from them.
package dsa

import (
	"golang.org/x/tools/container/intsets"
	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/poolalloc/internal/callgraph"
	"github.com/mpyw/poolalloc/internal/heuristic"
	"github.com/mpyw/poolalloc/internal/ssagraph"
)

// Result is the set of data structures found in a program.
type Result struct {
	// Structures is indexed by DS. Ids follow the first allocation site of
	// each structure in (function handle, instruction) order.
	Structures []heuristic.Structure
	Escapes    []heuristic.Escape
	// Live lists, per defined function, the structures its values refer to.
	Live map[callgraph.Func][]heuristic.DS

	sites  [][]ssa.Value
	siteDS map[ssa.Value]heuristic.DS
}

// Input assembles the heuristic input for the collapsed graph g.
func (r *Result) Input(g *callgraph.Graph) heuristic.Input {
	return heuristic.Input{
		Graph:      g,
		Structures: r.Structures,
		Escapes:    r.Escapes,
		Live:       r.Live,
	}
}

// DSOf returns the structure allocated by site.
func (r *Result) DSOf(site ssa.Value) (heuristic.DS, bool) {
	ds, ok := r.siteDS[site]
	return ds, ok
}

// Sites returns the allocation sites of ds in discovery order.
func (r *Result) Sites(ds heuristic.DS) []ssa.Value {
	if int(ds) < 0 || int(ds) >= len(r.sites) {
		return nil
	}
	return append([]ssa.Value(nil), r.sites[ds]...)
}

type analysis struct {
	prog  *ssagraph.Program
	nodes *nodes

	sites  []allocSite
	stores []storeEvent
	calls  []callEvent
}

// Analyze runs the analysis over every defined function of prog.
func Analyze(prog *ssagraph.Program) *Result {
	a := &analysis{prog: prog, nodes: newNodes()}

	var defined []*ssa.Function
	for _, fn := range prog.Functions() {
		if prog.Defined(fn) {
			defined = append(defined, fn)
		}
	}
	for _, fn := range defined {
		h, _ := prog.Handle(fn)
		a.walkFunc(fn, h)
	}
	a.nodes.propagate()

	r := &Result{
		Live:   make(map[callgraph.Func][]heuristic.DS),
		siteDS: make(map[ssa.Value]heuristic.DS),
	}
	byClass := a.number(r)
	a.escapes(r, byClass)
	for _, fn := range defined {
		h, _ := prog.Handle(fn)
		if live := a.live(fn, byClass); len(live) > 0 {
			r.Live[h] = live
		}
	}
	return r
}

// number assigns DS ids to node classes holding allocation sites.
func (a *analysis) number(r *Result) map[int]heuristic.DS {
	byClass := make(map[int]heuristic.DS)
	var owners []*intsets.Sparse
	for _, s := range a.sites {
		c := a.nodes.find(a.nodes.of(s.v))
		ds, ok := byClass[c]
		if !ok {
			ds = heuristic.DS(len(r.Structures))
			byClass[c] = ds
			r.Structures = append(r.Structures, heuristic.Structure{
				ID:           ds,
				Uncontrolled: a.nodes.isUncontrolled(c),
			})
			r.sites = append(r.sites, nil)
			owners = append(owners, new(intsets.Sparse))
		}
		r.siteDS[s.v] = ds
		r.sites[ds] = append(r.sites[ds], s.v)
		owners[ds].Insert(int(s.region))
	}
	for i := range r.Structures {
		for _, f := range owners[i].AppendTo(nil) {
			r.Structures[i].Owners = append(r.Structures[i].Owners, callgraph.Func(f))
		}
	}
	return byClass
}

func (a *analysis) dsOf(x int, byClass map[int]heuristic.DS) (heuristic.DS, bool) {
	ds, ok := byClass[a.nodes.find(x)]
	return ds, ok
}

// escapes turns the recorded events into heuristic escapes, dropping the
// ones that stay inside a single structure and duplicates.
func (a *analysis) escapes(r *Result, byClass map[int]heuristic.DS) {
	seen := make(map[heuristic.Escape]bool)
	add := func(e heuristic.Escape) {
		if e.From != e.To && !seen[e] {
			seen[e] = true
			r.Escapes = append(r.Escapes, e)
		}
	}

	for _, ev := range a.stores {
		to, ok1 := a.dsOf(ev.addr, byClass)
		from, ok2 := a.dsOf(ev.val, byClass)
		if ok1 && ok2 {
			add(heuristic.Escape{From: from, To: to, Kind: heuristic.EscapeStore, Region: ev.region})
		}
	}
	for _, ev := range a.calls {
		var crossing intsets.Sparse
		for _, x := range ev.nodes {
			if ds, ok := a.dsOf(x, byClass); ok {
				crossing.Insert(int(ds))
			}
		}
		all := crossing.AppendTo(nil)
		for _, ds := range all[min(1, len(all)):] {
			add(heuristic.Escape{
				From:   heuristic.DS(ds),
				To:     heuristic.DS(all[0]),
				Kind:   heuristic.EscapeCall,
				Region: ev.region,
			})
		}
	}
}

// live returns the structures referenced by the values of fn.
func (a *analysis) live(fn *ssa.Function, byClass map[int]heuristic.DS) []heuristic.DS {
	var set intsets.Sparse
	visit := func(v ssa.Value) {
		if x, ok := a.nodes.lookup(v); ok {
			if ds, ok := a.dsOf(x, byClass); ok {
				set.Insert(int(ds))
			}
		}
	}
	for _, p := range fn.Params {
		visit(p)
	}
	for _, fv := range fn.FreeVars {
		visit(fv)
	}
	var rands [8]*ssa.Value
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if v, ok := instr.(ssa.Value); ok {
				visit(v)
			}
			for _, op := range instr.Operands(rands[:0]) {
				if op != nil && *op != nil {
					visit(*op)
				}
			}
		}
	}

	var out []heuristic.DS
	for _, x := range set.AppendTo(nil) {
		out = append(out, heuristic.DS(x))
	}
	return out
}
