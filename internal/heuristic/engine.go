package heuristic

import (
	"sort"

	"golang.org/x/tools/container/intsets"

	"github.com/mpyw/poolalloc/internal/callgraph"
	"github.com/mpyw/poolalloc/internal/unionfind"
)

// engine holds the state of one Run.
type engine struct {
	in  Input
	cfg Config

	// pools partitions DS ids; element len(in.Structures) is the global
	// pool sentinel. Every class is led by its smallest element.
	pools  *unionfind.Set
	global int

	order []callgraph.Func
	rank  map[callgraph.Func]int // callee-first position in order
}

// Run computes the pool plan of in.
//
// The decision procedure:
//  1. Visit the SCC regions of the collapsed graph callee-first, applying
//     the escapes observed in each region as pool merges.
//  2. Merge every uncontrolled structure into the global pool.
//  3. Collapse pools in leader order until cfg.MaxPools is met.
//  4. Number the pools, place each pool at the region dominating its uses and derive the pools
//     each region receives from its callers.
//
// Merging is idempotent, commutative and associative, so the final
// partition does not depend on the order escapes are listed in.
func Run(in Input, cfg Config) *Plan {
	e := &engine{
		in:     in,
		cfg:    cfg,
		pools:  unionfind.New(len(in.Structures) + 1),
		global: len(in.Structures),
		order:  in.Graph.ReverseTopological(),
	}
	e.rank = make(map[callgraph.Func]int, len(e.order))
	for i, r := range e.order {
		e.rank[r] = i
	}

	e.mergeEscapes()
	hasGlobal := e.mergeUncontrolled()
	e.applyBudget(hasGlobal)
	return e.plan(hasGlobal)
}

// merge unions the pools of a and b under the smaller leader.
func (e *engine) merge(a, b int) {
	la, lb := e.pools.Find(a), e.pools.Find(b)
	if la == lb {
		return
	}
	if lb < la {
		la, lb = lb, la
	}
	e.pools.Union(la, lb)
}

// =============================================================================
// Merging
// =============================================================================

func (e *engine) mergeEscapes() {
	byRegion := make(map[callgraph.Func][]Escape)
	var stray []Escape
	for _, esc := range e.in.Escapes {
		r := e.in.Graph.Resolve(esc.Region)
		if _, ok := e.rank[r]; ok {
			byRegion[r] = append(byRegion[r], esc)
		} else {
			stray = append(stray, esc)
		}
	}

	owned := make(map[callgraph.Func][]DS)
	if e.cfg.Heuristic == AllHeapNodesSamePool {
		for _, s := range e.in.Structures {
			for _, o := range s.Owners {
				r := e.in.Graph.Resolve(o)
				owned[r] = append(owned[r], s.ID)
			}
		}
	}

	for _, r := range e.order {
		for _, esc := range byRegion[r] {
			e.applyEscape(esc)
		}
		if ds := owned[r]; len(ds) > 0 {
			for _, d := range ds[1:] {
				e.merge(int(ds[0]), int(d))
			}
		}
	}
	for _, esc := range stray {
		e.applyEscape(esc)
	}

	if e.cfg.Heuristic == AllNodesSamePool {
		for i := 1; i < len(e.in.Structures); i++ {
			e.merge(0, i)
		}
	}
}

func (e *engine) applyEscape(esc Escape) {
	switch esc.Kind {
	case EscapeStore:
		e.merge(int(esc.From), int(esc.To))
	case EscapeCall:
		if e.cfg.Heuristic == CallSitePools {
			e.merge(int(esc.From), int(esc.To))
		}
	}
}

// mergeUncontrolled folds every uncontrolled structure into the global pool
// and reports whether the global pool is in use.
func (e *engine) mergeUncontrolled() bool {
	used := false
	for _, s := range e.in.Structures {
		if s.Uncontrolled {
			e.merge(int(s.ID), e.global)
			used = true
		}
	}
	return used
}

// =============================================================================
// Budget
// =============================================================================

// leaders returns the distinct pool leaders in ascending order.
func (e *engine) leaders() []int {
	var set intsets.Sparse
	for i := range e.in.Structures {
		set.Insert(e.pools.Find(i))
	}
	return set.AppendTo(nil)
}

// applyBudget collapses pools until at most cfg.MaxPools remain. The first
// pools in leader order are kept; the rest fold into the global pool if
// there is one, otherwise into the last kept pool.
func (e *engine) applyBudget(hasGlobal bool) {
	max := e.cfg.MaxPools
	// The global sentinel forms a class of its own until something joins it.
	pools := e.pools.Classes()
	if !hasGlobal {
		pools--
	}
	if max <= 0 || pools <= max {
		return
	}
	classes := e.leaders()

	if hasGlobal {
		globalLeader := e.pools.Find(e.global)
		kept := 0
		for _, l := range classes {
			if l == globalLeader {
				continue
			}
			if kept < max-1 {
				kept++
				continue
			}
			e.merge(l, e.global)
		}
		return
	}

	target := classes[max-1]
	for _, l := range classes[max:] {
		e.merge(target, l)
	}
}

// =============================================================================
// Plan
// =============================================================================

func (e *engine) plan(hasGlobal bool) *Plan {
	p := &Plan{
		Heuristic: e.cfg.Heuristic,
		Order:     e.order,
		assign:    make([]Pool, len(e.in.Structures)),
		byID:      make(map[Pool]int),
		args:      make(map[callgraph.Func][]Pool),
	}

	globalLeader := -1
	if hasGlobal {
		globalLeader = e.pools.Find(e.global)
		p.byID[GlobalPool] = 0
		p.Pools = append(p.Pools, PoolInfo{ID: GlobalPool, Global: true})
	}
	byLeader := make(map[int]Pool)
	next := GlobalPool + 1
	for i := range e.in.Structures {
		l := e.pools.Find(i)
		id := GlobalPool
		if l != globalLeader {
			var ok bool
			if id, ok = byLeader[l]; !ok {
				id = next
				next++
				byLeader[l] = id
				p.byID[id] = len(p.Pools)
				p.Pools = append(p.Pools, PoolInfo{ID: id})
			}
		}
		p.assign[i] = id
		info := &p.Pools[p.byID[id]]
		info.Members = append(info.Members, DS(i))
	}

	e.placePools(p)
	return p
}

// uses returns, per region, the non-global pools its functions allocate
// into or refer to.
func (e *engine) uses(p *Plan) map[callgraph.Func]*intsets.Sparse {
	out := make(map[callgraph.Func]*intsets.Sparse)
	add := func(f callgraph.Func, d DS) {
		pool := p.assign[d]
		if p.Pools[p.byID[pool]].Global {
			return
		}
		r := e.in.Graph.Resolve(f)
		s, ok := out[r]
		if !ok {
			s = new(intsets.Sparse)
			out[r] = s
		}
		s.Insert(int(pool))
	}
	for _, s := range e.in.Structures {
		for _, o := range s.Owners {
			add(o, s.ID)
		}
	}
	for f, live := range e.in.Live {
		for _, d := range live {
			add(f, d)
		}
	}
	return out
}

// dominators computes the immediate dominator of every region of the
// collapsed call DAG. Roots are dominated by a virtual entry, NoFunc.
type dominators struct {
	idom  map[callgraph.Func]callgraph.Func
	depth map[callgraph.Func]int
}

func (d *dominators) depthOf(f callgraph.Func) int {
	if f == callgraph.NoFunc {
		return 0
	}
	return d.depth[f]
}

// lca returns the nearest common dominator of a and b.
func (d *dominators) lca(a, b callgraph.Func) callgraph.Func {
	for a != b {
		if d.depthOf(a) < d.depthOf(b) {
			a, b = b, a
		}
		a = d.idom[a]
	}
	return a
}

// dominators walks the regions caller-first, so every caller of a region
// already has its dominator when the region is reached.
func (e *engine) dominators(callers map[callgraph.Func][]callgraph.Func) *dominators {
	d := &dominators{
		idom:  make(map[callgraph.Func]callgraph.Func, len(e.order)),
		depth: make(map[callgraph.Func]int, len(e.order)),
	}
	for i := len(e.order) - 1; i >= 0; i-- {
		r := e.order[i]
		dom := callgraph.NoFunc
		for j, q := range callers[r] {
			if j == 0 {
				dom = q
			} else {
				dom = d.lca(dom, q)
			}
		}
		d.idom[r] = dom
		d.depth[r] = d.depthOf(dom) + 1
	}
	return d
}

// placePools picks the regions creating each non-global pool and the pools
// every region receives from its callers.
//
// A pool is created at the nearest common dominator of the regions using
// it, so every path from a root to a use passes through its home and the
// pool can be handed down from there. When no single region dominates all
// uses, each root reaching a use creates its own instance. Roots therefore
// never receive pools.
func (e *engine) placePools(p *Plan) {
	g := e.in.Graph
	callers := make(map[callgraph.Func][]callgraph.Func, len(e.order))
	for _, r := range e.order {
		for _, c := range g.Callees(r) {
			callers[c] = append(callers[c], r)
		}
	}
	dom := e.dominators(callers)
	uses := e.uses(p)

	home := make(map[Pool]callgraph.Func)
	for _, r := range e.order {
		s, ok := uses[r]
		if !ok {
			continue
		}
		for _, x := range s.AppendTo(nil) {
			if h, ok := home[Pool(x)]; ok {
				home[Pool(x)] = dom.lca(h, r)
			} else {
				home[Pool(x)] = r
			}
		}
	}

	homes := make(map[Pool][]callgraph.Func)
	need := make(map[callgraph.Func]*intsets.Sparse, len(e.order))
	for _, r := range e.order {
		s := new(intsets.Sparse)
		if u, ok := uses[r]; ok {
			s.UnionWith(u)
		}
		for _, c := range g.Callees(r) {
			if n, ok := need[c]; ok {
				s.UnionWith(n)
			}
		}
		for _, x := range s.AppendTo(nil) {
			h := home[Pool(x)]
			if h == r || (h == callgraph.NoFunc && len(callers[r]) == 0) {
				s.Remove(x)
				homes[Pool(x)] = append(homes[Pool(x)], r)
			}
		}
		need[r] = s
		for _, x := range s.AppendTo(nil) {
			p.args[r] = append(p.args[r], Pool(x))
		}
	}

	for i := range p.Pools {
		info := &p.Pools[i]
		info.Homes = homes[info.ID]
		sortFuncs(info.Homes)
	}
}

func sortFuncs(fs []callgraph.Func) {
	sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })
}
