package heuristic

import "github.com/mpyw/poolalloc/internal/callgraph"

// Pool identifies a pool in a Plan.
type Pool int

// GlobalPool is the catch-all pool for uncontrolled structures. It exists in
// a plan only when some structure is uncontrolled or the budget folded pools
// into it.
const GlobalPool Pool = 0

// PoolInfo describes one pool of a Plan.
type PoolInfo struct {
	ID      Pool
	Members []DS // ascending
	// Homes are the SCC regions that create and destroy the pool, in
	// handle order. A pool has one home unless no single region dominates
	// its uses; the global pool has none.
	Homes  []callgraph.Func
	Global bool
}

// Plan is the pool assignment produced by Run.
type Plan struct {
	Heuristic Heuristic
	// Order lists the SCC regions in the callee-first order the engine
	// visited them.
	Order []callgraph.Func
	Pools []PoolInfo // ascending ID

	assign []Pool
	byID   map[Pool]int
	args   map[callgraph.Func][]Pool
}

// PoolOf returns the pool of ds.
func (p *Plan) PoolOf(ds DS) Pool {
	return p.assign[ds]
}

// Pool returns the description of id.
func (p *Plan) Pool(id Pool) (PoolInfo, bool) {
	i, ok := p.byID[id]
	if !ok {
		return PoolInfo{}, false
	}
	return p.Pools[i], true
}

// NumPools returns the number of distinct pools.
func (p *Plan) NumPools() int { return len(p.Pools) }

// Args returns the pools a region receives from its callers: pools live in
// the region, or needed by its callees, that the region does not create.
// The global pool is never passed.
func (p *Plan) Args(region callgraph.Func) []Pool {
	return append([]Pool(nil), p.args[region]...)
}

// Assignment returns the pool of every structure, indexed by DS.
func (p *Plan) Assignment() []Pool {
	return append([]Pool(nil), p.assign...)
}
