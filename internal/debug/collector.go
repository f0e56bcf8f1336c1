package debug

import (
	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/poolalloc/internal/callgraph"
	"github.com/mpyw/poolalloc/internal/dsa"
	"github.com/mpyw/poolalloc/internal/heuristic"
	"github.com/mpyw/poolalloc/internal/ssagraph"
)

// Collector encapsulates debug information collection.
// This keeps debug logic isolated from the main analysis code.
type Collector struct {
	prog *ssagraph.Program
	ds   *dsa.Result
	plan *heuristic.Plan
}

// NewCollector creates a new Collector over the results of one run.
func NewCollector(prog *ssagraph.Program, ds *dsa.Result, plan *heuristic.Plan) *Collector {
	return &Collector{prog: prog, ds: ds, plan: plan}
}

// Pool builds the description of pool id.
func (c *Collector) Pool(id heuristic.Pool) PoolInfo {
	p, ok := c.plan.Pool(id)
	if !ok {
		return PoolInfo{ID: int(id)}
	}
	info := PoolInfo{
		ID:         int(p.ID),
		Global:     p.Global,
		Structures: len(p.Members),
	}
	for _, h := range p.Homes {
		info.Homes = append(info.Homes, c.prog.Name(h))
	}
	for _, ds := range p.Members {
		for _, v := range c.ds.Sites(ds) {
			info.Sites = append(info.Sites, NewSiteInfo(v))
		}
	}
	return info
}

// Region builds the debug information of the region containing fn.
func (c *Collector) Region(fn *ssa.Function) *Info {
	h, ok := c.prog.Handle(fn)
	if !ok {
		return nil
	}
	leader := c.prog.Graph.Resolve(h)
	info := &Info{Region: c.prog.Name(leader)}
	for _, m := range c.prog.Graph.Members(leader) {
		info.Members = append(info.Members, c.prog.Name(m))
	}
	for _, p := range c.plan.Pools {
		for _, h := range p.Homes {
			if h == leader {
				info.Creates = append(info.Creates, c.Pool(p.ID))
			}
		}
	}
	for _, p := range c.plan.Args(leader) {
		info.Args = append(info.Args, int(p))
	}
	return info
}

// Regions builds the debug information of every region, callee-first.
func (c *Collector) Regions() []*Info {
	var out []*Info
	for _, r := range c.plan.Order {
		if info := c.Region(c.prog.Func(r)); info != nil {
			out = append(out, info)
		}
	}
	return out
}

// Leader returns the handle of fn's region.
func (c *Collector) Leader(fn *ssa.Function) (callgraph.Func, bool) {
	h, ok := c.prog.Handle(fn)
	if !ok {
		return callgraph.NoFunc, false
	}
	return c.prog.Graph.Resolve(h), true
}
