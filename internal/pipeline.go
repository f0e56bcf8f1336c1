package internal

import (
	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/poolalloc/internal/callgraph"
	"github.com/mpyw/poolalloc/internal/dsa"
	"github.com/mpyw/poolalloc/internal/heuristic"
	"github.com/mpyw/poolalloc/internal/ssagraph"
)

// Options configures one pipeline run.
type Options struct {
	Resolver ssagraph.Resolver
	Opaque   func(*ssa.Function) bool
	Config   heuristic.Config
}

// Result is everything the pipeline computed for a set of functions.
type Result struct {
	Program *ssagraph.Program
	Roots   []callgraph.Func
	DS      *dsa.Result
	Plan    *heuristic.Plan
}

// Plan builds and collapses the call graph of seeds, discovers their data
// structures and assigns them to pools.
func Plan(seeds []*ssa.Function, opts Options) *Result {
	prog := ssagraph.Build(seeds, ssagraph.Options{
		Resolver: opts.Resolver,
		Opaque:   opts.Opaque,
	})
	prog.Graph.BuildSCCs()
	roots := prog.Graph.BuildRoots()

	ds := dsa.Analyze(prog)
	plan := heuristic.Run(ds.Input(prog.Graph), opts.Config)

	return &Result{
		Program: prog,
		Roots:   roots,
		DS:      ds,
		Plan:    plan,
	}
}

// PoolOf returns the pool of the allocation site v.
func (r *Result) PoolOf(v ssa.Value) (heuristic.PoolInfo, bool) {
	ds, ok := r.DS.DSOf(v)
	if !ok {
		return heuristic.PoolInfo{}, false
	}
	return r.Plan.Pool(r.Plan.PoolOf(ds))
}
