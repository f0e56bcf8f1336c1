// Package ssagraph builds the pool-allocation call graph from Go SSA.
//
// It is the boundary between the host program representation and the
// handle-based callgraph package: every *ssa.Function gets a stable
// callgraph.Func handle, every call instruction a callgraph.CallSite, and a
// Resolver plays the role of the points-to analysis that fills in the
// callees of dynamic calls.
package ssagraph

import (
	"go/token"
	"sort"

	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/poolalloc/internal/callgraph"
)

// Program is the call graph of a set of SSA functions together with the
// mapping between SSA entities and graph handles.
type Program struct {
	Graph *callgraph.Graph

	funcs   []*ssa.Function
	handles map[*ssa.Function]callgraph.Func

	sites   []ssa.CallInstruction
	siteIDs map[ssa.CallInstruction]callgraph.CallSite
	callees map[ssa.CallInstruction][]*ssa.Function
}

// Registry returns the function registry of the graph.
func (p *Program) Registry() *callgraph.Registry { return p.Graph.Registry() }

// Func returns the SSA function behind h.
func (p *Program) Func(h callgraph.Func) *ssa.Function {
	if h < 0 || int(h) >= len(p.funcs) {
		return nil
	}
	return p.funcs[h]
}

// Handle returns the graph handle of fn.
func (p *Program) Handle(fn *ssa.Function) (callgraph.Func, bool) {
	h, ok := p.handles[fn]
	return h, ok
}

// Functions returns every registered function in handle order.
func (p *Program) Functions() []*ssa.Function {
	return append([]*ssa.Function(nil), p.funcs...)
}

// Defined reports whether fn is registered and has a body the analysis may
// look into.
func (p *Program) Defined(fn *ssa.Function) bool {
	h, ok := p.handles[fn]
	return ok && !p.Registry().IsExternal(h)
}

// Site returns the call instruction of site.
func (p *Program) Site(site callgraph.CallSite) ssa.CallInstruction {
	if site.ID < 0 || site.ID >= len(p.sites) {
		return nil
	}
	return p.sites[site.ID]
}

// SiteOf returns the call site handle of instr.
func (p *Program) SiteOf(instr ssa.CallInstruction) (callgraph.CallSite, bool) {
	s, ok := p.siteIDs[instr]
	return s, ok
}

// Callees returns the functions instr may call as seen by the resolver,
// before any SCC collapsing.
func (p *Program) Callees(instr ssa.CallInstruction) []*ssa.Function {
	return p.callees[instr]
}

// Name returns the display name of h.
func (p *Program) Name(h callgraph.Func) string {
	return p.Registry().Name(h)
}

// Pos returns the declaration position of h, or token.NoPos.
func (p *Program) Pos(h callgraph.Func) token.Pos {
	if fn := p.Func(h); fn != nil {
		return fn.Pos()
	}
	return token.NoPos
}

// sortFuncs orders functions by their full name, then by position, which
// gives handles that do not depend on map iteration order.
func sortFuncs(fns []*ssa.Function) {
	sort.SliceStable(fns, func(i, j int) bool {
		si, sj := fns[i].String(), fns[j].String()
		if si != sj {
			return si < sj
		}
		return fns[i].Pos() < fns[j].Pos()
	})
}
