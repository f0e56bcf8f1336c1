package ssagraph

import (
	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/poolalloc/internal/callgraph"
)

// Options controls Build.
type Options struct {
	// Resolver fills in callees. Nil means StaticResolver.
	Resolver Resolver

	// Opaque reports functions that must be treated as declaration-only even
	// though they have a body. Nil means none.
	Opaque func(fn *ssa.Function) bool
}

// Build constructs the call graph of seeds and of every function with a body
// reachable from them through resolved calls.
//
// Construction happens in two passes. The first discovers the function set so
// handles can be assigned in a stable order; the second inserts one call site
// per call instruction (builtins excluded) and insures an entry for every
// function whose address is taken. Unresolved sites are inserted with
// callgraph.NoFunc.
func Build(seeds []*ssa.Function, opts Options) *Program {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = StaticResolver{}
	}
	opaque := opts.Opaque
	if opaque == nil {
		opaque = func(*ssa.Function) bool { return false }
	}

	p := &Program{
		handles: make(map[*ssa.Function]callgraph.Func),
		siteIDs: make(map[ssa.CallInstruction]callgraph.CallSite),
		callees: make(map[ssa.CallInstruction][]*ssa.Function),
	}

	// Pass 1: discover functions.
	seen := make(map[*ssa.Function]bool)
	var work []*ssa.Function
	add := func(fn *ssa.Function) {
		if fn != nil && !seen[fn] {
			seen[fn] = true
			work = append(work, fn)
		}
	}
	for _, fn := range seeds {
		add(fn)
	}
	for len(work) > 0 {
		fn := work[len(work)-1]
		work = work[:len(work)-1]
		p.funcs = append(p.funcs, fn)
		if fn.Blocks == nil || opaque(fn) {
			continue
		}
		for _, anon := range fn.AnonFuncs {
			add(anon)
		}
		forEachInstr(fn, func(instr ssa.Instruction) {
			if call, ok := instr.(ssa.CallInstruction); ok && !isBuiltin(call) {
				callees := resolver.Callees(call)
				p.callees[call] = callees
				for _, c := range callees {
					add(c)
				}
			}
			for _, ref := range addressTaken(instr) {
				add(ref)
			}
		})
	}

	sortFuncs(p.funcs)
	reg := callgraph.NewRegistry()
	for _, fn := range p.funcs {
		p.handles[fn] = reg.Add(callgraph.FuncInfo{
			Name:      fn.String(),
			External:  fn.Blocks == nil || opaque(fn),
			Signature: fn.Signature,
		})
	}
	p.Graph = callgraph.New(reg)

	// Pass 2: insert edges in handle order.
	for _, fn := range p.funcs {
		h := p.handles[fn]
		if reg.IsExternal(h) {
			continue
		}
		p.Graph.InsureEntry(h)
		forEachInstr(fn, func(instr ssa.Instruction) {
			if call, ok := instr.(ssa.CallInstruction); ok && !isBuiltin(call) {
				site := callgraph.CallSite{Caller: h, ID: len(p.sites)}
				p.sites = append(p.sites, call)
				p.siteIDs[call] = site
				callees := p.callees[call]
				if len(callees) == 0 {
					p.Graph.Insert(site, callgraph.NoFunc)
				}
				for _, c := range callees {
					p.Graph.Insert(site, p.handles[c])
				}
			}
			for _, ref := range addressTaken(instr) {
				p.Graph.InsureEntry(p.handles[ref])
			}
		})
	}
	return p
}

func forEachInstr(fn *ssa.Function, visit func(ssa.Instruction)) {
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			visit(instr)
		}
	}
}

func isBuiltin(call ssa.CallInstruction) bool {
	_, ok := call.Common().Value.(*ssa.Builtin)
	return ok
}

// addressTaken returns the functions used as values by instr, excluding the
// callee operand of a static call.
func addressTaken(instr ssa.Instruction) []*ssa.Function {
	var static *ssa.Function
	if call, ok := instr.(ssa.CallInstruction); ok {
		static, _ = call.Common().Value.(*ssa.Function)
	}

	var out []*ssa.Function
	var rands [8]*ssa.Value
	for i, op := range instr.Operands(rands[:0]) {
		if op == nil || *op == nil {
			continue
		}
		fn, ok := (*op).(*ssa.Function)
		if !ok {
			continue
		}
		// Operand 0 of a call is the callee itself.
		if i == 0 && fn == static {
			continue
		}
		out = append(out, fn)
	}
	return out
}
