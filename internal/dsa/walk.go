package dsa

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/poolalloc/internal/callgraph"
)

// storeEvent records that the objects of val were stored into the objects of
// addr inside region.
type storeEvent struct {
	addr, val int
	region    callgraph.Func
}

// callEvent records the nodes crossing one call site.
type callEvent struct {
	nodes  []int
	region callgraph.Func
}

type allocSite struct {
	v      ssa.Value
	region callgraph.Func
}

// IsAllocSite reports whether v allocates a heap object that belongs to a
// data structure. Variadic argument arrays are not counted.
func IsAllocSite(v ssa.Value) bool {
	switch v := v.(type) {
	case *ssa.Alloc:
		return v.Heap && v.Comment != "varargs"
	case *ssa.MakeSlice, *ssa.MakeMap, *ssa.MakeChan:
		return true
	}
	return false
}

// walkFunc applies the unification rules of every instruction of fn.
func (a *analysis) walkFunc(fn *ssa.Function, region callgraph.Func) {
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			a.walkInstr(instr, region)
		}
	}
}

func (a *analysis) walkInstr(instr ssa.Instruction, region callgraph.Func) {
	n := a.nodes
	if v, ok := instr.(ssa.Value); ok && IsAllocSite(v) {
		n.of(v)
		a.sites = append(a.sites, allocSite{v: v, region: region})
		return
	}

	switch instr := instr.(type) {
	case *ssa.Alloc:
		n.of(instr)

	// Value flow within a function.
	case *ssa.Phi:
		for _, e := range instr.Edges {
			n.unify(n.of(instr), n.of(e))
		}
	case *ssa.ChangeType:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.Convert:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.MultiConvert:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.ChangeInterface:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.SliceToArrayPointer:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.MakeInterface:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.TypeAssert:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.FieldAddr:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.Field:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.IndexAddr:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.Index:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.Slice:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.Range:
		n.unify(n.of(instr), n.of(instr.X))
	case *ssa.Next:
		n.unify(n.of(instr), n.contentOf(n.of(instr.Iter)))
	case *ssa.Extract:
		if call, ok := instr.Tuple.(*ssa.Call); ok {
			n.unify(n.of(instr), n.tuple(call, instr.Index))
		} else {
			n.unify(n.of(instr), n.of(instr.Tuple))
		}
	case *ssa.MakeClosure:
		n.of(instr)
		if fn, ok := instr.Fn.(*ssa.Function); ok {
			for i, b := range instr.Bindings {
				if i < len(fn.FreeVars) {
					n.unify(n.of(b), n.of(fn.FreeVars[i]))
				}
			}
		}

	// Memory.
	case *ssa.UnOp:
		if instr.Op == token.MUL || instr.Op == token.ARROW {
			n.unify(n.of(instr), n.contentOf(n.of(instr.X)))
		}
	case *ssa.Lookup:
		if _, ok := instr.X.Type().Underlying().(*types.Map); ok {
			n.unify(n.of(instr), n.contentOf(n.of(instr.X)))
		}
	case *ssa.Store:
		a.store(n.of(instr.Addr), n.of(instr.Val), region)
	case *ssa.MapUpdate:
		m := n.of(instr.Map)
		a.store(m, n.of(instr.Key), region)
		a.store(m, n.of(instr.Value), region)
	case *ssa.Send:
		a.store(n.of(instr.Chan), n.of(instr.X), region)

	// Interprocedural flow.
	case *ssa.Return:
		fn := instr.Parent()
		for i, r := range instr.Results {
			n.unify(n.of(r), n.ret(fn, i))
		}
	case *ssa.Panic:
		n.markUncontrolled(n.of(instr.X))
	case ssa.CallInstruction:
		a.call(instr, region)
	}
}

func (a *analysis) store(addr, val int, region callgraph.Func) {
	if addr < 0 || val < 0 {
		return
	}
	a.nodes.unify(a.nodes.contentOf(addr), val)
	a.stores = append(a.stores, storeEvent{addr: addr, val: val, region: region})
}

// results returns the nodes of the values produced by instr, one per result.
func (a *analysis) results(instr ssa.CallInstruction) []int {
	call, ok := instr.(*ssa.Call)
	if !ok {
		return nil
	}
	switch k := call.Call.Signature().Results().Len(); k {
	case 0:
		return nil
	case 1:
		return []int{a.nodes.of(call)}
	default:
		out := make([]int, k)
		for i := range out {
			out[i] = a.nodes.tuple(call, i)
		}
		return out
	}
}

func (a *analysis) call(instr ssa.CallInstruction, region callgraph.Func) {
	n := a.nodes
	common := instr.Common()
	if b, ok := common.Value.(*ssa.Builtin); ok {
		a.builtin(instr, b)
		return
	}
	// Only pointer edges can carry structure membership across a call.
	if !callgraph.HasPointers(common.Signature()) {
		return
	}

	var args []int
	if common.IsInvoke() {
		args = append(args, n.of(common.Value))
	}
	for _, v := range common.Args {
		args = append(args, n.of(v))
	}
	results := a.results(instr)

	callees := a.prog.Callees(instr)
	controlled := len(callees) > 0
	for _, c := range callees {
		if !a.prog.Defined(c) {
			controlled = false
			continue
		}
		if h, ok := a.prog.Handle(c); ok && !a.prog.Registry().HasPointers(h) {
			continue
		}
		for i, arg := range args {
			if i < len(c.Params) {
				n.unify(arg, n.of(c.Params[i]))
			}
		}
		for i, r := range results {
			n.unify(r, n.ret(c, i))
		}
	}
	if _, ok := instr.(*ssa.Go); ok {
		controlled = false
	}
	if !controlled {
		for _, x := range args {
			n.markUncontrolled(x)
		}
		for _, x := range results {
			n.markUncontrolled(x)
		}
	}

	ev := callEvent{region: region}
	for _, x := range append(args, results...) {
		if x >= 0 {
			ev.nodes = append(ev.nodes, x)
		}
	}
	if len(ev.nodes) > 1 {
		a.calls = append(a.calls, ev)
	}
}

func (a *analysis) builtin(instr ssa.CallInstruction, b *ssa.Builtin) {
	n := a.nodes
	args := instr.Common().Args
	switch b.Name() {
	case "append":
		if call, ok := instr.(*ssa.Call); ok && len(args) == 2 {
			n.unify(n.of(call), n.of(args[0]))
			n.unify(n.contentOf(n.of(args[0])), n.contentOf(n.of(args[1])))
		}
	case "copy":
		if len(args) == 2 {
			n.unify(n.contentOf(n.of(args[0])), n.contentOf(n.of(args[1])))
		}
	}
}
