package callgraph

import "go/types"

// Func is an opaque handle to a function owned by the host program
// representation. Handles are dense and assigned by a Registry.
type Func int

// NoFunc stands for "callee not known yet" in Insert.
const NoFunc Func = -1

// CallSite identifies one call instruction inside Caller. ID is assigned by
// the host and must be unique within a Graph.
type CallSite struct {
	Caller Func
	ID     int
}

// FuncInfo is the host-supplied metadata for a function handle.
type FuncInfo struct {
	Name string
	// External marks declaration-only functions: they have no body in the
	// analyzed program and can never lead an SCC.
	External  bool
	Signature *types.Signature
}

// Registry maps function handles to host metadata.
// The call graph stores handles only and never owns the functions.
type Registry struct {
	funcs []FuncInfo
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a function and returns its handle.
func (r *Registry) Add(info FuncInfo) Func {
	r.funcs = append(r.funcs, info)
	return Func(len(r.funcs) - 1)
}

// Len returns the number of registered functions.
func (r *Registry) Len() int { return len(r.funcs) }

// Info returns the metadata of f.
func (r *Registry) Info(f Func) FuncInfo {
	return r.funcs[f]
}

// Name returns the display name of f.
func (r *Registry) Name(f Func) string {
	if f < 0 || int(f) >= len(r.funcs) {
		return "<none>"
	}
	return r.funcs[f].Name
}

// IsExternal reports whether f is declaration-only.
func (r *Registry) IsExternal(f Func) bool {
	return r.funcs[f].External
}

// HasPointers reports whether calls to f can carry pointers, according to
// its registered signature. Functions registered without one carry none.
func (r *Registry) HasPointers(f Func) bool {
	return r.valid(f) && HasPointers(r.funcs[f].Signature)
}

func (r *Registry) valid(f Func) bool {
	return f >= 0 && int(f) < len(r.funcs)
}
