package ssagraph

import (
	"errors"
	"fmt"

	xcallgraph "golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/rta"
	"golang.org/x/tools/go/callgraph/static"
	"golang.org/x/tools/go/callgraph/vta"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// ErrUnknownAlgorithm is returned by NewResolver for unsupported names.
var ErrUnknownAlgorithm = errors.New("unknown call graph algorithm")

// Algorithms lists the names accepted by NewResolver.
var Algorithms = []string{"static", "cha", "rta", "vta", "pta"}

// Resolver answers "which functions can this call site invoke".
// An empty answer means the site is unresolved.
type Resolver interface {
	Callees(site ssa.CallInstruction) []*ssa.Function
}

// StaticResolver resolves only static calls. Dynamic calls stay unresolved.
type StaticResolver struct{}

// Callees implements Resolver.
func (StaticResolver) Callees(site ssa.CallInstruction) []*ssa.Function {
	if fn := site.Common().StaticCallee(); fn != nil {
		return []*ssa.Function{fn}
	}
	return nil
}

// GraphResolver resolves call sites from a precomputed x/tools call graph.
type GraphResolver struct {
	callees map[ssa.CallInstruction][]*ssa.Function
}

// NewGraphResolver indexes the edges of cg by call site.
// Synthetic edges without a call site are skipped. Callees of a site are
// deduplicated and kept in the stable function order.
func NewGraphResolver(cg *xcallgraph.Graph) *GraphResolver {
	r := &GraphResolver{callees: make(map[ssa.CallInstruction][]*ssa.Function)}
	seen := make(map[xcallgraph.Edge]bool)
	for _, node := range cg.Nodes {
		for _, edge := range node.Out {
			if edge.Site == nil || edge.Callee == nil || edge.Callee.Func == nil {
				continue
			}
			key := xcallgraph.Edge{Site: edge.Site, Callee: edge.Callee}
			if seen[key] {
				continue
			}
			seen[key] = true
			r.callees[edge.Site] = append(r.callees[edge.Site], edge.Callee.Func)
		}
	}
	for _, fns := range r.callees {
		sortFuncs(fns)
	}
	return r
}

// Callees implements Resolver.
func (r *GraphResolver) Callees(site ssa.CallInstruction) []*ssa.Function {
	return r.callees[site]
}

// NewResolver builds a Resolver with the named algorithm:
//
//	static  only static call edges
//	cha     class hierarchy analysis
//	rta     rapid type analysis from the init/main functions of mains
//	vta     variable type analysis refined over CHA
//	pta     inclusion-based pointer analysis from mains
//
// rta and pta need at least one main package.
func NewResolver(algo string, prog *ssa.Program, mains []*ssa.Package) (Resolver, error) {
	switch algo {
	case "static":
		return NewGraphResolver(static.CallGraph(prog)), nil
	case "cha":
		return NewGraphResolver(cha.CallGraph(prog)), nil
	case "rta":
		if len(mains) == 0 {
			return nil, fmt.Errorf("rta: no main packages")
		}
		var roots []*ssa.Function
		for _, m := range mains {
			for _, name := range []string{"init", "main"} {
				if fn := m.Func(name); fn != nil {
					roots = append(roots, fn)
				}
			}
		}
		return NewGraphResolver(rta.Analyze(roots, true).CallGraph), nil
	case "vta":
		return NewGraphResolver(vta.CallGraph(ssautil.AllFunctions(prog), cha.CallGraph(prog))), nil
	case "pta":
		if len(mains) == 0 {
			return nil, fmt.Errorf("pta: no main packages")
		}
		result, err := pointer.Analyze(&pointer.Config{
			Mains:          mains,
			BuildCallGraph: true,
		})
		if err != nil {
			return nil, fmt.Errorf("pta: %w", err)
		}
		return NewGraphResolver(result.CallGraph), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algo)
}
