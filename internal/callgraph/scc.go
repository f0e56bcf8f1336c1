package callgraph

import (
	"golang.org/x/tools/container/intsets"

	"github.com/mpyw/poolalloc/internal/unionfind"
)

// =============================================================================
// Tarjan
// =============================================================================

// frame is one level of the explicit DFS stack.
type frame struct {
	f       Func
	callees []int
	next    int
}

// tarjan holds the traversal state of BuildSCCs.
type tarjan struct {
	g       *Graph
	nextID  int
	disc    []int // discovery id, 0 = unvisited
	low     []int
	onStack []bool
	stack   []Func
}

// BuildSCCs finds the strongly connected components of SimpleCallees with
// Tarjan's algorithm, collapses each component into its leader and freezes
// the graph.
//
// Nodes are visited in ascending handle order and the DFS uses an explicit
// stack, so deep call chains cannot exhaust the goroutine stack.
//
// The leader of a multi-node component is its earliest-discovered member
// that is not declaration-only. A component made only of external functions
// cannot exist because externals have no outgoing edges; finding one panics.
func (g *Graph) BuildSCCs() {
	g.mustBuild("BuildSCCs")

	n := g.reg.Len()
	t := &tarjan{
		g:       g,
		nextID:  1,
		disc:    make([]int, n),
		low:     make([]int, n),
		onStack: make([]bool, n),
	}
	g.sccs = unionfind.New(n)
	g.members = make(map[Func][]Func)

	for _, k := range g.keys.AppendTo(nil) {
		if t.disc[k] == 0 {
			t.run(Func(k))
		}
	}

	g.removeECFunctions()
	g.collapsed = true
}

func (t *tarjan) enter(f Func) frame {
	if t.disc[f] != 0 {
		panic("callgraph: SCC traversal revisited a function")
	}
	t.disc[f] = t.nextID
	t.low[f] = t.nextID
	t.nextID++
	t.stack = append(t.stack, f)
	t.onStack[f] = true

	var callees []int
	if s, ok := t.g.simple[f]; ok {
		callees = s.AppendTo(nil)
	}
	return frame{f: f, callees: callees}
}

func (t *tarjan) run(root Func) {
	work := []frame{t.enter(root)}
	for len(work) > 0 {
		top := &work[len(work)-1]
		if top.next < len(top.callees) {
			c := top.callees[top.next]
			top.next++
			switch {
			case t.disc[c] == 0:
				work = append(work, t.enter(Func(c)))
			case t.onStack[c]:
				if t.disc[c] < t.low[top.f] {
					t.low[top.f] = t.disc[c]
				}
			}
			// Finalized components do not influence low-link.
			continue
		}

		f := top.f
		work = work[:len(work)-1]
		if len(work) > 0 {
			parent := &work[len(work)-1]
			if t.low[f] < t.low[parent.f] {
				t.low[parent.f] = t.low[f]
			}
		}
		if t.low[f] == t.disc[f] {
			t.pop(f)
		}
	}
}

// pop removes the component rooted at f from the stack and records it.
func (t *tarjan) pop(f Func) {
	if t.stack[len(t.stack)-1] == f {
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[f] = false
		return
	}

	var scc []Func
	for {
		m := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[m] = false
		scc = append(scc, m)
		if m == f {
			break
		}
	}

	leader := chooseLeader(scc, t.disc, t.g.reg.IsExternal)
	members := []Func{leader}
	for _, m := range scc {
		t.g.sccs.Union(int(leader), int(m))
		if m != leader {
			members = append(members, m)
		}
	}
	if t.g.Resolve(leader) != leader {
		panic("callgraph: SCC leader lost its class")
	}
	t.g.members[leader] = members
}

// chooseLeader returns the member of scc with the smallest discovery id that
// is not external.
func chooseLeader(scc []Func, disc []int, external func(Func) bool) Func {
	leader := NoFunc
	for _, m := range scc {
		if external(m) {
			continue
		}
		if leader == NoFunc || disc[m] < disc[leader] {
			leader = m
		}
	}
	if leader == NoFunc {
		panic("callgraph: SCC without a defined function")
	}
	return leader
}

// =============================================================================
// Collapsing
// =============================================================================

// removeECFunctions rewrites both edge relations in terms of SCC leaders.
// Entries of non-leader callers are folded into their leader, callee sets are
// mapped to leaders, and the self-loop each leader gains from its collapsed
// cycle is dropped.
func (g *Graph) removeECFunctions() {
	merged := make(map[Func]*intsets.Sparse, len(g.simple))
	var keys intsets.Sparse
	for _, k := range g.keys.AppendTo(nil) {
		leader := g.Resolve(Func(k))
		dst, ok := merged[leader]
		if !ok {
			dst = new(intsets.Sparse)
			merged[leader] = dst
			keys.Insert(int(leader))
		}
		dst.UnionWith(g.simple[Func(k)])
	}
	for leader, set := range merged {
		merged[leader] = g.resolveSet(set)
		merged[leader].Remove(int(leader))
	}
	g.simple = merged
	g.keys.Copy(&keys)

	for site, set := range g.actual {
		g.actual[site] = g.resolveSet(set)
	}
}

func (g *Graph) resolveSet(s *intsets.Sparse) *intsets.Sparse {
	out := new(intsets.Sparse)
	for _, x := range s.AppendTo(nil) {
		out.Insert(int(g.Resolve(Func(x))))
	}
	return out
}
