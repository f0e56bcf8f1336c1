package dsa

import (
	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/poolalloc/internal/callgraph"
	"github.com/mpyw/poolalloc/internal/unionfind"
)

// nodes is the unification graph: every node stands for a set of abstract
// memory objects, and each class has at most one content node, the objects
// its memory points to.
type nodes struct {
	set          unionfind.Set
	content      []int  // valid at leaders, -1 when unknown
	uncontrolled []bool // valid at leaders

	values map[ssa.Value]int
	tuples map[tupleKey]int
	rets   map[*ssa.Function][]int
}

type tupleKey struct {
	v ssa.Value
	i int
}

func newNodes() *nodes {
	return &nodes{
		values: make(map[ssa.Value]int),
		tuples: make(map[tupleKey]int),
		rets:   make(map[*ssa.Function][]int),
	}
}

func (n *nodes) fresh() int {
	id := len(n.content)
	n.content = append(n.content, -1)
	n.uncontrolled = append(n.uncontrolled, false)
	n.set.Grow(id + 1)
	return id
}

func (n *nodes) find(x int) int { return n.set.Find(x) }

// of returns the node of v, or -1 for values that never carry memory.
func (n *nodes) of(v ssa.Value) int {
	switch v.(type) {
	case nil, *ssa.Const, *ssa.Function, *ssa.Builtin:
		return -1
	}
	if id, ok := n.values[v]; ok {
		return id
	}
	if !callgraph.CarriesPointers(v.Type()) {
		return -1
	}
	id := n.fresh()
	n.values[v] = id
	if _, ok := v.(*ssa.Global); ok {
		n.uncontrolled[id] = true
	}
	return id
}

// lookup is like of but never creates a node.
func (n *nodes) lookup(v ssa.Value) (int, bool) {
	id, ok := n.values[v]
	return id, ok
}

// tuple returns the node of the i-th component of a multi-valued call.
func (n *nodes) tuple(v ssa.Value, i int) int {
	k := tupleKey{v, i}
	if id, ok := n.tuples[k]; ok {
		return id
	}
	id := n.fresh()
	n.tuples[k] = id
	return id
}

// ret returns the node of fn's i-th result.
func (n *nodes) ret(fn *ssa.Function, i int) int {
	rs := n.rets[fn]
	if rs == nil {
		rs = make([]int, fn.Signature.Results().Len())
		for j := range rs {
			rs[j] = -1
		}
		n.rets[fn] = rs
	}
	if i >= len(rs) {
		return -1
	}
	if rs[i] < 0 {
		rs[i] = n.fresh()
	}
	return rs[i]
}

// contentOf returns the content node of x's class, creating it if needed.
func (n *nodes) contentOf(x int) int {
	if x < 0 {
		return -1
	}
	r := n.find(x)
	if n.content[r] < 0 {
		c := n.fresh()
		n.content[r] = c
	}
	return n.content[r]
}

// unify merges the classes of x and y and, recursively, their contents.
// The smaller node id leads the merged class.
func (n *nodes) unify(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	pending := [][2]int{{x, y}}
	for len(pending) > 0 {
		p := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		rx, ry := n.find(p[0]), n.find(p[1])
		if rx == ry {
			continue
		}
		if ry < rx {
			rx, ry = ry, rx
		}
		cx, cy := n.content[rx], n.content[ry]
		n.set.Union(rx, ry)
		n.uncontrolled[rx] = n.uncontrolled[rx] || n.uncontrolled[ry]
		switch {
		case cx < 0:
			n.content[rx] = cy
		case cy >= 0:
			pending = append(pending, [2]int{cx, cy})
		}
	}
}

func (n *nodes) markUncontrolled(x int) {
	if x >= 0 {
		n.uncontrolled[n.find(x)] = true
	}
}

// propagate marks everything reachable from an uncontrolled class through
// content edges as uncontrolled.
func (n *nodes) propagate() {
	for changed := true; changed; {
		changed = false
		for i := range n.content {
			if n.find(i) != i || !n.uncontrolled[i] || n.content[i] < 0 {
				continue
			}
			if c := n.find(n.content[i]); !n.uncontrolled[c] {
				n.uncontrolled[c] = true
				changed = true
			}
		}
	}
}

func (n *nodes) isUncontrolled(x int) bool {
	return n.uncontrolled[n.find(x)]
}
