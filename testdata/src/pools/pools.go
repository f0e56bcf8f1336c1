// Package pools exercises pool assignment under the default heuristic.
package pools

type Node struct {
	next *Node
	val  int
}

type Tree struct {
	left, right *Tree
}

type Bag struct {
	items []*Node
}

// A linked list is one data structure.
func buildList(n int) *Node {
	var head *Node
	for i := 0; i < n; i++ {
		head = &Node{next: head, val: i} // want "allocation assigned to pool 1 \\(structures: 1\\)"
	}
	return head
}

// Self-recursion does not form a cycle.
func buildTree(depth int) *Tree {
	if depth == 0 {
		return nil
	}
	t := new(Tree) // want "allocation assigned to pool 2 \\(structures: 1\\)"
	t.left = buildTree(depth - 1)
	t.right = buildTree(depth - 1)
	return t
}

func counters() map[string]int {
	return make(map[string]int) // want "allocation assigned to pool 3 \\(structures: 1\\)"
}

// The bag, its backing array and its nodes are stored into one another, so
// they share a pool.
func fill(n int) *Bag {
	b := new(Bag)              // want "allocation assigned to pool 4 \\(structures: 3\\)"
	b.items = make([]*Node, n) // want "allocation assigned to pool 4 \\(structures: 3\\)"
	for i := range b.items {
		b.items[i] = &Node{val: i} // want "allocation assigned to pool 4 \\(structures: 3\\)"
	}
	return b
}
