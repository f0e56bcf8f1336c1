// Package unionfind provides a disjoint-set structure over dense integer
// elements whose classes carry a designated leader.
//
// Unlike a textbook union-find, the representative returned by Find is not
// the internal tree root but the leader chosen by the caller at Union time.
// This lets the SCC builder anchor a class at a defined function and the pool
// engine anchor a class at its smallest data structure, while the tree itself
// stays balanced by rank and flattened by path compression.
package unionfind

// Set is a disjoint-set forest. The zero value is an empty set.
type Set struct {
	parent []int
	rank   []uint8
	leader []int // valid at roots only
}

// New creates a Set holding the singleton classes 0..n-1.
func New(n int) *Set {
	s := &Set{}
	s.Grow(n)
	return s
}

// Grow extends the set so that it holds the elements 0..n-1.
// New elements start as singleton classes.
func (s *Set) Grow(n int) {
	for i := len(s.parent); i < n; i++ {
		s.parent = append(s.parent, i)
		s.rank = append(s.rank, 0)
		s.leader = append(s.leader, i)
	}
}

// Len returns the number of elements in the set.
func (s *Set) Len() int { return len(s.parent) }

// root returns the tree root of x, halving the path on the way.
func (s *Set) root(x int) int {
	for s.parent[x] != x {
		s.parent[x] = s.parent[s.parent[x]]
		x = s.parent[x]
	}
	return x
}

// Find returns the leader of x's class.
// Elements outside the set are their own leader.
func (s *Set) Find(x int) int {
	if x < 0 || x >= len(s.parent) {
		return x
	}
	return s.leader[s.root(x)]
}

// Same reports whether a and b belong to the same class.
func (s *Set) Same(a, b int) bool {
	return s.Find(a) == s.Find(b)
}

// Union merges the classes of leader and x. The merged class is led by the
// current leader of leader's class, whatever the ranks of the two trees.
// It returns that leader. Both elements must be in the set.
func (s *Set) Union(leader, x int) int {
	ra, rb := s.root(leader), s.root(x)
	lead := s.leader[ra]
	if ra == rb {
		return lead
	}
	switch {
	case s.rank[ra] < s.rank[rb]:
		ra, rb = rb, ra
	case s.rank[ra] == s.rank[rb]:
		s.rank[ra]++
	}
	s.parent[rb] = ra
	s.leader[ra] = lead
	return lead
}

// Classes returns the number of distinct classes.
func (s *Set) Classes() int {
	n := 0
	for i := range s.parent {
		if s.parent[i] == i {
			n++
		}
	}
	return n
}
