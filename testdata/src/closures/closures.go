// Package closures exercises allocations inside function literals.
package closures

type Item struct {
	n int
}

func run() *Item {
	mk := func() *Item {
		return &Item{} // want "allocation assigned to pool 2 \\(structures: 1\\)"
	}
	return mk()
}

func nested() int {
	outer := func() int {
		inner := func() *Item {
			return new(Item) // want "allocation assigned to pool 1 \\(structures: 1\\)"
		}
		return inner().n
	}
	return outer()
}
