// Package ignore exercises ignore directives.
package ignore

type T struct {
	n int
}

func sameLine() map[string]int {
	return make(map[string]int) //poolalloc:ignore
}

func previousLine() []int {
	//poolalloc:ignore
	return make([]int, 0, 8)
}

//poolalloc:ignore
func wholeFunction() *T {
	return new(T)
}

func reported() *T {
	return new(T) // want "allocation assigned to pool 2 \\(structures: 1\\)"
}

func unused() int {
	//poolalloc:ignore // want "unused poolalloc:ignore directive"
	return 42
}
