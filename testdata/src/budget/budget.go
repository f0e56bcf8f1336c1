// Package budget is analyzed with a budget of two pools.
package budget

func a() *int {
	return new(int) // want "allocation assigned to pool 1 \\(structures: 1\\)"
}

func b() *int {
	return new(int) // want "allocation assigned to pool 2 \\(structures: 4\\)"
}

func c() *int {
	return new(int) // want "allocation assigned to pool 2 \\(structures: 4\\)"
}

func d() *int {
	return new(int) // want "allocation assigned to pool 2 \\(structures: 4\\)"
}

func e() *int {
	return new(int) // want "allocation assigned to pool 2 \\(structures: 4\\)"
}
