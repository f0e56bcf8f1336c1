// Package allinone is analyzed with the all-in-one heuristic.
package allinone

type Point struct {
	x, y int
}

func origin() *Point {
	return &Point{} // want "allocation assigned to pool 1 \\(structures: 2\\)"
}

func grid(n int) [][]Point {
	return make([][]Point, n) // want "allocation assigned to pool 1 \\(structures: 2\\)"
}
