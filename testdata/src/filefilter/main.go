// Package filefilter tests that generated files are never reported.
package filefilter

func normal() *int {
	return new(int) // want "allocation assigned to pool 2 \\(structures: 1\\)"
}
