// Package opaque exercises the opaque directive.
package opaque

type Buffer struct {
	data []byte
}

//poolalloc:opaque
func register(b *Buffer) {
	_ = b
}

func keep() *Buffer {
	return &Buffer{} // want "allocation assigned to pool 1 \\(structures: 1\\)"
}

func leak() {
	b := new(Buffer) // want "allocation assigned to global pool \\(structures: 1\\)"
	register(b)
}
