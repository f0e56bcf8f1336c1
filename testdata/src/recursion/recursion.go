// Package recursion exercises SCC collapsing.
package recursion

func even(n int) bool { // want "recursive cycle collapsed into even \\(2 functions\\)"
	if n == 0 {
		return true
	}
	return odd(n - 1)
}

func odd(n int) bool {
	if n == 0 {
		return false
	}
	return even(n - 1)
}

func f(n int) { // want "recursive cycle collapsed into f \\(3 functions\\)"
	g(n)
}

func g(n int) {
	h(n)
}

func h(n int) {
	if n > 0 {
		f(n - 1)
	}
}

func r() {
	f(3)
}

// Self-recursion is not reported.
func fact(n int) int {
	if n <= 1 {
		return 1
	}
	return n * fact(n-1)
}
