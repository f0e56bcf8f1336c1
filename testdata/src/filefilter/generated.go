// Code generated by hand for tests. DO NOT EDIT.

package filefilter

func gen() *int {
	return new(int)
}
