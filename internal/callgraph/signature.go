package callgraph

import "go/types"

// HasPointers reports whether a call through sig can carry pointer-derived
// data between caller and callee: the signature is variadic, or a receiver,
// parameter or result holds pointers.
func HasPointers(sig *types.Signature) bool {
	if sig == nil {
		return false
	}
	if sig.Variadic() {
		return true
	}
	if recv := sig.Recv(); recv != nil && CarriesPointers(recv.Type()) {
		return true
	}
	return tupleCarriesPointers(sig.Params()) || tupleCarriesPointers(sig.Results())
}

func tupleCarriesPointers(t *types.Tuple) bool {
	for i := 0; i < t.Len(); i++ {
		if CarriesPointers(t.At(i).Type()) {
			return true
		}
	}
	return false
}

// IsPointerLike reports whether values of t are represented as a pointer:
// pointers, unsafe.Pointer, slices, maps, channels, funcs and interfaces.
func IsPointerLike(t types.Type) bool {
	switch u := t.Underlying().(type) {
	case *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Signature, *types.Interface:
		return true
	case *types.Basic:
		return u.Kind() == types.UnsafePointer
	}
	return false
}

// CarriesPointers reports whether a value of t contains a pointer-like value,
// directly or inside struct fields, array elements or tuple members.
func CarriesPointers(t types.Type) bool {
	if t == nil {
		return false
	}
	if IsPointerLike(t) {
		return true
	}
	switch u := t.Underlying().(type) {
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if CarriesPointers(u.Field(i).Type()) {
				return true
			}
		}
	case *types.Array:
		return u.Len() > 0 && CarriesPointers(u.Elem())
	case *types.Tuple:
		return tupleCarriesPointers(u)
	}
	return false
}
