package callgraph_test

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/mpyw/poolalloc/internal/callgraph"
)

func param(t types.Type) *types.Var {
	return types.NewParam(token.NoPos, nil, "", t)
}

func sig(recv *types.Var, params, results []*types.Var, variadic bool) *types.Signature {
	return types.NewSignatureType(recv, nil, nil, types.NewTuple(params...), types.NewTuple(results...), variadic)
}

func TestHasPointers(t *testing.T) {
	t.Parallel()

	intT := types.Typ[types.Int]
	strT := types.Typ[types.String]
	ptrT := types.NewPointer(intT)
	plainStruct := types.NewStruct([]*types.Var{
		types.NewField(token.NoPos, nil, "n", intT, false),
	}, nil)
	ptrStruct := types.NewStruct([]*types.Var{
		types.NewField(token.NoPos, nil, "n", intT, false),
		types.NewField(token.NoPos, nil, "p", ptrT, false),
	}, nil)

	tests := []struct {
		name     string
		sig      *types.Signature
		expected bool
	}{
		{"nil signature", nil, false},
		{"no params", sig(nil, nil, nil, false), false},
		{"scalars only", sig(nil, []*types.Var{param(intT), param(strT)}, []*types.Var{param(intT)}, false), false},
		{"pointer param", sig(nil, []*types.Var{param(ptrT)}, nil, false), true},
		{"pointer result", sig(nil, nil, []*types.Var{param(ptrT)}, false), true},
		{"variadic", sig(nil, []*types.Var{param(types.NewSlice(intT))}, nil, true), true},
		{"slice param", sig(nil, []*types.Var{param(types.NewSlice(intT))}, nil, false), true},
		{"map result", sig(nil, nil, []*types.Var{param(types.NewMap(strT, intT))}, false), true},
		{"unsafe pointer", sig(nil, []*types.Var{param(types.Typ[types.UnsafePointer])}, nil, false), true},
		{"pointer receiver", sig(param(ptrT), nil, nil, false), true},
		{"scalar struct", sig(nil, []*types.Var{param(plainStruct)}, nil, false), false},
		{"struct with pointer", sig(nil, []*types.Var{param(ptrStruct)}, nil, false), true},
		{"array of pointers", sig(nil, []*types.Var{param(types.NewArray(ptrT, 2))}, nil, false), true},
		{"empty array of pointers", sig(nil, []*types.Var{param(types.NewArray(ptrT, 0))}, nil, false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := callgraph.HasPointers(tt.sig); got != tt.expected {
				t.Errorf("HasPointers() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRegistry_HasPointers(t *testing.T) {
	t.Parallel()

	reg := callgraph.NewRegistry()
	ptr := reg.Add(callgraph.FuncInfo{Name: "ptr", Signature: sig(nil, []*types.Var{param(types.NewPointer(types.Typ[types.Int]))}, nil, false)})
	scalar := reg.Add(callgraph.FuncInfo{Name: "scalar", Signature: sig(nil, []*types.Var{param(types.Typ[types.Int])}, nil, false)})
	bare := reg.Add(callgraph.FuncInfo{Name: "bare"})

	if !reg.HasPointers(ptr) {
		t.Error("HasPointers(ptr) = false")
	}
	if reg.HasPointers(scalar) {
		t.Error("HasPointers(scalar) = true")
	}
	if reg.HasPointers(bare) {
		t.Error("HasPointers(bare) = true")
	}
	if reg.HasPointers(callgraph.NoFunc) {
		t.Error("HasPointers(NoFunc) = true")
	}
}
