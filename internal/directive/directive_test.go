package directive_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/mpyw/poolalloc/internal/directive"
)

func TestIsIgnoreDirective(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"exact match", "//poolalloc:ignore", true},
		{"with space", "// poolalloc:ignore", true},
		{"with extra spaces", "//  poolalloc:ignore", true},
		{"with comment", "//poolalloc:ignore // reason", true},
		{"longer word", "//poolalloc:ignored", false},
		{"wrong directive", "//poolalloc:opaque", false},
		{"random comment", "// some comment", false},
		{"empty", "//", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := directive.IsIgnoreDirective(tt.text); got != tt.expected {
				t.Errorf("IsIgnoreDirective(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestIsOpaqueDirective(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"exact match", "//poolalloc:opaque", true},
		{"with space", "// poolalloc:opaque", true},
		{"wrong directive", "//poolalloc:ignore", false},
		{"random comment", "// opaque", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := directive.IsOpaqueDirective(tt.text); got != tt.expected {
				t.Errorf("IsOpaqueDirective(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestIgnoreMapShouldIgnore(t *testing.T) {
	t.Parallel()

	t.Run("same line", func(t *testing.T) {
		t.Parallel()

		m := make(directive.IgnoreMap)
		m.Add(10, token.Pos(100))
		if !m.ShouldIgnore(10) {
			t.Error("ShouldIgnore(10) should return true (same line)")
		}
	})

	t.Run("next line", func(t *testing.T) {
		t.Parallel()

		m := make(directive.IgnoreMap)
		m.Add(10, token.Pos(100))
		if !m.ShouldIgnore(11) {
			t.Error("ShouldIgnore(11) should return true (previous line)")
		}
		if m.ShouldIgnore(12) {
			t.Error("ShouldIgnore(12) should return false")
		}
	})

	t.Run("file level", func(t *testing.T) {
		t.Parallel()

		m := make(directive.IgnoreMap)
		m.Add(-1, token.Pos(1))
		if !m.ShouldIgnore(500) {
			t.Error("file-level ignore should cover every line")
		}
		if got := m.GetUnusedIgnores(); len(got) != 0 {
			t.Errorf("file-level ignore reported unused: %v", got)
		}
	})
}

func TestIgnoreMapUnused(t *testing.T) {
	t.Parallel()

	m := make(directive.IgnoreMap)
	m.Add(30, token.Pos(300))
	m.Add(10, token.Pos(100))
	m.Add(20, token.Pos(200))

	m.ShouldIgnore(21)
	m.MarkUsed(30)

	if got, want := m.GetUnusedIgnores(), []token.Pos{100}; !reflect.DeepEqual(got, want) {
		t.Errorf("GetUnusedIgnores() = %v, want %v", got, want)
	}
}

const src = `// Package p has directives.
package p

type T struct{ n int }

func line() *T {
	//poolalloc:ignore
	return new(T)
}

func same() *T {
	return new(T) //poolalloc:ignore
}

//poolalloc:ignore
func whole() *T { return new(T) }

//poolalloc:opaque
func keep(t *T) {}

// poolalloc:opaque
func (t *T) Keep() {}

func plain(t *T) {}
`

func parse(t *testing.T, src string) (*token.FileSet, *ast.File) {
	t.Helper()

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	return fset, f
}

func TestBuildIgnoreMap(t *testing.T) {
	t.Parallel()

	fset, f := parse(t, src)
	m := directive.BuildIgnoreMap(fset, f)

	// line (7), same (12) and whole (15).
	if len(m) != 3 {
		t.Fatalf("entries = %d, want 3", len(m))
	}
	if !m.ShouldIgnore(8) {
		t.Error("line after directive not ignored")
	}
	if !m.ShouldIgnore(12) {
		t.Error("same-line directive not honored")
	}
	if got := m.GetUnusedIgnores(); len(got) != 1 || fset.Position(got[0]).Line != 15 {
		t.Errorf("unused = %v, want the function directive", got)
	}

	funcs := directive.BuildFunctionIgnoreSet(fset, f)
	if len(funcs) != 1 {
		t.Fatalf("function ignores = %v", funcs)
	}
	for _, e := range funcs {
		m.MarkUsed(e.DirectiveLine)
	}
	if got := m.GetUnusedIgnores(); len(got) != 0 {
		t.Errorf("unused after MarkUsed = %v", got)
	}
}

func TestBuildIgnoreMap_FileLevel(t *testing.T) {
	t.Parallel()

	fset, f := parse(t, "//poolalloc:ignore\npackage p\n\nvar x = new(int)\n")
	m := directive.BuildIgnoreMap(fset, f)
	if !m.ShouldIgnore(4) {
		t.Error("file-level ignore not applied")
	}
	if got := m.GetUnusedIgnores(); len(got) != 0 {
		t.Errorf("unused = %v", got)
	}
}

func TestOpaqueSet(t *testing.T) {
	t.Parallel()

	fset, f := parse(t, src)
	set := directive.BuildOpaqueSet([]*ast.File{f})

	pkg, _, err := ssautil.BuildPackage(&types.Config{Importer: importer.Default()},
		fset, types.NewPackage("p", ""), []*ast.File{f}, ssa.BuilderMode(0))
	if err != nil {
		t.Fatal(err)
	}
	named := pkg.Pkg.Scope().Lookup("T").Type().(*types.Named)
	method := pkg.Prog.FuncValue(named.Method(0))

	tests := []struct {
		fn   *ssa.Function
		want bool
	}{
		{pkg.Func("keep"), true},
		{method, true},
		{pkg.Func("plain"), false},
		{pkg.Func("whole"), false},
	}
	for _, tt := range tests {
		if got := set.Contains(tt.fn); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.fn, got, tt.want)
		}
	}

	// Without the prebuilt set the syntax is consulted.
	var empty *directive.OpaqueSet
	if !empty.Contains(pkg.Func("keep")) {
		t.Error("nil set should fall back to syntax")
	}
	if empty.Contains(nil) {
		t.Error("Contains(nil) = true")
	}
}
