package debug_test

import (
	"go/token"
	"strings"
	"testing"

	"github.com/mpyw/poolalloc/internal/debug"
)

func TestFormatRegion(t *testing.T) {
	t.Parallel()

	fset := token.NewFileSet()
	f := fset.AddFile("p.go", -1, 100)
	f.SetLines([]int{0, 10, 20, 30})

	info := &debug.Info{
		Region:  "p.even",
		Members: []string{"p.even", "p.odd"},
		Creates: []debug.PoolInfo{{
			ID:         1,
			Homes:      []string{"p.even"},
			Structures: 2,
			Sites: []debug.SiteInfo{
				{Pos: f.Pos(12), Kind: "new complit", Func: "p.even"},
				{Pos: f.Pos(25), Kind: "make map", Func: "p.odd"},
			},
		}},
		Args: []int{2, 3},
	}

	want := strings.Join([]string{
		"Region: p.even",
		"  Cycle: p.even → p.odd",
		"",
		"  Creates:",
		"    pool 1 (2 structures, home p.even)",
		"      ├─ line 2: new complit in p.even",
		"      └─ line 3: make map in p.odd",
		"",
		"  Receives: pool 2, pool 3",
		"",
	}, "\n")
	if got := debug.FormatRegion(info, fset); got != want {
		t.Errorf("FormatRegion() =\n%s\nwant:\n%s", got, want)
	}
	if debug.FormatRegion(nil, fset) != "" {
		t.Error("FormatRegion(nil) should be empty")
	}
}

func TestFormatRegion_NoPools(t *testing.T) {
	t.Parallel()

	got := debug.FormatRegion(&debug.Info{Region: "p.leaf", Members: []string{"p.leaf"}}, token.NewFileSet())
	want := "Region: p.leaf\n\n  Receives: (none)\n"
	if got != want {
		t.Errorf("FormatRegion() = %q, want %q", got, want)
	}
}
