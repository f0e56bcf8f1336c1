// Package fix provides SuggestedFix generation for poolalloc diagnostics.
//
// The only fixable diagnostic is an unused ignore directive. The fix drops
// the directive comment; when the comment is alone on its line the whole
// line goes with it.
//
// # Example
//
//	// Before
//	func f() int {
//		//poolalloc:ignore
//		return 42
//	}
//
//	// After
//	func f() int {
//		return 42
//	}
package fix

import (
	"go/ast"
	"go/token"
	"os"

	"golang.org/x/tools/go/analysis"
)

// Generator generates SuggestedFix for directive diagnostics.
type Generator struct {
	fset     *token.FileSet
	files    map[*token.File]*ast.File // token.File -> ast.File mapping
	readFile func(string) ([]byte, error)
}

// New creates a new fix Generator.
func New(pass *analysis.Pass) *Generator {
	// Build token.File -> ast.File mapping
	files := make(map[*token.File]*ast.File)
	for _, f := range pass.Files {
		tf := pass.Fset.File(f.Pos())
		if tf != nil {
			files[tf] = f
		}
	}

	return &Generator{
		fset:     pass.Fset,
		files:    files,
		readFile: os.ReadFile,
	}
}

// RemoveDirective returns a fix deleting the comment starting at pos.
// Returns nil if no comment starts there.
func (g *Generator) RemoveDirective(pos token.Pos) []analysis.SuggestedFix {
	c := g.findComment(pos)
	if c == nil {
		return nil
	}

	edit := analysis.TextEdit{Pos: c.Pos(), End: c.End()}
	if start, end, ok := g.extendToLine(c); ok {
		edit.Pos, edit.End = start, end
	}
	return []analysis.SuggestedFix{{
		Message:   "Remove unused directive",
		TextEdits: []analysis.TextEdit{edit},
	}}
}

// =============================================================================
// Source Helper Methods
// =============================================================================

// findComment finds the comment starting at pos.
func (g *Generator) findComment(pos token.Pos) *ast.Comment {
	tf := g.fset.File(pos)
	if tf == nil {
		return nil
	}
	file := g.files[tf]
	if file == nil {
		return nil
	}
	for _, cg := range file.Comments {
		if cg.End() < pos {
			continue
		}
		for _, c := range cg.List {
			if c.Pos() == pos {
				return c
			}
		}
		if cg.Pos() > pos {
			break
		}
	}
	return nil
}

// extendToLine widens the range of c over the blanks around it. A comment
// alone on its line takes the line and its newline; a trailing comment
// takes the blanks before it.
func (g *Generator) extendToLine(c *ast.Comment) (start, end token.Pos, ok bool) {
	tf := g.fset.File(c.Pos())
	src, err := g.readFile(tf.Name())
	if err != nil {
		return token.NoPos, token.NoPos, false
	}
	from, to := tf.Offset(c.Pos()), tf.Offset(c.End())
	if to > len(src) || to > tf.Size() {
		return token.NoPos, token.NoPos, false
	}

	lead := from
	for lead > 0 && (src[lead-1] == ' ' || src[lead-1] == '\t') {
		lead--
	}
	alone := lead == 0 || src[lead-1] == '\n'
	if alone && to < len(src) && src[to] == '\n' {
		to++
	}
	return tf.Pos(lead), tf.Pos(to), true
}
