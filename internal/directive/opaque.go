package directive

import (
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// OpaqueSet is the set of functions marked //poolalloc:opaque.
type OpaqueSet struct {
	known map[token.Pos]struct{}
}

// BuildOpaqueSet collects the opaque function declarations of files.
// Functions are keyed by Name.Pos() because SSA's Function.Pos() returns the
// name position.
func BuildOpaqueSet(files []*ast.File) *OpaqueSet {
	s := &OpaqueSet{known: make(map[token.Pos]struct{})}
	for _, file := range files {
		for _, decl := range file.Decls {
			if fd, ok := decl.(*ast.FuncDecl); ok && docHas(fd.Doc, IsOpaqueDirective) {
				s.known[fd.Name.Pos()] = struct{}{}
			}
		}
	}
	return s
}

// Contains reports whether fn is opaque. Functions outside the files the set
// was built from are checked through their syntax, when SSA kept it.
func (s *OpaqueSet) Contains(fn *ssa.Function) bool {
	if fn == nil {
		return false
	}
	if s != nil {
		if _, ok := s.known[fn.Pos()]; ok && fn.Pos().IsValid() {
			return true
		}
	}
	fd, ok := fn.Syntax().(*ast.FuncDecl)
	return ok && docHas(fd.Doc, IsOpaqueDirective)
}

func docHas(doc *ast.CommentGroup, is func(string) bool) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if is(c.Text) {
			return true
		}
	}
	return false
}
