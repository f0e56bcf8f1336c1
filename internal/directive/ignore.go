package directive

import (
	"go/ast"
	"go/token"
	"sort"
)

// ignoreEntry tracks an ignore directive and whether it was used.
type ignoreEntry struct {
	pos  token.Pos // Position of the ignore comment
	used bool      // Whether this ignore suppressed a report
}

// IgnoreMap tracks line numbers that have ignore comments.
type IgnoreMap map[int]*ignoreEntry

// fileLevel is the IgnoreMap key of a file-level ignore.
const fileLevel = -1

// BuildIgnoreMap scans a file for ignore comments and returns a map.
//
// Example:
//
//	//poolalloc:ignore        // Line 5 → map[5] (line-level)
//	p := new(T)               // Line 6 → ignored (line 5 covers line 6)
//
//	// File-level ignore (in package doc):
//	// poolalloc:ignore       // → map[-1] (special marker)
//	package main              // All lines ignored
func BuildIgnoreMap(fset *token.FileSet, file *ast.File) IgnoreMap {
	m := make(IgnoreMap)

	// File-level ignores are always considered "used".
	if docHas(file.Doc, IsIgnoreDirective) {
		m[fileLevel] = &ignoreEntry{pos: file.Doc.Pos(), used: true}
	}

	for _, cg := range file.Comments {
		if cg == file.Doc {
			continue
		}
		for _, c := range cg.List {
			if IsIgnoreDirective(c.Text) {
				m[fset.Position(c.Pos()).Line] = &ignoreEntry{pos: c.Pos()}
			}
		}
	}
	return m
}

// ShouldIgnore returns true if the given line should be ignored: the file is
// ignored as a whole, or the same or previous line holds an ignore comment.
// The matching entry is marked as used.
func (m IgnoreMap) ShouldIgnore(line int) bool {
	for _, l := range []int{fileLevel, line, line - 1} {
		if entry, ok := m[l]; ok {
			entry.used = true
			return true
		}
	}
	return false
}

// GetUnusedIgnores returns the positions of ignore directives that were not
// used, in source order.
func (m IgnoreMap) GetUnusedIgnores() []token.Pos {
	var unused []token.Pos
	for line, entry := range m {
		if line == fileLevel || entry.used {
			continue
		}
		unused = append(unused, entry.pos)
	}
	sort.Slice(unused, func(i, j int) bool { return unused[i] < unused[j] })
	return unused
}

// MarkUsed marks the ignore directive at the given line as used.
func (m IgnoreMap) MarkUsed(line int) {
	if entry, ok := m[line]; ok {
		entry.used = true
	}
}

// FunctionIgnoreEntry represents a function-level ignore directive.
type FunctionIgnoreEntry struct {
	DirectiveLine int // Line number of the ignore directive (for marking as used)
}

// BuildFunctionIgnoreSet builds the set of functions whose allocations are
// all ignored, keyed by Name.Pos() to match SSA's fn.Pos().
func BuildFunctionIgnoreSet(fset *token.FileSet, file *ast.File) map[token.Pos]FunctionIgnoreEntry {
	result := make(map[token.Pos]FunctionIgnoreEntry)
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Doc == nil {
			continue
		}
		for _, c := range fd.Doc.List {
			if IsIgnoreDirective(c.Text) {
				result[fd.Name.Pos()] = FunctionIgnoreEntry{
					DirectiveLine: fset.Position(c.Pos()).Line,
				}
				break
			}
		}
	}
	return result
}
