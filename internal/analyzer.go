// Package internal provides the SSA-based pool allocation pipeline.
//
// # Architecture
//
// This package serves as the bridge between the public analyzer and the
// analysis packages:
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│                         Analysis Flow                                   │
//	│                                                                         │
//	│   analyzer.go (public)                                                  │
//	│        │                                                                │
//	│        ▼                                                                │
//	│   internal/analyzer.go   ◀── You are here                               │
//	│   ┌─────────────────────────────────────────────────────────────────┐   │
//	│   │  RunSSA()                                                       │   │
//	│   │    │                                                            │   │
//	│   │    ├── Plan(): call graph → SCCs → roots → DSA → heuristic      │   │
//	│   │    ├── Report recursive cycles                                  │   │
//	│   │    ├── Report allocation pools (unless ignored)                 │   │
//	│   │    └── Report unused ignore directives (with removal fix)       │   │
//	│   └─────────────────────────────────────────────────────────────────┘   │
//	└─────────────────────────────────────────────────────────────────────────┘
package internal

import (
	"fmt"
	"go/token"
	"os"
	"regexp"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"github.com/mpyw/poolalloc/internal/debug"
	"github.com/mpyw/poolalloc/internal/directive"
	"github.com/mpyw/poolalloc/internal/dsa"
	"github.com/mpyw/poolalloc/internal/fix"
	"github.com/mpyw/poolalloc/internal/heuristic"
)

// Directives groups the per-file directive state of one pass.
type Directives struct {
	IgnoreMaps  map[string]directive.IgnoreMap
	FuncIgnores map[string]map[token.Pos]directive.FunctionIgnoreEntry
	Opaque      *directive.OpaqueSet
	SkipFiles   map[string]bool
}

// =============================================================================
// Entry Point
// =============================================================================

// RunSSA plans the pools of the package and reports them.
//
// Processing flow:
//  1. Run the pipeline over every source function of the package
//  2. Report each SCC with more than one function at its leader
//  3. Report each heap allocation with its pool (unless suppressed)
//  4. Report unused ignore directives
func RunSSA(
	pass *analysis.Pass,
	ssaInfo *buildssa.SSA,
	dirs Directives,
	opts Options,
	debugFilter string,
) *Result {
	var debugFilterRegex *regexp.Regexp
	if debugFilter != "" {
		var err error
		debugFilterRegex, err = regexp.Compile(debugFilter)
		if err != nil {
			// Report regex error but continue analysis without debug mode
			pass.Reportf(token.NoPos, "invalid debug filter regex: %v", err)
			debugFilterRegex = nil
		}
	}

	if opts.Opaque == nil {
		opts.Opaque = dirs.Opaque.Contains
	}
	result := Plan(ssaInfo.SrcFuncs, opts)

	chk := &checker{
		pass:     pass,
		dirs:     dirs,
		result:   result,
		reported: make(map[token.Pos]bool),
	}
	chk.reportCycles()
	// SrcFuncs already lists anonymous functions after their parents.
	for _, fn := range ssaInfo.SrcFuncs {
		chk.checkFunction(fn)
	}

	if debugFilterRegex != nil {
		collector := debug.NewCollector(result.Program, result.DS, result.Plan)
		for _, fn := range ssaInfo.SrcFuncs {
			if !debugFilterRegex.MatchString(fn.String()) {
				continue
			}
			fmt.Fprintf(os.Stderr, "\n=== Debug output for %s ===\n", fn.String())
			fmt.Fprint(os.Stderr, debug.FormatRegion(collector.Region(fn), pass.Fset))
		}
	}

	// Report unused ignore directives
	fixer := fix.New(pass)
	for _, ignoreMap := range dirs.IgnoreMaps {
		if ignoreMap == nil {
			continue
		}
		for _, pos := range ignoreMap.GetUnusedIgnores() {
			pass.Report(analysis.Diagnostic{
				Pos:            pos,
				Message:        "unused poolalloc:ignore directive",
				SuggestedFixes: fixer.RemoveDirective(pos),
			})
		}
	}
	return result
}

// =============================================================================
// Checker
// =============================================================================

// checker reports the plan of one package.
//
// It ensures:
//   - Diagnostics at the same position are only reported once
//   - Function-level and line-level ignore directives suppress reports
type checker struct {
	pass     *analysis.Pass
	dirs     Directives
	result   *Result
	reported map[token.Pos]bool
}

// reportCycles reports every collapsed SCC whose leader belongs to this
// package.
func (c *checker) reportCycles() {
	prog := c.result.Program
	for _, scc := range prog.Graph.SCCs() {
		leader := prog.Func(scc[0])
		if leader == nil || leader.Pkg == nil || leader.Pkg.Pkg != c.pass.Pkg {
			continue
		}
		c.report(leader.Pos(), fmt.Sprintf("recursive cycle collapsed into %s (%d functions)", leader.Name(), len(scc)))
	}
}

// checkFunction reports the pool of every allocation site of fn.
func (c *checker) checkFunction(fn *ssa.Function) {
	pos := fn.Pos()
	if !pos.IsValid() {
		return
	}
	filename := c.pass.Fset.Position(pos).Filename
	if c.dirs.SkipFiles[filename] {
		return
	}

	// Anonymous functions share the ignore state of their enclosing declaration.
	decl := fn
	for decl.Parent() != nil {
		decl = decl.Parent()
	}
	if entry, ignored := c.dirs.FuncIgnores[filename][decl.Pos()]; ignored {
		if ignoreMap := c.dirs.IgnoreMaps[filename]; ignoreMap != nil {
			ignoreMap.MarkUsed(entry.DirectiveLine)
		}
		return
	}

	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			v, ok := instr.(ssa.Value)
			if !ok || !dsa.IsAllocSite(v) {
				continue
			}
			pool, ok := c.result.PoolOf(v)
			if !ok {
				continue
			}
			c.report(v.Pos(), allocationMessage(pool))
		}
	}
}

func allocationMessage(p heuristic.PoolInfo) string {
	if p.Global {
		return fmt.Sprintf("allocation assigned to global pool (structures: %d)", len(p.Members))
	}
	return fmt.Sprintf("allocation assigned to pool %d (structures: %d)", p.ID, len(p.Members))
}

// report reports a diagnostic if not ignored or already reported.
func (c *checker) report(pos token.Pos, message string) {
	if !pos.IsValid() || c.reported[pos] {
		return
	}
	c.reported[pos] = true

	filename := c.pass.Fset.Position(pos).Filename
	if c.dirs.SkipFiles[filename] {
		return
	}
	line := c.pass.Fset.Position(pos).Line
	if ignoreMap := c.dirs.IgnoreMaps[filename]; ignoreMap != nil && ignoreMap.ShouldIgnore(line) {
		return // Suppressed by ignore directive
	}

	c.pass.Reportf(pos, "%s", message)
}
