// Package poolalloc provides a static analysis that plans region-based
// memory pools for Go programs.
//
// The analyzer builds the call graph of a package, collapses recursive
// cycles into single regions, discovers the data structures built by heap
// allocations and decides which of them share a pool. Every allocation is
// reported with its pool so the plan can be reviewed in the editor; the full
// plan is exposed as the analyzer result for downstream rewriters.
package poolalloc

import (
	"fmt"
	"go/ast"
	"go/token"
	"reflect"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"

	"github.com/mpyw/poolalloc/internal"
	"github.com/mpyw/poolalloc/internal/directive"
	"github.com/mpyw/poolalloc/internal/heuristic"
	"github.com/mpyw/poolalloc/internal/ssagraph"
)

// Result is the pool plan of one package.
type Result = internal.Result

// Options configures an analyzer created with NewAnalyzer. The same values
// are exposed as flags.
type Options struct {
	// Heuristic selects how data structures are grouped into pools.
	Heuristic heuristic.Heuristic
	// MaxPools bounds the number of pools per package; 0 means unbounded.
	MaxPools int
	// CallGraph is the algorithm resolving dynamic calls: static, cha or vta.
	CallGraph string
	// Debug is a regexp of function names whose region is dumped to stderr.
	Debug string
}

// Analyzer is the main analyzer for poolalloc.
var Analyzer = NewAnalyzer(Options{CallGraph: "cha"})

// NewAnalyzer creates an analyzer with the given defaults.
func NewAnalyzer(opts Options) *analysis.Analyzer {
	a := &analysis.Analyzer{
		Name:       "poolalloc",
		Doc:        "plans region-based memory pools and reports the pool of each heap allocation",
		Requires:   []*analysis.Analyzer{buildssa.Analyzer},
		ResultType: reflect.TypeOf((*Result)(nil)),
	}
	a.Flags.Var(&opts.Heuristic, "heuristic", "pool heuristic: one-per-ds, call-site, per-region or all-in-one")
	a.Flags.IntVar(&opts.MaxPools, "pools", opts.MaxPools, "maximum number of pools per package (0 = unbounded)")
	a.Flags.StringVar(&opts.CallGraph, "callgraph", opts.CallGraph, "call graph algorithm: static, cha or vta")
	a.Flags.StringVar(&opts.Debug, "debug", opts.Debug, "regexp of functions whose region is dumped to stderr")
	a.Run = func(pass *analysis.Pass) (any, error) {
		return run(pass, &opts)
	}
	return a
}

func run(pass *analysis.Pass, opts *Options) (any, error) {
	ssaInfo := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	resolver, err := newResolver(opts.CallGraph, ssaInfo)
	if err != nil {
		return nil, fmt.Errorf("poolalloc: %w", err)
	}

	// Build set of files to skip
	skipFiles := buildSkipFiles(pass)

	// Build ignore maps for each file (excluding skipped files)
	dirs := internal.Directives{
		IgnoreMaps:  make(map[string]directive.IgnoreMap),
		FuncIgnores: make(map[string]map[token.Pos]directive.FunctionIgnoreEntry),
		Opaque:      directive.BuildOpaqueSet(pass.Files),
		SkipFiles:   skipFiles,
	}
	for _, file := range pass.Files {
		filename := pass.Fset.Position(file.Pos()).Filename
		if skipFiles[filename] {
			continue
		}
		dirs.IgnoreMaps[filename] = directive.BuildIgnoreMap(pass.Fset, file)
		dirs.FuncIgnores[filename] = directive.BuildFunctionIgnoreSet(pass.Fset, file)
	}

	result := internal.RunSSA(pass, ssaInfo, dirs, internal.Options{
		Resolver: resolver,
		Config: heuristic.Config{
			Heuristic: opts.Heuristic,
			MaxPools:  opts.MaxPools,
		},
	}, opts.Debug)
	return result, nil
}

// newResolver picks the call resolution for a single package. Algorithms
// that need a main package are rejected.
func newResolver(algo string, ssaInfo *buildssa.SSA) (ssagraph.Resolver, error) {
	switch algo {
	case "", "static":
		return ssagraph.StaticResolver{}, nil
	case "cha", "vta":
		return ssagraph.NewResolver(algo, ssaInfo.Pkg.Prog, nil)
	}
	return nil, fmt.Errorf("%w: %q (want static, cha or vta)", ssagraph.ErrUnknownAlgorithm, algo)
}

// buildSkipFiles creates a set of filenames to skip.
// Generated files are always skipped.
// Test files can be skipped via the driver's built-in -test flag.
func buildSkipFiles(pass *analysis.Pass) map[string]bool {
	skipFiles := make(map[string]bool)

	for _, file := range pass.Files {
		filename := pass.Fset.Position(file.Pos()).Filename

		// Always skip generated files
		if ast.IsGenerated(file) {
			skipFiles[filename] = true
		}
	}

	return skipFiles
}
