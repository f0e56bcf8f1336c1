// Command poolplan computes the pool plan of a whole module and prints it.
//
// Unlike the poolalloc analyzer, which sees one package at a time, poolplan
// loads every package of the module so call resolution can start from its
// main packages.
//
// Usage:
//
//	poolplan -dir ./myapp -algo vta -heuristic call-site -pools 8
//	poolplan -dir ./myapp -dump -dot callgraph.dot
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/mpyw/poolalloc/internal"
	"github.com/mpyw/poolalloc/internal/debug"
	"github.com/mpyw/poolalloc/internal/heuristic"
	"github.com/mpyw/poolalloc/internal/render"
	"github.com/mpyw/poolalloc/internal/ssagraph"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type config struct {
	dir       string
	algo      string
	heuristic heuristic.Heuristic
	maxPools  int
	dot       string
	dump      bool
}

func run(args []string, stdout, stderr io.Writer) int {
	var cfg config
	fs := flag.NewFlagSet("poolplan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.dir, "dir", ".", "module root directory")
	fs.StringVar(&cfg.algo, "algo", "cha", "call graph algorithm: static, cha, rta, vta or pta")
	fs.Var(&cfg.heuristic, "heuristic", "pool heuristic: one-per-ds, call-site, per-region or all-in-one")
	fs.IntVar(&cfg.maxPools, "pools", 0, "maximum number of pools (0 = unbounded)")
	fs.StringVar(&cfg.dot, "dot", "", "write the collapsed call graph in DOT format to this file")
	fs.BoolVar(&cfg.dump, "dump", false, "print the collapsed call graph before the plan")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := plan(cfg, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "poolplan: %v\n", err)
		return 1
	}
	return 0
}

func plan(cfg config, stdout, stderr io.Writer) error {
	modPath, err := modulePath(cfg.dir)
	if err != nil {
		return err
	}

	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.LoadAllSyntax,
		Dir:  cfg.dir,
	}, "./...")
	if err != nil {
		return fmt.Errorf("load packages: %w", err)
	}
	if n := packages.PrintErrors(pkgs); n > 0 {
		return fmt.Errorf("%d errors while loading %s", n, modPath)
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	var mains []*ssa.Package
	for _, p := range ssautil.MainPackages(ssaPkgs) {
		if p != nil {
			mains = append(mains, p)
		}
	}
	resolver, err := ssagraph.NewResolver(cfg.algo, prog, mains)
	if err != nil {
		return err
	}

	result := internal.Plan(moduleFuncs(prog, modPath), internal.Options{
		Resolver: resolver,
		Config: heuristic.Config{
			Heuristic: cfg.heuristic,
			MaxPools:  cfg.maxPools,
		},
	})

	if cfg.dump {
		if err := result.Program.Graph.Dump(stdout); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}

	collector := debug.NewCollector(result.Program, result.DS, result.Plan)
	fmt.Fprint(stdout, debug.FormatPlan(collector, prog.Fset))

	if cfg.dot != "" {
		dot := render.CallGraphDOT(result.Program.Graph, modPath)
		if err := os.WriteFile(cfg.dot, []byte(dot), 0o644); err != nil {
			return fmt.Errorf("write dot: %w", err)
		}
		fmt.Fprintf(stderr, "wrote %s (%d functions, %d cycles)\n",
			cfg.dot, len(result.Program.Functions()), len(result.Program.Graph.SCCs()))
	}
	return nil
}

// modulePath reads the module path from dir/go.mod.
func modulePath(dir string) (string, error) {
	name := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(name)
	if err != nil {
		return "", err
	}
	f, err := modfile.ParseLax(name, data, nil)
	if err != nil {
		return "", err
	}
	if f.Module == nil {
		return "", fmt.Errorf("%s: no module directive", name)
	}
	return f.Module.Mod.Path, nil
}

// moduleFuncs returns the source functions of the module's own packages.
// Dependencies enter the graph only as callees.
func moduleFuncs(prog *ssa.Program, modPath string) []*ssa.Function {
	var out []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Pkg == nil || fn.Synthetic != "" {
			continue
		}
		path := fn.Pkg.Pkg.Path()
		if path == modPath || strings.HasPrefix(path, modPath+"/") {
			out = append(out, fn)
		}
	}
	return out
}
