// Package heuristic decides which data structures share a memory pool.
//
// The engine works on the collapsed call DAG and an externally supplied
// description of data structures (DS) and of the escapes between them. It
// starts from one pool per DS, merges pools as escapes demand, routes
// everything reachable from opaque external code into one catch-all global
// pool, and finally collapses pools until a configured budget is met.
//
// # Determinism
//
// Every tie-break uses a total order over stable identities: DS ids, pool
// leader ids and callgraph handles. Map iteration order never leaks into
// the plan.
package heuristic

import (
	"errors"
	"fmt"

	"github.com/mpyw/poolalloc/internal/callgraph"
)

// ErrUnknownHeuristic is returned by ParseHeuristic for unsupported names.
var ErrUnknownHeuristic = errors.New("unknown pool heuristic")

// Heuristic selects the pool merging policy.
type Heuristic int

const (
	// OnePoolPerDS gives each data structure its own pool and merges pools
	// only when one structure is stored into another.
	OnePoolPerDS Heuristic = iota
	// CallSitePools also merges structures that cross the same call site.
	CallSitePools
	// AllHeapNodesSamePool puts every structure owned by one SCC region in
	// that region's pool.
	AllHeapNodesSamePool
	// AllNodesSamePool puts every structure in a single pool.
	AllNodesSamePool
)

var heuristicNames = [...]string{
	OnePoolPerDS:         "one-per-ds",
	CallSitePools:        "call-site",
	AllHeapNodesSamePool: "per-region",
	AllNodesSamePool:     "all-in-one",
}

// String returns the flag name of h.
func (h Heuristic) String() string {
	if h < 0 || int(h) >= len(heuristicNames) {
		return fmt.Sprintf("Heuristic(%d)", int(h))
	}
	return heuristicNames[h]
}

// ParseHeuristic parses a flag name produced by String.
func ParseHeuristic(name string) (Heuristic, error) {
	for h, n := range heuristicNames {
		if n == name {
			return Heuristic(h), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHeuristic, name)
}

// Set implements flag.Value.
func (h *Heuristic) Set(name string) error {
	v, err := ParseHeuristic(name)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Config is passed explicitly to Run.
type Config struct {
	Heuristic Heuristic
	// MaxPools bounds the number of distinct pools, the global pool
	// included. Zero or less means unbounded.
	MaxPools int
}

// DS identifies a data structure. Ids are dense and their order is the
// stable discovery order of the upstream analysis.
type DS int

// EscapeKind tells how an escape was observed.
type EscapeKind int

const (
	// EscapeStore: From was stored into To.
	EscapeStore EscapeKind = iota
	// EscapeCall: From and To crossed the same call boundary.
	EscapeCall
)

func (k EscapeKind) String() string {
	switch k {
	case EscapeStore:
		return "store"
	case EscapeCall:
		return "call"
	}
	return fmt.Sprintf("EscapeKind(%d)", int(k))
}

// Escape records that From became reachable from To's scope.
type Escape struct {
	From, To DS
	Kind     EscapeKind
	// Region is the function where the escape was observed. It is
	// resolved to its SCC leader by the engine.
	Region callgraph.Func
}

// Structure describes one data structure.
type Structure struct {
	ID DS
	// Owners are the functions allocating the structure.
	Owners []callgraph.Func
	// Uncontrolled marks structures reachable from opaque external code.
	Uncontrolled bool
}

// Input is everything the engine consumes.
type Input struct {
	// Graph must be collapsed.
	Graph      *callgraph.Graph
	Structures []Structure
	Escapes    []Escape
	// Live lists, per function, the structures referenced there.
	Live map[callgraph.Func][]DS
}
