package callgraph

import (
	"fmt"
	"io"
)

// Dump writes a human-readable rendering of the graph to w: one
// "CallGraph[caller] callee..." line per node, then the roots when the graph
// is collapsed. The format is for debugging and is not stable.
func (g *Graph) Dump(w io.Writer) error {
	for _, f := range g.Functions() {
		if _, err := fmt.Fprintf(w, "CallGraph[%s]", g.reg.Name(f)); err != nil {
			return err
		}
		for _, c := range g.Callees(f) {
			if _, err := fmt.Fprintf(w, " %s", g.reg.Name(c)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if !g.collapsed {
		return nil
	}

	if _, err := fmt.Fprint(w, "Roots:"); err != nil {
		return err
	}
	for _, r := range g.BuildRoots() {
		if _, err := fmt.Fprintf(w, " %s", g.reg.Name(r)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
