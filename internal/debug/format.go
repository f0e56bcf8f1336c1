package debug

import (
	"fmt"
	"go/token"
	"strings"
)

// FormatRegion returns a formatted debug string for a region.
func FormatRegion(info *Info, fset *token.FileSet) string {
	if info == nil {
		return ""
	}

	var buf strings.Builder

	fmt.Fprintf(&buf, "Region: %s\n", info.Region)
	if len(info.Members) > 1 {
		fmt.Fprintf(&buf, "  Cycle: %s\n", strings.Join(info.Members, " → "))
	}

	if len(info.Creates) > 0 {
		fmt.Fprintf(&buf, "\n  Creates:\n")
		for _, p := range info.Creates {
			writePool(&buf, p, fset, "    ")
		}
	}

	if len(info.Args) > 0 {
		ids := make([]string, len(info.Args))
		for i, id := range info.Args {
			ids[i] = fmt.Sprintf("pool %d", id)
		}
		fmt.Fprintf(&buf, "\n  Receives: %s\n", strings.Join(ids, ", "))
	} else {
		fmt.Fprintf(&buf, "\n  Receives: (none)\n")
	}

	return buf.String()
}

// FormatPlan returns every pool of a plan followed by the regions that
// create or receive pools.
func FormatPlan(c *Collector, fset *token.FileSet) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Heuristic: %s\n", c.plan.Heuristic)
	fmt.Fprintf(&buf, "Pools: %d\n", c.plan.NumPools())
	for _, p := range c.plan.Pools {
		writePool(&buf, c.Pool(p.ID), fset, "  ")
	}
	for _, info := range c.Regions() {
		if len(info.Creates) == 0 && len(info.Args) == 0 {
			continue
		}
		buf.WriteString("\n")
		buf.WriteString(FormatRegion(info, fset))
	}
	return buf.String()
}

func writePool(buf *strings.Builder, p PoolInfo, fset *token.FileSet, indent string) {
	if p.Global {
		fmt.Fprintf(buf, "%sglobal pool (%d structures)\n", indent, p.Structures)
	} else {
		fmt.Fprintf(buf, "%spool %d (%d structures, home %s)\n", indent, p.ID, p.Structures, strings.Join(p.Homes, ", "))
	}
	for i, s := range p.Sites {
		branch := "├─"
		if i == len(p.Sites)-1 {
			branch = "└─"
		}
		pos := fset.Position(s.Pos)
		fmt.Fprintf(buf, "%s  %s line %d: %s in %s\n", indent, branch, pos.Line, s.Kind, s.Func)
	}
}
