package debug

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// Info contains collected debug information for one SCC region.
type Info struct {
	Region  string   // leader name
	Members []string // every function of the region, leader first
	Creates []PoolInfo
	Args    []int // pools received from callers
}

// PoolInfo contains information about a single pool.
type PoolInfo struct {
	ID         int
	Global     bool
	Homes      []string
	Structures int
	Sites      []SiteInfo
}

// SiteInfo contains information about an allocation site.
type SiteInfo struct {
	Pos  token.Pos
	Kind string
	Func string
}

// NewSiteInfo creates SiteInfo from an SSA allocation.
func NewSiteInfo(v ssa.Value) SiteInfo {
	info := SiteInfo{Pos: v.Pos()}
	if instr, ok := v.(ssa.Instruction); ok && instr.Parent() != nil {
		info.Func = instr.Parent().String()
	}
	switch v := v.(type) {
	case *ssa.Alloc:
		info.Kind = "new " + v.Comment
	case *ssa.MakeSlice:
		info.Kind = "make slice"
	case *ssa.MakeMap:
		info.Kind = "make map"
	case *ssa.MakeChan:
		info.Kind = "make chan"
	default:
		info.Kind = v.Name()
	}
	return info
}
