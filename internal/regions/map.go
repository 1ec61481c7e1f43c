package regions

import (
	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/source"
	"lumen/internal/types"
)

// ElisionFailureInfo describes one input argument considered during failed
// output elision.
type ElisionFailureInfo struct {
	// Index is the argument position, receiver included.
	Index int
	// LifetimeCount is how many lifetimes the argument mentions.
	LifetimeCount int
	// HaveBoundRegions is set when some of them live under a nested binder.
	HaveBoundRegions bool
	Span             source.Span
}

// NamedRegionMap is the resolver's output for one item: a region for every
// lifetime use and an ordered bound-variable list for every binder node.
// Computed once per item and reused by all lowering of that item.
type NamedRegionMap struct {
	Owner     defs.DefID
	Defs      map[ast.LifetimeID]types.Region
	BoundVars map[ast.BinderID][]types.BoundVarKind
	// LateBound is the set of fn lifetime params classified late-bound.
	LateBound map[defs.DefID]bool
	// Tainted is set after any reported resolution error, letting later
	// phases suppress follow-on diagnostics for this item.
	Tainted bool
}

func newNamedRegionMap(owner defs.DefID) *NamedRegionMap {
	return &NamedRegionMap{
		Owner:     owner,
		Defs:      make(map[ast.LifetimeID]types.Region),
		BoundVars: make(map[ast.BinderID][]types.BoundVarKind),
		LateBound: make(map[defs.DefID]bool),
	}
}

// Region returns the resolved region of a lifetime use. Absent entries mean
// the lifetime is left to inference.
func (m *NamedRegionMap) Region(id ast.LifetimeID) (types.Region, bool) {
	r, ok := m.Defs[id]
	return r, ok
}

// Vars returns the ordered bound variables of a binder node.
func (m *NamedRegionMap) Vars(id ast.BinderID) []types.BoundVarKind {
	return m.BoundVars[id]
}

func (m *NamedRegionMap) record(id ast.LifetimeID, r types.Region) {
	if id.IsValid() {
		m.Defs[id] = r
	}
}

// clone copies the map for an opaque item inheriting its parent's results.
func (m *NamedRegionMap) clone(owner defs.DefID) *NamedRegionMap {
	out := newNamedRegionMap(owner)
	out.Tainted = m.Tainted
	for k, v := range m.Defs {
		out.Defs[k] = v
	}
	for k, v := range m.BoundVars {
		out.BoundVars[k] = v
	}
	for k, v := range m.LateBound {
		out.LateBound[k] = v
	}
	return out
}
