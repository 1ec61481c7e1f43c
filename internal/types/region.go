package types

import (
	"fmt"

	"lumen/internal/defs"
)

// DebruijnIndex counts binders between a bound-variable use and its binder.
// INNERMOST is 0.
type DebruijnIndex uint32

const Innermost DebruijnIndex = 0

func (d DebruijnIndex) Shifted(amount uint32) DebruijnIndex {
	return d + DebruijnIndex(amount)
}

type RegionKind uint8

const (
	// RegionError is the poison region produced after a reported diagnostic.
	RegionError RegionKind = iota
	// RegionStatic is 'static.
	RegionStatic
	// RegionEarly is an early-bound param, identified by flattened index.
	RegionEarly
	// RegionLate is a named late-bound var under a binder.
	RegionLate
	// RegionLateAnon is a fresh elided late-bound var.
	RegionLateAnon
	// RegionFree is a late-bound lifetime referenced from inside its
	// function's body.
	RegionFree
	// RegionInfer is the placeholder for an omitted lifetime left to the
	// inference engine.
	RegionInfer
)

// Region is a compact lifetime value. The populated fields depend on Kind:
// Early uses Index+Def, Late uses Depth+Index+Def, LateAnon uses Depth+Index,
// Free uses Scope+Def.
type Region struct {
	Kind  RegionKind
	Depth DebruijnIndex
	Index uint32
	Def   defs.DefID
	Scope defs.DefID
}

var (
	ReStatic = Region{Kind: RegionStatic}
	ReError  = Region{Kind: RegionError}
	ReInfer  = Region{Kind: RegionInfer}
)

func MakeEarlyRegion(index uint32, def defs.DefID) Region {
	return Region{Kind: RegionEarly, Index: index, Def: def}
}

func MakeLateRegion(depth DebruijnIndex, index uint32, def defs.DefID) Region {
	return Region{Kind: RegionLate, Depth: depth, Index: index, Def: def}
}

func MakeLateAnonRegion(depth DebruijnIndex, index uint32) Region {
	return Region{Kind: RegionLateAnon, Depth: depth, Index: index}
}

func MakeFreeRegion(scope, def defs.DefID) Region {
	return Region{Kind: RegionFree, Scope: scope, Def: def}
}

// IsBound reports whether the region is a de Bruijn variable.
func (r Region) IsBound() bool {
	return r.Kind == RegionLate || r.Kind == RegionLateAnon
}

func (r Region) IsError() bool { return r.Kind == RegionError }

// Shifted returns the region with its de Bruijn depth raised by amount.
// Non-bound regions pass through unchanged.
func (r Region) Shifted(amount uint32) Region {
	if !r.IsBound() {
		return r
	}
	r.Depth = r.Depth.Shifted(amount)
	return r
}

func (r Region) String() string {
	switch r.Kind {
	case RegionError:
		return "'{error}"
	case RegionStatic:
		return "'static"
	case RegionEarly:
		return fmt.Sprintf("'#%d", r.Index)
	case RegionLate:
		return fmt.Sprintf("'^%d.%d", r.Depth, r.Index)
	case RegionLateAnon:
		return fmt.Sprintf("'^%d.%d(anon)", r.Depth, r.Index)
	case RegionFree:
		return fmt.Sprintf("'free(%d)", r.Def)
	case RegionInfer:
		return "'_"
	}
	return "'{unknown}"
}
