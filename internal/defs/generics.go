package defs

import "lumen/internal/source"

type ParamKind uint8

const (
	ParamLifetime ParamKind = iota
	ParamType
	ParamConst
)

func (k ParamKind) String() string {
	switch k {
	case ParamLifetime:
		return "lifetime"
	case ParamType:
		return "type"
	case ParamConst:
		return "const"
	}
	return "unknown"
}

// GenericParamDef describes one declared generic parameter.
// Index is the position in the flattened parent+own parameter list.
type GenericParamDef struct {
	ID         DefID
	Name       source.StringID
	Index      uint32
	Kind       ParamKind
	HasDefault bool
	// Synthetic marks params desugared from anonymous impl-trait arguments.
	Synthetic bool
}

// Generics is the declared parameter list of one definition.
// Own params are ordered: Self (if any), lifetimes, then types and consts
// in declaration order.
type Generics struct {
	Parent      DefID
	ParentCount uint32
	Params      []GenericParamDef
	HasSelf     bool
}

// Count returns the total parameter count including the parent's.
func (g *Generics) Count() uint32 {
	return g.ParentCount + uint32(len(g.Params))
}

func (g *Generics) OwnCount() uint32 {
	return uint32(len(g.Params))
}

// OwnCounts splits the own params by kind.
func (g *Generics) OwnCounts() (lifetimes, types, consts uint32) {
	for i := range g.Params {
		switch g.Params[i].Kind {
		case ParamLifetime:
			lifetimes++
		case ParamType:
			types++
		case ParamConst:
			consts++
		}
	}
	return
}

// OwnDefaults counts own type/const params that carry a default.
func (g *Generics) OwnDefaults() uint32 {
	var n uint32
	for i := range g.Params {
		if g.Params[i].HasDefault {
			n++
		}
	}
	return n
}

// ParamAt returns the own param occupying flattened index idx, or nil when
// idx belongs to the parent.
func (g *Generics) ParamAt(idx uint32) *GenericParamDef {
	if idx < g.ParentCount {
		return nil
	}
	own := idx - g.ParentCount
	if own >= uint32(len(g.Params)) {
		return nil
	}
	return &g.Params[own]
}

// ParamByDef finds an own param by its DefID.
func (g *Generics) ParamByDef(id DefID) *GenericParamDef {
	for i := range g.Params {
		if g.Params[i].ID == id {
			return &g.Params[i]
		}
	}
	return nil
}
