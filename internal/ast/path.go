package ast

import (
	"lumen/internal/defs"
	"lumen/internal/source"
)

// ResKind is the outcome class of name resolution for a path's base segment.
// Type-relative tails (the `Item` of `Ty::Item`) stay unresolved here and are
// handled during lowering.
type ResKind uint8

const (
	ResErr ResKind = iota
	ResDef
	ResPrimTy
	ResSelfTyParam
	ResSelfTyAlias
	ResTypeRelative
)

type Res struct {
	Kind    ResKind
	DefKind defs.DefKind
	Def     defs.DefID
	Prim    PrimKind
	// ForbidGeneric is set for `Self` aliases that must not take args.
	ForbidGeneric bool
	// IsTraitImpl marks a `Self` alias inside a trait impl.
	IsTraitImpl bool
}

func (r Res) IsErr() bool { return r.Kind == ResErr }

type PrimKind uint8

const (
	PrimBool PrimKind = iota
	PrimChar
	PrimStr
	PrimInt
	PrimUint
	PrimFloat
)

// GenericArgKind tags one explicit generic argument.
type GenericArgKind uint8

const (
	ArgLifetime GenericArgKind = iota
	ArgType
	ArgConst
	ArgInfer
)

type GenericArg struct {
	Kind     GenericArgKind
	Lifetime LifetimeID
	Type     TypeID
	Const    ConstArgID
	Span     source.Span
}

// AssocBindingKind distinguishes `Item = T` from `Item: Bound`.
type AssocBindingKind uint8

const (
	BindingEquality AssocBindingKind = iota
	BindingConstraint
)

type AssocBinding struct {
	Kind   AssocBindingKind
	Name   source.StringID
	Type   TypeID
	Bounds []Bound
	Span   source.Span
}

// GenericArgs is the bracketed argument list of one path segment.
type GenericArgs struct {
	Args     []GenericArg
	Bindings []AssocBinding
	Span     source.Span
	// Parenthesized marks Fn-sugar `F(A, B) -> C`.
	Parenthesized bool
}

func (g *GenericArgs) HasArgs() bool {
	return g != nil && (len(g.Args) > 0 || len(g.Bindings) > 0)
}

type PathSegment struct {
	Name source.StringID
	Span source.Span
	Args *GenericArgs
	// InferArgs is set when the segment has no bracket and its type/const
	// params may be inferred.
	InferArgs bool
}

// Path is a (possibly qualified) path in type position. For `<T as Tr>::X`
// SelfTy holds T and the segments spell Tr::X.
type Path struct {
	SelfTy   TypeID
	Segments []PathSegment
	Res      Res
	Span     source.Span
}

func (p *Path) Base() *PathSegment {
	if len(p.Segments) == 0 {
		return nil
	}
	return &p.Segments[0]
}

func (p *Path) Last() *PathSegment {
	if len(p.Segments) == 0 {
		return nil
	}
	return &p.Segments[len(p.Segments)-1]
}

type Paths struct {
	Arena *Arena[Path]
}

func NewPaths(capHint uint) *Paths {
	return &Paths{Arena: NewArena[Path](capHint)}
}

func (p *Paths) New(path Path) PathID {
	return PathID(p.Arena.Allocate(path))
}

func (p *Paths) Get(id PathID) *Path {
	return p.Arena.Get(uint32(id))
}

// ConstArgKind tags a const generic argument.
type ConstArgKind uint8

const (
	ConstArgParam ConstArgKind = iota
	ConstArgAnon
	ConstArgInfer
)

type ConstArg struct {
	Kind ConstArgKind
	// Param is the const parameter for ConstArgParam.
	Param defs.DefID
	// Value is the literal text for ConstArgAnon.
	Value source.StringID
	Span  source.Span
}

type ConstArgs struct {
	Arena *Arena[ConstArg]
}

func NewConstArgs(capHint uint) *ConstArgs {
	return &ConstArgs{Arena: NewArena[ConstArg](capHint)}
}

func (c *ConstArgs) New(arg ConstArg) ConstArgID {
	return ConstArgID(c.Arena.Allocate(arg))
}

func (c *ConstArgs) Get(id ConstArgID) *ConstArg {
	return c.Arena.Get(uint32(id))
}
