package ast

import (
	"lumen/internal/defs"
	"lumen/internal/source"
)

// GenericParam is one declared parameter. Declarations carry their DefID;
// uses refer back to them by name through the scope chain.
type GenericParam struct {
	Def     defs.DefID
	Name    source.StringID
	Kind    defs.ParamKind
	Default TypeID
	// ConstType is the annotated type of a const param.
	ConstType TypeID
	Span      source.Span
	// Synthetic marks params desugared from anonymous impl-trait arguments.
	Synthetic bool
}

// BoundKind tags one bound in a `T: ...` list.
type BoundKind uint8

const (
	BoundTrait BoundKind = iota
	BoundOutlives
)

// TraitBoundModifier mirrors the written polarity of a trait bound.
type TraitBoundModifier uint8

const (
	BoundModNone TraitBoundModifier = iota
	BoundModMaybe
)

type Bound struct {
	Kind BoundKind
	// Trait is set for BoundTrait.
	Trait    *PolyTraitRef
	Modifier TraitBoundModifier
	// Outlives is set for BoundOutlives.
	Outlives LifetimeID
	Span     source.Span
}

// PolyTraitRef is a trait reference under its own binder: `for<'a> Tr<'a>`.
// The binder exists even when BoundParams is empty.
type PolyTraitRef struct {
	Binder      BinderID
	BoundParams []GenericParam
	Trait       PathID
	Span        source.Span
}

// PredicateKind tags a where-clause predicate.
type PredicateKind uint8

const (
	PredBound PredicateKind = iota
	PredRegion
	PredEq
)

type WherePredicate struct {
	Kind PredicateKind
	// Bound predicate: for<'a> Ty: Bounds
	Binder      BinderID
	BoundParams []GenericParam
	Ty          TypeID
	Bounds      []Bound
	// Region predicate: 'a: 'b + 'c
	Lifetime LifetimeID
	Regions  []LifetimeID
	// Eq predicate: A = B
	RHS  TypeID
	Span source.Span
}

// GenericsDecl is the written generics of one item: params plus where clause.
type GenericsDecl struct {
	Params []GenericParam
	Where  []WherePredicate
	Span   source.Span
}

func (g *GenericsDecl) LifetimeParams() []GenericParam {
	out := make([]GenericParam, 0, len(g.Params))
	for _, p := range g.Params {
		if p.Kind == defs.ParamLifetime {
			out = append(out, p)
		}
	}
	return out
}

// Binder is an identity node for a `for<...>` or signature binder. The
// resolver keys its bound-variable lists on BinderID.
type Binder struct {
	Span source.Span
}

type Binders struct {
	Arena *Arena[Binder]
}

func NewBinders(capHint uint) *Binders {
	return &Binders{Arena: NewArena[Binder](capHint)}
}

func (b *Binders) New(span source.Span) BinderID {
	return BinderID(b.Arena.Allocate(Binder{Span: span}))
}

func (b *Binders) Get(id BinderID) *Binder {
	return b.Arena.Get(uint32(id))
}
