package ast

import "lumen/internal/source"

type Hints struct{ Items, Types, Lifetimes, Paths uint }

// Builder owns every arena of one crate's surface tree.
type Builder struct {
	Items      *Items
	Types      *TypeExprs
	Lifetimes  *Lifetimes
	Paths      *Paths
	ConstArgs  *ConstArgs
	Binders    *Binders
	Bodies     *Bodies
	AssocItems *AssocItems
	Roots      []ItemID
}

func NewBuilder(hints Hints) *Builder {
	if hints.Items == 0 {
		hints.Items = 1 << 7
	}
	if hints.Types == 0 {
		hints.Types = 1 << 8
	}
	if hints.Lifetimes == 0 {
		hints.Lifetimes = 1 << 7
	}
	if hints.Paths == 0 {
		hints.Paths = 1 << 7
	}
	return &Builder{
		Items:      NewItems(hints.Items),
		Types:      NewTypeExprs(hints.Types),
		Lifetimes:  NewLifetimes(hints.Lifetimes),
		Paths:      NewPaths(hints.Paths),
		ConstArgs:  NewConstArgs(hints.Paths / 2),
		Binders:    NewBinders(hints.Items),
		Bodies:     NewBodies(hints.Items),
		AssocItems: NewAssocItems(hints.Items),
	}
}

// PushRoot registers a top-level item.
func (b *Builder) PushRoot(item ItemID) {
	b.Roots = append(b.Roots, item)
}

// NewImplicitLifetime allocates the absent lifetime of `&T`.
func (b *Builder) NewImplicitLifetime(span source.Span) LifetimeID {
	return b.Lifetimes.New(LifetimeImplicit, source.NoStringID, span)
}
