package ast

import "lumen/internal/source"

// LifetimeKind classifies a lifetime occurrence in the source tree.
type LifetimeKind uint8

const (
	// LifetimeNamed is a written `'a`.
	LifetimeNamed LifetimeKind = iota
	// LifetimeStatic is a written `'static`.
	LifetimeStatic
	// LifetimeAnon is a written `'_`.
	LifetimeAnon
	// LifetimeImplicit is the absent lifetime of `&T` or a path without args.
	LifetimeImplicit
	// LifetimeObjectDefault is the synthesized occurrence for a trait object
	// without an explicit bound.
	LifetimeObjectDefault
)

// Lifetime is one lifetime use site. Each occurrence gets its own ID so the
// resolver can record a per-use region.
type Lifetime struct {
	Kind LifetimeKind
	Name source.StringID
	Span source.Span
}

func (l *Lifetime) IsElided() bool {
	return l.Kind == LifetimeAnon || l.Kind == LifetimeImplicit || l.Kind == LifetimeObjectDefault
}

type Lifetimes struct {
	Arena *Arena[Lifetime]
}

func NewLifetimes(capHint uint) *Lifetimes {
	return &Lifetimes{Arena: NewArena[Lifetime](capHint)}
}

func (l *Lifetimes) New(kind LifetimeKind, name source.StringID, span source.Span) LifetimeID {
	return LifetimeID(l.Arena.Allocate(Lifetime{Kind: kind, Name: name, Span: span}))
}

func (l *Lifetimes) Get(id LifetimeID) *Lifetime {
	return l.Arena.Get(uint32(id))
}
