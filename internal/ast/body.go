package ast

import "lumen/internal/source"

// Body is the part of a function body the elaborator cares about: the type
// annotations written inside it. Expressions are opaque here.
type Body struct {
	Owner ItemID
	Types []TypeID
	Span  source.Span
}

type Bodies struct {
	Arena *Arena[Body]
}

func NewBodies(capHint uint) *Bodies {
	return &Bodies{Arena: NewArena[Body](capHint)}
}

func (b *Bodies) New(body Body) BodyID {
	return BodyID(b.Arena.Allocate(body))
}

func (b *Bodies) Get(id BodyID) *Body {
	return b.Arena.Get(uint32(id))
}
