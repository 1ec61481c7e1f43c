package ast

import (
	"lumen/internal/defs"
	"lumen/internal/source"
)

// SelfKind is the receiver shape of a method.
type SelfKind uint8

const (
	SelfNone SelfKind = iota
	SelfValue
	SelfRef
	SelfRefMut
)

func (k SelfKind) IsRef() bool { return k == SelfRef || k == SelfRefMut }

type FnParam struct {
	Name source.StringID
	Ty   TypeID
	Span source.Span
}

// FnSig is a function signature. Binder owns the signature's late-bound vars.
// When Self is by reference, SelfLifetime is the (possibly implicit) lifetime
// of the receiver reference and Inputs[0] is the full receiver type.
type FnSig struct {
	Binder       BinderID
	Inputs       []FnParam
	Output       TypeID
	Self         SelfKind
	SelfLifetime LifetimeID
	Span         source.Span
}

func (s *FnSig) HasSelf() bool { return s.Self != SelfNone }

type FnItem struct {
	Name     source.StringID
	Generics GenericsDecl
	Sig      FnSig
	Body     BodyID
	Span     source.Span
}

func (i *Items) Fn(id ItemID) (*FnItem, bool) {
	item := i.Arena.Get(uint32(id))
	if item == nil || item.Kind != ItemFn {
		return nil, false
	}
	return i.Fns.Get(uint32(item.Payload)), true
}

func (i *Items) NewFn(fn FnItem) ItemID {
	payload := PayloadID(i.Fns.Allocate(fn))
	return i.New(ItemFn, fn.Span, fn.Name, payload)
}

// AssocItemKind tags an item inside a trait or impl.
type AssocItemKind uint8

const (
	AssocFn AssocItemKind = iota
	AssocType
	AssocConst
)

// AssocItem is a trait or impl member. Fn members embed a full FnItem; type
// members carry optional bounds (trait position) and an optional value.
type AssocItem struct {
	Kind     AssocItemKind
	Def      defs.DefID
	Name     source.StringID
	Fn       FnItem
	Generics GenericsDecl
	Bounds   []Bound
	Value    TypeID
	Span     source.Span
}

type AssocItems struct {
	Arena *Arena[AssocItem]
}

func NewAssocItems(capHint uint) *AssocItems {
	return &AssocItems{Arena: NewArena[AssocItem](capHint)}
}

func (a *AssocItems) New(item AssocItem) AssocItemID {
	return AssocItemID(a.Arena.Allocate(item))
}

func (a *AssocItems) Get(id AssocItemID) *AssocItem {
	return a.Arena.Get(uint32(id))
}
