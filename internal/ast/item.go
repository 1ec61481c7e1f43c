package ast

import (
	"lumen/internal/defs"
	"lumen/internal/source"
)

type ItemKind uint8

const (
	ItemFn ItemKind = iota
	ItemStruct
	ItemEnum
	ItemTrait
	ItemImpl
	ItemTypeAlias
	ItemOpaque
	ItemConst
)

type Item struct {
	Kind    ItemKind
	Def     defs.DefID
	Name    source.StringID
	Span    source.Span
	Payload PayloadID
}

type StructItem struct {
	Name     source.StringID
	Generics GenericsDecl
	Fields   []FnParam
	Span     source.Span
}

type Variant struct {
	Def  defs.DefID
	Name source.StringID
	Span source.Span
}

type EnumItem struct {
	Name     source.StringID
	Generics GenericsDecl
	Variants []Variant
	Span     source.Span
}

type TraitItem struct {
	Name     source.StringID
	Generics GenericsDecl
	// Supertraits is the written `trait Tr: Super + 'a` bound list.
	Supertraits []Bound
	Items       []AssocItemID
	Span        source.Span
}

type ImplItem struct {
	Generics GenericsDecl
	// OfTrait is nil for inherent impls.
	OfTrait *PolyTraitRef
	SelfTy  TypeID
	Items   []AssocItemID
	Span    source.Span
}

type TypeAliasItem struct {
	Name     source.StringID
	Generics GenericsDecl
	Ty       TypeID
	Span     source.Span
}

// OpaqueOrigin says which position the opaque was desugared from.
type OpaqueOrigin uint8

const (
	OpaqueReturn OpaqueOrigin = iota
	OpaqueArg
	OpaqueAliasDef
)

// OpaqueItem is a desugared `impl Bounds`. Parent is the enclosing item whose
// generics the opaque inherits.
type OpaqueItem struct {
	Generics GenericsDecl
	Bounds   []Bound
	Origin   OpaqueOrigin
	Parent   ItemID
	Span     source.Span
}

type ConstItem struct {
	Name source.StringID
	Ty   TypeID
	Span source.Span
}

type Items struct {
	Arena       *Arena[Item]
	Fns         *Arena[FnItem]
	Structs     *Arena[StructItem]
	Enums       *Arena[EnumItem]
	Traits      *Arena[TraitItem]
	Impls       *Arena[ImplItem]
	TypeAliases *Arena[TypeAliasItem]
	Opaques     *Arena[OpaqueItem]
	Consts      *Arena[ConstItem]
}

func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Items{
		Arena:       NewArena[Item](capHint),
		Fns:         NewArena[FnItem](capHint),
		Structs:     NewArena[StructItem](capHint / 2),
		Enums:       NewArena[EnumItem](capHint / 2),
		Traits:      NewArena[TraitItem](capHint / 2),
		Impls:       NewArena[ImplItem](capHint / 2),
		TypeAliases: NewArena[TypeAliasItem](capHint / 2),
		Opaques:     NewArena[OpaqueItem](capHint / 2),
		Consts:      NewArena[ConstItem](capHint / 2),
	}
}

func (i *Items) New(kind ItemKind, sp source.Span, name source.StringID, payload PayloadID) ItemID {
	return ItemID(i.Arena.Allocate(Item{
		Kind:    kind,
		Name:    name,
		Span:    sp,
		Payload: payload,
	}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

// SetDef attaches the definition id assigned by the collector.
func (i *Items) SetDef(id ItemID, def defs.DefID) {
	if it := i.Get(id); it != nil {
		it.Def = def
	}
}

func (i *Items) NewStruct(s StructItem) ItemID {
	payload := PayloadID(i.Structs.Allocate(s))
	return i.New(ItemStruct, s.Span, s.Name, payload)
}

func (i *Items) NewEnum(e EnumItem) ItemID {
	payload := PayloadID(i.Enums.Allocate(e))
	return i.New(ItemEnum, e.Span, e.Name, payload)
}

func (i *Items) NewTrait(t TraitItem) ItemID {
	payload := PayloadID(i.Traits.Allocate(t))
	return i.New(ItemTrait, t.Span, t.Name, payload)
}

func (i *Items) NewImpl(im ImplItem) ItemID {
	payload := PayloadID(i.Impls.Allocate(im))
	return i.New(ItemImpl, im.Span, source.NoStringID, payload)
}

func (i *Items) NewTypeAlias(a TypeAliasItem) ItemID {
	payload := PayloadID(i.TypeAliases.Allocate(a))
	return i.New(ItemTypeAlias, a.Span, a.Name, payload)
}

func (i *Items) NewOpaque(o OpaqueItem) ItemID {
	payload := PayloadID(i.Opaques.Allocate(o))
	return i.New(ItemOpaque, o.Span, source.NoStringID, payload)
}

func (i *Items) NewConst(c ConstItem) ItemID {
	payload := PayloadID(i.Consts.Allocate(c))
	return i.New(ItemConst, c.Span, c.Name, payload)
}

func (i *Items) Struct(id ItemID) (*StructItem, bool) {
	return itemPayload(i, id, ItemStruct, i.Structs)
}

func (i *Items) Enum(id ItemID) (*EnumItem, bool) {
	return itemPayload(i, id, ItemEnum, i.Enums)
}

func (i *Items) Trait(id ItemID) (*TraitItem, bool) {
	return itemPayload(i, id, ItemTrait, i.Traits)
}

func (i *Items) Impl(id ItemID) (*ImplItem, bool) {
	return itemPayload(i, id, ItemImpl, i.Impls)
}

func (i *Items) TypeAlias(id ItemID) (*TypeAliasItem, bool) {
	return itemPayload(i, id, ItemTypeAlias, i.TypeAliases)
}

func (i *Items) Opaque(id ItemID) (*OpaqueItem, bool) {
	return itemPayload(i, id, ItemOpaque, i.Opaques)
}

func (i *Items) Const(id ItemID) (*ConstItem, bool) {
	return itemPayload(i, id, ItemConst, i.Consts)
}

// Generics returns the declared generics of any item kind, or nil for items
// without generics.
func (i *Items) Generics(id ItemID) *GenericsDecl {
	item := i.Get(id)
	if item == nil {
		return nil
	}
	switch item.Kind {
	case ItemFn:
		return &i.Fns.Get(uint32(item.Payload)).Generics
	case ItemStruct:
		return &i.Structs.Get(uint32(item.Payload)).Generics
	case ItemEnum:
		return &i.Enums.Get(uint32(item.Payload)).Generics
	case ItemTrait:
		return &i.Traits.Get(uint32(item.Payload)).Generics
	case ItemImpl:
		return &i.Impls.Get(uint32(item.Payload)).Generics
	case ItemTypeAlias:
		return &i.TypeAliases.Get(uint32(item.Payload)).Generics
	case ItemOpaque:
		return &i.Opaques.Get(uint32(item.Payload)).Generics
	}
	return nil
}

func itemPayload[T any](i *Items, id ItemID, kind ItemKind, arena *Arena[T]) (*T, bool) {
	item := i.Arena.Get(uint32(id))
	if item == nil || item.Kind != kind {
		return nil, false
	}
	return arena.Get(uint32(item.Payload)), true
}
