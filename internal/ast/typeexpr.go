package ast

import (
	"lumen/internal/source"
)

type TypeExprKind uint8

const (
	TypeExprErr TypeExprKind = iota
	TypeExprPath
	TypeExprRef
	TypeExprRawPtr
	TypeExprSlice
	TypeExprArray
	TypeExprTuple
	TypeExprFnPtr
	TypeExprTraitObject
	TypeExprImplTrait
	TypeExprInfer
	TypeExprNever
)

type TypeExpr struct {
	Kind    TypeExprKind
	Span    source.Span
	Payload PayloadID
}

type RefType struct {
	Lifetime LifetimeID
	Mut      bool
	Elem     TypeID
}

type RawPtrType struct {
	Mut  bool
	Elem TypeID
}

type SliceType struct {
	Elem TypeID
}

type ArrayType struct {
	Elem TypeID
	Len  ConstArgID
}

type TupleType struct {
	Elems []TypeID
}

// FnPtrType is `for<'a> fn(&'a A) -> B`. Its binder is late-bound only.
type FnPtrType struct {
	Binder      BinderID
	BoundParams []GenericParam
	Inputs      []TypeID
	Output      TypeID
}

// TraitObjectType is `dyn Bounds + 'l`. Lifetime is always present; when the
// source wrote no bound it is a LifetimeObjectDefault occurrence.
type TraitObjectType struct {
	Bounds   []PolyTraitRef
	Lifetime LifetimeID
	// HasExplicitBound is set when the source wrote the lifetime.
	HasExplicitBound bool
}

// ImplTraitType references the opaque item desugared from `impl Bounds`.
type ImplTraitType struct {
	Opaque ItemID
}

type PathType struct {
	Path PathID
}

// TypeExprs owns all type expressions and their per-kind payloads.
type TypeExprs struct {
	Arena        *Arena[TypeExpr]
	Paths        *Arena[PathType]
	Refs         *Arena[RefType]
	RawPtrs      *Arena[RawPtrType]
	Slices       *Arena[SliceType]
	Arrays       *Arena[ArrayType]
	Tuples       *Arena[TupleType]
	FnPtrs       *Arena[FnPtrType]
	TraitObjects *Arena[TraitObjectType]
	ImplTraits   *Arena[ImplTraitType]
}

func NewTypeExprs(capHint uint) *TypeExprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &TypeExprs{
		Arena:        NewArena[TypeExpr](capHint),
		Paths:        NewArena[PathType](capHint),
		Refs:         NewArena[RefType](capHint),
		RawPtrs:      NewArena[RawPtrType](capHint / 4),
		Slices:       NewArena[SliceType](capHint / 4),
		Arrays:       NewArena[ArrayType](capHint / 4),
		Tuples:       NewArena[TupleType](capHint / 4),
		FnPtrs:       NewArena[FnPtrType](capHint / 4),
		TraitObjects: NewArena[TraitObjectType](capHint / 4),
		ImplTraits:   NewArena[ImplTraitType](capHint / 4),
	}
}

func (t *TypeExprs) new(kind TypeExprKind, span source.Span, payload PayloadID) TypeID {
	return TypeID(t.Arena.Allocate(TypeExpr{Kind: kind, Span: span, Payload: payload}))
}

func (t *TypeExprs) Get(id TypeID) *TypeExpr {
	return t.Arena.Get(uint32(id))
}

func (t *TypeExprs) NewErr(span source.Span) TypeID {
	return t.new(TypeExprErr, span, NoPayloadID)
}

func (t *TypeExprs) NewInfer(span source.Span) TypeID {
	return t.new(TypeExprInfer, span, NoPayloadID)
}

func (t *TypeExprs) NewNever(span source.Span) TypeID {
	return t.new(TypeExprNever, span, NoPayloadID)
}

func (t *TypeExprs) NewPath(path PathID, span source.Span) TypeID {
	p := t.Paths.Allocate(PathType{Path: path})
	return t.new(TypeExprPath, span, PayloadID(p))
}

func (t *TypeExprs) NewRef(lt LifetimeID, mut bool, elem TypeID, span source.Span) TypeID {
	p := t.Refs.Allocate(RefType{Lifetime: lt, Mut: mut, Elem: elem})
	return t.new(TypeExprRef, span, PayloadID(p))
}

func (t *TypeExprs) NewRawPtr(mut bool, elem TypeID, span source.Span) TypeID {
	p := t.RawPtrs.Allocate(RawPtrType{Mut: mut, Elem: elem})
	return t.new(TypeExprRawPtr, span, PayloadID(p))
}

func (t *TypeExprs) NewSlice(elem TypeID, span source.Span) TypeID {
	p := t.Slices.Allocate(SliceType{Elem: elem})
	return t.new(TypeExprSlice, span, PayloadID(p))
}

func (t *TypeExprs) NewArray(elem TypeID, length ConstArgID, span source.Span) TypeID {
	p := t.Arrays.Allocate(ArrayType{Elem: elem, Len: length})
	return t.new(TypeExprArray, span, PayloadID(p))
}

func (t *TypeExprs) NewTuple(elems []TypeID, span source.Span) TypeID {
	p := t.Tuples.Allocate(TupleType{Elems: elems})
	return t.new(TypeExprTuple, span, PayloadID(p))
}

func (t *TypeExprs) NewFnPtr(fp FnPtrType, span source.Span) TypeID {
	p := t.FnPtrs.Allocate(fp)
	return t.new(TypeExprFnPtr, span, PayloadID(p))
}

func (t *TypeExprs) NewTraitObject(obj TraitObjectType, span source.Span) TypeID {
	p := t.TraitObjects.Allocate(obj)
	return t.new(TypeExprTraitObject, span, PayloadID(p))
}

func (t *TypeExprs) NewImplTrait(opaque ItemID, span source.Span) TypeID {
	p := t.ImplTraits.Allocate(ImplTraitType{Opaque: opaque})
	return t.new(TypeExprImplTrait, span, PayloadID(p))
}

func (t *TypeExprs) Path(id TypeID) (*PathType, bool) {
	return typePayload(t, id, TypeExprPath, t.Paths)
}

func (t *TypeExprs) Ref(id TypeID) (*RefType, bool) {
	return typePayload(t, id, TypeExprRef, t.Refs)
}

func (t *TypeExprs) RawPtr(id TypeID) (*RawPtrType, bool) {
	return typePayload(t, id, TypeExprRawPtr, t.RawPtrs)
}

func (t *TypeExprs) Slice(id TypeID) (*SliceType, bool) {
	return typePayload(t, id, TypeExprSlice, t.Slices)
}

func (t *TypeExprs) Array(id TypeID) (*ArrayType, bool) {
	return typePayload(t, id, TypeExprArray, t.Arrays)
}

func (t *TypeExprs) Tuple(id TypeID) (*TupleType, bool) {
	return typePayload(t, id, TypeExprTuple, t.Tuples)
}

func (t *TypeExprs) FnPtr(id TypeID) (*FnPtrType, bool) {
	return typePayload(t, id, TypeExprFnPtr, t.FnPtrs)
}

func (t *TypeExprs) TraitObject(id TypeID) (*TraitObjectType, bool) {
	return typePayload(t, id, TypeExprTraitObject, t.TraitObjects)
}

func (t *TypeExprs) ImplTrait(id TypeID) (*ImplTraitType, bool) {
	return typePayload(t, id, TypeExprImplTrait, t.ImplTraits)
}

func typePayload[T any](t *TypeExprs, id TypeID, kind TypeExprKind, arena *Arena[T]) (*T, bool) {
	te := t.Arena.Get(uint32(id))
	if te == nil || te.Kind != kind {
		return nil, false
	}
	return arena.Get(uint32(te.Payload)), true
}
