package types

import (
	"fmt"

	"lumen/internal/defs"
	"lumen/internal/source"
)

// TyID uniquely identifies an interned type.
type TyID uint32

// NoTyID marks the absence of a type.
const NoTyID TyID = 0

func (id TyID) IsValid() bool { return id != NoTyID }

// ArgsID identifies an interned generic-argument list.
type ArgsID uint32

const NoArgsID ArgsID = 0

// TysID identifies an interned type list.
type TysID uint32

const NoTysID TysID = 0

// PredsID identifies an interned existential-predicate list.
type PredsID uint32

const NoPredsID PredsID = 0

// BoundVarsID identifies an interned bound-variable list.
type BoundVarsID uint32

const NoBoundVarsID BoundVarsID = 0

// ConstID identifies an interned const value.
type ConstID uint32

const NoConstID ConstID = 0

type TyKind uint8

const (
	KindError TyKind = iota
	KindBool
	KindChar
	KindInt
	KindUint
	KindFloat
	KindStr
	KindNever
	KindAdt
	KindForeign
	KindRef
	KindRawPtr
	KindSlice
	KindArray
	KindTuple
	KindFnPtr
	KindDynamic
	KindAlias
	KindParam
	KindInfer
)

func (k TyKind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindNever:
		return "never"
	case KindAdt:
		return "adt"
	case KindForeign:
		return "foreign"
	case KindRef:
		return "reference"
	case KindRawPtr:
		return "raw pointer"
	case KindSlice:
		return "slice"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindFnPtr:
		return "fn pointer"
	case KindDynamic:
		return "trait object"
	case KindAlias:
		return "alias"
	case KindParam:
		return "type parameter"
	case KindInfer:
		return "inference variable"
	default:
		return fmt.Sprintf("TyKind(%d)", k)
	}
}

// AliasKind refines KindAlias.
type AliasKind uint8

const (
	// AliasProjection is `<T as Trait>::Item`.
	AliasProjection AliasKind = iota
	// AliasInherent is an associated type of an inherent impl.
	AliasInherent
	// AliasOpaque is a desugared `impl Trait`.
	AliasOpaque
	// AliasWeak is an unexpanded type alias with generics.
	AliasWeak
)

// Width captures the precision of numeric primitives.
type Width uint8

const (
	WidthAny Width = 0
	Width8   Width = 8
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
)

// Ty is a compact structural descriptor. Fields are populated per Kind:
//
//	Adt/Foreign:  Def, Args
//	Ref:          Region, Elem, Mut
//	RawPtr:       Elem, Mut
//	Slice:        Elem
//	Array:        Elem, Const
//	Tuple:        Tys
//	FnPtr:        Tys (inputs then output), Vars
//	Dynamic:      Preds, Region (the lifetime bound), Vars
//	Alias:        Alias, Def, Args
//	Param:        Index, Name
//	Int/Uint/Float: Width
//
// Ty is comparable, so it doubles as its own interner key.
type Ty struct {
	Kind   TyKind
	Alias  AliasKind
	Width  Width
	Mut    bool
	Def    defs.DefID
	Index  uint32
	Name   source.StringID
	Elem   TyID
	Args   ArgsID
	Tys    TysID
	Preds  PredsID
	Vars   BoundVarsID
	Const  ConstID
	Region Region
}

func MakeInt(width Width) Ty   { return Ty{Kind: KindInt, Width: width} }
func MakeUint(width Width) Ty  { return Ty{Kind: KindUint, Width: width} }
func MakeFloat(width Width) Ty { return Ty{Kind: KindFloat, Width: width} }

func MakeAdt(def defs.DefID, args ArgsID) Ty {
	return Ty{Kind: KindAdt, Def: def, Args: args}
}

func MakeForeign(def defs.DefID) Ty {
	return Ty{Kind: KindForeign, Def: def}
}

func MakeRef(region Region, elem TyID, mut bool) Ty {
	return Ty{Kind: KindRef, Region: region, Elem: elem, Mut: mut}
}

func MakeRawPtr(elem TyID, mut bool) Ty {
	return Ty{Kind: KindRawPtr, Elem: elem, Mut: mut}
}

func MakeSlice(elem TyID) Ty {
	return Ty{Kind: KindSlice, Elem: elem}
}

func MakeArray(elem TyID, length ConstID) Ty {
	return Ty{Kind: KindArray, Elem: elem, Const: length}
}

func MakeTuple(elems TysID) Ty {
	return Ty{Kind: KindTuple, Tys: elems}
}

func MakeFnPtr(sig TysID, vars BoundVarsID) Ty {
	return Ty{Kind: KindFnPtr, Tys: sig, Vars: vars}
}

func MakeDynamic(preds PredsID, region Region) Ty {
	return Ty{Kind: KindDynamic, Preds: preds, Region: region}
}

func MakeAlias(kind AliasKind, def defs.DefID, args ArgsID) Ty {
	return Ty{Kind: KindAlias, Alias: kind, Def: def, Args: args}
}

func MakeParam(index uint32, name source.StringID) Ty {
	return Ty{Kind: KindParam, Index: index, Name: name}
}

// GenericArgKind tags one lowered generic argument.
type GenericArgKind uint8

const (
	ArgRegion GenericArgKind = iota
	ArgTy
	ArgConst
)

// GenericArg is one lowered argument. Comparable.
type GenericArg struct {
	Kind   GenericArgKind
	Region Region
	Ty     TyID
	Const  ConstID
}

func RegionArg(r Region) GenericArg { return GenericArg{Kind: ArgRegion, Region: r} }
func TyArg(t TyID) GenericArg       { return GenericArg{Kind: ArgTy, Ty: t} }
func ConstArg(c ConstID) GenericArg { return GenericArg{Kind: ArgConst, Const: c} }

// ConstKind tags an interned const.
type ConstKind uint8

const (
	ConstError ConstKind = iota
	ConstParam
	ConstValue
	ConstInfer
)

// Const is a lowered const generic argument.
type Const struct {
	Kind  ConstKind
	Def   defs.DefID
	Index uint32
	Value source.StringID
	// Ty is the type the value must have, resolved from the const
	// parameter's declaration. Zero when no declaration is in reach.
	Ty TyID
}

// BoundVarKind describes one variable of a binder, in declaration order.
type BoundVarKind struct {
	Kind defs.ParamKind
	// Anon marks fresh elided region vars.
	Anon bool
	Def  defs.DefID
	Name source.StringID
}
