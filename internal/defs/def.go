package defs

// DefID identifies a definition (item, param, assoc item) across the crate
// graph. 1-based; 0 is reserved.
type DefID uint32

const NoDefID DefID = 0

func (id DefID) IsValid() bool { return id != NoDefID }

type DefKind uint8

const (
	DefUnknown DefKind = iota
	DefStruct
	DefEnum
	DefVariant
	DefUnion
	DefTrait
	DefTypeAlias
	DefAssocType
	DefOpaque
	DefFn
	DefAssocFn
	DefImpl
	DefConst
	DefAssocConst
	DefMod
	DefLifetimeParam
	DefTypeParam
	DefConstParam
	DefForeignType
)

func (k DefKind) String() string {
	switch k {
	case DefStruct:
		return "struct"
	case DefEnum:
		return "enum"
	case DefVariant:
		return "variant"
	case DefUnion:
		return "union"
	case DefTrait:
		return "trait"
	case DefTypeAlias:
		return "type alias"
	case DefAssocType:
		return "associated type"
	case DefOpaque:
		return "opaque type"
	case DefFn:
		return "function"
	case DefAssocFn:
		return "associated function"
	case DefImpl:
		return "impl"
	case DefConst:
		return "constant"
	case DefAssocConst:
		return "associated constant"
	case DefMod:
		return "module"
	case DefLifetimeParam:
		return "lifetime parameter"
	case DefTypeParam:
		return "type parameter"
	case DefConstParam:
		return "const parameter"
	case DefForeignType:
		return "foreign type"
	}
	return "unknown"
}

// IsTypeLike reports whether a path to this definition denotes a type.
func (k DefKind) IsTypeLike() bool {
	switch k {
	case DefStruct, DefEnum, DefUnion, DefTrait, DefTypeAlias,
		DefAssocType, DefOpaque, DefTypeParam, DefForeignType:
		return true
	}
	return false
}
