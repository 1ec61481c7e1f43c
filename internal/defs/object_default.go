package defs

// ObjectDefaultKind classifies the implicit lifetime bound a type parameter
// imposes on trait objects substituted for it, derived from `T: 'x` clauses.
type ObjectDefaultKind uint8

const (
	// ObjectDefaultEmpty: no outlives bound on the param; position rules apply.
	ObjectDefaultEmpty ObjectDefaultKind = iota
	// ObjectDefaultStatic: the param requires 'static.
	ObjectDefaultStatic
	// ObjectDefaultParam: exactly one early-bound lifetime bounds the param.
	ObjectDefaultParam
	// ObjectDefaultAmbiguous: two or more distinct lifetimes bound the param.
	ObjectDefaultAmbiguous
)

// ObjectDefault is the per-type-param object lifetime default. Param is the
// DefID of the bounding lifetime when Kind is ObjectDefaultParam.
type ObjectDefault struct {
	Kind  ObjectDefaultKind
	Param DefID
}

func (d ObjectDefault) String() string {
	switch d.Kind {
	case ObjectDefaultEmpty:
		return "empty"
	case ObjectDefaultStatic:
		return "'static"
	case ObjectDefaultParam:
		return "param"
	case ObjectDefaultAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}
