package regions

import (
	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/source"
	"lumen/internal/types"
)

type scopeKind uint8

const (
	scopeRoot scopeKind = iota
	scopeBinder
	scopeBody
	scopeElision
	scopeObjectDefault
	scopeSupertrait
	scopeTraitRefBoundary
)

// BinderScopeType says whether a binder introduces a fresh de Bruijn level or
// concatenates its variables with the enclosing binder's.
type BinderScopeType uint8

const (
	BinderNormal BinderScopeType = iota
	BinderConcatenating
)

type elideKind uint8

const (
	// elideFreshLateAnon mints a fresh anonymous late-bound var per elision.
	elideFreshLateAnon elideKind = iota
	// elideExact substitutes one fixed region.
	elideExact
	// elideError reports elision ambiguity with per-argument candidates.
	elideError
	// elideForbid reports that elision is illegal in this position.
	elideForbid
)

type elide struct {
	kind       elideKind
	exact      types.Region
	candidates []ElisionFailureInfo
	// binder receives the fresh anonymous vars.
	binder ast.BinderID
	// counter is shared across all elisions of one signature.
	counter *uint32
}

// scope is one frame of the resolution stack. The populated fields depend on
// kind. The stack is strict LIFO, alive only during one item's walk.
type scope struct {
	kind scopeKind

	// Binder
	lifetimes      map[source.StringID]types.Region
	binder         ast.BinderID
	scopeType      BinderScopeType
	allowLateBound bool

	// Body
	bodyOwner defs.DefID

	// Elision
	elide elide

	// ObjectDefault: objSet false means "position default".
	objSet       bool
	objRegion    types.Region
	objAmbiguous bool

	// Supertrait
	extraVars []types.BoundVarKind
}

func binderScope(binder ast.BinderID, st BinderScopeType, allowLate bool) scope {
	return scope{
		kind:           scopeBinder,
		lifetimes:      make(map[source.StringID]types.Region),
		binder:         binder,
		scopeType:      st,
		allowLateBound: allowLate,
	}
}
