package oracle

import (
	"lumen/internal/types"
)

// Inference decides whether two lowered types can be made equal. Inherent
// associated item selection probes candidate impls through this interface.
type Inference interface {
	CanEq(a, b types.TyID) bool
}

// StructuralInference unifies structurally, treating inference variables as
// wildcards and ignoring regions. It has no persistent state, so a probe
// never leaks constraints into another.
type StructuralInference struct {
	In *types.Interner
}

func (s StructuralInference) CanEq(a, b types.TyID) bool {
	if a == b {
		return true
	}
	ta, okA := s.In.LookupTy(a)
	tb, okB := s.In.LookupTy(b)
	if !okA || !okB {
		return false
	}
	if ta.Kind == types.KindInfer || tb.Kind == types.KindInfer {
		return true
	}
	// поregion'ы не сравниваем
	if ta.Kind != tb.Kind {
		return false
	}
	switch ta.Kind {
	case types.KindError:
		return true
	case types.KindBool, types.KindChar, types.KindStr, types.KindNever:
		return true
	case types.KindInt, types.KindUint, types.KindFloat:
		return ta.Width == tb.Width
	case types.KindParam:
		return ta.Index == tb.Index
	case types.KindAdt, types.KindForeign:
		return ta.Def == tb.Def && s.canEqArgs(ta.Args, tb.Args)
	case types.KindAlias:
		return ta.Alias == tb.Alias && ta.Def == tb.Def && s.canEqArgs(ta.Args, tb.Args)
	case types.KindRef:
		return ta.Mut == tb.Mut && s.CanEq(ta.Elem, tb.Elem)
	case types.KindRawPtr:
		return ta.Mut == tb.Mut && s.CanEq(ta.Elem, tb.Elem)
	case types.KindSlice:
		return s.CanEq(ta.Elem, tb.Elem)
	case types.KindArray:
		return ta.Const == tb.Const && s.CanEq(ta.Elem, tb.Elem)
	case types.KindTuple, types.KindFnPtr:
		return s.canEqTys(ta.Tys, tb.Tys)
	case types.KindDynamic:
		return ta.Preds == tb.Preds
	}
	return false
}

func (s StructuralInference) canEqArgs(a, b types.ArgsID) bool {
	la := s.In.LookupArgs(a)
	lb := s.In.LookupArgs(b)
	if len(la) != len(lb) {
		return false
	}
	for i := range la {
		if la[i].Kind != lb[i].Kind {
			return false
		}
		switch la[i].Kind {
		case types.ArgTy:
			if !s.CanEq(la[i].Ty, lb[i].Ty) {
				return false
			}
		case types.ArgConst:
			if la[i].Const != lb[i].Const {
				return false
			}
		}
	}
	return true
}

func (s StructuralInference) canEqTys(a, b types.TysID) bool {
	la := s.In.LookupTys(a)
	lb := s.In.LookupTys(b)
	if len(la) != len(lb) {
		return false
	}
	for i := range la {
		if !s.CanEq(la[i], lb[i]) {
			return false
		}
	}
	return true
}
