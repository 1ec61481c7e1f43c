package lower

import (
	"lumen/internal/types"
)

// substTy instantiates a type against an argument vector: parameters whose
// flattened index falls inside args are replaced, everything else rebuilds
// unchanged. Used for generic parameter defaults, which may mention the
// parameters declared to their left.
func substTy(in *types.Interner, id types.TyID, args []types.GenericArg) types.TyID {
	if len(args) == 0 {
		return id
	}
	t, ok := in.LookupTy(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case types.KindParam:
		if int(t.Index) < len(args) && args[t.Index].Kind == types.ArgTy {
			return args[t.Index].Ty
		}
		return id
	case types.KindRef:
		t.Region = substRegion(t.Region, args)
		t.Elem = substTy(in, t.Elem, args)
	case types.KindRawPtr, types.KindSlice:
		t.Elem = substTy(in, t.Elem, args)
	case types.KindArray:
		t.Elem = substTy(in, t.Elem, args)
		t.Const = substConst(in, t.Const, args)
	case types.KindTuple, types.KindFnPtr:
		t.Tys = substTys(in, t.Tys, args)
	case types.KindAdt, types.KindAlias:
		t.Args = substArgs(in, t.Args, args)
	case types.KindDynamic:
		t.Region = substRegion(t.Region, args)
		t.Preds = substPreds(in, t.Preds, args)
	default:
		return id
	}
	return in.InternTy(t)
}

func substRegion(r types.Region, args []types.GenericArg) types.Region {
	if r.Kind == types.RegionEarly && int(r.Index) < len(args) && args[r.Index].Kind == types.ArgRegion {
		return args[r.Index].Region
	}
	return r
}

func substConst(in *types.Interner, id types.ConstID, args []types.GenericArg) types.ConstID {
	cst, ok := in.LookupConst(id)
	if !ok {
		return id
	}
	if cst.Kind == types.ConstParam {
		if int(cst.Index) < len(args) && args[cst.Index].Kind == types.ArgConst {
			return args[cst.Index].Const
		}
		return id
	}
	if ty := substTy(in, cst.Ty, args); ty != cst.Ty {
		cst.Ty = ty
		return in.InternConst(cst)
	}
	return id
}

func substArgs(in *types.Interner, id types.ArgsID, args []types.GenericArg) types.ArgsID {
	old := in.LookupArgs(id)
	if len(old) == 0 {
		return id
	}
	out := make([]types.GenericArg, len(old))
	for i, a := range old {
		switch a.Kind {
		case types.ArgRegion:
			a.Region = substRegion(a.Region, args)
		case types.ArgTy:
			a.Ty = substTy(in, a.Ty, args)
		case types.ArgConst:
			a.Const = substConst(in, a.Const, args)
		}
		out[i] = a
	}
	return in.InternArgs(out)
}

func substTys(in *types.Interner, id types.TysID, args []types.GenericArg) types.TysID {
	old := in.LookupTys(id)
	if len(old) == 0 {
		return id
	}
	out := make([]types.TyID, len(old))
	for i, t := range old {
		out[i] = substTy(in, t, args)
	}
	return in.InternTys(out)
}

func substPreds(in *types.Interner, id types.PredsID, args []types.GenericArg) types.PredsID {
	old := in.LookupPreds(id)
	if len(old) == 0 {
		return id
	}
	out := make([]types.ExistentialPredicate, len(old))
	for i, p := range old {
		p.Args = substArgs(in, p.Args, args)
		p.Term = substTy(in, p.Term, args)
		out[i] = p
	}
	return in.InternPreds(out)
}
