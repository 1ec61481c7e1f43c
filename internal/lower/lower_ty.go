package lower

import (
	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/types"
)

// LowerTy converts one surface type expression into its interned semantic
// type. Results are memoized per node, so a type mentioned twice in an item
// lowers once and every diagnostic it carries fires once.
func (c *ItemContext) LowerTy(id ast.TypeID) types.TyID {
	if !id.IsValid() {
		return c.errTy()
	}
	if t, ok := c.memo[id]; ok {
		return t
	}
	t := c.lowerTyUncached(id)
	c.memo[id] = t
	return t
}

func (c *ItemContext) lowerTyUncached(id ast.TypeID) types.TyID {
	te := c.L.B.Types.Get(id)
	if te == nil {
		return c.errTy()
	}
	bt := c.L.Types.Builtins()

	switch te.Kind {
	case ast.TypeExprErr:
		// уже отрепорчено раньше
		return bt.Error

	case ast.TypeExprNever:
		return bt.Never

	case ast.TypeExprInfer:
		if !c.AllowInfer {
			diag.ReportError(c.L.Reporter, diag.ElabInferNotAllowed, te.Span,
				"the placeholder `_` is not allowed within types on item signatures").Emit()
			c.taint()
			return bt.Error
		}
		return bt.Infer

	case ast.TypeExprPath:
		pt, ok := c.L.B.Types.Path(id)
		if !ok {
			return bt.Error
		}
		return c.lowerPath(pt.Path)

	case ast.TypeExprRef:
		ref, ok := c.L.B.Types.Ref(id)
		if !ok {
			return bt.Error
		}
		region := c.regionFor(ref.Lifetime)
		elem := c.LowerTy(ref.Elem)
		return c.intern(types.MakeRef(region, elem, ref.Mut))

	case ast.TypeExprRawPtr:
		ptr, ok := c.L.B.Types.RawPtr(id)
		if !ok {
			return bt.Error
		}
		return c.intern(types.MakeRawPtr(c.LowerTy(ptr.Elem), ptr.Mut))

	case ast.TypeExprSlice:
		sl, ok := c.L.B.Types.Slice(id)
		if !ok {
			return bt.Error
		}
		return c.intern(types.MakeSlice(c.LowerTy(sl.Elem)))

	case ast.TypeExprArray:
		ar, ok := c.L.B.Types.Array(id)
		if !ok {
			return bt.Error
		}
		elem := c.LowerTy(ar.Elem)
		// Array lengths are always uint-typed.
		length := c.typedConst(c.lowerConstArg(ar.Len), bt.Uint)
		return c.intern(types.MakeArray(elem, length))

	case ast.TypeExprTuple:
		tp, ok := c.L.B.Types.Tuple(id)
		if !ok {
			return bt.Error
		}
		elems := make([]types.TyID, 0, len(tp.Elems))
		for _, e := range tp.Elems {
			elems = append(elems, c.LowerTy(e))
		}
		return c.intern(types.MakeTuple(c.L.Types.InternTys(elems)))

	case ast.TypeExprFnPtr:
		fp, ok := c.L.B.Types.FnPtr(id)
		if !ok {
			return bt.Error
		}
		return c.lowerFnPtr(fp, te.Span)

	case ast.TypeExprTraitObject:
		obj, ok := c.L.B.Types.TraitObject(id)
		if !ok {
			return bt.Error
		}
		return c.lowerTraitObject(obj, te.Span)

	case ast.TypeExprImplTrait:
		it, ok := c.L.B.Types.ImplTrait(id)
		if !ok {
			return bt.Error
		}
		return c.lowerImplTrait(it)
	}
	return bt.Error
}

func (c *ItemContext) intern(t types.Ty) types.TyID {
	return c.L.Types.InternTy(t)
}

func (c *ItemContext) lowerFnPtr(fp *ast.FnPtrType, span source.Span) types.TyID {
	sig := make([]types.TyID, 0, len(fp.Inputs)+1)
	for _, in := range fp.Inputs {
		sig = append(sig, c.LowerTy(in))
	}
	if fp.Output.IsValid() {
		sig = append(sig, c.LowerTy(fp.Output))
	} else {
		sig = append(sig, c.L.Types.Builtins().Unit)
	}

	vars := c.Map.Vars(fp.Binder)
	c.checkConstrainedLateBound(sig[:len(sig)-1], sig[len(sig)-1], vars, span)

	return c.intern(types.MakeFnPtr(c.L.Types.InternTys(sig), c.L.Types.InternBoundVars(vars)))
}

func (c *ItemContext) lowerImplTrait(it *ast.ImplTraitType) types.TyID {
	item := c.L.B.Items.Get(it.Opaque)
	if item == nil || !item.Def.IsValid() {
		return c.errTy()
	}
	args := c.identityArgs(item.Def)
	return c.intern(types.MakeAlias(types.AliasOpaque, item.Def, c.L.Types.InternArgs(args)))
}

// identityArgs builds the argument vector that instantiates a definition with
// its own parameters, parent parameters included.
func (c *ItemContext) identityArgs(def defs.DefID) []types.GenericArg {
	g := c.L.Oracle.GenericsOf(def)
	var out []types.GenericArg
	if g.Parent.IsValid() {
		out = append(out, c.identityArgs(g.Parent)...)
	}
	for i := range g.Params {
		p := &g.Params[i]
		switch p.Kind {
		case defs.ParamLifetime:
			out = append(out, types.RegionArg(types.MakeEarlyRegion(p.Index, p.ID)))
		case defs.ParamType:
			out = append(out, types.TyArg(c.intern(types.MakeParam(p.Index, p.Name))))
		default:
			out = append(out, types.ConstArg(c.L.Types.InternConst(types.Const{
				Kind: types.ConstParam, Def: p.ID, Index: p.Index,
			})))
		}
	}
	return out
}

func (c *ItemContext) lowerConstArg(id ast.ConstArgID) types.ConstID {
	arg := c.L.B.ConstArgs.Get(id)
	if arg == nil {
		return c.L.Types.InternConst(types.Const{Kind: types.ConstError})
	}
	switch arg.Kind {
	case ast.ConstArgParam:
		return c.L.Types.InternConst(types.Const{
			Kind:  types.ConstParam,
			Def:   arg.Param,
			Index: c.paramIndex(arg.Param),
		})
	case ast.ConstArgAnon:
		return c.L.Types.InternConst(types.Const{Kind: types.ConstValue, Value: arg.Value})
	case ast.ConstArgInfer:
		if !c.AllowInfer {
			diag.ReportError(c.L.Reporter, diag.ElabInferNotAllowed, arg.Span,
				"the placeholder `_` is not allowed for const arguments on item signatures").Emit()
			c.taint()
			return c.L.Types.InternConst(types.Const{Kind: types.ConstError})
		}
		return c.L.Types.InternConst(types.Const{Kind: types.ConstInfer})
	}
	return c.L.Types.InternConst(types.Const{Kind: types.ConstError})
}

// paramIndex returns the flattened index of a generic parameter definition
// within its owner's parameter list.
func (c *ItemContext) paramIndex(param defs.DefID) uint32 {
	owner := c.L.Oracle.Table.Owner(param)
	for owner.IsValid() {
		g := c.L.Oracle.GenericsOf(owner)
		if p := g.ParamByDef(param); p != nil {
			return p.Index
		}
		owner = c.L.Oracle.Table.Owner(owner)
	}
	invariantf("generic parameter %d has no declaring owner", param)
	return 0
}
