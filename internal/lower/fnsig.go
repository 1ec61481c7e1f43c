package lower

import (
	"fmt"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/types"
)

// Sig is a lowered function signature: inputs then output as one interned
// type list, plus the signature binder's variables.
type Sig struct {
	Tys  types.TysID
	Vars types.BoundVarsID
}

func (s Sig) Inputs(in *types.Interner) []types.TyID {
	tys := in.LookupTys(s.Tys)
	if len(tys) == 0 {
		return nil
	}
	return tys[:len(tys)-1]
}

func (s Sig) Output(in *types.Interner) types.TyID {
	tys := in.LookupTys(s.Tys)
	if len(tys) == 0 {
		return types.NoTyID
	}
	return tys[len(tys)-1]
}

// LowerFnSig lowers a function's signature in the item's own context. Late
// bound lifetimes appearing in the output but in no input are rejected; they
// would be unconstrainable at every call site.
func (c *ItemContext) LowerFnSig(sig *ast.FnSig) Sig {
	tys := make([]types.TyID, 0, len(sig.Inputs)+1)
	for i := range sig.Inputs {
		tys = append(tys, c.LowerTy(sig.Inputs[i].Ty))
	}
	output := c.L.Types.Builtins().Unit
	if sig.Output.IsValid() {
		output = c.LowerTy(sig.Output)
	}
	tys = append(tys, output)

	vars := c.Map.Vars(sig.Binder)
	c.checkConstrainedLateBound(tys[:len(tys)-1], output, vars, sig.Span)

	return Sig{
		Tys:  c.L.Types.InternTys(tys),
		Vars: c.L.Types.InternBoundVars(vars),
	}
}

// checkConstrainedLateBound verifies every binder variable mentioned by the
// output also appears in some input at the same binder level.
func (c *ItemContext) checkConstrainedLateBound(inputs []types.TyID, output types.TyID, vars []types.BoundVarKind, span source.Span) {
	if len(vars) == 0 {
		return
	}
	inInputs := make(map[uint32]bool)
	for _, in := range inputs {
		c.collectBoundRegions(in, 0, inInputs)
	}
	inOutput := make(map[uint32]bool)
	c.collectBoundRegions(output, 0, inOutput)

	for idx := range inOutput {
		if inInputs[idx] || int(idx) >= len(vars) {
			continue
		}
		v := vars[idx]
		name := "an elided lifetime"
		if !v.Anon {
			name = fmt.Sprintf("lifetime %s", c.name(v.Name))
		}
		diag.ReportError(c.L.Reporter, diag.ElabUnconstrainedLateBound, span,
			fmt.Sprintf("return type references %s, which is not constrained by the inputs", name)).Emit()
		c.taint()
	}
}

// collectBoundRegions records the indices of binder variables a type
// references at the given de Bruijn depth. Nested fn pointers and trait
// objects open one level each.
func (c *ItemContext) collectBoundRegions(id types.TyID, depth uint32, out map[uint32]bool) {
	t, ok := c.L.Types.LookupTy(id)
	if !ok {
		return
	}
	see := func(r types.Region) {
		if r.IsBound() && uint32(r.Depth) == depth {
			out[r.Index] = true
		}
	}
	switch t.Kind {
	case types.KindRef:
		see(t.Region)
		c.collectBoundRegions(t.Elem, depth, out)
	case types.KindRawPtr, types.KindSlice, types.KindArray:
		c.collectBoundRegions(t.Elem, depth, out)
	case types.KindTuple:
		for _, e := range c.L.Types.LookupTys(t.Tys) {
			c.collectBoundRegions(e, depth, out)
		}
	case types.KindFnPtr:
		for _, e := range c.L.Types.LookupTys(t.Tys) {
			c.collectBoundRegions(e, depth+1, out)
		}
	case types.KindDynamic:
		see(t.Region)
		for _, p := range c.L.Types.LookupPreds(t.Preds) {
			c.collectBoundArgs(p.Args, depth+1, out)
			if p.Term.IsValid() {
				c.collectBoundRegions(p.Term, depth+1, out)
			}
		}
	case types.KindAdt, types.KindAlias:
		c.collectBoundArgs(t.Args, depth, out)
	}
}

func (c *ItemContext) collectBoundArgs(id types.ArgsID, depth uint32, out map[uint32]bool) {
	for _, a := range c.L.Types.LookupArgs(id) {
		switch a.Kind {
		case types.ArgRegion:
			if a.Region.IsBound() && uint32(a.Region.Depth) == depth {
				out[a.Region.Index] = true
			}
		case types.ArgTy:
			c.collectBoundRegions(a.Ty, depth, out)
		}
	}
}

// LowerFnItem resolves a function definition and lowers its signature.
func (l *Lowerer) LowerFnItem(def defs.DefID) (Sig, *ItemContext) {
	c := l.NewItemContext(def)
	var fn *ast.FnItem
	if item, ok := l.B.Items.Fn(l.Oracle.Table.ItemOf(def)); ok {
		fn = item
	} else if info, ok := l.Oracle.Table.AssocItemOf(def); ok {
		if ai := l.B.AssocItems.Get(info.Item); ai != nil && ai.Kind == ast.AssocFn {
			fn = &ai.Fn
		}
	}
	if fn == nil {
		return Sig{}, c
	}
	return c.LowerFnSig(&fn.Sig), c
}
