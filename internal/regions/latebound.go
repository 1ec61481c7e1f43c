package regions

import (
	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/source"
)

// lateBoundParams classifies a signature's lifetime params. A lifetime is
// early-bound when it is referenced in a where clause or bound, or when it is
// unconstrained by the inputs yet appears in the output. Everything else is
// late-bound. The classification depends only on the signature, never on the
// body.
func (w *walkCtx) lateBoundParams(g *ast.GenericsDecl, sig *ast.FnSig) map[defs.DefID]bool {
	constrained := make(map[source.StringID]bool)
	for i := range sig.Inputs {
		w.collectNames(sig.Inputs[i].Ty, true, constrained)
	}
	inOutput := make(map[source.StringID]bool)
	w.collectNames(sig.Output, false, inOutput)

	inWhere := make(map[source.StringID]bool)
	for i := range g.Where {
		p := &g.Where[i]
		switch p.Kind {
		case ast.PredBound:
			w.collectNames(p.Ty, false, inWhere)
			for j := range p.Bounds {
				w.collectBoundNames(&p.Bounds[j], inWhere)
			}
		case ast.PredRegion:
			w.collectLifetimeName(p.Lifetime, inWhere)
			for _, lt := range p.Regions {
				w.collectLifetimeName(lt, inWhere)
			}
		case ast.PredEq:
			w.collectNames(p.Ty, false, inWhere)
			w.collectNames(p.RHS, false, inWhere)
		}
	}

	late := make(map[defs.DefID]bool)
	for i := range g.Params {
		p := &g.Params[i]
		if p.Kind != defs.ParamLifetime {
			continue
		}
		switch {
		case inWhere[p.Name]:
			// early
		case !constrained[p.Name] && inOutput[p.Name]:
			// early
		default:
			late[p.Def] = true
		}
	}
	return late
}

// collectNames gathers named lifetimes in a type. With skipQualified,
// qualified and type-relative paths contribute nothing: a projection does
// not constrain its lifetime arguments.
func (w *walkCtx) collectNames(ty ast.TypeID, skipQualified bool, into map[source.StringID]bool) {
	walker := ast.Walker{
		B: w.r.B,
		Lifetime: func(id ast.LifetimeID) {
			w.collectLifetimeName(id, into)
		},
	}
	if skipQualified {
		walker.Path = func(id ast.PathID) bool {
			p := w.r.B.Paths.Get(id)
			if p == nil {
				return false
			}
			return !p.SelfTy.IsValid() && p.Res.Kind != ast.ResTypeRelative
		}
	}
	walker.WalkType(ty)
}

func (w *walkCtx) collectBoundNames(b *ast.Bound, into map[source.StringID]bool) {
	switch b.Kind {
	case ast.BoundTrait:
		if b.Trait != nil {
			walker := ast.Walker{
				B: w.r.B,
				Lifetime: func(id ast.LifetimeID) {
					w.collectLifetimeName(id, into)
				},
			}
			walker.WalkPath(b.Trait.Trait)
		}
	case ast.BoundOutlives:
		w.collectLifetimeName(b.Outlives, into)
	}
}

func (w *walkCtx) collectLifetimeName(id ast.LifetimeID, into map[source.StringID]bool) {
	lt := w.r.B.Lifetimes.Get(id)
	if lt != nil && lt.Kind == ast.LifetimeNamed {
		into[lt.Name] = true
	}
}

// installFnGenerics publishes the function's generics once the early/late
// split is known: early lifetimes first, then type and const params, indexed
// after the parent's.
func (w *walkCtx) installFnGenerics(fnDef defs.DefID, decl *ast.GenericsDecl, late map[defs.DefID]bool) {
	if _, ok := w.r.Oracle.Table.InstalledGenerics(fnDef); ok {
		return
	}
	g := &defs.Generics{}
	if owner := w.r.Oracle.Table.Owner(fnDef); owner.IsValid() {
		g.Parent = owner
		g.ParentCount = w.r.Oracle.GenericsOf(owner).Count()
	}
	appendParam := func(p *ast.GenericParam) {
		g.Params = append(g.Params, defs.GenericParamDef{
			ID:         p.Def,
			Name:       p.Name,
			Index:      g.ParentCount + uint32(len(g.Params)),
			Kind:       p.Kind,
			HasDefault: p.Default.IsValid(),
			Synthetic:  p.Synthetic,
		})
	}
	for i := range decl.Params {
		p := &decl.Params[i]
		if p.Kind == defs.ParamLifetime && !late[p.Def] {
			appendParam(p)
		}
	}
	for i := range decl.Params {
		p := &decl.Params[i]
		if p.Kind != defs.ParamLifetime {
			appendParam(p)
		}
	}
	w.r.Oracle.Table.SetGenerics(fnDef, g)
}
