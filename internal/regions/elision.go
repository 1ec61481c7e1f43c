package regions

import (
	"lumen/internal/ast"
	"lumen/internal/source"
	"lumen/internal/types"
)

// outputElision decides the policy for elided lifetimes in a signature's
// output, after the inputs have been resolved.
//
// The receiver rule wins: for a by-reference self whose referent is the
// declared Self type, elided outputs take self's lifetime. Otherwise, when
// the inputs together contain exactly one lifetime occurring exactly once,
// elided outputs take it; any other shape is an error carrying per-argument
// candidate counts.
func (w *walkCtx) outputElision(sig *ast.FnSig) elide {
	if sig.Self.IsRef() && len(sig.Inputs) > 0 && w.isSelfReceiver(sig.Inputs[0].Ty) {
		if rg, ok := w.m.Region(sig.SelfLifetime); ok && !rg.IsError() {
			return elide{kind: elideExact, exact: rg}
		}
	}
	var inputs []inputArg
	for i := range sig.Inputs {
		inputs = append(inputs, inputArg{ty: sig.Inputs[i].Ty, span: sig.Inputs[i].Span})
	}
	return w.elisionFromInputs(inputs)
}

func (w *walkCtx) fnPtrOutputElision(fp *ast.FnPtrType) elide {
	var inputs []inputArg
	for _, in := range fp.Inputs {
		span := w.r.B.Types.Get(in).Span
		inputs = append(inputs, inputArg{ty: in, span: span})
	}
	return w.elisionFromInputs(inputs)
}

type inputArg struct {
	ty   ast.TypeID
	span source.Span
}

func (w *walkCtx) elisionFromInputs(inputs []inputArg) elide {
	total := 0
	var only types.Region
	candidates := make([]ElisionFailureInfo, 0, len(inputs))
	for i, in := range inputs {
		g := &lifetimeGatherer{w: w}
		g.ty(in.ty)
		total += g.count
		if g.count > 0 {
			only = g.first
		}
		candidates = append(candidates, ElisionFailureInfo{
			Index:            i,
			LifetimeCount:    g.count,
			HaveBoundRegions: g.haveBound,
			Span:             in.span,
		})
	}
	if total == 1 {
		return elide{kind: elideExact, exact: only}
	}
	return elide{kind: elideError, candidates: candidates}
}

// isSelfReceiver checks that a receiver type is a reference whose referent is
// the declared Self type.
func (w *walkCtx) isSelfReceiver(ty ast.TypeID) bool {
	ref, ok := w.r.B.Types.Ref(ty)
	if !ok {
		return false
	}
	p, ok := w.r.B.Types.Path(ref.Elem)
	if !ok {
		return false
	}
	path := w.r.B.Paths.Get(p.Path)
	if path == nil {
		return false
	}
	return path.Res.Kind == ast.ResSelfTyParam || path.Res.Kind == ast.ResSelfTyAlias
}

// lifetimeGatherer counts the lifetimes one input type mentions. Lifetimes
// under a nested binder are only flagged, never counted: they cannot serve
// as elision targets.
type lifetimeGatherer struct {
	w         *walkCtx
	count     int
	first     types.Region
	haveBound bool
	binders   int
}

func (g *lifetimeGatherer) lifetime(id ast.LifetimeID) {
	if !id.IsValid() {
		return
	}
	if g.binders > 0 {
		g.haveBound = true
		return
	}
	rg, ok := g.w.m.Region(id)
	if !ok {
		return
	}
	if g.count == 0 {
		g.first = rg
	}
	g.count++
}

func (g *lifetimeGatherer) ty(id ast.TypeID) {
	if !id.IsValid() {
		return
	}
	b := g.w.r.B
	te := b.Types.Get(id)
	if te == nil {
		return
	}
	switch te.Kind {
	case ast.TypeExprPath:
		p, _ := b.Types.Path(id)
		g.path(p.Path)
	case ast.TypeExprRef:
		ref, _ := b.Types.Ref(id)
		g.lifetime(ref.Lifetime)
		g.ty(ref.Elem)
	case ast.TypeExprRawPtr:
		ptr, _ := b.Types.RawPtr(id)
		g.ty(ptr.Elem)
	case ast.TypeExprSlice:
		s, _ := b.Types.Slice(id)
		g.ty(s.Elem)
	case ast.TypeExprArray:
		a, _ := b.Types.Array(id)
		g.ty(a.Elem)
	case ast.TypeExprTuple:
		tp, _ := b.Types.Tuple(id)
		for _, e := range tp.Elems {
			g.ty(e)
		}
	case ast.TypeExprFnPtr:
		fp, _ := b.Types.FnPtr(id)
		g.binders++
		for _, in := range fp.Inputs {
			g.ty(in)
		}
		g.ty(fp.Output)
		g.binders--
	case ast.TypeExprTraitObject:
		obj, _ := b.Types.TraitObject(id)
		g.binders++
		for i := range obj.Bounds {
			g.path(obj.Bounds[i].Trait)
		}
		g.binders--
		g.lifetime(obj.Lifetime)
	case ast.TypeExprImplTrait:
		it, _ := b.Types.ImplTrait(id)
		if op, ok := b.Items.Opaque(it.Opaque); ok {
			for i := range op.Bounds {
				if op.Bounds[i].Kind == ast.BoundTrait {
					g.path(op.Bounds[i].Trait.Trait)
				} else {
					g.lifetime(op.Bounds[i].Outlives)
				}
			}
		}
	}
}

func (g *lifetimeGatherer) path(id ast.PathID) {
	p := g.w.r.B.Paths.Get(id)
	if p == nil {
		return
	}
	g.ty(p.SelfTy)
	for i := range p.Segments {
		args := p.Segments[i].Args
		if args == nil {
			continue
		}
		for _, a := range args.Args {
			switch a.Kind {
			case ast.ArgLifetime:
				g.lifetime(a.Lifetime)
			case ast.ArgType:
				g.ty(a.Type)
			}
		}
		for j := range args.Bindings {
			g.ty(args.Bindings[j].Type)
		}
	}
}
