package regions

import (
	"fmt"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/types"
)

func (w *walkCtx) visitTy(id ast.TypeID) {
	if !id.IsValid() {
		return
	}
	te := w.r.B.Types.Get(id)
	if te == nil {
		return
	}
	switch te.Kind {
	case ast.TypeExprPath:
		p, _ := w.r.B.Types.Path(id)
		w.visitPath(p.Path)
	case ast.TypeExprRef:
		ref, _ := w.r.B.Types.Ref(id)
		w.resolveLifetime(ref.Lifetime)
		// the reference's lifetime becomes the object default of its referent
		sc := scope{kind: scopeObjectDefault}
		if rg, ok := w.m.Region(ref.Lifetime); ok {
			sc.objSet = true
			sc.objRegion = rg
		}
		w.push(sc)
		w.visitTy(ref.Elem)
		w.pop()
	case ast.TypeExprRawPtr:
		ptr, _ := w.r.B.Types.RawPtr(id)
		w.push(scope{kind: scopeObjectDefault, objSet: true, objRegion: types.ReStatic})
		w.visitTy(ptr.Elem)
		w.pop()
	case ast.TypeExprSlice:
		s, _ := w.r.B.Types.Slice(id)
		w.visitTy(s.Elem)
	case ast.TypeExprArray:
		a, _ := w.r.B.Types.Array(id)
		w.visitTy(a.Elem)
	case ast.TypeExprTuple:
		tp, _ := w.r.B.Types.Tuple(id)
		for _, e := range tp.Elems {
			w.visitTy(e)
		}
	case ast.TypeExprFnPtr:
		fp, _ := w.r.B.Types.FnPtr(id)
		w.visitFnPtr(fp)
	case ast.TypeExprTraitObject:
		obj, _ := w.r.B.Types.TraitObject(id)
		w.visitTraitObject(obj)
	case ast.TypeExprImplTrait:
		it, _ := w.r.B.Types.ImplTrait(id)
		w.visitImplTrait(it, te)
	}
}

func (w *walkCtx) visitFnPtr(fp *ast.FnPtrType) {
	sc := binderScope(fp.Binder, BinderNormal, true)
	var vars []types.BoundVarKind
	for i := range fp.BoundParams {
		p := &fp.BoundParams[i]
		if p.Kind != defs.ParamLifetime {
			continue
		}
		sc.lifetimes[p.Name] = types.MakeLateRegion(types.Innermost, uint32(len(vars)), p.Def)
		vars = append(vars, types.BoundVarKind{Kind: defs.ParamLifetime, Def: p.Def, Name: p.Name})
	}
	if fp.Binder.IsValid() {
		w.m.BoundVars[fp.Binder] = vars
	}
	w.push(sc)
	defer w.pop()

	counter := uint32(len(vars))
	w.pushElision(elide{kind: elideFreshLateAnon, binder: fp.Binder, counter: &counter})
	for _, in := range fp.Inputs {
		w.visitTy(in)
	}
	w.pop()

	w.pushElision(w.fnPtrOutputElision(fp))
	w.visitTy(fp.Output)
	w.pop()
}

func (w *walkCtx) visitTraitObject(obj *ast.TraitObjectType) {
	w.push(scope{kind: scopeTraitRefBoundary})
	for i := range obj.Bounds {
		st := BinderNormal
		if i > 0 {
			// all object bounds share one conceptual binder level
			st = BinderConcatenating
		}
		w.visitPolyTraitRef(&obj.Bounds[i], st)
	}
	w.pop()
	lt := w.r.B.Lifetimes.Get(obj.Lifetime)
	if lt != nil && lt.Kind == ast.LifetimeObjectDefault {
		w.resolveObjectLifetime(obj.Lifetime)
	} else {
		w.resolveLifetime(obj.Lifetime)
	}
}

func (w *walkCtx) visitImplTrait(it *ast.ImplTraitType, te *ast.TypeExpr) {
	op, ok := w.r.B.Items.Opaque(it.Opaque)
	if !ok {
		return
	}
	if op.Origin == ast.OpaqueArg {
		// argument-position impl Trait cannot name elided lifetimes
		w.pushElision(elide{kind: elideForbid})
		defer w.pop()
	}
	for i := range op.Bounds {
		w.visitBound(&op.Bounds[i], BinderNormal)
	}
}

func (w *walkCtx) visitBound(b *ast.Bound, st BinderScopeType) {
	switch b.Kind {
	case ast.BoundTrait:
		w.visitPolyTraitRef(b.Trait, st)
	case ast.BoundOutlives:
		w.resolveLifetime(b.Outlives)
	}
}

// visitPolyTraitRef pushes the trait ref's own binder. Concatenating binders
// extend the enclosing binder's variable list instead of opening a new de
// Bruijn level.
func (w *walkCtx) visitPolyTraitRef(ptr *ast.PolyTraitRef, st BinderScopeType) {
	if ptr == nil {
		return
	}
	var prefix []types.BoundVarKind
	if st == BinderConcatenating {
		prefix = w.enclosingBinderVars()
	}
	sc := binderScope(ptr.Binder, st, true)
	vars := append([]types.BoundVarKind(nil), prefix...)
	for i := range ptr.BoundParams {
		p := &ptr.BoundParams[i]
		if p.Kind != defs.ParamLifetime {
			continue
		}
		sc.lifetimes[p.Name] = types.MakeLateRegion(types.Innermost, uint32(len(vars)), p.Def)
		vars = append(vars, types.BoundVarKind{Kind: defs.ParamLifetime, Def: p.Def, Name: p.Name})
	}
	if ptr.Binder.IsValid() {
		w.m.BoundVars[ptr.Binder] = vars
	}
	w.push(sc)
	w.visitPath(ptr.Trait)
	w.pop()
}

// enclosingBinderVars collects the variable list a concatenating binder
// extends: the nearest binder's vars plus any supertrait extras above it.
func (w *walkCtx) enclosingBinderVars() []types.BoundVarKind {
	var extras []types.BoundVarKind
	for i := len(w.stack) - 1; i >= 0; i-- {
		sc := &w.stack[i]
		switch sc.kind {
		case scopeSupertrait:
			extras = append(extras, sc.extraVars...)
		case scopeBinder:
			out := append([]types.BoundVarKind(nil), w.m.BoundVars[sc.binder]...)
			return append(out, extras...)
		case scopeTraitRefBoundary, scopeRoot:
			return extras
		}
	}
	return extras
}

func (w *walkCtx) visitPath(id ast.PathID) {
	if !id.IsValid() {
		return
	}
	p := w.r.B.Paths.Get(id)
	if p == nil {
		return
	}
	w.visitTy(p.SelfTy)
	for i := range p.Segments {
		seg := &p.Segments[i]
		var segDef defs.DefID
		if i == 0 && p.Res.Kind == ast.ResDef {
			segDef = p.Res.Def
		}
		w.visitSegmentArgs(segDef, seg.Args)
	}
}

// visitSegmentArgs resolves the lifetime args of one segment, then visits
// type args under the object lifetime default their formal parameter
// declares, then handles associated bindings.
func (w *walkCtx) visitSegmentArgs(def defs.DefID, args *ast.GenericArgs) {
	if args == nil {
		return
	}
	var lifetimeArgs []types.Region
	for _, a := range args.Args {
		if a.Kind != ast.ArgLifetime {
			continue
		}
		w.resolveLifetime(a.Lifetime)
		if rg, ok := w.m.Region(a.Lifetime); ok {
			lifetimeArgs = append(lifetimeArgs, rg)
		} else {
			lifetimeArgs = append(lifetimeArgs, types.ReError)
		}
	}

	var objDefaults []defs.ObjectDefault
	var ownLifetimes []defs.DefID
	if def.IsValid() {
		objDefaults = w.r.ObjectDefaultsOf(def)
		g := w.r.Oracle.GenericsOf(def)
		for i := range g.Params {
			if g.Params[i].Kind == defs.ParamLifetime {
				ownLifetimes = append(ownLifetimes, g.Params[i].ID)
			}
		}
	}

	typeIdx := 0
	for _, a := range args.Args {
		switch a.Kind {
		case ast.ArgType:
			sc := scope{kind: scopeObjectDefault}
			if typeIdx < len(objDefaults) {
				switch d := objDefaults[typeIdx]; d.Kind {
				case defs.ObjectDefaultStatic:
					sc.objSet = true
					sc.objRegion = types.ReStatic
				case defs.ObjectDefaultParam:
					if rg, ok := w.lifetimeArgFor(d.Param, ownLifetimes, lifetimeArgs); ok {
						sc.objSet = true
						sc.objRegion = rg
					}
				case defs.ObjectDefaultAmbiguous:
					sc.objSet = true
					sc.objRegion = types.ReError
					sc.objAmbiguous = true
				}
			}
			w.push(sc)
			w.visitTy(a.Type)
			w.pop()
			typeIdx++
		case ast.ArgConst, ast.ArgInfer:
			typeIdx++
		}
	}

	for i := range args.Bindings {
		w.visitBinding(def, &args.Bindings[i])
	}
}

// lifetimeArgFor maps a formal lifetime param to the region supplied for it
// at this use site.
func (w *walkCtx) lifetimeArgFor(param defs.DefID, ownLifetimes []defs.DefID, supplied []types.Region) (types.Region, bool) {
	for i, def := range ownLifetimes {
		if def == param {
			if i < len(supplied) {
				return supplied[i], true
			}
			return types.Region{}, false
		}
	}
	return types.Region{}, false
}

// visitBinding handles `Item = T` and `Item: Bound`. The bound-variable list
// in scope for the binding is the enclosing binder's vars concatenated with
// vars introduced along the super-predicate path to the trait defining Item.
func (w *walkCtx) visitBinding(trait defs.DefID, b *ast.AssocBinding) {
	var extras []types.BoundVarKind
	if trait.IsValid() && w.r.Oracle.Table.Kind(trait) == defs.DefTrait {
		if _, vars, ok := w.supertraitDefining(trait, b.Name, ast.AssocType); ok {
			extras = vars
		}
	}
	w.push(scope{kind: scopeSupertrait, extraVars: extras})
	defer w.pop()
	w.visitTy(b.Type)
	for i := range b.Bounds {
		w.visitBound(&b.Bounds[i], BinderConcatenating)
	}
}

// lifetime resolution -------------------------------------------------------

// resolveLifetime resolves one lifetime use against the scope chain. De
// Bruijn depth grows only across Normal binders. A late-bound lifetime
// referenced from inside its function's body converts to a free region.
func (w *walkCtx) resolveLifetime(id ast.LifetimeID) {
	if !id.IsValid() {
		return
	}
	lt := w.r.B.Lifetimes.Get(id)
	if lt == nil {
		return
	}
	switch lt.Kind {
	case ast.LifetimeStatic:
		w.m.record(id, types.ReStatic)
		return
	case ast.LifetimeAnon, ast.LifetimeImplicit:
		w.resolveElided(id)
		return
	case ast.LifetimeObjectDefault:
		w.resolveObjectLifetime(id)
		return
	}

	depth := uint32(0)
	var bodyOwner defs.DefID
	for i := len(w.stack) - 1; i >= 0; i-- {
		sc := &w.stack[i]
		switch sc.kind {
		case scopeBinder:
			if rg, ok := sc.lifetimes[lt.Name]; ok {
				rg = rg.Shifted(depth)
				if bodyOwner.IsValid() && rg.Kind == types.RegionLate {
					rg = types.MakeFreeRegion(bodyOwner, rg.Def)
				}
				w.m.record(id, rg)
				return
			}
			if sc.scopeType == BinderNormal {
				depth++
			}
		case scopeBody:
			if !bodyOwner.IsValid() {
				bodyOwner = sc.bodyOwner
			}
		}
	}
	diag.ReportError(w.r.Reporter, diag.ElabUndeclaredLifetime, lt.Span,
		fmt.Sprintf("use of undeclared lifetime name %s", w.lookupName(lt.Name))).Emit()
	w.m.record(id, types.ReError)
	w.taint()
}

// resolveElided consults the nearest elision scope. Inside a body, elided
// lifetimes are left to inference.
func (w *walkCtx) resolveElided(id ast.LifetimeID) {
	lt := w.r.B.Lifetimes.Get(id)
	depth := uint32(0)
	for i := len(w.stack) - 1; i >= 0; i-- {
		sc := &w.stack[i]
		switch sc.kind {
		case scopeBody:
			return
		case scopeBinder:
			if sc.scopeType == BinderNormal {
				depth++
			}
		case scopeElision:
			w.applyElide(id, lt, &sc.elide, depth)
			return
		}
	}
	diag.ReportError(w.r.Reporter, diag.ElabMissingLifetime, lt.Span,
		"missing lifetime specifier").Emit()
	w.m.record(id, types.ReError)
	w.taint()
}

func (w *walkCtx) applyElide(id ast.LifetimeID, lt *ast.Lifetime, e *elide, depth uint32) {
	switch e.kind {
	case elideFreshLateAnon:
		idx := *e.counter
		*e.counter++
		w.m.record(id, types.MakeLateAnonRegion(types.DebruijnIndex(depth), idx))
		if e.binder.IsValid() {
			w.m.BoundVars[e.binder] = append(w.m.BoundVars[e.binder],
				types.BoundVarKind{Kind: defs.ParamLifetime, Anon: true})
		}
	case elideExact:
		w.m.record(id, e.exact.Shifted(depth))
	case elideError:
		b := diag.ReportError(w.r.Reporter, diag.ElabMissingLifetime, lt.Span,
			w.elisionErrorMessage(e.candidates))
		for _, c := range e.candidates {
			b.WithNote(c.Span, fmt.Sprintf("argument %d has %d lifetime(s)", c.Index+1, c.LifetimeCount))
		}
		b.Emit()
		w.m.record(id, types.ReError)
		w.taint()
	case elideForbid:
		diag.ReportError(w.r.Reporter, diag.ElabElisionForbidden, lt.Span,
			"lifetime elision is not allowed here; write an explicit lifetime").Emit()
		w.m.record(id, types.ReError)
		w.taint()
	}
}

func (w *walkCtx) elisionErrorMessage(cands []ElisionFailureInfo) string {
	total := 0
	for _, c := range cands {
		total += c.LifetimeCount
	}
	if total == 0 {
		return "missing lifetime specifier: the signature has no input lifetimes to elide from"
	}
	return fmt.Sprintf("missing lifetime specifier: the signature's inputs contain %d lifetimes, so the output lifetime cannot be elided", total)
}

// resolveObjectLifetime finds the implicit bound of an unbounded trait
// object: the nearest object-default scope wins; with none (or an empty
// default), 'static outside a body, inference inside.
func (w *walkCtx) resolveObjectLifetime(id ast.LifetimeID) {
	lt := w.r.B.Lifetimes.Get(id)
	depth := uint32(0)
	pending := false
	for i := len(w.stack) - 1; i >= 0; i-- {
		sc := &w.stack[i]
		switch sc.kind {
		case scopeBinder:
			if !pending && sc.scopeType == BinderNormal {
				depth++
			}
		case scopeBody:
			// inference decides
			return
		case scopeObjectDefault:
			if pending {
				continue
			}
			if sc.objSet {
				if sc.objAmbiguous {
					diag.ReportError(w.r.Reporter, diag.ElabAmbiguousObjectBound, lt.Span,
						"ambiguous object lifetime default; write the bound explicitly").Emit()
					w.m.record(id, types.ReError)
					w.taint()
					return
				}
				w.m.record(id, sc.objRegion.Shifted(depth))
				return
			}
			pending = true
		}
	}
	w.m.record(id, types.ReStatic)
}
