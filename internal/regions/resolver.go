package regions

import (
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/oracle"
	"lumen/internal/source"
	"lumen/internal/types"
)

// Resolver computes NamedRegionMaps. Maps are memoized per item; concurrent
// first requests share one computation. A resolver is safe for concurrent use
// once the surface tree and table are fully built.
type Resolver struct {
	B        *ast.Builder
	Oracle   *oracle.Oracle
	Strs     *source.Interner
	Reporter diag.Reporter

	sf   singleflight.Group
	mu   sync.RWMutex
	maps map[defs.DefID]*NamedRegionMap

	objMu       sync.RWMutex
	objDefaults map[defs.DefID][]defs.ObjectDefault
}

func NewResolver(b *ast.Builder, o *oracle.Oracle, strs *source.Interner, rep diag.Reporter) *Resolver {
	return &Resolver{
		B:           b,
		Oracle:      o,
		Strs:        strs,
		Reporter:    rep,
		maps:        make(map[defs.DefID]*NamedRegionMap),
		objDefaults: make(map[defs.DefID][]defs.ObjectDefault),
	}
}

// ResolveItem returns the item's region map, computing and caching it on
// first use. Safe to call concurrently for independent items.
func (r *Resolver) ResolveItem(def defs.DefID) *NamedRegionMap {
	return r.resolve(def, make(map[defs.DefID]bool))
}

func (r *Resolver) resolve(def defs.DefID, visiting map[defs.DefID]bool) *NamedRegionMap {
	r.mu.RLock()
	m, ok := r.maps[def]
	r.mu.RUnlock()
	if ok {
		return m
	}
	if visiting[def] {
		diag.ReportError(r.Reporter, diag.ElabResolutionCycle, r.Oracle.Table.Span(def),
			fmt.Sprintf("cycle detected while resolving lifetimes of %s", r.Oracle.Table.Kind(def))).Emit()
		m := newNamedRegionMap(def)
		m.Tainted = true
		r.store(def, m)
		return m
	}
	v, _, _ := r.sf.Do(strconv.FormatUint(uint64(def), 10), func() (any, error) {
		r.mu.RLock()
		m, ok := r.maps[def]
		r.mu.RUnlock()
		if ok {
			return m, nil
		}
		visiting[def] = true
		defer delete(visiting, def)
		m = r.compute(def, visiting)
		r.store(def, m)
		return m, nil
	})
	return v.(*NamedRegionMap)
}

func (r *Resolver) store(def defs.DefID, m *NamedRegionMap) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.maps[def]; !ok {
		r.maps[def] = m
	}
}

func (r *Resolver) compute(def defs.DefID, visiting map[defs.DefID]bool) *NamedRegionMap {
	// assoc items carry their own defs; items map covers the rest
	if info, ok := r.Oracle.Table.AssocItemOf(def); ok {
		return r.computeAssoc(def, info, visiting)
	}

	itemID := r.Oracle.Table.ItemOf(def)
	item := r.B.Items.Get(itemID)
	if item == nil {
		m := newNamedRegionMap(def)
		return m
	}

	if op, ok := r.B.Items.Opaque(itemID); ok {
		// opaques inherit the defining item's fully resolved map
		parent := r.B.Items.Get(op.Parent)
		if parent != nil && parent.Def.IsValid() {
			pm := r.resolve(parent.Def, visiting)
			return pm.clone(def)
		}
		return newNamedRegionMap(def)
	}

	w := &walkCtx{r: r, m: newNamedRegionMap(def), item: def, visiting: visiting}
	w.push(scope{kind: scopeRoot})
	w.pushOwnerScopes(def)

	switch item.Kind {
	case ast.ItemFn:
		fn, _ := r.B.Items.Fn(itemID)
		w.visitFn(def, fn)
	case ast.ItemStruct:
		st, _ := r.B.Items.Struct(itemID)
		w.visitStruct(def, st)
	case ast.ItemEnum:
		en, _ := r.B.Items.Enum(itemID)
		w.visitEnum(def, en)
	case ast.ItemTrait:
		tr, _ := r.B.Items.Trait(itemID)
		w.visitTrait(def, tr)
	case ast.ItemImpl:
		im, _ := r.B.Items.Impl(itemID)
		w.visitImpl(def, im)
	case ast.ItemTypeAlias:
		al, _ := r.B.Items.TypeAlias(itemID)
		w.visitTypeAlias(def, al)
	case ast.ItemConst:
		c, _ := r.B.Items.Const(itemID)
		w.visitConst(c)
	}
	return w.m
}

func (r *Resolver) computeAssoc(def defs.DefID, info oracle.AssocItemInfo, visiting map[defs.DefID]bool) *NamedRegionMap {
	item := r.B.AssocItems.Get(info.Item)
	if item == nil {
		return newNamedRegionMap(def)
	}
	w := &walkCtx{r: r, m: newNamedRegionMap(def), item: def, visiting: visiting}
	w.push(scope{kind: scopeRoot})
	w.pushOwnerScopes(def)

	switch item.Kind {
	case ast.AssocFn:
		w.visitFn(def, &item.Fn)
	case ast.AssocType:
		w.visitAssocType(def, item)
	case ast.AssocConst:
		w.pushItemBinder(def, &item.Generics, ast.NoBinderID)
		w.pushElision(elide{kind: elideExact, exact: types.ReStatic})
		w.visitTy(item.Value)
		w.pop()
		w.pop()
	}
	return w.m
}

// walkCtx is the per-item resolution walk: the map under construction plus
// the live scope stack.
type walkCtx struct {
	r        *Resolver
	m        *NamedRegionMap
	item     defs.DefID
	stack    []scope
	visiting map[defs.DefID]bool
}

func (w *walkCtx) push(s scope) { w.stack = append(w.stack, s) }

func (w *walkCtx) pop() { w.stack = w.stack[:len(w.stack)-1] }

func (w *walkCtx) pushElision(e elide) {
	w.push(scope{kind: scopeElision, elide: e})
}

func (w *walkCtx) taint() { w.m.Tainted = true }

func (w *walkCtx) lookupName(id source.StringID) string {
	if s, ok := w.r.Strs.Lookup(id); ok {
		return s
	}
	return "'_"
}

// pushOwnerScopes rebuilds the binder chain of the item's lexical parents,
// outermost first. Parent lifetimes are always early-bound.
func (w *walkCtx) pushOwnerScopes(def defs.DefID) {
	var chain []defs.DefID
	for owner := w.r.Oracle.Table.Owner(def); owner.IsValid(); owner = w.r.Oracle.Table.Owner(owner) {
		chain = append(chain, owner)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		owner := chain[i]
		itemID := w.r.Oracle.Table.ItemOf(owner)
		decl := w.r.B.Items.Generics(itemID)
		if decl == nil {
			continue
		}
		w.pushItemBinder(owner, decl, ast.NoBinderID)
		// parent where clauses do not need revisiting here; they are
		// resolved when the parent itself is resolved
	}
}

// pushItemBinder pushes a binder whose lifetimes are all early-bound, with
// indices taken from the definition's flattened generics.
func (w *walkCtx) pushItemBinder(def defs.DefID, decl *ast.GenericsDecl, binder ast.BinderID) {
	sc := binderScope(binder, BinderNormal, false)
	g := w.r.Oracle.GenericsOf(def)
	for i := range decl.Params {
		p := &decl.Params[i]
		if p.Kind != defs.ParamLifetime {
			continue
		}
		idx := uint32(0)
		if pd := g.ParamByDef(p.Def); pd != nil {
			idx = pd.Index
		}
		sc.lifetimes[p.Name] = types.MakeEarlyRegion(idx, p.Def)
	}
	w.push(sc)
}

// item visitors ------------------------------------------------------------

func (w *walkCtx) visitFn(fnDef defs.DefID, fn *ast.FnItem) {
	late := w.lateBoundParams(&fn.Generics, &fn.Sig)
	w.installFnGenerics(fnDef, &fn.Generics, late)

	sc := binderScope(fn.Sig.Binder, BinderNormal, true)
	g := w.r.Oracle.GenericsOf(fnDef)
	var vars []types.BoundVarKind
	for i := range fn.Generics.Params {
		p := &fn.Generics.Params[i]
		if p.Kind != defs.ParamLifetime {
			continue
		}
		if late[p.Def] {
			sc.lifetimes[p.Name] = types.MakeLateRegion(types.Innermost, uint32(len(vars)), p.Def)
			vars = append(vars, types.BoundVarKind{Kind: defs.ParamLifetime, Def: p.Def, Name: p.Name})
			w.m.LateBound[p.Def] = true
		} else {
			idx := uint32(0)
			if pd := g.ParamByDef(p.Def); pd != nil {
				idx = pd.Index
			}
			sc.lifetimes[p.Name] = types.MakeEarlyRegion(idx, p.Def)
		}
	}
	if fn.Sig.Binder.IsValid() {
		w.m.BoundVars[fn.Sig.Binder] = vars
	}
	w.push(sc)
	defer w.pop()

	w.visitWherePredicates(fn.Generics.Where)

	counter := uint32(len(vars))
	w.pushElision(elide{kind: elideFreshLateAnon, binder: fn.Sig.Binder, counter: &counter})
	for i := range fn.Sig.Inputs {
		w.visitTy(fn.Sig.Inputs[i].Ty)
	}
	w.pop()

	w.pushElision(w.outputElision(&fn.Sig))
	w.visitTy(fn.Sig.Output)
	w.pop()

	if fn.Body.IsValid() {
		body := w.r.B.Bodies.Get(fn.Body)
		w.push(scope{kind: scopeBody, bodyOwner: fnDef})
		for _, ty := range body.Types {
			w.visitTy(ty)
		}
		w.pop()
	}
}

func (w *walkCtx) visitStruct(def defs.DefID, st *ast.StructItem) {
	w.pushItemBinder(def, &st.Generics, ast.NoBinderID)
	defer w.pop()
	w.visitWherePredicates(st.Generics.Where)
	w.pushElision(elide{kind: elideForbid})
	defer w.pop()
	for i := range st.Fields {
		w.visitTy(st.Fields[i].Ty)
	}
}

func (w *walkCtx) visitEnum(def defs.DefID, en *ast.EnumItem) {
	w.pushItemBinder(def, &en.Generics, ast.NoBinderID)
	defer w.pop()
	w.visitWherePredicates(en.Generics.Where)
}

func (w *walkCtx) visitTrait(def defs.DefID, tr *ast.TraitItem) {
	w.pushItemBinder(def, &tr.Generics, ast.NoBinderID)
	defer w.pop()
	w.visitWherePredicates(tr.Generics.Where)
	w.push(scope{kind: scopeTraitRefBoundary})
	defer w.pop()
	for i := range tr.Supertraits {
		w.visitBound(&tr.Supertraits[i], BinderNormal)
	}
}

func (w *walkCtx) visitImpl(def defs.DefID, im *ast.ImplItem) {
	w.pushItemBinder(def, &im.Generics, ast.NoBinderID)
	defer w.pop()
	w.visitWherePredicates(im.Generics.Where)
	w.pushElision(elide{kind: elideForbid})
	defer w.pop()
	w.visitTy(im.SelfTy)
	if im.OfTrait != nil {
		w.push(scope{kind: scopeTraitRefBoundary})
		w.visitPolyTraitRef(im.OfTrait, BinderNormal)
		w.pop()
	}
}

func (w *walkCtx) visitTypeAlias(def defs.DefID, al *ast.TypeAliasItem) {
	w.pushItemBinder(def, &al.Generics, ast.NoBinderID)
	defer w.pop()
	w.visitWherePredicates(al.Generics.Where)
	w.pushElision(elide{kind: elideForbid})
	defer w.pop()
	w.visitTy(al.Ty)
}

func (w *walkCtx) visitConst(c *ast.ConstItem) {
	// elided lifetimes of consts and statics default to 'static
	w.pushElision(elide{kind: elideExact, exact: types.ReStatic})
	defer w.pop()
	w.visitTy(c.Ty)
}

func (w *walkCtx) visitAssocType(def defs.DefID, item *ast.AssocItem) {
	w.pushItemBinder(def, &item.Generics, ast.NoBinderID)
	defer w.pop()
	w.visitWherePredicates(item.Generics.Where)
	w.push(scope{kind: scopeTraitRefBoundary})
	for i := range item.Bounds {
		w.visitBound(&item.Bounds[i], BinderNormal)
	}
	w.pop()
	if item.Value.IsValid() {
		w.pushElision(elide{kind: elideForbid})
		w.visitTy(item.Value)
		w.pop()
	}
}

func (w *walkCtx) visitWherePredicates(preds []ast.WherePredicate) {
	for i := range preds {
		p := &preds[i]
		switch p.Kind {
		case ast.PredBound:
			sc := binderScope(p.Binder, BinderNormal, true)
			var vars []types.BoundVarKind
			for j := range p.BoundParams {
				bp := &p.BoundParams[j]
				if bp.Kind != defs.ParamLifetime {
					continue
				}
				sc.lifetimes[bp.Name] = types.MakeLateRegion(types.Innermost, uint32(len(vars)), bp.Def)
				vars = append(vars, types.BoundVarKind{Kind: defs.ParamLifetime, Def: bp.Def, Name: bp.Name})
			}
			if p.Binder.IsValid() {
				w.m.BoundVars[p.Binder] = vars
			}
			w.push(sc)
			w.visitTy(p.Ty)
			for j := range p.Bounds {
				// the where-clause binder and an inner for<> concatenate
				w.visitBound(&p.Bounds[j], BinderConcatenating)
			}
			w.pop()
		case ast.PredRegion:
			w.resolveLifetime(p.Lifetime)
			for _, lt := range p.Regions {
				w.resolveLifetime(lt)
			}
		case ast.PredEq:
			w.visitTy(p.Ty)
			w.visitTy(p.RHS)
		}
	}
}
