package regions

import (
	"testing"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/oracle"
	"lumen/internal/source"
	"lumen/internal/types"
)

// fixture wires a builder, table and resolver around a virtual file.
type fixture struct {
	b    *ast.Builder
	tbl  *oracle.Table
	orc  *oracle.Oracle
	strs *source.Interner
	bag  *diag.Bag
	res  *Resolver
	sp   source.Span
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.AddVirtual("fixture.lm", nil)
	strs := source.NewInterner()
	b := ast.NewBuilder(ast.Hints{})
	tbl := oracle.NewTable()
	bag := diag.NewBag(64)
	fx := &fixture{
		b:    b,
		tbl:  tbl,
		orc:  oracle.New(tbl, b),
		strs: strs,
		bag:  bag,
		sp:   source.Span{File: fid},
	}
	fx.res = NewResolver(b, fx.orc, strs, diag.BagReporter{Bag: bag})
	return fx
}

func (fx *fixture) strTy() ast.TypeID {
	path := fx.b.Paths.New(ast.Path{
		Segments: []ast.PathSegment{{Name: fx.strs.Intern("str"), Span: fx.sp}},
		Res:      ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimStr},
		Span:     fx.sp,
	})
	return fx.b.Types.NewPath(path, fx.sp)
}

func (fx *fixture) refTo(lt ast.LifetimeID, elem ast.TypeID) ast.TypeID {
	return fx.b.Types.NewRef(lt, false, elem, fx.sp)
}

func (fx *fixture) implicitLt() ast.LifetimeID {
	return fx.b.Lifetimes.New(ast.LifetimeImplicit, source.NoStringID, fx.sp)
}

func (fx *fixture) namedLt(name string) ast.LifetimeID {
	return fx.b.Lifetimes.New(ast.LifetimeNamed, fx.strs.Intern(name), fx.sp)
}

func (fx *fixture) lifetimeParam(name string, owner defs.DefID) ast.GenericParam {
	id := fx.strs.Intern(name)
	def := fx.tbl.NewDef(defs.DefLifetimeParam, id, fx.sp, owner)
	return ast.GenericParam{Def: def, Name: id, Kind: defs.ParamLifetime, Span: fx.sp}
}

func (fx *fixture) newFn(name string, generics ast.GenericsDecl, sig ast.FnSig) defs.DefID {
	def := fx.tbl.NewDef(defs.DefFn, fx.strs.Intern(name), fx.sp, defs.NoDefID)
	item := fx.b.Items.NewFn(ast.FnItem{
		Name:     fx.strs.Intern(name),
		Generics: generics,
		Sig:      sig,
		Span:     fx.sp,
	})
	fx.b.Items.SetDef(item, def)
	fx.tbl.BindItem(def, item)
	return def
}

func TestElisionSingleInputLifetime(t *testing.T) {
	fx := newFixture(t)

	ltIn := fx.implicitLt()
	ltOut := fx.implicitLt()
	sig := ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{{Ty: fx.refTo(ltIn, fx.strTy()), Span: fx.sp}},
		Output: fx.refTo(ltOut, fx.strTy()),
	}
	def := fx.newFn("f", ast.GenericsDecl{}, sig)

	m := fx.res.ResolveItem(def)
	in, ok := m.Region(ltIn)
	if !ok {
		t.Fatalf("input lifetime not resolved")
	}
	if in.Kind != types.RegionLateAnon {
		t.Fatalf("elided input must be a fresh late anon var, got %+v", in)
	}
	out, ok := m.Region(ltOut)
	if !ok {
		t.Fatalf("output lifetime not resolved")
	}
	if out != in {
		t.Fatalf("output must reuse the single input lifetime: in=%+v out=%+v", in, out)
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestElisionTwoInputsFails(t *testing.T) {
	fx := newFixture(t)

	ltX := fx.implicitLt()
	ltY := fx.implicitLt()
	ltOut := fx.implicitLt()
	sig := ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{
			{Ty: fx.refTo(ltX, fx.strTy()), Span: fx.sp},
			{Ty: fx.refTo(ltY, fx.strTy()), Span: fx.sp},
		},
		Output: fx.refTo(ltOut, fx.strTy()),
	}
	def := fx.newFn("g", ast.GenericsDecl{}, sig)

	m := fx.res.ResolveItem(def)
	out, ok := m.Region(ltOut)
	if !ok || !out.IsError() {
		t.Fatalf("ambiguous elision must resolve to the error region, got %+v", out)
	}
	if !m.Tainted {
		t.Fatalf("item must be tainted after elision failure")
	}
	found := false
	for _, d := range fx.bag.Items() {
		if d.Code == diag.ElabMissingLifetime {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ElabMissingLifetime, got %+v", fx.bag.Items())
	}
}

func TestSelfElisionPriority(t *testing.T) {
	fx := newFixture(t)

	selfPath := fx.b.Paths.New(ast.Path{
		Segments: []ast.PathSegment{{Name: fx.strs.Intern("Self"), Span: fx.sp}},
		Res:      ast.Res{Kind: ast.ResSelfTyAlias},
		Span:     fx.sp,
	})
	selfTy := fx.b.Types.NewPath(selfPath, fx.sp)

	ltSelf := fx.implicitLt()
	ltOther := fx.implicitLt()
	ltOut := fx.implicitLt()
	sig := ast.FnSig{
		Binder:       fx.b.Binders.New(fx.sp),
		Self:         ast.SelfRef,
		SelfLifetime: ltSelf,
		Inputs: []ast.FnParam{
			{Ty: fx.refTo(ltSelf, selfTy), Span: fx.sp},
			{Ty: fx.refTo(ltOther, fx.strTy()), Span: fx.sp},
		},
		Output: fx.refTo(ltOut, fx.strTy()),
	}
	def := fx.newFn("m", ast.GenericsDecl{}, sig)

	m := fx.res.ResolveItem(def)
	selfRg, _ := m.Region(ltSelf)
	out, ok := m.Region(ltOut)
	if !ok {
		t.Fatalf("output lifetime not resolved")
	}
	if out != selfRg {
		t.Fatalf("output must take self's lifetime: self=%+v out=%+v", selfRg, out)
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestEarlyLateClassification(t *testing.T) {
	fx := newFixture(t)

	// fn f<'a>(x: &'a str) where 'a: 'a  -> 'a is early-bound
	pa := fx.lifetimeParam("'a", defs.NoDefID)
	use1 := fx.namedLt("'a")
	whereLt := fx.namedLt("'a")
	whereBound := fx.namedLt("'a")
	sigEarly := ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{{Ty: fx.refTo(use1, fx.strTy()), Span: fx.sp}},
	}
	early := fx.newFn("f", ast.GenericsDecl{
		Params: []ast.GenericParam{pa},
		Where: []ast.WherePredicate{{
			Kind:     ast.PredRegion,
			Lifetime: whereLt,
			Regions:  []ast.LifetimeID{whereBound},
			Span:     fx.sp,
		}},
	}, sigEarly)

	m := fx.res.ResolveItem(early)
	rg, _ := m.Region(use1)
	if rg.Kind != types.RegionEarly {
		t.Fatalf("where-referenced lifetime must be early-bound, got %+v", rg)
	}
	if m.LateBound[pa.Def] {
		t.Fatalf("'a must not be classified late-bound")
	}

	// fn g<'b>(x: &'b str)  -> 'b is late-bound
	fx2 := newFixture(t)
	pb := fx2.lifetimeParam("'b", defs.NoDefID)
	use2 := fx2.namedLt("'b")
	sigLate := ast.FnSig{
		Binder: fx2.b.Binders.New(fx2.sp),
		Inputs: []ast.FnParam{{Ty: fx2.refTo(use2, fx2.strTy()), Span: fx2.sp}},
	}
	late := fx2.newFn("g", ast.GenericsDecl{Params: []ast.GenericParam{pb}}, sigLate)

	m2 := fx2.res.ResolveItem(late)
	rg2, _ := m2.Region(use2)
	if rg2.Kind != types.RegionLate {
		t.Fatalf("signature-only lifetime must be late-bound, got %+v", rg2)
	}
	if !m2.LateBound[pb.Def] {
		t.Fatalf("'b must be classified late-bound")
	}
}

func TestHRTBDepth(t *testing.T) {
	fx := newFixture(t)

	// fn h<'a>(x: &'a str, f: fn(&'a str)) - the use under the fn pointer
	// binder is one de Bruijn level deeper.
	pa := fx.lifetimeParam("'a", defs.NoDefID)
	outerUse := fx.namedLt("'a")
	innerUse := fx.namedLt("'a")

	fnPtr := fx.b.Types.NewFnPtr(ast.FnPtrType{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.TypeID{fx.refTo(innerUse, fx.strTy())},
	}, fx.sp)

	sig := ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{
			{Ty: fx.refTo(outerUse, fx.strTy()), Span: fx.sp},
			{Ty: fnPtr, Span: fx.sp},
		},
	}
	def := fx.newFn("h", ast.GenericsDecl{Params: []ast.GenericParam{pa}}, sig)

	m := fx.res.ResolveItem(def)
	outer, _ := m.Region(outerUse)
	inner, _ := m.Region(innerUse)
	if outer.Kind != types.RegionLate || inner.Kind != types.RegionLate {
		t.Fatalf("expected late-bound uses, got outer=%+v inner=%+v", outer, inner)
	}
	if inner.Depth != outer.Depth+1 {
		t.Fatalf("inner use must be one level deeper: outer=%d inner=%d", outer.Depth, inner.Depth)
	}
	if inner.Def != outer.Def || inner.Index != outer.Index {
		t.Fatalf("both uses must name the same variable")
	}
}

func TestObjectDefaultFromRef(t *testing.T) {
	fx := newFixture(t)

	// struct S<'a> { x: &'a dyn Debug } - the object bound defaults to 'a.
	owner := fx.tbl.NewDef(defs.DefStruct, fx.strs.Intern("S"), fx.sp, defs.NoDefID)
	pa := fx.lifetimeParam("'a", owner)

	traitDef := fx.tbl.NewDef(defs.DefTrait, fx.strs.Intern("Debug"), fx.sp, defs.NoDefID)
	traitItem := fx.b.Items.NewTrait(ast.TraitItem{Name: fx.strs.Intern("Debug"), Span: fx.sp})
	fx.b.Items.SetDef(traitItem, traitDef)
	fx.tbl.BindItem(traitDef, traitItem)

	objLt := fx.b.Lifetimes.New(ast.LifetimeObjectDefault, source.NoStringID, fx.sp)
	dyn := fx.b.Types.NewTraitObject(ast.TraitObjectType{
		Bounds: []ast.PolyTraitRef{{
			Binder: fx.b.Binders.New(fx.sp),
			Trait: fx.b.Paths.New(ast.Path{
				Segments: []ast.PathSegment{{Name: fx.strs.Intern("Debug"), Span: fx.sp}},
				Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: traitDef},
				Span:     fx.sp,
			}),
			Span: fx.sp,
		}},
		Lifetime: objLt,
	}, fx.sp)

	refLt := fx.namedLt("'a")
	field := fx.refTo(refLt, dyn)

	item := fx.b.Items.NewStruct(ast.StructItem{
		Name:     fx.strs.Intern("S"),
		Generics: ast.GenericsDecl{Params: []ast.GenericParam{pa}},
		Fields:   []ast.FnParam{{Ty: field, Span: fx.sp}},
		Span:     fx.sp,
	})
	fx.b.Items.SetDef(item, owner)
	fx.tbl.BindItem(owner, item)

	m := fx.res.ResolveItem(owner)
	refRg, _ := m.Region(refLt)
	objRg, ok := m.Region(objLt)
	if !ok {
		t.Fatalf("object lifetime not resolved")
	}
	if objRg != refRg {
		t.Fatalf("object bound must default to the reference's lifetime: ref=%+v obj=%+v", refRg, objRg)
	}
}

func TestObjectDefaultStaticAtRoot(t *testing.T) {
	fx := newFixture(t)

	// struct T { x: Box<dyn Debug> } with Box's param unbounded - 'static.
	boxDef := fx.tbl.NewDef(defs.DefStruct, fx.strs.Intern("Box"), fx.sp, defs.NoDefID)
	tParam := fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("T"), fx.sp, boxDef)
	boxItem := fx.b.Items.NewStruct(ast.StructItem{
		Name: fx.strs.Intern("Box"),
		Generics: ast.GenericsDecl{Params: []ast.GenericParam{{
			Def: tParam, Name: fx.strs.Intern("T"), Kind: defs.ParamType, Span: fx.sp,
		}}},
		Span: fx.sp,
	})
	fx.b.Items.SetDef(boxItem, boxDef)
	fx.tbl.BindItem(boxDef, boxItem)

	traitDef := fx.tbl.NewDef(defs.DefTrait, fx.strs.Intern("Debug"), fx.sp, defs.NoDefID)
	traitItem := fx.b.Items.NewTrait(ast.TraitItem{Name: fx.strs.Intern("Debug"), Span: fx.sp})
	fx.b.Items.SetDef(traitItem, traitDef)
	fx.tbl.BindItem(traitDef, traitItem)

	objLt := fx.b.Lifetimes.New(ast.LifetimeObjectDefault, source.NoStringID, fx.sp)
	dyn := fx.b.Types.NewTraitObject(ast.TraitObjectType{
		Bounds: []ast.PolyTraitRef{{
			Binder: fx.b.Binders.New(fx.sp),
			Trait: fx.b.Paths.New(ast.Path{
				Segments: []ast.PathSegment{{Name: fx.strs.Intern("Debug"), Span: fx.sp}},
				Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: traitDef},
				Span:     fx.sp,
			}),
			Span: fx.sp,
		}},
		Lifetime: objLt,
	}, fx.sp)

	boxed := fx.b.Types.NewPath(fx.b.Paths.New(ast.Path{
		Segments: []ast.PathSegment{{
			Name: fx.strs.Intern("Box"),
			Args: &ast.GenericArgs{Args: []ast.GenericArg{{Kind: ast.ArgType, Type: dyn, Span: fx.sp}}},
			Span: fx.sp,
		}},
		Res:  ast.Res{Kind: ast.ResDef, DefKind: defs.DefStruct, Def: boxDef},
		Span: fx.sp,
	}), fx.sp)

	owner := fx.tbl.NewDef(defs.DefStruct, fx.strs.Intern("T"), fx.sp, defs.NoDefID)
	item := fx.b.Items.NewStruct(ast.StructItem{
		Name:   fx.strs.Intern("T"),
		Fields: []ast.FnParam{{Ty: boxed, Span: fx.sp}},
		Span:   fx.sp,
	})
	fx.b.Items.SetDef(item, owner)
	fx.tbl.BindItem(owner, item)

	m := fx.res.ResolveItem(owner)
	objRg, ok := m.Region(objLt)
	if !ok {
		t.Fatalf("object lifetime not resolved")
	}
	if objRg.Kind != types.RegionStatic {
		t.Fatalf("unbounded object in unbounded position must default to 'static, got %+v", objRg)
	}
}

func TestResolveItemMemoized(t *testing.T) {
	fx := newFixture(t)
	ltIn := fx.implicitLt()
	ltOut := fx.implicitLt()
	sig := ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{{Ty: fx.refTo(ltIn, fx.strTy()), Span: fx.sp}},
		Output: fx.refTo(ltOut, fx.strTy()),
	}
	def := fx.newFn("f", ast.GenericsDecl{}, sig)

	m1 := fx.res.ResolveItem(def)
	m2 := fx.res.ResolveItem(def)
	if m1 != m2 {
		t.Fatalf("ResolveItem must return the cached map")
	}
}
