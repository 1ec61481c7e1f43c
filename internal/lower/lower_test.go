package lower

import (
	"testing"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/oracle"
	"lumen/internal/regions"
	"lumen/internal/source"
	"lumen/internal/types"
)

type fixture struct {
	b    *ast.Builder
	tbl  *oracle.Table
	orc  *oracle.Oracle
	strs *source.Interner
	bag  *diag.Bag
	lw   *Lowerer
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
	orc := oracle.New(tbl, b)
	rep := diag.BagReporter{Bag: bag}
	res := regions.NewResolver(b, orc, strs, rep)
	return &fixture{
		b:    b,
		tbl:  tbl,
		orc:  orc,
		strs: strs,
		bag:  bag,
		lw:   NewLowerer(b, orc, types.NewInterner(), res, strs, rep),
		sp:   source.Span{File: fid},
	}
}

func (fx *fixture) strTy() ast.TypeID {
	path := fx.b.Paths.New(ast.Path{
		Segments: []ast.PathSegment{{Name: fx.strs.Intern("str"), Span: fx.sp}},
		Res:      ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimStr},
		Span:     fx.sp,
	})
	return fx.b.Types.NewPath(path, fx.sp)
}

func (fx *fixture) uintTy() ast.TypeID {
	path := fx.b.Paths.New(ast.Path{
		Segments: []ast.PathSegment{{Name: fx.strs.Intern("uint"), Span: fx.sp}},
		Res:      ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimUint},
		Span:     fx.sp,
	})
	return fx.b.Types.NewPath(path, fx.sp)
}

func (fx *fixture) boolTy() ast.TypeID {
	path := fx.b.Paths.New(ast.Path{
		Segments: []ast.PathSegment{{Name: fx.strs.Intern("bool"), Span: fx.sp}},
		Res:      ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimBool},
		Span:     fx.sp,
	})
	return fx.b.Types.NewPath(path, fx.sp)
}

func (fx *fixture) newStruct(name string, generics ast.GenericsDecl) defs.DefID {
	def := fx.tbl.NewDef(defs.DefStruct, fx.strs.Intern(name), fx.sp, defs.NoDefID)
	item := fx.b.Items.NewStruct(ast.StructItem{
		Name:     fx.strs.Intern(name),
		Generics: generics,
		Span:     fx.sp,
	})
	fx.b.Items.SetDef(item, def)
	fx.tbl.BindItem(def, item)
	return def
}

func (fx *fixture) newTrait(name string, tr ast.TraitItem) defs.DefID {
	def := fx.tbl.NewDef(defs.DefTrait, fx.strs.Intern(name), fx.sp, defs.NoDefID)
	tr.Name = fx.strs.Intern(name)
	tr.Span = fx.sp
	item := fx.b.Items.NewTrait(tr)
	fx.b.Items.SetDef(item, def)
	fx.tbl.BindItem(def, item)
	return def
}

func (fx *fixture) newAssocType(trait defs.DefID, name string) defs.DefID {
	id := fx.strs.Intern(name)
	def := fx.tbl.NewDef(defs.DefAssocType, id, fx.sp, trait)
	node := fx.b.AssocItems.New(ast.AssocItem{Kind: ast.AssocType, Def: def, Name: id, Span: fx.sp})
	fx.tbl.AddAssocItem(trait, oracle.AssocItemInfo{Def: def, Kind: ast.AssocType, Name: id, Item: node})
	return def
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

// emptyFn gives tests a host item whose context lowers standalone types.
func (fx *fixture) emptyFn(name string) *ItemContext {
	def := fx.newFn(name, ast.GenericsDecl{}, ast.FnSig{Binder: fx.b.Binders.New(fx.sp)})
	return fx.lw.NewItemContext(def)
}

func (fx *fixture) adtPath(def defs.DefID, name string, args ...ast.GenericArg) ast.TypeID {
	seg := ast.PathSegment{Name: fx.strs.Intern(name), Span: fx.sp}
	if len(args) > 0 {
		seg.Args = &ast.GenericArgs{Args: args, Span: fx.sp}
	}
	return fx.b.Types.NewPath(fx.b.Paths.New(ast.Path{
		Segments: []ast.PathSegment{seg},
		Res:      ast.Res{Kind: ast.ResDef, DefKind: fx.tbl.Kind(def), Def: def},
		Span:     fx.sp,
	}), fx.sp)
}

func (fx *fixture) typeArg(ty ast.TypeID) ast.GenericArg {
	return ast.GenericArg{Kind: ast.ArgType, Type: ty, Span: fx.sp}
}

func (fx *fixture) countCode(code diag.Code) int {
	n := 0
	for _, d := range fx.bag.Items() {
		if d.Code == code {
			n++
		}
	}
	return n
}

func TestLowerRefWithNamedLifetime(t *testing.T) {
	fx := newFixture(t)

	id := fx.strs.Intern("'a")
	pa := ast.GenericParam{
		Def:  fx.tbl.NewDef(defs.DefLifetimeParam, id, fx.sp, defs.NoDefID),
		Name: id, Kind: defs.ParamLifetime, Span: fx.sp,
	}
	use := fx.b.Lifetimes.New(ast.LifetimeNamed, id, fx.sp)
	input := fx.b.Types.NewRef(use, false, fx.strTy(), fx.sp)
	def := fx.newFn("f", ast.GenericsDecl{Params: []ast.GenericParam{pa}}, ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{{Ty: input, Span: fx.sp}},
	})

	c := fx.lw.NewItemContext(def)
	ty, ok := fx.lw.Types.LookupTy(c.LowerTy(input))
	if !ok || ty.Kind != types.KindRef {
		t.Fatalf("expected a reference type, got %+v", ty)
	}
	if ty.Region.Kind != types.RegionLate || ty.Region.Def != pa.Def {
		t.Fatalf("reference must carry the late-bound region of 'a, got %+v", ty.Region)
	}
	if elem, _ := fx.lw.Types.LookupTy(ty.Elem); elem.Kind != types.KindStr {
		t.Fatalf("referent must lower to str, got %+v", elem)
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestArityTooManyArgs(t *testing.T) {
	fx := newFixture(t)

	pair := fx.newStruct("Pair", ast.GenericsDecl{Params: []ast.GenericParam{
		{Def: fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("A"), fx.sp, defs.NoDefID), Name: fx.strs.Intern("A"), Kind: defs.ParamType, Span: fx.sp},
		{Def: fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("B"), fx.sp, defs.NoDefID), Name: fx.strs.Intern("B"), Kind: defs.ParamType, Span: fx.sp},
	}})

	use := fx.adtPath(pair, "Pair",
		fx.typeArg(fx.strTy()), fx.typeArg(fx.strTy()), fx.typeArg(fx.strTy()))

	c := fx.emptyFn("f")
	ty, _ := fx.lw.Types.LookupTy(c.LowerTy(use))
	if ty.Kind != types.KindAdt || ty.Def != pair {
		t.Fatalf("lowering must still produce the ADT, got %+v", ty)
	}
	if got := len(fx.lw.Types.LookupArgs(ty.Args)); got != 2 {
		t.Fatalf("argument vector must match the formals, got %d args", got)
	}
	if n := fx.countCode(diag.ElabGenericArgTooMany); n != 1 {
		t.Fatalf("expected exactly one arity diagnostic, got %d: %+v", n, fx.bag.Items())
	}
}

func TestArityTooFewArgs(t *testing.T) {
	fx := newFixture(t)

	pair := fx.newStruct("Pair", ast.GenericsDecl{Params: []ast.GenericParam{
		{Def: fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("A"), fx.sp, defs.NoDefID), Name: fx.strs.Intern("A"), Kind: defs.ParamType, Span: fx.sp},
		{Def: fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("B"), fx.sp, defs.NoDefID), Name: fx.strs.Intern("B"), Kind: defs.ParamType, Span: fx.sp},
	}})

	use := fx.adtPath(pair, "Pair", fx.typeArg(fx.strTy()))

	c := fx.emptyFn("f")
	ty, _ := fx.lw.Types.LookupTy(c.LowerTy(use))
	if got := len(fx.lw.Types.LookupArgs(ty.Args)); got != 2 {
		t.Fatalf("vector must keep the formal length with an error hole, got %d", got)
	}
	if n := fx.countCode(diag.ElabGenericArgTooFew); n != 1 {
		t.Fatalf("expected exactly one arity diagnostic, got %d: %+v", n, fx.bag.Items())
	}
}

func TestParamDefaultApplies(t *testing.T) {
	fx := newFixture(t)

	dflt := fx.strTy()
	opt := fx.newStruct("Opt", ast.GenericsDecl{Params: []ast.GenericParam{
		{Def: fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("A"), fx.sp, defs.NoDefID), Name: fx.strs.Intern("A"), Kind: defs.ParamType, Span: fx.sp},
		{Def: fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("B"), fx.sp, defs.NoDefID), Name: fx.strs.Intern("B"), Kind: defs.ParamType, Default: dflt, Span: fx.sp},
	}})

	use := fx.adtPath(opt, "Opt", fx.typeArg(fx.boolTy()))

	c := fx.emptyFn("f")
	ty, _ := fx.lw.Types.LookupTy(c.LowerTy(use))
	args := fx.lw.Types.LookupArgs(ty.Args)
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0].Ty != fx.lw.Types.Builtins().Bool {
		t.Fatalf("first arg must be bool")
	}
	if args[1].Ty != fx.lw.Types.Builtins().Str {
		t.Fatalf("omitted param must take its default, got %v", args[1])
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestLoweringIsDeterministic(t *testing.T) {
	fx := newFixture(t)

	pair := fx.newStruct("Pair", ast.GenericsDecl{Params: []ast.GenericParam{
		{Def: fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("A"), fx.sp, defs.NoDefID), Name: fx.strs.Intern("A"), Kind: defs.ParamType, Span: fx.sp},
	}})

	use1 := fx.adtPath(pair, "Pair", fx.typeArg(fx.strTy()))
	use2 := fx.adtPath(pair, "Pair", fx.typeArg(fx.strTy()))

	c := fx.emptyFn("f")
	a := c.LowerTy(use1)
	if again := c.LowerTy(use1); again != a {
		t.Fatalf("memoized lowering must return the same id: %d vs %d", a, again)
	}
	if b := c.LowerTy(use2); b != a {
		t.Fatalf("structurally equal types must intern to one id: %d vs %d", a, b)
	}
}

func TestAmbiguousAssocItem(t *testing.T) {
	fx := newFixture(t)

	ta := fx.newTrait("Left", ast.TraitItem{})
	tb := fx.newTrait("Right", ast.TraitItem{})
	fx.newAssocType(ta, "Item")
	fx.newAssocType(tb, "Item")

	tDef := fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("T"), fx.sp, defs.NoDefID)
	paramPath := func() ast.TypeID {
		return fx.b.Types.NewPath(fx.b.Paths.New(ast.Path{
			Segments: []ast.PathSegment{{Name: fx.strs.Intern("T"), Span: fx.sp}},
			Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTypeParam, Def: tDef},
			Span:     fx.sp,
		}), fx.sp)
	}
	traitBound := func(trait defs.DefID, name string) ast.Bound {
		return ast.Bound{Kind: ast.BoundTrait, Trait: &ast.PolyTraitRef{
			Binder: fx.b.Binders.New(fx.sp),
			Trait: fx.b.Paths.New(ast.Path{
				Segments: []ast.PathSegment{{Name: fx.strs.Intern(name), Span: fx.sp}},
				Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: trait},
				Span:     fx.sp,
			}),
			Span: fx.sp,
		}, Span: fx.sp}
	}

	def := fx.newFn("f", ast.GenericsDecl{
		Params: []ast.GenericParam{{Def: tDef, Name: fx.strs.Intern("T"), Kind: defs.ParamType, Span: fx.sp}},
		Where: []ast.WherePredicate{
			{Kind: ast.PredBound, Binder: fx.b.Binders.New(fx.sp), Ty: paramPath(), Bounds: []ast.Bound{traitBound(ta, "Left")}, Span: fx.sp},
			{Kind: ast.PredBound, Binder: fx.b.Binders.New(fx.sp), Ty: paramPath(), Bounds: []ast.Bound{traitBound(tb, "Right")}, Span: fx.sp},
		},
	}, ast.FnSig{Binder: fx.b.Binders.New(fx.sp)})

	c := fx.lw.NewItemContext(def)
	selfTy := c.LowerTy(paramPath())
	seg := &ast.PathSegment{Name: fx.strs.Intern("Item"), Span: fx.sp}
	out := c.LowerAssocPath(selfTy, seg, false)

	if out != fx.lw.Types.Builtins().Error {
		t.Fatalf("ambiguous resolution must produce the error sentinel, got %d", out)
	}
	if n := fx.countCode(diag.ElabAmbiguousAssocItem); n != 1 {
		t.Fatalf("expected exactly one ambiguity diagnostic, got %d: %+v", n, fx.bag.Items())
	}
}

func TestSingleBoundProjection(t *testing.T) {
	fx := newFixture(t)

	tr := fx.newTrait("Seq", ast.TraitItem{})
	item := fx.newAssocType(tr, "Item")

	tDef := fx.tbl.NewDef(defs.DefTypeParam, fx.strs.Intern("T"), fx.sp, defs.NoDefID)
	paramPath := func() ast.TypeID {
		return fx.b.Types.NewPath(fx.b.Paths.New(ast.Path{
			Segments: []ast.PathSegment{{Name: fx.strs.Intern("T"), Span: fx.sp}},
			Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTypeParam, Def: tDef},
			Span:     fx.sp,
		}), fx.sp)
	}
	bound := ast.Bound{Kind: ast.BoundTrait, Trait: &ast.PolyTraitRef{
		Binder: fx.b.Binders.New(fx.sp),
		Trait: fx.b.Paths.New(ast.Path{
			Segments: []ast.PathSegment{{Name: fx.strs.Intern("Seq"), Span: fx.sp}},
			Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: tr},
			Span:     fx.sp,
		}),
		Span: fx.sp,
	}, Span: fx.sp}

	def := fx.newFn("f", ast.GenericsDecl{
		Params: []ast.GenericParam{{Def: tDef, Name: fx.strs.Intern("T"), Kind: defs.ParamType, Span: fx.sp}},
		Where: []ast.WherePredicate{{
			Kind: ast.PredBound, Binder: fx.b.Binders.New(fx.sp), Ty: paramPath(), Bounds: []ast.Bound{bound}, Span: fx.sp,
		}},
	}, ast.FnSig{Binder: fx.b.Binders.New(fx.sp)})

	c := fx.lw.NewItemContext(def)
	selfTy := c.LowerTy(paramPath())
	seg := &ast.PathSegment{Name: fx.strs.Intern("Item"), Span: fx.sp}
	out, _ := fx.lw.Types.LookupTy(c.LowerAssocPath(selfTy, seg, false))

	if out.Kind != types.KindAlias || out.Alias != types.AliasProjection || out.Def != item {
		t.Fatalf("expected a projection to Seq::Item, got %+v", out)
	}
	args := fx.lw.Types.LookupArgs(out.Args)
	if len(args) != 1 || args[0].Ty != selfTy {
		t.Fatalf("projection args must start with Self, got %+v", args)
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestVariantPathDenotesEnum(t *testing.T) {
	fx := newFixture(t)

	enum := fx.tbl.NewDef(defs.DefEnum, fx.strs.Intern("Shape"), fx.sp, defs.NoDefID)
	item := fx.b.Items.NewEnum(ast.EnumItem{Name: fx.strs.Intern("Shape"), Span: fx.sp})
	fx.b.Items.SetDef(item, enum)
	fx.tbl.BindItem(enum, item)
	variant := fx.tbl.NewDef(defs.DefVariant, fx.strs.Intern("Dot"), fx.sp, enum)
	fx.tbl.AddVariant(enum, variant)

	c := fx.emptyFn("f")
	enumTy := c.LowerTy(fx.adtPath(enum, "Shape"))
	seg := &ast.PathSegment{Name: fx.strs.Intern("Dot"), Span: fx.sp}

	if got := c.LowerAssocPath(enumTy, seg, true); got != enumTy {
		t.Fatalf("a variant path must denote the enum's type: %d vs %d", got, enumTy)
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestQualifiedProjection(t *testing.T) {
	fx := newFixture(t)

	tr := fx.newTrait("Parse", ast.TraitItem{})
	out := fx.newAssocType(tr, "Output")

	qpath := fx.b.Types.NewPath(fx.b.Paths.New(ast.Path{
		SelfTy: fx.strTy(),
		Segments: []ast.PathSegment{
			{Name: fx.strs.Intern("Parse"), Span: fx.sp},
			{Name: fx.strs.Intern("Output"), Span: fx.sp},
		},
		Res:  ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: tr},
		Span: fx.sp,
	}), fx.sp)

	c := fx.emptyFn("f")
	ty, _ := fx.lw.Types.LookupTy(c.LowerTy(qpath))
	if ty.Kind != types.KindAlias || ty.Alias != types.AliasProjection || ty.Def != out {
		t.Fatalf("expected projection to Parse::Output, got %+v", ty)
	}
	args := fx.lw.Types.LookupArgs(ty.Args)
	if len(args) != 1 || args[0].Ty != fx.lw.Types.Builtins().Str {
		t.Fatalf("trait ref must carry str as Self, got %+v", args)
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestTraitObjectCanonicalOrder(t *testing.T) {
	fx := newFixture(t)

	debug := fx.newTrait("Debug", ast.TraitItem{})
	send := fx.newTrait("Send", ast.TraitItem{})
	sync := fx.newTrait("Sync", ast.TraitItem{})

	traitRef := func(def defs.DefID, name string) ast.PolyTraitRef {
		return ast.PolyTraitRef{
			Binder: fx.b.Binders.New(fx.sp),
			Trait: fx.b.Paths.New(ast.Path{
				Segments: []ast.PathSegment{{Name: fx.strs.Intern(name), Span: fx.sp}},
				Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: def},
				Span:     fx.sp,
			}),
			Span: fx.sp,
		}
	}
	object := func(bounds ...ast.PolyTraitRef) ast.TypeID {
		lt := fx.b.Lifetimes.New(ast.LifetimeObjectDefault, source.NoStringID, fx.sp)
		return fx.b.Types.NewTraitObject(ast.TraitObjectType{Bounds: bounds, Lifetime: lt}, fx.sp)
	}

	// одна сигнатура, разный порядок авто-трейтов
	o1 := object(traitRef(debug, "Debug"), traitRef(send, "Send"), traitRef(sync, "Sync"))
	o2 := object(traitRef(debug, "Debug"), traitRef(sync, "Sync"), traitRef(send, "Send"))

	def := fx.newFn("f", ast.GenericsDecl{}, ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{
			{Ty: fx.b.Types.NewRawPtr(false, o1, fx.sp), Span: fx.sp},
			{Ty: fx.b.Types.NewRawPtr(false, o2, fx.sp), Span: fx.sp},
		},
	})
	c := fx.lw.NewItemContext(def)

	t1 := c.LowerTy(o1)
	t2 := c.LowerTy(o2)
	if t1 != t2 {
		t.Fatalf("auto trait order must not change the interned object type: %d vs %d", t1, t2)
	}
	ty, _ := fx.lw.Types.LookupTy(t1)
	preds := fx.lw.Types.LookupPreds(ty.Preds)
	if len(preds) != 3 || preds[0].Kind != types.ExistTrait {
		t.Fatalf("expected principal plus two autos, got %+v", preds)
	}
	if preds[1].Def > preds[2].Def {
		t.Fatalf("auto traits must sort by def: %+v", preds)
	}
	if ty.Region.Kind != types.RegionStatic {
		t.Fatalf("object behind a raw pointer must default to 'static, got %+v", ty.Region)
	}
}

func TestObjectBoundFromSupertrait(t *testing.T) {
	fx := newFixture(t)

	static := fx.b.Lifetimes.New(ast.LifetimeStatic, source.NoStringID, fx.sp)
	show := fx.newTrait("Show", ast.TraitItem{
		Supertraits: []ast.Bound{{Kind: ast.BoundOutlives, Outlives: static, Span: fx.sp}},
	})

	id := fx.strs.Intern("'a")
	pa := ast.GenericParam{
		Def:  fx.tbl.NewDef(defs.DefLifetimeParam, id, fx.sp, defs.NoDefID),
		Name: id, Kind: defs.ParamLifetime, Span: fx.sp,
	}
	obj := fx.b.Types.NewTraitObject(ast.TraitObjectType{
		Bounds: []ast.PolyTraitRef{{
			Binder: fx.b.Binders.New(fx.sp),
			Trait: fx.b.Paths.New(ast.Path{
				Segments: []ast.PathSegment{{Name: fx.strs.Intern("Show"), Span: fx.sp}},
				Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: show},
				Span:     fx.sp,
			}),
			Span: fx.sp,
		}},
		Lifetime: fx.b.Lifetimes.New(ast.LifetimeObjectDefault, source.NoStringID, fx.sp),
	}, fx.sp)

	use := fx.b.Lifetimes.New(ast.LifetimeNamed, id, fx.sp)
	input := fx.b.Types.NewRef(use, false, obj, fx.sp)
	def := fx.newFn("f", ast.GenericsDecl{Params: []ast.GenericParam{pa}}, ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{{Ty: input, Span: fx.sp}},
	})

	c := fx.lw.NewItemContext(def)
	ref, _ := fx.lw.Types.LookupTy(c.LowerTy(input))
	dyn, _ := fx.lw.Types.LookupTy(ref.Elem)
	if dyn.Kind != types.KindDynamic {
		t.Fatalf("expected a trait object behind the reference, got %+v", dyn)
	}
	// &'a dyn Show must not shorten the object to 'a when Show: 'static.
	if dyn.Region.Kind != types.RegionStatic {
		t.Fatalf("a 'static supertrait must fix the object bound, got %+v", dyn.Region)
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestTraitPathWithoutSelfTy(t *testing.T) {
	fx := newFixture(t)

	tr := fx.newTrait("Parse", ast.TraitItem{})
	fx.newAssocType(tr, "Output")

	path := fx.b.Types.NewPath(fx.b.Paths.New(ast.Path{
		Segments: []ast.PathSegment{
			{Name: fx.strs.Intern("Parse"), Span: fx.sp},
			{Name: fx.strs.Intern("Output"), Span: fx.sp},
		},
		Res:  ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: tr},
		Span: fx.sp,
	}), fx.sp)

	c := fx.emptyFn("f")
	if got := c.LowerTy(path); got != fx.lw.Types.Builtins().Error {
		t.Fatalf("an unqualified trait path must lower to the error type, got %d", got)
	}
	if n := fx.countCode(diag.ElabQPathNeedsSelfTy); n != 1 {
		t.Fatalf("expected the missing-self-type diagnostic, got %d: %+v", n, fx.bag.Items())
	}
	if n := fx.countCode(diag.ElabBareTrait); n != 0 {
		t.Fatalf("a trait path with a tail is not a bare trait: %+v", fx.bag.Items())
	}
}

func TestNonMarkerObjectBoundRejected(t *testing.T) {
	fx := newFixture(t)

	debug := fx.newTrait("Debug", ast.TraitItem{})
	iter := fx.newTrait("Iterator", ast.TraitItem{})
	fx.newAssocType(iter, "Item")

	traitRef := func(def defs.DefID, name string) ast.PolyTraitRef {
		return ast.PolyTraitRef{
			Binder: fx.b.Binders.New(fx.sp),
			Trait: fx.b.Paths.New(ast.Path{
				Segments: []ast.PathSegment{{Name: fx.strs.Intern(name), Span: fx.sp}},
				Res:      ast.Res{Kind: ast.ResDef, DefKind: defs.DefTrait, Def: def},
				Span:     fx.sp,
			}),
			Span: fx.sp,
		}
	}
	obj := fx.b.Types.NewTraitObject(ast.TraitObjectType{
		Bounds:   []ast.PolyTraitRef{traitRef(debug, "Debug"), traitRef(iter, "Iterator")},
		Lifetime: fx.b.Lifetimes.New(ast.LifetimeObjectDefault, source.NoStringID, fx.sp),
	}, fx.sp)

	def := fx.newFn("f", ast.GenericsDecl{}, ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{{Ty: fx.b.Types.NewRawPtr(false, obj, fx.sp), Span: fx.sp}},
	})

	c := fx.lw.NewItemContext(def)
	ty, _ := fx.lw.Types.LookupTy(c.LowerTy(obj))
	preds := fx.lw.Types.LookupPreds(ty.Preds)
	if len(preds) != 1 || preds[0].Def != debug {
		t.Fatalf("a rejected bound must not enter the predicate list, got %+v", preds)
	}
	if n := fx.countCode(diag.ElabNonAutoObjectBound); n != 1 {
		t.Fatalf("expected one non-marker bound diagnostic, got %d: %+v", n, fx.bag.Items())
	}
	if !c.Tainted() {
		t.Fatalf("context must be tainted after the rejection")
	}
}

func TestConstArgCarriesDeclaredType(t *testing.T) {
	fx := newFixture(t)

	n := fx.strs.Intern("N")
	buf := fx.newStruct("Buf", ast.GenericsDecl{Params: []ast.GenericParam{{
		Def:       fx.tbl.NewDef(defs.DefConstParam, n, fx.sp, defs.NoDefID),
		Name:      n,
		Kind:      defs.ParamConst,
		ConstType: fx.uintTy(),
		Span:      fx.sp,
	}}})

	use := fx.adtPath(buf, "Buf", ast.GenericArg{Kind: ast.ArgInfer, Span: fx.sp})

	c := fx.emptyFn("f")
	c.AllowInfer = true
	ty, _ := fx.lw.Types.LookupTy(c.LowerTy(use))
	args := fx.lw.Types.LookupArgs(ty.Args)
	if len(args) != 1 || args[0].Kind != types.ArgConst {
		t.Fatalf("expected one const argument, got %+v", args)
	}
	k, ok := fx.lw.Types.LookupConst(args[0].Const)
	if !ok || k.Kind != types.ConstInfer {
		t.Fatalf("expected an inferred const placeholder, got %+v", k)
	}
	if k.Ty != fx.lw.Types.Builtins().Uint {
		t.Fatalf("the placeholder must carry the parameter's declared uint type, got %v", k.Ty)
	}
	if fx.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", fx.bag.Items())
	}
}

func TestUnconstrainedLateBoundOutput(t *testing.T) {
	fx := newFixture(t)

	id := fx.strs.Intern("'x")
	px := ast.GenericParam{
		Def:  fx.tbl.NewDef(defs.DefLifetimeParam, id, fx.sp, defs.NoDefID),
		Name: id, Kind: defs.ParamLifetime, Span: fx.sp,
	}
	use := fx.b.Lifetimes.New(ast.LifetimeNamed, id, fx.sp)
	fnPtr := fx.b.Types.NewFnPtr(ast.FnPtrType{
		Binder:      fx.b.Binders.New(fx.sp),
		BoundParams: []ast.GenericParam{px},
		Output:      fx.b.Types.NewRef(use, false, fx.strTy(), fx.sp),
	}, fx.sp)

	def := fx.newFn("f", ast.GenericsDecl{}, ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{{Ty: fnPtr, Span: fx.sp}},
	})

	c := fx.lw.NewItemContext(def)
	c.LowerTy(fnPtr)
	if n := fx.countCode(diag.ElabUnconstrainedLateBound); n != 1 {
		t.Fatalf("expected one unconstrained-late-bound diagnostic, got %d: %+v", n, fx.bag.Items())
	}
}

func TestInferForbiddenInSignature(t *testing.T) {
	fx := newFixture(t)

	hole := fx.b.Types.NewInfer(fx.sp)
	def := fx.newFn("f", ast.GenericsDecl{}, ast.FnSig{
		Binder: fx.b.Binders.New(fx.sp),
		Inputs: []ast.FnParam{{Ty: hole, Span: fx.sp}},
	})

	c := fx.lw.NewItemContext(def)
	if got := c.LowerTy(hole); got != fx.lw.Types.Builtins().Error {
		t.Fatalf("a hole outside a body must lower to the error type, got %d", got)
	}
	// memoization keeps the diagnostic single-shot
	c.LowerTy(hole)
	if n := fx.countCode(diag.ElabInferNotAllowed); n != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d", n)
	}
	if !c.Tainted() {
		t.Fatalf("context must be tainted after the error")
	}

	body := fx.lw.NewItemContext(def)
	body.AllowInfer = true
	if got := body.LowerTy(hole); got != fx.lw.Types.Builtins().Infer {
		t.Fatalf("a hole in an inference context must lower to the infer type, got %d", got)
	}
}
