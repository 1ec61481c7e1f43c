package testkit

import (
	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/source"
)

func (p *parser) lifetimeOcc(t tok) ast.LifetimeID {
	switch t.text {
	case "'static":
		return p.w.B.Lifetimes.New(ast.LifetimeStatic, source.NoStringID, p.tokSpan(t))
	case "'_":
		return p.w.B.Lifetimes.New(ast.LifetimeAnon, source.NoStringID, p.tokSpan(t))
	default:
		return p.w.B.Lifetimes.New(ast.LifetimeNamed, p.w.Strs.Intern(t.text), p.tokSpan(t))
	}
}

func (p *parser) paramPath(gp ast.GenericParam) ast.TypeID {
	kind := defs.DefTypeParam
	if gp.Kind == defs.ParamConst {
		kind = defs.DefConstParam
	}
	path := p.w.B.Paths.New(ast.Path{
		Segments: []ast.PathSegment{{Name: gp.Name, Span: gp.Span, InferArgs: true}},
		Res:      ast.Res{Kind: ast.ResDef, DefKind: kind, Def: gp.Def},
		Span:     gp.Span,
	})
	return p.w.B.Types.NewPath(path, gp.Span)
}

func (p *parser) parseGenerics(e *env) (ast.GenericsDecl, error) {
	start := p.peek()
	gen := ast.GenericsDecl{}
	if !p.accept("<") {
		return gen, nil
	}
	for !p.accept(">") {
		t := p.peek()
		switch {
		case t.kind == tokLifetime:
			p.next()
			id := p.w.Strs.Intern(t.text)
			gp := ast.GenericParam{
				Def:  p.w.Table.NewDef(defs.DefLifetimeParam, id, p.tokSpan(t), e.owner),
				Name: id,
				Kind: defs.ParamLifetime,
				Span: p.tokSpan(t),
			}
			gen.Params = append(gen.Params, gp)
			if p.accept(":") {
				regs, err := p.parseOutlivesList()
				if err != nil {
					return gen, err
				}
				gen.Where = append(gen.Where, ast.WherePredicate{
					Kind:     ast.PredRegion,
					Lifetime: p.lifetimeOcc(t),
					Regions:  regs,
					Span:     p.spanFrom(t.start),
				})
			}

		case t.kind == tokIdent && t.text == "const":
			p.next()
			name, err := p.expectIdent()
			if err != nil {
				return gen, err
			}
			if err := p.expect(":"); err != nil {
				return gen, err
			}
			cty, err := p.parseType(e)
			if err != nil {
				return gen, err
			}
			id := p.w.Strs.Intern(name.text)
			gp := ast.GenericParam{
				Def:       p.w.Table.NewDef(defs.DefConstParam, id, p.tokSpan(name), e.owner),
				Name:      id,
				Kind:      defs.ParamConst,
				ConstType: cty,
				Span:      p.tokSpan(name),
			}
			gen.Params = append(gen.Params, gp)
			e.params[name.text] = gp

		case t.kind == tokIdent:
			p.next()
			id := p.w.Strs.Intern(t.text)
			gp := ast.GenericParam{
				Def:  p.w.Table.NewDef(defs.DefTypeParam, id, p.tokSpan(t), e.owner),
				Name: id,
				Kind: defs.ParamType,
				Span: p.tokSpan(t),
			}
			// In scope already, so `T: Trait<T>` resolves.
			e.params[t.text] = gp
			if p.accept(":") {
				bounds, err := p.parseBounds(e)
				if err != nil {
					return gen, err
				}
				gen.Where = append(gen.Where, ast.WherePredicate{
					Kind:   ast.PredBound,
					Binder: p.w.B.Binders.New(p.tokSpan(t)),
					Ty:     p.paramPath(gp),
					Bounds: bounds,
					Span:   p.spanFrom(t.start),
				})
			}
			if p.accept("=") {
				dflt, err := p.parseType(e)
				if err != nil {
					return gen, err
				}
				gp.Default = dflt
				e.params[t.text] = gp
			}
			gen.Params = append(gen.Params, gp)

		default:
			return gen, p.errAt(t, "unexpected %q in generic parameters", t.text)
		}
		p.accept(",")
	}
	gen.Span = p.spanFrom(start.start)
	return gen, nil
}

func (p *parser) parseOutlivesList() ([]ast.LifetimeID, error) {
	var out []ast.LifetimeID
	for {
		t := p.peek()
		if t.kind != tokLifetime {
			return nil, p.errAt(t, "expected a lifetime, found %q", t.text)
		}
		p.next()
		out = append(out, p.lifetimeOcc(t))
		if !p.accept("+") {
			return out, nil
		}
	}
}

func (p *parser) parseWhere(e *env, gen *ast.GenericsDecl) error {
	p.next() // where
	for {
		t := p.peek()
		if t.kind == tokLifetime {
			p.next()
			if err := p.expect(":"); err != nil {
				return err
			}
			regs, err := p.parseOutlivesList()
			if err != nil {
				return err
			}
			gen.Where = append(gen.Where, ast.WherePredicate{
				Kind:     ast.PredRegion,
				Lifetime: p.lifetimeOcc(t),
				Regions:  regs,
				Span:     p.spanFrom(t.start),
			})
		} else {
			var bps []ast.GenericParam
			if p.isKw("for") {
				var err error
				if bps, err = p.parseHrtbParams(e); err != nil {
					return err
				}
			}
			ty, err := p.parseType(e)
			if err != nil {
				return err
			}
			if p.accept("=") {
				rhs, err := p.parseType(e)
				if err != nil {
					return err
				}
				gen.Where = append(gen.Where, ast.WherePredicate{
					Kind: ast.PredEq,
					Ty:   ty,
					RHS:  rhs,
					Span: p.spanFrom(t.start),
				})
			} else {
				if err := p.expect(":"); err != nil {
					return err
				}
				bounds, err := p.parseBounds(e)
				if err != nil {
					return err
				}
				gen.Where = append(gen.Where, ast.WherePredicate{
					Kind:        ast.PredBound,
					Binder:      p.w.B.Binders.New(p.tokSpan(t)),
					BoundParams: bps,
					Ty:          ty,
					Bounds:      bounds,
					Span:        p.spanFrom(t.start),
				})
			}
		}
		if !p.accept(",") {
			return nil
		}
		if p.is("{") || p.is(";") || p.peek().kind == tokEOF {
			return nil
		}
	}
}

func (p *parser) parseHrtbParams(e *env) ([]ast.GenericParam, error) {
	p.next() // for
	if err := p.expect("<"); err != nil {
		return nil, err
	}
	var out []ast.GenericParam
	for !p.accept(">") {
		t := p.peek()
		if t.kind != tokLifetime {
			return nil, p.errAt(t, "only lifetimes may be higher-ranked")
		}
		p.next()
		id := p.w.Strs.Intern(t.text)
		out = append(out, ast.GenericParam{
			Def:  p.w.Table.NewDef(defs.DefLifetimeParam, id, p.tokSpan(t), e.owner),
			Name: id,
			Kind: defs.ParamLifetime,
			Span: p.tokSpan(t),
		})
		p.accept(",")
	}
	return out, nil
}

func (p *parser) parseBounds(e *env) ([]ast.Bound, error) {
	var out []ast.Bound
	for {
		b, err := p.parseBound(e)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
		if !p.accept("+") {
			return out, nil
		}
	}
}

func (p *parser) parseBound(e *env) (ast.Bound, error) {
	t := p.peek()
	if t.kind == tokLifetime {
		p.next()
		return ast.Bound{Kind: ast.BoundOutlives, Outlives: p.lifetimeOcc(t), Span: p.tokSpan(t)}, nil
	}
	mod := ast.BoundModNone
	if p.accept("?") {
		mod = ast.BoundModMaybe
	}
	var bps []ast.GenericParam
	if p.isKw("for") {
		var err error
		if bps, err = p.parseHrtbParams(e); err != nil {
			return ast.Bound{}, err
		}
	}
	path, err := p.parsePath(e)
	if err != nil {
		return ast.Bound{}, err
	}
	ref := &ast.PolyTraitRef{
		Binder:      p.w.B.Binders.New(p.tokSpan(t)),
		BoundParams: bps,
		Trait:       path,
		Span:        p.spanFrom(t.start),
	}
	return ast.Bound{Kind: ast.BoundTrait, Modifier: mod, Trait: ref, Span: ref.Span}, nil
}

func (p *parser) parseType(e *env) (ast.TypeID, error) {
	t := p.peek()
	sp := p.tokSpan(t)
	switch {
	case p.accept("&"):
		lt := p.w.B.NewImplicitLifetime(sp)
		if p.peek().kind == tokLifetime {
			lt = p.lifetimeOcc(p.next())
		}
		mut := p.acceptKw("mut")
		elem, err := p.parseType(e)
		if err != nil {
			return 0, err
		}
		return p.w.B.Types.NewRef(lt, mut, elem, p.spanFrom(t.start)), nil

	case p.accept("*"):
		mut := p.acceptKw("mut")
		if !mut {
			p.acceptKw("const")
		}
		elem, err := p.parseType(e)
		if err != nil {
			return 0, err
		}
		return p.w.B.Types.NewRawPtr(mut, elem, p.spanFrom(t.start)), nil

	case p.accept("["):
		elem, err := p.parseType(e)
		if err != nil {
			return 0, err
		}
		if p.accept(";") {
			length, err := p.parseConstArg(e)
			if err != nil {
				return 0, err
			}
			if err := p.expect("]"); err != nil {
				return 0, err
			}
			return p.w.B.Types.NewArray(elem, length, p.spanFrom(t.start)), nil
		}
		if err := p.expect("]"); err != nil {
			return 0, err
		}
		return p.w.B.Types.NewSlice(elem, p.spanFrom(t.start)), nil

	case p.accept("("):
		var elems []ast.TypeID
		sawComma := false
		for !p.accept(")") {
			elem, err := p.parseType(e)
			if err != nil {
				return 0, err
			}
			elems = append(elems, elem)
			if p.accept(",") {
				sawComma = true
			}
		}
		if len(elems) == 1 && !sawComma {
			// просто скобки
			return elems[0], nil
		}
		return p.w.B.Types.NewTuple(elems, p.spanFrom(t.start)), nil

	case p.accept("!"):
		return p.w.B.Types.NewNever(sp), nil

	case p.isKw("_"):
		p.next()
		return p.w.B.Types.NewInfer(sp), nil

	case p.isKw("fn"):
		p.next()
		return p.parseFnPtr(e, nil, t)

	case p.isKw("for"):
		bps, err := p.parseHrtbParams(e)
		if err != nil {
			return 0, err
		}
		if !p.acceptKw("fn") {
			return 0, p.errAt(p.peek(), "expected `fn` after a higher-ranked binder")
		}
		return p.parseFnPtr(e, bps, t)

	case p.isKw("dyn"):
		p.next()
		return p.parseTraitObject(e, t)

	case p.isKw("impl"):
		p.next()
		return p.parseOpaque(e, t)

	case p.is("<"):
		return p.parseQPath(e)

	case t.kind == tokIdent:
		path, err := p.parsePath(e)
		if err != nil {
			return 0, err
		}
		return p.w.B.Types.NewPath(path, p.spanFrom(t.start)), nil
	}
	return 0, p.errAt(t, "expected a type, found %q", t.text)
}

func (p *parser) parseFnPtr(e *env, bps []ast.GenericParam, start tok) (ast.TypeID, error) {
	if err := p.expect("("); err != nil {
		return 0, err
	}
	var inputs []ast.TypeID
	for !p.accept(")") {
		ty, err := p.parseType(e)
		if err != nil {
			return 0, err
		}
		inputs = append(inputs, ty)
		p.accept(",")
	}
	output := ast.NoTypeID
	if p.accept("->") {
		var err error
		if output, err = p.parseType(e); err != nil {
			return 0, err
		}
	}
	fp := ast.FnPtrType{
		Binder:      p.w.B.Binders.New(p.tokSpan(start)),
		BoundParams: bps,
		Inputs:      inputs,
		Output:      output,
	}
	return p.w.B.Types.NewFnPtr(fp, p.spanFrom(start.start)), nil
}

func (p *parser) parseTraitObject(e *env, start tok) (ast.TypeID, error) {
	var refs []ast.PolyTraitRef
	lt := ast.NoLifetimeID
	explicit := false
	for {
		t := p.peek()
		if t.kind == tokLifetime {
			p.next()
			lt = p.lifetimeOcc(t)
			explicit = true
		} else {
			var bps []ast.GenericParam
			if p.isKw("for") {
				var err error
				if bps, err = p.parseHrtbParams(e); err != nil {
					return 0, err
				}
			}
			path, err := p.parsePath(e)
			if err != nil {
				return 0, err
			}
			refs = append(refs, ast.PolyTraitRef{
				Binder:      p.w.B.Binders.New(p.tokSpan(t)),
				BoundParams: bps,
				Trait:       path,
				Span:        p.spanFrom(t.start),
			})
		}
		if !p.accept("+") {
			break
		}
	}
	if !explicit {
		lt = p.w.B.Lifetimes.New(ast.LifetimeObjectDefault, source.NoStringID, p.tokSpan(start))
	}
	obj := ast.TraitObjectType{Bounds: refs, Lifetime: lt, HasExplicitBound: explicit}
	return p.w.B.Types.NewTraitObject(obj, p.spanFrom(start.start)), nil
}

func (p *parser) parseOpaque(e *env, start tok) (ast.TypeID, error) {
	bounds, err := p.parseBounds(e)
	if err != nil {
		return 0, err
	}
	sp := p.spanFrom(start.start)
	op := ast.OpaqueItem{Bounds: bounds, Origin: ast.OpaqueReturn, Span: sp}
	item := p.w.B.Items.NewOpaque(op)
	def := p.w.Table.NewDef(defs.DefOpaque, p.w.Strs.Intern("opaque"), sp, e.owner)
	p.w.B.Items.SetDef(item, def)
	p.w.Table.BindItem(def, item)
	e.opaques = append(e.opaques, item)
	return p.w.B.Types.NewImplTrait(item, sp), nil
}

// parseQPath parses `<T as Trait>::Item`.
func (p *parser) parseQPath(e *env) (ast.TypeID, error) {
	start := p.next() // <
	selfTy, err := p.parseType(e)
	if err != nil {
		return 0, err
	}
	if !p.acceptKw("as") {
		return 0, p.errAt(p.peek(), "expected `as` in qualified path")
	}
	pv, err := p.parsePathValue(e)
	if err != nil {
		return 0, err
	}
	if err := p.expect(">"); err != nil {
		return 0, err
	}
	if err := p.expect("::"); err != nil {
		return 0, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return 0, err
	}
	seg, err := p.parseSegment(e, name)
	if err != nil {
		return 0, err
	}
	pv.SelfTy = selfTy
	pv.Segments = append(pv.Segments, seg)
	pv.Span = p.spanFrom(start.start)
	return p.w.B.Types.NewPath(p.w.B.Paths.New(pv), pv.Span), nil
}

func (p *parser) parsePath(e *env) (ast.PathID, error) {
	pv, err := p.parsePathValue(e)
	if err != nil {
		return 0, err
	}
	return p.w.B.Paths.New(pv), nil
}

func (p *parser) parsePathValue(e *env) (ast.Path, error) {
	first, err := p.expectIdent()
	if err != nil {
		return ast.Path{}, err
	}
	seg, err := p.parseSegment(e, first)
	if err != nil {
		return ast.Path{}, err
	}
	segs := []ast.PathSegment{seg}
	for p.is("::") && p.peekAt(1).kind == tokIdent {
		p.next()
		nt, _ := p.expectIdent()
		s, err := p.parseSegment(e, nt)
		if err != nil {
			return ast.Path{}, err
		}
		segs = append(segs, s)
	}
	res, err := p.resolveBase(e, first)
	if err != nil {
		return ast.Path{}, err
	}
	return ast.Path{Segments: segs, Res: res, Span: p.spanFrom(first.start)}, nil
}

func (p *parser) parseSegment(e *env, name tok) (ast.PathSegment, error) {
	seg := ast.PathSegment{Name: p.w.Strs.Intern(name.text), Span: p.tokSpan(name)}
	if !p.accept("<") {
		seg.InferArgs = true
		return seg, nil
	}
	args := &ast.GenericArgs{}
	for !p.accept(">") {
		t := p.peek()
		switch {
		case t.kind == tokLifetime:
			p.next()
			args.Args = append(args.Args, ast.GenericArg{
				Kind: ast.ArgLifetime, Lifetime: p.lifetimeOcc(t), Span: p.tokSpan(t),
			})
		case t.kind == tokInt:
			p.next()
			ca := p.w.B.ConstArgs.New(ast.ConstArg{
				Kind: ast.ConstArgAnon, Value: p.w.Strs.Intern(t.text), Span: p.tokSpan(t),
			})
			args.Args = append(args.Args, ast.GenericArg{Kind: ast.ArgConst, Const: ca, Span: p.tokSpan(t)})
		case t.kind == tokIdent && t.text == "_":
			p.next()
			args.Args = append(args.Args, ast.GenericArg{Kind: ast.ArgInfer, Span: p.tokSpan(t)})
		case t.kind == tokIdent && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == "=":
			p.next()
			p.next() // =
			ty, err := p.parseType(e)
			if err != nil {
				return seg, err
			}
			args.Bindings = append(args.Bindings, ast.AssocBinding{
				Kind: ast.BindingEquality, Name: p.w.Strs.Intern(t.text), Type: ty, Span: p.spanFrom(t.start),
			})
		case t.kind == tokIdent && p.peekAt(1).kind == tokPunct && p.peekAt(1).text == ":":
			p.next()
			p.next() // :
			bounds, err := p.parseBounds(e)
			if err != nil {
				return seg, err
			}
			args.Bindings = append(args.Bindings, ast.AssocBinding{
				Kind: ast.BindingConstraint, Name: p.w.Strs.Intern(t.text), Bounds: bounds, Span: p.spanFrom(t.start),
			})
		case t.kind == tokIdent && e.params[t.text].Kind == defs.ParamConst && e.params[t.text].Def.IsValid():
			p.next()
			ca := p.w.B.ConstArgs.New(ast.ConstArg{
				Kind: ast.ConstArgParam, Param: e.params[t.text].Def, Span: p.tokSpan(t),
			})
			args.Args = append(args.Args, ast.GenericArg{Kind: ast.ArgConst, Const: ca, Span: p.tokSpan(t)})
		default:
			ty, err := p.parseType(e)
			if err != nil {
				return seg, err
			}
			args.Args = append(args.Args, ast.GenericArg{Kind: ast.ArgType, Type: ty, Span: p.spanFrom(t.start)})
		}
		p.accept(",")
	}
	args.Span = p.spanFrom(name.start)
	seg.Args = args
	return seg, nil
}

func (p *parser) parseConstArg(e *env) (ast.ConstArgID, error) {
	t := p.peek()
	switch {
	case t.kind == tokInt:
		p.next()
		return p.w.B.ConstArgs.New(ast.ConstArg{
			Kind: ast.ConstArgAnon, Value: p.w.Strs.Intern(t.text), Span: p.tokSpan(t),
		}), nil
	case t.kind == tokIdent && t.text == "_":
		p.next()
		return p.w.B.ConstArgs.New(ast.ConstArg{Kind: ast.ConstArgInfer, Span: p.tokSpan(t)}), nil
	case t.kind == tokIdent && e.params[t.text].Kind == defs.ParamConst && e.params[t.text].Def.IsValid():
		p.next()
		return p.w.B.ConstArgs.New(ast.ConstArg{
			Kind: ast.ConstArgParam, Param: e.params[t.text].Def, Span: p.tokSpan(t),
		}), nil
	}
	return 0, p.errAt(t, "expected a const argument, found %q", t.text)
}

func (p *parser) resolveBase(e *env, t tok) (ast.Res, error) {
	switch t.text {
	case "bool":
		return ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimBool}, nil
	case "char":
		return ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimChar}, nil
	case "str":
		return ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimStr}, nil
	case "int":
		return ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimInt}, nil
	case "uint":
		return ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimUint}, nil
	case "float":
		return ast.Res{Kind: ast.ResPrimTy, Prim: ast.PrimFloat}, nil
	case "Self":
		if e.selfImpl.IsValid() {
			return ast.Res{Kind: ast.ResSelfTyAlias, Def: e.selfImpl}, nil
		}
		if e.selfTrait.IsValid() {
			return ast.Res{Kind: ast.ResSelfTyParam, Def: e.selfTrait}, nil
		}
		return ast.Res{}, p.errAt(t, "`Self` outside an impl or trait")
	}
	if gp, ok := e.params[t.text]; ok {
		kind := defs.DefTypeParam
		if gp.Kind == defs.ParamConst {
			kind = defs.DefConstParam
		}
		return ast.Res{Kind: ast.ResDef, DefKind: kind, Def: gp.Def}, nil
	}
	if def, ok := p.w.Decls[t.text]; ok {
		return ast.Res{Kind: ast.ResDef, DefKind: p.w.Table.Kind(def), Def: def}, nil
	}
	return ast.Res{}, p.errAt(t, "unresolved name %q", t.text)
}
