package testkit

import (
	"lumen/internal/ast"
	"lumen/internal/source"
)

func (p *parser) parseFnSig(e *env) (ast.FnSig, error) {
	start := p.peek()
	sig := ast.FnSig{Binder: p.w.B.Binders.New(p.tokSpan(start))}
	if err := p.expect("("); err != nil {
		return sig, err
	}
	first := true
	for !p.accept(")") {
		if first && (p.isKw("self") || (p.is("&") && p.selfAhead())) {
			if err := p.parseReceiver(e, &sig); err != nil {
				return sig, err
			}
		} else {
			name, err := p.expectIdent()
			if err != nil {
				return sig, err
			}
			if err := p.expect(":"); err != nil {
				return sig, err
			}
			ty, err := p.parseType(e)
			if err != nil {
				return sig, err
			}
			sig.Inputs = append(sig.Inputs, ast.FnParam{
				Name: p.w.Strs.Intern(name.text),
				Ty:   ty,
				Span: p.spanFrom(name.start),
			})
		}
		first = false
		p.accept(",")
	}
	if p.accept("->") {
		out, err := p.parseType(e)
		if err != nil {
			return sig, err
		}
		sig.Output = out
	}
	sig.Span = p.spanFrom(start.start)
	return sig, nil
}

// selfAhead looks past `&` for `self`, with an optional lifetime and `mut`.
func (p *parser) selfAhead() bool {
	i := 1
	if p.peekAt(i).kind == tokLifetime {
		i++
	}
	if t := p.peekAt(i); t.kind == tokIdent && t.text == "mut" {
		i++
	}
	t := p.peekAt(i)
	return t.kind == tokIdent && t.text == "self"
}

func (p *parser) parseReceiver(e *env, sig *ast.FnSig) error {
	t := p.peek()
	sp := p.tokSpan(t)
	selfName := p.w.Strs.Intern("self")

	if p.acceptKw("self") {
		sig.Self = ast.SelfValue
		ty, err := p.selfType(e, sp)
		if err != nil {
			return err
		}
		sig.Inputs = append(sig.Inputs, ast.FnParam{Name: selfName, Ty: ty, Span: sp})
		return nil
	}

	if err := p.expect("&"); err != nil {
		return err
	}
	lt := p.w.B.NewImplicitLifetime(sp)
	if p.peek().kind == tokLifetime {
		lt = p.lifetimeOcc(p.next())
	}
	mut := p.acceptKw("mut")
	if !p.acceptKw("self") {
		return p.errAt(p.peek(), "expected `self` in receiver position")
	}

	sig.Self = ast.SelfRef
	if mut {
		sig.Self = ast.SelfRefMut
	}
	sig.SelfLifetime = lt

	self, err := p.selfType(e, sp)
	if err != nil {
		return err
	}
	recv := p.w.B.Types.NewRef(lt, mut, self, p.spanFrom(t.start))
	sig.Inputs = append(sig.Inputs, ast.FnParam{Name: selfName, Ty: recv, Span: p.spanFrom(t.start)})
	return nil
}

func (p *parser) selfType(e *env, sp source.Span) (ast.TypeID, error) {
	var res ast.Res
	switch {
	case e.selfImpl.IsValid():
		res = ast.Res{Kind: ast.ResSelfTyAlias, Def: e.selfImpl}
	case e.selfTrait.IsValid():
		res = ast.Res{Kind: ast.ResSelfTyParam, Def: e.selfTrait}
	default:
		return 0, p.errAt(p.peek(), "receiver outside an impl or trait")
	}
	path := p.w.B.Paths.New(ast.Path{
		Segments: []ast.PathSegment{{Name: p.w.Strs.Intern("Self"), Span: sp, InferArgs: true}},
		Res:      res,
		Span:     sp,
	})
	return p.w.B.Types.NewPath(path, sp), nil
}
