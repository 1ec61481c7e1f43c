package testkit

import (
	"github.com/pkg/errors"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/source"
)

// parser turns declaration strings into surface items with resolution
// pre-filled, the same shape the product front end would hand the elaborator.
type parser struct {
	w    *World
	file source.FileID
	toks []tok
	pos  int
}

// env is the name scope of the item being parsed.
type env struct {
	owner     defs.DefID
	params    map[string]ast.GenericParam
	selfImpl  defs.DefID
	selfTrait defs.DefID
	opaques   []ast.ItemID
}

func newEnv(owner defs.DefID) *env {
	return &env{owner: owner, params: make(map[string]ast.GenericParam)}
}

// childEnv opens a member scope that sees the parent's params.
func childEnv(parent *env, owner defs.DefID) *env {
	e := newEnv(owner)
	for k, v := range parent.params {
		e.params[k] = v
	}
	e.selfImpl = parent.selfImpl
	e.selfTrait = parent.selfTrait
	return e
}

func (p *parser) peek() tok {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) tok {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() tok {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == text
}

func (p *parser) isKw(text string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptKw(text string) bool {
	if p.isKw(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		return p.errAt(p.peek(), "expected %q, found %q", text, p.peek().text)
	}
	return nil
}

func (p *parser) expectIdent() (tok, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return t, p.errAt(t, "expected an identifier, found %q", t.text)
	}
	p.pos++
	return t, nil
}

func (p *parser) tokSpan(t tok) source.Span {
	return source.Span{File: p.file, Start: t.start, End: t.end}
}

func (p *parser) spanFrom(start uint32) source.Span {
	end := start
	if p.pos > 0 {
		end = p.toks[p.pos-1].end
	}
	return source.Span{File: p.file, Start: start, End: end}
}

func (p *parser) errAt(t tok, format string, args ...any) error {
	lc, _ := p.w.FS.Resolve(p.tokSpan(t))
	f := p.w.FS.Get(p.file)
	return errors.Wrapf(errors.Errorf(format, args...), "%s:%d:%d", f.Path, lc.Line, lc.Col)
}

// predeclare registers every top-level declaration name first, so items in
// one batch may reference each other in any order.
func (p *parser) predeclare() {
	depth := 0
	for i := 0; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.kind == tokPunct {
			switch t.text {
			case "{":
				depth++
			case "}":
				depth--
			}
			continue
		}
		if t.kind != tokIdent || depth != 0 {
			continue
		}
		var kind defs.DefKind
		switch t.text {
		case "struct":
			kind = defs.DefStruct
		case "union":
			kind = defs.DefUnion
		case "enum":
			kind = defs.DefEnum
		case "trait":
			kind = defs.DefTrait
		case "type":
			kind = defs.DefTypeAlias
		case "fn":
			kind = defs.DefFn
		default:
			continue
		}
		name := p.toks[i+1]
		if name.kind != tokIdent {
			continue
		}
		if _, dup := p.w.Decls[name.text]; dup {
			continue
		}
		def := p.w.Table.NewDef(kind, p.w.Strs.Intern(name.text), p.tokSpan(name), defs.NoDefID)
		p.w.Decls[name.text] = def
		i++
	}
}

func (p *parser) run() error {
	for p.peek().kind != tokEOF {
		t := p.peek()
		if t.kind != tokIdent {
			return p.errAt(t, "expected a declaration, found %q", t.text)
		}
		var err error
		switch t.text {
		case "struct", "union":
			err = p.parseStructLike()
		case "enum":
			err = p.parseEnum()
		case "trait":
			err = p.parseTrait()
		case "type":
			err = p.parseAlias()
		case "fn":
			err = p.parseTopFn()
		case "impl":
			err = p.parseImpl()
		default:
			err = p.errAt(t, "unknown declaration keyword %q", t.text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) finishItem(def defs.DefID, item ast.ItemID, e *env) {
	p.w.B.Items.SetDef(item, def)
	p.w.Table.BindItem(def, item)
	p.w.B.PushRoot(item)
	p.w.Order = append(p.w.Order, def)
	// Opaques parsed inside this item belong to it.
	for _, op := range e.opaques {
		if o, ok := p.w.B.Items.Opaque(op); ok {
			o.Parent = item
		}
	}
}

func (p *parser) parseStructLike() error {
	kw := p.next()
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	def := p.w.Decls[name.text]
	e := newEnv(def)
	gen, err := p.parseGenerics(e)
	if err != nil {
		return err
	}
	if p.isKw("where") {
		if err := p.parseWhere(e, &gen); err != nil {
			return err
		}
	}
	p.accept(";")
	item := p.w.B.Items.NewStruct(ast.StructItem{
		Name:     p.w.Strs.Intern(name.text),
		Generics: gen,
		Span:     p.spanFrom(kw.start),
	})
	p.finishItem(def, item, e)
	return nil
}

func (p *parser) parseEnum() error {
	kw := p.next()
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	def := p.w.Decls[name.text]
	e := newEnv(def)
	gen, err := p.parseGenerics(e)
	if err != nil {
		return err
	}
	var variants []ast.Variant
	if p.accept("{") {
		for !p.accept("}") {
			vt, err := p.expectIdent()
			if err != nil {
				return err
			}
			vid := p.w.Strs.Intern(vt.text)
			vd := p.w.Table.NewDef(defs.DefVariant, vid, p.tokSpan(vt), def)
			p.w.Table.AddVariant(def, vd)
			variants = append(variants, ast.Variant{Def: vd, Name: vid, Span: p.tokSpan(vt)})
			p.accept(",")
		}
	} else {
		p.accept(";")
	}
	item := p.w.B.Items.NewEnum(ast.EnumItem{
		Name:     p.w.Strs.Intern(name.text),
		Generics: gen,
		Variants: variants,
		Span:     p.spanFrom(kw.start),
	})
	p.finishItem(def, item, e)
	return nil
}

func (p *parser) parseTrait() error {
	kw := p.next()
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	def := p.w.Decls[name.text]
	e := newEnv(def)
	e.selfTrait = def
	gen, err := p.parseGenerics(e)
	if err != nil {
		return err
	}
	var supers []ast.Bound
	if p.accept(":") {
		supers, err = p.parseBounds(e)
		if err != nil {
			return err
		}
	}
	if p.isKw("where") {
		if err := p.parseWhere(e, &gen); err != nil {
			return err
		}
	}

	tr := ast.TraitItem{
		Name:        p.w.Strs.Intern(name.text),
		Generics:    gen,
		Supertraits: supers,
	}
	if p.accept("{") {
		for !p.accept("}") {
			node, err := p.parseAssocDecl(e, def)
			if err != nil {
				return err
			}
			tr.Items = append(tr.Items, node)
		}
	} else {
		p.accept(";")
	}
	tr.Span = p.spanFrom(kw.start)
	item := p.w.B.Items.NewTrait(tr)
	p.finishItem(def, item, e)
	return nil
}

func (p *parser) parseAlias() error {
	kw := p.next()
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	def := p.w.Decls[name.text]
	e := newEnv(def)
	gen, err := p.parseGenerics(e)
	if err != nil {
		return err
	}
	if err := p.expect("="); err != nil {
		return err
	}
	ty, err := p.parseType(e)
	if err != nil {
		return err
	}
	p.accept(";")
	item := p.w.B.Items.NewTypeAlias(ast.TypeAliasItem{
		Name:     p.w.Strs.Intern(name.text),
		Generics: gen,
		Ty:       ty,
		Span:     p.spanFrom(kw.start),
	})
	p.finishItem(def, item, e)
	return nil
}

func (p *parser) parseTopFn() error {
	kw := p.next()
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	def := p.w.Decls[name.text]
	e := newEnv(def)
	gen, err := p.parseGenerics(e)
	if err != nil {
		return err
	}
	sig, err := p.parseFnSig(e)
	if err != nil {
		return err
	}
	if p.isKw("where") {
		if err := p.parseWhere(e, &gen); err != nil {
			return err
		}
	}
	p.accept(";")
	item := p.w.B.Items.NewFn(ast.FnItem{
		Name:     p.w.Strs.Intern(name.text),
		Generics: gen,
		Sig:      sig,
		Span:     p.spanFrom(kw.start),
	})
	p.finishItem(def, item, e)
	return nil
}

func (p *parser) parseImpl() error {
	kw := p.next()
	def := p.w.Table.NewDef(defs.DefImpl, source.NoStringID, p.tokSpan(kw), defs.NoDefID)
	e := newEnv(def)
	e.selfImpl = def
	gen, err := p.parseGenerics(e)
	if err != nil {
		return err
	}

	head, err := p.parseType(e)
	if err != nil {
		return err
	}
	im := ast.ImplItem{Generics: gen}
	if p.acceptKw("for") {
		pt, ok := p.w.B.Types.Path(head)
		if !ok {
			return p.errAt(kw, "impl head before `for` must be a trait path")
		}
		im.OfTrait = &ast.PolyTraitRef{
			Binder: p.w.B.Binders.New(p.tokSpan(kw)),
			Trait:  pt.Path,
			Span:   p.spanFrom(kw.start),
		}
		im.SelfTy, err = p.parseType(e)
		if err != nil {
			return err
		}
	} else {
		im.SelfTy = head
	}
	if p.isKw("where") {
		if err := p.parseWhere(e, &im.Generics); err != nil {
			return err
		}
	}

	if p.accept("{") {
		for !p.accept("}") {
			node, err := p.parseAssocDecl(e, def)
			if err != nil {
				return err
			}
			im.Items = append(im.Items, node)
		}
	} else {
		p.accept(";")
	}
	im.Span = p.spanFrom(kw.start)
	item := p.w.B.Items.NewImpl(im)
	p.finishItem(def, item, e)

	if im.OfTrait != nil {
		if tp := p.w.B.Paths.Get(im.OfTrait.Trait); tp != nil && tp.Res.Kind == ast.ResDef && tp.Res.DefKind == defs.DefTrait {
			p.w.Table.AddTraitImpl(tp.Res.Def, def)
		}
	} else if pt, ok := p.w.B.Types.Path(im.SelfTy); ok {
		if sp := p.w.B.Paths.Get(pt.Path); sp != nil && sp.Res.Kind == ast.ResDef {
			switch sp.Res.DefKind {
			case defs.DefStruct, defs.DefEnum, defs.DefUnion:
				p.w.Table.AddInherentImpl(sp.Res.Def, def)
			}
		}
	}
	return nil
}

// parseAssocDecl parses one `type Item ...;` or `fn m(...) ...;` member.
func (p *parser) parseAssocDecl(parent *env, owner defs.DefID) (ast.AssocItemID, error) {
	t := p.peek()
	switch {
	case p.acceptKw("type"):
		name, err := p.expectIdent()
		if err != nil {
			return 0, err
		}
		nm := p.w.Strs.Intern(name.text)
		ai := ast.AssocItem{
			Kind: ast.AssocType,
			Def:  p.w.Table.NewDef(defs.DefAssocType, nm, p.tokSpan(name), owner),
			Name: nm,
		}
		e := childEnv(parent, ai.Def)
		if p.accept(":") {
			if ai.Bounds, err = p.parseBounds(e); err != nil {
				return 0, err
			}
		}
		if p.accept("=") {
			if ai.Value, err = p.parseType(e); err != nil {
				return 0, err
			}
		}
		if err := p.expect(";"); err != nil {
			return 0, err
		}
		ai.Span = p.spanFrom(t.start)
		node := p.w.B.AssocItems.New(ai)
		p.w.Table.AddAssocItem(owner, assocInfo(ai, node))
		return node, nil

	case p.isKw("fn"):
		p.next()
		name, err := p.expectIdent()
		if err != nil {
			return 0, err
		}
		nm := p.w.Strs.Intern(name.text)
		ai := ast.AssocItem{
			Kind: ast.AssocFn,
			Def:  p.w.Table.NewDef(defs.DefAssocFn, nm, p.tokSpan(name), owner),
			Name: nm,
		}
		e := childEnv(parent, ai.Def)
		gen, err := p.parseGenerics(e)
		if err != nil {
			return 0, err
		}
		sig, err := p.parseFnSig(e)
		if err != nil {
			return 0, err
		}
		if p.isKw("where") {
			if err := p.parseWhere(e, &gen); err != nil {
				return 0, err
			}
		}
		p.accept(";")
		ai.Fn = ast.FnItem{Name: nm, Generics: gen, Sig: sig, Span: p.spanFrom(t.start)}
		ai.Span = ai.Fn.Span
		node := p.w.B.AssocItems.New(ai)
		p.w.Table.AddAssocItem(owner, assocInfo(ai, node))
		return node, nil
	}
	return 0, p.errAt(t, "expected `type` or `fn` member, found %q", t.text)
}
