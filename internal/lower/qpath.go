package lower

import (
	"fmt"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/types"
)

// lowerQPath lowers `<T as Trait>::Item`. The written self type becomes the
// trait ref's Self argument; the item's own arguments stack on top of the
// trait's.
func (c *ItemContext) lowerQPath(p *ast.Path) types.TyID {
	if p.Res.Kind != ast.ResDef || p.Res.DefKind != defs.DefTrait || len(p.Segments) < 2 {
		diag.ReportError(c.L.Reporter, diag.ElabInternal, p.Span,
			"qualified path without a trait resolution").Emit()
		c.taint()
		return c.errTy()
	}

	trait := p.Res.Def
	traitSeg := p.Base()
	itemSeg := p.Last()

	selfTy := c.LowerTy(p.SelfTy)
	traitArgs := c.lowerSegmentArgs(trait, traitSeg, []types.GenericArg{types.TyArg(selfTy)})

	info, ok := c.L.Oracle.Table.AssocItemByName(trait, itemSeg.Name, ast.AssocType)
	if !ok {
		b := diag.ReportError(c.L.Reporter, diag.ElabAssocItemNotFound, itemSeg.Span,
			fmt.Sprintf("trait %q has no associated type %q", c.defName(trait), c.name(itemSeg.Name)))
		if alt, found := c.closestAssocName([]boundRoot{{trait: trait}}, itemSeg.Name); found {
			b.WithNote(itemSeg.Span, fmt.Sprintf("an associated type %q exists; did you mean that?", alt))
		}
		b.Emit()
		c.taint()
		return c.errTy()
	}

	args := c.lowerSegmentArgs(info.Def, itemSeg, c.L.Types.LookupArgs(traitArgs))
	return c.intern(types.MakeAlias(types.AliasProjection, info.Def, args))
}

// SuggestSelfTypes lists the self types of a trait's non-blanket impls, for
// the "qualified path without self type" diagnostic raised when a resolver
// hands us `Trait::Item` with no usable base. Blanket impls (self type is a
// bare parameter) suggest nothing concrete and are skipped.
func (l *Lowerer) SuggestSelfTypes(trait defs.DefID, limit int) []types.TyID {
	var out []types.TyID
	for _, impl := range l.Oracle.Table.TraitImpls(trait) {
		self := l.SelfTypeOf(impl)
		t, ok := l.Types.LookupTy(self)
		if !ok || t.Kind == types.KindError || t.Kind == types.KindParam {
			continue
		}
		out = append(out, self)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ReportMissingSelfTy emits the diagnostic for `Trait::Item` written without
// a self type, listing plausible candidates drawn from known impls.
func (c *ItemContext) ReportMissingSelfTy(p *ast.Path, trait defs.DefID) types.TyID {
	itemSeg := p.Last()
	b := diag.ReportError(c.L.Reporter, diag.ElabQPathNeedsSelfTy, p.Span,
		fmt.Sprintf("cannot resolve %q without knowing the self type", c.name(itemSeg.Name)))
	pr := types.Printer{In: c.L.Types, Strs: c.L.Strs, DefName: func(d defs.DefID) string { return c.defName(d) }}
	for _, self := range c.L.SuggestSelfTypes(trait, 4) {
		b.WithFix(fmt.Sprintf("qualify the path: `<%s as %s>::%s`",
			pr.Ty(self), c.defName(trait), c.name(itemSeg.Name)))
	}
	b.Emit()
	c.taint()
	return c.errTy()
}
