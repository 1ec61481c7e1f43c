package lower

import (
	"fmt"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/oracle"
	"lumen/internal/source"
	"lumen/internal/types"
)

// LowerAssocPath resolves one type-relative segment `Base::Name` against the
// lowered base type. Resolution tries, in order: enum variants (when the
// caller permits them), associated types of inherent impls, and associated
// types reachable through exactly one trait bound in scope. A variant and a
// trait item sharing the name is reported as a lint in favour of the variant.
func (c *ItemContext) LowerAssocPath(selfTy types.TyID, seg *ast.PathSegment, permitVariants bool) types.TyID {
	t, ok := c.L.Types.LookupTy(selfTy)
	if !ok || t.Kind == types.KindError {
		return c.errTy()
	}

	if permitVariants && t.Kind == types.KindAdt && c.L.Oracle.Table.Kind(t.Def) == defs.DefEnum {
		if variant, ok := c.L.Oracle.Table.VariantByName(t.Def, seg.Name); ok {
			c.lintVariantShadowsAssoc(selfTy, variant, seg)
			if seg.Args.HasArgs() {
				diag.ReportWarning(c.L.Reporter, diag.ElabArgsOnVariant, segSpan(seg),
					fmt.Sprintf("generic arguments belong on the enum, not on variant %q", c.name(seg.Name))).Emit()
			}
			// A variant path denotes the enum's type.
			return selfTy
		}
	}

	if ty, ok := c.inherentAssocTy(selfTy, t, seg); ok {
		return ty
	}

	return c.boundAssocTy(selfTy, t, seg)
}

// inherentAssocTy probes the inherent impls of the base type's nominal
// definition. Candidates whose self type cannot equal the base, or whose
// predicates cannot hold, are discarded before counting.
func (c *ItemContext) inherentAssocTy(selfTy types.TyID, t types.Ty, seg *ast.PathSegment) (types.TyID, bool) {
	if t.Kind != types.KindAdt {
		return types.NoTyID, false
	}

	type candidate struct {
		impl defs.DefID
		info oracle.AssocItemInfo
	}
	var found []candidate
	for _, impl := range c.L.Oracle.Table.InherentImpls(t.Def) {
		info, ok := c.L.Oracle.Table.AssocItemByName(impl, seg.Name, ast.AssocType)
		if !ok {
			continue
		}
		implSelf := c.L.SelfTypeOf(impl)
		if !c.L.Infer.CanEq(selfTy, implSelf) {
			continue
		}
		if !c.L.Solver.PredicatesMayHold(impl, selfTy) {
			continue
		}
		found = append(found, candidate{impl: impl, info: info})
	}

	switch len(found) {
	case 0:
		return types.NoTyID, false
	case 1:
		id := c.lowerSegmentArgs(found[0].info.Def, seg, []types.GenericArg{types.TyArg(selfTy)})
		return c.intern(types.MakeAlias(types.AliasInherent, found[0].info.Def, id)), true
	default:
		b := diag.ReportError(c.L.Reporter, diag.ElabAmbiguousAssocItem, segSpan(seg),
			fmt.Sprintf("multiple inherent impls define an associated type %q", c.name(seg.Name)))
		for _, cand := range found {
			b.WithNote(c.L.Oracle.Table.Span(cand.info.Def), "candidate defined here")
		}
		b.Emit()
		c.taint()
		return c.errTy(), true
	}
}

// boundAssocTy searches the trait bounds in scope on the base type for
// exactly one trait (supertrait closure included) declaring the item.
func (c *ItemContext) boundAssocTy(selfTy types.TyID, t types.Ty, seg *ast.PathSegment) types.TyID {
	if t.Kind != types.KindParam {
		diag.ReportError(c.L.Reporter, diag.ElabAssocItemNotFound, segSpan(seg),
			fmt.Sprintf("associated type %q not found for this type", c.name(seg.Name))).Emit()
		c.taint()
		return c.errTy()
	}

	roots := c.boundTraitsFor(t)
	var matches []assocMatch
	for _, root := range roots {
		for _, trait := range c.traitClosure(root.trait) {
			info, ok := c.L.Oracle.Table.AssocItemByName(trait, seg.Name, ast.AssocType)
			if !ok {
				continue
			}
			if containsMatch(matches, info.Def) {
				continue
			}
			matches = append(matches, assocMatch{root: root, trait: trait, info: info})
		}
	}

	switch len(matches) {
	case 0:
		b := diag.ReportError(c.L.Reporter, diag.ElabAssocItemNotFound, segSpan(seg),
			fmt.Sprintf("associated type %q not found in the bounds of %q",
				c.name(seg.Name), c.name(t.Name)))
		if alt, ok := c.closestAssocName(roots, seg.Name); ok {
			b.WithNote(segSpan(seg), fmt.Sprintf("an associated type %q exists; did you mean that?", alt))
		}
		b.Emit()
		c.taint()
		return c.errTy()

	case 1:
		return c.projectionTy(selfTy, matches[0], seg)

	default:
		b := diag.ReportError(c.L.Reporter, diag.ElabAmbiguousAssocItem, segSpan(seg),
			fmt.Sprintf("associated type %q is declared by multiple traits bounding %q",
				c.name(seg.Name), c.name(t.Name)))
		for _, m := range matches {
			b.WithNote(c.L.Oracle.Table.Span(m.info.Def),
				fmt.Sprintf("declared in trait %q", c.defName(m.trait)))
		}
		b.WithFix(fmt.Sprintf("qualify the path: `<%s as %s>::%s`",
			c.name(t.Name), c.defName(matches[0].trait), c.name(seg.Name)))
		b.Emit()
		c.taint()
		return c.errTy()
	}
}

type boundRoot struct {
	trait defs.DefID
	// ref is the written bound, when the root comes from a where clause.
	ref *ast.PolyTraitRef
}

type assocMatch struct {
	root  boundRoot
	trait defs.DefID
	info  oracle.AssocItemInfo
}

func containsMatch(ms []assocMatch, def defs.DefID) bool {
	for i := range ms {
		if ms[i].info.Def == def {
			return true
		}
	}
	return false
}

// projectionTy builds the projection alias for a resolved bound match. When
// the declaring trait is the bound's own trait its written arguments apply;
// traits reached through the supertrait closure instantiate with holes.
func (c *ItemContext) projectionTy(selfTy types.TyID, m assocMatch, seg *ast.PathSegment) types.TyID {
	prefix := []types.GenericArg{types.TyArg(selfTy)}
	if m.root.ref != nil && m.root.trait == m.trait {
		path := c.L.B.Paths.Get(m.root.ref.Trait)
		if path != nil {
			prefix = c.L.Types.LookupArgs(c.lowerSegmentArgs(m.trait, path.Last(), prefix))
			prefix = append([]types.GenericArg(nil), prefix...)
		}
	} else {
		g := c.L.Oracle.GenericsOf(m.trait)
		for i := range g.Params {
			p := &g.Params[i]
			if g.HasSelf && i == 0 {
				continue
			}
			switch p.Kind {
			case defs.ParamLifetime:
				prefix = append(prefix, types.RegionArg(types.ReInfer))
			case defs.ParamType:
				prefix = append(prefix, types.TyArg(c.L.Types.Builtins().Infer))
			default:
				prefix = append(prefix, types.ConstArg(c.L.Types.InternConst(types.Const{Kind: types.ConstInfer})))
			}
		}
	}
	args := c.lowerSegmentArgs(m.info.Def, seg, prefix)
	return c.intern(types.MakeAlias(types.AliasProjection, m.info.Def, args))
}

// boundTraitsFor collects the trait bounds visible on a type parameter: for
// `Self` the surrounding trait itself, otherwise the where clauses of the
// owner chain.
func (c *ItemContext) boundTraitsFor(param types.Ty) []boundRoot {
	var roots []boundRoot
	for _, scope := range c.ownersInScope() {
		if c.L.Oracle.Table.Kind(scope) == defs.DefTrait {
			g := c.L.Oracle.GenericsOf(scope)
			if g.HasSelf && g.ParentCount == param.Index {
				roots = append(roots, boundRoot{trait: scope})
			}
		}
		decl := c.L.B.Items.Generics(c.L.Oracle.Table.ItemOf(scope))
		if decl == nil {
			continue
		}
		for i := range decl.Where {
			pred := &decl.Where[i]
			if pred.Kind != ast.PredBound || !c.predTargetsParam(pred.Ty, param) {
				continue
			}
			for j := range pred.Bounds {
				b := &pred.Bounds[j]
				if b.Kind != ast.BoundTrait || b.Trait == nil || b.Modifier == ast.BoundModMaybe {
					continue
				}
				path := c.L.B.Paths.Get(b.Trait.Trait)
				if path == nil || path.Res.Kind != ast.ResDef || path.Res.DefKind != defs.DefTrait {
					continue
				}
				roots = append(roots, boundRoot{trait: path.Res.Def, ref: b.Trait})
			}
		}
	}
	return roots
}

// ownersInScope walks from the item owner outward through the def tree.
func (c *ItemContext) ownersInScope() []defs.DefID {
	var out []defs.DefID
	for d := c.Owner; d.IsValid(); d = c.L.Oracle.Table.Owner(d) {
		out = append(out, d)
	}
	return out
}

func (c *ItemContext) predTargetsParam(ty ast.TypeID, param types.Ty) bool {
	pt, ok := c.L.B.Types.Path(ty)
	if !ok {
		return false
	}
	p := c.L.B.Paths.Get(pt.Path)
	if p == nil || p.SelfTy.IsValid() || len(p.Segments) != 1 {
		return false
	}
	switch p.Res.Kind {
	case ast.ResSelfTyParam:
		g := c.L.Oracle.GenericsOf(p.Res.Def)
		return g.HasSelf && g.ParentCount == param.Index
	case ast.ResDef:
		return p.Res.DefKind == defs.DefTypeParam && c.paramIndex(p.Res.Def) == param.Index
	}
	return false
}

// traitClosure returns start plus every supertrait reachable from it,
// breadth-first with a visited set against cyclic hierarchies.
func (c *ItemContext) traitClosure(start defs.DefID) []defs.DefID {
	out := []defs.DefID{start}
	visited := map[defs.DefID]bool{start: true}
	for i := 0; i < len(out); i++ {
		tr, ok := c.L.B.Items.Trait(c.L.Oracle.Table.ItemOf(out[i]))
		if !ok {
			continue
		}
		for j := range tr.Supertraits {
			b := &tr.Supertraits[j]
			if b.Kind != ast.BoundTrait || b.Trait == nil {
				continue
			}
			path := c.L.B.Paths.Get(b.Trait.Trait)
			if path == nil || path.Res.Kind != ast.ResDef || path.Res.DefKind != defs.DefTrait {
				continue
			}
			if visited[path.Res.Def] {
				continue
			}
			visited[path.Res.Def] = true
			out = append(out, path.Res.Def)
		}
	}
	return out
}

func (c *ItemContext) closestAssocName(roots []boundRoot, name source.StringID) (string, bool) {
	target, ok := c.L.Strs.Lookup(name)
	if !ok {
		return "", false
	}
	var pool []string
	for _, root := range roots {
		for _, trait := range c.traitClosure(root.trait) {
			for _, info := range c.L.Oracle.Table.AssocItems(trait) {
				if info.Kind != ast.AssocType {
					continue
				}
				if s, ok := c.L.Strs.Lookup(info.Name); ok {
					pool = append(pool, s)
				}
			}
		}
	}
	return closestName(target, pool)
}

// lintVariantShadowsAssoc warns when a variant path would also resolve as an
// associated type through a trait bound. The variant wins.
func (c *ItemContext) lintVariantShadowsAssoc(selfTy types.TyID, variant defs.DefID, seg *ast.PathSegment) {
	t, ok := c.L.Types.LookupTy(selfTy)
	if !ok {
		return
	}
	for _, impl := range c.L.Oracle.Table.InherentImpls(t.Def) {
		if _, ok := c.L.Oracle.Table.AssocItemByName(impl, seg.Name, ast.AssocType); ok {
			diag.ReportWarning(c.L.Reporter, diag.ElabAmbiguousAssocLint, segSpan(seg),
				fmt.Sprintf("%q names both a variant and an associated type; the variant takes precedence", c.name(seg.Name))).
				WithNote(c.L.Oracle.Table.Span(variant), "variant defined here").
				WithFix(fmt.Sprintf("qualify the associated type: `<%s>::%s`", c.defName(t.Def), c.name(seg.Name))).
				Emit()
			return
		}
	}
}
