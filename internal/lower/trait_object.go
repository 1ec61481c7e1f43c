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

// lowerTraitObject lowers `dyn Trait<..., Item = T> + Auto + 'l` into a
// Dynamic type: a canonical existential predicate list plus the object
// lifetime bound.
func (c *ItemContext) lowerTraitObject(obj *ast.TraitObjectType, span source.Span) types.TyID {
	if len(obj.Bounds) == 0 {
		diag.ReportError(c.L.Reporter, diag.ElabBareTrait, span,
			"trait object needs at least one trait bound").Emit()
		c.taint()
		return c.errTy()
	}

	var preds []types.ExistentialPredicate
	principalTrait := defs.NoDefID
	for i := range obj.Bounds {
		ref := &obj.Bounds[i]
		path := c.L.B.Paths.Get(ref.Trait)
		if path == nil || path.Res.Kind != ast.ResDef || path.Res.DefKind != defs.DefTrait {
			c.taint()
			return c.errTy()
		}
		trait := path.Res.Def
		seg := path.Last()

		if i == 0 {
			principalTrait = trait
			// Self is existentially bound, so the principal's argument
			// vector omits it.
			args := c.lowerSegmentArgs(trait, seg, nil)
			preds = append(preds, types.ExistentialPredicate{
				Kind: types.ExistTrait,
				Def:  trait,
				Args: args,
			})
			preds = append(preds, c.objectProjections(trait, args, seg)...)
			continue
		}
		if !c.markerLikeTrait(trait, seg) {
			diag.ReportError(c.L.Reporter, diag.ElabNonAutoObjectBound, ref.Span,
				fmt.Sprintf("trait %q cannot be an additional trait-object bound; only marker traits without generics or associated items can",
					c.defName(trait))).
				WithNote(c.L.Oracle.Table.Span(trait), fmt.Sprintf("trait %q defined here", c.defName(trait))).Emit()
			c.taint()
			continue
		}
		preds = append(preds, types.ExistentialPredicate{
			Kind: types.ExistAutoTrait,
			Def:  trait,
		})
	}

	preds = types.CanonicalizePredicates(preds)
	region := c.objectLifetimeBound(obj, principalTrait, preds, span)

	ty := types.MakeDynamic(c.L.Types.InternPreds(preds), region)
	ty.Vars = c.boundVarsOfObject(obj)
	return c.intern(ty)
}

// objectProjections turns the principal segment's equality bindings into
// existential projections. The declaring trait is searched through the
// supertrait closure, so `dyn Iterator<Item = u8>` works even when Item
// comes from a supertrait.
func (c *ItemContext) objectProjections(trait defs.DefID, principalArgs types.ArgsID, seg *ast.PathSegment) []types.ExistentialPredicate {
	if seg == nil || seg.Args == nil {
		return nil
	}
	var out []types.ExistentialPredicate
	for i := range seg.Args.Bindings {
		binding := &seg.Args.Bindings[i]
		if binding.Kind != ast.BindingEquality {
			diag.ReportError(c.L.Reporter, diag.ElabBindingNotAllowed, binding.Span,
				"constraint bindings are not allowed in trait objects").Emit()
			c.taint()
			continue
		}
		declaring, info, ok := c.assocTypeInClosure(trait, binding.Name)
		if !ok {
			diag.ReportError(c.L.Reporter, diag.ElabAssocItemNotFound, binding.Span,
				fmt.Sprintf("trait %q has no associated type %q",
					c.defName(trait), c.name(binding.Name))).Emit()
			c.taint()
			continue
		}
		out = append(out, types.ExistentialPredicate{
			Kind:  types.ExistProjection,
			Def:   info.Def,
			Trait: declaring,
			Name:  binding.Name,
			Args:  principalArgs,
			Term:  c.LowerTy(binding.Type),
		})
	}
	return out
}

// markerLikeTrait reports whether a trait can serve as an additional bound of
// a trait object: nothing but Self in its generics, no associated items, and
// nothing written at the use site. An existential auto-trait predicate carries
// only a def, so arguments or bindings on such a bound would have nowhere to
// go.
func (c *ItemContext) markerLikeTrait(trait defs.DefID, seg *ast.PathSegment) bool {
	if seg != nil && seg.Args != nil && (len(seg.Args.Args) > 0 || len(seg.Args.Bindings) > 0) {
		return false
	}
	if g := c.L.Oracle.GenericsOf(trait); len(g.Params) > 1 {
		return false
	}
	return len(c.L.Oracle.Table.AssocItems(trait)) == 0
}

func (c *ItemContext) assocTypeInClosure(start defs.DefID, name source.StringID) (defs.DefID, oracle.AssocItemInfo, bool) {
	for _, trait := range c.traitClosure(start) {
		if info, ok := c.L.Oracle.Table.AssocItemByName(trait, name, ast.AssocType); ok {
			return trait, info, true
		}
	}
	return defs.NoDefID, oracle.AssocItemInfo{}, false
}

// objectLifetimeBound picks the object's lifetime: an explicit bound wins,
// then a bound implied by the principal trait's supertrait outlives clauses,
// and only when the traits imply nothing does the position default recorded
// by region resolution apply. 'static wins among implied candidates;
// genuinely distinct candidates are ambiguous but lowering proceeds with the
// first.
func (c *ItemContext) objectLifetimeBound(obj *ast.TraitObjectType, principal defs.DefID, preds []types.ExistentialPredicate, span source.Span) types.Region {
	if obj.HasExplicitBound {
		return c.regionFor(obj.Lifetime)
	}

	implied := c.impliedObjectRegions(principal, preds)
	switch len(implied) {
	case 0:
		if r, ok := c.Map.Region(obj.Lifetime); ok {
			return r
		}
		return types.ReInfer
	case 1:
		return implied[0]
	default:
		for _, r := range implied {
			if r.Kind == types.RegionStatic {
				return r
			}
		}
		diag.ReportError(c.L.Reporter, diag.ElabAmbiguousObjectBound, span,
			"the lifetime bound for this object type cannot be deduced from its bounds; write it explicitly").Emit()
		c.taint()
		return implied[0]
	}
}

// impliedObjectRegions collects `'x` bounds the principal trait places on
// Self through its supertrait list, mapped through the principal's arguments.
func (c *ItemContext) impliedObjectRegions(principal defs.DefID, preds []types.ExistentialPredicate) []types.Region {
	if !principal.IsValid() {
		return nil
	}
	var principalArgs []types.GenericArg
	for i := range preds {
		if preds[i].Kind == types.ExistTrait {
			principalArgs = c.L.Types.LookupArgs(preds[i].Args)
			break
		}
	}

	g := c.L.Oracle.GenericsOf(principal)
	tr, ok := c.L.B.Items.Trait(c.L.Oracle.Table.ItemOf(principal))
	if !ok {
		return nil
	}

	var out []types.Region
	add := func(r types.Region) {
		for _, have := range out {
			if have == r {
				return
			}
		}
		out = append(out, r)
	}
	for i := range tr.Supertraits {
		b := &tr.Supertraits[i]
		if b.Kind != ast.BoundOutlives {
			continue
		}
		lt := c.L.B.Lifetimes.Get(b.Outlives)
		if lt == nil {
			continue
		}
		switch lt.Kind {
		case ast.LifetimeStatic:
			add(types.ReStatic)
		case ast.LifetimeNamed:
			// Map the trait's own lifetime param through the written
			// arguments; Self occupies no slot in the existential vector.
			for j := range g.Params {
				p := &g.Params[j]
				if p.Kind != defs.ParamLifetime || p.Name != lt.Name {
					continue
				}
				pos := int(p.Index)
				if g.HasSelf {
					pos--
				}
				if pos >= 0 && pos < len(principalArgs) && principalArgs[pos].Kind == types.ArgRegion {
					add(principalArgs[pos].Region)
				}
			}
		}
	}
	return out
}

// boundVarsOfObject gathers the HRTB variables of the object's binders so the
// interned type carries the same binder shape the region pass recorded.
func (c *ItemContext) boundVarsOfObject(obj *ast.TraitObjectType) types.BoundVarsID {
	var vars []types.BoundVarKind
	for i := range obj.Bounds {
		vars = append(vars, c.Map.Vars(obj.Bounds[i].Binder)...)
	}
	if len(vars) == 0 {
		return types.NoBoundVarsID
	}
	return c.L.Types.InternBoundVars(vars)
}
