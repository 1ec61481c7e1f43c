package lower

import (
	"fmt"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/types"
)

// lowerPath lowers a (possibly qualified) path in type position. The base
// segment's resolution comes from name resolution; type-relative tails lower
// segment by segment via the associated-path search.
func (c *ItemContext) lowerPath(id ast.PathID) types.TyID {
	p := c.L.B.Paths.Get(id)
	if p == nil {
		return c.errTy()
	}
	if p.SelfTy.IsValid() {
		return c.lowerQPath(p)
	}

	base := p.Base()
	switch p.Res.Kind {
	case ast.ResErr:
		return c.errTy()

	case ast.ResPrimTy:
		return c.lowerPrimPath(p, base)

	case ast.ResSelfTyParam:
		c.forbidBindings(base)
		if base.Args.HasArgs() {
			diag.ReportError(c.L.Reporter, diag.ElabGenericArgTooMany, segSpan(base),
				"`Self` takes no generic arguments").Emit()
			c.taint()
		}
		self := c.selfParamTy(p.Res.Def)
		return c.lowerTail(self, p, 1)

	case ast.ResSelfTyAlias:
		c.forbidBindings(base)
		if p.Res.ForbidGeneric && base.Args.HasArgs() {
			diag.ReportError(c.L.Reporter, diag.ElabGenericArgTooMany, segSpan(base),
				"`Self` takes no generic arguments; write the concrete type instead").Emit()
			c.taint()
			return c.errTy()
		}
		return c.lowerTail(c.L.SelfTypeOf(p.Res.Def), p, 1)

	case ast.ResDef:
		return c.lowerDefPath(p, base)
	}

	diag.ReportError(c.L.Reporter, diag.ElabInternal, p.Span,
		"path reached type lowering without a base resolution").Emit()
	c.taint()
	return c.errTy()
}

func (c *ItemContext) lowerPrimPath(p *ast.Path, base *ast.PathSegment) types.TyID {
	c.forbidBindings(base)
	if base.Args.HasArgs() {
		diag.ReportError(c.L.Reporter, diag.ElabGenericArgTooMany, segSpan(base),
			"primitive types take no generic arguments").Emit()
		c.taint()
	}
	bt := c.L.Types.Builtins()
	var ty types.TyID
	switch p.Res.Prim {
	case ast.PrimBool:
		ty = bt.Bool
	case ast.PrimChar:
		ty = bt.Char
	case ast.PrimStr:
		ty = bt.Str
	case ast.PrimInt:
		ty = bt.Int
	case ast.PrimUint:
		ty = bt.Uint
	case ast.PrimFloat:
		ty = bt.Float
	default:
		ty = bt.Error
	}
	return c.lowerTail(ty, p, 1)
}

func (c *ItemContext) lowerDefPath(p *ast.Path, base *ast.PathSegment) types.TyID {
	def := p.Res.Def
	switch p.Res.DefKind {
	case defs.DefStruct, defs.DefEnum, defs.DefUnion:
		c.forbidBindings(base)
		args := c.lowerSegmentArgs(def, base, nil)
		return c.lowerTail(c.intern(types.MakeAdt(def, args)), p, 1)

	case defs.DefTypeAlias:
		c.forbidBindings(base)
		args := c.lowerSegmentArgs(def, base, nil)
		return c.lowerTail(c.intern(types.MakeAlias(types.AliasWeak, def, args)), p, 1)

	case defs.DefOpaque:
		c.forbidBindings(base)
		args := c.lowerSegmentArgs(def, base, nil)
		return c.lowerTail(c.intern(types.MakeAlias(types.AliasOpaque, def, args)), p, 1)

	case defs.DefForeignType:
		c.forbidBindings(base)
		if base.Args.HasArgs() {
			diag.ReportError(c.L.Reporter, diag.ElabGenericArgTooMany, segSpan(base),
				fmt.Sprintf("foreign type %q takes no generic arguments", c.defName(def))).Emit()
			c.taint()
		}
		return c.lowerTail(c.intern(types.MakeForeign(def)), p, 1)

	case defs.DefTypeParam:
		c.forbidBindings(base)
		if base.Args.HasArgs() {
			diag.ReportError(c.L.Reporter, diag.ElabGenericArgTooMany, segSpan(base),
				fmt.Sprintf("type parameter %q takes no generic arguments", c.defName(def))).Emit()
			c.taint()
		}
		ty := c.intern(types.MakeParam(c.paramIndex(def), c.L.Oracle.Table.Name(def)))
		return c.lowerTail(ty, p, 1)

	case defs.DefAssocType:
		// Pre-resolved `Self::Item` inside the defining trait.
		info, ok := c.L.Oracle.Table.AssocItemOf(def)
		if !ok {
			return c.errTy()
		}
		prefix := c.identityArgs(info.Owner)
		args := c.lowerSegmentArgs(def, p.Last(), prefix)
		return c.intern(types.MakeAlias(types.AliasProjection, def, args))

	case defs.DefTrait:
		if len(p.Segments) > 1 {
			// `Trait::Item` without a written self type.
			return c.ReportMissingSelfTy(p, def)
		}
		diag.ReportError(c.L.Reporter, diag.ElabBareTrait, p.Span,
			fmt.Sprintf("trait %q cannot be used directly as a type; use `dyn %s` or `impl %s`",
				c.defName(def), c.defName(def), c.defName(def))).Emit()
		c.taint()
		return c.errTy()

	case defs.DefVariant:
		diag.ReportError(c.L.Reporter, diag.ElabVariantInTypePosition, p.Span,
			fmt.Sprintf("%q is an enum variant, not a type", c.defName(def))).
			WithNote(c.L.Oracle.Table.Span(def), "variant defined here").Emit()
		c.taint()
		return c.errTy()
	}

	diag.ReportError(c.L.Reporter, diag.ElabInternal, p.Span,
		fmt.Sprintf("definition kind %q cannot appear in type position", p.Res.DefKind)).Emit()
	c.taint()
	return c.errTy()
}

// lowerTail lowers the type-relative tail segments after the base type.
func (c *ItemContext) lowerTail(base types.TyID, p *ast.Path, from int) types.TyID {
	ty := base
	for i := from; i < len(p.Segments); i++ {
		ty = c.LowerAssocPath(ty, &p.Segments[i], false)
		if ty == c.errTy() {
			return ty
		}
	}
	return ty
}

// selfParamTy is the `Self` type parameter of a trait.
func (c *ItemContext) selfParamTy(trait defs.DefID) types.TyID {
	g := c.L.Oracle.GenericsOf(trait)
	return c.intern(types.MakeParam(g.ParentCount, c.L.Strs.Intern("Self")))
}

// SelfTypeOf lowers and caches the self type of an impl, used by `Self` paths
// inside its members.
func (l *Lowerer) SelfTypeOf(impl defs.DefID) types.TyID {
	l.selfMu.RLock()
	ty, ok := l.selfCache[impl]
	l.selfMu.RUnlock()
	if ok {
		return ty
	}

	var out types.TyID
	im, found := l.B.Items.Impl(l.Oracle.Table.ItemOf(impl))
	if !found {
		out = l.Types.Builtins().Error
	} else {
		ic := l.NewItemContext(impl)
		out = ic.LowerTy(im.SelfTy)
	}

	l.selfMu.Lock()
	if prev, ok := l.selfCache[impl]; ok {
		out = prev
	} else {
		l.selfCache[impl] = out
	}
	l.selfMu.Unlock()
	return out
}
