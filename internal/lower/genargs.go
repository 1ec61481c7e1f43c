package lower

import (
	"fmt"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/types"
)

// lowerSegmentArgs builds the full argument vector for a definition used at
// one path segment: prefix (parent or Self arguments) followed by the own
// parameters matched against the written arguments. Arity is checked before
// any argument lowers, so a malformed list produces exactly one arity
// diagnostic and still yields a vector of the right length.
func (c *ItemContext) lowerSegmentArgs(def defs.DefID, seg *ast.PathSegment, prefix []types.GenericArg) types.ArgsID {
	g := c.L.Oracle.GenericsOf(def)

	own := g.Params
	if g.HasSelf {
		// Self is supplied through prefix, never written at the segment.
		own = own[1:]
	}

	written := segWritten(seg)
	c.checkArity(def, own, written, seg)

	args := append([]types.GenericArg(nil), prefix...)
	var lifetimeCur, otherCur int
	for i := range own {
		p := &own[i]
		switch p.Kind {
		case defs.ParamLifetime:
			args = append(args, c.lifetimeFormal(written, &lifetimeCur))
		case defs.ParamType:
			args = append(args, c.typeFormal(def, p, written, &otherCur, args, seg))
		case defs.ParamConst:
			args = append(args, c.constFormal(def, p, written, &otherCur, args, seg))
		}
	}
	return c.L.Types.InternArgs(args)
}

// segWritten splits a segment's written arguments by formal kind.
type writtenArgs struct {
	lifetimes []ast.GenericArg
	other     []ast.GenericArg // types, consts and inferred holes, written order
}

func segWritten(seg *ast.PathSegment) writtenArgs {
	var w writtenArgs
	if seg == nil || seg.Args == nil {
		return w
	}
	for _, a := range seg.Args.Args {
		if a.Kind == ast.ArgLifetime {
			w.lifetimes = append(w.lifetimes, a)
		} else {
			w.other = append(w.other, a)
		}
	}
	return w
}

func (c *ItemContext) checkArity(def defs.DefID, own []defs.GenericParamDef, written writtenArgs, seg *ast.PathSegment) {
	var formalLts, formalOther, defaults int
	for i := range own {
		switch own[i].Kind {
		case defs.ParamLifetime:
			formalLts++
		default:
			formalOther++
			if own[i].HasDefault {
				defaults++
			}
		}
	}

	span := segSpan(seg)
	name := c.defName(def)
	kind := c.L.Oracle.Table.Kind(def).String()

	// Written lifetimes are all-or-nothing: zero means elision.
	if n := len(written.lifetimes); n > 0 && n != formalLts {
		code := diag.ElabGenericArgTooFew
		if n > formalLts {
			code = diag.ElabGenericArgTooMany
		}
		diag.ReportError(c.L.Reporter, code, span,
			fmt.Sprintf("%s %q takes %s but %s supplied",
				kind, name, plural(formalLts, "lifetime argument"), plural(n, "lifetime argument", "was", "were"))).
			WithNote(c.L.Oracle.Table.Span(def), fmt.Sprintf("%s %q defined here", kind, name)).
			Emit()
		c.taint()
	}

	switch n := len(written.other); {
	case n > formalOther:
		diag.ReportError(c.L.Reporter, diag.ElabGenericArgTooMany, span,
			fmt.Sprintf("%s %q takes %s but %s supplied",
				kind, name, plural(formalOther, "generic argument"), plural(n, "generic argument", "was", "were"))).
			WithNote(c.L.Oracle.Table.Span(def), fmt.Sprintf("%s %q defined here", kind, name)).
			Emit()
		c.taint()
	case n < formalOther-defaults && !segInfers(seg) && !c.AllowInfer:
		diag.ReportError(c.L.Reporter, diag.ElabGenericArgTooFew, span,
			fmt.Sprintf("%s %q takes at least %s but %s supplied",
				kind, name, plural(formalOther-defaults, "generic argument"), plural(n, "generic argument", "was", "were"))).
			WithNote(c.L.Oracle.Table.Span(def), fmt.Sprintf("%s %q defined here", kind, name)).
			Emit()
		c.taint()
	}
}

func (c *ItemContext) lifetimeFormal(written writtenArgs, cur *int) types.GenericArg {
	if *cur < len(written.lifetimes) {
		a := written.lifetimes[*cur]
		*cur++
		return types.RegionArg(c.regionFor(a.Lifetime))
	}
	// Elided path lifetime: either resolved positionally by the region pass
	// (which records the implicit node) or left to inference.
	return types.RegionArg(types.ReInfer)
}

func (c *ItemContext) typeFormal(def defs.DefID, p *defs.GenericParamDef, written writtenArgs, cur *int, soFar []types.GenericArg, seg *ast.PathSegment) types.GenericArg {
	if *cur < len(written.other) {
		a := written.other[*cur]
		*cur++
		switch a.Kind {
		case ast.ArgType:
			return types.TyArg(c.LowerTy(a.Type))
		case ast.ArgInfer:
			return types.TyArg(c.inferHole(a.Span))
		default:
			c.reportKindMismatch(p, a)
			return types.TyArg(c.errTy())
		}
	}
	if p.HasDefault {
		return types.TyArg(c.paramDefault(def, p, soFar))
	}
	if segInfers(seg) || c.AllowInfer {
		return types.TyArg(c.inferHole(segSpan(seg)))
	}
	// arity diagnostic already covers this hole
	return types.TyArg(c.errTy())
}

func (c *ItemContext) constFormal(def defs.DefID, p *defs.GenericParamDef, written writtenArgs, cur *int, soFar []types.GenericArg, seg *ast.PathSegment) types.GenericArg {
	expected := c.constParamType(def, p, soFar)
	if *cur < len(written.other) {
		a := written.other[*cur]
		*cur++
		switch a.Kind {
		case ast.ArgConst:
			return types.ConstArg(c.typedConst(c.lowerConstArg(a.Const), expected))
		case ast.ArgInfer:
			return types.ConstArg(c.inferConst(a.Span, expected))
		default:
			c.reportKindMismatch(p, a)
			return types.ConstArg(c.L.Types.InternConst(types.Const{Kind: types.ConstError, Ty: expected}))
		}
	}
	if segInfers(seg) || c.AllowInfer {
		return types.ConstArg(c.inferConst(segSpan(seg), expected))
	}
	return types.ConstArg(c.L.Types.InternConst(types.Const{Kind: types.ConstError, Ty: expected}))
}

// constParamType lowers the declared type of a const parameter and
// instantiates it with the arguments already produced to its left, so a
// const placeholder knows the type its eventual value must have.
func (c *ItemContext) constParamType(def defs.DefID, p *defs.GenericParamDef, soFar []types.GenericArg) types.TyID {
	decl := c.L.B.Items.Generics(c.L.Oracle.Table.ItemOf(def))
	if decl == nil {
		return c.errTy()
	}
	var ct ast.TypeID
	for i := range decl.Params {
		if decl.Params[i].Def == p.ID {
			ct = decl.Params[i].ConstType
			break
		}
	}
	if !ct.IsValid() {
		return c.errTy()
	}
	dc := c.L.NewItemContext(def)
	return substTy(c.L.Types, dc.LowerTy(ct), soFar)
}

// typedConst stamps the expected type onto a lowered const that does not
// carry one yet.
func (c *ItemContext) typedConst(id types.ConstID, expected types.TyID) types.ConstID {
	k, ok := c.L.Types.LookupConst(id)
	if !ok || k.Ty.IsValid() {
		return id
	}
	k.Ty = expected
	return c.L.Types.InternConst(k)
}

// paramDefault lowers a type parameter's declared default and instantiates it
// with the arguments already produced to its left.
func (c *ItemContext) paramDefault(def defs.DefID, p *defs.GenericParamDef, soFar []types.GenericArg) types.TyID {
	decl := c.L.B.Items.Generics(c.L.Oracle.Table.ItemOf(def))
	if decl == nil {
		return c.errTy()
	}
	var dflt ast.TypeID
	for i := range decl.Params {
		if decl.Params[i].Def == p.ID {
			dflt = decl.Params[i].Default
			break
		}
	}
	if !dflt.IsValid() {
		return c.errTy()
	}
	// Defaults are written at the definition, so they lower in the
	// definition's own context before substitution.
	dc := c.L.NewItemContext(def)
	return substTy(c.L.Types, dc.LowerTy(dflt), soFar)
}

func (c *ItemContext) inferHole(sp source.Span) types.TyID {
	if !c.AllowInfer {
		diag.ReportError(c.L.Reporter, diag.ElabInferNotAllowed, sp,
			"the placeholder `_` is not allowed within types on item signatures").Emit()
		c.taint()
		return c.errTy()
	}
	return c.L.Types.Builtins().Infer
}

func (c *ItemContext) inferConst(sp source.Span, expected types.TyID) types.ConstID {
	if !c.AllowInfer {
		diag.ReportError(c.L.Reporter, diag.ElabInferNotAllowed, sp,
			"the placeholder `_` is not allowed for const arguments on item signatures").Emit()
		c.taint()
		return c.L.Types.InternConst(types.Const{Kind: types.ConstError, Ty: expected})
	}
	return c.L.Types.InternConst(types.Const{Kind: types.ConstInfer, Ty: expected})
}

func (c *ItemContext) reportKindMismatch(p *defs.GenericParamDef, a ast.GenericArg) {
	diag.ReportError(c.L.Reporter, diag.ElabGenericArgKindMismatch, a.Span,
		fmt.Sprintf("expected a %s argument for parameter %q, found a %s argument",
			p.Kind, c.name(p.Name), writtenKind(a.Kind))).Emit()
	c.taint()
}

// forbidBindings rejects `Item = T` bindings on segments of non-trait paths.
func (c *ItemContext) forbidBindings(seg *ast.PathSegment) {
	if seg == nil || seg.Args == nil || len(seg.Args.Bindings) == 0 {
		return
	}
	for i := range seg.Args.Bindings {
		diag.ReportError(c.L.Reporter, diag.ElabBindingNotAllowed, seg.Args.Bindings[i].Span,
			"associated bindings are only allowed on trait paths").Emit()
	}
	c.taint()
}

func segSpan(seg *ast.PathSegment) source.Span {
	if seg == nil {
		return source.Span{}
	}
	if seg.Args != nil {
		return seg.Args.Span
	}
	return seg.Span
}

func segInfers(seg *ast.PathSegment) bool {
	return seg != nil && seg.InferArgs
}

func writtenKind(k ast.GenericArgKind) string {
	switch k {
	case ast.ArgLifetime:
		return "lifetime"
	case ast.ArgType:
		return "type"
	case ast.ArgConst:
		return "const"
	case ast.ArgInfer:
		return "inferred"
	}
	return "unknown"
}

func plural(n int, noun string, verbs ...string) string {
	s := ""
	if n != 1 {
		s = "s"
	}
	out := fmt.Sprintf("%d %s%s", n, noun, s)
	if len(verbs) == 2 {
		v := verbs[0]
		if n != 1 {
			v = verbs[1]
		}
		out += " " + v
	}
	return out
}
