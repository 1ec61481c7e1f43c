package types

import (
	"fmt"
	"strings"

	"lumen/internal/defs"
	"lumen/internal/source"
)

// Printer renders interned types for diagnostics and dumps. DefName resolves
// definition names; when nil, defs print as #N.
type Printer struct {
	In      *Interner
	Strs    *source.Interner
	DefName func(defs.DefID) string
}

func (p *Printer) defName(id defs.DefID) string {
	if p.DefName != nil {
		if name := p.DefName(id); name != "" {
			return name
		}
	}
	return fmt.Sprintf("#%d", id)
}

func (p *Printer) str(id source.StringID) string {
	if p.Strs != nil {
		if s, ok := p.Strs.Lookup(id); ok {
			return s
		}
	}
	return fmt.Sprintf("str#%d", id)
}

func (p *Printer) Region(r Region) string {
	switch r.Kind {
	case RegionEarly, RegionLate, RegionFree:
		if r.Def.IsValid() {
			return "'" + p.defName(r.Def)
		}
	case RegionLateAnon:
		return "'_"
	}
	return r.String()
}

func (p *Printer) Ty(id TyID) string {
	t, ok := p.In.LookupTy(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindError:
		return "{error}"
	case KindBool, KindChar, KindStr, KindNever, KindInfer:
		return primName(t.Kind)
	case KindInt, KindUint, KindFloat:
		return numName(t.Kind, t.Width)
	case KindAdt, KindForeign:
		return p.defName(t.Def) + p.Args(t.Args)
	case KindRef:
		mut := ""
		if t.Mut {
			mut = "mut "
		}
		return "&" + p.Region(t.Region) + " " + mut + p.Ty(t.Elem)
	case KindRawPtr:
		mut := "const"
		if t.Mut {
			mut = "mut"
		}
		return "*" + mut + " " + p.Ty(t.Elem)
	case KindSlice:
		return "[" + p.Ty(t.Elem) + "]"
	case KindArray:
		return "[" + p.Ty(t.Elem) + "; " + p.Const(t.Const) + "]"
	case KindTuple:
		elems := p.In.LookupTys(t.Tys)
		if len(elems) == 0 {
			return "()"
		}
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = p.Ty(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindFnPtr:
		sig := p.In.LookupTys(t.Tys)
		if len(sig) == 0 {
			return "fn()"
		}
		in := make([]string, len(sig)-1)
		for i := 0; i < len(sig)-1; i++ {
			in[i] = p.Ty(sig[i])
		}
		return "fn(" + strings.Join(in, ", ") + ") -> " + p.Ty(sig[len(sig)-1])
	case KindDynamic:
		return "dyn " + p.preds(t.Preds) + " + " + p.Region(t.Region)
	case KindAlias:
		switch t.Alias {
		case AliasOpaque:
			return "impl " + p.defName(t.Def) + p.Args(t.Args)
		default:
			return p.defName(t.Def) + p.Args(t.Args)
		}
	case KindParam:
		return p.str(t.Name)
	}
	return fmt.Sprintf("<%s>", t.Kind)
}

// Args renders a bracketed argument list, empty string for no args.
func (p *Printer) Args(id ArgsID) string {
	args := p.In.LookupArgs(id)
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		switch a.Kind {
		case ArgRegion:
			parts[i] = p.Region(a.Region)
		case ArgTy:
			parts[i] = p.Ty(a.Ty)
		case ArgConst:
			parts[i] = p.Const(a.Const)
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (p *Printer) Const(id ConstID) string {
	c, ok := p.In.LookupConst(id)
	if !ok {
		return "_"
	}
	switch c.Kind {
	case ConstParam:
		return p.defName(c.Def)
	case ConstValue:
		return p.str(c.Value)
	case ConstInfer:
		return "_"
	}
	return "{const error}"
}

func (p *Printer) preds(id PredsID) string {
	preds := p.In.LookupPreds(id)
	if len(preds) == 0 {
		return "{empty}"
	}
	parts := make([]string, 0, len(preds))
	var bindings []string
	for _, pr := range preds {
		switch pr.Kind {
		case ExistTrait, ExistAutoTrait:
			parts = append(parts, p.defName(pr.Def)+p.Args(pr.Args))
		case ExistProjection:
			bindings = append(bindings, p.str(pr.Name)+" = "+p.Ty(pr.Term))
		}
	}
	out := strings.Join(parts, " + ")
	if len(bindings) > 0 {
		out += "<" + strings.Join(bindings, ", ") + ">"
	}
	return out
}

func primName(k TyKind) string {
	switch k {
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindStr:
		return "str"
	case KindNever:
		return "!"
	case KindInfer:
		return "_"
	}
	return "?"
}

func numName(k TyKind, w Width) string {
	base := "int"
	switch k {
	case KindUint:
		base = "uint"
	case KindFloat:
		base = "float"
	}
	if w == WidthAny {
		return base
	}
	return fmt.Sprintf("%s%d", base, w)
}
