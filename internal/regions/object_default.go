package regions

import (
	"lumen/internal/ast"
	"lumen/internal/defs"
)

// ObjectDefaultsOf computes, once per definition, the object lifetime default
// of each own type parameter, in declaration order, from its `T: 'x` where
// bounds: no bounds means empty, a single bound fixes the default, several
// distinct bounds force the user to write the object lifetime explicitly.
func (r *Resolver) ObjectDefaultsOf(def defs.DefID) []defs.ObjectDefault {
	r.objMu.RLock()
	out, ok := r.objDefaults[def]
	r.objMu.RUnlock()
	if ok {
		return out
	}

	out = r.computeObjectDefaults(def)

	r.objMu.Lock()
	if prev, ok := r.objDefaults[def]; ok {
		out = prev
	} else {
		r.objDefaults[def] = out
	}
	r.objMu.Unlock()
	return out
}

func (r *Resolver) computeObjectDefaults(def defs.DefID) []defs.ObjectDefault {
	itemID := r.Oracle.Table.ItemOf(def)
	decl := r.B.Items.Generics(itemID)
	if decl == nil {
		return nil
	}

	lifetimeByName := make(map[uint32]defs.DefID)
	for i := range decl.Params {
		if decl.Params[i].Kind == defs.ParamLifetime {
			lifetimeByName[uint32(decl.Params[i].Name)] = decl.Params[i].Def
		}
	}

	var out []defs.ObjectDefault
	for i := range decl.Params {
		p := &decl.Params[i]
		if p.Kind != defs.ParamType {
			continue
		}
		out = append(out, r.paramObjectDefault(decl, p, lifetimeByName))
	}
	return out
}

func (r *Resolver) paramObjectDefault(decl *ast.GenericsDecl, p *ast.GenericParam, lifetimes map[uint32]defs.DefID) defs.ObjectDefault {
	sawStatic := false
	bounds := make(map[defs.DefID]bool)
	for i := range decl.Where {
		pred := &decl.Where[i]
		if pred.Kind != ast.PredBound || !r.isPlainParamPath(pred.Ty, p.Def) {
			continue
		}
		for j := range pred.Bounds {
			b := &pred.Bounds[j]
			if b.Kind != ast.BoundOutlives {
				continue
			}
			lt := r.B.Lifetimes.Get(b.Outlives)
			if lt == nil {
				continue
			}
			switch lt.Kind {
			case ast.LifetimeStatic:
				sawStatic = true
			case ast.LifetimeNamed:
				if def, ok := lifetimes[uint32(lt.Name)]; ok {
					bounds[def] = true
				}
			}
		}
	}

	n := len(bounds)
	if sawStatic {
		n++
	}
	switch {
	case n == 0:
		return defs.ObjectDefault{Kind: defs.ObjectDefaultEmpty}
	case n > 1:
		return defs.ObjectDefault{Kind: defs.ObjectDefaultAmbiguous}
	case sawStatic:
		return defs.ObjectDefault{Kind: defs.ObjectDefaultStatic}
	default:
		for def := range bounds {
			return defs.ObjectDefault{Kind: defs.ObjectDefaultParam, Param: def}
		}
		return defs.ObjectDefault{Kind: defs.ObjectDefaultEmpty}
	}
}

// isPlainParamPath checks that a type is a bare path to the given param.
func (r *Resolver) isPlainParamPath(ty ast.TypeID, param defs.DefID) bool {
	pt, ok := r.B.Types.Path(ty)
	if !ok {
		return false
	}
	p := r.B.Paths.Get(pt.Path)
	if p == nil || p.SelfTy.IsValid() || len(p.Segments) != 1 {
		return false
	}
	return p.Res.Kind == ast.ResDef && p.Res.Def == param
}
