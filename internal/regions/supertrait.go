package regions

import (
	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/source"
	"lumen/internal/types"
)

type supertraitEntry struct {
	trait defs.DefID
	vars  []types.BoundVarKind
}

// supertraitDefining walks the super-predicate graph breadth-first from
// start, looking for the trait declaring an associated item of the given
// name and kind. It returns that trait and the HRTB variables introduced by
// the binders crossed on the way; the visited set rejects cyclic trait
// hierarchies.
func (w *walkCtx) supertraitDefining(start defs.DefID, name source.StringID, kind ast.AssocItemKind) (defs.DefID, []types.BoundVarKind, bool) {
	queue := []supertraitEntry{{trait: start}}
	visited := map[defs.DefID]bool{start: true}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if _, ok := w.r.Oracle.Table.AssocItemByName(e.trait, name, kind); ok {
			return e.trait, e.vars, true
		}
		itemID := w.r.Oracle.Table.ItemOf(e.trait)
		tr, ok := w.r.B.Items.Trait(itemID)
		if !ok {
			continue
		}
		for i := range tr.Supertraits {
			b := &tr.Supertraits[i]
			if b.Kind != ast.BoundTrait || b.Trait == nil {
				continue
			}
			path := w.r.B.Paths.Get(b.Trait.Trait)
			if path == nil || path.Res.Kind != ast.ResDef || path.Res.DefKind != defs.DefTrait {
				continue
			}
			target := path.Res.Def
			if visited[target] {
				continue
			}
			visited[target] = true
			vars := append([]types.BoundVarKind(nil), e.vars...)
			for j := range b.Trait.BoundParams {
				bp := &b.Trait.BoundParams[j]
				if bp.Kind != defs.ParamLifetime {
					continue
				}
				vars = append(vars, types.BoundVarKind{Kind: defs.ParamLifetime, Def: bp.Def, Name: bp.Name})
			}
			queue = append(queue, supertraitEntry{trait: target, vars: vars})
		}
	}
	return defs.NoDefID, nil, false
}
