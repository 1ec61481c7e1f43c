package oracle

import (
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/source"
)

// Oracle answers elaboration queries over one crate. Generics are computed
// lazily and memoized; concurrent callers of the same query share one
// computation.
//
// Function generics are the exception: which of a function's lifetimes are
// early-bound is decided by region resolution, which installs the result via
// Table.SetGenerics before type lowering runs. Everything else (ADTs, traits,
// aliases, impls) treats all declared lifetimes as early.
type Oracle struct {
	Table *Table
	B     *ast.Builder

	sf       singleflight.Group
	mu       sync.RWMutex
	genCache map[defs.DefID]*defs.Generics
}

func New(table *Table, b *ast.Builder) *Oracle {
	return &Oracle{
		Table:    table,
		B:        b,
		genCache: make(map[defs.DefID]*defs.Generics),
	}
}

var emptyGenerics = &defs.Generics{}

// GenericsOf returns the flattened generics of a definition: parent params
// first, then own params with Self (traits only) at index 0.
func (o *Oracle) GenericsOf(def defs.DefID) *defs.Generics {
	if g, ok := o.Table.InstalledGenerics(def); ok {
		return g
	}
	o.mu.RLock()
	g, ok := o.genCache[def]
	o.mu.RUnlock()
	if ok {
		return g
	}
	v, _, _ := o.sf.Do(strconv.FormatUint(uint64(def), 10), func() (any, error) {
		g := o.computeGenerics(def)
		o.mu.Lock()
		o.genCache[def] = g
		o.mu.Unlock()
		return g, nil
	})
	return v.(*defs.Generics)
}

func (o *Oracle) computeGenerics(def defs.DefID) *defs.Generics {
	decl, parent := o.genericsDecl(def)
	if decl == nil {
		return emptyGenerics
	}

	g := &defs.Generics{Parent: parent}
	if parent.IsValid() {
		pg := o.GenericsOf(parent)
		g.ParentCount = pg.Count()
	}
	if o.Table.Kind(def) == defs.DefTrait {
		g.HasSelf = true
		g.Params = append(g.Params, defs.GenericParamDef{
			ID:    def,
			Name:  source.NoStringID,
			Index: g.ParentCount,
			Kind:  defs.ParamType,
		})
	}
	appendParam := func(p *ast.GenericParam) {
		g.Params = append(g.Params, defs.GenericParamDef{
			ID:         p.Def,
			Name:       p.Name,
			Index:      g.ParentCount + uint32(len(g.Params)),
			Kind:       p.Kind,
			HasDefault: p.Default.IsValid(),
			Synthetic:  p.Synthetic,
		})
	}
	for i := range decl.Params {
		if decl.Params[i].Kind == defs.ParamLifetime {
			appendParam(&decl.Params[i])
		}
	}
	for i := range decl.Params {
		if decl.Params[i].Kind != defs.ParamLifetime {
			appendParam(&decl.Params[i])
		}
	}
	return g
}

// genericsDecl finds the written generics of a definition and its generics
// parent. Members of traits and impls inherit the owner's params; opaques
// inherit the defining function's.
func (o *Oracle) genericsDecl(def defs.DefID) (*ast.GenericsDecl, defs.DefID) {
	if info, ok := o.Table.AssocItemOf(def); ok {
		item := o.B.AssocItems.Get(info.Item)
		if item == nil {
			return nil, defs.NoDefID
		}
		if item.Kind == ast.AssocFn {
			return &item.Fn.Generics, info.Owner
		}
		return &item.Generics, info.Owner
	}
	itemID := o.Table.ItemOf(def)
	if !itemID.IsValid() {
		// variants share the enum's generics
		if o.Table.Kind(def) == defs.DefVariant {
			return nil, defs.NoDefID
		}
		return nil, defs.NoDefID
	}
	decl := o.B.Items.Generics(itemID)
	if decl == nil {
		return nil, defs.NoDefID
	}
	var parent defs.DefID
	if op, ok := o.B.Items.Opaque(itemID); ok {
		if p := o.B.Items.Get(op.Parent); p != nil {
			parent = p.Def
		}
	}
	return decl, parent
}

// DefName renders a definition's name for diagnostics.
func (o *Oracle) DefName(strs *source.Interner, def defs.DefID) string {
	name := o.Table.Name(def)
	if s, ok := strs.Lookup(name); ok {
		return s
	}
	return ""
}
