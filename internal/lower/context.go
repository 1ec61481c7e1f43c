package lower

import (
	"sync"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/oracle"
	"lumen/internal/regions"
	"lumen/internal/source"
	"lumen/internal/types"
)

// Lowerer owns the crate-wide collaborators of type lowering. It is safe for
// concurrent use; per-item state lives in ItemContext.
type Lowerer struct {
	B        *ast.Builder
	Oracle   *oracle.Oracle
	Types    *types.Interner
	Regions  *regions.Resolver
	Strs     *source.Interner
	Reporter diag.Reporter
	Infer    oracle.Inference
	Solver   oracle.Solver

	selfMu    sync.RWMutex
	selfCache map[defs.DefID]types.TyID
}

func NewLowerer(b *ast.Builder, o *oracle.Oracle, in *types.Interner, res *regions.Resolver, strs *source.Interner, rep diag.Reporter) *Lowerer {
	return &Lowerer{
		B:         b,
		Oracle:    o,
		Types:     in,
		Regions:   res,
		Strs:      strs,
		Reporter:  rep,
		Infer:     oracle.StructuralInference{In: in},
		Solver:    oracle.PermissiveSolver{},
		selfCache: make(map[defs.DefID]types.TyID),
	}
}

// ItemContext lowers types appearing in one item. Construction pulls the
// item's region map first, so resolution is always complete before lowering
// starts.
type ItemContext struct {
	L     *Lowerer
	Owner defs.DefID
	Map   *regions.NamedRegionMap
	// AllowInfer permits `_` and omitted arguments to become placeholders.
	AllowInfer bool

	memo    map[ast.TypeID]types.TyID
	tainted bool
}

func (l *Lowerer) NewItemContext(owner defs.DefID) *ItemContext {
	return &ItemContext{
		L:     l,
		Owner: owner,
		Map:   l.Regions.ResolveItem(owner),
		memo:  make(map[ast.TypeID]types.TyID),
	}
}

// Tainted reports whether this item produced any error sentinel.
func (c *ItemContext) Tainted() bool {
	return c.tainted || c.Map.Tainted
}

func (c *ItemContext) taint() { c.tainted = true }

func (c *ItemContext) name(id source.StringID) string {
	if s, ok := c.L.Strs.Lookup(id); ok {
		return s
	}
	return "_"
}

func (c *ItemContext) defName(id defs.DefID) string {
	return c.name(c.L.Oracle.Table.Name(id))
}

func (c *ItemContext) errTy() types.TyID {
	return c.L.Types.Builtins().Error
}

// regionFor maps a lifetime use to its resolved region. Absent entries are
// inference placeholders.
func (c *ItemContext) regionFor(id ast.LifetimeID) types.Region {
	if rg, ok := c.Map.Region(id); ok {
		return rg
	}
	return types.ReInfer
}
