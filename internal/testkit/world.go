package testkit

import (
	"fmt"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/diag"
	"lumen/internal/oracle"
	"lumen/internal/source"
)

// World wires the elaboration front in memory: file set, string interner,
// surface arenas, definition table and a diagnostics bag. Declarations are
// fed in as signature strings; this is a development harness, not the product
// parser.
type World struct {
	FS       *source.FileSet
	Strs     *source.Interner
	B        *ast.Builder
	Table    *oracle.Table
	Oracle   *oracle.Oracle
	Bag      *diag.Bag
	Reporter diag.Reporter

	// Decls maps top-level declaration names to their defs.
	Decls map[string]defs.DefID
	// Order keeps top-level definitions in declaration order.
	Order []defs.DefID

	files int
}

func NewWorld() *World {
	fs := source.NewFileSet()
	tbl := oracle.NewTable()
	b := ast.NewBuilder(ast.Hints{})
	bag := diag.NewBag(256)
	return &World{
		FS:       fs,
		Strs:     source.NewInterner(),
		B:        b,
		Table:    tbl,
		Oracle:   oracle.New(tbl, b),
		Bag:      bag,
		Reporter: diag.BagReporter{Bag: bag},
		Decls:    make(map[string]defs.DefID),
	}
}

// Declare parses a batch of declarations and registers them. Names declared
// in the same batch may reference each other in any order.
func (w *World) Declare(src string) error {
	w.files++
	file := w.FS.AddVirtual(fmt.Sprintf("decl%d.lm", w.files), []byte(src))

	toks, err := scan(src, file)
	if err != nil {
		return err
	}
	p := &parser{w: w, file: file, toks: toks}
	p.predeclare()
	return p.run()
}

// Fns returns the top-level function defs in declaration order.
func (w *World) Fns() []defs.DefID {
	var out []defs.DefID
	for _, def := range w.Order {
		if w.Table.Kind(def) == defs.DefFn {
			out = append(out, def)
		}
	}
	return out
}

func assocInfo(ai ast.AssocItem, node ast.AssocItemID) oracle.AssocItemInfo {
	return oracle.AssocItemInfo{Def: ai.Def, Kind: ai.Kind, Name: ai.Name, Item: node}
}

func (w *World) name(id source.StringID) string {
	if s, ok := w.Strs.Lookup(id); ok {
		return s
	}
	return "_"
}
