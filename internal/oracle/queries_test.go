package oracle_test

import (
	"testing"

	"lumen/internal/ast"
	"lumen/internal/defs"
	"lumen/internal/testkit"
)

func TestGenericsOfTraitHasSelf(t *testing.T) {
	w := testkit.NewWorld()
	if err := w.Declare("trait Seq<T>"); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	g := w.Oracle.GenericsOf(w.Decls["Seq"])
	if !g.HasSelf {
		t.Fatalf("trait generics must carry Self")
	}
	if g.Count() != 2 {
		t.Fatalf("expected Self + T, got %d params", g.Count())
	}
	if g.Params[0].ID != w.Decls["Seq"] || g.Params[0].Kind != defs.ParamType {
		t.Fatalf("Self param malformed: %+v", g.Params[0])
	}
}

func TestGenericsOfFlattensParents(t *testing.T) {
	w := testkit.NewWorld()
	err := w.Declare(`
trait Seq<T> {
	fn get<'a>(&'a self) -> &'a T;
}
`)
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	info, ok := w.Table.AssocItemByName(w.Decls["Seq"], w.Strs.Intern("get"), ast.AssocFn)
	if !ok {
		t.Fatalf("assoc fn not registered")
	}
	g := w.Oracle.GenericsOf(info.Def)
	if g.ParentCount != 2 {
		t.Fatalf("expected Self + T from the trait, got parent count %d", g.ParentCount)
	}
	if g.Count() != 3 {
		t.Fatalf("expected trait params plus 'a, got %d", g.Count())
	}
}

func TestGenericsOfMemoized(t *testing.T) {
	w := testkit.NewWorld()
	if err := w.Declare("struct Box<T>"); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	first := w.Oracle.GenericsOf(w.Decls["Box"])
	second := w.Oracle.GenericsOf(w.Decls["Box"])
	if first != second {
		t.Fatalf("generics must be memoized per definition")
	}
}
