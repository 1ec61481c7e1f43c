package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lumen/internal/ast"
	"lumen/internal/defs"
)

func TestDeclareFn(t *testing.T) {
	w := NewWorld()
	if err := w.Declare("fn f<'a>(x: &'a str) -> &'a str"); err != nil {
		t.Fatalf("Declare: %v", err)
	}

	fns := w.Fns()
	if len(fns) != 1 {
		t.Fatalf("expected one fn, got %d", len(fns))
	}
	item, ok := w.B.Items.Fn(w.Table.ItemOf(fns[0]))
	if !ok {
		t.Fatalf("fn def not bound to an item")
	}
	if len(item.Generics.Params) != 1 || item.Generics.Params[0].Kind != defs.ParamLifetime {
		t.Fatalf("expected one lifetime param, got %+v", item.Generics.Params)
	}
	if len(item.Sig.Inputs) != 1 || !item.Sig.Output.IsValid() {
		t.Fatalf("signature shape wrong: %+v", item.Sig)
	}
	ref, ok := w.B.Types.Ref(item.Sig.Inputs[0].Ty)
	if !ok {
		t.Fatalf("input must be a reference")
	}
	lt := w.B.Lifetimes.Get(ref.Lifetime)
	if lt.Kind != ast.LifetimeNamed || w.name(lt.Name) != "'a" {
		t.Fatalf("input lifetime must be the named 'a, got %+v", lt)
	}
}

func TestDeclareForwardReference(t *testing.T) {
	w := NewWorld()
	err := w.Declare("fn get(x: Pair) -> Pair\nstruct Pair<A, B = str>")
	if err != nil {
		t.Fatalf("forward reference must resolve within one batch: %v", err)
	}
	pair, ok := w.Decls["Pair"]
	if !ok || w.Table.Kind(pair) != defs.DefStruct {
		t.Fatalf("Pair not registered as a struct")
	}

	item, _ := w.B.Items.Fn(w.Table.ItemOf(w.Fns()[0]))
	pt, ok := w.B.Types.Path(item.Sig.Inputs[0].Ty)
	if !ok {
		t.Fatalf("input must be a path type")
	}
	res := w.B.Paths.Get(pt.Path).Res
	if res.Kind != ast.ResDef || res.Def != pair {
		t.Fatalf("input path must resolve to Pair, got %+v", res)
	}
}

func TestDeclareTraitAndImpl(t *testing.T) {
	w := NewWorld()
	err := w.Declare(`
struct Vec<T>
trait Seq {
	type Item;
	fn first(&self) -> &Self;
}
impl<T> Seq for Vec<T> {
	type Item = T;
}
`)
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}

	seq := w.Decls["Seq"]
	info, ok := w.Table.AssocItemByName(seq, w.Strs.Intern("Item"), ast.AssocType)
	if !ok || w.Table.Kind(info.Def) != defs.DefAssocType {
		t.Fatalf("trait assoc type not registered")
	}
	if _, ok := w.Table.AssocItemByName(seq, w.Strs.Intern("first"), ast.AssocFn); !ok {
		t.Fatalf("trait assoc fn not registered")
	}

	impls := w.Table.TraitImpls(seq)
	if len(impls) != 1 {
		t.Fatalf("expected one impl of Seq, got %d", len(impls))
	}
	vinfo, ok := w.Table.AssocItemByName(impls[0], w.Strs.Intern("Item"), ast.AssocType)
	if !ok {
		t.Fatalf("impl assoc type not registered")
	}
	node := w.B.AssocItems.Get(vinfo.Item)
	if node == nil || !node.Value.IsValid() {
		t.Fatalf("impl assoc type must carry its value")
	}
}

func TestDeclareEnumVariants(t *testing.T) {
	w := NewWorld()
	if err := w.Declare("enum Shape { Dot, Line }"); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	vs := w.Table.Variants(w.Decls["Shape"])
	if len(vs) != 2 {
		t.Fatalf("expected two variants, got %d", len(vs))
	}
	if _, ok := w.Table.VariantByName(w.Decls["Shape"], w.Strs.Intern("Line")); !ok {
		t.Fatalf("variant lookup by name failed")
	}
}

func TestDeclareUnresolvedName(t *testing.T) {
	w := NewWorld()
	err := w.Declare("fn f(x: Missing)")
	if err == nil || !strings.Contains(err.Error(), "unresolved") {
		t.Fatalf("expected an unresolved-name error, got %v", err)
	}
}

func TestDeclareComplexTypes(t *testing.T) {
	w := NewWorld()
	err := w.Declare(`
trait Debug
trait Send
fn g<'a, const N: uint>(
	cb: for<'b> fn(&'b str) -> &'b str,
	buf: &'a [bool; N],
	obj: &'a dyn Debug + Send + 'a,
	pair: (bool, str),
) -> &'a str
`)
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	item, _ := w.B.Items.Fn(w.Table.ItemOf(w.Fns()[0]))
	if len(item.Sig.Inputs) != 4 {
		t.Fatalf("expected 4 inputs, got %d", len(item.Sig.Inputs))
	}
	fnRef, ok := w.B.Types.FnPtr(item.Sig.Inputs[0].Ty)
	if !ok || len(fnRef.BoundParams) != 1 {
		t.Fatalf("first input must be a higher-ranked fn pointer")
	}
}

func TestFixtureRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.toml")
	body := `
name = "demo"
items = [
	"struct Pair<A, B>",
	"fn swap<'a>(p: &'a Pair<bool, str>) -> &'a Pair<str, bool>",
]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fx, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if fx.Name != "demo" || len(fx.Items) != 2 {
		t.Fatalf("unexpected fixture: %+v", fx)
	}

	w := NewWorld()
	if err := w.Declare(fx.Declarations()); err != nil {
		t.Fatalf("fixture declarations must parse: %v", err)
	}
	if len(w.Fns()) != 1 {
		t.Fatalf("expected one fn from the fixture")
	}
}
