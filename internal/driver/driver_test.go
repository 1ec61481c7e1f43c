package driver

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"lumen/internal/testkit"
	"lumen/internal/trace"
)

func declare(t *testing.T, src string) *testkit.World {
	t.Helper()
	w := testkit.NewWorld()
	if err := w.Declare(src); err != nil {
		t.Fatalf("Declare: %v", err)
	}
	return w
}

func moduleOf(w *testkit.World) Module {
	return Module{FS: w.FS, Strs: w.Strs, B: w.B, Table: w.Table, Items: w.Order}
}

func TestElaborateModule(t *testing.T) {
	w := declare(t, `
struct Pair<A, B>
fn swap<'a>(p: &'a Pair<bool, str>) -> &'a Pair<str, bool>
`)
	res, err := ElaborateModule(context.Background(), moduleOf(w), Options{})
	if err != nil {
		t.Fatalf("ElaborateModule: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Bag.Items())
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 item results, got %d", len(res.Items))
	}

	var fn *ItemResult
	for i := range res.Items {
		if res.Items[i].Name == "swap" {
			fn = &res.Items[i]
		}
	}
	if fn == nil {
		t.Fatalf("no result for swap")
	}
	if fn.Tainted {
		t.Fatalf("swap must lower cleanly")
	}
	if !strings.Contains(fn.Signature, "Pair") || !strings.Contains(fn.Signature, "->") {
		t.Fatalf("unexpected signature %q", fn.Signature)
	}
}

func TestElaborateReportsUndeclaredLifetime(t *testing.T) {
	w := declare(t, "fn f(x: &'b str)")
	res, err := ElaborateModule(context.Background(), moduleOf(w), Options{})
	if err != nil {
		t.Fatalf("ElaborateModule: %v", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatalf("undeclared lifetime must produce an error")
	}
}

func TestElaborateParallelIsDeterministic(t *testing.T) {
	src := `
struct Box<T>
fn a<'x>(v: &'x Box<bool>) -> &'x bool
fn b<'x>(v: &'x Box<str>) -> &'x str
fn c(v: bool) -> bool
`
	first, err := ElaborateModule(context.Background(), moduleOf(declare(t, src)), Options{Jobs: 1})
	if err != nil {
		t.Fatalf("sequential run: %v", err)
	}
	second, err := ElaborateModule(context.Background(), moduleOf(declare(t, src)), Options{Jobs: 4})
	if err != nil {
		t.Fatalf("parallel run: %v", err)
	}
	if len(first.Items) != len(second.Items) {
		t.Fatalf("result lengths differ: %d vs %d", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i].Signature != second.Items[i].Signature {
			t.Fatalf("item %d differs: %q vs %q", i, first.Items[i].Signature, second.Items[i].Signature)
		}
	}
}

func TestElaborateDiskCache(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	src := "fn id<'a>(x: &'a str) -> &'a str"

	cold, err := ElaborateModule(context.Background(), moduleOf(declare(t, src)), Options{Cache: cache})
	if err != nil {
		t.Fatalf("cold run: %v", err)
	}
	if cold.Items[0].Cached {
		t.Fatalf("cold run must not hit the cache")
	}

	warm, err := ElaborateModule(context.Background(), moduleOf(declare(t, src)), Options{Cache: cache})
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if !warm.Items[0].Cached {
		t.Fatalf("warm run must hit the cache")
	}
	if warm.Items[0].Signature != cold.Items[0].Signature {
		t.Fatalf("cached signature differs: %q vs %q", warm.Items[0].Signature, cold.Items[0].Signature)
	}
}

func TestElaborateCacheSkipsBrokenItems(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	src := "fn f(x: &'b str)"
	if _, err := ElaborateModule(context.Background(), moduleOf(declare(t, src)), Options{Cache: cache}); err != nil {
		t.Fatalf("cold run: %v", err)
	}
	warm, err := ElaborateModule(context.Background(), moduleOf(declare(t, src)), Options{Cache: cache})
	if err != nil {
		t.Fatalf("warm run: %v", err)
	}
	if warm.Items[0].Cached {
		t.Fatalf("an item with diagnostics must never be served from cache")
	}
}

func TestElaborateTraceEvents(t *testing.T) {
	var buf bytes.Buffer
	tracer := trace.NewStreamTracer(&buf, trace.LevelItem, trace.FormatText)
	w := declare(t, "fn f<'a>(x: &'a str) -> &'a str")
	if _, err := ElaborateModule(context.Background(), moduleOf(w), Options{Tracer: tracer}); err != nil {
		t.Fatalf("ElaborateModule: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "elaborate-module") {
		t.Fatalf("driver span missing from trace:\n%s", out)
	}
	if !strings.Contains(out, "f") {
		t.Fatalf("item span missing from trace:\n%s", out)
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("elaborate")
	tm.End(idx, "3 items")
	rep := tm.Report()
	if len(rep.Phases) != 1 || rep.Phases[0].Name != "elaborate" {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.Contains(rep.Summary(), "total") {
		t.Fatalf("summary must carry a total line")
	}
}
