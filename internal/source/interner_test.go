package source

import (
	"sync"
	"testing"
)

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Intern("Iterator")
	b := in.Intern("Iterator")
	if a != b {
		t.Fatalf("same string interned to different IDs: %d vs %d", a, b)
	}
	if s, ok := in.Lookup(a); !ok || s != "Iterator" {
		t.Fatalf("lookup returned %q, %v", s, ok)
	}
}

func TestInternerNoStringID(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(""); id != NoStringID {
		t.Fatalf("empty string must intern to NoStringID, got %d", id)
	}
}

func TestInternerConcurrent(t *testing.T) {
	in := NewInterner()
	names := []string{"Item", "Output", "Err", "Target", "Item", "Output"}
	var wg sync.WaitGroup
	ids := make([][]StringID, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for _, n := range names {
				ids[g] = append(ids[g], in.Intern(n))
			}
		}(g)
	}
	wg.Wait()
	for g := 1; g < 8; g++ {
		for i := range names {
			if ids[g][i] != ids[0][i] {
				t.Fatalf("goroutine %d saw a different ID for %q", g, names[i])
			}
		}
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 8 {
		t.Fatalf("cover produced %v", got)
	}
	other := Span{File: 2, Start: 0, End: 1}
	if got := a.Cover(other); got != a {
		t.Fatalf("cross-file cover must be a no-op, got %v", got)
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("demo.lm", []byte("fn f() {}\nfn g() {}\n"))
	start, _ := fs.Resolve(Span{File: id, Start: 10, End: 12})
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("expected 2:1, got %d:%d", start.Line, start.Col)
	}
}
