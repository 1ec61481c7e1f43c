package types

import (
	"sync"
	"testing"

	"lumen/internal/defs"
)

func TestInternTyDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.InternTy(MakeRef(ReStatic, in.Builtins().Bool, false))
	b := in.InternTy(MakeRef(ReStatic, in.Builtins().Bool, false))
	if a != b {
		t.Fatalf("identical descriptors interned to %d and %d", a, b)
	}
	c := in.InternTy(MakeRef(ReStatic, in.Builtins().Bool, true))
	if c == a {
		t.Fatalf("mutability ignored by interner")
	}
}

func TestInternArgsDeduplicates(t *testing.T) {
	in := NewInterner()
	args := []GenericArg{
		RegionArg(MakeEarlyRegion(0, 7)),
		TyArg(in.Builtins().Int),
	}
	a := in.InternArgs(args)
	b := in.InternArgs([]GenericArg{
		RegionArg(MakeEarlyRegion(0, 7)),
		TyArg(in.Builtins().Int),
	})
	if a != b {
		t.Fatalf("identical arg lists interned to %d and %d", a, b)
	}
	got := in.LookupArgs(a)
	if len(got) != 2 || got[0].Kind != ArgRegion {
		t.Fatalf("lookup returned wrong list: %+v", got)
	}
}

func TestRegionShift(t *testing.T) {
	late := MakeLateRegion(Innermost, 2, 3)
	if got := late.Shifted(1).Depth; got != 1 {
		t.Fatalf("expected depth 1, got %d", got)
	}
	early := MakeEarlyRegion(0, 3)
	if got := early.Shifted(5); got != early {
		t.Fatalf("early region must not shift, got %+v", got)
	}
	if got := ReStatic.Shifted(2); got != ReStatic {
		t.Fatalf("'static must not shift, got %+v", got)
	}
}

func TestCanonicalizePredicates(t *testing.T) {
	const (
		principal = defs.DefID(10)
		autoA     = defs.DefID(30)
		autoB     = defs.DefID(20)
	)
	preds := []ExistentialPredicate{
		{Kind: ExistAutoTrait, Def: autoA},
		{Kind: ExistProjection, Trait: principal, Def: 11, Name: 2},
		{Kind: ExistAutoTrait, Def: autoB},
		{Kind: ExistTrait, Def: principal},
		{Kind: ExistAutoTrait, Def: autoB},
	}
	out := CanonicalizePredicates(preds)
	if len(out) != 4 {
		t.Fatalf("dedup failed, got %d predicates", len(out))
	}
	if out[0].Kind != ExistTrait {
		t.Fatalf("principal must sort first, got %+v", out[0])
	}
	if out[1].Kind != ExistProjection {
		t.Fatalf("projection must follow principal, got %+v", out[1])
	}
	if out[2].Def != autoB || out[3].Def != autoA {
		t.Fatalf("auto traits must sort by def id: %+v", out[2:])
	}
}

func TestInternerConcurrent(t *testing.T) {
	in := NewInterner()
	var wg sync.WaitGroup
	ids := make([]TyID, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := in.InternTy(MakeParam(uint32(i%10), 1))
				if i == 0 && g == 0 {
					ids[g] = id
				}
			}
		}(g)
	}
	wg.Wait()
	if in.Len() > 10+10 {
		t.Fatalf("concurrent interning created duplicates: %d entries", in.Len())
	}
}
