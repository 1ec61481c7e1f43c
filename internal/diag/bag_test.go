package diag

import (
	"testing"

	"lumen/internal/source"
)

func TestBagCap(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(ElabMissingLifetime, source.Span{}, "one")) {
		t.Fatalf("first add rejected")
	}
	if !b.Add(NewError(ElabMissingLifetime, source.Span{}, "two")) {
		t.Fatalf("second add rejected")
	}
	if b.Add(NewError(ElabMissingLifetime, source.Span{}, "three")) {
		t.Fatalf("cap not enforced")
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
}

func TestBagSortDeterministic(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevWarning, ElabAmbiguousAssocLint, source.Span{File: 1, Start: 5, End: 6}, "w"))
	b.Add(NewError(ElabAmbiguousAssocItem, source.Span{File: 1, Start: 5, End: 6}, "e"))
	b.Add(NewError(ElabGenericArgTooFew, source.Span{File: 1, Start: 1, End: 2}, "first"))
	b.Sort()
	items := b.Items()
	if items[0].Message != "first" {
		t.Fatalf("expected position sort first, got %q", items[0].Message)
	}
	if items[1].Severity != SevError {
		t.Fatalf("same-span ordering must put errors before warnings")
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	sp := source.Span{File: 1, Start: 3, End: 9}
	b.Add(NewError(ElabAssocItemNotFound, sp, "no Item"))
	b.Add(NewError(ElabAssocItemNotFound, sp, "no Item"))
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("dedup left %d items", b.Len())
	}
}

func TestCodeID(t *testing.T) {
	if got := ElabMissingLifetime.ID(); got != "ELB1200" {
		t.Fatalf("unexpected code id %q", got)
	}
	if got := IOLoadFileError.ID(); got != "IO4001" {
		t.Fatalf("unexpected code id %q", got)
	}
}
