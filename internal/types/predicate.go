package types

import (
	"sort"

	"github.com/xtgo/set"

	"lumen/internal/defs"
	"lumen/internal/source"
)

// TraitRef is a trait with all its arguments, Self included as Args[0].
type TraitRef struct {
	Def  defs.DefID
	Args ArgsID
}

// PolyTraitRef is a trait reference under a binder.
type PolyTraitRef struct {
	Vars  BoundVarsID
	Trait TraitRef
}

// ExistPredKind tags one component of a trait-object type.
type ExistPredKind uint8

const (
	// ExistTrait is the principal trait, with Self erased from Args.
	ExistTrait ExistPredKind = iota
	// ExistProjection is an `Item = T` binding on the principal.
	ExistProjection
	// ExistAutoTrait is a marker trait with no generics.
	ExistAutoTrait
)

// ExistentialPredicate is one component of `dyn Trait<..., Item = T> + Auto`.
// Self does not appear in Args. For projections Trait is the defining trait
// and Def the associated type.
type ExistentialPredicate struct {
	Kind  ExistPredKind
	Def   defs.DefID
	Trait defs.DefID
	Name  source.StringID
	Args  ArgsID
	Term  TyID
}

type existPredSlice []ExistentialPredicate

func (s existPredSlice) Len() int      { return len(s) }
func (s existPredSlice) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// Less orders: principal, then projections by (defining trait, item name),
// then auto traits by def. This is the canonical component order of an
// interned trait-object type.
func (s existPredSlice) Less(i, j int) bool {
	a, b := s[i], s[j]
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	switch a.Kind {
	case ExistProjection:
		if a.Trait != b.Trait {
			return a.Trait < b.Trait
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
	}
	if a.Def != b.Def {
		return a.Def < b.Def
	}
	if a.Args != b.Args {
		return a.Args < b.Args
	}
	return a.Term < b.Term
}

// CanonicalizePredicates sorts existential predicates into their canonical
// order and drops exact duplicates.
func CanonicalizePredicates(preds []ExistentialPredicate) []ExistentialPredicate {
	s := existPredSlice(preds)
	sort.Stable(s)
	n := set.Uniq(s)
	return preds[:n]
}
