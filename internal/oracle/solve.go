package oracle

import (
	"lumen/internal/defs"
	"lumen/internal/types"
)

// Solver filters candidate impls by whether their predicates could hold for
// the probed self type. Selection only needs a may-hold answer; a candidate
// that survives is still checked later by the trait system proper.
type Solver interface {
	PredicatesMayHold(impl defs.DefID, self types.TyID) bool
}

// PermissiveSolver keeps every candidate. Used when no trait system is
// attached; ambiguity between surviving candidates is still reported.
type PermissiveSolver struct{}

func (PermissiveSolver) PredicatesMayHold(defs.DefID, types.TyID) bool { return true }
