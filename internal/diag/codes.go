package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Generic argument lowering (1000-series)
	ElabInfo                   Code = 1000
	ElabGenericArgTooMany      Code = 1001
	ElabGenericArgTooFew       Code = 1002
	ElabGenericArgKindMismatch Code = 1003
	ElabInferNotAllowed        Code = 1004
	ElabArgsOnVariant          Code = 1005
	ElabBindingNotAllowed      Code = 1006

	// Associated paths (1100-series)
	ElabAssocItemNotFound     Code = 1100
	ElabAmbiguousAssocItem    Code = 1101
	ElabAmbiguousAssocLint    Code = 1102 // variant vs. trait assoc type, non-fatal
	ElabVariantInTypePosition Code = 1103
	ElabQPathNeedsSelfTy      Code = 1104
	ElabPrivateItem           Code = 1105
	ElabBareTrait             Code = 1106
	ElabNonAutoObjectBound    Code = 1107

	// Regions and elision (1200-series)
	ElabMissingLifetime        Code = 1200
	ElabElisionForbidden       Code = 1201
	ElabIllegalLateBound       Code = 1202
	ElabUnconstrainedLateBound Code = 1203
	ElabAmbiguousObjectBound   Code = 1204
	ElabUndeclaredLifetime     Code = 1205
	ElabOpaqueCapturesInner    Code = 1206

	// Resolution cycles and internal failures (1300-series)
	ElabResolutionCycle Code = 1300
	ElabInternal        Code = 1301

	// I/O and fixtures (4000-series)
	IOLoadFileError Code = 4001
	IOBadFixture    Code = 4002
)

var codeDescription = map[Code]string{
	UnknownCode:                "Unknown error",
	ElabInfo:                   "Elaboration information",
	ElabGenericArgTooMany:      "Too many generic arguments",
	ElabGenericArgTooFew:       "Too few generic arguments",
	ElabGenericArgKindMismatch: "Generic argument kind mismatch",
	ElabInferNotAllowed:        "Inferred argument not allowed here",
	ElabArgsOnVariant:          "Generic arguments on enum variant",
	ElabBindingNotAllowed:      "Associated bindings not allowed here",
	ElabAssocItemNotFound:      "Associated item not found",
	ElabAmbiguousAssocItem:     "Ambiguous associated item",
	ElabAmbiguousAssocLint:     "Ambiguous associated item (lint)",
	ElabVariantInTypePosition:  "Enum variant used in type position",
	ElabQPathNeedsSelfTy:       "Qualified path without self type",
	ElabPrivateItem:            "Item is private or unstable",
	ElabBareTrait:              "Trait used directly in type position",
	ElabNonAutoObjectBound:     "Non-marker trait as additional object bound",
	ElabMissingLifetime:        "Missing lifetime specifier",
	ElabElisionForbidden:       "Lifetime elision is forbidden here",
	ElabIllegalLateBound:       "Illegal late-bound lifetime",
	ElabUnconstrainedLateBound: "Late-bound lifetime unconstrained by inputs",
	ElabAmbiguousObjectBound:   "Ambiguous trait-object lifetime bound",
	ElabUndeclaredLifetime:     "Use of undeclared lifetime",
	ElabOpaqueCapturesInner:    "Opaque type mentions inner binder lifetime",
	ElabResolutionCycle:        "Cycle detected during resolution",
	ElabInternal:               "Internal elaboration failure",
	IOLoadFileError:            "I/O load file error",
	IOBadFixture:               "Malformed fixture file",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("ELB%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Codes returns every known code in ascending order, for `lumen explain`.
func Codes() []Code {
	out := make([]Code, 0, len(codeDescription))
	for c := range codeDescription {
		out = append(out, c)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
