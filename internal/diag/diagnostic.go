package diag

import (
	"lumen/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is a single textual replacement inside one file.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested rewrite, e.g. the fully-qualified form of an ambiguous
// associated path.
type Fix struct {
	Title string
	Edits []FixEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
