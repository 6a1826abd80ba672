package diag

import (
	"veq/internal/source"
)

// Note attaches secondary context to a diagnostic, e.g. the span of a
// previous conflicting declaration.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is the central record produced by every analysis phase.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
