package sema

import (
	"veq/internal/diag"
)

// checkContract enforces the hash contract and freezes the spec.
// A program-defined untyped equality changes observable equivalence, so
// the hash partition must follow; a missing hashCode override is an
// error. Any error recorded during this type's analysis lands the spec
// in ResolvedError.
func (ta *typeAnalyzer) checkContract() {
	if ta.spec.Untyped != nil && ta.spec.Untyped.UserDefined && !ta.spec.hashOverride {
		name := ta.analysis.unit.Strings.MustLookup(ta.decl.Name)
		ta.report(diag.EqualsWithoutHashCode, diag.SevError, ta.spec.Untyped.Span,
			"type %s overrides equality without hashCode", name)
	}

	if ta.errors > 0 || ta.spec.synthFailed || ta.spec.Typed == nil || ta.spec.Untyped == nil {
		ta.spec.advance(StateResolvedError)
		return
	}
	ta.spec.advance(StateResolvedOk)
}
