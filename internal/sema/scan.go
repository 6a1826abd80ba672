package sema

import (
	"fmt"

	"veq/internal/diag"
	"veq/internal/types"
	"veq/internal/unit"
)

// scan classifies the declaration's members into the spec's typed and
// untyped slots. Shape violations reject the member and report exactly
// one code; rejected members are treated as absent so one bad
// declaration never cascades.
func (ta *typeAnalyzer) scan() {
	u := ta.analysis.unit
	builtins := u.Types.Builtins()

	var typedCandidates []*unit.MemberFunc
	for i := range ta.decl.Members {
		m := &ta.decl.Members[i]
		switch m.Name {
		case u.EqualsName:
			if m.TypedMarker {
				if ta.typedShapeOk(m) {
					typedCandidates = append(typedCandidates, m)
				}
				continue
			}
			if ta.isUntypedCandidate(m, builtins) && ta.spec.Untyped == nil {
				ta.spec.Untyped = userEqualsDecl(m)
			}
		case u.HashCodeName:
			if m.Overrides && len(m.Params) == 0 {
				ta.spec.hashOverride = true
			}
		}
	}

	switch len(typedCandidates) {
	case 0:
	case 1:
		ta.spec.Typed = userEqualsDecl(typedCandidates[0])
	default:
		ta.reportDuplicateTyped(typedCandidates)
	}

	ta.spec.advance(StateScanned)
}

// typedShapeOk validates a typed-marked equals member. The first
// violated rule wins; the member is dropped either way.
func (ta *typeAnalyzer) typedShapeOk(m *unit.MemberFunc) bool {
	u := ta.analysis.unit
	name := u.Strings.MustLookup(ta.decl.Name)

	if m.TypeParams > 0 {
		ta.report(diag.TypedEqualsMustNotHaveTypeParameters, diag.SevError, m.Span,
			"typed equals on %s must not declare type parameters", name)
		return false
	}
	if len(m.Params) != 1 || m.Params[0] != ta.decl.Type {
		found := "no parameter"
		switch {
		case len(m.Params) == 1:
			found = types.Label(u.Types, m.Params[0])
		case len(m.Params) > 1:
			found = fmt.Sprintf("%d parameters", len(m.Params))
		}
		ta.report(diag.TypedEqualsWrongParameterType, diag.SevError, m.Span,
			"typed equals on %s must take %s, found %s",
			name, types.Label(u.Types, ta.decl.Type), found)
		return false
	}
	if m.Ret != u.Types.Builtins().Bool {
		ta.report(diag.TypedEqualsMustReturnBoolean, diag.SevError, m.Span,
			"typed equals on %s must return Bool, found %s", name, types.Label(u.Types, m.Ret))
		return false
	}
	return true
}

// isUntypedCandidate recognizes the fixed override shape of untyped
// equality. Anything else under the equals name is an unrelated overload.
func (ta *typeAnalyzer) isUntypedCandidate(m *unit.MemberFunc, builtins types.Builtins) bool {
	return m.Overrides &&
		m.TypeParams == 0 &&
		len(m.Params) == 1 &&
		m.Params[0] == builtins.AnyOpt &&
		m.Ret == builtins.Bool
}

// reportDuplicateTyped emits one diagnostic for the whole candidate set
// and drops every candidate: competing typed members cannot be ranked,
// so the type behaves as if none were declared.
func (ta *typeAnalyzer) reportDuplicateTyped(candidates []*unit.MemberFunc) {
	u := ta.analysis.unit
	name := u.Strings.MustLookup(ta.decl.Name)

	builder := diag.ReportError(ta.reporter, diag.DuplicateTypedEquals, candidates[1].Span,
		fmt.Sprintf("type %s declares multiple typed equals members", name))
	for i, m := range candidates {
		if i == 1 {
			continue
		}
		builder.WithNote(m.Span, "another typed equals declared here")
	}
	builder.Emit()
	ta.errors++
}

func userEqualsDecl(m *unit.MemberFunc) *EqualsDecl {
	d := &EqualsDecl{
		Ret:         m.Ret,
		TypeParams:  m.TypeParams,
		Span:        m.Span,
		UserDefined: true,
		Body:        BodyUser,
	}
	if len(m.Params) == 1 {
		d.Param = m.Params[0]
	}
	return d
}
