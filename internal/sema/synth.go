package sema

import (
	"veq/internal/types"
)

// synthesize fills the missing spec sides. Runs after everything the
// declaration wraps reached a terminal state, so nested delegation can
// rely on the inner type's frozen spec.
func (ta *typeAnalyzer) synthesize() {
	switch {
	case ta.spec.Typed != nil && ta.spec.Untyped == nil:
		ta.spec.Untyped = ta.instanceCheckDecl()
		ta.spec.UntypedSynthesized = true

	case ta.spec.Typed == nil && ta.spec.Untyped != nil:
		ta.spec.Typed = ta.boxDelegateDecl()
		ta.spec.TypedSynthesized = true

	case ta.spec.Typed == nil && ta.spec.Untyped == nil:
		typed, ok := ta.structuralDecl()
		if !ok {
			ta.spec.synthFailed = true
			break
		}
		ta.spec.Typed = typed
		ta.spec.TypedSynthesized = true
		ta.spec.Untyped = ta.instanceCheckDecl()
		ta.spec.UntypedSynthesized = true

	default:
		// Both user-defined. Their mutual consistency is the program's
		// responsibility and is not verified here.
	}

	ta.spec.advance(StateSynthesized)
}

// instanceCheckDecl builds the untyped member that tests the argument's
// dynamic erased type and delegates to the typed member on match.
func (ta *typeAnalyzer) instanceCheckDecl() *EqualsDecl {
	builtins := ta.analysis.unit.Types.Builtins()
	return &EqualsDecl{
		Param: builtins.AnyOpt,
		Ret:   builtins.Bool,
		Span:  ta.decl.Span,
		Body:  BodyInstanceCheck,
	}
}

// boxDelegateDecl builds the typed member that boxes its parameter and
// delegates to the user's untyped member.
func (ta *typeAnalyzer) boxDelegateDecl() *EqualsDecl {
	builtins := ta.analysis.unit.Types.Builtins()
	return &EqualsDecl{
		Param: ta.decl.Type,
		Ret:   builtins.Bool,
		Span:  ta.decl.Span,
		Body:  BodyBoxDelegate,
	}
}

// structuralDecl builds the default typed member comparing the wrapped
// field. A wrapped value type delegates to that type's own typed member;
// everything else compares payloads directly. The parameter is always
// the star-projected declaring type, so generic instances share one
// member.
func (ta *typeAnalyzer) structuralDecl() (*EqualsDecl, bool) {
	u := ta.analysis.unit
	wrapped := ta.decl.Wraps
	if wrapped == types.NoTypeID {
		// The unit loader already reported the missing wrap.
		return nil, false
	}

	builtins := u.Types.Builtins()
	erased := u.Types.Erase(wrapped)
	if innerID, ok := u.DeclByType(erased); ok {
		inner := ta.analysis.Spec(innerID)
		if inner == nil || inner.State != StateResolvedOk || inner.Typed == nil {
			// The wrapped type has no usable equality; this type cannot
			// reconstruct one either.
			return nil, false
		}
		return &EqualsDecl{
			Param: ta.decl.Type,
			Ret:   builtins.Bool,
			Span:  ta.decl.Span,
			Body:  BodyStructural,
			Inner: erased,
		}, true
	}

	return &EqualsDecl{
		Param: ta.decl.Type,
		Ret:   builtins.Bool,
		Span:  ta.decl.Span,
		Body:  BodyStructural,
	}, true
}
