// Package testkit carries shared invariant checks used by tests across
// packages.
package testkit

import (
	"fmt"

	"veq/internal/sema"
	"veq/internal/unit"
)

// CheckSpecInvariants runs the terminal invariants over every equality
// spec of a finished analysis:
// 1) every declaration's spec reached a terminal state
// 2) at ResolvedOk both members exist, the typed member's parameter is the
// star-projected declaring type with no type parameters and a Bool return,
// and the untyped member's parameter is Any?
// 3) synthesized flags agree with the members' UserDefined marks
func CheckSpecInvariants(a *sema.Analysis) error {
	if a == nil {
		return fmt.Errorf("nil analysis")
	}
	u := a.Unit()
	t := u.Types

	for id := unit.TypeDeclID(1); int(id) <= u.DeclCount(); id++ {
		decl := u.Decl(id)
		name := u.Strings.MustLookup(decl.Name)
		spec := a.Spec(id)
		if spec == nil {
			return fmt.Errorf("%s: no spec", name)
		}
		if !spec.State.Terminal() {
			return fmt.Errorf("%s: non-terminal state %v", name, spec.State)
		}
		if spec.State != sema.StateResolvedOk {
			continue
		}

		if spec.Typed == nil || spec.Untyped == nil {
			return fmt.Errorf("%s: resolved-ok spec missing a member (typed=%v untyped=%v)",
				name, spec.Typed != nil, spec.Untyped != nil)
		}
		if want := t.Star(decl.Type); spec.Typed.Param != want {
			return fmt.Errorf("%s: typed parameter %v is not the star-projected self %v",
				name, spec.Typed.Param, want)
		}
		if spec.Typed.TypeParams != 0 {
			return fmt.Errorf("%s: typed member declares %d type parameters", name, spec.Typed.TypeParams)
		}
		if spec.Typed.Ret != t.Builtins().Bool {
			return fmt.Errorf("%s: typed member returns %v, not Bool", name, spec.Typed.Ret)
		}
		if spec.Untyped.Param != t.Builtins().AnyOpt {
			return fmt.Errorf("%s: untyped parameter %v is not Any?", name, spec.Untyped.Param)
		}

		if spec.TypedSynthesized == spec.Typed.UserDefined {
			return fmt.Errorf("%s: typed synthesized=%v but user-defined=%v",
				name, spec.TypedSynthesized, spec.Typed.UserDefined)
		}
		if spec.UntypedSynthesized == spec.Untyped.UserDefined {
			return fmt.Errorf("%s: untyped synthesized=%v but user-defined=%v",
				name, spec.UntypedSynthesized, spec.Untyped.UserDefined)
		}
	}
	return nil
}
