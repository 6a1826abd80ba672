package sema

import (
	"fmt"

	"veq/internal/source"
	"veq/internal/types"
	"veq/internal/unit"
)

// BodyKind tells how an equality member is implemented.
type BodyKind uint8

const (
	// BodyUser marks a member the program declares itself.
	BodyUser BodyKind = iota
	// BodyInstanceCheck is the synthesized untyped member: test the
	// dynamic erased type of the argument, then delegate to the typed
	// member.
	BodyInstanceCheck
	// BodyBoxDelegate is the synthesized typed member: box the parameter
	// and delegate to the user's untyped member. Binding it forces a
	// boxing conversion, so the resolver never picks it for a TypedCall.
	BodyBoxDelegate
	// BodyStructural is the default typed member: compare the single
	// wrapped field of the receiver and the argument.
	BodyStructural
)

func (k BodyKind) String() string {
	switch k {
	case BodyUser:
		return "user"
	case BodyInstanceCheck:
		return "instance-check"
	case BodyBoxDelegate:
		return "box-delegate"
	case BodyStructural:
		return "structural"
	default:
		return fmt.Sprintf("BodyKind(%d)", k)
	}
}

// SpecState is the lifecycle position of one type's equality spec.
// Transitions only move forward; terminal states freeze the spec.
type SpecState uint8

const (
	StateUnresolved SpecState = iota
	StateScanned
	StateSynthesized
	StateResolvedOk
	StateResolvedError
)

// Terminal reports whether the state freezes the spec.
func (s SpecState) Terminal() bool {
	return s == StateResolvedOk || s == StateResolvedError
}

func (s SpecState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateScanned:
		return "scanned"
	case StateSynthesized:
		return "synthesized"
	case StateResolvedOk:
		return "resolved-ok"
	case StateResolvedError:
		return "resolved-error"
	default:
		return fmt.Sprintf("SpecState(%d)", s)
	}
}

// EqualsDecl is one equality member of a value type, user-written or
// synthesized.
type EqualsDecl struct {
	// Param is the single parameter type: the star-projected declaring
	// type for the typed member, AnyOpt for the untyped one.
	Param types.TypeID
	Ret   types.TypeID
	// TypeParams counts the member's own type parameters; always zero on
	// members that survive scanning.
	TypeParams uint32
	// Span points at the user declaration, or at the declaring type for
	// synthesized members.
	Span        source.Span
	UserDefined bool
	Body        BodyKind
	// Inner is the wrapped type a structural body delegates to; NoTypeID
	// when the body compares the wrapped payload directly.
	Inner types.TypeID
}

// EqualsSpec is the equality relation of one value type. After analysis
// reaches a terminal state the spec is frozen; at ResolvedOk both members
// are present and well-shaped.
type EqualsSpec struct {
	Typed   *EqualsDecl
	Untyped *EqualsDecl

	TypedSynthesized   bool
	UntypedSynthesized bool

	State SpecState

	// hashOverride is set when the type overrides hashCode itself.
	hashOverride bool
	// synthFailed is set when default synthesis could not produce a
	// member, e.g. over a missing wrap or an inner type that failed.
	synthFailed bool
}

// Synthesized reports whether any side of the spec was synthesized.
func (s *EqualsSpec) Synthesized() bool {
	return s != nil && (s.TypedSynthesized || s.UntypedSynthesized)
}

// advance moves the state machine forward. Backward or post-terminal
// moves are programming errors.
func (s *EqualsSpec) advance(to SpecState) {
	if s.State.Terminal() || to <= s.State {
		panic(fmt.Errorf("sema: equality spec state %v cannot move to %v", s.State, to))
	}
	s.State = to
}

// Analysis owns the per-declaration equality specs of one unit. The spec
// arena parallels the unit's declaration arena; index 0 is the sentinel.
// Distinct declarations may be analyzed concurrently; each AnalyzeType
// call touches only its own slot and reads terminal slots of the types
// it wraps.
type Analysis struct {
	unit  *unit.Unit
	specs []EqualsSpec
}

// NewAnalysis allocates the spec arena for a unit.
func NewAnalysis(u *unit.Unit) *Analysis {
	return &Analysis{
		unit:  u,
		specs: make([]EqualsSpec, u.DeclCount()+1),
	}
}

// Unit returns the analyzed unit.
func (a *Analysis) Unit() *unit.Unit {
	return a.unit
}

// Spec returns the equality spec for a declaration, nil when out of range.
func (a *Analysis) Spec(id unit.TypeDeclID) *EqualsSpec {
	if a == nil || !id.IsValid() || int(id) >= len(a.specs) {
		return nil
	}
	return &a.specs[id]
}
