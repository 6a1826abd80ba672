package sema

import (
	"fmt"

	"veq/internal/diag"
	"veq/internal/source"
	"veq/internal/types"
	"veq/internal/unit"
)

// CallKind tells how an equality operator use binds.
type CallKind uint8

const (
	// UntypedCall binds the universal equals(Any?) member; unboxed
	// operands are boxed at the site.
	UntypedCall CallKind = iota
	// TypedCall binds the typed member directly, no representation
	// change on either operand.
	TypedCall
)

func (k CallKind) String() string {
	switch k {
	case UntypedCall:
		return "untyped-call"
	case TypedCall:
		return "typed-call"
	default:
		return fmt.Sprintf("CallKind(%d)", k)
	}
}

// OperandSet is a bitset over the two operand positions of an equality
// check.
type OperandSet uint8

const (
	OperandLeft  OperandSet = 1 << 0
	OperandRight OperandSet = 1 << 1
)

// Has reports whether every position in o is present in s.
func (s OperandSet) Has(o OperandSet) bool {
	return s&o == o
}

// Empty reports whether no position is set.
func (s OperandSet) Empty() bool {
	return s == 0
}

func (s OperandSet) String() string {
	switch s {
	case 0:
		return "none"
	case OperandLeft:
		return "left"
	case OperandRight:
		return "right"
	case OperandLeft | OperandRight:
		return "left|right"
	default:
		return fmt.Sprintf("OperandSet(%d)", uint8(s))
	}
}

// Resolution binds one equality use site. Immutable once created.
type Resolution struct {
	Span source.Span
	Kind CallKind
	// Recv is the erased receiver type: the left operand's value nominal
	// or builtin.
	Recv types.TypeID
	// Decl is the receiver's declaration; NoTypeDeclID marks intrinsic
	// primitive equality.
	Decl unit.TypeDeclID
	// Boxing lists the operand positions that change representation at
	// the site. Always empty for a TypedCall.
	Boxing OperandSet
}

// ResolveCalls binds every call site of the unit. Call after all specs
// are terminal; sites whose receiver did not reach ResolvedOk yield no
// Resolution (the type already carries its errors). Boxing warnings go
// to the reporter.
func (a *Analysis) ResolveCalls(reporter diag.Reporter) []Resolution {
	if a == nil || a.unit == nil {
		return nil
	}
	sites := a.unit.CallSites()
	out := make([]Resolution, 0, len(sites))
	for _, site := range sites {
		if res, ok := a.resolveSite(site, reporter); ok {
			out = append(out, res)
		}
	}
	return out
}

func (a *Analysis) resolveSite(site unit.CallSite, reporter diag.Reporter) (Resolution, bool) {
	t := a.unit.Types
	leftErased := t.Erase(site.Left)
	rightErased := t.Erase(site.Right)
	sameErased := leftErased == rightErased && leftErased != types.NoTypeID

	var boxing OperandSet
	if t.IsUnboxedForm(site.Left) {
		boxing |= OperandLeft
	}
	if t.IsUnboxedForm(site.Right) {
		boxing |= OperandRight
	}
	bothUnboxed := boxing.Has(OperandLeft | OperandRight)

	// Primitive receivers bind the intrinsic compare when no
	// representation change is needed.
	if t.IsPrimitive(leftErased) {
		if sameErased && bothUnboxed {
			return Resolution{Span: site.Span, Kind: TypedCall, Recv: leftErased}, true
		}
		return Resolution{Span: site.Span, Kind: UntypedCall, Recv: leftErased, Boxing: boxing}, true
	}

	declID, isValue := a.unit.DeclByType(leftErased)
	if !isValue {
		// Any, Any? or another non-value receiver: universal equality.
		return Resolution{Span: site.Span, Kind: UntypedCall, Recv: leftErased, Boxing: boxing}, true
	}

	spec := a.Spec(declID)
	if spec == nil || spec.State != StateResolvedOk {
		return Resolution{}, false
	}

	if sameErased && bothUnboxed && spec.Typed != nil && spec.Typed.Body != BodyBoxDelegate {
		return Resolution{Span: site.Span, Kind: TypedCall, Recv: leftErased, Decl: declID}, true
	}

	if !boxing.Empty() && spec.Synthesized() && reporter != nil {
		msg := fmt.Sprintf("implicit boxing in equality check between %s and %s",
			types.Label(t, site.Left), types.Label(t, site.Right))
		diag.ReportWarning(reporter, diag.ImplicitBoxingInEqualityCheck, site.Span, msg).Emit()
	}
	return Resolution{Span: site.Span, Kind: UntypedCall, Recv: leftErased, Decl: declID, Boxing: boxing}, true
}
