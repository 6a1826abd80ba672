package sema

import (
	"fmt"
	"math"

	"veq/internal/types"
	"veq/internal/unit"
)

// Value models one runtime value for interpreting frozen specs. It is a
// test vehicle, not part of the compile path.
type Value struct {
	// Type is the value's dynamic type: a value nominal (star projected)
	// or a builtin.
	Type types.TypeID
	// Bits carries primitive payloads: Bool as 0/1, Int as two's
	// complement, Float as IEEE 754 bits. Str carries String payloads.
	Bits uint64
	Str  string
	// Wrapped is the single payload of a value type.
	Wrapped *Value
}

// Bool reads a Bool payload.
func (v Value) Bool() bool {
	return v.Bits != 0
}

// Int reads an Int payload.
func (v Value) Int() int64 {
	return int64(v.Bits)
}

// Float reads a Float payload.
func (v Value) Float() float64 {
	return math.Float64frombits(v.Bits)
}

// BoolValue builds a Bool model value.
func BoolValue(in *types.Interner, v bool) Value {
	bits := uint64(0)
	if v {
		bits = 1
	}
	return Value{Type: in.Builtins().Bool, Bits: bits}
}

// IntValue builds an Int model value.
func IntValue(in *types.Interner, v int64) Value {
	return Value{Type: in.Builtins().Int, Bits: uint64(v)}
}

// FloatValue builds a Float model value.
func FloatValue(in *types.Interner, v float64) Value {
	return Value{Type: in.Builtins().Float, Bits: math.Float64bits(v)}
}

// StringValue builds a String model value.
func StringValue(in *types.Interner, s string) Value {
	return Value{Type: in.Builtins().String, Str: s}
}

// WrapValue builds a value-type instance holding inner as its payload.
func WrapValue(t types.TypeID, inner Value) Value {
	return Value{Type: t, Wrapped: &inner}
}

// Hooks supply bodies for user-written equality members, keyed by
// declaration. Synthesized members never consult hooks.
type Hooks struct {
	Typed   map[unit.TypeDeclID]func(recv, arg Value) bool
	Untyped map[unit.TypeDeclID]func(recv Value, arg *Value) bool
}

// Evaluator interprets frozen equality specs over model values. It
// exists so the synthesis laws can be exercised end to end: whatever
// the synthesizer emits must behave like the member it was derived
// from.
type Evaluator struct {
	analysis *Analysis
	hooks    Hooks
}

// NewEvaluator builds an evaluator over a finished analysis.
func NewEvaluator(a *Analysis, hooks Hooks) *Evaluator {
	return &Evaluator{analysis: a, hooks: hooks}
}

// EqualsTyped applies the type's typed member to two unboxed values.
func (e *Evaluator) EqualsTyped(id unit.TypeDeclID, recv, arg Value) (bool, error) {
	spec, err := e.frozenSpec(id)
	if err != nil {
		return false, err
	}
	if spec.Typed == nil {
		return false, fmt.Errorf("type %s has no typed equality", e.declName(id))
	}

	switch spec.Typed.Body {
	case BodyUser:
		hook, ok := e.hooks.Typed[id]
		if !ok {
			return false, fmt.Errorf("no typed equality hook for %s", e.declName(id))
		}
		return hook(recv, arg), nil

	case BodyBoxDelegate:
		boxed := arg
		return e.EqualsUntyped(id, recv, &boxed)

	case BodyStructural:
		if recv.Wrapped == nil || arg.Wrapped == nil {
			return false, fmt.Errorf("value of %s carries no wrapped payload", e.declName(id))
		}
		if spec.Typed.Inner != types.NoTypeID {
			innerID, ok := e.analysis.unit.DeclByType(spec.Typed.Inner)
			if !ok {
				return false, fmt.Errorf("structural delegation target of %s is not declared", e.declName(id))
			}
			return e.EqualsTyped(innerID, *recv.Wrapped, *arg.Wrapped)
		}
		return e.payloadEquals(*recv.Wrapped, *arg.Wrapped)

	default:
		return false, fmt.Errorf("typed member of %s has body %v", e.declName(id), spec.Typed.Body)
	}
}

// EqualsUntyped applies the type's untyped member; arg nil models the
// null literal.
func (e *Evaluator) EqualsUntyped(id unit.TypeDeclID, recv Value, arg *Value) (bool, error) {
	spec, err := e.frozenSpec(id)
	if err != nil {
		return false, err
	}
	if spec.Untyped == nil {
		return false, fmt.Errorf("type %s has no untyped equality", e.declName(id))
	}

	switch spec.Untyped.Body {
	case BodyUser:
		hook, ok := e.hooks.Untyped[id]
		if !ok {
			return false, fmt.Errorf("no untyped equality hook for %s", e.declName(id))
		}
		return hook(recv, arg), nil

	case BodyInstanceCheck:
		if arg == nil {
			return false, nil
		}
		t := e.analysis.unit.Types
		decl := e.analysis.unit.Decl(id)
		if t.Erase(arg.Type) != t.Erase(decl.Type) {
			return false, nil
		}
		return e.EqualsTyped(id, recv, *arg)

	default:
		return false, fmt.Errorf("untyped member of %s has body %v", e.declName(id), spec.Untyped.Body)
	}
}

// payloadEquals is the plain structural compare of two wrapped payloads:
// value types recurse through their own typed member, primitives compare
// representation. Float compares by bit pattern; semantic float equality
// is a user member's concern.
func (e *Evaluator) payloadEquals(x, y Value) (bool, error) {
	t := e.analysis.unit.Types
	xErased := t.Erase(x.Type)
	if xErased != t.Erase(y.Type) {
		return false, nil
	}

	if declID, ok := e.analysis.unit.DeclByType(xErased); ok {
		return e.EqualsTyped(declID, x, y)
	}

	tt, ok := t.Lookup(xErased)
	if !ok {
		return false, fmt.Errorf("payload type %s is not interned", types.Label(t, x.Type))
	}
	switch tt.Kind {
	case types.KindUnit:
		return true, nil
	case types.KindBool, types.KindInt, types.KindFloat:
		return x.Bits == y.Bits, nil
	case types.KindString:
		return x.Str == y.Str, nil
	default:
		return false, fmt.Errorf("cannot compare %s payloads", types.Label(t, x.Type))
	}
}

func (e *Evaluator) frozenSpec(id unit.TypeDeclID) (*EqualsSpec, error) {
	spec := e.analysis.Spec(id)
	if spec == nil {
		return nil, fmt.Errorf("declaration %d has no equality spec", id)
	}
	if spec.State != StateResolvedOk {
		return nil, fmt.Errorf("type %s did not resolve equality: %v", e.declName(id), spec.State)
	}
	return spec, nil
}

func (e *Evaluator) declName(id unit.TypeDeclID) string {
	decl := e.analysis.unit.Decl(id)
	if decl == nil {
		return fmt.Sprintf("decl#%d", id)
	}
	return e.analysis.unit.Strings.MustLookup(decl.Name)
}
