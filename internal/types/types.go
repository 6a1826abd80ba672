package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// IsValid reports whether the ID references an interned type.
func (id TypeID) IsValid() bool {
	return id != NoTypeID
}

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindString
	// KindAny is the universal top type. Values of any type widen to it,
	// value types by boxing.
	KindAny
	// KindAnyOpt is the nullable universal top ("Any?"), the parameter
	// type of untyped equality.
	KindAnyOpt
	// KindValue is a nominal unboxed-representable value type. Payload
	// addresses its ValueInfo slot.
	KindValue
	// KindParam references a type parameter of the enclosing declaration
	// by position (Payload).
	KindParam
	// KindBoxed is the heap representation of an otherwise unboxed type.
	// Elem holds the erased unboxed type.
	KindBoxed
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindAny:
		return "any"
	case KindAnyOpt:
		return "any?"
	case KindValue:
		return "value"
	case KindParam:
		return "param"
	case KindBoxed:
		return "boxed"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // for KindBoxed: the unboxed type
	Payload uint32 // for KindValue: ValueInfo slot; for KindParam: position
}

// Descriptor helpers ---------------------------------------------------------

// MakeParam describes a positional type-parameter reference.
func MakeParam(index uint32) Type {
	return Type{Kind: KindParam, Payload: index}
}

// MakeBoxed describes the boxed form of elem.
func MakeBoxed(elem TypeID) Type {
	return Type{Kind: KindBoxed, Elem: elem}
}
