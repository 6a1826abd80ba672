package types

// Star returns the star projection of a value type: the declared nominal
// with type arguments forgotten. Non-value types pass through unchanged.
// Star is what typed equality declares as its parameter, so the emitted
// runtime test never inspects type arguments.
func (in *Interner) Star(id TypeID) TypeID {
	info := in.valueInfo(id)
	if info == nil {
		return id
	}
	if info.Origin != NoTypeID {
		return info.Origin
	}
	return id
}

// Erase returns the erased representation of id: boxing stripped, value
// types collapsed to their star projection. Two operands participate in
// typed equality only when their erasures name the same value nominal.
func (in *Interner) Erase(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	if tt.Kind == KindBoxed {
		return in.Erase(tt.Elem)
	}
	return in.Star(id)
}

// Boxed returns the heap form of id, interning it on first use. The box
// carries only the erased type, matching the runtime's dynamic tag. Types
// that already live on the heap (Any, Any?, boxes) pass through unchanged.
func (in *Interner) Boxed(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok {
		return NoTypeID
	}
	switch tt.Kind {
	case KindAny, KindAnyOpt, KindBoxed:
		return id
	}
	return in.Intern(MakeBoxed(in.Erase(id)))
}

// Unboxed returns the type inside a box, or id itself when not boxed.
func (in *Interner) Unboxed(id TypeID) TypeID {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindBoxed {
		return id
	}
	return tt.Elem
}

// IsBoxedForm reports whether a value of this static type is held on the
// heap: explicit boxes and the universal tops.
func (in *Interner) IsBoxedForm(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindBoxed, KindAny, KindAnyOpt:
		return true
	}
	return false
}

// IsUnboxedForm reports whether a value of this static type is held inline.
func (in *Interner) IsUnboxedForm(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindUnit, KindBool, KindInt, KindFloat, KindString, KindValue, KindParam:
		return true
	}
	return false
}

// IsPrimitive reports whether id is a builtin with intrinsic equality.
func (in *Interner) IsPrimitive(id TypeID) bool {
	tt, ok := in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindUnit, KindBool, KindInt, KindFloat, KindString:
		return true
	}
	return false
}

// SameErasedValue reports whether a and b erase to the same value nominal.
func (in *Interner) SameErasedValue(a, b TypeID) bool {
	ea := in.Erase(a)
	if ea != in.Erase(b) {
		return false
	}
	return in.IsValue(ea)
}
