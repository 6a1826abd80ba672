package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"veq/internal/source"
)

// ValueInfo stores metadata for a nominal value type. The declared nominal
// doubles as the star projection when TypeParams > 0: its TypeArgs are nil
// and Origin is NoTypeID. Applied instances carry TypeArgs and point back
// at the declared nominal via Origin.
type ValueInfo struct {
	Name       source.StringID
	Decl       source.Span
	TypeParams uint32
	// Wrapped is the static type of the single wrapped field. Set after
	// registration, once the whole unit's nominals exist.
	Wrapped  TypeID
	TypeArgs []TypeID
	Origin   TypeID
}

// RegisterValue allocates a nominal value type slot and returns its TypeID.
func (in *Interner) RegisterValue(name source.StringID, decl source.Span, typeParams uint32) TypeID {
	slot := in.appendValueInfo(ValueInfo{Name: name, Decl: decl, TypeParams: typeParams})
	return in.internRaw(Type{Kind: KindValue, Payload: slot})
}

// ApplyValue returns the instance of the declared value type origin with the
// given type arguments, creating it on first use. Applying zero arguments,
// or applying to a non-value type, returns origin unchanged.
func (in *Interner) ApplyValue(origin TypeID, args []TypeID) TypeID {
	if len(args) == 0 {
		return origin
	}
	base := in.valueInfo(origin)
	if base == nil || base.Origin != NoTypeID {
		return origin
	}
	if id, ok := in.FindValueInstance(origin, args); ok {
		return id
	}
	slot := in.appendValueInfo(ValueInfo{
		Name:       base.Name,
		Decl:       base.Decl,
		TypeParams: base.TypeParams,
		Wrapped:    base.Wrapped,
		TypeArgs:   slices.Clone(args),
		Origin:     origin,
	})
	return in.internRaw(Type{Kind: KindValue, Payload: slot})
}

// SetValueWrapped stores the wrapped-field type for a declared value type.
func (in *Interner) SetValueWrapped(typeID, wrapped TypeID) {
	info := in.valueInfo(typeID)
	if info == nil {
		return
	}
	info.Wrapped = wrapped
}

// ValueInfo returns metadata for the provided value TypeID.
func (in *Interner) ValueInfo(typeID TypeID) (*ValueInfo, bool) {
	info := in.valueInfo(typeID)
	if info == nil {
		return nil, false
	}
	return info, true
}

// IsValue reports whether the TypeID names a value type (declared or applied).
func (in *Interner) IsValue(typeID TypeID) bool {
	return in.valueInfo(typeID) != nil
}

func (in *Interner) valueInfo(typeID TypeID) *ValueInfo {
	if in == nil || typeID == NoTypeID {
		return nil
	}
	tt, ok := in.Lookup(typeID)
	if !ok || tt.Kind != KindValue {
		return nil
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.values) {
		return nil
	}
	return &in.values[tt.Payload]
}

func (in *Interner) appendValueInfo(info ValueInfo) uint32 {
	if in.values == nil {
		in.values = append(in.values, ValueInfo{})
	}
	in.values = append(in.values, info)
	slot, err := safecast.Conv[uint32](len(in.values) - 1)
	if err != nil {
		panic(fmt.Errorf("value info overflow: %w", err))
	}
	return slot
}
