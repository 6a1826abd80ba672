package types

import (
	"fmt"

	"fortio.org/safecast"

	"veq/internal/source"
)

// Builtins stores TypeIDs for the primitive types every unit shares.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	Float   TypeID
	String  TypeID
	Any     TypeID
	AnyOpt  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Value-type nominals bypass the dedup map: every registered declaration
// and every applied instance gets its own slot.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	values   []ValueInfo

	// Strings resolves identifier names for labels and diagnostics.
	Strings *source.Interner
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner(strings *source.Interner) *Interner {
	in := &Interner{
		index:   make(map[typeKey]TypeID, 64),
		Strings: strings,
	}
	in.values = append(in.values, ValueInfo{}) // reserve 0 as invalid sentinel
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Any = in.Intern(Type{Kind: KindAny})
	in.builtins.AnyOpt = in.Intern(Type{Kind: KindAnyOpt})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	key := typeKey(t)
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len reports the number of interned descriptors, the invalid sentinel
// included.
func (in *Interner) Len() int {
	return len(in.types)
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Payload uint32
}
