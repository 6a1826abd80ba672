package unit

import (
	"veq/internal/source"
	"veq/internal/types"
)

// TypeDeclID identifies a value-type declaration inside one unit.
// IDs are 1-based; 0 is the invalid sentinel.
type TypeDeclID uint32

// NoTypeDeclID marks the absence of a declaration.
const NoTypeDeclID TypeDeclID = 0

// IsValid reports whether the ID references a declaration.
func (id TypeDeclID) IsValid() bool {
	return id != NoTypeDeclID
}

// MemberFunc is one member-function signature exported by the binder.
// Only name, shape and the two markers matter to equality analysis;
// bodies stay opaque.
type MemberFunc struct {
	Name   source.StringID
	Span   source.Span
	Params []types.TypeID
	Ret    types.TypeID
	// TypeParams counts the member's own type parameters.
	TypeParams uint32
	// TypedMarker is set when the declaration carries the value-equality
	// marker that requests the typed member slot.
	TypedMarker bool
	// Overrides is set when the declaration carries the override modifier.
	Overrides bool
}

// TypeDecl is one value-type declaration. Immutable once the unit is built.
type TypeDecl struct {
	Name source.StringID
	Span source.Span
	File source.FileID
	// TypeParams counts declared type parameters; ParamNames holds their
	// names for reference resolution, len(ParamNames) == TypeParams.
	TypeParams uint32
	ParamNames []source.StringID
	// Type is the declared nominal in the unit's type interner.
	Type types.TypeID
	// Wraps is the static type of the single wrapped field, NoTypeID when
	// the manifest entry was missing or unresolvable.
	Wraps   types.TypeID
	Members []MemberFunc
}

// CallSite is one equality-operator use site. Operand forms are folded
// into the static types: a boxed operand arrives as the boxed type.
type CallSite struct {
	Span  source.Span
	Left  types.TypeID
	Right types.TypeID
}

// Unit is one bound compilation unit: the declaration arena, the call
// sites, the interners and the files everything spans into. Units are
// immutable after Finish.
type Unit struct {
	Name    string
	Files   *source.FileSet
	Strings *source.Interner
	Types   *types.Interner
	Digest  Digest

	// Interned member names the analysis keys on.
	EqualsName   source.StringID
	HashCodeName source.StringID

	decls     []TypeDecl // index 0 reserved
	callSites []CallSite
	byType    map[types.TypeID]TypeDeclID
}

// DeclCount reports the number of declarations in the unit.
func (u *Unit) DeclCount() int {
	if u == nil {
		return 0
	}
	return len(u.decls) - 1
}

// Decl returns the declaration for the given ID, nil when out of range.
func (u *Unit) Decl(id TypeDeclID) *TypeDecl {
	if u == nil || !id.IsValid() || int(id) >= len(u.decls) {
		return nil
	}
	return &u.decls[id]
}

// DeclByType maps a value nominal back to its declaration. Applied
// instances resolve through their star projection.
func (u *Unit) DeclByType(t types.TypeID) (TypeDeclID, bool) {
	if u == nil {
		return NoTypeDeclID, false
	}
	id, ok := u.byType[u.Types.Erase(t)]
	return id, ok
}

// DeclByName returns the declaration with the given source name.
func (u *Unit) DeclByName(name string) (TypeDeclID, bool) {
	if u == nil {
		return NoTypeDeclID, false
	}
	nameID := u.Strings.Intern(normIdent(name))
	for id := TypeDeclID(1); int(id) < len(u.decls); id++ {
		if u.decls[id].Name == nameID {
			return id, true
		}
	}
	return NoTypeDeclID, false
}

// CallSites returns the unit's equality use sites in manifest order.
// The slice aliases internal storage; callers must not modify it.
func (u *Unit) CallSites() []CallSite {
	if u == nil {
		return nil
	}
	return u.callSites
}
