package diag

import (
	"fmt"
)

// Code is a compact numeric diagnostic identifier. Ranges are reserved per
// producer: 1000-1999 unit manifest loading, 3000-3999 equality analysis,
// 4000-4999 I/O, 5000-5999 observability.
type Code uint16

const (
	UnknownCode Code = 0

	// Unit manifest loading.
	UnitInfo              Code = 1000
	UnitDuplicateType     Code = 1001
	UnitUnknownTypeRef    Code = 1002
	UnitBadTypeRef        Code = 1003
	UnitWrapCycle         Code = 1004
	UnitDuplicateFile     Code = 1005
	UnitMissingWrap       Code = 1006
	UnitUnknownFile       Code = 1007
	UnitBadMemberShape    Code = 1008
	UnitDuplicateCallSite Code = 1009
	UnitBadTypeDecl       Code = 1010

	// Equality analysis. Names are the stable string form consumed by
	// drivers and golden files.
	DuplicateTypedEquals                 Code = 3001
	TypedEqualsMustNotHaveTypeParameters Code = 3002
	TypedEqualsWrongParameterType        Code = 3003
	TypedEqualsMustReturnBoolean         Code = 3004
	EqualsWithoutHashCode                Code = 3005
	ImplicitBoxingInEqualityCheck        Code = 3006

	// I/O.
	IOLoadFileError Code = 4001

	// Observability.
	ObsTimings Code = 5001
)

var codeNames = map[Code]string{
	UnknownCode:           "Unknown",
	UnitInfo:              "UnitInfo",
	UnitDuplicateType:     "UnitDuplicateType",
	UnitUnknownTypeRef:    "UnitUnknownTypeRef",
	UnitBadTypeRef:        "UnitBadTypeRef",
	UnitWrapCycle:         "UnitWrapCycle",
	UnitDuplicateFile:     "UnitDuplicateFile",
	UnitMissingWrap:       "UnitMissingWrap",
	UnitUnknownFile:       "UnitUnknownFile",
	UnitBadMemberShape:    "UnitBadMemberShape",
	UnitDuplicateCallSite: "UnitDuplicateCallSite",
	UnitBadTypeDecl:       "UnitBadTypeDecl",

	DuplicateTypedEquals:                 "DuplicateTypedEquals",
	TypedEqualsMustNotHaveTypeParameters: "TypedEqualsMustNotHaveTypeParameters",
	TypedEqualsWrongParameterType:        "TypedEqualsWrongParameterType",
	TypedEqualsMustReturnBoolean:         "TypedEqualsMustReturnBoolean",
	EqualsWithoutHashCode:                "EqualsWithoutHashCode",
	ImplicitBoxingInEqualityCheck:        "ImplicitBoxingInEqualityCheck",

	IOLoadFileError: "IOLoadFileError",

	ObsTimings: "ObsTimings",
}

var codeDescription = map[Code]string{
	UnknownCode:           "unknown diagnostic",
	UnitInfo:              "unit manifest note",
	UnitDuplicateType:     "duplicate value type declaration in unit",
	UnitUnknownTypeRef:    "type reference does not name a known type",
	UnitBadTypeRef:        "malformed type reference",
	UnitWrapCycle:         "value types wrap each other cyclically",
	UnitDuplicateFile:     "duplicate source file entry in unit",
	UnitMissingWrap:       "value type declares no wrapped field",
	UnitUnknownFile:       "declaration references a file missing from the unit",
	UnitBadMemberShape:    "member signature entry is malformed",
	UnitDuplicateCallSite: "duplicate call site entry in unit",
	UnitBadTypeDecl:       "value type declaration entry is malformed",

	DuplicateTypedEquals:                 "more than one typed equality candidate on one type",
	TypedEqualsMustNotHaveTypeParameters: "typed equality must not declare type parameters",
	TypedEqualsWrongParameterType:        "typed equality parameter must be the star-projected declaring type",
	TypedEqualsMustReturnBoolean:         "typed equality must return Bool",
	EqualsWithoutHashCode:                "untyped equality override without a matching hash override",
	ImplicitBoxingInEqualityCheck:        "equality check materializes a boxing conversion",

	IOLoadFileError: "failed to load file",

	ObsTimings: "phase timing report",
}

// ID returns the compact range-prefixed form, e.g. "EQ3001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("UNT%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EQ%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

// Name returns the stable identifier form, e.g. "DuplicateTypedEquals".
// This is the code spelling drivers and golden files match on.
func (c Code) Name() string {
	name, ok := codeNames[c]
	if !ok {
		return c.ID()
	}
	return name
}

// Title returns the human description of the code.
func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.Name(), c.Title())
}
