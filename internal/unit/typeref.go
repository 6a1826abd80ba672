package unit

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"veq/internal/source"
	"veq/internal/types"
)

var (
	// ErrBadTypeRef indicates a syntactically malformed type reference.
	ErrBadTypeRef = errors.New("malformed type reference")
	// ErrUnknownTypeRef indicates a reference to a type the unit does not declare.
	ErrUnknownTypeRef = errors.New("unknown type reference")
)

// typeRef is the parsed shape of a manifest type reference:
// "Float", "Angle", "Pair<Int, Float>", "Pair<*>", "Any?".
type typeRef struct {
	Name string
	Args []typeRef
	Star bool // the "*" argument
	Opt  bool // trailing "?", valid on Any only
}

func parseTypeRef(s string) (typeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return typeRef{}, fmt.Errorf("%w: empty reference", ErrBadTypeRef)
	}
	if s == "*" {
		return typeRef{Star: true}, nil
	}

	var ref typeRef
	if strings.HasSuffix(s, "?") {
		ref.Opt = true
		s = strings.TrimSpace(s[:len(s)-1])
	}

	if open := strings.IndexByte(s, '<'); open >= 0 {
		if !strings.HasSuffix(s, ">") {
			return typeRef{}, fmt.Errorf("%w: %q misses closing '>'", ErrBadTypeRef, s)
		}
		argSrc := s[open+1 : len(s)-1]
		args, err := splitTopLevel(argSrc)
		if err != nil {
			return typeRef{}, fmt.Errorf("%w: %q", ErrBadTypeRef, s)
		}
		for _, raw := range args {
			arg, err := parseTypeRef(raw)
			if err != nil {
				return typeRef{}, err
			}
			if arg.Opt {
				return typeRef{}, fmt.Errorf("%w: nullable argument in %q", ErrBadTypeRef, s)
			}
			ref.Args = append(ref.Args, arg)
		}
		if len(ref.Args) == 0 {
			return typeRef{}, fmt.Errorf("%w: %q has empty argument list", ErrBadTypeRef, s)
		}
		s = s[:open]
	}

	s = strings.TrimSpace(s)
	if !isIdent(s) {
		return typeRef{}, fmt.Errorf("%w: %q is not an identifier", ErrBadTypeRef, s)
	}
	ref.Name = s
	return ref, nil
}

// splitTopLevel splits a generic argument list on commas outside nested
// angle brackets.
func splitTopLevel(s string) ([]string, error) {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced angle brackets")
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced angle brackets")
	}
	out = append(out, s[start:])
	return out, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// refScope carries the type-parameter names visible to a reference.
// Member parameters shadow declaration parameters; positional indices
// continue past the declaration's own list.
type refScope struct {
	declParams   []source.StringID
	memberParams []source.StringID
}

// resolveRef resolves a manifest type reference inside scope. Errors wrap
// ErrBadTypeRef or ErrUnknownTypeRef for the caller to map onto codes.
func (b *Builder) resolveRef(raw string, scope refScope) (types.TypeID, error) {
	ref, err := parseTypeRef(normIdent(raw))
	if err != nil {
		return types.NoTypeID, err
	}
	return b.resolveParsed(ref, raw, scope)
}

func (b *Builder) resolveParsed(ref typeRef, raw string, scope refScope) (types.TypeID, error) {
	if ref.Star {
		return types.NoTypeID, fmt.Errorf("%w: %q uses '*' outside an argument list", ErrBadTypeRef, raw)
	}

	builtins := b.types.Builtins()
	if ref.Opt {
		if ref.Name != "Any" || len(ref.Args) != 0 {
			return types.NoTypeID, fmt.Errorf("%w: nullable form is only supported on Any, got %q", ErrBadTypeRef, raw)
		}
		return builtins.AnyOpt, nil
	}

	if id, ok := b.builtinByName(ref.Name); ok {
		if len(ref.Args) != 0 {
			return types.NoTypeID, fmt.Errorf("%w: %q takes no type arguments", ErrBadTypeRef, ref.Name)
		}
		return id, nil
	}

	nameID := b.strings.Intern(ref.Name)
	if idx, ok := findParam(scope.memberParams, nameID); ok {
		if len(ref.Args) != 0 {
			return types.NoTypeID, fmt.Errorf("%w: type parameter %q takes no arguments", ErrBadTypeRef, ref.Name)
		}
		return b.types.Intern(types.MakeParam(paramCount(len(scope.declParams) + idx))), nil
	}
	if idx, ok := findParam(scope.declParams, nameID); ok {
		if len(ref.Args) != 0 {
			return types.NoTypeID, fmt.Errorf("%w: type parameter %q takes no arguments", ErrBadTypeRef, ref.Name)
		}
		return b.types.Intern(types.MakeParam(paramCount(idx))), nil
	}

	nominal, ok := b.types.FindValueByName(nameID)
	if !ok {
		return types.NoTypeID, fmt.Errorf("%w: %q", ErrUnknownTypeRef, ref.Name)
	}
	if len(ref.Args) == 0 {
		// A bare generic name reads as its star projection.
		return nominal, nil
	}

	info, _ := b.types.ValueInfo(nominal)
	if info == nil || uint32(len(ref.Args)) != info.TypeParams {
		return types.NoTypeID, fmt.Errorf("%w: %q expects %d type arguments, got %d",
			ErrBadTypeRef, ref.Name, info.TypeParams, len(ref.Args))
	}

	stars := 0
	for _, arg := range ref.Args {
		if arg.Star {
			stars++
		}
	}
	if stars == len(ref.Args) {
		return nominal, nil
	}
	if stars > 0 {
		return types.NoTypeID, fmt.Errorf("%w: %q mixes '*' with concrete arguments", ErrBadTypeRef, raw)
	}

	args := make([]types.TypeID, len(ref.Args))
	for i, arg := range ref.Args {
		id, err := b.resolveParsed(arg, raw, scope)
		if err != nil {
			return types.NoTypeID, err
		}
		args[i] = id
	}
	return b.types.ApplyValue(nominal, args), nil
}

func (b *Builder) builtinByName(name string) (types.TypeID, bool) {
	builtins := b.types.Builtins()
	switch name {
	case "Unit":
		return builtins.Unit, true
	case "Bool":
		return builtins.Bool, true
	case "Int":
		return builtins.Int, true
	case "Float":
		return builtins.Float, true
	case "String":
		return builtins.String, true
	case "Any":
		return builtins.Any, true
	}
	return types.NoTypeID, false
}

func findParam(params []source.StringID, name source.StringID) (int, bool) {
	for i, p := range params {
		if p == name {
			return i, true
		}
	}
	return 0, false
}
