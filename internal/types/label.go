package types

import (
	"fmt"
	"strings"

	"veq/internal/source"
)

// Label returns a user-friendly label for a TypeID, in source-language
// spelling: "Bool", "Angle", "Angle<Int>", "Angle<*>", "Any?",
// "boxed Angle".
func Label(typesIn *Interner, id TypeID) string {
	return labelDepth(typesIn, id, 0)
}

func labelDepth(typesIn *Interner, id TypeID, depth int) string {
	if id == NoTypeID {
		return "?"
	}
	if depth > 6 {
		return "..."
	}
	if typesIn == nil {
		return "?"
	}
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return "?"
	}
	switch tt.Kind {
	case KindUnit:
		return "Unit"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindAny:
		return "Any"
	case KindAnyOpt:
		return "Any?"
	case KindValue:
		return formatValueType(typesIn, id, depth)
	case KindParam:
		return fmt.Sprintf("#%d", tt.Payload)
	case KindBoxed:
		return "boxed " + labelDepth(typesIn, tt.Elem, depth+1)
	default:
		return "?"
	}
}

func formatValueType(typesIn *Interner, id TypeID, depth int) string {
	info, ok := typesIn.ValueInfo(id)
	if !ok || info == nil {
		return "?"
	}
	name := lookupNameFallback(typesIn.Strings, info.Name)
	if len(info.TypeArgs) > 0 {
		args := make([]string, len(info.TypeArgs))
		for i, arg := range info.TypeArgs {
			args[i] = labelDepth(typesIn, arg, depth+1)
		}
		return name + "<" + strings.Join(args, ", ") + ">"
	}
	// A declared generic nominal without arguments reads as its star
	// projection.
	if info.TypeParams > 0 {
		stars := make([]string, info.TypeParams)
		for i := range stars {
			stars[i] = "*"
		}
		return name + "<" + strings.Join(stars, ", ") + ">"
	}
	return name
}

func lookupName(stringsIn *source.Interner, id source.StringID) (string, bool) {
	if stringsIn == nil {
		return "", false
	}
	name, ok := stringsIn.Lookup(id)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func lookupNameFallback(stringsIn *source.Interner, id source.StringID) string {
	if name, ok := lookupName(stringsIn, id); ok {
		return name
	}
	return "?"
}
