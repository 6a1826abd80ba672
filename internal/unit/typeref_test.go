package unit

import (
	"errors"
	"testing"

	"veq/internal/source"
	"veq/internal/types"
)

func internParams(b *Builder, names ...string) []source.StringID {
	out := make([]source.StringID, len(names))
	for i, n := range names {
		out[i] = b.strings.Intern(n)
	}
	return out
}

func refBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder("refs", nil)
	b.AddFile("lib.vt", []byte("value Angle wraps Float\nvalue Pair<A, B> wraps A\n"))
	if id := b.AddType(TypeEntry{Name: "Angle", File: "lib.vt", Start: 0, End: 23, Wraps: "Float"}); !id.IsValid() {
		t.Fatalf("Angle not registered")
	}
	if id := b.AddType(TypeEntry{Name: "Pair", File: "lib.vt", Start: 24, End: 52, TypeParams: []string{"A", "B"}, Wraps: "A"}); !id.IsValid() {
		t.Fatalf("Pair not registered")
	}
	return b
}

func TestResolveRefBuiltins(t *testing.T) {
	b := refBuilder(t)
	builtins := b.types.Builtins()

	cases := map[string]types.TypeID{
		"Int":    builtins.Int,
		"Bool":   builtins.Bool,
		"Float":  builtins.Float,
		"String": builtins.String,
		"Unit":   builtins.Unit,
		"Any":    builtins.Any,
		"Any?":   builtins.AnyOpt,
		" Any? ": builtins.AnyOpt,
	}
	for ref, want := range cases {
		got, err := b.resolveRef(ref, refScope{})
		if err != nil {
			t.Fatalf("resolveRef(%q) error: %v", ref, err)
		}
		if got != want {
			t.Fatalf("resolveRef(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestResolveRefNominals(t *testing.T) {
	b := refBuilder(t)
	builtins := b.types.Builtins()

	angle, err := b.resolveRef("Angle", refScope{})
	if err != nil || !b.types.IsValue(angle) {
		t.Fatalf("Angle: %v err=%v", angle, err)
	}

	pair, err := b.resolveRef("Pair", refScope{})
	if err != nil {
		t.Fatalf("bare generic: %v", err)
	}
	star, err := b.resolveRef("Pair<*, *>", refScope{})
	if err != nil || star != pair {
		t.Fatalf("star projection = %v err=%v, want declared nominal %v", star, err, pair)
	}

	applied, err := b.resolveRef("Pair<Int, Float>", refScope{})
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if applied == pair {
		t.Fatalf("applied instance must differ from the nominal")
	}
	info, _ := b.types.ValueInfo(applied)
	if info == nil || len(info.TypeArgs) != 2 || info.TypeArgs[0] != builtins.Int {
		t.Fatalf("instance args = %+v", info)
	}

	nested, err := b.resolveRef("Pair<Pair<Int, Int>, Angle>", refScope{})
	if err != nil || !b.types.IsValue(nested) {
		t.Fatalf("nested: %v err=%v", nested, err)
	}
}

func TestResolveRefParams(t *testing.T) {
	b := refBuilder(t)
	declParams := internParams(b, "A", "B")

	got, err := b.resolveRef("B", refScope{declParams: declParams})
	if err != nil {
		t.Fatalf("decl param: %v", err)
	}
	tt := b.types.MustLookup(got)
	if tt.Kind != types.KindParam || tt.Payload != 1 {
		t.Fatalf("param descriptor = %+v", tt)
	}

	// A member parameter with the same name shadows the declaration's and
	// keeps indexing past the declaration list.
	memberParams := internParams(b, "B")
	got, err = b.resolveRef("B", refScope{declParams: declParams, memberParams: memberParams})
	if err != nil {
		t.Fatalf("member param: %v", err)
	}
	tt = b.types.MustLookup(got)
	if tt.Kind != types.KindParam || tt.Payload != 2 {
		t.Fatalf("member param descriptor = %+v", tt)
	}
}

func TestResolveRefErrors(t *testing.T) {
	b := refBuilder(t)

	badRefs := []string{
		"",
		"Pair<Int>",
		"Pair<Int, *>",
		"Int<Bool>",
		"Angle?",
		"Pair<",
		"Pair<Int, Float>>",
		"*",
		"1Angle",
	}
	for _, ref := range badRefs {
		if _, err := b.resolveRef(ref, refScope{}); !errors.Is(err, ErrBadTypeRef) {
			t.Fatalf("resolveRef(%q) err = %v, want ErrBadTypeRef", ref, err)
		}
	}

	if _, err := b.resolveRef("Missing", refScope{}); !errors.Is(err, ErrUnknownTypeRef) {
		t.Fatalf("unknown ref err = %v, want ErrUnknownTypeRef", err)
	}
	if _, err := b.resolveRef("Pair<Missing, Int>", refScope{}); !errors.Is(err, ErrUnknownTypeRef) {
		t.Fatalf("unknown arg err = %v, want ErrUnknownTypeRef", err)
	}
}

func TestResolveRefNormalizesUnicode(t *testing.T) {
	b := NewBuilder("refs", nil)
	b.AddFile("lib.vt", []byte("value \u00c5ngle wraps Float\n"))
	// Registered with the decomposed spelling (A + combining ring above).
	id := b.AddType(TypeEntry{Name: "A\u030angle", File: "lib.vt", Start: 0, End: 23, Wraps: "Float"})
	if !id.IsValid() {
		t.Fatalf("decl rejected")
	}

	// Referenced with the precomposed spelling.
	got, err := b.resolveRef("\u00c5ngle", refScope{})
	if err != nil {
		t.Fatalf("composed ref: %v", err)
	}
	decl := b.decls[id]
	if got != decl.Type {
		t.Fatalf("composed ref = %v, want %v", got, decl.Type)
	}
}
