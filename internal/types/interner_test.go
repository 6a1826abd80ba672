package types

import (
	"testing"

	"veq/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner(source.NewInterner())
	b := in.Builtins()
	if b.Bool == NoTypeID || b.AnyOpt == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if b.Any == b.AnyOpt {
		t.Fatalf("Any and Any? must be distinct")
	}
	boolT, _ := in.Lookup(b.Bool)
	if boolT.Kind != KindBool {
		t.Fatalf("expected bool kind, got %v", boolT.Kind)
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner(source.NewInterner())
	elem := in.Builtins().Int
	box1 := in.Intern(MakeBoxed(elem))
	box2 := in.Intern(MakeBoxed(elem))
	if box1 != box2 {
		t.Fatalf("boxed descriptors should be deduplicated")
	}
	p1 := in.Intern(MakeParam(0))
	p2 := in.Intern(MakeParam(1))
	if p1 == p2 {
		t.Fatalf("distinct param positions must differ")
	}
}

func TestRegisterValueKeepsNominalIdentity(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	name := strs.Intern("Angle")

	a := in.RegisterValue(name, source.Span{}, 0)
	b := in.RegisterValue(name, source.Span{}, 0)
	if a == b {
		t.Fatalf("separate declarations must get separate IDs")
	}
	if !in.IsValue(a) || !in.IsValue(b) {
		t.Fatalf("registered nominals not recognized as values")
	}
}

func TestApplyValueInstances(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	b := in.Builtins()
	box := in.RegisterValue(strs.Intern("Pair"), source.Span{}, 1)

	inst1 := in.ApplyValue(box, []TypeID{b.Int})
	inst2 := in.ApplyValue(box, []TypeID{b.Int})
	inst3 := in.ApplyValue(box, []TypeID{b.Float})

	if inst1 == box {
		t.Fatalf("applied instance must differ from the declared nominal")
	}
	if inst1 != inst2 {
		t.Fatalf("same arguments must reuse the instance")
	}
	if inst1 == inst3 {
		t.Fatalf("different arguments must create a new instance")
	}

	info, ok := in.ValueInfo(inst1)
	if !ok || info.Origin != box {
		t.Fatalf("instance does not point back at its nominal")
	}
}

func TestSetValueWrapped(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	angle := in.RegisterValue(strs.Intern("Angle"), source.Span{}, 0)

	in.SetValueWrapped(angle, in.Builtins().Float)
	info, ok := in.ValueInfo(angle)
	if !ok || info.Wrapped != in.Builtins().Float {
		t.Fatalf("wrapped type not stored")
	}
}

func TestFindValueByName(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	name := strs.Intern("Money")
	id := in.RegisterValue(name, source.Span{}, 0)

	got, ok := in.FindValueByName(name)
	if !ok || got != id {
		t.Fatalf("FindValueByName = %v ok=%v, want %v", got, ok, id)
	}
	if _, ok := in.FindValueByName(strs.Intern("Missing")); ok {
		t.Fatalf("unexpected hit for unknown name")
	}
}

func TestLabelSpellings(t *testing.T) {
	strs := source.NewInterner()
	in := NewInterner(strs)
	b := in.Builtins()
	angle := in.RegisterValue(strs.Intern("Angle"), source.Span{}, 0)
	pair := in.RegisterValue(strs.Intern("Pair"), source.Span{}, 1)
	pairInt := in.ApplyValue(pair, []TypeID{b.Int})

	cases := map[TypeID]string{
		b.Bool:           "Bool",
		b.AnyOpt:         "Any?",
		angle:            "Angle",
		pair:             "Pair<*>",
		pairInt:          "Pair<Int>",
		in.Boxed(angle):  "boxed Angle",
		in.Boxed(b.Int):  "boxed Int",
		NoTypeID:         "?",
	}
	for id, want := range cases {
		if got := Label(in, id); got != want {
			t.Fatalf("Label(%v) = %q, want %q", id, got, want)
		}
	}
}
