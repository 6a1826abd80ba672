package unit

import (
	"fmt"
	"strings"
	"testing"

	"veq/internal/diag"
	"veq/internal/source"
	"veq/internal/types"
)

func hasCode(bag *diag.Bag, code diag.Code) bool {
	if bag == nil {
		return false
	}
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	items := bag.Items()
	if len(items) == 0 {
		return "<none>"
	}
	lines := make([]string, len(items))
	for i, d := range items {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

const shapesSource = "value Angle wraps Float\nvalue Arc wraps Angle\n"

func shapesBuilder(bag *diag.Bag) *Builder {
	b := NewBuilder("shapes", &diag.BagReporter{Bag: bag})
	b.AddFile("shapes.vt", []byte(shapesSource))
	angle := b.AddType(TypeEntry{Name: "Angle", File: "shapes.vt", Start: 0, End: 23, Wraps: "Float"})
	b.AddMember(angle, MemberEntry{
		Name: "equals", Start: 6, End: 11,
		Params: []string{"Angle"}, Ret: "Bool", Typed: true,
	})
	b.AddMember(angle, MemberEntry{
		Name: "equals", Start: 6, End: 11,
		Params: []string{"Any?"}, Ret: "Bool", Overrides: true,
	})
	b.AddMember(angle, MemberEntry{
		Name: "hashCode", Start: 6, End: 11,
		Ret: "Int", Overrides: true,
	})
	arc := b.AddType(TypeEntry{Name: "Arc", File: "shapes.vt", Start: 24, End: 45, Wraps: "Angle"})
	b.AddMember(arc, MemberEntry{
		Name: "toString", Start: 30, End: 33,
		Ret: "String", Overrides: true,
	})
	b.AddCallSite(CallEntry{File: "shapes.vt", Start: 0, End: 5, Left: "Angle", Right: "Angle"})
	b.AddCallSite(CallEntry{File: "shapes.vt", Start: 24, End: 27, Left: "Arc", RightForm: "boxed", Right: "Arc"})
	return b
}

func TestBuilderBuildsUnit(t *testing.T) {
	bag := diag.NewBag(16)
	u := shapesBuilder(bag).Finish()
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}

	if u.Name != "shapes" || u.DeclCount() != 2 {
		t.Fatalf("unit %q has %d decls, want shapes/2", u.Name, u.DeclCount())
	}

	angleID, ok := u.DeclByName("Angle")
	if !ok {
		t.Fatalf("Angle not found by name")
	}
	angle := u.Decl(angleID)
	if angle == nil || len(angle.Members) != 3 {
		t.Fatalf("Angle decl = %+v", angle)
	}
	if angle.Wraps != u.Types.Builtins().Float {
		t.Fatalf("Angle wraps %v, want Float", angle.Wraps)
	}
	info, _ := u.Types.ValueInfo(angle.Type)
	if info == nil || info.Wrapped != u.Types.Builtins().Float {
		t.Fatalf("interner missed the wrapped type: %+v", info)
	}

	arcID, ok := u.DeclByName("Arc")
	if !ok {
		t.Fatalf("Arc not found by name")
	}
	arc := u.Decl(arcID)
	if arc.Wraps != angle.Type {
		t.Fatalf("Arc wraps %v, want Angle nominal %v", arc.Wraps, angle.Type)
	}

	byType, ok := u.DeclByType(arc.Type)
	if !ok || byType != arcID {
		t.Fatalf("DeclByType(Arc) = %v/%v", byType, ok)
	}

	sites := u.CallSites()
	if len(sites) != 2 {
		t.Fatalf("call sites = %d, want 2", len(sites))
	}
	if sites[0].Left != angle.Type || sites[0].Right != angle.Type {
		t.Fatalf("site 0 operands = %v/%v", sites[0].Left, sites[0].Right)
	}
	if sites[1].Left != arc.Type {
		t.Fatalf("site 1 left = %v, want unboxed Arc", sites[1].Left)
	}
	if !u.Types.IsBoxedForm(sites[1].Right) || u.Types.Unboxed(sites[1].Right) != arc.Type {
		t.Fatalf("site 1 right = %v, want boxed Arc", sites[1].Right)
	}

	if u.Digest == (Digest{}) {
		t.Fatalf("unit digest not computed")
	}
	if equals := u.Strings.MustLookup(u.EqualsName); equals != "equals" {
		t.Fatalf("EqualsName spells %q", equals)
	}
}

func TestBuilderDuplicateType(t *testing.T) {
	bag := diag.NewBag(16)
	b := shapesBuilder(bag)
	id := b.AddType(TypeEntry{Name: "Angle", File: "shapes.vt", Start: 24, End: 45, Wraps: "Int"})
	if id.IsValid() {
		t.Fatalf("duplicate declaration accepted with id %v", id)
	}
	if !hasCode(bag, diag.UnitDuplicateType) {
		t.Fatalf("missing UnitDuplicateType: %s", diagnosticsSummary(bag))
	}
	var dup diag.Diagnostic
	for _, d := range bag.Items() {
		if d.Code == diag.UnitDuplicateType {
			dup = d
		}
	}
	if len(dup.Notes) != 1 || !strings.Contains(dup.Notes[0].Msg, "previous declaration") {
		t.Fatalf("duplicate note = %+v", dup.Notes)
	}

	u := b.Finish()
	angleID, _ := u.DeclByName("Angle")
	if got := u.Decl(angleID).Wraps; got != u.Types.Builtins().Float {
		t.Fatalf("first declaration not kept, wraps %v", got)
	}
}

func TestBuilderRejectsBadTypeDecls(t *testing.T) {
	cases := []struct {
		name  string
		entry TypeEntry
	}{
		{"empty name", TypeEntry{Name: "", File: "shapes.vt", Wraps: "Int"}},
		{"unnamed type param", TypeEntry{Name: "Box", File: "shapes.vt", TypeParams: []string{""}, Wraps: "Int"}},
		{"repeated type param", TypeEntry{Name: "Box", File: "shapes.vt", TypeParams: []string{"T", "T"}, Wraps: "Int"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bag := diag.NewBag(8)
			b := shapesBuilder(bag)
			if id := b.AddType(tc.entry); id.IsValid() {
				t.Fatalf("entry accepted with id %v", id)
			}
			if !hasCode(bag, diag.UnitBadTypeDecl) {
				t.Fatalf("missing UnitBadTypeDecl: %s", diagnosticsSummary(bag))
			}
		})
	}
}

func TestBuilderMissingWrap(t *testing.T) {
	bag := diag.NewBag(8)
	b := NewBuilder("shapes", &diag.BagReporter{Bag: bag})
	b.AddFile("shapes.vt", []byte(shapesSource))
	b.AddType(TypeEntry{Name: "Angle", File: "shapes.vt", Start: 0, End: 23})
	u := b.Finish()

	if !hasCode(bag, diag.UnitMissingWrap) {
		t.Fatalf("missing UnitMissingWrap: %s", diagnosticsSummary(bag))
	}
	id, _ := u.DeclByName("Angle")
	if u.Decl(id).Wraps.IsValid() {
		t.Fatalf("wrap resolved for a declaration without one")
	}
}

func TestBuilderUnknownWrapRef(t *testing.T) {
	bag := diag.NewBag(8)
	b := NewBuilder("shapes", &diag.BagReporter{Bag: bag})
	b.AddFile("shapes.vt", []byte(shapesSource))
	b.AddType(TypeEntry{Name: "Angle", File: "shapes.vt", Start: 0, End: 23, Wraps: "Missing"})
	b.Finish()

	if !hasCode(bag, diag.UnitUnknownTypeRef) {
		t.Fatalf("missing UnitUnknownTypeRef: %s", diagnosticsSummary(bag))
	}
}

func TestBuilderDropsMalformedMembers(t *testing.T) {
	bag := diag.NewBag(16)
	b := shapesBuilder(bag)
	arcID := TypeDeclID(2) // Arc is the second declaration in shapesBuilder
	b.AddMember(arcID, MemberEntry{Name: "", Start: 30, End: 33, Ret: "Bool"})
	b.AddMember(arcID, MemberEntry{Name: "equals", Start: 30, End: 33, Params: []string{"Ghost"}, Ret: "Bool"})
	b.AddMember(arcID, MemberEntry{Name: "equals", Start: 30, End: 33, Params: []string{"Angle"}, Ret: ""})
	u := b.Finish()

	if !hasCode(bag, diag.UnitBadMemberShape) {
		t.Fatalf("missing UnitBadMemberShape: %s", diagnosticsSummary(bag))
	}
	if !hasCode(bag, diag.UnitUnknownTypeRef) {
		t.Fatalf("missing UnitUnknownTypeRef: %s", diagnosticsSummary(bag))
	}
	arc := u.Decl(arcID)
	if len(arc.Members) != 1 || u.Strings.MustLookup(arc.Members[0].Name) != "toString" {
		t.Fatalf("Arc members = %+v, want the toString survivor only", arc.Members)
	}
}

func TestBuilderUnknownFile(t *testing.T) {
	bag := diag.NewBag(8)
	b := shapesBuilder(bag)
	id := b.AddType(TypeEntry{Name: "Ray", File: "ghost.vt", Start: 0, End: 10, Wraps: "Float"})
	if !id.IsValid() {
		t.Fatalf("declaration dropped over a span problem")
	}
	if !hasCode(bag, diag.UnitUnknownFile) {
		t.Fatalf("missing UnitUnknownFile: %s", diagnosticsSummary(bag))
	}
	u := b.Finish()
	ray := u.Decl(id)
	if ray.Span != (source.Span{}) {
		t.Fatalf("span for unknown file = %+v, want zero", ray.Span)
	}
}

func TestBuilderDuplicateFile(t *testing.T) {
	bag := diag.NewBag(8)
	b := NewBuilder("shapes", &diag.BagReporter{Bag: bag})
	first := b.AddFile("shapes.vt", []byte("value Angle wraps Float\n"))
	second := b.AddFile("shapes.vt", []byte("something else entirely\n"))
	if first != second {
		t.Fatalf("duplicate AddFile returned a fresh id")
	}
	if !hasCode(bag, diag.UnitDuplicateFile) {
		t.Fatalf("missing UnitDuplicateFile: %s", diagnosticsSummary(bag))
	}
	f := b.files.Get(first)
	if got := string(f.Content); got != "value Angle wraps Float\n" {
		t.Fatalf("first registration replaced, content %q", got)
	}
}

func TestBuilderDuplicateCallSite(t *testing.T) {
	bag := diag.NewBag(8)
	b := shapesBuilder(bag)
	b.AddCallSite(CallEntry{File: "shapes.vt", Start: 0, End: 5, Left: "Angle", Right: "Angle"})
	u := b.Finish()

	if !hasCode(bag, diag.UnitDuplicateCallSite) {
		t.Fatalf("missing UnitDuplicateCallSite: %s", diagnosticsSummary(bag))
	}
	if len(u.CallSites()) != 2 {
		t.Fatalf("call sites = %d, want the 2 distinct spans", len(u.CallSites()))
	}
}

func TestBuilderRejectsUnknownOperandForm(t *testing.T) {
	bag := diag.NewBag(8)
	b := shapesBuilder(bag)
	b.AddCallSite(CallEntry{File: "shapes.vt", Start: 10, End: 15, Left: "Angle", LeftForm: "quoted", Right: "Angle"})
	u := b.Finish()

	if !hasCode(bag, diag.UnitBadTypeRef) {
		t.Fatalf("missing UnitBadTypeRef: %s", diagnosticsSummary(bag))
	}
	if len(u.CallSites()) != 2 {
		t.Fatalf("malformed site kept, %d sites", len(u.CallSites()))
	}
}

func TestBuilderDigestIsStable(t *testing.T) {
	bag := diag.NewBag(8)
	a := shapesBuilder(bag).Finish()
	b := shapesBuilder(bag).Finish()
	if a.Digest != b.Digest {
		t.Fatalf("same inputs, digests differ: %x vs %x", a.Digest, b.Digest)
	}

	c := NewBuilder("shapes", nil)
	c.AddFile("shapes.vt", []byte("value Angle wraps Int\n"))
	c.AddType(TypeEntry{Name: "Angle", File: "shapes.vt", Start: 0, End: 21, Wraps: "Int"})
	if d := c.Finish(); d.Digest == a.Digest {
		t.Fatalf("different sources, digests collide")
	}

	e := shapesBuilder(diag.NewBag(8))
	e.SetDigestSeed(Digest{1})
	if seeded := e.Finish(); seeded.Digest == a.Digest {
		t.Fatalf("digest ignores the seed")
	}
}

func TestUnitDeclByTypeErasesInstances(t *testing.T) {
	bag := diag.NewBag(8)
	b := NewBuilder("pairs", &diag.BagReporter{Bag: bag})
	b.AddFile("pairs.vt", []byte("value Pair<A, B> wraps A\n"))
	pairID := b.AddType(TypeEntry{Name: "Pair", File: "pairs.vt", Start: 0, End: 24, TypeParams: []string{"A", "B"}, Wraps: "A"})
	u := b.Finish()
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}

	builtins := u.Types.Builtins()
	pair := u.Decl(pairID)
	applied := u.Types.ApplyValue(pair.Type, []types.TypeID{builtins.Int, builtins.Float})
	if applied == pair.Type {
		t.Fatalf("ApplyValue returned the bare nominal")
	}
	got, ok := u.DeclByType(applied)
	if !ok || got != pairID {
		t.Fatalf("DeclByType(instance) = %v/%v, want %v", got, ok, pairID)
	}
}
