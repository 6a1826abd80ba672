package unit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"veq/internal/diag"
)

const shapesTOML = `
schema = 1
unit = "shapes"

[[files]]
path = "shapes.vt"
content = "value Angle wraps Float\nvalue Arc wraps Angle\n"

[[types]]
name = "Angle"
file = "shapes.vt"
start = 0
end = 23
wraps = "Float"

[[types.members]]
name = "equals"
start = 6
end = 11
params = ["Angle"]
ret = "Bool"
typed = true

[[types]]
name = "Arc"
file = "shapes.vt"
start = 24
end = 45
wraps = "Angle"

[[call_sites]]
file = "shapes.vt"
start = 0
end = 5
left = "Angle"
right = "Arc"
right_form = "boxed"
`

const shapesYAML = `
schema: 1
unit: shapes
files:
  - path: shapes.vt
    content: "value Angle wraps Float\nvalue Arc wraps Angle\n"
types:
  - name: Angle
    file: shapes.vt
    start: 0
    end: 23
    wraps: Float
    members:
      - name: equals
        start: 6
        end: 11
        params: [Angle]
        ret: Bool
        typed: true
  - name: Arc
    file: shapes.vt
    start: 24
    end: 45
    wraps: Angle
call_sites:
  - file: shapes.vt
    start: 0
    end: 5
    left: Angle
    right: Arc
    right_form: boxed
`

func TestParseTOMLManifest(t *testing.T) {
	bag := diag.NewBag(16)
	u, err := ParseTOML([]byte(shapesTOML), "", &diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}

	if u.Name != "shapes" || u.DeclCount() != 2 {
		t.Fatalf("unit %q with %d decls", u.Name, u.DeclCount())
	}
	angleID, ok := u.DeclByName("Angle")
	if !ok {
		t.Fatalf("Angle missing")
	}
	angle := u.Decl(angleID)
	if angle.Wraps != u.Types.Builtins().Float || len(angle.Members) != 1 {
		t.Fatalf("Angle = %+v", angle)
	}
	m := angle.Members[0]
	if !m.TypedMarker || len(m.Params) != 1 || m.Params[0] != angle.Type || m.Ret != u.Types.Builtins().Bool {
		t.Fatalf("typed member = %+v", m)
	}

	sites := u.CallSites()
	if len(sites) != 1 {
		t.Fatalf("call sites = %d", len(sites))
	}
	if !u.Types.IsBoxedForm(sites[0].Right) {
		t.Fatalf("right operand not boxed: %v", sites[0].Right)
	}
}

func TestParseYAMLMatchesTOML(t *testing.T) {
	bag := diag.NewBag(16)
	fromTOML, err := ParseTOML([]byte(shapesTOML), "", &diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	fromYAML, err := ParseYAML([]byte(shapesYAML), "", &diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}

	if fromYAML.Name != fromTOML.Name || fromYAML.DeclCount() != fromTOML.DeclCount() {
		t.Fatalf("formats disagree: %q/%d vs %q/%d",
			fromYAML.Name, fromYAML.DeclCount(), fromTOML.Name, fromTOML.DeclCount())
	}
	for id := TypeDeclID(1); int(id) <= fromTOML.DeclCount(); id++ {
		td, yd := fromTOML.Decl(id), fromYAML.Decl(id)
		tName := fromTOML.Strings.MustLookup(td.Name)
		yName := fromYAML.Strings.MustLookup(yd.Name)
		if tName != yName || len(td.Members) != len(yd.Members) {
			t.Fatalf("decl %d: %q/%d members vs %q/%d members",
				id, tName, len(td.Members), yName, len(yd.Members))
		}
	}
	if len(fromYAML.CallSites()) != len(fromTOML.CallSites()) {
		t.Fatalf("call site counts disagree")
	}
}

func TestParseManifestSchemaMismatch(t *testing.T) {
	src := strings.Replace(shapesTOML, "schema = 1", "schema = 2", 1)
	if _, err := ParseTOML([]byte(src), "", nil); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("schema mismatch err = %v", err)
	}
	ysrc := strings.Replace(shapesYAML, "schema: 1", "schema: 2", 1)
	if _, err := ParseYAML([]byte(ysrc), "", nil); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("YAML schema mismatch err = %v", err)
	}
}

func TestParseManifestUnknownKey(t *testing.T) {
	src := shapesTOML + "\nmystery = true\n"
	if _, err := ParseTOML([]byte(src), "", nil); err == nil || !strings.Contains(err.Error(), "unknown manifest key") {
		t.Fatalf("unknown key err = %v", err)
	}
	ysrc := shapesYAML + "mystery: true\n"
	if _, err := ParseYAML([]byte(ysrc), "", nil); err == nil {
		t.Fatalf("YAML accepted an unknown key")
	}
}

func TestParseManifestRejectsEmptyUnitName(t *testing.T) {
	src := strings.Replace(shapesTOML, `unit = "shapes"`, `unit = "  "`, 1)
	if _, err := ParseTOML([]byte(src), "", nil); err == nil || !strings.Contains(err.Error(), "unit name") {
		t.Fatalf("empty unit err = %v", err)
	}
}

func TestParseManifestRejectsEmptyFilePath(t *testing.T) {
	src := strings.Replace(shapesTOML, `path = "shapes.vt"`, `path = ""`, 1)
	if _, err := ParseTOML([]byte(src), "", nil); err == nil || !strings.Contains(err.Error(), "empty path") {
		t.Fatalf("empty path err = %v", err)
	}
}

func TestParseYAMLEmptyInput(t *testing.T) {
	if _, err := ParseYAML(nil, "", nil); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("empty manifest err = %v", err)
	}
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "shapes.unit.toml")
	yamlPath := filepath.Join(dir, "shapes.unit.yaml")
	if err := os.WriteFile(tomlPath, []byte(shapesTOML), 0o600); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if err := os.WriteFile(yamlPath, []byte(shapesYAML), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	for _, path := range []string{tomlPath, yamlPath} {
		u, err := Load(path, nil)
		if err != nil {
			t.Fatalf("Load(%s): %v", filepath.Base(path), err)
		}
		if u.Name != "shapes" || u.DeclCount() != 2 {
			t.Fatalf("Load(%s) built %q with %d decls", filepath.Base(path), u.Name, u.DeclCount())
		}
	}
}

func TestManifestExternalFile(t *testing.T) {
	dir := t.TempDir()
	src := "value Angle wraps Float\n"
	if err := os.WriteFile(filepath.Join(dir, "shapes.vt"), []byte(src), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	manifest := `
schema = 1
unit = "shapes"

[[files]]
path = "shapes.vt"
external = true

[[types]]
name = "Angle"
file = "shapes.vt"
start = 0
end = 23
wraps = "Float"
`
	bag := diag.NewBag(8)
	u, err := ParseTOML([]byte(manifest), dir, &diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	f, ok := u.Files.GetByPath("shapes.vt")
	if !ok || string(f.Content) != src {
		t.Fatalf("external file content = %q", f.Content)
	}
}

func TestManifestExternalFileMissing(t *testing.T) {
	manifest := `
schema = 1
unit = "shapes"

[[files]]
path = "ghost.vt"
external = true

[[types]]
name = "Angle"
file = "ghost.vt"
start = 0
end = 23
wraps = "Float"
`
	bag := diag.NewBag(8)
	u, err := ParseTOML([]byte(manifest), t.TempDir(), &diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("a missing external file must not abort assembly: %v", err)
	}
	if !hasCode(bag, diag.IOLoadFileError) {
		t.Fatalf("missing IOLoadFileError: %s", diagnosticsSummary(bag))
	}
	if !hasCode(bag, diag.UnitUnknownFile) {
		t.Fatalf("missing UnitUnknownFile: %s", diagnosticsSummary(bag))
	}
	if u.DeclCount() != 1 {
		t.Fatalf("declaration dropped over its missing file")
	}
}

func TestManifestRepeatedReportsCollapse(t *testing.T) {
	manifest := `
schema = 1
unit = "shapes"

[[types]]
name = "Angle"
file = "ghost.vt"
start = 0
end = 23
wraps = "Float"

[[types]]
name = "Arc"
file = "ghost.vt"
start = 24
end = 44
wraps = "Angle"
`
	bag := diag.NewBag(8)
	if _, err := ParseTOML([]byte(manifest), "", &diag.BagReporter{Bag: bag}); err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	seen := 0
	for _, d := range bag.Items() {
		if d.Code == diag.UnitUnknownFile {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("UnitUnknownFile reported %d times, want 1: %s", seen, diagnosticsSummary(bag))
	}
}
