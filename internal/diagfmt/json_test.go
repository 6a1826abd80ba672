package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"veq/internal/diag"
	"veq/internal/source"
)

func testFixture() (*diag.Bag, *source.FileSet, source.FileID) {
	fs := source.NewFileSet()
	content := "type Angle(Float)\n  typed fn equals(other: Angle) Int\n"
	id := fs.AddVirtual("angle.veq", []byte(content))

	bag := diag.NewBag(8)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.TypedEqualsMustReturnBoolean,
		Message:  "typed equality on Angle must return Bool, found Int",
		Primary:  source.Span{File: id, Start: 20, End: 53},
		Notes: []diag.Note{
			{Span: source.Span{File: id, Start: 0, End: 17}, Msg: "Angle is declared here"},
		},
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.ImplicitBoxingInEqualityCheck,
		Message:  "implicit boxing in equality check between Angle and Angle",
		Primary:  source.Span{File: id, Start: 5, End: 10},
	})
	return bag, fs, id
}

func TestBuildDiagnosticsOutput(t *testing.T) {
	bag, fs, _ := testFixture()

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
	})

	if out.Count != 2 {
		t.Fatalf("Count = %d, want 2", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Severity != "ERROR" {
		t.Fatalf("Severity = %q, want ERROR", first.Severity)
	}
	if first.Code != "EQ3004" {
		t.Fatalf("Code = %q, want EQ3004", first.Code)
	}
	if first.Name != "TypedEqualsMustReturnBoolean" {
		t.Fatalf("Name = %q, want TypedEqualsMustReturnBoolean", first.Name)
	}
	if first.Location.StartLine != 2 {
		t.Fatalf("StartLine = %d, want 2", first.Location.StartLine)
	}
	if len(first.Notes) != 1 {
		t.Fatalf("len(Notes) = %d, want 1", len(first.Notes))
	}
	if first.Notes[0].Location.StartLine != 1 {
		t.Fatalf("note StartLine = %d, want 1", first.Notes[0].Location.StartLine)
	}
}

func TestBuildDiagnosticsOutput_NotesOmittedByDefault(t *testing.T) {
	bag, fs, _ := testFixture()

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 0 {
		t.Fatalf("notes should be omitted without IncludeNotes, got %d", len(out.Diagnostics[0].Notes))
	}
}

func TestBuildDiagnosticsOutput_Max(t *testing.T) {
	bag, fs, _ := testFixture()

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 {
		t.Fatalf("Count = %d, want 1", out.Count)
	}
}

func TestJSON_RoundTrips(t *testing.T) {
	bag, fs, _ := testFixture()

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var decoded DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Count != 2 {
		t.Fatalf("decoded Count = %d, want 2", decoded.Count)
	}
	if !strings.Contains(buf.String(), "angle.veq") {
		t.Fatalf("output does not mention the file:\n%s", buf.String())
	}
}

func TestBuildDiagnosticsOutput_ZeroSpanWithoutFiles(t *testing.T) {
	fs := source.NewFileSet()

	bag := diag.NewBag(4)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.IOLoadFileError,
		Message:  "failed to load \"geom.vt\": no such file",
		Primary:  source.Span{},
	})

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{IncludePositions: true})
	if out.Count != 1 {
		t.Fatalf("Count = %d, want 1", out.Count)
	}
	loc := out.Diagnostics[0].Location
	if loc.File != "<unit>" {
		t.Fatalf("File = %q, want <unit>", loc.File)
	}
	if loc.StartLine != 0 || loc.StartCol != 0 {
		t.Fatalf("position = %d:%d, want 0:0", loc.StartLine, loc.StartCol)
	}
}
