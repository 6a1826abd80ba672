package diag

import (
	"fmt"
	"sort"
	"strings"

	"veq/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics into a stable,
// single-line-per-entry representation suitable for golden files.
// Entries pointing at synthetic files (paths wrapped in angle brackets)
// are dropped; the rest are sorted deterministically.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return formatDiagnostics(diags, fs, includeNotes, true)
}

// FormatShortDiagnostics renders diagnostics for CLI short output,
// including synthetic paths.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return formatDiagnostics(diags, fs, includeNotes, false)
}

func formatDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes, skipSynthetic bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendDiagnostic(rendered, &diags[i], fs, includeNotes, skipSynthetic)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []goldenDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes, skipSynthetic bool) []goldenDiagnostic {
	loc, ok := resolveSpan(fs, d.Primary)
	if ok && (!skipSynthetic || !isSyntheticPath(loc.path)) {
		out = append(out, goldenDiagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code.Name(),
			Path:     loc.path,
			Line:     loc.line,
			Column:   loc.col,
			Message:  d.Message,
		})
	}
	if !includeNotes {
		return out
	}
	for _, note := range d.Notes {
		nloc, nok := resolveSpan(fs, note.Span)
		if !nok || (skipSynthetic && isSyntheticPath(nloc.path)) {
			continue
		}
		out = append(out, goldenDiagnostic{
			Severity: "NOTE",
			Code:     d.Code.Name(),
			Path:     nloc.path,
			Line:     nloc.line,
			Column:   nloc.col,
			Message:  note.Msg,
		})
	}
	return out
}

type resolvedLoc struct {
	path string
	line uint32
	col  uint32
}

func resolveSpan(fs *source.FileSet, span source.Span) (resolvedLoc, bool) {
	if int(span.File) >= fs.Len() {
		return resolvedLoc{}, false
	}
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	return resolvedLoc{path: f.Path, line: start.Line, col: start.Col}, true
}

func isSyntheticPath(path string) bool {
	return strings.HasPrefix(path, "<") && strings.HasSuffix(path, ">")
}
