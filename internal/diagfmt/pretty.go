package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"veq/internal/diag"
	"veq/internal/source"
)

// Pretty renders diagnostics in a human-readable form. It walks
// bag.Items() as-is (call bag.Sort() beforehand for a stable order).
// Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// followed by the source line with a ^~~~ underline over the span, the
// surrounding context lines, and notes in the same shape. Color is
// controlled by opts.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	p := prettyPrinter{w: w, fs: fs, opts: opts, colors: newPalette(opts.Color)}
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		p.printDiagnostic(&d)
	}
}

type palette struct {
	err    *color.Color
	warn   *color.Color
	info   *color.Color
	note   *color.Color
	gutter *color.Color
	caret  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue),
		gutter: color.New(color.FgHiBlack),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

type prettyPrinter struct {
	w      io.Writer
	fs     *source.FileSet
	opts   PrettyOpts
	colors palette
}

func (p *prettyPrinter) printDiagnostic(d *diag.Diagnostic) {
	p.printHeader(d.Severity.String(), p.colors.severity(d.Severity), d.Code, d.Primary, d.Message)
	p.printContext(d.Primary)
	if !p.opts.ShowNotes {
		return
	}
	for _, note := range d.Notes {
		p.printHeader("NOTE", p.colors.note, d.Code, note.Span, note.Msg)
		p.printContext(note.Span)
	}
}

func (p *prettyPrinter) printHeader(sev string, sevColor *color.Color, code diag.Code, span source.Span, msg string) {
	start, _ := p.fs.Resolve(span)
	line := fmt.Sprintf("%s:%d:%d: %s %s: %s",
		p.renderPath(span.File), start.Line, start.Col,
		sevColor.Sprint(sev), code.Name(), msg)
	if p.opts.Width > 0 {
		line = runewidth.Truncate(line, int(p.opts.Width), "...")
	}
	fmt.Fprintln(p.w, line)
}

// printContext prints the span's source line with a caret underline plus
// opts.Context lines above and below.
func (p *prettyPrinter) printContext(span source.Span) {
	if int(span.File) >= p.fs.Len() {
		return
	}
	file := p.fs.Get(span.File)
	start, end := p.fs.Resolve(span)

	ctx := uint32(0)
	if p.opts.Context > 0 {
		ctx = uint32(p.opts.Context)
	}
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + ctx

	for line := first; line <= last; line++ {
		text := file.GetLine(line)
		if text == "" && line > start.Line {
			break
		}
		gutter := p.colors.gutter.Sprintf("%5d |", line)
		fmt.Fprintf(p.w, "%s %s\n", gutter, expandTabs(text))
		if line == start.Line {
			p.printUnderline(text, start, end)
		}
	}
}

func (p *prettyPrinter) printUnderline(text string, start, end source.LineCol) {
	if start.Col == 0 {
		return
	}
	// Measure the display width of the text before the caret so tabs and
	// wide runes line up.
	prefix := sliceCols(text, start.Col-1)
	pad := runewidth.StringWidth(expandTabs(prefix))

	length := 1
	if end.Line == start.Line && end.Col > start.Col {
		covered := sliceCols(text, end.Col-1)
		length = runewidth.StringWidth(expandTabs(covered)) - pad
	} else if end.Line > start.Line {
		// Multi-line span: underline to the end of the first line.
		length = runewidth.StringWidth(expandTabs(text)) - pad
	}
	if length < 1 {
		length = 1
	}

	marks := "^" + strings.Repeat("~", length-1)
	gutter := p.colors.gutter.Sprint("      |")
	fmt.Fprintf(p.w, "%s %s%s\n", gutter, strings.Repeat(" ", pad), p.colors.caret.Sprint(marks))
}

func (p *prettyPrinter) renderPath(id source.FileID) string {
	f := p.fs.Get(id)
	if f == nil {
		return "<unit>"
	}
	switch p.opts.PathMode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", p.fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}

// sliceCols returns the text before the given 0-based byte column,
// clamped to the line length.
func sliceCols(text string, n uint32) string {
	if int(n) >= len(text) {
		return text
	}
	return text[:n]
}

func expandTabs(text string) string {
	return strings.ReplaceAll(text, "\t", "    ")
}
