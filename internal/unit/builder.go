package unit

import (
	"errors"
	"fmt"
	"path/filepath"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"veq/internal/diag"
	"veq/internal/source"
	"veq/internal/types"
)

// TypeEntry is the raw form of one value-type declaration, as manifests
// and tests feed it to the Builder. Type references stay strings until
// Finish, so declarations may reference types added later.
type TypeEntry struct {
	Name       string
	File       string
	Start, End uint32
	TypeParams []string
	Wraps      string
}

// MemberEntry is the raw form of one member-function signature.
type MemberEntry struct {
	Name       string
	Start, End uint32
	Params     []string
	Ret        string
	TypeParams []string
	Typed      bool
	Overrides  bool
}

// CallEntry is the raw form of one equality use site. Forms are "unboxed"
// (default) or "boxed".
type CallEntry struct {
	File       string
	Start, End uint32
	Left       string
	LeftForm   string
	Right      string
	RightForm  string
}

// Builder assembles an immutable Unit. Entries arrive in manifest order;
// semantic problems become diagnostics on the reporter while assembly
// continues, so one bad entry never hides the rest of the unit.
type Builder struct {
	name     string
	baseDir  string
	reporter diag.Reporter

	files   *source.FileSet
	strings *source.Interner
	types   *types.Interner

	decls      []TypeDecl
	wrapRefs   []string
	memberRaw  [][]MemberEntry
	callRaw    []CallEntry
	digestSeed Digest
}

// NewBuilder creates a Builder for a unit with the given name.
func NewBuilder(name string, reporter diag.Reporter) *Builder {
	strings := source.NewInterner()
	b := &Builder{
		name:     name,
		reporter: reporter,
		files:    source.NewFileSet(),
		strings:  strings,
		types:    types.NewInterner(strings),
	}
	b.decls = append(b.decls, TypeDecl{})
	b.wrapRefs = append(b.wrapRefs, "")
	b.memberRaw = append(b.memberRaw, nil)
	return b
}

// SetBaseDir sets the directory externally-stored sources resolve against.
func (b *Builder) SetBaseDir(dir string) {
	b.baseDir = dir
	b.files.SetBaseDir(dir)
}

// SetDigestSeed mixes the raw manifest digest into the unit digest.
func (b *Builder) SetDigestSeed(d Digest) {
	b.digestSeed = d
}

// AddFile registers an embedded source file. Duplicate paths keep the
// first registration.
func (b *Builder) AddFile(path string, content []byte) source.FileID {
	if f, ok := b.files.GetByPath(path); ok {
		b.report(diag.UnitDuplicateFile, diag.SevError, source.Span{File: f.ID},
			"duplicate file %q in unit", path)
		return f.ID
	}
	return b.files.AddVirtual(path, content)
}

// AddDiskFile registers a source stored next to the manifest, keyed by its
// manifest path. Load failures become IOLoadFileError diagnostics.
func (b *Builder) AddDiskFile(path string) (source.FileID, bool) {
	if f, ok := b.files.GetByPath(path); ok {
		b.report(diag.UnitDuplicateFile, diag.SevError, source.Span{File: f.ID},
			"duplicate file %q in unit", path)
		return f.ID, true
	}
	diskPath := path
	if b.baseDir != "" && !filepath.IsAbs(path) {
		diskPath = filepath.Join(b.baseDir, path)
	}
	id, err := b.files.LoadAs(path, diskPath)
	if err != nil {
		b.report(diag.IOLoadFileError, diag.SevError, source.Span{},
			"failed to load %q: %v", diskPath, err)
		return 0, false
	}
	return id, true
}

// AddType registers a value-type declaration and returns its ID, or
// NoTypeDeclID when the entry was rejected.
func (b *Builder) AddType(e TypeEntry) TypeDeclID {
	name := normIdent(e.Name)
	if name == "" {
		b.report(diag.UnitBadTypeDecl, diag.SevError, source.Span{},
			"value type declaration has an empty name")
		return NoTypeDeclID
	}

	span := b.spanFor(e.File, e.Start, e.End)

	paramNames := make([]source.StringID, 0, len(e.TypeParams))
	for _, p := range e.TypeParams {
		pn := normIdent(p)
		if pn == "" {
			b.report(diag.UnitBadTypeDecl, diag.SevError, span,
				"type %q declares an unnamed type parameter", name)
			return NoTypeDeclID
		}
		id := b.strings.Intern(pn)
		if _, dup := findParam(paramNames, id); dup {
			b.report(diag.UnitBadTypeDecl, diag.SevError, span,
				"type %q declares type parameter %q twice", name, pn)
			return NoTypeDeclID
		}
		paramNames = append(paramNames, id)
	}

	nameID := b.strings.Intern(name)
	if prev, ok := b.types.FindValueByName(nameID); ok {
		prevInfo, _ := b.types.ValueInfo(prev)
		builder := diag.ReportError(b.reporter, diag.UnitDuplicateType, span,
			fmt.Sprintf("duplicate value type %q in unit", name))
		if prevInfo != nil {
			builder.WithNote(prevInfo.Decl, fmt.Sprintf("previous declaration of %q", name))
		}
		builder.Emit()
		return NoTypeDeclID
	}

	typeID := b.types.RegisterValue(nameID, span, paramCount(len(paramNames)))

	id := TypeDeclID(paramCount(len(b.decls)))
	b.decls = append(b.decls, TypeDecl{
		Name:       nameID,
		Span:       span,
		File:       span.File,
		TypeParams: paramCount(len(paramNames)),
		ParamNames: paramNames,
		Type:       typeID,
	})
	b.wrapRefs = append(b.wrapRefs, e.Wraps)
	b.memberRaw = append(b.memberRaw, nil)
	return id
}

// AddMember attaches a member signature to a declaration. Calls against
// NoTypeDeclID are ignored; the rejection was already reported.
func (b *Builder) AddMember(id TypeDeclID, e MemberEntry) {
	if !id.IsValid() || int(id) >= len(b.decls) {
		return
	}
	b.memberRaw[id] = append(b.memberRaw[id], e)
}

// AddCallSite records an equality use site for later resolution.
func (b *Builder) AddCallSite(e CallEntry) {
	b.callRaw = append(b.callRaw, e)
}

// Finish resolves every stored reference and returns the immutable Unit.
func (b *Builder) Finish() *Unit {
	u := &Unit{
		Name:         b.name,
		Files:        b.files,
		Strings:      b.strings,
		Types:        b.types,
		EqualsName:   b.strings.Intern("equals"),
		HashCodeName: b.strings.Intern("hashCode"),
		byType:       make(map[types.TypeID]TypeDeclID, len(b.decls)),
	}

	for i := 1; i < len(b.decls); i++ {
		decl := &b.decls[i]
		b.resolveWrap(decl, b.wrapRefs[i])
		b.resolveMembers(decl, b.memberRaw[i])
		u.byType[decl.Type] = TypeDeclID(paramCount(i))
	}
	u.decls = b.decls

	seen := make(map[source.Span]struct{}, len(b.callRaw))
	for _, raw := range b.callRaw {
		site, ok := b.resolveCallSite(raw)
		if !ok {
			continue
		}
		if _, dup := seen[site.Span]; dup {
			b.report(diag.UnitDuplicateCallSite, diag.SevError, site.Span,
				"duplicate call site entry")
			continue
		}
		seen[site.Span] = struct{}{}
		u.callSites = append(u.callSites, site)
	}

	u.Digest = b.computeDigest()
	return u
}

func (b *Builder) resolveWrap(decl *TypeDecl, ref string) {
	name := b.strings.MustLookup(decl.Name)
	if ref == "" {
		b.report(diag.UnitMissingWrap, diag.SevError, decl.Span,
			"value type %q declares no wrapped field", name)
		return
	}
	id, err := b.resolveRef(ref, refScope{declParams: decl.ParamNames})
	if err != nil {
		b.reportRefError(err, decl.Span, "wrapped field of %q", name)
		return
	}
	decl.Wraps = id
	b.types.SetValueWrapped(decl.Type, id)
}

func (b *Builder) resolveMembers(decl *TypeDecl, raw []MemberEntry) {
	declName := b.strings.MustLookup(decl.Name)
	for _, e := range raw {
		memberName := normIdent(e.Name)
		span := source.Span{File: decl.File, Start: e.Start, End: e.End}
		if memberName == "" || e.Ret == "" {
			b.report(diag.UnitBadMemberShape, diag.SevError, span,
				"malformed member signature on type %q", declName)
			continue
		}

		memberParams := make([]source.StringID, 0, len(e.TypeParams))
		badParams := false
		for _, p := range e.TypeParams {
			pn := normIdent(p)
			if pn == "" {
				badParams = true
				break
			}
			memberParams = append(memberParams, b.strings.Intern(pn))
		}
		if badParams {
			b.report(diag.UnitBadMemberShape, diag.SevError, span,
				"member %q on type %q declares an unnamed type parameter", memberName, declName)
			continue
		}

		scope := refScope{declParams: decl.ParamNames, memberParams: memberParams}
		params := make([]types.TypeID, 0, len(e.Params))
		ok := true
		for _, p := range e.Params {
			id, err := b.resolveRef(p, scope)
			if err != nil {
				b.reportRefError(err, span, "parameter of %q.%s", declName, memberName)
				ok = false
				break
			}
			params = append(params, id)
		}
		if !ok {
			continue
		}
		ret, err := b.resolveRef(e.Ret, scope)
		if err != nil {
			b.reportRefError(err, span, "return type of %q.%s", declName, memberName)
			continue
		}

		decl.Members = append(decl.Members, MemberFunc{
			Name:        b.strings.Intern(memberName),
			Span:        span,
			Params:      params,
			Ret:         ret,
			TypeParams:  paramCount(len(memberParams)),
			TypedMarker: e.Typed,
			Overrides:   e.Overrides,
		})
	}
}

func (b *Builder) resolveCallSite(raw CallEntry) (CallSite, bool) {
	span := b.spanFor(raw.File, raw.Start, raw.End)
	left, ok := b.resolveOperand(raw.Left, raw.LeftForm, span)
	if !ok {
		return CallSite{}, false
	}
	right, ok := b.resolveOperand(raw.Right, raw.RightForm, span)
	if !ok {
		return CallSite{}, false
	}
	return CallSite{Span: span, Left: left, Right: right}, true
}

func (b *Builder) resolveOperand(ref, form string, span source.Span) (types.TypeID, bool) {
	id, err := b.resolveRef(ref, refScope{})
	if err != nil {
		b.reportRefError(err, span, "call site operand")
		return types.NoTypeID, false
	}
	switch form {
	case "", "unboxed":
		return id, true
	case "boxed":
		return b.types.Boxed(id), true
	default:
		b.report(diag.UnitBadTypeRef, diag.SevError, span,
			"unknown operand form %q, want \"boxed\" or \"unboxed\"", form)
		return types.NoTypeID, false
	}
}

// spanFor resolves a manifest file path + offsets into a Span. Unknown
// files are reported once per referencing entry and yield a zero span.
func (b *Builder) spanFor(path string, start, end uint32) source.Span {
	if path == "" {
		return source.Span{}
	}
	f, ok := b.files.GetByPath(path)
	if !ok {
		b.report(diag.UnitUnknownFile, diag.SevError, source.Span{},
			"entry references file %q missing from the unit", path)
		return source.Span{}
	}
	return source.Span{File: f.ID, Start: start, End: end}
}

func (b *Builder) reportRefError(err error, span source.Span, format string, args ...any) {
	code := diag.UnitBadTypeRef
	if errors.Is(err, ErrUnknownTypeRef) {
		code = diag.UnitUnknownTypeRef
	}
	b.report(code, diag.SevError, span, "%s: %v", fmt.Sprintf(format, args...), err)
}

func (b *Builder) report(code diag.Code, sev diag.Severity, span source.Span, format string, args ...any) {
	if b.reporter == nil {
		return
	}
	diag.NewReportBuilder(b.reporter, sev, code, span, fmt.Sprintf(format, args...)).Emit()
}

// normIdent canonicalizes identifier spelling the way the binder does,
// so differently-composed Unicode source spellings agree.
func normIdent(s string) string {
	return norm.NFC.String(s)
}

func paramCount(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("count overflow: %w", err))
	}
	return v
}
