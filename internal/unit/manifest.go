package unit

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"veq/internal/diag"
)

// ManifestSchemaVersion is the unit manifest generation this build reads.
const ManifestSchemaVersion = 1

// Unit manifests are the serialized form of the binder's export: source
// files, value-type declarations with member signatures, and equality use
// sites. TOML is the primary format; YAML is accepted equivalently.
type manifestFile struct {
	Schema int            `toml:"schema" yaml:"schema"`
	Unit   string         `toml:"unit" yaml:"unit"`
	Files  []manifestSrc  `toml:"files" yaml:"files"`
	Types  []manifestType `toml:"types" yaml:"types"`
	Calls  []manifestCall `toml:"call_sites" yaml:"call_sites"`
}

type manifestSrc struct {
	Path    string `toml:"path" yaml:"path"`
	Content string `toml:"content" yaml:"content"`
	// External files live next to the manifest instead of embedding
	// their content.
	External bool `toml:"external" yaml:"external"`
}

type manifestType struct {
	Name       string           `toml:"name" yaml:"name"`
	File       string           `toml:"file" yaml:"file"`
	Start      uint32           `toml:"start" yaml:"start"`
	End        uint32           `toml:"end" yaml:"end"`
	TypeParams []string         `toml:"type_params" yaml:"type_params"`
	Wraps      string           `toml:"wraps" yaml:"wraps"`
	Members    []manifestMember `toml:"members" yaml:"members"`
}

type manifestMember struct {
	Name       string   `toml:"name" yaml:"name"`
	Start      uint32   `toml:"start" yaml:"start"`
	End        uint32   `toml:"end" yaml:"end"`
	Params     []string `toml:"params" yaml:"params"`
	Ret        string   `toml:"ret" yaml:"ret"`
	TypeParams []string `toml:"type_params" yaml:"type_params"`
	Typed      bool     `toml:"typed" yaml:"typed"`
	Overrides  bool     `toml:"overrides" yaml:"overrides"`
}

type manifestCall struct {
	File      string `toml:"file" yaml:"file"`
	Start     uint32 `toml:"start" yaml:"start"`
	End       uint32 `toml:"end" yaml:"end"`
	Left      string `toml:"left" yaml:"left"`
	LeftForm  string `toml:"left_form" yaml:"left_form"`
	Right     string `toml:"right" yaml:"right"`
	RightForm string `toml:"right_form" yaml:"right_form"`
}

// Load reads a unit manifest, dispatching on the file extension:
// .yaml/.yml decode as YAML, everything else as TOML.
func Load(path string, reporter diag.Reporter) (*Unit, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path, reporter)
	default:
		return LoadTOML(path, reporter)
	}
}

// LoadTOML reads a .unit.toml manifest. I/O and parse problems return an
// error; semantic problems inside a well-formed manifest become
// diagnostics on the reporter.
func LoadTOML(path string, reporter diag.Reporter) (*Unit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseTOML(raw, filepath.Dir(path), reporter)
}

// ParseTOML assembles a unit from raw TOML manifest bytes.
func ParseTOML(raw []byte, baseDir string, reporter diag.Reporter) (*Unit, error) {
	var mf manifestFile
	meta, err := toml.Decode(string(raw), &mf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown manifest key %q", undecoded[0].String())
	}
	return assemble(&mf, baseDir, Digest(sha256.Sum256(raw)), reporter)
}

func assemble(mf *manifestFile, baseDir string, seed Digest, reporter diag.Reporter) (*Unit, error) {
	if mf.Schema != ManifestSchemaVersion {
		return nil, fmt.Errorf("unsupported manifest schema %d, this build reads %d",
			mf.Schema, ManifestSchemaVersion)
	}
	if strings.TrimSpace(mf.Unit) == "" {
		return nil, fmt.Errorf("manifest declares no unit name")
	}

	// Entries repeat identical reports (spanFor re-reports a missing file
	// once per referencing entry); collapse them before they hit the bag.
	b := NewBuilder(strings.TrimSpace(mf.Unit), diag.NewDedupReporter(reporter))
	b.SetBaseDir(baseDir)
	b.SetDigestSeed(seed)

	for i, f := range mf.Files {
		if f.Path == "" {
			return nil, fmt.Errorf("files[%d] has an empty path", i)
		}
		if f.External {
			b.AddDiskFile(f.Path)
			continue
		}
		b.AddFile(f.Path, []byte(f.Content))
	}

	for _, t := range mf.Types {
		id := b.AddType(TypeEntry{
			Name:       t.Name,
			File:       t.File,
			Start:      t.Start,
			End:        t.End,
			TypeParams: t.TypeParams,
			Wraps:      t.Wraps,
		})
		for _, m := range t.Members {
			b.AddMember(id, MemberEntry{
				Name:       m.Name,
				Start:      m.Start,
				End:        m.End,
				Params:     m.Params,
				Ret:        m.Ret,
				TypeParams: m.TypeParams,
				Typed:      m.Typed,
				Overrides:  m.Overrides,
			})
		}
	}

	for _, c := range mf.Calls {
		b.AddCallSite(CallEntry{
			File:      c.File,
			Start:     c.Start,
			End:       c.End,
			Left:      c.Left,
			LeftForm:  c.LeftForm,
			Right:     c.Right,
			RightForm: c.RightForm,
		})
	}

	return b.Finish(), nil
}
