package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"veq/internal/diag"
	"veq/internal/sema"
	"veq/internal/source"
	"veq/internal/types"
	"veq/internal/unit"
)

// Current schema version - increment when DiskPayload format changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores finished analysis runs on disk, keyed by unit digest.
// Identical digest means identical manifest bytes, so file IDs, type IDs
// and spans replay exactly. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is one cached run: the diagnostics stream, the spec
// summaries and the call-site resolutions.
type DiskPayload struct {
	// Schema version for safe invalidation when the format changes.
	Schema uint16 `msgpack:"schema"`

	Unit   string `msgpack:"unit"`
	Broken bool   `msgpack:"broken"`

	Diags       []diagPayload       `msgpack:"diags"`
	Specs       []SpecSummary       `msgpack:"specs"`
	Resolutions []resolutionPayload `msgpack:"resolutions"`
}

type diagPayload struct {
	Severity uint8         `msgpack:"sev"`
	Code     uint16        `msgpack:"code"`
	Message  string        `msgpack:"msg"`
	Span     spanPayload   `msgpack:"span"`
	Notes    []notePayload `msgpack:"notes,omitempty"`
}

type notePayload struct {
	Message string      `msgpack:"msg"`
	Span    spanPayload `msgpack:"span"`
}

type spanPayload struct {
	File  uint32 `msgpack:"f"`
	Start uint32 `msgpack:"s"`
	End   uint32 `msgpack:"e"`
}

type resolutionPayload struct {
	Span   spanPayload `msgpack:"span"`
	Kind   uint8       `msgpack:"kind"`
	Recv   uint32      `msgpack:"recv"`
	Decl   uint32      `msgpack:"decl"`
	Boxing uint8       `msgpack:"boxing"`
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes a disk cache rooted at an explicit directory.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir reports the cache root directory.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key unit.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// A "units" subdirectory keeps entries easy to inspect and clean.
	return filepath.Join(c.dir, "units", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key unit.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replacement
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache.
func (c *DiskCache) Get(key unit.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	// #nosec G304 -- path is derived from a hex digest under the cache dir
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", p, err)
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// cacheLookup returns a replayable payload for the unit, or false on
// miss, schema drift, or read error (a broken cache never fails a run).
func cacheLookup(c *DiskCache, u *unit.Unit) (*DiskPayload, bool) {
	if c == nil || u == nil {
		return nil, false
	}
	var payload DiskPayload
	ok, err := c.Get(u.Digest, &payload)
	if err != nil || !ok {
		return nil, false
	}
	if payload.Schema != diskCacheSchemaVersion || payload.Unit != u.Name {
		return nil, false
	}
	return &payload, true
}

func cacheStore(c *DiskCache, u *unit.Unit, res *RunResult, skip int) {
	if c == nil || u == nil {
		return
	}
	payload := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Unit:        u.Name,
		Broken:      res.Bag.HasErrors(),
		Diags:       snapshotDiags(res.Bag, skip),
		Specs:       res.Specs,
		Resolutions: snapshotResolutions(res.Resolutions),
	}
	// Best effort: a full cache disk never fails the run either.
	_ = c.Put(u.Digest, payload)
}

func restorePayload(payload *DiskPayload, res *RunResult) {
	for _, d := range payload.Diags {
		res.Bag.Add(restoreDiag(d))
	}
	res.Specs = payload.Specs
	res.Resolutions = make([]sema.Resolution, 0, len(payload.Resolutions))
	for _, r := range payload.Resolutions {
		res.Resolutions = append(res.Resolutions, restoreResolution(r))
	}
}

func snapshotDiags(bag *diag.Bag, skip int) []diagPayload {
	items := bag.Items()
	if skip > len(items) {
		skip = len(items)
	}
	items = items[skip:]
	out := make([]diagPayload, 0, len(items))
	for _, d := range items {
		p := diagPayload{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Span:     snapshotSpan(d.Primary),
		}
		for _, n := range d.Notes {
			p.Notes = append(p.Notes, notePayload{Message: n.Msg, Span: snapshotSpan(n.Span)})
		}
		out = append(out, p)
	}
	return out
}

func restoreDiag(p diagPayload) diag.Diagnostic {
	d := diag.Diagnostic{
		Severity: diag.Severity(p.Severity),
		Code:     diag.Code(p.Code),
		Message:  p.Message,
		Primary:  restoreSpan(p.Span),
	}
	for _, n := range p.Notes {
		d.Notes = append(d.Notes, diag.Note{Msg: n.Message, Span: restoreSpan(n.Span)})
	}
	return d
}

func snapshotResolutions(rs []sema.Resolution) []resolutionPayload {
	out := make([]resolutionPayload, 0, len(rs))
	for _, r := range rs {
		out = append(out, resolutionPayload{
			Span:   snapshotSpan(r.Span),
			Kind:   uint8(r.Kind),
			Recv:   uint32(r.Recv),
			Decl:   uint32(r.Decl),
			Boxing: uint8(r.Boxing),
		})
	}
	return out
}

func restoreResolution(p resolutionPayload) sema.Resolution {
	return sema.Resolution{
		Span:   restoreSpan(p.Span),
		Kind:   sema.CallKind(p.Kind),
		Recv:   types.TypeID(p.Recv),
		Decl:   unit.TypeDeclID(p.Decl),
		Boxing: sema.OperandSet(p.Boxing),
	}
}

func snapshotSpan(s source.Span) spanPayload {
	return spanPayload{File: uint32(s.File), Start: s.Start, End: s.End}
}

func restoreSpan(p spanPayload) source.Span {
	return source.Span{File: source.FileID(p.File), Start: p.Start, End: p.End}
}
