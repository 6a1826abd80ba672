package unit

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"veq/internal/diag"
)

// LoadYAML reads a .unit.yaml manifest, accepted as an equivalent of the
// TOML form for binders that already speak YAML.
func LoadYAML(path string, reporter diag.Reporter) (*Unit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseYAML(raw, filepath.Dir(path), reporter)
}

// ParseYAML assembles a unit from raw YAML manifest bytes.
func ParseYAML(raw []byte, baseDir string, reporter diag.Reporter) (*Unit, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)

	var mf manifestFile
	if err := decoder.Decode(&mf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return assemble(&mf, baseDir, Digest(sha256.Sum256(raw)), reporter)
}
