// Package manifest manages the module manifest (module.yaml): name, semantic
// version, author, and the exported function list. A sync run bumps the
// version according to what the change-set contains.
package manifest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"helpsync/internal/funcdiff"
)

// Manifest is the yaml structure of module.yaml.
type Manifest struct {
	Name              string   `yaml:"name"`
	Version           string   `yaml:"version"`
	Author            string   `yaml:"author,omitempty"`
	Description       string   `yaml:"description,omitempty"`
	FunctionsToExport []string `yaml:"functions_to_export,omitempty"`
}

// New returns a fresh manifest at version 0.1.0.
func New(name, author string) *Manifest {
	return &Manifest{Name: name, Version: "0.1.0", Author: author}
}

// Load reads a manifest. Returns (nil, nil) when the file does not exist so
// callers can decide whether to create one.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: unmarshal %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the manifest.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// Bump advances the version for the given change-set: added or removed
// functions bump the minor version, body-only changes bump the patch level,
// an empty change-set leaves the version alone. Reports whether the version
// moved.
func (m *Manifest) Bump(cs *funcdiff.ChangeSet) bool {
	major, minor, patch, err := parseVersion(m.Version)
	if err != nil {
		// Unparseable versions restart at a known point rather than failing
		// the sync.
		major, minor, patch = 0, 1, 0
	}
	switch {
	case len(cs.Added) > 0 || len(cs.Removed) > 0:
		minor++
		patch = 0
	case len(cs.Changed) > 0:
		patch++
	default:
		return false
	}
	m.Version = fmt.Sprintf("%d.%d.%d", major, minor, patch)
	return true
}

// SetExports replaces the exported function list.
func (m *Manifest) SetExports(names []string) {
	m.FunctionsToExport = names
}

func parseVersion(v string) (major, minor, patch int, err error) {
	parts := strings.SplitN(strings.TrimSpace(v), ".", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("manifest: version %q is not major.minor.patch", v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("manifest: version %q: %w", v, convErr)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}
