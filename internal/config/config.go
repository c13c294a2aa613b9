// Package config loads helpsync settings from .helpsync/settings.yaml in the
// project root. Every component receives the value it needs explicitly;
// nothing reads ambient global state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dir is the settings directory name relative to the project root.
const Dir = ".helpsync"

// Settings holds project configuration. Zero values fall back to the
// defaults returned by Default.
type Settings struct {
	// Author is the default AUTHOR for synthesized NOTES sections.
	Author string `yaml:"author,omitempty"`

	// LogPath receives the append-only run log, relative to the root.
	LogPath string `yaml:"log_path,omitempty"`

	// ChangelogPath receives rendered change-log entries.
	ChangelogPath string `yaml:"changelog_path,omitempty"`

	// DescriptionTablePath points at the per-function description table.
	DescriptionTablePath string `yaml:"description_table,omitempty"`

	// ManifestPath points at the module manifest.
	ManifestPath string `yaml:"manifest,omitempty"`

	// Extensions lists the source extensions a directory sync picks up.
	Extensions []string `yaml:"extensions,omitempty"`

	// IndentUnit is one indentation level in synthesized blocks.
	IndentUnit string `yaml:"indent_unit,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() *Settings {
	return &Settings{
		LogPath:              filepath.Join(Dir, "helpsync.log"),
		ChangelogPath:        "CHANGELOG.md",
		DescriptionTablePath: filepath.Join(Dir, "descriptions.tsv"),
		ManifestPath:         "module.yaml",
		Extensions:           []string{".psm1", ".ps1"},
		IndentUnit:           "    ",
	}
}

// Load reads .helpsync/settings.yaml relative to root and overlays it on the
// defaults. A missing file yields the defaults, not an error.
func Load(root string) (*Settings, error) {
	s := Default()
	path := filepath.Join(root, Dir, "settings.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	s.normalize()
	return s, nil
}

// Save writes the settings file, creating the directory if needed.
func (s *Settings) Save(root string) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", dir, err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	path := filepath.Join(dir, "settings.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// normalize fills empty fields from the defaults and canonicalizes
// extensions to a leading dot.
func (s *Settings) normalize() {
	d := Default()
	if s.LogPath == "" {
		s.LogPath = d.LogPath
	}
	if s.ChangelogPath == "" {
		s.ChangelogPath = d.ChangelogPath
	}
	if s.DescriptionTablePath == "" {
		s.DescriptionTablePath = d.DescriptionTablePath
	}
	if s.ManifestPath == "" {
		s.ManifestPath = d.ManifestPath
	}
	if len(s.Extensions) == 0 {
		s.Extensions = d.Extensions
	}
	if s.IndentUnit == "" {
		s.IndentUnit = d.IndentUnit
	}
	for i, ext := range s.Extensions {
		if !strings.HasPrefix(ext, ".") {
			s.Extensions[i] = "." + ext
		}
	}
}

// WantsFile reports whether path has one of the configured extensions. Safe
// on a nil receiver.
func (s *Settings) WantsFile(path string) bool {
	if s == nil {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range s.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}
