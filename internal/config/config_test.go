package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"helpsync/internal/config"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d := config.Default()
	if s.ChangelogPath != d.ChangelogPath || s.LogPath != d.LogPath {
		t.Errorf("defaults not applied: %+v", s)
	}
	if len(s.Extensions) != 2 {
		t.Errorf("Extensions = %v", s.Extensions)
	}
}

func TestLoadOverlaysOnDefaults(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, config.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "author: Jane Doe\nextensions:\n  - psm1\n"
	if err := os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := config.Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Author != "Jane Doe" {
		t.Errorf("Author = %q", s.Author)
	}
	if len(s.Extensions) != 1 || s.Extensions[0] != ".psm1" {
		t.Errorf("extensions not normalized: %v", s.Extensions)
	}
	// Unset fields keep their defaults.
	if s.ChangelogPath != config.Default().ChangelogPath {
		t.Errorf("ChangelogPath = %q", s.ChangelogPath)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := config.Default()
	s.Author = "Sam"
	s.ManifestPath = "custom.yaml"
	if err := s.Save(root); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, err := config.Load(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if back.Author != "Sam" || back.ManifestPath != "custom.yaml" {
		t.Errorf("round trip = %+v", back)
	}
}

func TestWantsFile(t *testing.T) {
	s := config.Default()
	cases := map[string]bool{
		"module.psm1":     true,
		"Script.PS1":      true,
		"readme.md":       false,
		"noext":           false,
		"dir/module.psm1": true,
		"module.psm1.bak": false,
	}
	for path, want := range cases {
		if got := s.WantsFile(path); got != want {
			t.Errorf("WantsFile(%q) = %v, want %v", path, got, want)
		}
	}

	var nilSettings *config.Settings
	if nilSettings.WantsFile("module.psm1") {
		t.Error("nil settings should want nothing")
	}
}
