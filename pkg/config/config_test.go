package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "composer.toml")

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file was not created: %v", err)
	}

	want := Default()
	if *s != want {
		t.Errorf("first load = %+v, want defaults", *s)
	}
	if s.PresentationCodePattern != `(\w+-)([\w-]+)` {
		t.Errorf("presentation pattern = %q", s.PresentationCodePattern)
	}
	if s.AdaptiveResizeWidth != 1500 || s.ImageResolution != 72 {
		t.Errorf("resize/resolution defaults = %d/%d", s.AdaptiveResizeWidth, s.ImageResolution)
	}
}

func TestLoadFromRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composer.toml")

	s := Default()
	s.BucketName = "catalog-renders"
	s.AdaptiveResizeWidth = 2000
	s.AdaptiveResizeHeight = 0
	s.ForceZoomAR = true
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if *got != s {
		t.Errorf("round trip = %+v, want %+v", *got, s)
	}
}

func TestLoadFromKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composer.toml")
	partial := "bucket_name = \"catalog-renders\"\nzoom_ar_x = 21\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("write partial file: %v", err)
	}

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.BucketName != "catalog-renders" || s.ZoomARX != 21 {
		t.Errorf("overridden keys = %q/%d", s.BucketName, s.ZoomARX)
	}
	if s.ZoomARY != 9 || s.NumThreads != 5 {
		t.Errorf("absent keys lost their defaults: %+v", s)
	}
}

func TestPathHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)

	path, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if path != filepath.Join(dir, "composer.toml") {
		t.Errorf("Path = %q", path)
	}
}
