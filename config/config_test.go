package config

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	manager := NewManagerFs(afero.NewMemMapFs(), "data/settings.json")

	settings, err := manager.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defaults := Defaults()
	if settings.ListenAddr != defaults.ListenAddr {
		t.Errorf("ListenAddr = %q", settings.ListenAddr)
	}
	if len(settings.TransportPrefixes) != 4 {
		t.Errorf("expected 4 default transports, got %v", settings.TransportPrefixes)
	}
	if settings.TransportPrefixes[len(settings.TransportPrefixes)-1] != "" {
		t.Error("last default transport should be the direct connection")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	manager := NewManagerFs(fs, "data/settings.json")

	settings := Defaults()
	settings.ListenAddr = ":9999"
	settings.MaxRetries = 5
	settings.TrendingTitles = []string{"Only Show"}
	if err := manager.Save(settings); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ListenAddr != ":9999" || loaded.MaxRetries != 5 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.TrendingTitles) != 1 || loaded.TrendingTitles[0] != "Only Show" {
		t.Errorf("TrendingTitles = %v", loaded.TrendingTitles)
	}
}

func TestLoadBackfillsPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	partial := []byte(`{"listenAddr": ":7000", "maxRetries": 0}`)
	if err := afero.WriteFile(fs, "settings.json", partial, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	settings, err := NewManagerFs(fs, "settings.json").Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.ListenAddr != ":7000" {
		t.Errorf("explicit field overridden: %q", settings.ListenAddr)
	}
	defaults := Defaults()
	if settings.MaxRetries != defaults.MaxRetries {
		t.Errorf("MaxRetries not backfilled: %d", settings.MaxRetries)
	}
	if settings.SourceURL != defaults.SourceURL {
		t.Errorf("SourceURL not backfilled: %q", settings.SourceURL)
	}
	if len(settings.TwoCourTitles) == 0 {
		t.Error("TwoCourTitles not backfilled")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "settings.json", []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := NewManagerFs(fs, "settings.json").Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
