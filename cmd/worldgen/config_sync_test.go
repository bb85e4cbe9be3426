package main

import (
	"encoding/base64"
	"path/filepath"
	"testing"

	"tileworld/internal/config"
	"tileworld/internal/world"
)

func TestWriteConfigFromEnvJSON(t *testing.T) {
	t.Setenv(envConfigYAMLB64, "")
	t.Setenv(envConfigJSON, `{"world":{"seed":99},"canopy":{"mode":"props"}}`)

	path := filepath.Join(t.TempDir(), "nested", "world.json")
	wrote, err := writeConfigFromEnv(path)
	if err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	if !wrote {
		t.Fatalf("expected config to be written")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.World.Seed != 99 || cfg.Canopy.Mode != config.CanopyProps {
		t.Fatalf("payload not applied: seed %d mode %q", cfg.World.Seed, cfg.Canopy.Mode)
	}
	if cfg.World.ChunkSize != config.Default().World.ChunkSize {
		t.Fatalf("missing fields should keep defaults, got chunk size %d", cfg.World.ChunkSize)
	}
}

func TestWriteConfigFromEnvYAML(t *testing.T) {
	doc := "world:\n  seed: 7\nstreaming:\n  view_radius: 3\n"
	t.Setenv(envConfigJSON, "")
	t.Setenv(envConfigYAMLB64, base64.StdEncoding.EncodeToString([]byte(doc)))

	path := filepath.Join(t.TempDir(), "world.json")
	if _, err := writeConfigFromEnv(path); err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.World.Seed != 7 || cfg.Streaming.ViewRadius != 3 {
		t.Fatalf("payload not applied: %+v %+v", cfg.World, cfg.Streaming)
	}
}

func TestWriteConfigFromEnvRejectsInvalid(t *testing.T) {
	t.Setenv(envConfigYAMLB64, "")
	t.Setenv(envConfigJSON, `{"world":{"chunkSize":-1}}`)
	if _, err := writeConfigFromEnv(filepath.Join(t.TempDir(), "world.json")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestWriteConfigFromEnvNoPayload(t *testing.T) {
	t.Setenv(envConfigJSON, "")
	t.Setenv(envConfigYAMLB64, "")

	wrote, err := writeConfigFromEnv("")
	if err != nil {
		t.Fatalf("writeConfigFromEnv: %v", err)
	}
	if wrote {
		t.Fatalf("expected no config to be written")
	}
}

func TestParseRegion(t *testing.T) {
	b, err := parseRegion("-10, 5, 20, 4")
	if err != nil {
		t.Fatalf("parseRegion: %v", err)
	}
	want := world.Bounds{Min: world.Cell{X: -10, Y: 5}, Max: world.Cell{X: 9, Y: 8}}
	if b != want {
		t.Fatalf("got %+v want %+v", b, want)
	}
	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,0,5"} {
		if _, err := parseRegion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRenderPreviewWritesFile(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "preview.png")
	bounds := world.Bounds{Min: world.Cell{X: 0, Y: 100}, Max: world.Cell{X: 31, Y: 131}}
	if err := renderPreview(cfg, bounds, 1, path); err != nil {
		t.Fatalf("renderPreview: %v", err)
	}
}
