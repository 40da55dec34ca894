package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/landscape/internal/scene"
)

func TestLoadScene(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(scenePath, []byte(`{"width":32,"height":16,"sky_colors":[{"color":"#102030","pos":0}],"stars":{"count":0,"sky_height_ratio":0}}`), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		path      string
		preset    string
		wantWidth int
		wantErr   bool
	}{
		{name: "default", wantWidth: 1920},
		{name: "file", path: scenePath, wantWidth: 32},
		{name: "preset", preset: "alpine", wantWidth: 1600},
		{name: "unknown preset", preset: "mars", wantErr: true},
		{name: "missing file", path: filepath.Join(dir, "nope.json"), wantErr: true},
		{name: "both", path: scenePath, preset: "dusk", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadScene(tt.path, tt.preset)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Width != tt.wantWidth {
				t.Errorf("width = %d, want %d", cfg.Width, tt.wantWidth)
			}
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	width, height := 640, 360
	seed := int64(42)

	base := scene.Default()
	cfg, err := applyOverrides(base, sceneOverrides{Width: &width, Height: &height, Seed: &seed, Noise: "Simplex"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Width != 640 || cfg.Height != 360 {
		t.Errorf("size = %dx%d, want 640x360", cfg.Width, cfg.Height)
	}
	if cfg.Seed != 42 {
		t.Errorf("seed = %d, want 42", cfg.Seed)
	}
	if cfg.Noise != "simplex" {
		t.Errorf("noise = %q, want simplex", cfg.Noise)
	}
	if base.Width != 1920 {
		t.Errorf("base scene was modified")
	}

	unchanged, err := applyOverrides(base, sceneOverrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unchanged.Width != base.Width || unchanged.Seed != base.Seed || unchanged.Noise != base.Noise {
		t.Errorf("empty overrides changed the scene")
	}

	if _, err := applyOverrides(base, sceneOverrides{Noise: "worley"}); err == nil {
		t.Errorf("expected error for unknown noise backend")
	}
}

func TestPresetJSON(t *testing.T) {
	data, err := presetJSON("dusk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cfg scene.SceneConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("preset output is not a scene: %v", err)
	}
	if cfg.Width != 1920 || len(cfg.MountainLayers) != 3 {
		t.Errorf("unexpected preset content: %dx%d, %d layers", cfg.Width, cfg.Height, len(cfg.MountainLayers))
	}

	if _, err := presetJSON("mars"); err == nil {
		t.Errorf("expected error for unknown preset")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", false).Info("hello", "k", 1)
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}

	buf.Reset()
	newLogger(&buf, "text", false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug logged without verbose: %q", buf.String())
	}

	newLogger(&buf, "text", true).Debug("shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("expected text debug output, got %q", buf.String())
	}
}
