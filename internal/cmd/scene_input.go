package cmd

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/landscape/assets"
	"github.com/MeKo-Tech/landscape/internal/gallery"
	"github.com/MeKo-Tech/landscape/internal/noise"
	"github.com/MeKo-Tech/landscape/internal/scene"
)

// sceneOverrides holds command-line adjustments applied on top of a loaded
// scene. Nil fields leave the scene value alone.
type sceneOverrides struct {
	Width  *int
	Height *int
	Seed   *int64
	Noise  string
}

// loadScene resolves the base scene: a file wins over a preset, and with
// neither the built-in default is used.
func loadScene(path, preset string) (scene.SceneConfig, error) {
	switch {
	case path != "" && preset != "":
		return scene.SceneConfig{}, fmt.Errorf("--scene and --preset are mutually exclusive")
	case path != "":
		return scene.LoadFile(path)
	case preset != "":
		data, err := assets.Preset(preset)
		if err != nil {
			return scene.SceneConfig{}, err
		}
		return scene.Decode(data)
	default:
		return scene.Default(), nil
	}
}

func applyOverrides(cfg scene.SceneConfig, o sceneOverrides) (scene.SceneConfig, error) {
	out := cfg.Clone()
	if o.Width != nil {
		out.Width = *o.Width
	}
	if o.Height != nil {
		out.Height = *o.Height
	}
	if o.Seed != nil {
		out.Seed = *o.Seed
	}
	if o.Noise != "" {
		name := strings.ToLower(o.Noise)
		if !noise.IsBackend(name) {
			return scene.SceneConfig{}, fmt.Errorf("invalid noise %q: must be one of %s", o.Noise, strings.Join(noise.Backends(), ", "))
		}
		out.Noise = name
	}
	return out, nil
}

func openGallery(path string) (*gallery.Store, error) {
	store, err := gallery.Open(path, gallery.Metadata{
		Name:        "landscape",
		Description: "Rendered landscape scenes",
		Version:     "1.0",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery: %w", err)
	}
	return store, nil
}
