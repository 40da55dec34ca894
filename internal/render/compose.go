package render

import (
	"context"
	"fmt"
	"image"
	"math/rand"

	"github.com/MeKo-Tech/landscape/internal/noise"
	"github.com/MeKo-Tech/landscape/internal/scene"
)

// Stage names passed to a StageHook.
const (
	StageSky       = "sky"
	StageSunGlow   = "sun_glow"
	StageStars     = "stars"
	StageMountains = "mountains"
)

// StageHook observes the canvas after each stage. The image is the live
// canvas and must be copied if retained.
type StageHook func(stage string, img image.Image)

// Compose paints every stage of an already normalized scene onto a fresh
// canvas: sky, sun glow, stars, then mountain layers in list order. ctx is
// checked between stages and a cancelled render returns no image.
func Compose(ctx context.Context, cfg scene.SceneConfig, hook StageHook) (*image.RGBA, error) {
	sources := make([]noise.Source, len(cfg.MountainLayers))
	for i, l := range cfg.MountainLayers {
		src, err := noise.New(cfg.Noise, noise.LayerSeed(l.Seed, cfg.Seed, i))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", scene.ErrInvalidConfig, err)
		}
		sources[i] = src
	}

	w, h := cfg.Width, cfg.Height
	canvas := NewCanvas(w, h)

	stages := []struct {
		name string
		run  func()
	}{
		{StageSky, func() { RenderSky(canvas, w, h, cfg.SkyColors) }},
		{StageSunGlow, func() { RenderSunGlow(canvas, w, h, cfg.SkyColors, cfg.SunGlow) }},
		{StageStars, func() {
			RenderStars(canvas, w, h, cfg.Stars, rand.New(rand.NewSource(cfg.Seed)))
		}},
		{StageMountains, func() {
			for i, l := range cfg.MountainLayers {
				RenderMountainLayer(canvas, w, h, l, sources[i])
			}
		}},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render cancelled before %s: %w", stage.name, err)
		}
		stage.run()
		if hook != nil {
			hook(stage.name, canvas)
		}
	}
	return canvas, nil
}
