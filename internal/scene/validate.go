package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/landscape/internal/noise"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid scene config")

const (
	MaxDimension = 8192
	MaxStars     = 1_000_000
	MaxOctaves   = 16
	MaxLayers    = 64
	// MaxGlowRatio bounds the sun glow centre and radii, as multiples of
	// the canvas size.
	MaxGlowRatio = 16
)

// Fallbacks used by Normalize for unset layer parameters.
const (
	DefaultOctaves     = 6
	DefaultPersistence = 0.5
	DefaultLacunarity  = 2.0
	DefaultNoiseScaleX = 0.0025
	DefaultNoiseScaleY = 1.0
)

// Normalize returns a defaulted copy of cfg and validates it.
// cfg itself is left untouched.
func Normalize(cfg SceneConfig) (SceneConfig, error) {
	out := cfg.Clone()
	if out.Noise == "" {
		out.Noise = noise.BackendPerlin
	}
	for i := range out.MountainLayers {
		l := &out.MountainLayers[i]
		if l.Octaves == 0 {
			l.Octaves = DefaultOctaves
		}
		if l.Persistence == 0 {
			l.Persistence = DefaultPersistence
		}
		if l.Lacunarity == 0 {
			l.Lacunarity = DefaultLacunarity
		}
		if l.NoiseScaleX == 0 {
			l.NoiseScaleX = DefaultNoiseScaleX
		}
		if l.NoiseScaleY == 0 {
			l.NoiseScaleY = DefaultNoiseScaleY
		}
	}
	if err := Validate(out); err != nil {
		return SceneConfig{}, err
	}
	return out, nil
}

// Validate checks cfg without applying defaults.
func Validate(cfg SceneConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return invalid("width/height", "must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return invalid("width/height", "must not exceed %d, got %dx%d", MaxDimension, cfg.Width, cfg.Height)
	}

	if len(cfg.SkyColors) == 0 {
		return invalid("sky_colors", "at least one colour stop is required")
	}
	prev := math.Inf(-1)
	for i, stop := range cfg.SkyColors {
		if !inUnit(stop.Pos) {
			return invalid(fmt.Sprintf("sky_colors[%d].pos", i), "must be within [0,1], got %v", stop.Pos)
		}
		if stop.Pos < prev {
			return invalid(fmt.Sprintf("sky_colors[%d].pos", i), "positions must be non-decreasing (%v after %v)", stop.Pos, prev)
		}
		prev = stop.Pos
	}

	if g := cfg.SunGlow; g != nil {
		if !(math.Abs(g.CenterYRatio) <= MaxGlowRatio) {
			return invalid("sun_glow.center_y_ratio", "must be within [-%d,%d], got %v", MaxGlowRatio, MaxGlowRatio, g.CenterYRatio)
		}
		if !finite(g.Strength) || g.Strength < 0 {
			return invalid("sun_glow.strength", "must be non-negative, got %v", g.Strength)
		}
		if !(g.RadiusXRatio >= 0 && g.RadiusXRatio <= MaxGlowRatio) {
			return invalid("sun_glow.radius_x_ratio", "must be within [0,%d], got %v", MaxGlowRatio, g.RadiusXRatio)
		}
		if !(g.RadiusYRatio >= 0 && g.RadiusYRatio <= MaxGlowRatio) {
			return invalid("sun_glow.radius_y_ratio", "must be within [0,%d], got %v", MaxGlowRatio, g.RadiusYRatio)
		}
		for i, m := range g.Color {
			if !finite(m) || m < 0 {
				return invalid(fmt.Sprintf("sun_glow.color[%d]", i), "must be a non-negative multiplier, got %v", m)
			}
		}
	}

	if cfg.Stars.Count < 0 || cfg.Stars.Count > MaxStars {
		return invalid("stars.count", "must be within [0,%d], got %d", MaxStars, cfg.Stars.Count)
	}
	if !inUnit(cfg.Stars.SkyHeightRatio) {
		return invalid("stars.sky_height_ratio", "must be within [0,1], got %v", cfg.Stars.SkyHeightRatio)
	}

	if len(cfg.MountainLayers) > MaxLayers {
		return invalid("mountain_layers", "at most %d layers, got %d", MaxLayers, len(cfg.MountainLayers))
	}
	for i, l := range cfg.MountainLayers {
		if err := validateLayer(l); err != nil {
			return fmt.Errorf("mountain_layers[%d]: %w", i, err)
		}
	}

	if cfg.Noise != "" && !noise.IsBackend(cfg.Noise) {
		return invalid("noise", "unknown backend %q (want one of %v)", cfg.Noise, noise.Backends())
	}
	return nil
}

func validateLayer(l MountainLayer) error {
	switch {
	case !inUnit(l.BaseHeightRatio):
		return invalid("base_height_ratio", "must be within [0,1], got %v", l.BaseHeightRatio)
	case !finite(l.Amplitude):
		return invalid("amplitude", "must be finite")
	case l.Octaves < 1 || l.Octaves > MaxOctaves:
		return invalid("octaves", "must be within [1,%d], got %d", MaxOctaves, l.Octaves)
	case !(l.Persistence > 0 && l.Persistence < 1):
		return invalid("persistence", "must be within (0,1), got %v", l.Persistence)
	case !(l.Lacunarity > 1) || math.IsInf(l.Lacunarity, 1):
		return invalid("lacunarity", "must be greater than 1, got %v", l.Lacunarity)
	case !(l.NoiseScaleX > 0) || math.IsInf(l.NoiseScaleX, 1):
		return invalid("noise_scale_x", "must be positive, got %v", l.NoiseScaleX)
	case !(l.NoiseScaleY > 0) || math.IsInf(l.NoiseScaleY, 1):
		return invalid("noise_scale_y", "must be positive, got %v", l.NoiseScaleY)
	case l.Seed != nil && !finite(*l.Seed):
		return invalid("seed", "must be finite")
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...))
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
