package scene

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/landscape/internal/noise"
)

// Default returns the built-in dusk scene: a five-stop purple-to-orange sky,
// a low sun glow, 500 stars in the upper half and three ridges.
func Default() SceneConfig {
	return SceneConfig{
		Width:  1920,
		Height: 1080,
		SkyColors: []ColorStop{
			{Color: RGB{76, 42, 79}, Pos: 0.0},
			{Color: RGB{125, 38, 97}, Pos: 0.2},
			{Color: RGB{216, 69, 114}, Pos: 0.45},
			{Color: RGB{245, 126, 68}, Pos: 0.65},
			{Color: RGB{249, 158, 81}, Pos: 0.8},
		},
		SunGlow: &SunGlow{
			CenterYRatio: 0.7,
			Strength:     20,
			RadiusYRatio: 0.25,
			RadiusXRatio: 0.5,
			Color:        [3]float64{1.0, 0.5, 0.2},
		},
		Stars: StarConfig{Count: 500, SkyHeightRatio: 0.5},
		MountainLayers: []MountainLayer{
			{
				BaseHeightRatio: 0.55, Amplitude: 120, Color: RGB{56, 51, 68},
				Octaves: 6, Persistence: 0.55, Lacunarity: 2.2,
				NoiseScaleX: 0.002, NoiseScaleY: 0.8, Seed: Float(100),
			},
			{
				BaseHeightRatio: 0.62, Amplitude: 150, Color: RGB{51, 48, 62},
				Octaves: 7, Persistence: 0.5, Lacunarity: 2.1,
				NoiseScaleX: 0.0025, NoiseScaleY: 1.0, Seed: Float(200),
			},
			{
				BaseHeightRatio: 0.75, Amplitude: 180, Color: RGB{29, 37, 43},
				Octaves: 8, Persistence: 0.45, Lacunarity: 2.0,
				NoiseScaleX: 0.003, NoiseScaleY: 1.2, Seed: Float(300),
			},
		},
		Noise: noise.BackendPerlin,
	}
}

// Variation derives the i-th variation of cfg: the scene seed moves by i and
// explicit layer seeds move by i*1000 so every ridge changes shape.
// Variation 0 is cfg itself.
func Variation(cfg SceneConfig, i int) SceneConfig {
	out := cfg.Clone()
	if i == 0 {
		return out
	}
	out.Seed += int64(i)
	for j := range out.MountainLayers {
		if s := out.MountainLayers[j].Seed; s != nil {
			*s += float64(i) * 1000
		}
	}
	return out
}

// Hash returns a stable hex digest of the normalized config. extra is mixed
// in so callers can key on render options as well.
func Hash(cfg SceneConfig, extra string) (string, error) {
	n, err := Normalize(cfg)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("failed to encode scene: %w", err)
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(extra))
	return hex.EncodeToString(h.Sum(nil)), nil
}
