// Package scene defines the landscape scene configuration and its validation.
package scene

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit colour triple. It decodes from either [r,g,b] or "#rrggbb"
// and always encodes as [r,g,b].
type RGB [3]uint8

// RGBA returns the opaque colour.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
}

// Hex formats the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// ParseHex parses "#rrggbb", "rrggbb" or the short "#rgb" form.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: invalid hex colour %q", ErrInvalidConfig, s)
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

func (c *RGB) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err == nil {
		parsed, err := ParseHex(hex)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var channels []float64
	if err := json.Unmarshal(data, &channels); err != nil {
		return fmt.Errorf("%w: colour must be [r,g,b] or \"#rrggbb\"", ErrInvalidConfig)
	}
	if len(channels) != 3 {
		return fmt.Errorf("%w: colour needs 3 channels, got %d", ErrInvalidConfig, len(channels))
	}
	for i, v := range channels {
		if v < 0 || v > 255 || v != math.Trunc(v) {
			return fmt.Errorf("%w: colour channel %d out of range: %v", ErrInvalidConfig, i, v)
		}
		c[i] = uint8(v)
	}
	return nil
}

func (c RGB) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(c[0]), int(c[1]), int(c[2])})
}

// ColorStop anchors a sky colour at a vertical position in [0,1].
type ColorStop struct {
	Color RGB     `json:"color"`
	Pos   float64 `json:"pos"`
}

// StarConfig controls the star field.
type StarConfig struct {
	Count          int     `json:"count"`
	SkyHeightRatio float64 `json:"sky_height_ratio"`
}

// SunGlow is an additive elliptical glow centred horizontally on the canvas.
// Color holds per-channel multipliers applied to Strength.
type SunGlow struct {
	CenterYRatio float64    `json:"center_y_ratio"`
	Strength     float64    `json:"strength"`
	RadiusYRatio float64    `json:"radius_y_ratio"`
	RadiusXRatio float64    `json:"radius_x_ratio"`
	Color        [3]float64 `json:"color"`
}

// MountainLayer describes one silhouette. Its position in
// SceneConfig.MountainLayers decides the paint order.
type MountainLayer struct {
	BaseHeightRatio float64  `json:"base_height_ratio"`
	Amplitude       float64  `json:"amplitude"`
	Color           RGB      `json:"color"`
	Octaves         int      `json:"octaves"`
	Persistence     float64  `json:"persistence"`
	Lacunarity      float64  `json:"lacunarity"`
	NoiseScaleX     float64  `json:"noise_scale_x"`
	NoiseScaleY     float64  `json:"noise_scale_y"`
	Seed            *float64 `json:"seed,omitempty"`
}

// SceneConfig is a full generation request. Renderers read it but never
// modify it.
type SceneConfig struct {
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	SkyColors      []ColorStop     `json:"sky_colors"`
	SunGlow        *SunGlow        `json:"sun_glow,omitempty"`
	Stars          StarConfig      `json:"stars"`
	MountainLayers []MountainLayer `json:"mountain_layers"`
	// Seed drives the star field and any layer without its own seed.
	Seed int64 `json:"seed,omitempty"`
	// Noise selects the noise backend ("perlin" or "simplex").
	Noise string `json:"noise,omitempty"`
}

// Clone returns a deep copy.
func (c SceneConfig) Clone() SceneConfig {
	out := c
	if c.SkyColors != nil {
		out.SkyColors = append([]ColorStop(nil), c.SkyColors...)
	}
	if c.SunGlow != nil {
		glow := *c.SunGlow
		out.SunGlow = &glow
	}
	if c.MountainLayers != nil {
		out.MountainLayers = make([]MountainLayer, len(c.MountainLayers))
		for i, l := range c.MountainLayers {
			if l.Seed != nil {
				s := *l.Seed
				l.Seed = &s
			}
			out.MountainLayers[i] = l
		}
	}
	return out
}

// Float returns a pointer to v, for optional seeds.
func Float(v float64) *float64 { return &v }
