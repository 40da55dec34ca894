package render

import (
	"image"
	"image/draw"

	"github.com/paulmach/orb"
	"golang.org/x/image/vector"

	"github.com/MeKo-Tech/landscape/internal/noise"
	"github.com/MeKo-Tech/landscape/internal/scene"
)

// Silhouette returns the ridge height (a y coordinate, growing downwards) for
// every column in [0,width). Noise is sampled along y=0 only, so each layer is
// a 1D profile.
func Silhouette(width, height int, layer scene.MountainLayer, src noise.Source) []float64 {
	base := float64(height) * layer.BaseHeightRatio
	heights := make([]float64, width)
	for x := range heights {
		n := noise.FBM(src, float64(x)*layer.NoiseScaleX, 0, layer.Octaves, layer.Persistence, layer.Lacunarity)
		heights[x] = base + n*layer.Amplitude*layer.NoiseScaleY
	}
	return heights
}

// SilhouetteRing builds the closed fill polygon: bottom-left, one vertex per
// column, bottom-right. Heights are clamped to the canvas.
func SilhouetteRing(width, height int, heights []float64) orb.Ring {
	h := float64(height)
	ring := make(orb.Ring, 0, len(heights)+3)
	ring = append(ring, orb.Point{0, h})
	for x, y := range heights {
		ring = append(ring, orb.Point{float64(x), min(max(y, 0), h)})
	}
	ring = append(ring, orb.Point{float64(width), h})
	return append(ring, orb.Point{0, h})
}

// RenderMountainLayer fills the layer's silhouette with its colour. Pixels
// fully inside the polygon take the layer colour exactly; edge pixels are
// antialiased over whatever was painted before.
func RenderMountainLayer(dst draw.Image, width, height int, layer scene.MountainLayer, src noise.Source) {
	if width <= 0 || height <= 0 {
		return
	}
	ring := SilhouetteRing(width, height, Silhouette(width, height, layer, src))
	fillRing(dst, width, height, ring, layer.Color)
}

func fillRing(dst draw.Image, width, height int, ring orb.Ring, c scene.RGB) {
	if len(ring) < 3 {
		return
	}
	ras := vector.NewRasterizer(width, height)
	ras.MoveTo(float32(ring[0][0]), float32(ring[0][1]))
	for _, pt := range ring[1:] {
		ras.LineTo(float32(pt[0]), float32(pt[1]))
	}
	ras.ClosePath()

	ras.Draw(dst, image.Rect(0, 0, width, height), image.NewUniform(c.RGBA()), image.Point{})
}
