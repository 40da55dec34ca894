package render

import (
	"image/color"
	"image/draw"
	"math"

	"github.com/MeKo-Tech/landscape/internal/scene"
)

// RandomSource yields independent uniform values in [0,1). *rand.Rand
// satisfies it.
type RandomSource interface {
	Float64() float64
}

// RenderStars sets exactly stars.Count pixels in the top SkyHeightRatio of the
// canvas to random greys in [150,255]. Later stars may overwrite earlier ones.
func RenderStars(dst draw.Image, width, height int, stars scene.StarConfig, rng RandomSource) {
	if stars.Count <= 0 || stars.SkyHeightRatio <= 0 || width <= 0 || height <= 0 {
		return
	}
	skyHeight := float64(height) * stars.SkyHeightRatio

	for i := 0; i < stars.Count; i++ {
		x := rng.Float64() * float64(width)
		y := rng.Float64() * skyHeight
		b := clamp8(math.Round(150 + rng.Float64()*105))

		px := min(int(math.Floor(x)), width-1)
		py := min(int(math.Floor(y)), height-1)
		dst.Set(px, py, color.RGBA{R: b, G: b, B: b, A: 255})
	}
}
