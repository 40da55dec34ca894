package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/MeKo-Tech/landscape/internal/scene"
)

// SkyColorAt returns the gradient colour at vertical position t.
//
// The first pair of stops with stops[i].Pos <= t < stops[i+1].Pos brackets t.
// Above the first stop the first colour is used; past the last bracket the
// last colour is used.
func SkyColorAt(t float64, stops []scene.ColorStop) color.RGBA {
	if len(stops) == 0 {
		return color.RGBA{A: 255}
	}
	if t < stops[0].Pos {
		return stops[0].Color.RGBA()
	}

	lo, hi := stops[len(stops)-1], stops[len(stops)-1]
	for i := 0; i+1 < len(stops); i++ {
		if t >= stops[i].Pos && t < stops[i+1].Pos {
			lo, hi = stops[i], stops[i+1]
			break
		}
	}

	local := 0.0
	if span := hi.Pos - lo.Pos; span > 0 {
		local = (t - lo.Pos) / span
	}
	var c color.RGBA
	c.A = 255
	c.R = lerp8(lo.Color[0], hi.Color[0], local)
	c.G = lerp8(lo.Color[1], hi.Color[1], local)
	c.B = lerp8(lo.Color[2], hi.Color[2], local)
	return c
}

func lerp8(a, b uint8, t float64) uint8 {
	return clamp8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// RenderSky fills every scanline of dst with its gradient colour.
func RenderSky(dst draw.Image, width, height int, stops []scene.ColorStop) {
	if len(stops) == 0 || width <= 0 || height <= 0 {
		return
	}
	for y := 0; y < height; y++ {
		c := SkyColorAt(float64(y)/float64(height), stops)
		fillRow(dst, y, width, c)
	}
}

func fillRow(dst draw.Image, y, width int, c color.RGBA) {
	if img, ok := dst.(*image.RGBA); ok {
		width = min(width, img.Rect.Dx())
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		row := img.Pix[off : off+4*width]
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
		}
		return
	}
	for x := 0; x < width; x++ {
		dst.Set(x, y, c)
	}
}
