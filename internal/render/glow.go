package render

import (
	"image/color"
	"image/draw"
	"math"

	"github.com/MeKo-Tech/landscape/internal/scene"
)

// RenderSunGlow adds an elliptical glow centred horizontally at
// height*CenterYRatio. Inside the ellipse each channel gains
// Color[c]*Strength*(1-d)^2 where d is the normalized elliptical distance.
//
// The base colour is recomputed from the sky stops instead of being read
// back from dst, so RenderSunGlow must run directly after RenderSky.
func RenderSunGlow(dst draw.Image, width, height int, stops []scene.ColorStop, glow *scene.SunGlow) {
	if glow == nil || glow.Strength == 0 || width <= 0 || height <= 0 {
		return
	}
	rx := float64(width) * glow.RadiusXRatio
	ry := float64(height) * glow.RadiusYRatio
	if rx <= 0 || ry <= 0 {
		return
	}
	cx := float64(width) / 2
	cy := float64(height) * glow.CenterYRatio

	// Bounds are clamped before the int conversion.
	y0 := int(max(0, math.Floor(cy-ry)))
	y1 := int(min(float64(height-1), math.Ceil(cy+ry)))
	x0 := int(max(0, math.Floor(cx-rx)))
	x1 := int(min(float64(width-1), math.Ceil(cx+rx)))

	for y := y0; y <= y1; y++ {
		base := SkyColorAt(float64(y)/float64(height), stops)
		dy := (float64(y) - cy) / ry
		for x := x0; x <= x1; x++ {
			dx := (float64(x) - cx) / rx
			d2 := dx*dx + dy*dy
			if d2 >= 1 {
				continue
			}
			falloff := 1 - math.Sqrt(d2)
			falloff *= falloff
			dst.Set(x, y, color.RGBA{
				R: clamp8(float64(base.R) + glow.Color[0]*glow.Strength*falloff),
				G: clamp8(float64(base.G) + glow.Color[1]*glow.Strength*falloff),
				B: clamp8(float64(base.B) + glow.Color[2]*glow.Strength*falloff),
				A: 255,
			})
		}
	}
}
