// Package render paints the landscape stages onto a shared canvas. Each
// stage writes pixels only; none of them reads back what an earlier stage
// painted.
package render

import (
	"image"
)

// NewCanvas allocates a fully transparent RGBA canvas anchored at (0,0).
func NewCanvas(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
