// Package postprocess applies optional output filters to a finished canvas.
package postprocess

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/gift"
)

// ErrInvalidOptions is wrapped by Validate failures.
var ErrInvalidOptions = errors.New("invalid postprocess options")

// Options selects the filters. The zero value is a no-op.
type Options struct {
	// Scale resizes the output by this factor (0 or 1 leaves it unchanged).
	Scale float64
	// Soften is the Gaussian blur sigma in output pixels.
	Soften float32
}

// Enabled reports whether any filter would run.
func (o Options) Enabled() bool {
	return (o.Scale > 0 && o.Scale != 1) || o.Soften > 0
}

// Validate rejects negative or non-finite values.
func (o Options) Validate() error {
	if !(o.Scale >= 0) || math.IsInf(o.Scale, 1) {
		return fmt.Errorf("%w: scale must be a non-negative number, got %v", ErrInvalidOptions, o.Scale)
	}
	soften := float64(o.Soften)
	if !(soften >= 0) || math.IsInf(soften, 1) {
		return fmt.Errorf("%w: soften must be a non-negative number, got %v", ErrInvalidOptions, o.Soften)
	}
	return nil
}

// OutputSize is the image size Apply produces for a width x height input.
// Sizes beyond math.MaxInt32 saturate.
func (o Options) OutputSize(width, height int) (int, int) {
	if !(o.Scale > 0 && o.Scale != 1) {
		return width, height
	}
	scaled := func(v int) int {
		f := math.Round(float64(v) * o.Scale)
		return int(min(max(f, 1), math.MaxInt32))
	}
	return scaled(width), scaled(height)
}

// Filters builds the gift filter chain for the options.
func (o Options) Filters(width, height int) []gift.Filter {
	var filters []gift.Filter
	if o.Scale > 0 && o.Scale != 1 {
		w, h := o.OutputSize(width, height)
		filters = append(filters, gift.Resize(w, h, gift.LanczosResampling))
	}
	if o.Soften > 0 {
		filters = append(filters, gift.GaussianBlur(o.Soften))
	}
	return filters
}

// Apply returns a filtered copy of src, or src itself when nothing is enabled.
func Apply(src *image.RGBA, opts Options) *image.RGBA {
	if !opts.Enabled() {
		return src
	}
	b := src.Bounds()
	g := gift.New(opts.Filters(b.Dx(), b.Dy())...)
	dst := image.NewRGBA(g.Bounds(b))
	g.Draw(dst, src)
	return dst
}
