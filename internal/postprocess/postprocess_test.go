package postprocess

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestApplyNoop(t *testing.T) {
	img := checker(4, 4)
	assert.Same(t, img, Apply(img, Options{}))
	assert.Same(t, img, Apply(img, Options{Scale: 1}))
	assert.False(t, Options{Scale: 1}.Enabled())
}

func TestApplyScale(t *testing.T) {
	out := Apply(checker(40, 20), Options{Scale: 0.5})
	assert.Equal(t, image.Rect(0, 0, 20, 10), out.Bounds())

	out = Apply(checker(3, 3), Options{Scale: 0.01})
	assert.Equal(t, image.Rect(0, 0, 1, 1), out.Bounds())
}

func TestApplySoften(t *testing.T) {
	img := checker(16, 16)
	out := Apply(img, Options{Soften: 1.5})

	assert.Equal(t, img.Bounds(), out.Bounds())
	c := out.RGBAAt(8, 8)
	assert.Greater(t, c.R, uint8(40))
	assert.Less(t, c.R, uint8(215))
	assert.Equal(t, uint8(255), img.RGBAAt(8, 8).R, "source untouched")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Options{}.Validate())
	assert.NoError(t, Options{Scale: 0.5, Soften: 1.2}.Validate())

	for _, bad := range []Options{
		{Scale: -1},
		{Scale: math.NaN()},
		{Scale: math.Inf(1)},
		{Soften: -0.5},
		{Soften: float32(math.NaN())},
	} {
		assert.ErrorIs(t, bad.Validate(), ErrInvalidOptions, "%+v", bad)
	}
}

func TestOutputSize(t *testing.T) {
	w, h := Options{}.OutputSize(100, 50)
	assert.Equal(t, [2]int{100, 50}, [2]int{w, h})

	w, h = Options{Scale: 0.5}.OutputSize(101, 50)
	assert.Equal(t, [2]int{51, 25}, [2]int{w, h})

	w, h = Options{Scale: 50}.OutputSize(8192, 10)
	assert.Equal(t, [2]int{409600, 500}, [2]int{w, h})

	w, _ = Options{Scale: 1e300}.OutputSize(8192, 10)
	assert.Equal(t, math.MaxInt32, w)

	w, h = Options{Scale: 0.001}.OutputSize(10, 10)
	assert.Equal(t, [2]int{1, 1}, [2]int{w, h})
}
