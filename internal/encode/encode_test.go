package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 16), uint8(y * 32), 90, 255})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", PNG, false},
		{"png", PNG, false},
		{"WEBP", WebP, false},
		{" webp ", WebP, false},
		{"jpeg", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, "image/webp", WebP.ContentType())
	assert.Equal(t, "image/png", PNG.ContentType())
	assert.Equal(t, ".webp", WebP.Extension())
}

func TestParsePNGCompression(t *testing.T) {
	for in, want := range map[string]png.CompressionLevel{
		"":        png.DefaultCompression,
		"default": png.DefaultCompression,
		"speed":   png.BestSpeed,
		"best":    png.BestCompression,
		"none":    png.NoCompression,
	} {
		got, err := ParsePNGCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePNGCompression("max")
	assert.Error(t, err)
}

func TestEncodePNGLossless(t *testing.T) {
	img := testImage()
	data, err := New(PNG, png.BestSpeed).Bytes(img)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			r, g, b, a := decoded.At(x, y).RGBA()
			assert.Equal(t, img.RGBAAt(x, y), color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)})
		}
	}
}

func TestEncodeWebP(t *testing.T) {
	img := testImage()
	data, err := New(WebP, png.DefaultCompression).Bytes(img)
	require.NoError(t, err)
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))

	cfg, err := nativewebp.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)
}
