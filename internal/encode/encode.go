// Package encode turns rendered canvases into PNG or WebP bytes.
package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// ParseFormat accepts "png" or "webp" (case-insensitive). Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want png or webp)", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == WebP {
		return "image/webp"
	}
	return "image/png"
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	if f == WebP {
		return ".webp"
	}
	return ".png"
}

// ParsePNGCompression maps default|speed|best|none to a png compression level.
func ParsePNGCompression(s string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed", "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("unknown png compression %q (want default, speed, best or none)", s)
	}
}

// Encoder writes images in one format.
type Encoder struct {
	format Format
	png    png.Encoder
}

// New creates an encoder. compression only applies to PNG.
func New(format Format, compression png.CompressionLevel) *Encoder {
	return &Encoder{
		format: format,
		png:    png.Encoder{CompressionLevel: compression},
	}
}

func (e *Encoder) Format() Format { return e.format }

// Encode writes img to w.
func (e *Encoder) Encode(w io.Writer, img image.Image) error {
	switch e.format {
	case WebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("failed to encode webp: %w", err)
		}
	default:
		if err := e.png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
	}
	return nil
}

// Bytes encodes img into memory.
func (e *Encoder) Bytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
