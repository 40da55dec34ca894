// Package noise provides seedable coherent-noise sources for silhouette
// generation and the fractal (fBm) summation built on top of them.
package noise

import (
	"fmt"
	"math"
	"slices"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

const (
	BackendPerlin  = "perlin"
	BackendSimplex = "simplex"
)

// Source is a continuous, deterministic 2D noise function with output
// roughly in [-1,1].
type Source interface {
	Noise2D(x, y float64) float64
}

// Func adapts a plain function to Source.
type Func func(x, y float64) float64

func (f Func) Noise2D(x, y float64) float64 { return f(x, y) }

// Backends lists the names accepted by New.
func Backends() []string {
	return []string{BackendPerlin, BackendSimplex}
}

// IsBackend reports whether name is a known backend.
func IsBackend(name string) bool {
	return slices.Contains(Backends(), name)
}

// New creates the named noise source.
func New(backend string, seed int64) (Source, error) {
	switch backend {
	case BackendPerlin, "":
		return NewPerlin(seed), nil
	case BackendSimplex:
		return NewSimplex(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise backend %q", backend)
	}
}

type perlinSource struct {
	p *perlin.Perlin
}

// NewPerlin returns single-octave Perlin noise. Octaves are summed by FBM,
// not by the generator.
func NewPerlin(seed int64) Source {
	return &perlinSource{p: perlin.NewPerlin(2.0, 2.0, 1, seed)}
}

func (s *perlinSource) Noise2D(x, y float64) float64 {
	return s.p.Noise2D(x, y)
}

type simplexSource struct {
	n opensimplex.Noise
}

// NewSimplex returns OpenSimplex noise in [-1,1].
func NewSimplex(seed int64) Source {
	return &simplexSource{n: opensimplex.New(seed)}
}

func (s *simplexSource) Noise2D(x, y float64) float64 {
	return s.n.Eval2(x, y)
}

// FBM sums octaves of src: frequency starts at 1 and grows by lacunarity,
// amplitude starts at 1 and decays by persistence. The sum is not normalized.
func FBM(src Source, x, y float64, octaves int, persistence, lacunarity float64) float64 {
	var (
		sum       float64
		frequency = 1.0
		amplitude = 1.0
	)
	for i := 0; i < octaves; i++ {
		sum += src.Noise2D(x*frequency, y*frequency) * amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return sum
}

// LayerSeed derives the noise seed for the layer at index. Integral seeds are
// used as-is, fractional ones by their bit pattern so 12.5 and 12.75 differ.
// Layers without a seed fall back to sceneSeed + (index+1)*100.
func LayerSeed(layerSeed *float64, sceneSeed int64, index int) int64 {
	if layerSeed == nil {
		return sceneSeed + int64(index+1)*100
	}
	s := *layerSeed
	if s == math.Trunc(s) && math.Abs(s) < 1<<62 {
		return int64(s)
	}
	return int64(math.Float64bits(s))
}
