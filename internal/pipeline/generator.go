package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/landscape/internal/encode"
	"github.com/MeKo-Tech/landscape/internal/gallery"
	"github.com/MeKo-Tech/landscape/internal/postprocess"
	"github.com/MeKo-Tech/landscape/internal/render"
	"github.com/MeKo-Tech/landscape/internal/scene"
)

// Stage names passed to StageHook.
const (
	StageSky       = render.StageSky
	StageSunGlow   = render.StageSunGlow
	StageStars     = render.StageStars
	StageMountains = render.StageMountains
	StagePost      = "postprocess"
)

// Store caches encoded renders. *gallery.Store implements it.
type Store interface {
	Get(ctx context.Context, key string) (gallery.Entry, error)
	Put(ctx context.Context, e gallery.Entry) error
}

// StageHook observes the canvas after each stage, postprocessing included.
type StageHook = render.StageHook

// Options configures a Generator.
type Options struct {
	Format         encode.Format
	PNGCompression string
	Post           postprocess.Options
	// Store is optional; when set, Encode serves repeated scenes from it.
	Store     Store
	StageHook StageHook
}

// Result is an encoded render.
type Result struct {
	Key         string
	ContentType string
	Data        []byte
	Width       int
	Height      int
	Cached      bool
}

// Generator renders scenes into encoded images.
type Generator struct {
	opts    Options
	encoder *encode.Encoder
	logger  *slog.Logger
}

// NewGenerator validates the options and prepares an encoder.
func NewGenerator(opts Options, logger *slog.Logger) (*Generator, error) {
	format, err := encode.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format

	level, err := encode.ParsePNGCompression(opts.PNGCompression)
	if err != nil {
		return nil, err
	}
	if err := opts.Post.Validate(); err != nil {
		return nil, err
	}

	return &Generator{
		opts:    opts,
		encoder: encode.New(format, level),
		logger:  logger,
	}, nil
}

// Format returns the output format.
func (g *Generator) Format() encode.Format { return g.opts.Format }

// Key returns the cache key for cfg rendered with this generator's options.
func (g *Generator) Key(cfg scene.SceneConfig) (string, error) {
	variant := fmt.Sprintf("format=%s;png=%s;scale=%g;soften=%g",
		g.opts.Format, g.opts.PNGCompression, g.opts.Post.Scale, g.opts.Post.Soften)
	return scene.Hash(cfg, variant)
}

// Render normalizes cfg and paints every stage onto a fresh canvas. The
// context is checked between stages; a cancelled render returns no image.
func (g *Generator) Render(ctx context.Context, cfg scene.SceneConfig) (*image.RGBA, error) {
	n, err := scene.Normalize(cfg)
	if err != nil {
		return nil, err
	}

	if ow, oh := g.opts.Post.OutputSize(n.Width, n.Height); ow > scene.MaxDimension || oh > scene.MaxDimension {
		return nil, fmt.Errorf("%w: scaled output %dx%d exceeds %d", scene.ErrInvalidConfig, ow, oh, scene.MaxDimension)
	}

	g.log().Debug("Rendering scene", "width", n.Width, "height", n.Height, "layers", len(n.MountainLayers), "noise", n.Noise)
	canvas, err := render.Compose(ctx, n, g.opts.StageHook)
	if err != nil {
		return nil, err
	}

	if g.opts.Post.Enabled() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("render cancelled before %s: %w", StagePost, err)
		}
		canvas = postprocess.Apply(canvas, g.opts.Post)
		g.hook(StagePost, canvas)
	}

	return canvas, nil
}

// Encode renders cfg and encodes it. With a Store configured, a stored render
// for the same key is returned instead and fresh renders are stored.
func (g *Generator) Encode(ctx context.Context, cfg scene.SceneConfig) (*Result, error) {
	key, err := g.Key(cfg)
	if err != nil {
		return nil, err
	}

	if g.opts.Store != nil {
		entry, err := g.opts.Store.Get(ctx, key)
		switch {
		case err == nil:
			g.log().Debug("Serving stored render", "key", key)
			return &Result{
				Key:         key,
				ContentType: g.opts.Format.ContentType(),
				Data:        entry.Data,
				Width:       entry.Width,
				Height:      entry.Height,
				Cached:      true,
			}, nil
		case !errors.Is(err, gallery.ErrNotFound):
			g.log().Warn("Gallery lookup failed; rendering", "key", key, "error", err)
		}
	}

	img, err := g.Render(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render cancelled before encoding: %w", err)
	}

	data, err := g.encoder.Bytes(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode render: %w", err)
	}

	b := img.Bounds()
	res := &Result{
		Key:         key,
		ContentType: g.opts.Format.ContentType(),
		Data:        data,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}

	if g.opts.Store != nil {
		g.store(ctx, cfg, res)
	}
	return res, nil
}

func (g *Generator) store(ctx context.Context, cfg scene.SceneConfig, res *Result) {
	n, err := scene.Normalize(cfg)
	if err != nil {
		return
	}
	config, err := json.Marshal(n)
	if err != nil {
		g.log().Warn("Failed to encode scene for gallery", "key", res.Key, "error", err)
		return
	}
	err = g.opts.Store.Put(ctx, gallery.Entry{
		Key:    res.Key,
		Format: string(g.opts.Format),
		Width:  res.Width,
		Height: res.Height,
		Seed:   n.Seed,
		Config: config,
		Data:   res.Data,
	})
	if err != nil {
		g.log().Warn("Failed to store render", "key", res.Key, "error", err)
	}
}

// Generate renders cfg and writes it to outPath. An existing file is kept
// unless force is set.
func (g *Generator) Generate(ctx context.Context, cfg scene.SceneConfig, outPath string, force bool) (string, error) {
	if outPath == "" {
		return "", fmt.Errorf("output path is empty")
	}
	if !force {
		if _, err := os.Stat(outPath); err == nil {
			g.log().Info("Render already exists; skipping", "path", outPath)
			return outPath, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	res, err := g.Encode(ctx, cfg)
	if err != nil {
		return "", err
	}

	g.log().Info("Writing render", "path", outPath, "bytes", len(res.Data), "cached", res.Cached)
	if err := os.WriteFile(outPath, res.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write render: %w", err)
	}
	return outPath, nil
}

func (g *Generator) hook(stage string, img image.Image) {
	if g.opts.StageHook != nil {
		g.opts.StageHook(stage, img)
	}
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
