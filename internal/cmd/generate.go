package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/landscape/internal/encode"
	"github.com/MeKo-Tech/landscape/internal/pipeline"
	"github.com/MeKo-Tech/landscape/internal/postprocess"
	"github.com/MeKo-Tech/landscape/internal/scene"
	"github.com/MeKo-Tech/landscape/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render landscape images",
	Long: `Render a scene to an image file.

The scene comes from --scene (a JSON file), --preset (a bundled scene) or the
built-in dusk default. With --variations N the scene is rendered N times with
shifted seeds, in parallel.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	// Scene selection
	generateCmd.Flags().String("scene", "", "Scene JSON file")
	generateCmd.Flags().String("preset", "", "Bundled preset name (see 'landscape preset --list')")
	generateCmd.Flags().Int("width", 0, "Override the scene width")
	generateCmd.Flags().Int("height", 0, "Override the scene height")
	generateCmd.Flags().Int64("seed", 0, "Override the scene seed")
	generateCmd.Flags().String("noise", "", "Override the noise backend (perlin, simplex)")

	// Output
	generateCmd.Flags().StringP("output", "o", "", "Output file for a single render (default: <output-dir>/<name>.<ext>)")
	generateCmd.Flags().String("name", "landscape", "Base file name for renders")
	generateCmd.Flags().String("format", "png", "Image format (png, webp)")
	generateCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	generateCmd.Flags().Float64("scale", 0, "Resize the output by this factor (0 disables)")
	generateCmd.Flags().Float32("soften", 0, "Gaussian blur sigma applied to the output (0 disables)")
	generateCmd.Flags().Bool("force", false, "Overwrite existing files")
	generateCmd.Flags().String("gallery", "", "SQLite gallery to cache and record renders in")

	// Batch generation flags
	generateCmd.Flags().Int("variations", 1, "Number of seeded variations to render")
	generateCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	generateCmd.Flags().Bool("progress", true, "Show progress bar during batch generation")
	generateCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some variations fail")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"generate.scene", "scene"},
		{"generate.preset", "preset"},
		{"generate.noise", "noise"},
		{"generate.output", "output"},
		{"generate.name", "name"},
		{"generate.format", "format"},
		{"generate.png_compression", "png-compression"},
		{"generate.scale", "scale"},
		{"generate.soften", "soften"},
		{"generate.force", "force"},
		{"generate.gallery", "gallery"},
		{"generate.variations", "variations"},
		{"generate.workers", "workers"},
		{"generate.progress", "progress"},
		{"generate.allow_failures", "allow-failures"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, generateCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	scenePath := viper.GetString("generate.scene")
	preset := viper.GetString("generate.preset")
	output := viper.GetString("generate.output")
	name := viper.GetString("generate.name")
	outputDir := viper.GetString("output-dir")
	formatName := viper.GetString("generate.format")
	pngCompression := viper.GetString("generate.png_compression")
	post := postprocess.Options{
		Scale:  viper.GetFloat64("generate.scale"),
		Soften: float32(viper.GetFloat64("generate.soften")),
	}
	force := viper.GetBool("generate.force")
	galleryPath := viper.GetString("generate.gallery")
	variations := viper.GetInt("generate.variations")
	workers := viper.GetInt("generate.workers")
	showProgress := viper.GetBool("generate.progress")
	allowFailures := viper.GetBool("generate.allow_failures")

	if logger == nil {
		initLogging()
	}

	format, err := encode.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if variations < 1 {
		return fmt.Errorf("--variations must be at least 1, got %d", variations)
	}
	if variations > 1 && output != "" {
		return fmt.Errorf("--output names a single file; use --output-dir and --name with --variations")
	}

	cfg, err := loadScene(scenePath, preset)
	if err != nil {
		return err
	}
	cfg, err = applyOverrides(cfg, overridesFromFlags(cmd))
	if err != nil {
		return err
	}
	if _, err := scene.Normalize(cfg); err != nil {
		return err
	}

	opts := pipeline.Options{
		Format:         format,
		PNGCompression: pngCompression,
		Post:           post,
	}
	if galleryPath != "" {
		store, err := openGallery(galleryPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	}

	gen, err := pipeline.NewGenerator(opts, logger)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	if variations > 1 {
		return runBatchGenerate(gen, cfg, variations, workers, outputDir, name, format.Extension(), force, showProgress, allowFailures)
	}

	if output == "" {
		output = filepath.Join(outputDir, name+format.Extension())
	}
	return runSingleGenerate(gen, cfg, output, force)
}

func overridesFromFlags(cmd *cobra.Command) sceneOverrides {
	var o sceneOverrides
	flags := cmd.Flags()
	if flags.Changed("width") {
		v, _ := flags.GetInt("width")
		o.Width = &v
	}
	if flags.Changed("height") {
		v, _ := flags.GetInt("height")
		o.Height = &v
	}
	if flags.Changed("seed") {
		v, _ := flags.GetInt64("seed")
		o.Seed = &v
	}
	o.Noise = viper.GetString("generate.noise")
	return o
}

func runSingleGenerate(gen *pipeline.Generator, cfg scene.SceneConfig, output string, force bool) error {
	logger.Info("Starting landscape generation",
		"width", cfg.Width,
		"height", cfg.Height,
		"layers", len(cfg.MountainLayers),
		"seed", cfg.Seed,
		"format", gen.Format(),
		"output", output,
		"force", force,
	)

	ctx, cancel := signalContext()
	defer cancel()

	path, err := gen.Generate(ctx, cfg, output, force)
	if err != nil {
		return fmt.Errorf("failed to generate landscape: %w", err)
	}
	logger.Info("Landscape generated", "path", path)
	return nil
}

func runBatchGenerate(gen *pipeline.Generator, cfg scene.SceneConfig, variations, workers int, outputDir, name, ext string, force, showProgress, allowFailures bool) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tasks := worker.VariationTasks(cfg, variations, outputDir, name, ext, force)

	logger.Info("Starting batch generation",
		"variations", variations,
		"workers", workers,
		"output_dir", outputDir,
		"format", gen.Format(),
	)

	ctx, cancel := signalContext()
	defer cancel()

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Variation failed", "name", r.Task.Name, "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	if failedCount > 0 {
		if allowFailures {
			logger.Warn("Some variations failed to render, but continuing due to --allow-failures flag", "failed_count", failedCount)
			return nil
		}
		return fmt.Errorf("%d variations failed to render", failedCount)
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
