package cmd

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/MeKo-Tech/landscape/internal/postprocess"
	"github.com/MeKo-Tech/landscape/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Render landscapes over HTTP",
	Long: `Serve POST /generate, which renders the posted scene JSON and returns the
image. With --gallery, renders are cached by scene hash in a SQLite file and
listed under /gallery.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent renders (default: number of CPUs)")
	serveCmd.Flags().Duration("generation-timeout", 2*time.Minute, "Timeout per render")
	serveCmd.Flags().Int64("max-body-bytes", server.DefaultMaxBodyBytes, "Maximum scene request body size")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for generated images")

	serveCmd.Flags().String("format", "png", "Default image format (png, webp); ?format= overrides per request")
	serveCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	serveCmd.Flags().Float64("scale", 0, "Resize outputs by this factor (0 disables)")
	serveCmd.Flags().Float32("soften", 0, "Gaussian blur sigma applied to outputs (0 disables)")
	serveCmd.Flags().String("gallery", "", "SQLite gallery for caching and browsing renders")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.max_concurrent_generations", "max-concurrent-generations")
	mustBind("serve.generation_timeout", "generation-timeout")
	mustBind("serve.max_body_bytes", "max-body-bytes")
	mustBind("serve.cache_control", "cache-control")

	mustBind("serve.format", "format")
	mustBind("serve.png_compression", "png-compression")
	mustBind("serve.scale", "scale")
	mustBind("serve.soften", "soften")
	mustBind("serve.gallery", "gallery")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	maxConc := viper.GetInt("serve.max_concurrent_generations")
	genTimeout := viper.GetDuration("serve.generation_timeout")
	maxBody := viper.GetInt64("serve.max_body_bytes")
	cacheControl := viper.GetString("serve.cache_control")
	format := viper.GetString("serve.format")
	pngCompression := viper.GetString("serve.png_compression")
	post := postprocess.Options{
		Scale:  viper.GetFloat64("serve.scale"),
		Soften: float32(viper.GetFloat64("serve.soften")),
	}
	galleryPath := viper.GetString("serve.gallery")

	cfg := server.LandscapesConfig{
		Format:                   format,
		PNGCompression:           pngCompression,
		CacheControl:             cacheControl,
		Post:                     post,
		MaxConcurrentGenerations: maxConc,
		GenerationTimeout:        genTimeout,
		MaxBodyBytes:             maxBody,
	}

	var galleryHandler *server.GalleryHandler
	if galleryPath != "" {
		store, err := openGallery(galleryPath)
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Store = store
		galleryHandler = server.NewGalleryHandler(store, "", logger)
	}

	landscapes, err := server.NewLandscapes(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("landscape server listening",
		"addr", addr,
		"format", format,
		"gallery", galleryPath,
		"max_concurrent_generations", maxConc,
		"generation_timeout", genTimeout,
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewMux(landscapes, galleryHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
