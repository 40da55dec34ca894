package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/landscape/internal/encode"
	"github.com/MeKo-Tech/landscape/internal/pipeline"
	"github.com/MeKo-Tech/landscape/internal/postprocess"
	"github.com/MeKo-Tech/landscape/internal/scene"
)

// DefaultMaxBodyBytes bounds POST /generate request bodies.
const DefaultMaxBodyBytes = 1 << 20

type LandscapesConfig struct {
	// Format is used when a request has no ?format parameter.
	Format                   string
	PNGCompression           string
	CacheControl             string
	Post                     postprocess.Options
	MaxConcurrentGenerations int
	GenerationTimeout        time.Duration
	MaxBodyBytes             int64
	// Store caches renders by scene hash; nil disables caching.
	Store pipeline.Store
}

type Landscapes struct {
	logger *slog.Logger
	sem    chan struct{}
	locks  keyLocks
	gens   sync.Map
	cfg    LandscapesConfig

	activeRenders  atomic.Int32
	queuedRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	cacheHits      atomic.Int64
	currentRenders sync.Map // map[string]time.Time - render key -> start time
}

// Status is the JSON body of the status endpoints.
type Status struct {
	ActiveRenders  int      `json:"active_renders"`
	QueuedRenders  int      `json:"queued_renders"`
	TotalRendered  int64    `json:"total_rendered"`
	TotalFailed    int64    `json:"total_failed"`
	CacheHits      int64    `json:"cache_hits"`
	MaxConcurrent  int      `json:"max_concurrent"`
	CurrentRenders []string `json:"current_renders"`
}

func NewLandscapes(cfg LandscapesConfig, logger *slog.Logger) (*Landscapes, error) {
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 2 * time.Minute
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	l := &Landscapes{
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentGenerations),
	}

	// Fail at startup on bad format or compression settings.
	if _, err := l.getGenerator(cfg.Format); err != nil {
		return nil, err
	}
	return l, nil
}

// Status returns the current render counters.
func (l *Landscapes) Status() Status {
	current := []string{}
	l.currentRenders.Range(func(key, _ any) bool {
		current = append(current, key.(string))
		return true
	})

	return Status{
		ActiveRenders:  int(l.activeRenders.Load()),
		QueuedRenders:  int(l.queuedRenders.Load()),
		TotalRendered:  l.totalRendered.Load(),
		TotalFailed:    l.totalFailed.Load(),
		CacheHits:      l.cacheHits.Load(),
		MaxConcurrent:  l.cfg.MaxConcurrentGenerations,
		CurrentRenders: current,
	}
}

// StatusHandler returns an HTTP handler for the status endpoint (JSON).
func (l *Landscapes) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(l.Status()); err != nil {
			l.log().Error("failed to encode status", "error", err)
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
			return
		}
	})
}

// StatusStreamHandler pushes the status as Server-Sent Events every 250ms.
func (l *Landscapes) StatusStreamHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()

		l.sendStatusEvent(w, flusher)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				l.sendStatusEvent(w, flusher)
			}
		}
	})
}

func (l *Landscapes) sendStatusEvent(w io.Writer, flusher http.Flusher) {
	data, err := json.Marshal(l.Status())
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// GenerateHandler serves POST and OPTIONS /generate. Routing by method is
// left to the mux.
func (l *Landscapes) GenerateHandler() http.Handler {
	return http.HandlerFunc(l.serveGenerate)
}

func (l *Landscapes) serveGenerate(w http.ResponseWriter, r *http.Request) {
	// Browser front-ends post scenes from other origins.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	gen, err := l.getGenerator(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cfg scene.SceneConfig
	body := http.MaxBytesReader(w, r.Body, l.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&cfg); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("invalid scene JSON: %v", err), http.StatusBadRequest)
		return
	}

	key, err := gen.Key(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Identical concurrent requests render once; the rest hit the store.
	release, err := l.locks.acquire(r.Context(), key)
	if err != nil {
		http.Error(w, "request cancelled while waiting for an identical render", http.StatusServiceUnavailable)
		return
	}
	defer release()

	l.queuedRenders.Add(1)
	select {
	case l.sem <- struct{}{}:
		l.queuedRenders.Add(-1)
		defer func() { <-l.sem }()
	case <-r.Context().Done():
		l.queuedRenders.Add(-1)
		http.Error(w, "request cancelled while waiting for a render slot", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), l.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	l.activeRenders.Add(1)
	l.currentRenders.Store(key, start)

	res, err := gen.Encode(ctx, cfg)

	l.activeRenders.Add(-1)
	l.currentRenders.Delete(key)

	if err != nil {
		l.totalFailed.Add(1)
		switch {
		case errors.Is(err, scene.ErrInvalidConfig):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			l.log().Warn("render did not finish", "key", key, "error", err)
			http.Error(w, "render cancelled", http.StatusServiceUnavailable)
		default:
			l.log().Error("failed to generate landscape", "key", key, "error", err)
			http.Error(w, fmt.Sprintf("failed to generate landscape: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if res.Cached {
		l.cacheHits.Add(1)
	} else {
		l.totalRendered.Add(1)
		l.log().Info("landscape generated", "key", key, "width", res.Width, "height", res.Height, "format", gen.Format(), "ms", time.Since(start).Milliseconds())
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("Cache-Control", l.cfg.CacheControl)
	w.Header().Set("X-Landscape-Key", key)
	if l.cfg.Store != nil {
		if res.Cached {
			w.Header().Set("X-Landscape-Cache", "hit")
		} else {
			w.Header().Set("X-Landscape-Cache", "miss")
		}
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		l.log().Error("failed to write response", "error", err)
	}
}

func (l *Landscapes) getGenerator(format string) (*pipeline.Generator, error) {
	if format == "" {
		format = l.cfg.Format
	}
	f, err := encode.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if v, ok := l.gens.Load(f); ok {
		return v.(*pipeline.Generator), nil
	}

	g, err := pipeline.NewGenerator(pipeline.Options{
		Format:         f,
		PNGCompression: l.cfg.PNGCompression,
		Post:           l.cfg.Post,
		Store:          l.cfg.Store,
	}, l.logger)
	if err != nil {
		return nil, err
	}

	actual, _ := l.gens.LoadOrStore(f, g)
	return actual.(*pipeline.Generator), nil
}

func (l *Landscapes) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}
