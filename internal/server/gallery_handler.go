package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/landscape/internal/encode"
	"github.com/MeKo-Tech/landscape/internal/gallery"
)

// GalleryReader is the read side of the gallery store.
type GalleryReader interface {
	Get(ctx context.Context, key string) (gallery.Entry, error)
	List(ctx context.Context) ([]gallery.Entry, error)
}

// GalleryHandler serves stored renders.
type GalleryHandler struct {
	store        GalleryReader
	logger       *slog.Logger
	cacheControl string
}

// NewGalleryHandler creates a handler over store.
func NewGalleryHandler(store GalleryReader, cacheControl string, logger *slog.Logger) *GalleryHandler {
	if cacheControl == "" {
		cacheControl = "public, max-age=86400, immutable"
	}
	return &GalleryHandler{store: store, logger: logger, cacheControl: cacheControl}
}

type galleryItem struct {
	Key       string          `json:"key"`
	Format    string          `json:"format"`
	URL       string          `json:"url"`
	CreatedAt time.Time       `json:"created_at"`
	Config    json.RawMessage `json:"config,omitempty"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Seed      int64           `json:"seed"`
}

// ListHandler serves GET /gallery as JSON.
func (h *GalleryHandler) ListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		entries, err := h.store.List(r.Context())
		if err != nil {
			h.log().Error("Failed to list renders", "error", err)
			http.Error(w, "failed to list renders", http.StatusInternalServerError)
			return
		}

		items := make([]galleryItem, 0, len(entries))
		for _, e := range entries {
			item := galleryItem{
				Key:       e.Key,
				Format:    e.Format,
				URL:       "/gallery/" + e.Key,
				CreatedAt: e.CreatedAt,
				Width:     e.Width,
				Height:    e.Height,
				Seed:      e.Seed,
			}
			if json.Valid(e.Config) {
				item.Config = e.Config
			}
			items = append(items, item)
		}
		if err := json.NewEncoder(w).Encode(items); err != nil {
			h.log().Error("Failed to write response", "error", err)
		}
	}
}

// RenderHandler serves GET /gallery/{key}.
func (h *GalleryHandler) RenderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		key := r.PathValue("key")
		entry, err := h.store.Get(r.Context(), key)
		if errors.Is(err, gallery.ErrNotFound) {
			http.Error(w, "render not found", http.StatusNotFound)
			return
		}
		if err != nil {
			h.log().Error("Failed to read render", "key", key, "error", err)
			http.Error(w, "failed to read render", http.StatusInternalServerError)
			return
		}

		format, err := encode.ParseFormat(entry.Format)
		if err != nil {
			format = encode.PNG
		}
		w.Header().Set("Cache-Control", h.cacheControl)
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Length", strconv.Itoa(len(entry.Data)))
		if _, err := w.Write(entry.Data); err != nil {
			h.log().Error("Failed to write response", "error", err)
		}
	}
}

func (h *GalleryHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
