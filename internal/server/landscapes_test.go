package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/landscape/internal/gallery"
	"github.com/MeKo-Tech/landscape/internal/scene"
)

const smallScene = `{
	"width": 64, "height": 36,
	"sky_colors": [{"color": "#4c2a4f", "pos": 0}, {"color": [249, 158, 81], "pos": 0.8}],
	"stars": {"count": 20, "sky_height_ratio": 0.5},
	"mountain_layers": [
		{"base_height_ratio": 0.6, "amplitude": 6, "color": [56, 51, 68], "octaves": 3,
		 "persistence": 0.5, "lacunarity": 2, "noise_scale_x": 0.05, "noise_scale_y": 1, "seed": 100}
	]
}`

func newTestLandscapes(t *testing.T, cfg LandscapesConfig) *Landscapes {
	t.Helper()
	l, err := NewLandscapes(cfg, nil)
	require.NoError(t, err)
	return l
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerateReturnsImage(t *testing.T) {
	mux := NewMux(newTestLandscapes(t, LandscapesConfig{}), nil)

	rec := post(t, mux, "/generate", smallScene)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Len(t, rec.Header().Get("X-Landscape-Key"), 64)
	assert.Empty(t, rec.Header().Get("X-Landscape-Cache"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 36, img.Bounds().Dy())
}

func TestGenerateFormats(t *testing.T) {
	mux := NewMux(newTestLandscapes(t, LandscapesConfig{Format: "webp"}), nil)

	rec := post(t, mux, "/generate", smallScene)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))

	rec = post(t, mux, "/generate?format=png", smallScene)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = post(t, mux, "/generate?format=gif", smallScene)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRejects(t *testing.T) {
	l := newTestLandscapes(t, LandscapesConfig{MaxBodyBytes: 2048})
	mux := NewMux(l, nil)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantText string
	}{
		{"malformed json", `{"width":`, http.StatusBadRequest, "invalid scene JSON"},
		{"zero width", strings.Replace(smallScene, `"width": 64`, `"width": 0`, 1), http.StatusBadRequest, "width"},
		{"no sky", `{"width": 4, "height": 4}`, http.StatusBadRequest, "sky_colors"},
		{"bad hex", strings.Replace(smallScene, `"#4c2a4f"`, `"#xyz"`, 1), http.StatusBadRequest, "hex"},
		{"bad octaves", strings.Replace(smallScene, `"octaves": 3`, `"octaves": 40`, 1), http.StatusBadRequest, "octaves"},
		{"too large", `{"pad":"` + strings.Repeat("x", 4096) + `"}`, http.StatusRequestEntityTooLarge, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, mux, "/generate", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
		})
	}
}

func TestGenerateMethods(t *testing.T) {
	mux := NewMux(newTestLandscapes(t, LandscapesConfig{}), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/generate", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(method, "/generate", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Contains(t, rec.Header().Get("Allow"), http.MethodPost, method)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGenerateReleasesKeyLocks(t *testing.T) {
	l := newTestLandscapes(t, LandscapesConfig{MaxConcurrentGenerations: 4})
	mux := NewMux(l, nil)

	var wg sync.WaitGroup
	codes := make([]int, 40)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Pairs of requests share a seed, so some wait on the same key.
			body := strings.Replace(smallScene, `"width": 64`, fmt.Sprintf(`"seed": %d, "width": 64`, i/2), 1)
			codes[i] = post(t, mux, "/generate", body).Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}
	assert.Zero(t, l.locks.len(), "no lock outlives its requests")
	assert.Zero(t, l.Status().ActiveRenders)
}

func TestGenerateWaiterHonoursCancel(t *testing.T) {
	l := newTestLandscapes(t, LandscapesConfig{})
	gen, err := l.getGenerator("")
	require.NoError(t, err)

	var cfg scene.SceneConfig
	require.NoError(t, json.Unmarshal([]byte(smallScene), &cfg))
	key, err := gen.Key(cfg)
	require.NoError(t, err)

	// Another request is rendering the same scene.
	release, err := l.locks.acquire(context.Background(), key)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(smallScene)).WithContext(ctx)
	rec := httptest.NewRecorder()
	l.GenerateHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 1, l.locks.len(), "only the holder remains")
}

func TestGenerateBusy(t *testing.T) {
	l := newTestLandscapes(t, LandscapesConfig{MaxConcurrentGenerations: 1})
	l.sem <- struct{}{} // occupy the only slot
	defer func() { <-l.sem }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(smallScene)).WithContext(ctx)
	rec := httptest.NewRecorder()

	l.GenerateHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, l.Status().QueuedRenders)
}

func TestGenerateWithGallery(t *testing.T) {
	store, err := gallery.Open(filepath.Join(t.TempDir(), "gallery.db"), gallery.Metadata{Name: "test"})
	require.NoError(t, err)
	defer store.Close()

	l := newTestLandscapes(t, LandscapesConfig{Store: store})
	mux := NewMux(l, NewGalleryHandler(store, "", nil))

	first := post(t, mux, "/generate", smallScene)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "miss", first.Header().Get("X-Landscape-Cache"))
	key := first.Header().Get("X-Landscape-Key")

	second := post(t, mux, "/generate", smallScene)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "hit", second.Header().Get("X-Landscape-Cache"))
	assert.Equal(t, key, second.Header().Get("X-Landscape-Key"))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	status := l.Status()
	assert.EqualValues(t, 1, status.TotalRendered)
	assert.EqualValues(t, 1, status.CacheHits)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gallery/"+key, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, first.Body.Bytes(), rec.Body.Bytes())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gallery/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gallery", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var items []galleryItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, key, items[0].Key)
	assert.Equal(t, "/gallery/"+key, items[0].URL)
	assert.Equal(t, 64, items[0].Width)
}

func TestStatusAndHealth(t *testing.T) {
	l := newTestLandscapes(t, LandscapesConfig{MaxConcurrentGenerations: 3})
	mux := NewMux(l, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())

	post(t, mux, "/generate", smallScene)
	post(t, mux, "/generate", `{"width":0}`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 3, status.MaxConcurrent)
	assert.EqualValues(t, 1, status.TotalRendered)
	assert.Zero(t, status.ActiveRenders)
	assert.Empty(t, status.CurrentRenders)
}

func TestNewLandscapesRejectsBadOptions(t *testing.T) {
	_, err := NewLandscapes(LandscapesConfig{Format: "tiff"}, nil)
	assert.Error(t, err)
	_, err = NewLandscapes(LandscapesConfig{PNGCompression: "max"}, nil)
	assert.Error(t, err)
}
