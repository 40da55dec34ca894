package server

import (
	"net/http"
)

// NewMux wires the HTTP endpoints. gallery may be nil when no store is
// configured. Requests with other methods get 405 from the mux.
func NewMux(l *Landscapes, gallery *GalleryHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	generate := l.GenerateHandler()
	mux.Handle("POST /generate", generate)
	mux.Handle("OPTIONS /generate", generate)
	mux.Handle("GET /status", l.StatusHandler())
	mux.Handle("GET /status/stream", l.StatusStreamHandler())

	if gallery != nil {
		for pattern, h := range map[string]http.Handler{
			"/gallery":       gallery.ListHandler(),
			"/gallery/{key}": gallery.RenderHandler(),
		} {
			mux.Handle("GET "+pattern, withCORS(h))
			mux.Handle("OPTIONS "+pattern, withCORS(h))
		}
	}
	return mux
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
