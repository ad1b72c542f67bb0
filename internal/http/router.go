// Package http assembles the service router: health endpoints, the accent
// listing, and the three websocket channels.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voice-relay-service/internal/app"
	"voice-relay-service/internal/tts"
	"voice-relay-service/internal/ws"
)

// Handlers carries the websocket endpoint handlers the router mounts.
type Handlers struct {
	Upload *ws.UploadHandler
	Text   *ws.TextHandler
	Audio  *ws.AudioHandler
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/accents", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]any{"accents": tts.Accents()})
		})
	})

	// Websocket channels. The upgrader rejects anything that is not a
	// websocket handshake.
	r.Get("/ws/upload-audio", h.Upload.ServeHTTP)
	r.Get("/ws/asr-text", h.Text.ServeHTTP)
	r.Get("/ws/tts-audio", h.Audio.ServeHTTP)

	return r
}
