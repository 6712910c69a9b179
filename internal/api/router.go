package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/whitlock/clipvault/internal/clipservice"
	"github.com/whitlock/clipvault/internal/playback"
	"github.com/whitlock/clipvault/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth
// group.
func NewRouter(svc *clipservice.Service, player *playback.Controller, store storage.Provider,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, player)
	fh := NewFileHandler(svc, store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Clip records.
	r.Get("/clips", h.ListClips)
	r.Get("/clips/*", h.GetClip)
	r.Put("/clips/*", h.UpdateClip)
	r.Delete("/clips/*", h.DeleteClip)
	r.Post("/rename", h.RenameClip)

	// Library.
	r.Post("/reconcile", h.Reconcile)
	r.Get("/search", h.Search)
	r.Get("/tags", h.Tags)
	r.Post("/import", fh.Upload)
	r.Get("/files/*", fh.ServeFile)

	// Waveform and editing.
	r.Get("/waveform", h.Waveform)
	r.Post("/selection", h.MapSelection)
	r.Post("/crop", h.Crop)
	r.Post("/reverse", h.Reverse)
	r.Post("/gate", h.Gate)
	r.Post("/speed", h.Speed)

	// Playback.
	r.Post("/playback/play", h.Play)
	r.Post("/playback/pause", h.Pause)
	r.Post("/playback/stop", h.Stop)
	r.Post("/playback/resume", h.Resume)
	r.Get("/playback", h.PlaybackStatus)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
