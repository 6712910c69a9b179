package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/whitlock/clipvault/internal/apperr"
	"github.com/whitlock/clipvault/internal/clipservice"
	"github.com/whitlock/clipvault/internal/playback"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *clipservice.Service
	player *playback.Controller
}

// NewHandler creates a new Handler.
func NewHandler(svc *clipservice.Service, player *playback.Controller) *Handler {
	return &Handler{svc: svc, player: player}
}

// clipPath extracts the clip path from the URL (everything after the
// route prefix). Supports encoded slashes (e.g. drums%2Fkick.wav).
func clipPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// respondErr maps domain errors onto HTTP status codes.
func respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrInvalidState):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrDecode):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("malformed audio"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListClips handles GET /api/clips.
func (h *Handler) ListClips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")
	sort := q.Get("sort")

	items, total, err := h.svc.ListClips(r.Context(), limit, offset, tag, sort)
	if err != nil {
		respondErr(w, "list clips", err)
		return
	}
	writeJSON(w, http.StatusOK, ClipListResponse{Clips: items, Total: total})
}

// GetClip handles GET /api/clips/*.
func (h *Handler) GetClip(w http.ResponseWriter, r *http.Request) {
	path := clipPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	clip, err := h.svc.GetClip(r.Context(), path)
	if err != nil {
		respondErr(w, "get clip", err)
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

// UpdateClip handles PUT /api/clips/*.
func (h *Handler) UpdateClip(w http.ResponseWriter, r *http.Request) {
	path := clipPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req UpdateClipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	clip, err := h.svc.UpdateMetadata(r.Context(), path, req.Tags, req.Description)
	if err != nil {
		respondErr(w, "update clip", err)
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

// DeleteClip handles DELETE /api/clips/*.
func (h *Handler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	path := clipPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteClip(r.Context(), path); err != nil {
		respondErr(w, "delete clip", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameClip handles POST /api/rename.
func (h *Handler) RenameClip(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" || req.NewPath == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and new_path are required"))
		return
	}
	if err := h.svc.RenameClip(r.Context(), req.Path, req.NewPath); err != nil {
		respondErr(w, "rename clip", err)
		return
	}
	clip, err := h.svc.GetClip(r.Context(), req.NewPath)
	if err != nil {
		respondErr(w, "rename clip", err)
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), query, limit)
	if err != nil {
		respondErr(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.AllTags(r.Context())
	if err != nil {
		respondErr(w, "tags", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// Waveform handles GET /api/waveform?path=...&width=...
func (h *Handler) Waveform(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	width, _ := strconv.Atoi(q.Get("width"))
	peaks, err := h.svc.Waveform(r.Context(), path, width)
	if err != nil {
		respondErr(w, "waveform", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "width": width, "peaks": peaks})
}

// MapSelection handles POST /api/selection.
func (h *Handler) MapSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	sel, err := h.svc.MapSelection(r.Context(), req.Path, req.Width, req.PixelStart, req.PixelEnd)
	if err != nil {
		respondErr(w, "map selection", err)
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// Crop handles POST /api/crop.
func (h *Handler) Crop(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if req.Selection == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("selection is required"))
		return
	}
	res, err := h.svc.CropClip(r.Context(), req.Path, *req.Selection, req.Dest)
	if err != nil {
		respondErr(w, "crop", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reverse handles POST /api/reverse.
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.ReverseClip(r.Context(), req.Path, req.Selection, req.Dest)
	if err != nil {
		respondErr(w, "reverse", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Gate handles POST /api/gate.
func (h *Handler) Gate(w http.ResponseWriter, r *http.Request) {
	var req GateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.GateClip(r.Context(), req.Path, req.ThresholdDB, req.Dest)
	if err != nil {
		respondErr(w, "gate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Speed handles POST /api/speed.
func (h *Handler) Speed(w http.ResponseWriter, r *http.Request) {
	var req SpeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.SpeedClip(r.Context(), req.Path, req.Factor, req.Dest)
	if err != nil {
		respondErr(w, "speed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reconcile handles POST /api/reconcile.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reconcile(r.Context())
	if err != nil {
		respondErr(w, "reconcile", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Play handles POST /api/playback/play.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	dir, err := playback.ParseDirection(req.Direction)
	if err != nil {
		respondErr(w, "play", err)
		return
	}
	clip, err := h.svc.Load(r.Context(), req.Path)
	if err != nil {
		respondErr(w, "play", err)
		return
	}
	if err := h.player.Play(clip, dir); err != nil {
		respondErr(w, "play", err)
		return
	}
	h.playbackStatus(w)
}

// Pause handles POST /api/playback/pause.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Pause(); err != nil {
		respondErr(w, "pause", err)
		return
	}
	h.playbackStatus(w)
}

// Stop handles POST /api/playback/stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Stop(); err != nil {
		respondErr(w, "stop", err)
		return
	}
	h.playbackStatus(w)
}

// Resume handles POST /api/playback/resume.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Resume(); err != nil {
		respondErr(w, "resume", err)
		return
	}
	h.playbackStatus(w)
}

// PlaybackStatus handles GET /api/playback.
func (h *Handler) PlaybackStatus(w http.ResponseWriter, r *http.Request) {
	h.playbackStatus(w)
}

func (h *Handler) playbackStatus(w http.ResponseWriter) {
	st := h.player.Status()
	writeJSON(w, http.StatusOK, PlaybackStatusResponse{
		State:     st.State.String(),
		Direction: st.Direction.String(),
		Frame:     st.Frame,
		Path:      st.Path,
		Seconds:   st.Seconds(),
	})
}
