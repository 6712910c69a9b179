package api

import (
	"io"
	"net/http"

	"github.com/whitlock/clipvault/internal/clipservice"
	"github.com/whitlock/clipvault/internal/storage"
)

const maxUploadBytes = 200 << 20 // 200 MB

// FileHandler serves raw audio bytes and accepts uploads into the
// library.
type FileHandler struct {
	svc   *clipservice.Service
	store storage.Provider
}

// NewFileHandler creates a handler over the library storage.
func NewFileHandler(svc *clipservice.Service, store storage.Provider) *FileHandler {
	return &FileHandler{svc: svc, store: store}
}

// ServeFile handles GET /files/* and streams the raw WAV bytes so a
// client can feed its local audio output.
func (h *FileHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	path := clipPath(r)
	if path == "" || !storage.IsAudioPath(path) {
		writeJSON(w, http.StatusBadRequest, errorBody("a .wav path is required"))
		return
	}
	abs, err := h.store.Resolve(path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, abs)
}

// Upload handles POST /import (multipart/form-data with a "file" part
// and an optional "path" field). The payload must be a parseable WAV;
// the new clip is indexed with empty tags and description.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file part is required"))
		return
	}
	defer file.Close()

	dest := r.FormValue("path")
	if dest == "" {
		dest = header.Filename
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("read upload failed"))
		return
	}
	if len(content) > maxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("upload too large"))
		return
	}

	clip, err := h.svc.Import(r.Context(), dest, content)
	if err != nil {
		respondErr(w, "import", err)
		return
	}
	writeJSON(w, http.StatusCreated, clip)
}
