package api

import (
	"github.com/whitlock/clipvault/internal/audio"
	"github.com/whitlock/clipvault/internal/clipservice"
)

// ClipDetail is the clip response type (aliased from the domain layer).
type ClipDetail = clipservice.ClipDetail

// ClipListResponse wraps paginated clip listings.
type ClipListResponse struct {
	Clips []ClipDetail `json:"clips"`
	Total int          `json:"total"`
}

// UpdateClipRequest is the request body for updating clip metadata.
type UpdateClipRequest struct {
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// RenameRequest is the request body for renaming a clip.
type RenameRequest struct {
	Path    string `json:"path"`
	NewPath string `json:"new_path"`
}

// SelectionRequest maps a pixel span of a rendering to a frame range.
type SelectionRequest struct {
	Path       string `json:"path"`
	Width      int    `json:"width"`
	PixelStart int    `json:"pixel_start"`
	PixelEnd   int    `json:"pixel_end"`
}

// EditRequest is the request body for crop and reverse operations.
// Selection is required for crop and optional for reverse (nil means
// the whole clip). Dest, when non-empty, saves the result into the
// library.
type EditRequest struct {
	Path      string           `json:"path"`
	Selection *audio.Selection `json:"selection,omitempty"`
	Dest      string           `json:"dest,omitempty"`
}

// GateRequest is the request body for the noise gate operation.
// ThresholdDB is negative or zero (dB relative to the clip's peak).
type GateRequest struct {
	Path        string  `json:"path"`
	ThresholdDB float64 `json:"threshold_db"`
	Dest        string  `json:"dest,omitempty"`
}

// SpeedRequest is the request body for the speed change operation.
type SpeedRequest struct {
	Path   string  `json:"path"`
	Factor float64 `json:"factor"`
	Dest   string  `json:"dest,omitempty"`
}

// PlayRequest is the request body for starting playback.
type PlayRequest struct {
	Path      string `json:"path"`
	Direction string `json:"direction,omitempty"`
}

// PlaybackStatusResponse is the playback controller snapshot.
type PlaybackStatusResponse struct {
	State     string  `json:"state"`
	Direction string  `json:"direction"`
	Frame     int     `json:"frame"`
	Path      string  `json:"path,omitempty"`
	Seconds   float64 `json:"seconds"`
}
