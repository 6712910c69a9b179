// Package clipservice coordinates storage, metastore, librarian, and
// editor operations behind the presentation boundary.
package clipservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/whitlock/clipvault/internal/apperr"
	"github.com/whitlock/clipvault/internal/audio"
	"github.com/whitlock/clipvault/internal/editor"
	"github.com/whitlock/clipvault/internal/librarian"
	"github.com/whitlock/clipvault/internal/metastore"
	"github.com/whitlock/clipvault/internal/storage"
	"github.com/whitlock/clipvault/internal/waveform"
)

// ClipDetail is the full representation of a library clip.
type ClipDetail struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Channels    int       `json:"channels"`
	SampleRate  int       `json:"sample_rate"`
	SizeBytes   int64     `json:"size_bytes"`
	Duration    float64   `json:"duration"`
	Tags        []string  `json:"tags"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EditResult describes the clip produced by an edit operation.
type EditResult struct {
	Frames     int     `json:"frames"`
	Channels   int     `json:"channels"`
	SampleRate int     `json:"sample_rate"`
	Duration   float64 `json:"duration"`
	SavedTo    string  `json:"saved_to,omitempty"`
}

// Service coordinates the presentation-facing clip operations.
type Service struct {
	store storage.Provider
	db    metastore.Store
	lib   *librarian.Librarian
}

// NewService creates a new clip service.
func NewService(store storage.Provider, db metastore.Store, lib *librarian.Librarian) *Service {
	return &Service{store: store, db: db, lib: lib}
}

func detailFromRow(r *metastore.ClipRow) *ClipDetail {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &ClipDetail{
		Path:        r.Path,
		Name:        r.Name,
		Description: r.Description,
		Channels:    r.Channels,
		SampleRate:  r.SampleRate,
		SizeBytes:   r.SizeBytes,
		Duration:    r.Duration,
		Tags:        tags,
		UpdatedAt:   r.UpdatedAt,
	}
}

// GetClip returns the stored record for a clip.
func (s *Service) GetClip(_ context.Context, path string) (*ClipDetail, error) {
	row, err := s.db.GetClip(path)
	if err != nil {
		return nil, err
	}
	return detailFromRow(row), nil
}

// ListClips returns paginated clips with an optional tag filter.
func (s *Service) ListClips(_ context.Context, limit, offset int, tag, sort string) ([]ClipDetail, int, error) {
	rows, total, err := s.db.ListClips(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ClipDetail, len(rows))
	for i := range rows {
		items[i] = *detailFromRow(&rows[i])
	}
	return items, total, nil
}

// Search delegates full-text search to the metastore.
func (s *Service) Search(_ context.Context, query string, limit int) ([]metastore.SearchResult, error) {
	return s.db.Search(query, limit)
}

// AllTags returns every known tag.
func (s *Service) AllTags(_ context.Context) ([]string, error) {
	return s.db.AllTags()
}

// UpdateMetadata overwrites a clip's tags and description.
func (s *Service) UpdateMetadata(_ context.Context, path string, tags []string, description string) (*ClipDetail, error) {
	if err := s.lib.UpdateMetadata(path, tags, description); err != nil {
		return nil, err
	}
	row, err := s.db.GetClip(path)
	if err != nil {
		return nil, err
	}
	return detailFromRow(row), nil
}

// DeleteClip removes a clip from the library and its record from the
// store.
func (s *Service) DeleteClip(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeleteClip(path)
}

// RenameClip moves a clip on disk and carries its record (tags and
// description included) to the new path.
func (s *Service) RenameClip(_ context.Context, oldPath, newPath string) error {
	if !storage.IsAudioPath(newPath) {
		return fmt.Errorf("clipservice: rename to %s: %w", newPath, apperr.ErrInvalidArgument)
	}
	if _, err := s.store.Read(newPath); err == nil {
		return apperr.ErrAlreadyExists
	}
	if err := s.store.Rename(oldPath, newPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.RenameClip(oldPath, newPath)
}

// Import writes uploaded audio bytes into the library and indexes
// them. The payload must be a parseable WAV.
func (s *Service) Import(_ context.Context, path string, content []byte) (*ClipDetail, error) {
	if !storage.IsAudioPath(path) {
		return nil, fmt.Errorf("clipservice: import %s: %w", path, apperr.ErrInvalidArgument)
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if _, err := audio.Probe(bytes.NewReader(content)); err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.lib.IndexPath(path); err != nil {
		return nil, err
	}
	row, err := s.db.GetClip(path)
	if err != nil {
		return nil, err
	}
	return detailFromRow(row), nil
}

// Waveform renders the peak envelope of a clip at the given width.
func (s *Service) Waveform(_ context.Context, path string, width int) ([]waveform.Peak, error) {
	clip, err := s.lib.Load(path)
	if err != nil {
		return nil, err
	}
	return waveform.Render(clip, width)
}

// MapSelection maps a pixel span of a width-wide rendering back to a
// frame range of the clip.
func (s *Service) MapSelection(_ context.Context, path string, width, pixelStart, pixelEnd int) (audio.Selection, error) {
	clip, err := s.lib.Load(path)
	if err != nil {
		return audio.Selection{}, err
	}
	return waveform.MapPixelRange(clip, width, pixelStart, pixelEnd)
}

// CropClip crops a clip to the selection. When dest is non-empty the
// result is encoded into the library at dest and indexed; otherwise
// only the result stats are returned.
func (s *Service) CropClip(ctx context.Context, path string, sel audio.Selection, dest string) (*EditResult, error) {
	clip, err := s.lib.Load(path)
	if err != nil {
		return nil, err
	}
	out, err := editor.Crop(clip, sel)
	if err != nil {
		return nil, err
	}
	return s.finishEdit(ctx, out, dest)
}

// ReverseClip reverses the selection (or the whole clip when sel is
// nil). See CropClip for dest semantics.
func (s *Service) ReverseClip(ctx context.Context, path string, sel *audio.Selection, dest string) (*EditResult, error) {
	clip, err := s.lib.Load(path)
	if err != nil {
		return nil, err
	}
	out, err := editor.Reverse(clip, sel)
	if err != nil {
		return nil, err
	}
	return s.finishEdit(ctx, out, dest)
}

// GateClip zeroes samples quieter than the given dB threshold relative
// to the clip's peak. See CropClip for dest semantics.
func (s *Service) GateClip(ctx context.Context, path string, db float64, dest string) (*EditResult, error) {
	clip, err := s.lib.Load(path)
	if err != nil {
		return nil, err
	}
	out, err := editor.Gate(clip, db)
	if err != nil {
		return nil, err
	}
	return s.finishEdit(ctx, out, dest)
}

// SpeedClip re-rates a clip by the given factor. See CropClip for dest
// semantics.
func (s *Service) SpeedClip(ctx context.Context, path string, factor float64, dest string) (*EditResult, error) {
	clip, err := s.lib.Load(path)
	if err != nil {
		return nil, err
	}
	out, err := editor.Speed(clip, factor)
	if err != nil {
		return nil, err
	}
	return s.finishEdit(ctx, out, dest)
}

func (s *Service) finishEdit(_ context.Context, out *audio.Clip, dest string) (*EditResult, error) {
	res := &EditResult{
		Frames:     out.FrameCount(),
		Channels:   out.Channels,
		SampleRate: out.SampleRate,
		Duration:   out.Seconds(),
	}
	if dest == "" {
		return res, nil
	}
	if !storage.IsAudioPath(dest) {
		return nil, fmt.Errorf("clipservice: save to %s: %w", dest, apperr.ErrInvalidArgument)
	}
	if _, err := s.store.Read(dest); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	abs, err := s.store.Resolve(dest)
	if err != nil {
		return nil, err
	}
	if err := audio.WriteFile(abs, out); err != nil {
		return nil, err
	}
	if err := s.lib.IndexPath(dest); err != nil {
		return nil, err
	}
	res.SavedTo = dest
	return res, nil
}

// Load fully decodes a clip for playback or rendering.
func (s *Service) Load(_ context.Context, path string) (*audio.Clip, error) {
	return s.lib.Load(path)
}

// Reconcile runs a full library reconciliation pass.
func (s *Service) Reconcile(_ context.Context) (librarian.Report, error) {
	return s.lib.Reconcile()
}
