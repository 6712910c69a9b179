// Package audio defines the decoded clip model and the WAV codec
// boundary around github.com/go-audio.
package audio

import (
	"fmt"
	"time"

	"github.com/whitlock/clipvault/internal/apperr"
)

// Clip is a fully decoded audio file. Data is interleaved PCM
// (frame-major, one sample per channel per frame). A Clip is never
// mutated after construction; the editor produces new instances.
type Clip struct {
	Path       string
	Data       []int
	Channels   int
	SampleRate int
	BitDepth   int
	SizeBytes  int64
	// Derived marks clips produced by an edit that have not been
	// written back to the library.
	Derived bool
}

// FrameCount returns the number of sample instants across all channels.
func (c *Clip) FrameCount() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Data) / c.Channels
}

// Duration returns the clip length derived from frame count and rate.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(c.FrameCount()) / float64(c.SampleRate) * float64(time.Second))
}

// Seconds returns the duration in floating-point seconds.
func (c *Clip) Seconds() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(c.FrameCount()) / float64(c.SampleRate)
}

// Frame returns the samples of one frame, one per channel. The returned
// slice aliases Data and must not be modified.
func (c *Clip) Frame(i int) []int {
	return c.Data[i*c.Channels : (i+1)*c.Channels]
}

// Selection is a half-open frame range [Start, End) inside a clip.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Validate checks the selection invariant 0 <= Start < End <= frameCount.
func (s Selection) Validate(frameCount int) error {
	if s.Start < 0 || s.Start >= s.End || s.End > frameCount {
		return fmt.Errorf("audio: selection [%d, %d) out of range for %d frames: %w",
			s.Start, s.End, frameCount, apperr.ErrInvalidArgument)
	}
	return nil
}

// Frames returns the number of frames covered by the selection.
func (s Selection) Frames() int {
	return s.End - s.Start
}

// Stats holds the header-level facts about an audio file, available
// without decoding the PCM payload.
type Stats struct {
	Channels   int
	SampleRate int
	BitDepth   int
	Duration   time.Duration
}

// Seconds returns the duration in floating-point seconds.
func (s Stats) Seconds() float64 {
	return s.Duration.Seconds()
}
