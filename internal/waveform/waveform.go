// Package waveform converts decoded clips into plottable peak
// envelopes and maps visual selections back to frame ranges.
package waveform

import (
	"fmt"

	"github.com/whitlock/clipvault/internal/apperr"
	"github.com/whitlock/clipvault/internal/audio"
)

// Peak is the amplitude extrema of one pixel column, normalized to
// [-1, 1] by the clip bit depth.
type Peak struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Render partitions the clip's frames into targetWidth buckets and
// returns the per-bucket extrema across all channels, exactly one Peak
// per pixel column. Cost is proportional to the sample count, never to
// the plot backend.
func Render(c *audio.Clip, targetWidth int) ([]Peak, error) {
	if targetWidth < 1 {
		return nil, fmt.Errorf("waveform: target width %d: %w", targetWidth, apperr.ErrInvalidArgument)
	}
	frames := c.FrameCount()
	if frames == 0 {
		return nil, fmt.Errorf("waveform: empty clip: %w", apperr.ErrInvalidArgument)
	}

	scale := normScale(c.BitDepth)
	out := make([]Peak, targetWidth)
	for i := 0; i < targetWidth; i++ {
		start := i * frames / targetWidth
		end := (i + 1) * frames / targetWidth
		// When frames < targetWidth some buckets collapse; widen them
		// to one frame so every column carries a value.
		if end <= start {
			end = start + 1
		}
		if start >= frames {
			start, end = frames-1, frames
		}

		lo, hi := c.Data[start*c.Channels], c.Data[start*c.Channels]
		for _, s := range c.Data[start*c.Channels : end*c.Channels] {
			if s < lo {
				lo = s
			}
			if s > hi {
				hi = s
			}
		}
		out[i] = Peak{Min: float64(lo) * scale, Max: float64(hi) * scale}
	}
	return out, nil
}

// MapPixelRange maps a pixel span [pixelStart, pixelEnd) of a
// targetWidth-wide rendering back to the clip's frame range, clamped
// to [0, FrameCount].
func MapPixelRange(c *audio.Clip, targetWidth, pixelStart, pixelEnd int) (audio.Selection, error) {
	if targetWidth < 1 {
		return audio.Selection{}, fmt.Errorf("waveform: target width %d: %w", targetWidth, apperr.ErrInvalidArgument)
	}
	if pixelStart < 0 || pixelEnd > targetWidth || pixelStart >= pixelEnd {
		return audio.Selection{}, fmt.Errorf("waveform: pixel range [%d, %d) of width %d: %w",
			pixelStart, pixelEnd, targetWidth, apperr.ErrInvalidArgument)
	}
	frames := c.FrameCount()
	if frames == 0 {
		return audio.Selection{}, fmt.Errorf("waveform: empty clip: %w", apperr.ErrInvalidArgument)
	}

	sel := audio.Selection{
		Start: pixelStart * frames / targetWidth,
		End:   pixelEnd * frames / targetWidth,
	}
	if sel.End > frames {
		sel.End = frames
	}
	// A sub-frame pixel span still selects at least one frame.
	if sel.End <= sel.Start {
		sel.End = sel.Start + 1
		if sel.End > frames {
			sel.Start, sel.End = frames-1, frames
		}
	}
	return sel, nil
}

// normScale returns the factor mapping integer samples of the given
// bit depth into [-1, 1].
func normScale(bitDepth int) float64 {
	if bitDepth <= 0 {
		bitDepth = 16
	}
	return 1 / float64(int64(1)<<(bitDepth-1))
}
