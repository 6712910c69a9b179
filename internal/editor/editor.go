// Package editor applies non-destructive region operations to clips.
// Every function returns a new Clip and never mutates its input.
package editor

import (
	"fmt"
	"math"

	"github.com/whitlock/clipvault/internal/apperr"
	"github.com/whitlock/clipvault/internal/audio"
)

// derive copies the format of src into a fresh unsaved clip.
func derive(src *audio.Clip, data []int) *audio.Clip {
	return &audio.Clip{
		Path:       src.Path,
		Data:       data,
		Channels:   src.Channels,
		SampleRate: src.SampleRate,
		BitDepth:   src.BitDepth,
		Derived:    true,
	}
}

// Crop returns a new clip holding exactly the selected frame range,
// sample rate unchanged.
func Crop(c *audio.Clip, sel audio.Selection) (*audio.Clip, error) {
	if err := sel.Validate(c.FrameCount()); err != nil {
		return nil, err
	}
	data := make([]int, sel.Frames()*c.Channels)
	copy(data, c.Data[sel.Start*c.Channels:sel.End*c.Channels])
	return derive(c, data), nil
}

// Reverse returns a new clip with the frames of the selection (or the
// whole clip when sel is nil) in reverse order. Channels are reversed
// in lockstep: frame order flips, the samples within a frame do not.
func Reverse(c *audio.Clip, sel *audio.Selection) (*audio.Clip, error) {
	frames := c.FrameCount()
	region := audio.Selection{Start: 0, End: frames}
	if sel != nil {
		region = *sel
	}
	if err := region.Validate(frames); err != nil {
		return nil, err
	}

	data := make([]int, len(c.Data))
	copy(data, c.Data)
	n := region.Frames()
	for i := 0; i < n/2; i++ {
		a := (region.Start + i) * c.Channels
		b := (region.End - 1 - i) * c.Channels
		for ch := 0; ch < c.Channels; ch++ {
			data[a+ch], data[b+ch] = data[b+ch], data[a+ch]
		}
	}
	return derive(c, data), nil
}

// Gate zeroes every sample whose magnitude falls below a threshold of
// db decibels relative to the clip's peak amplitude.
func Gate(c *audio.Clip, db float64) (*audio.Clip, error) {
	if db > 0 {
		return nil, fmt.Errorf("editor: gate level %v dB above reference: %w", db, apperr.ErrInvalidArgument)
	}
	peak := 0
	for _, s := range c.Data {
		if v := abs(s); v > peak {
			peak = v
		}
	}
	data := make([]int, len(c.Data))
	if peak == 0 {
		return derive(c, data), nil
	}
	threshold := float64(peak) * math.Pow(10, db/20)
	for i, s := range c.Data {
		if float64(abs(s)) >= threshold {
			data[i] = s
		}
	}
	return derive(c, data), nil
}

// Speed returns a clip with the sample rate scaled by factor, leaving
// the PCM data untouched: factor 2 plays twice as fast, 0.5 half speed.
func Speed(c *audio.Clip, factor float64) (*audio.Clip, error) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("editor: speed factor %v: %w", factor, apperr.ErrInvalidArgument)
	}
	data := make([]int, len(c.Data))
	copy(data, c.Data)
	out := derive(c, data)
	out.SampleRate = int(float64(c.SampleRate) * factor)
	if out.SampleRate < 1 {
		out.SampleRate = 1
	}
	return out, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
