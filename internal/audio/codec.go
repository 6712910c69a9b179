package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/whitlock/clipvault/internal/apperr"
)

// Probe reads only the WAV header and returns the clip stats. The PCM
// payload is not decoded.
func Probe(r io.ReadSeeker) (Stats, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Stats{}, fmt.Errorf("audio: probe: %w", apperr.ErrDecode)
	}
	dur, err := dec.Duration()
	if err != nil {
		return Stats{}, fmt.Errorf("audio: probe duration: %w", apperr.ErrDecode)
	}
	return Stats{
		Channels:   int(dec.NumChans),
		SampleRate: int(dec.SampleRate),
		BitDepth:   int(dec.BitDepth),
		Duration:   dur,
	}, nil
}

// Decode reads the full PCM payload into a Clip.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("audio: decode: %w", apperr.ErrDecode)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode pcm: %w", apperr.ErrDecode)
	}
	return &Clip{
		Data:       buf.Data,
		Channels:   buf.Format.NumChannels,
		SampleRate: buf.Format.SampleRate,
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// WriteFile encodes the clip as 16-bit-default PCM WAV at the given
// absolute path. The parent directory is created when missing.
func WriteFile(path string, c *Clip) error {
	if c.Channels < 1 || c.SampleRate < 1 {
		return fmt.Errorf("audio: write %s: bad format: %w", path, apperr.ErrInvalidArgument)
	}
	bitDepth := c.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("audio: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, c.SampleRate, bitDepth, c.Channels, 1)
	err = enc.Write(&gaudio.IntBuffer{
		Data:           c.Data,
		Format:         &gaudio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("audio: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: finalize %s: %w", path, err)
	}
	return nil
}
