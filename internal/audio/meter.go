// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
)

// MinDBFS is the floor reported for silence.
const MinDBFS = -120.0

// Meter tracks per-channel peak and RMS levels of interleaved int32 blocks.
// Process is called from the stream callback; the readers may run on any
// goroutine.
type Meter struct {
	channels int
	scratch  [][]float64 // Per-channel normalized samples, reused every block

	peak   []atomic.Uint64 // math.Float64bits of the last block's peak
	rms    []atomic.Uint64 // math.Float64bits of the last block's RMS
	blocks atomic.Uint64
}

// NewMeter allocates a meter for blocks of up to frames frames.
func NewMeter(channels, frames int) *Meter {
	if channels < 1 {
		channels = 1
	}
	scratch := make([][]float64, channels)
	for ch := range scratch {
		scratch[ch] = make([]float64, frames)
	}
	return &Meter{
		channels: channels,
		scratch:  scratch,
		peak:     make([]atomic.Uint64, channels),
		rms:      make([]atomic.Uint64, channels),
	}
}

// Channels returns the number of metered channels.
func (m *Meter) Channels() int {
	return m.channels
}

// Process measures one interleaved block. Frames beyond the meter's
// capacity are ignored.
func (m *Meter) Process(buffer []int32) {
	frames := len(buffer) / m.channels
	if frames > len(m.scratch[0]) {
		frames = len(m.scratch[0])
	}
	if frames == 0 {
		return
	}

	for ch := 0; ch < m.channels; ch++ {
		s := m.scratch[ch][:frames]
		for i := range s {
			s[i] = float64(buffer[i*m.channels+ch]) / math.MaxInt32
		}

		peak := math.Max(floats.Max(s), -floats.Min(s))
		rms := math.Sqrt(floats.Dot(s, s) / float64(frames))

		m.peak[ch].Store(math.Float64bits(peak))
		m.rms[ch].Store(math.Float64bits(rms))
	}
	m.blocks.Add(1)
}

// Peaks copies the last block's per-channel peaks into dst, growing it
// if needed, and returns it.
func (m *Meter) Peaks(dst []float64) []float64 {
	return load(m.peak, dst)
}

// RMS copies the last block's per-channel RMS levels into dst.
func (m *Meter) RMS(dst []float64) []float64 {
	return load(m.rms, dst)
}

// Blocks returns the number of blocks processed.
func (m *Meter) Blocks() uint64 {
	return m.blocks.Load()
}

func load(src []atomic.Uint64, dst []float64) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	for i := range src {
		dst[i] = math.Float64frombits(src[i].Load())
	}
	return dst
}

// DBFS converts a linear level (1.0 = full scale) to decibels relative to
// full scale, clamped at MinDBFS.
func DBFS(level float64) float64 {
	if level <= 0 {
		return MinDBFS
	}
	db := 20 * math.Log10(level)
	if db < MinDBFS {
		return MinDBFS
	}
	return db
}
