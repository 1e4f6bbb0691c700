// SPDX-License-Identifier: MIT
package audio

import "math"

func (e *Engine) EnableGate() {
	e.gateEnabled.Store(true)
}

func (e *Engine) DisableGate() {
	e.gateEnabled.Store(false)
}

// SetGateThreshold adjusts the noise gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	e.gateThreshold.Store(int32(threshold * float64(math.MaxInt32)))
}

// GetGateThreshold returns the current noise gate threshold as a float64.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold.Load()) / float64(math.MaxInt32)
}

// gateOpen reports whether a block with the given peak amplitude passes
// the gate. A disabled gate always passes.
func (e *Engine) gateOpen(peak int32) bool {
	return !e.gateEnabled.Load() || peak > e.gateThreshold.Load()
}

// peakAmplitude returns the largest absolute sample value without
// branching on the sample sign.
func peakAmplitude(buffer []int32) int32 {
	var maxAmplitude int32
	for _, sample := range buffer {
		mask := sample >> 31
		amplitude := (sample ^ mask) - mask
		// |MinInt32| wraps to MinInt32; saturate it to MaxInt32.
		amplitude += amplitude >> 31
		diff := amplitude - maxAmplitude
		maxAmplitude += (diff & (diff >> 31)) ^ diff
	}
	return maxAmplitude
}
