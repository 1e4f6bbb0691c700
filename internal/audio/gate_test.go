// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"
)

func TestGateEnableHotPath(t *testing.T) {
	engine := &Engine{}
	engine.gateThreshold.Store(lowThreshold)

	if engine.gateEnabled.Load() {
		t.Error("Gate should be disabled initially")
	}

	engine.EnableGate()
	if !engine.gateEnabled.Load() {
		t.Error("Gate should be enabled after EnableGate()")
	}

	engine.DisableGate()
	if engine.gateEnabled.Load() {
		t.Error("Gate should be disabled after DisableGate()")
	}

	engine.EnableGate()
	engine.EnableGate()
	if !engine.gateEnabled.Load() {
		t.Error("Gate should remain enabled after multiple EnableGate()")
	}

	engine.DisableGate()
	engine.DisableGate()
	if engine.gateEnabled.Load() {
		t.Error("Gate should remain disabled after multiple DisableGate()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0},
		{0.0, 0.0},
		{0.5, 0.5},
		{1.0, 1.0},
		{1.5, 1.0},
	}

	engine := &Engine{}

	for _, tt := range tests {
		t.Run(formatFloat(tt.input), func(t *testing.T) {
			engine.SetGateThreshold(tt.input)
			got := engine.GetGateThreshold()

			if absFloat(got-tt.expected) > 0.001 {
				t.Errorf("Gate threshold conversion: got %.3f, want %.3f", got, tt.expected)
			}
		})
	}
}

func TestGateThresholdPrecisionHotPath(t *testing.T) {
	engine := &Engine{}

	tests := []struct {
		ratio float64
		desc  string
	}{
		{0.0, "Zero"},
		{0.1, "10%"},
		{0.25, "Quarter"},
		{0.5, "Half"},
		{0.75, "Three quarter"},
		{0.999, "Near max"},
		{1.0, "Unity"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine.SetGateThreshold(tt.ratio)
			result := engine.GetGateThreshold()

			if absFloat(result-tt.ratio) > 0.0001 {
				t.Errorf("Threshold conversion error: got %.6f, want %.6f", result, tt.ratio)
			}

			expectedInt32 := int32(tt.ratio * float64(math.MaxInt32))
			if absInt32(expectedInt32-engine.gateThreshold.Load()) > 100 {
				t.Errorf("Int32 threshold mismatch: got %d, want %d",
					engine.gateThreshold.Load(), expectedInt32)
			}
		})
	}
}

func TestPeakAmplitude(t *testing.T) {
	tests := []struct {
		desc   string
		buffer []int32
		want   int32
	}{
		{"empty", nil, 0},
		{"positive", []int32{1, 5, 3}, 5},
		{"negative dominates", []int32{4, -9, 2}, 9},
		{"max int", []int32{math.MaxInt32, -1}, math.MaxInt32},
		{"min int plus one", []int32{math.MinInt32 + 1}, math.MaxInt32},
		{"clipped negative", []int32{math.MinInt32}, math.MaxInt32},
		{"clipped negative after positive", []int32{12, math.MinInt32, -3}, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := peakAmplitude(tt.buffer); got != tt.want {
				t.Errorf("peakAmplitude() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGateDetectionHotPath(t *testing.T) {
	tests := []struct {
		desc          string
		buffer        []int32
		gateEnabled   bool
		threshold     float64
		shouldTrigger bool
	}{
		{"Gate disabled/Quiet signal", quietBuffer, false, 0.1, true},
		{"Gate disabled/Loud signal", loudBuffer, false, 0.1, true},
		{"Gate enabled/Quiet signal/Low threshold", quietBuffer, true, 0.0001, true},
		{"Gate enabled/Quiet signal/Mid threshold", quietBuffer, true, 0.1, false},
		{"Gate enabled/Loud signal/Mid threshold", loudBuffer, true, 0.1, true},
		{"Gate enabled/Loud signal/High threshold", loudBuffer, true, 0.999, false},
		{"Gate enabled/Clipped negative/High threshold", []int32{math.MinInt32, math.MinInt32}, true, 0.999, true},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			engine := &Engine{}
			engine.gateEnabled.Store(tt.gateEnabled)
			engine.SetGateThreshold(tt.threshold)

			triggered := engine.gateOpen(peakAmplitude(tt.buffer))
			if triggered != tt.shouldTrigger {
				t.Errorf("Gate detection error: got triggered=%v, want %v (threshold=%d)",
					triggered, tt.shouldTrigger, engine.gateThreshold.Load())
			}
		})
	}
}

func TestPeakAmplitudeNoAllocs(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		_ = peakAmplitude(testBuffer)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in peakAmplitude, got %.1f", allocs)
	}
}

func BenchmarkGateThresholdConversionHotPath(b *testing.B) {
	engine := &Engine{}
	values := []float64{0.0, 0.25, 0.5, 0.75, 1.0}

	for _, v := range values {
		b.Run(formatFloat(v), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				engine.SetGateThreshold(v)
				_ = engine.GetGateThreshold()
			}
		})
	}
}

func BenchmarkGateProcessingHotPath(b *testing.B) {
	benchmarks := []struct {
		name      string
		buffer    []int32
		threshold int32
		enabled   bool
	}{
		{"Gate disabled/Normal", testBuffer, lowThreshold, false},
		{"Gate enabled/Quiet signal/Low threshold", quietBuffer, lowThreshold, true},
		{"Gate enabled/Normal signal/Low threshold", testBuffer, lowThreshold, true},
		{"Gate enabled/Loud signal/High threshold", loudBuffer, highThreshold, true},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			engine := &Engine{}
			engine.gateEnabled.Store(bm.enabled)
			engine.gateThreshold.Store(bm.threshold)

			b.ReportAllocs()
			b.ResetTimer()

			for b.Loop() {
				_ = engine.gateOpen(peakAmplitude(bm.buffer))
			}
		})
	}
}

// absInt32 returns the absolute value of x.
func absInt32(x int32) int32 {
	mask := x >> 31
	return (x ^ mask) - mask
}
