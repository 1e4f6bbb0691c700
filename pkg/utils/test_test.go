// SPDX-License-Identifier: MIT
package utils

import (
	"errors"
	"math"
	"testing"
)

func TestMockTransport(t *testing.T) {
	mt := &MockTransport{}

	if mt.Last() != nil {
		t.Error("Last() on empty transport should be nil")
	}

	for i := 0; i < 3; i++ {
		if err := mt.Send(i); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if mt.Count() != 3 {
		t.Errorf("Count() = %d, want 3", mt.Count())
	}
	if mt.Last() != 2 {
		t.Errorf("Last() = %v, want 2", mt.Last())
	}

	mt.Err = errors.New("boom")
	if err := mt.Send(4); err == nil {
		t.Error("Send() should return the configured error")
	}
	if mt.Count() != 3 {
		t.Errorf("failed Send() was recorded")
	}

	mt.Close()
	if !mt.Closed {
		t.Error("Close() not recorded")
	}
}

func zeroCrossings(buf []int32) int {
	n := 0
	for i := 1; i < len(buf); i++ {
		if (buf[i-1] < 0) != (buf[i] < 0) {
			n++
		}
	}
	return n
}

func TestGenerators(t *testing.T) {
	tests := []struct {
		name      string
		buf       []int32
		crossings int // Expected zero crossings, 0 to skip
	}{
		{"complex 44.1k", GenerateComplexWave(1024, 44100), 0},
		{"complex 8k", GenerateComplexWave(16, 8000), 0},
		{"sine A4 44.1k", GenerateSineWave(44100, 44100, 440), 880},
		{"sine A4 8k", GenerateSineWave(8000, 8000, 440), 880},
		{"sine 100Hz 192k", GenerateSineWave(19200, 192000, 100), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var peak int32
			for _, v := range tt.buf {
				peak = max(peak, v, -v)
			}
			if peak == 0 {
				t.Fatal("generator produced silence")
			}
			if limit := 0.9 * math.MaxInt32; float64(peak) > limit+1 {
				t.Errorf("peak %d above 90%% of full scale", peak)
			}

			if tt.crossings > 0 {
				got := zeroCrossings(tt.buf)
				if math.Abs(float64(got-tt.crossings)) > 0.05*float64(tt.crossings)+1 {
					t.Errorf("zero crossings = %d, want ~%d", got, tt.crossings)
				}
			}
		})
	}
}

func TestGenerateScaledSineWaveAmplitude(t *testing.T) {
	buf := GenerateScaledSineWave(4410, 44100, 100, 0.25)

	var peak int32
	for _, v := range buf {
		if v > peak {
			peak = v
		}
	}
	got := float64(peak) / math.MaxInt32
	if math.Abs(got-0.25) > 0.001 {
		t.Errorf("peak = %.4f, want 0.25", got)
	}
}

func TestInterleave(t *testing.T) {
	left := []int32{1, 2, 3}
	right := []int32{-1, -2, -3}

	got := Interleave(left, right)
	want := []int32{1, -1, 2, -2, 3, -3}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	if Interleave() != nil {
		t.Error("Interleave() with no channels should be nil")
	}
}
