// SPDX-License-Identifier: MIT
//
// Package utils holds signal generators and doubles shared by tests.
package utils

import (
	"math"
	"sync"
)

// MockTransport records everything sent to it.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Err    error // Returned from Send when set
	Closed bool
}

func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, data)
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Count returns the number of values received so far.
func (m *MockTransport) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Last returns the most recent value, or nil.
func (m *MockTransport) Last() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return m.Sent[len(m.Sent)-1]
}

// GenerateComplexWave returns a 440Hz tone with two harmonics at 90% of
// full scale.
func GenerateComplexWave(size int, sampleRate float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = int32(signal * math.MaxInt32 * 0.9)
	}
	return buffer
}

// GenerateSineWave returns a sine at 90% of full scale.
func GenerateSineWave(size int, sampleRate, frequency float64) []int32 {
	return GenerateScaledSineWave(size, sampleRate, frequency, 0.9)
}

// GenerateScaledSineWave returns a sine with the given linear amplitude.
func GenerateScaledSineWave(size int, sampleRate, frequency, amplitude float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int32(math.Sin(2*math.Pi*frequency*t) * math.MaxInt32 * amplitude)
	}
	return buffer
}

// Interleave merges equal-length mono channels into one interleaved buffer.
func Interleave(channels ...[]int32) []int32 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]int32, frames*len(channels))
	for i := 0; i < frames; i++ {
		for ch, data := range channels {
			out[i*len(channels)+ch] = data[i]
		}
	}
	return out
}
