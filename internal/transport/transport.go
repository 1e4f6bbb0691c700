// SPDX-License-Identifier: MIT
package transport

import "time"

// Transport defines a generic interface for sending level reports or
// other events. Implementations must be safe for concurrent use.
type Transport interface {
	Send(data any) error
	Close() error
}

// Source produces level reports on demand.
type Source interface {
	Report() LevelReport
}

// LevelReport is a snapshot of input levels for one device. Level slices
// hold one entry per channel, linear 0.0-1.0 of full scale.
type LevelReport struct {
	Sequence   uint32    `json:"seq"`
	Timestamp  time.Time `json:"ts"`
	Device     string    `json:"device"`
	SampleRate float64   `json:"sample_rate"`
	Peak       []float64 `json:"peak"`
	RMS        []float64 `json:"rms"`
	PeakDBFS   []float64 `json:"peak_dbfs"`
	Active     bool      `json:"active"`
	Recording  bool      `json:"recording"`
	XRuns      uint64    `json:"xruns"`
}
