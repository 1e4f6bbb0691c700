// SPDX-License-Identifier: MIT
package audio

import (
	"time"

	"github.com/gordonklaus/portaudio"
)

// Device is a snapshot of a PortAudio device taken at enumeration time.
type Device struct {
	ID                int // Enumeration index
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int

	DefaultLowInputLatency   time.Duration
	DefaultLowOutputLatency  time.Duration
	DefaultHighInputLatency  time.Duration
	DefaultHighOutputLatency time.Duration

	DefaultSampleRate float64

	defaultInput  bool
	defaultOutput bool
}

func newDevice(id int, info *portaudio.DeviceInfo, defIn, defOut *portaudio.DeviceInfo) Device {
	return Device{
		ID:                       id,
		Name:                     info.Name,
		HostAPI:                  hostAPIName(info),
		MaxInputChannels:         info.MaxInputChannels,
		MaxOutputChannels:        info.MaxOutputChannels,
		DefaultLowInputLatency:   info.DefaultLowInputLatency,
		DefaultLowOutputLatency:  info.DefaultLowOutputLatency,
		DefaultHighInputLatency:  info.DefaultHighInputLatency,
		DefaultHighOutputLatency: info.DefaultHighOutputLatency,
		DefaultSampleRate:        info.DefaultSampleRate,
		defaultInput:             sameDevice(info, defIn),
		defaultOutput:            sameDevice(info, defOut),
	}
}

// IsInput reports whether the device can capture audio.
func (d Device) IsInput() bool {
	return d.MaxInputChannels > 0
}

// IsOutput reports whether the device can play audio.
func (d Device) IsOutput() bool {
	return d.MaxOutputChannels > 0
}

// IsDefaultInput reports whether the device is the host's default input.
func (d Device) IsDefaultInput() bool {
	return d.defaultInput
}

// IsDefaultOutput reports whether the device is the host's default output.
func (d Device) IsDefaultOutput() bool {
	return d.defaultOutput
}

// Kind returns "Input", "Output", "Input/Output" or "None".
func (d Device) Kind() string {
	switch {
	case d.IsInput() && d.IsOutput():
		return "Input/Output"
	case d.IsInput():
		return "Input"
	case d.IsOutput():
		return "Output"
	default:
		return "None"
	}
}

// Latency returns the default latency for the given direction and mode.
func (d Device) Latency(input, low bool) time.Duration {
	switch {
	case input && low:
		return d.DefaultLowInputLatency
	case input:
		return d.DefaultHighInputLatency
	case low:
		return d.DefaultLowOutputLatency
	default:
		return d.DefaultHighOutputLatency
	}
}

func hostAPIName(info *portaudio.DeviceInfo) string {
	if info == nil || info.HostApi == nil {
		return ""
	}
	return info.HostApi.Name
}

// sameDevice compares by name and host API. The library may hand out
// distinct DeviceInfo values for the same device.
func sameDevice(a, b *portaudio.DeviceInfo) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	return a.Name == b.Name && hostAPIName(a) == hostAPIName(b)
}
