// SPDX-License-Identifier: MIT
package audio

import (
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

// fakeLibrary stands in for PortAudio in tests.
type fakeLibrary struct {
	devices []*portaudio.DeviceInfo
	defIn   *portaudio.DeviceInfo
	defOut  *portaudio.DeviceInfo
	hosts   []*portaudio.HostApiInfo

	initErr    error
	termErr    error
	devicesErr error
	maxRate    float64

	initCalls int
	termCalls int
}

var (
	testCoreAudio = &portaudio.HostApiInfo{Type: portaudio.CoreAudio, Name: "Core Audio"}
	testALSA      = &portaudio.HostApiInfo{Type: portaudio.ALSA, Name: "ALSA"}
)

func newTestDevices() (mic, speakers, duplex, none *portaudio.DeviceInfo) {
	mic = &portaudio.DeviceInfo{
		Name:                    "Built-in Microphone",
		MaxInputChannels:        2,
		DefaultLowInputLatency:  3 * time.Millisecond,
		DefaultHighInputLatency: 12 * time.Millisecond,
		DefaultSampleRate:       48000,
		HostApi:                 testCoreAudio,
	}
	speakers = &portaudio.DeviceInfo{
		Name:                     "Built-in Output",
		MaxOutputChannels:        2,
		DefaultLowOutputLatency:  5 * time.Millisecond,
		DefaultHighOutputLatency: 20 * time.Millisecond,
		DefaultSampleRate:        44100,
		HostApi:                  testCoreAudio,
	}
	duplex = &portaudio.DeviceInfo{
		Name:                     "USB Audio Interface",
		MaxInputChannels:         4,
		MaxOutputChannels:        4,
		DefaultLowInputLatency:   2 * time.Millisecond,
		DefaultHighInputLatency:  10 * time.Millisecond,
		DefaultLowOutputLatency:  2 * time.Millisecond,
		DefaultHighOutputLatency: 10 * time.Millisecond,
		DefaultSampleRate:        96000,
		HostApi:                  testALSA,
	}
	none = &portaudio.DeviceInfo{
		Name:              "Disconnected HDMI",
		DefaultSampleRate: 48000,
		HostApi:           testALSA,
	}
	return mic, speakers, duplex, none
}

// installFakeLibrary points every library seam at lib for the duration of
// the test and resets the backend singleton around it.
func installFakeLibrary(t *testing.T, lib *fakeLibrary) {
	t.Helper()

	origInit, origTerm := paLibInitialize, paLibTerminate
	origDevices := paLibDevicesFunc
	origDefIn, origDefOut := paLibDefaultInputDeviceFunc, paLibDefaultOutputDeviceFunc
	origHosts := paLibHostApisFunc
	origFormat := paLibIsFormatSupported
	origVersion := paLibVersionText

	paLibInitialize = func() error {
		lib.initCalls++
		return lib.initErr
	}
	paLibTerminate = func() error {
		lib.termCalls++
		return lib.termErr
	}
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		if lib.devicesErr != nil {
			return nil, lib.devicesErr
		}
		return lib.devices, nil
	}
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		if lib.defIn == nil {
			return nil, portaudio.InvalidDevice
		}
		return lib.defIn, nil
	}
	paLibDefaultOutputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		if lib.defOut == nil {
			return nil, portaudio.InvalidDevice
		}
		return lib.defOut, nil
	}
	paLibHostApisFunc = func() ([]*portaudio.HostApiInfo, error) {
		return lib.hosts, nil
	}
	paLibIsFormatSupported = func(p portaudio.StreamParameters, args ...interface{}) error {
		if lib.maxRate > 0 && p.SampleRate > lib.maxRate {
			return portaudio.InvalidSampleRate
		}
		return nil
	}
	paLibVersionText = func() string { return "PortAudio V19.7.0-devel" }

	resetInstance()
	t.Cleanup(func() {
		resetInstance()
		paLibInitialize, paLibTerminate = origInit, origTerm
		paLibDevicesFunc = origDevices
		paLibDefaultInputDeviceFunc, paLibDefaultOutputDeviceFunc = origDefIn, origDefOut
		paLibHostApisFunc = origHosts
		paLibIsFormatSupported = origFormat
		paLibVersionText = origVersion
	})
}

func resetInstance() {
	instanceMu.Lock()
	instance = nil
	instanceMu.Unlock()
}

// newStandardLibrary returns a library with a microphone, speakers, a
// duplex interface and a device with no channels, in that order.
func newStandardLibrary() *fakeLibrary {
	mic, speakers, duplex, none := newTestDevices()
	return &fakeLibrary{
		devices: []*portaudio.DeviceInfo{mic, speakers, duplex, none},
		defIn:   mic,
		defOut:  speakers,
		hosts: []*portaudio.HostApiInfo{
			{
				Name:                "Core Audio",
				DefaultInputDevice:  mic,
				DefaultOutputDevice: speakers,
				Devices:             []*portaudio.DeviceInfo{mic, speakers},
			},
			{
				Name:    "ALSA",
				Devices: []*portaudio.DeviceInfo{duplex, none},
			},
		},
		maxRate: 96000,
	}
}

func mustInstance(t *testing.T) *Backend {
	t.Helper()
	b, err := Instance()
	if err != nil {
		t.Fatalf("Instance() error: %v", err)
	}
	return b
}
