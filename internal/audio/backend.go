// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"strings"
	"sync"

	"audiobackend/internal/config"
	applog "audiobackend/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Backend is the process-wide handle on an initialized PortAudio library.
// Obtain it with Instance and release it with Shutdown.
type Backend struct {
	mu         sync.Mutex
	numDevices int
	numInputs  int
	numOutputs int
}

// HostAPI describes one of the host audio APIs PortAudio was built with.
type HostAPI struct {
	Name          string
	Type          portaudio.HostApiType
	DeviceCount   int
	DefaultInput  string
	DefaultOutput string
}

var (
	instanceMu sync.Mutex
	instance   *Backend
)

// Instance returns the shared Backend, initializing PortAudio and taking
// the device counts on first use. A failed initialization leaves no
// instance behind, so a later call retries.
func Instance() (*Backend, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}

	if err := Initialize(); err != nil {
		return nil, err
	}

	b := &Backend{}
	if err := b.Refresh(); err != nil {
		if termErr := Terminate(); termErr != nil {
			applog.Warnf("backend: terminate after failed enumeration: %v", termErr)
		}
		return nil, err
	}

	applog.Infof("backend initialized: %d audio devices (%d output, %d input)",
		b.numDevices, b.numOutputs, b.numInputs)

	instance = b
	return b, nil
}

// Shutdown terminates PortAudio and discards the shared Backend. It is a
// no-op when no Backend exists.
func Shutdown() error {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		return nil
	}
	instance = nil

	if err := Terminate(); err != nil {
		return err
	}
	applog.Infof("backend terminated")
	return nil
}

// Refresh re-enumerates the devices and updates the cached counts.
func (b *Backend) Refresh() error {
	total, inputs, outputs, err := countDevices()
	if err != nil {
		return fmt.Errorf("failed to enumerate devices: %w", err)
	}

	b.mu.Lock()
	b.numDevices, b.numInputs, b.numOutputs = total, inputs, outputs
	b.mu.Unlock()
	return nil
}

// NumDevices returns the number of devices seen at the last enumeration.
func (b *Backend) NumDevices() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.numDevices
}

// NumInputDevices returns the number of devices with input channels.
func (b *Backend) NumInputDevices() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.numInputs
}

// NumOutputDevices returns the number of devices with output channels.
func (b *Backend) NumOutputDevices() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.numOutputs
}

// AllDevices returns every device in enumeration order.
func (b *Backend) AllDevices() ([]Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return enumerate(nil)
}

// InputDevices returns the devices that can capture audio.
func (b *Backend) InputDevices() ([]Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return enumerate(Device.IsInput)
}

// OutputDevices returns the devices that can play audio.
func (b *Backend) OutputDevices() ([]Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return enumerate(Device.IsOutput)
}

// Device returns the device at index. The index must be less than the
// number of enumerated devices.
func (b *Backend) Device(index int) (Device, error) {
	devices, err := b.AllDevices()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.ID == index {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %d", ErrInvalidDevice, index)
}

// DeviceByName looks a device up by exact name, falling back to a
// case-insensitive match.
func (b *Backend) DeviceByName(name string) (Device, error) {
	devices, err := b.AllDevices()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	for _, d := range devices {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Device{}, &DeviceNotFoundError{Name: name}
}

// DefaultInputDevice returns the host's default input device.
func (b *Backend) DefaultInputDevice() (Device, error) {
	return b.defaultDevice(Device.IsDefaultInput)
}

// DefaultOutputDevice returns the host's default output device.
func (b *Backend) DefaultOutputDevice() (Device, error) {
	return b.defaultDevice(Device.IsDefaultOutput)
}

func (b *Backend) defaultDevice(isDefault func(Device) bool) (Device, error) {
	devices, err := b.AllDevices()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if isDefault(d) {
			return d, nil
		}
	}
	return Device{}, &DeviceNotFoundError{}
}

// HostAPIs lists the host APIs available to PortAudio.
func (b *Backend) HostAPIs() ([]HostAPI, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	apis, err := paLibHostApisFunc()
	if err != nil {
		return nil, Check(err)
	}

	hosts := make([]HostAPI, 0, len(apis))
	for _, api := range apis {
		if api == nil {
			continue
		}
		h := HostAPI{Name: api.Name, Type: api.Type, DeviceCount: len(api.Devices)}
		if api.DefaultInputDevice != nil {
			h.DefaultInput = api.DefaultInputDevice.Name
		}
		if api.DefaultOutputDevice != nil {
			h.DefaultOutput = api.DefaultOutputDevice.Name
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// CheckFormat reports whether dev can open a stream in the given direction
// with channels channels at rate Hz. A nil result means supported.
func (b *Backend) CheckFormat(dev Device, input bool, channels int, rate float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	info, err := deviceInfo(dev.ID)
	if err != nil {
		return err
	}

	params := portaudio.StreamParameters{SampleRate: rate}
	if input {
		params.Input = portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: channels,
			Latency:  info.DefaultHighInputLatency,
		}
		return Check(paLibIsFormatSupported(params, func(in []int32) {}))
	}

	params.Output = portaudio.StreamDeviceParameters{
		Device:   info,
		Channels: channels,
		Latency:  info.DefaultHighOutputLatency,
	}
	return Check(paLibIsFormatSupported(params, func(out []int32) {}))
}

// SupportedSampleRates returns the standard sample rates dev accepts in
// the given direction using a single channel.
func (b *Backend) SupportedSampleRates(dev Device, input bool) []float64 {
	if (input && !dev.IsInput()) || (!input && !dev.IsOutput()) {
		return nil
	}

	var rates []float64
	for _, rate := range config.StandardSampleRates {
		if err := b.CheckFormat(dev, input, 1, rate); err == nil {
			rates = append(rates, rate)
		}
	}
	return rates
}

// Version returns the PortAudio version string.
func (b *Backend) Version() string {
	return paLibVersionText()
}
