// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Library entry points. Tests replace these to run without audio hardware.
var (
	paLibInitialize              = portaudio.Initialize
	paLibTerminate               = portaudio.Terminate
	paLibDevicesFunc             = portaudio.Devices
	paLibDefaultInputDeviceFunc  = portaudio.DefaultInputDevice
	paLibDefaultOutputDeviceFunc = portaudio.DefaultOutputDevice
	paLibHostApisFunc            = portaudio.HostApis
	paLibIsFormatSupported       = portaudio.IsFormatSupported
	paLibVersionText             = portaudio.VersionText
)

// Initialize sets up the PortAudio subsystem.
// Every successful call must be paired with a Terminate() call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", Check(err))
	}
	return nil
}

// Terminate shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", Check(err))
	}
	return nil
}

// paDevices returns all PortAudio devices in enumeration order.
// A nil result from the library is normalized to an empty slice.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, Check(err)
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}

// paDefaults returns the default input and output devices. Either may be
// nil when the host has no such default.
func paDefaults() (in, out *portaudio.DeviceInfo) {
	if dev, err := paLibDefaultInputDeviceFunc(); err == nil {
		in = dev
	}
	if dev, err := paLibDefaultOutputDeviceFunc(); err == nil {
		out = dev
	}
	return in, out
}

// enumerate converts the library's device list into Device snapshots,
// keeping only those accepted by keep (all when keep is nil).
func enumerate(keep func(Device) bool) ([]Device, error) {
	infos, err := paDevices()
	if err != nil {
		return nil, err
	}
	defIn, defOut := paDefaults()

	devices := make([]Device, 0, len(infos))
	for i, info := range infos {
		if info == nil {
			continue
		}
		d := newDevice(i, info, defIn, defOut)
		if keep == nil || keep(d) {
			devices = append(devices, d)
		}
	}
	return devices, nil
}

// countDevices returns the total, input and output device counts.
func countDevices() (total, inputs, outputs int, err error) {
	devices, err := enumerate(nil)
	if err != nil {
		return 0, 0, 0, err
	}
	for _, d := range devices {
		if d.IsInput() {
			inputs++
		}
		if d.IsOutput() {
			outputs++
		}
	}
	return len(devices), inputs, outputs, nil
}

// deviceInfo returns the library descriptor for the device at index.
func deviceInfo(index int) (*portaudio.DeviceInfo, error) {
	infos, err := paDevices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(infos) || infos[index] == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDevice, index)
	}
	return infos[index], nil
}
