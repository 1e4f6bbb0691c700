// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// ErrInvalidDevice is returned for a device index outside [0, NumDevices).
var ErrInvalidDevice = errors.New("invalid device ID")

// PAError carries an error reported by the PortAudio library.
// Code is set when the library returned one of its own error codes.
type PAError struct {
	Code portaudio.Error
	Err  error
}

func (e *PAError) Error() string {
	return "PortAudio error: " + e.Err.Error()
}

func (e *PAError) Unwrap() error {
	return e.Err
}

// Check translates a library error into a *PAError. A nil error stays nil,
// and an error that is already a *PAError is returned unchanged.
func Check(err error) error {
	if err == nil {
		return nil
	}

	var pe *PAError
	if errors.As(err, &pe) {
		return err
	}

	pe = &PAError{Err: err}
	var code portaudio.Error
	if errors.As(err, &code) {
		pe.Code = code
	}
	return pe
}

// IsNotInitialized reports whether err was caused by calling into
// PortAudio before Initialize or after Terminate.
func IsNotInitialized(err error) bool {
	var code portaudio.Error
	return errors.As(err, &code) && code == portaudio.NotInitialized
}

// DeviceNotFoundError is returned when a named device is not present, or,
// with an empty Name, when no usable device exists at all.
type DeviceNotFoundError struct {
	Name string
}

func (e *DeviceNotFoundError) Error() string {
	if e.Name == "" {
		return "no audio device found; make sure a sound card is installed and visible to PortAudio"
	}
	return fmt.Sprintf("audio device %q does not exist", e.Name)
}
