// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	applog "audiobackend/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type writeSeekCloser interface {
	io.WriteSeeker
	io.Closer
}

// RecordingFilename builds a timestamped WAV path inside dir.
func RecordingFilename(dir string, now time.Time) string {
	return filepath.Join(dir, "recording-"+now.UTC().Format("02-01-2006-150405")+".wav")
}

// StartRecording begins writing the input stream to a WAV file at the
// configured bit depth.
func (e *Engine) StartRecording(filename string) error {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.wavEncoder != nil {
		return fmt.Errorf("already recording")
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	channels := e.config.Audio.InputChannels
	sampleRate := int(e.config.Audio.SampleRate)
	bitDepth := e.config.Recording.BitDepth

	e.outputFile = file
	e.wavEncoder = wav.NewEncoder(file, sampleRate, bitDepth, channels, 1)
	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, e.config.Audio.FramesPerBuffer*channels),
		SourceBitDepth: bitDepth,
	}
	e.sampleShift = uint(32 - bitDepth)
	e.framesWritten = 0
	e.maxFrames = int64(e.config.Recording.MaxDuration) * int64(sampleRate)
	e.writeFailures = 0

	e.isRecording.Store(true)

	applog.Infof("engine: recording to %s (%d-bit, %d ch, %d Hz)", filename, bitDepth, channels, sampleRate)
	return nil
}

// StopRecording finalizes the WAV header and closes the file. It is a
// no-op when not recording.
func (e *Engine) StopRecording() error {
	e.isRecording.Store(false)

	e.recMu.Lock()
	defer e.recMu.Unlock()

	return e.finishRecording()
}

// finishRecording finalizes and releases the current WAV file, if any.
// Called with recMu held.
func (e *Engine) finishRecording() error {
	if e.wavEncoder == nil {
		return nil
	}

	encErr := e.wavEncoder.Close()
	e.wavEncoder = nil

	fileErr := e.outputFile.Close()
	e.outputFile = nil

	if encErr != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close WAV file: %w", fileErr)
	}

	applog.Infof("engine: recording stopped after %d frames", e.framesWritten)
	return nil
}

// IsRecording reports whether input is being written to a file.
func (e *Engine) IsRecording() bool {
	return e.isRecording.Load()
}

// writeBlock encodes one interleaved block. Called with recMu held.
func (e *Engine) writeBlock(buffer []int32) {
	if e.wavEncoder == nil {
		return
	}

	channels := e.config.Audio.InputChannels
	frames := int64(len(buffer) / channels)
	if e.maxFrames > 0 {
		if remaining := e.maxFrames - e.framesWritten; remaining < frames {
			frames = remaining
		}
	}
	samples := int(frames) * channels

	if cap(e.sampleBuf.Data) < samples {
		samples = cap(e.sampleBuf.Data)
		frames = int64(samples / channels)
	}
	e.sampleBuf.Data = e.sampleBuf.Data[:samples]
	for i := 0; i < samples; i++ {
		e.sampleBuf.Data[i] = int(buffer[i] >> e.sampleShift)
	}

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		e.writeFailures++
		if e.writeFailures >= maxConsecutiveWriteFailures {
			applog.Errorf("engine: stopping recording after %d write failures: %v", e.writeFailures, err)
			e.stopSelf()
		}
		return
	}
	e.writeFailures = 0
	e.framesWritten += frames

	if e.maxFrames > 0 && e.framesWritten >= e.maxFrames {
		e.stopSelf()
	}
}

// stopSelf ends a recording from the callback so the file is complete
// without waiting for StopRecording. Called with recMu held.
func (e *Engine) stopSelf() {
	e.isRecording.Store(false)
	if err := e.finishRecording(); err != nil {
		applog.Errorf("engine: %v", err)
	}
}
