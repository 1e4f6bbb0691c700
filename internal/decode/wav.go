// SPDX-License-Identifier: MIT
//
// Package decode inspects WAV files and reports decoder failures as typed
// errors.
package decode

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// WAV format tags accepted by Probe.
const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Info describes the PCM stream of a WAV file.
type Info struct {
	Path       string
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int64
	PCMBytes   int64
	Duration   time.Duration
}

// Probe opens the WAV file at path, validates its header and locates the
// PCM data.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Translate("open", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, Translate("open", path, err)
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, &Error{Op: "header", Path: path, Code: CodeNotWAV, Err: d.Err()}
	}

	if d.WavAudioFormat != formatPCM && d.WavAudioFormat != formatExtensible {
		return nil, &Error{
			Op:   "header",
			Path: path,
			Code: CodeUnsupportedEncoding,
			Err:  fmt.Errorf("format tag 0x%04X", d.WavAudioFormat),
		}
	}
	if d.NumChans == 0 || d.BitDepth == 0 || d.SampleRate == 0 {
		return nil, &Error{
			Op:   "header",
			Path: path,
			Code: CodeMalformed,
			Err:  fmt.Errorf("%d channels, %d bits, %d Hz", d.NumChans, d.BitDepth, d.SampleRate),
		}
	}

	if err := d.FwdToPCM(); err != nil {
		return nil, Translate("data", path, err)
	}

	// The riff parser reads f unbuffered, so the cursor sits at the first
	// PCM byte.
	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, Translate("data", path, err)
	}
	pcmBytes := int64(d.PCMSize)
	if remaining := st.Size() - offset; pcmBytes > remaining {
		return nil, &Error{
			Op:   "data",
			Path: path,
			Code: CodeTruncated,
			Err:  fmt.Errorf("data chunk declares %d bytes, %d remain", pcmBytes, remaining),
		}
	}

	info := &Info{
		Path:       path,
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		PCMBytes:   pcmBytes,
	}
	frameBytes := int64(info.Channels) * int64((info.BitDepth+7)/8)
	info.Frames = pcmBytes / frameBytes
	info.Duration = time.Duration(info.Frames) * time.Second / time.Duration(info.SampleRate)
	return info, nil
}
