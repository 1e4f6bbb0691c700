// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"audiobackend/internal/transport"
)

/*
Level Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Channel Count     | uint16         | 2            | Number of channels (N)  |
| Peaks             | []float32      | N * 4        | Linear peak per channel |
| RMS               | []float32      | N * 4        | Linear RMS per channel  |
| Flags             | uint8          | 1            | bit0 active, bit1 rec   |
| XRuns             | uint32         | 4            | Overflow/underflow count|
+-----------------------------------------------------------------------------+
*/

const (
	headerSize  = 4 + 8 + 2
	trailerSize = 1 + 4

	flagActive    = 1 << 0
	flagRecording = 1 << 1
)

// Transport sends LevelReports as binary datagrams.
type Transport struct {
	sender *Sender
	mu     sync.Mutex
	buf    bytes.Buffer // Reused for every packet
}

func NewTransport(sender *Sender) *Transport {
	return &Transport{sender: sender}
}

// Send encodes a LevelReport and transmits it. Other types are rejected.
func (t *Transport) Send(data any) error {
	report, ok := data.(transport.LevelReport)
	if !ok {
		return fmt.Errorf("udp: unsupported payload %T", data)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf.Reset()
	if err := EncodeLevelReport(&t.buf, report); err != nil {
		return err
	}
	return t.sender.Send(t.buf.Bytes())
}

func (t *Transport) Close() error {
	return t.sender.Close()
}

// EncodeLevelReport appends the packet form of r to buf. Peak and RMS must
// have the same length.
func EncodeLevelReport(buf *bytes.Buffer, r transport.LevelReport) error {
	if len(r.Peak) != len(r.RMS) {
		return fmt.Errorf("udp: %d peak values but %d rms values", len(r.Peak), len(r.RMS))
	}
	if len(r.Peak) > math.MaxUint16 {
		return fmt.Errorf("udp: too many channels: %d", len(r.Peak))
	}

	var flags uint8
	if r.Active {
		flags |= flagActive
	}
	if r.Recording {
		flags |= flagRecording
	}

	var b [8]byte
	binary.BigEndian.PutUint32(b[:4], r.Sequence)
	buf.Write(b[:4])
	binary.BigEndian.PutUint64(b[:], uint64(r.Timestamp.UnixNano()))
	buf.Write(b[:])
	binary.BigEndian.PutUint16(b[:2], uint16(len(r.Peak)))
	buf.Write(b[:2])

	for _, series := range [][]float64{r.Peak, r.RMS} {
		for _, v := range series {
			binary.BigEndian.PutUint32(b[:4], math.Float32bits(float32(v)))
			buf.Write(b[:4])
		}
	}

	buf.WriteByte(flags)
	xruns := r.XRuns
	if xruns > math.MaxUint32 {
		xruns = math.MaxUint32
	}
	binary.BigEndian.PutUint32(b[:4], uint32(xruns))
	buf.Write(b[:4])
	return nil
}

// DecodeLevelReport parses a packet produced by EncodeLevelReport. Device,
// sample rate and dBFS values are not carried on the wire.
func DecodeLevelReport(packet []byte) (transport.LevelReport, error) {
	var r transport.LevelReport
	if len(packet) < headerSize+trailerSize {
		return r, fmt.Errorf("udp: packet too short: %d bytes", len(packet))
	}

	r.Sequence = binary.BigEndian.Uint32(packet[0:4])
	r.Timestamp = time.Unix(0, int64(binary.BigEndian.Uint64(packet[4:12])))
	n := int(binary.BigEndian.Uint16(packet[12:14]))

	if want := headerSize + n*8 + trailerSize; len(packet) != want {
		return r, fmt.Errorf("udp: packet length %d, want %d for %d channels", len(packet), want, n)
	}

	off := headerSize
	r.Peak = make([]float64, n)
	r.RMS = make([]float64, n)
	for _, series := range [][]float64{r.Peak, r.RMS} {
		for i := range series {
			series[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(packet[off : off+4])))
			off += 4
		}
	}

	flags := packet[off]
	r.Active = flags&flagActive != 0
	r.Recording = flags&flagRecording != 0
	r.XRuns = uint64(binary.BigEndian.Uint32(packet[off+1 : off+5]))
	return r, nil
}

var _ transport.Transport = (*Transport)(nil)
