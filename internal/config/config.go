// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the audio backend.
const (
	DefaultLogLevel        = "info"
	DefaultInputDevice     = MinDeviceID // System default input device
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultInputChannels   = 1           // Mono audio
	DefaultLowLatency      = false       // Standard latency mode

	DefaultRecordingDir = "./recordings"
	DefaultBitDepth     = 16

	DefaultGateEnabled   = true
	DefaultGateThreshold = 0.001 // ~0.1% of full scale

	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz
	DefaultWSAddress        = ":8080"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents the system default device
	MinSampleRate   = 8000   // Hz
	MaxSampleRate   = 192000 // Hz
	MaxBufferFrames = 8192
)

// StandardSampleRates are the rates probed when reporting device support.
var StandardSampleRates = []float64{8000, 11025, 16000, 22050, 32000, 44100, 48000, 88200, 96000, 176400, 192000}

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error.
	Audio     AudioConfig     `yaml:"audio"`
	Recording RecordingConfig `yaml:"recording"`
	Gate      GateConfig      `yaml:"gate"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds settings related to audio input and device selection.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for input (-1 for default).
	InputDeviceName string  `yaml:"input_device_name"` // Device name; takes precedence over input_device when set.
	SampleRate      float64 `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per callback.
	LowLatency      bool    `yaml:"low_latency"`       // Use the device's default low latency.
	InputChannels   int     `yaml:"input_channels"`    // 1 for mono, 2 for stereo.
}

// RecordingConfig holds settings related to WAV recording of the input stream.
type RecordingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	OutputDir   string `yaml:"output_dir"`
	OutputFile  string `yaml:"output_file"`          // Explicit file path; generated when empty.
	BitDepth    int    `yaml:"bit_depth"`            // 16, 24 or 32.
	MaxDuration int    `yaml:"max_duration_seconds"` // 0 for unlimited.
}

// GateConfig controls the noise gate used to flag active input.
type GateConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"` // 0.0-1.0 of full scale.
}

// TransportConfig holds settings for publishing level reports.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // host:port
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	WSEnabled        bool          `yaml:"ws_enabled"`
	WSAddress        string        `yaml:"ws_address"` // listen address, e.g. ":8080"
}

// NewConfig creates a Config populated with built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultInputDevice,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultInputChannels,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultBitDepth,
		},
		Gate: GateConfig{
			Enabled:   DefaultGateEnabled,
			Threshold: DefaultGateThreshold,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
			WSAddress:        DefaultWSAddress,
		},
	}
}
