// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	applog "audiobackend/internal/log"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("configuration: loaded %s", path)
	}

	// Environment overrides apply after the file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against the hardware and processing limits.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d out of range (0, %d]",
			c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.InputChannels < 1 {
		return fmt.Errorf("audio.input_channels must be at least 1, got %d", c.Audio.InputChannels)
	}
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device %d is invalid (use -1 for the default device)", c.Audio.InputDevice)
	}

	switch c.Recording.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("recording.bit_depth must be 16, 24 or 32, got %d", c.Recording.BitDepth)
	}
	if c.Recording.MaxDuration < 0 {
		return fmt.Errorf("recording.max_duration_seconds must not be negative")
	}

	if c.Gate.Threshold < 0 || c.Gate.Threshold > 1 {
		return fmt.Errorf("gate.threshold %.4f out of range [0, 1]", c.Gate.Threshold)
	}

	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WSEnabled && c.Transport.WSAddress == "" {
		return fmt.Errorf("transport.ws_address must be set when WebSocket is enabled")
	}

	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			applog.Debugf("configuration: overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Debugf("configuration: overriding log_level from env: %s", val)
	}

	// ENV_INPUT_DEVICE
	if val, ok := os.LookupEnv("ENV_INPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = iVal
			applog.Debugf("configuration: overriding audio.input_device from env: %d", iVal)
		}
	}
	// ENV_SAMPLE_RATE
	if val, ok := os.LookupEnv("ENV_SAMPLE_RATE"); ok {
		if fVal, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.SampleRate = fVal
			applog.Debugf("configuration: overriding audio.sample_rate from env: %.0f", fVal)
		}
	}

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			applog.Debugf("configuration: overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		applog.Debugf("configuration: overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			applog.Debugf("configuration: overriding transport.udp_send_interval from env: %s", dur)
		}
	}
	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WSEnabled = bVal
			applog.Debugf("configuration: overriding transport.ws_enabled from env: %v", bVal)
		}
	}
}
