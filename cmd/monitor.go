// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"audiobackend/internal/audio"
	"audiobackend/internal/config"
	applog "audiobackend/internal/log"
	"audiobackend/internal/transport"
	"audiobackend/internal/transport/udp"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// monitorFlags mirrors the config values monitor can override. A flag only
// replaces the configured value when it was set on the command line.
type monitorFlags struct {
	device          int
	deviceName      string
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	record          bool
	output          string
	bitDepth        int
	maxDuration     int
	gateThreshold   float64
	noGate          bool
	udp             bool
	udpTarget       string
	ws              bool
	wsAddress       string
	duration        time.Duration
}

func newMonitorCmd(opts *options) *cobra.Command {
	var mf *monitorFlags

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Meter an input device and optionally record or publish its levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mf.apply(cmd.Flags(), opts.cfg)
			if err := opts.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return withBackend(func(b *audio.Backend) error {
				return runMonitor(cmd, opts.cfg, b, mf.duration)
			})
		},
	}

	mf = newMonitorFlags(monitorCmd.Flags())
	return monitorCmd
}

// newMonitorFlags registers the monitor flags on f.
func newMonitorFlags(f *pflag.FlagSet) *monitorFlags {
	mf := &monitorFlags{}

	// Audio Device Configuration
	f.IntVarP(&mf.device, "device", "d", config.DefaultInputDevice,
		"Input device ID, -1 for the default. Use 'list' to see available devices.")
	f.StringVar(&mf.deviceName, "device-name", "",
		"Input device name; takes precedence over --device")
	f.IntVarP(&mf.channels, "channels", "c", config.DefaultInputChannels,
		"Number of channels to monitor (1=mono, 2=stereo)")
	f.Float64VarP(&mf.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	f.IntVarP(&mf.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	f.BoolVarP(&mf.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use the device's low latency setting")

	// Recording Configuration
	f.BoolVarP(&mf.record, "record", "r", false,
		"Record audio from the input device")
	f.StringVarP(&mf.output, "output", "o", "",
		"Output file name. Default is <output_dir>/recording-DD-MM-YYYY-HHMMSS.wav")
	f.IntVar(&mf.bitDepth, "bit-depth", config.DefaultBitDepth,
		"Recording bit depth (16, 24 or 32)")
	f.IntVar(&mf.maxDuration, "max-duration", 0,
		"Stop recording after this many seconds, 0 for unlimited")

	// Gate Configuration
	f.Float64Var(&mf.gateThreshold, "gate-threshold", config.DefaultGateThreshold,
		"Noise gate threshold as a fraction of full scale")
	f.BoolVar(&mf.noGate, "no-gate", false,
		"Disable the noise gate")

	// Transport Configuration
	f.BoolVar(&mf.udp, "udp", false, "Publish level packets over UDP")
	f.StringVar(&mf.udpTarget, "udp-target", config.DefaultUDPTargetAddress,
		"UDP target address (host:port)")
	f.BoolVar(&mf.ws, "ws", false, "Serve level reports over WebSocket")
	f.StringVar(&mf.wsAddress, "ws-address", config.DefaultWSAddress,
		"WebSocket listen address")

	f.DurationVar(&mf.duration, "duration", 0,
		"Stop monitoring after this long, 0 to run until interrupted")

	return mf
}

// apply copies every explicitly set flag into cfg.
func (mf *monitorFlags) apply(flags *pflag.FlagSet, cfg *config.Config) {
	set := flags.Changed

	if set("device") {
		cfg.Audio.InputDevice = mf.device
	}
	if set("device-name") {
		cfg.Audio.InputDeviceName = mf.deviceName
	}
	if set("channels") {
		cfg.Audio.InputChannels = mf.channels
	}
	if set("sample-rate") {
		cfg.Audio.SampleRate = mf.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = mf.framesPerBuffer
	}
	if set("low-latency") {
		cfg.Audio.LowLatency = mf.lowLatency
	}
	if set("record") {
		cfg.Recording.Enabled = mf.record
	}
	if set("output") {
		cfg.Recording.OutputFile = mf.output
	}
	if set("bit-depth") {
		cfg.Recording.BitDepth = mf.bitDepth
	}
	if set("max-duration") {
		cfg.Recording.MaxDuration = mf.maxDuration
	}
	if set("gate-threshold") {
		cfg.Gate.Threshold = mf.gateThreshold
	}
	if set("no-gate") {
		cfg.Gate.Enabled = !mf.noGate
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = mf.udp
	}
	if set("udp-target") {
		cfg.Transport.UDPTargetAddress = mf.udpTarget
	}
	if set("ws") {
		cfg.Transport.WSEnabled = mf.ws
	}
	if set("ws-address") {
		cfg.Transport.WSAddress = mf.wsAddress
	}
}

func runMonitor(cmd *cobra.Command, cfg *config.Config, b *audio.Backend, duration time.Duration) error {
	engine, err := audio.NewEngine(b, cfg)
	if err != nil {
		return err
	}

	transports, err := monitorTransports(cmd.OutOrStdout(), cfg)
	if err != nil {
		return err
	}

	publisher, err := transport.NewPublisher(cfg.Transport.UDPSendInterval, engine, transports...)
	if err != nil {
		closeTransports(transports)
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			applog.Errorf("monitor: closing transports: %v", err)
		}
	}()

	if err := engine.StartInputStream(); err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			applog.Errorf("monitor: closing engine: %v", err)
		}
	}()

	recording := ""
	if cfg.Recording.Enabled {
		recording = cfg.Recording.OutputFile
		if recording == "" {
			recording = audio.RecordingFilename(cfg.Recording.OutputDir, time.Now())
		}
		if err := engine.StartRecording(recording); err != nil {
			return err
		}
	}

	publisher.Start()

	var timeout <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-cmd.Context().Done():
	case <-timeout:
	}

	if err := publisher.Stop(); err != nil {
		return err
	}
	if recording != "" {
		if err := engine.StopRecording(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nRecording saved to: %s\n", recording)
	}
	return nil
}

// monitorTransports builds the configured transports. The console meter is
// always present.
func monitorTransports(w io.Writer, cfg *config.Config) ([]transport.Transport, error) {
	transports := []transport.Transport{newConsoleMeter(w)}

	if cfg.Debug {
		transports = append(transports, transport.NewLoggingTransport())
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			closeTransports(transports)
			return nil, err
		}
		transports = append(transports, udp.NewTransport(sender))
	}

	if cfg.Transport.WSEnabled {
		wst := transport.NewWebSocketTransport(cfg.Transport.WSAddress)
		if err := wst.Start(); err != nil {
			wst.Close()
			closeTransports(transports)
			return nil, err
		}
		transports = append(transports, wst)
	}

	return transports, nil
}

func closeTransports(transports []transport.Transport) {
	for _, t := range transports {
		t.Close()
	}
}

const meterWidth = 30

// consoleMeter redraws one status line per report.
type consoleMeter struct {
	w io.Writer
}

func newConsoleMeter(w io.Writer) *consoleMeter {
	return &consoleMeter{w: w}
}

func (c *consoleMeter) Send(data any) error {
	r, ok := data.(transport.LevelReport)
	if !ok {
		return fmt.Errorf("console meter: unsupported payload %T", data)
	}
	_, err := fmt.Fprintf(c.w, "\r%s", formatLevels(r))
	return err
}

func (c *consoleMeter) Close() error {
	return nil
}

// formatLevels renders a report as one bar per channel, scaled from
// audio.MinDBFS to 0 dBFS.
func formatLevels(r transport.LevelReport) string {
	var sb strings.Builder
	for i, db := range r.PeakDBFS {
		filled := int((db - audio.MinDBFS) / -audio.MinDBFS * meterWidth)
		filled = max(0, min(meterWidth, filled))
		fmt.Fprintf(&sb, "ch%d [%s%s] %6.1f dBFS  ", i+1,
			strings.Repeat("#", filled), strings.Repeat(" ", meterWidth-filled), db)
	}

	gate := "-"
	if r.Active {
		gate = "active"
	}
	sb.WriteString(gate)
	if r.Recording {
		sb.WriteString(" REC")
	}
	if r.XRuns > 0 {
		fmt.Fprintf(&sb, " xruns=%d", r.XRuns)
	}
	return sb.String()
}

var _ transport.Transport = (*consoleMeter)(nil)
