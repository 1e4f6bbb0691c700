// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"audiobackend/internal/audio"
	"audiobackend/internal/tui"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var inputs, outputs bool

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(func(b *audio.Backend) error {
				var (
					devices []audio.Device
					err     error
				)
				switch {
				case inputs && !outputs:
					devices, err = b.InputDevices()
				case outputs && !inputs:
					devices, err = b.OutputDevices()
				default:
					devices, err = b.AllDevices()
				}
				if err != nil {
					return err
				}

				printDevices(cmd.OutOrStdout(), devices)
				return nil
			})
		},
	}

	listCmd.Flags().BoolVarP(&inputs, "inputs", "i", false, "Only list input devices")
	listCmd.Flags().BoolVarP(&outputs, "outputs", "o", false, "Only list output devices")
	return listCmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <index|name>",
		Short: "Show the properties of one audio device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(func(b *audio.Backend) error {
				dev, err := lookupDevice(b, args[0])
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				printDeviceInfo(w, dev)
				if dev.IsInput() {
					printRates(w, "Input sample rates", b.SupportedSampleRates(dev, true))
				}
				if dev.IsOutput() {
					printRates(w, "Output sample rates", b.SupportedSampleRates(dev, false))
				}
				return nil
			})
		},
	}
}

func newHostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "List PortAudio host APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(func(b *audio.Backend) error {
				hosts, err := b.HostAPIs()
				if err != nil {
					return err
				}
				printHostAPIs(cmd.OutOrStdout(), hosts)
				return nil
			})
		},
	}
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse audio devices interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(func(b *audio.Backend) error {
				return tui.StartDeviceListUI(b)
			})
		},
	}
}

// lookupDevice resolves a device by enumeration index or by name.
func lookupDevice(b *audio.Backend, arg string) (audio.Device, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		return b.Device(id)
	}
	return b.DeviceByName(arg)
}

func ms(d time.Duration) float64 {
	return d.Seconds() * 1000
}

func defaultMarker(dev audio.Device) string {
	if dev.IsDefaultInput() || dev.IsDefaultOutput() {
		return "*"
	}
	return " "
}

func printDevices(w io.Writer, devices []audio.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No audio devices found.")
		return
	}

	fmt.Fprintf(w, "\nAvailable Audio Devices\n\n")

	for _, device := range devices {
		fmt.Fprintf(w, "%s[%d] %s (%s)\n", defaultMarker(device), device.ID, device.Name, device.Kind())
		fmt.Fprintf(w, "    Host API: %s\n", device.HostAPI)
		fmt.Fprintf(w, "    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		if device.IsInput() {
			fmt.Fprintf(w, "    Input latency: Low=%.2fms, High=%.2fms\n",
				ms(device.DefaultLowInputLatency), ms(device.DefaultHighInputLatency))
		}
		if device.IsOutput() {
			fmt.Fprintf(w, "    Output latency: Low=%.2fms, High=%.2fms\n",
				ms(device.DefaultLowOutputLatency), ms(device.DefaultHighOutputLatency))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "* default device")
}

func printDeviceInfo(w io.Writer, dev audio.Device) {
	var defaults []string
	if dev.IsDefaultInput() {
		defaults = append(defaults, "input")
	}
	if dev.IsDefaultOutput() {
		defaults = append(defaults, "output")
	}
	def := "no"
	if len(defaults) > 0 {
		def = strings.Join(defaults, ", ")
	}

	fmt.Fprintf(w, "Device:              [%d] %s\n", dev.ID, dev.Name)
	fmt.Fprintf(w, "Host API:            %s\n", dev.HostAPI)
	fmt.Fprintf(w, "Type:                %s\n", dev.Kind())
	fmt.Fprintf(w, "Default:             %s\n", def)
	fmt.Fprintf(w, "Input channels:      %d\n", dev.MaxInputChannels)
	fmt.Fprintf(w, "Output channels:     %d\n", dev.MaxOutputChannels)
	fmt.Fprintf(w, "Default sample rate: %.0f Hz\n", dev.DefaultSampleRate)
	fmt.Fprintf(w, "Input latency:       Low=%.2fms, High=%.2fms\n",
		ms(dev.DefaultLowInputLatency), ms(dev.DefaultHighInputLatency))
	fmt.Fprintf(w, "Output latency:      Low=%.2fms, High=%.2fms\n",
		ms(dev.DefaultLowOutputLatency), ms(dev.DefaultHighOutputLatency))
}

func printRates(w io.Writer, label string, rates []float64) {
	if len(rates) == 0 {
		fmt.Fprintf(w, "%s: none of the standard rates\n", label)
		return
	}
	parts := make([]string, len(rates))
	for i, r := range rates {
		parts[i] = strconv.FormatFloat(r, 'f', -1, 64)
	}
	fmt.Fprintf(w, "%s: %s Hz\n", label, strings.Join(parts, ", "))
}

func printHostAPIs(w io.Writer, hosts []audio.HostAPI) {
	if len(hosts) == 0 {
		fmt.Fprintln(w, "No host APIs found.")
		return
	}
	for _, h := range hosts {
		fmt.Fprintf(w, "%s (%d devices)\n", h.Name, h.DeviceCount)
		fmt.Fprintf(w, "    Type:           %v\n", h.Type)
		if h.DefaultInput != "" {
			fmt.Fprintf(w, "    Default input:  %s\n", h.DefaultInput)
		}
		if h.DefaultOutput != "" {
			fmt.Fprintf(w, "    Default output: %s\n", h.DefaultOutput)
		}
	}
}
