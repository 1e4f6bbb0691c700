// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"

	"audiobackend/internal/decode"

	"github.com/spf13/cobra"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file.wav>...",
		Short: "Report the format and length of WAV files",
		Args:  cobra.MinimumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var firstErr error
			for _, path := range args {
				info, err := decode.Probe(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
					if firstErr == nil {
						firstErr = err
					}
					continue
				}
				printWAVInfo(cmd.OutOrStdout(), info)
			}
			return firstErr
		},
	}
}

func printWAVInfo(w io.Writer, info *decode.Info) {
	fmt.Fprintf(w, "%s\n", info.Path)
	fmt.Fprintf(w, "    Format:   %d Hz, %d-bit, %d ch\n", info.SampleRate, info.BitDepth, info.Channels)
	fmt.Fprintf(w, "    Frames:   %d (%d PCM bytes)\n", info.Frames, info.PCMBytes)
	fmt.Fprintf(w, "    Duration: %s\n", info.Duration)
}
