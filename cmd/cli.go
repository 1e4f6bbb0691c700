// SPDX-License-Identifier: MIT
//
// Package cmd implements the abk command line.
package cmd

import (
	"context"
	"fmt"

	"audiobackend/internal/audio"
	"audiobackend/internal/config"
	applog "audiobackend/internal/log"
	"audiobackend/pkg/build"

	"github.com/spf13/cobra"
)

// options holds the global flags shared by every command.
type options struct {
	configPath string
	verbose    bool

	cfg *config.Config
}

// Execute builds the command tree and runs it with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd returns the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to a YAML config file (default ./config.yaml when present)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.AddCommand(
		newListCmd(),
		newInfoCmd(),
		newHostsCmd(),
		newTUICmd(),
		newMonitorCmd(opts),
		newProbeCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// load reads the configuration and applies the log level. --verbose wins
// over the configured level.
func (o *options) load() error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg

	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		applog.Warnf("configuration: unknown log level %q, using %s", cfg.LogLevel, level)
	}
	if cfg.Debug || o.verbose {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
	return nil
}

// withBackend runs fn against the PortAudio backend and shuts the backend
// down afterwards.
func withBackend(fn func(b *audio.Backend) error) error {
	b, err := audio.Instance()
	if err != nil {
		return err
	}
	defer func() {
		if err := audio.Shutdown(); err != nil {
			applog.Errorf("%v", err)
		}
	}()
	return fn(b)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build and PortAudio version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), build.GetBuildFlags().VersionString())
			return withBackend(func(b *audio.Backend) error {
				fmt.Fprintln(cmd.OutOrStdout(), b.Version())
				return nil
			})
		},
	}
}
