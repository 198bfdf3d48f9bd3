package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/recast/cmd/recast/commands"
	"github.com/walteh/recast/cmd/recast/opts"
	"github.com/walteh/recast/pkg/log"
)

// newRootCmd builds the command tree writing to out and errOut
func newRootCmd(out, errOut io.Writer) (*cobra.Command, *opts.RootOpts) {
	o := &opts.RootOpts{
		Out:    out,
		ErrOut: errOut,
	}

	rootCmd := &cobra.Command{
		Use:   "recast",
		Short: "Apply ordered text rewrites to source files",
		Long: `recast runs a pipeline of text edits over source files. Each step
replaces a literal, removes a delimited block or swaps a region for new text,
in order, on an in-memory copy. A file is written once, atomically, and only
when every step succeeded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd, o)
			cmd.SetContext(ctx)
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	addRootFlags(rootCmd, o)

	rootCmd.AddCommand(
		commands.NewApplyCmd(o),
		commands.NewCheckCmd(o),
		commands.NewValidateCmd(o),
		newVersionCmd(),
	)

	return rootCmd, o
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", ".recast.yaml", "pipeline file path")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags and attaches the loggers
func setupLogging(cmd *cobra.Command, o *opts.RootOpts) context.Context {
	level := zerolog.WarnLevel
	if o.Debug {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: o.ErrOut}).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	o.UserLogger = log.NewUserLogger(ctx, o.Out, o.ErrOut)

	return log.NewContext(ctx, log.New(o.Out, logger))
}
