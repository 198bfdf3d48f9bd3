package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/recast/cmd/recast/opts"
)

// NewValidateCmd creates a new validate command
func NewValidateCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the pipeline file without touching any target",
		Long: `Validate parses the pipeline file and checks every step.
It reports unknown fields, unknown step kinds, empty or invalid patterns
and regexes that do not compile. No target file is read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := opts.LoadConfig(ctx)
			if err != nil {
				return err
			}

			if _, err := cfg.Pipeline(); err != nil {
				return err
			}

			opts.UserLogger.LogValidation(true, fmt.Sprintf("%s is valid: %s", opts.ConfigFile, cfg), nil)
			return nil
		},
	}

	return cmd
}
