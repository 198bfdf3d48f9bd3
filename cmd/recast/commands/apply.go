package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/recast/cmd/recast/opts"
	"github.com/walteh/recast/pkg/log"
	"github.com/walteh/recast/pkg/rewrite"
)

// NewApplyCmd creates a new apply command
func NewApplyCmd(opts *opts.RootOpts) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "apply [path...]",
		Short: "Run the pipeline and rewrite files",
		Long: `Apply runs every step of the pipeline over each selected file.
It will:
1. Load the pipeline file and validate every step
2. Select the given paths, or the file's target and files globs
3. Run the steps in order over each file
4. Write a file only if every step succeeded and the text changed

A failed step leaves its file exactly as it was.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			results, err := runPipeline(ctx, opts, args, flags)
			if err != nil {
				return err
			}

			logger := log.FromContext(ctx)

			changed := 0
			for _, r := range results {
				if r.Status == rewrite.StatusModified || r.Status == rewrite.StatusWouldModify {
					changed++
				}
			}

			switch {
			case flags.dryRun && changed > 0:
				logger.Infof("%d of %d files would change", changed, len(results))
			case flags.dryRun:
				logger.Success("nothing to change")
			case changed > 0:
				logger.Successf("rewrote %d of %d files", changed, len(results))
			default:
				logger.Success("all files already up to date")
			}
			return nil
		},
	}

	flags.register(cmd, true)

	return cmd
}
