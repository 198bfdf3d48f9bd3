package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/recast/cmd/recast/opts"
	"github.com/walteh/recast/pkg/log"
	"github.com/walteh/recast/pkg/rewrite"
	"gitlab.com/tozd/go/errors"
)

// ErrWouldChange is returned by check when a file is out of date
var ErrWouldChange = errors.Base("files would change")

// NewCheckCmd creates a new check command
func NewCheckCmd(opts *opts.RootOpts) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Report files the pipeline would change",
		Long: `Check runs the pipeline without writing anything.
It exits non-zero when any file would change or any step fails,
which makes it usable as a CI gate after a migration has landed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			flags.dryRun = true
			results, err := runPipeline(ctx, opts, args, flags)
			if err != nil {
				return err
			}

			var pending []string
			for _, r := range results {
				if r.Status == rewrite.StatusWouldModify {
					pending = append(pending, r.Path)
				}
			}

			logger := log.FromContext(ctx)

			if len(pending) > 0 {
				logger.Errorf("%d of %d files would change", len(pending), len(results))
				return errors.Errorf("%d of %d: %v: %w", len(pending), len(results), pending, ErrWouldChange)
			}

			logger.Successf("%d files up to date", len(results))
			return nil
		},
	}

	flags.register(cmd, false)

	return cmd
}
