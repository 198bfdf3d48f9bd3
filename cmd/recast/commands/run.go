// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/recast/cmd/recast/opts"
	"github.com/walteh/recast/pkg/edit"
	"github.com/walteh/recast/pkg/log"
	"github.com/walteh/recast/pkg/pipeline"
	"github.com/walteh/recast/pkg/rewrite"
	"github.com/walteh/recast/pkg/source"
	"gitlab.com/tozd/go/errors"
)

// runFlags are the flags shared by apply and check
type runFlags struct {
	dryRun        bool
	strict        bool
	backup        bool
	warnAmbiguous bool
	jobs          int
}

func (f *runFlags) register(cmd *cobra.Command, withWrites bool) {
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail when a literal replacement finds nothing")
	cmd.Flags().BoolVar(&f.warnAmbiguous, "warn-ambiguous", false, "warn when a pattern matches more than once")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 1, "number of files to process at once")
	if withWrites {
		cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "print a diff instead of writing")
		cmd.Flags().BoolVar(&f.backup, "backup", false, "keep a .bak copy of every rewritten file")
	}
}

// runPipeline loads the pipeline file, selects files and rewrites them. Paths
// given on the command line resolve against the working directory; otherwise
// the file's target and files globs resolve against its own directory.
func runPipeline(ctx context.Context, o *opts.RootOpts, args []string, f runFlags) ([]*rewrite.FileResult, error) {
	cfg, err := o.LoadConfig(ctx)
	if err != nil {
		return nil, err
	}

	p, err := cfg.Pipeline()
	if err != nil {
		return nil, errors.Errorf("building pipeline: %w", err)
	}

	pOpts := cfg.Options()
	pOpts.Strict = pOpts.Strict || f.strict
	pOpts.WarnAmbiguous = pOpts.WarnAmbiguous || f.warnAmbiguous

	baseDir, include := cfg.Dir(), cfg.Paths()
	if len(args) > 0 {
		baseDir, include = ".", args
	}
	if len(include) == 0 {
		return nil, errors.Errorf("no files to rewrite: pass paths or set target or files in %s", o.ConfigFile)
	}

	paths, err := rewrite.Expand(os.DirFS(baseDir), include, cfg.Exclude)
	if err != nil {
		return nil, errors.Errorf("selecting files: %w", err)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no files matched %v", include)
	}

	store := source.NewFileStore(baseDir)
	store.Backup = f.backup

	engine := rewrite.New(store, rewrite.Options{
		Pipeline: pOpts,
		DryRun:   f.dryRun,
		Jobs:     f.jobs,
	})

	logger := log.FromContext(ctx)

	logger.StartRun(ctx, log.RunHeader{Pipeline: p.Name, Files: len(paths), DryRun: f.dryRun})
	results, runErr := engine.RewriteFiles(ctx, paths, p)
	report(ctx, o, logger, results)
	logger.EndRun(ctx)

	return results, runErr
}

// report prints one line per file, its steps, diffs and failures, then the summary
func report(ctx context.Context, o *opts.RootOpts, logger *log.Logger, results []*rewrite.FileResult) {
	rows := make([]log.SummaryRow, 0, len(results))

	for _, res := range results {
		line := log.FileLine{
			Path:      res.Path,
			Status:    res.Status.String(),
			IsChanged: res.Status == rewrite.StatusModified || res.Status == rewrite.StatusWouldModify,
			IsFailed:  res.Status == rewrite.StatusFailed,
			IsGuarded: res.Status == rewrite.StatusGuarded,
		}
		row := log.SummaryRow{Path: res.Path, Status: res.Status.String()}

		if res.Report != nil {
			line.Applied = res.Report.Count(edit.OutcomeApplied)
			row.Applied = line.Applied
			row.Unchanged = res.Report.Count(edit.OutcomeUnchanged)
			row.Skipped = res.Report.Count(edit.OutcomeSkipped)
		}

		logger.LogFile(ctx, line)

		if res.Report != nil && !res.Report.Guarded {
			for _, s := range res.Report.Steps {
				logger.LogStep(ctx, log.StepLine{
					Index:   s.Index,
					Name:    s.Name,
					Outcome: s.Outcome.String(),
					Matches: s.Matches,
					Err:     s.Err,
				})
			}
		}

		if res.Diff != "" {
			logger.LogDiff(res.Diff)
		}

		if res.Err != nil {
			o.UserLogger.LogFailure(failureFor(res))
		}

		rows = append(rows, row)
	}

	logger.LogNewline()
	if err := o.UserLogger.Summary(rows); err != nil {
		logger.Warningf("rendering summary: %v", err)
	}
}

func failureFor(res *rewrite.FileResult) log.Failure {
	f := log.Failure{Path: res.Path, Step: -1, Err: res.Err}

	var se *pipeline.StepError
	if errors.As(res.Err, &se) {
		f.Step = se.Index
		f.Name = se.Name
		f.Pattern = se.Pattern.String()
		f.Err = se.Err
	}
	return f
}
