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

package rewrite

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/recast/pkg/pipeline"
	"github.com/walteh/recast/pkg/source"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📊 Status is what happened to one file
type Status int

const (
	StatusUnknown     Status = iota
	StatusUnchanged          // pipeline finished, buffer identical
	StatusModified           // pipeline finished, file rewritten
	StatusWouldModify        // dry run, file would be rewritten
	StatusGuarded            // skip_if matched, nothing ran
	StatusFailed             // load or a step failed, file untouched
)

// String returns a string representation of Status
func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusModified:
		return "modified"
	case StatusWouldModify:
		return "would modify"
	case StatusGuarded:
		return "already done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 🔧 Options configure an Engine
type Options struct {
	// Pipeline is passed to every run
	Pipeline pipeline.Options

	// DryRun computes the diff instead of writing
	DryRun bool

	// Jobs is how many files RewriteFiles processes at once, values below 1 mean 1
	Jobs int
}

// 📄 FileResult describes one rewritten file
type FileResult struct {
	Path   string
	Status Status
	Report *pipeline.Report

	// Diff is set when the buffer changed and the engine is in dry-run mode
	Diff string

	// Err is the load, step or store failure
	Err error
}

// 🚂 Engine loads a file, runs a pipeline over it and stores the result. A
// file is written only when the pipeline reaches StateDone and the buffer
// changed; on failure the store is never called.
type Engine struct {
	store source.Store
	opts  Options
}

// 🏭 New creates an engine backed by store
func New(store source.Store, opts Options) *Engine {
	return &Engine{
		store: store,
		opts:  opts,
	}
}

// Rewrite transforms a single file. The returned result is never nil, and
// carries the same error the function returns.
func (e *Engine) Rewrite(ctx context.Context, path string, p *pipeline.Pipeline) (*FileResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("path", path).Logger()
	res := &FileResult{Path: path, Status: StatusFailed}

	fail := func(err error) (*FileResult, error) {
		res.Err = err
		return res, err
	}

	text, err := e.store.Load(ctx, path)
	if err != nil {
		return fail(errors.Errorf("loading %s: %w", path, err))
	}

	report, err := pipeline.Run(logger.WithContext(ctx), p, text, e.opts.Pipeline)
	res.Report = report
	if err != nil {
		logger.Debug().Err(err).Msg("pipeline failed, leaving file untouched")
		return fail(errors.Errorf("rewriting %s: %w", path, err))
	}

	switch {
	case report.Guarded:
		res.Status = StatusGuarded
		return res, nil
	case !report.Changed():
		res.Status = StatusUnchanged
		return res, nil
	}

	if e.opts.DryRun {
		res.Status = StatusWouldModify
		res.Diff = Diff(path, report.Input, report.Output)
		return res, nil
	}

	if err := e.store.Store(ctx, path, report.Output); err != nil {
		return fail(errors.Errorf("storing %s: %w", path, err))
	}

	logger.Debug().Int("before", len(report.Input)).Int("after", len(report.Output)).Msg("file rewritten")
	res.Status = StatusModified
	return res, nil
}

// RewriteFiles runs Rewrite over paths with up to Options.Jobs files in
// flight. Each file is rewritten atomically on its own. The first failure
// stops files that have not started yet; files already written stay written.
// Results are returned in path order for every file that started.
func (e *Engine) RewriteFiles(ctx context.Context, paths []string, p *pipeline.Pipeline) ([]*FileResult, error) {
	jobs := e.opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	results := make([]*FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := e.Rewrite(gctx, path, p)
			results[i] = res
			return err
		})
	}

	err := g.Wait()

	started := make([]*FileResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			started = append(started, r)
		}
	}
	return started, err
}
