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

package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/recast/pkg/edit"
	"github.com/walteh/recast/pkg/match"
	"gitlab.com/tozd/go/errors"
)

// Options control how strictly a run treats missing and ambiguous matches
type Options struct {
	// Strict fails literal replacements that find nothing instead of skipping them
	Strict bool

	// WarnAmbiguous logs a warning when a step picks one of several matches
	WarnAmbiguous bool
}

// 🏃 Runner drives one pipeline over one buffer. It is single use: steps run
// once, in order, and a second Run returns ErrAlreadyRun.
type Runner struct {
	pipeline *Pipeline
	opts     Options
	state    State
	cursor   int
}

// 🏗️ NewRunner creates a runner in StateReady
func NewRunner(p *Pipeline, opts Options) *Runner {
	return &Runner{
		pipeline: p,
		opts:     opts,
		state:    StateReady,
	}
}

// State returns the current lifecycle state
func (r *Runner) State() State {
	return r.state
}

// Cursor returns the index of the next step to run, or the failing step after StateFailed
func (r *Runner) Cursor() int {
	return r.cursor
}

// Run folds the pipeline over buffer. On success the report is in StateDone
// and carries the final buffer. On the first fatal step the runner moves to
// StateFailed, no later step runs, and the error is a *StepError.
func (r *Runner) Run(ctx context.Context, buffer string) (*Report, error) {
	if r.pipeline == nil {
		return nil, errors.New("pipeline is nil")
	}
	if r.state != StateReady {
		return nil, errors.Errorf("running pipeline %q: %w", r.pipeline.Name, ErrAlreadyRun)
	}

	logger := zerolog.Ctx(ctx).With().Str("pipeline", r.pipeline.Name).Logger()

	r.state = StateRunning
	report := &Report{
		Pipeline: r.pipeline.Name,
		State:    StateRunning,
		Input:    buffer,
		Output:   buffer,
		Steps:    make([]StepReport, 0, len(r.pipeline.Steps)),
	}

	if r.pipeline.SkipIf != nil {
		if _, found := match.Find(buffer, *r.pipeline.SkipIf); found {
			logger.Debug().Str("skip_if", r.pipeline.SkipIf.String()).Msg("buffer already transformed, skipping all steps")
			report.Guarded = true
			for i, step := range r.pipeline.Steps {
				report.Steps = append(report.Steps, newStepReport(i, step))
			}
			r.cursor = len(r.pipeline.Steps)
			r.state = StateDone
			report.State = StateDone
			return report, nil
		}
	}

	current := buffer
	for i, step := range r.pipeline.Steps {
		r.cursor = i
		sr := newStepReport(i, step)

		res, err := step.Apply(current, edit.Options{Strict: r.opts.Strict})
		if err != nil {
			sr.Err = err
			report.Steps = append(report.Steps, sr)
			r.state = StateFailed
			report.State = StateFailed

			logger.Debug().Int("step", i).Str("name", step.Label()).Err(err).Msg("step failed, aborting pipeline")
			return report, &StepError{Index: i, Name: step.Label(), Pattern: step.Pattern, Err: err}
		}

		sr.Outcome = res.Outcome
		sr.Span = res.Span
		sr.Captured = res.Captured
		sr.Matches = res.Matches
		report.Steps = append(report.Steps, sr)

		if r.opts.WarnAmbiguous && res.Matches > 1 && step.Kind != edit.ReplaceAll {
			logger.Warn().
				Int("step", i).
				Str("name", step.Label()).
				Int("matches", res.Matches).
				Str("policy", step.Policy.String()).
				Msg("pattern is ambiguous, policy picked one match")
		}

		logger.Debug().
			Int("step", i).
			Str("name", step.Label()).
			Str("outcome", res.Outcome.String()).
			Int("matches", res.Matches).
			Msg("step complete")

		current = res.Buffer
	}

	r.cursor = len(r.pipeline.Steps)
	r.state = StateDone
	report.State = StateDone
	report.Output = current
	return report, nil
}

// Run is a shortcut for NewRunner(p, opts).Run(ctx, buffer)
func Run(ctx context.Context, p *Pipeline, buffer string, opts Options) (*Report, error) {
	return NewRunner(p, opts).Run(ctx, buffer)
}

func newStepReport(i int, step edit.Step) StepReport {
	return StepReport{
		Index:   i,
		Name:    step.Label(),
		Kind:    step.Kind,
		Pattern: step.Pattern.String(),
		Outcome: edit.OutcomeSkipped,
	}
}
