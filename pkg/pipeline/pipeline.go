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
	"fmt"

	"github.com/walteh/recast/pkg/edit"
	"github.com/walteh/recast/pkg/match"
	"gitlab.com/tozd/go/errors"
)

// 📋 Pipeline is an ordered list of edit steps. Order is the only dependency
// mechanism: a step may rely on text produced by any step before it.
type Pipeline struct {
	// Name identifies the pipeline in logs
	Name string

	// Steps run strictly in this order
	Steps []edit.Step

	// SkipIf marks a buffer that has already been transformed. When it
	// matches the input, no step runs and the buffer is returned unchanged.
	SkipIf *match.Pattern
}

// 🏭 New creates a pipeline from steps
func New(name string, steps ...edit.Step) *Pipeline {
	return &Pipeline{
		Name:  name,
		Steps: steps,
	}
}

// Validate checks every step and the guard pattern
func (p *Pipeline) Validate() error {
	if p == nil {
		return errors.New("pipeline is nil")
	}
	if p.SkipIf != nil {
		if err := p.SkipIf.Validate(); err != nil {
			return errors.Errorf("skip_if: %w", err)
		}
	}
	for i, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return errors.Errorf("step %d (%s): %w", i, step.Label(), err)
		}
	}
	return nil
}

// 🚦 State is a position in the runner lifecycle
type State int

const (
	StateReady   State = iota // created, not started
	StateRunning              // applying steps
	StateDone                 // every step ran without a fatal error
	StateFailed               // a step failed, later steps did not run
)

// String returns a string representation of State
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ❌ StepError reports which step aborted a run
type StepError struct {
	Index   int
	Name    string
	Pattern match.Pattern
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) %s: %v", e.Index, e.Name, e.Pattern, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ErrAlreadyRun is returned when a Runner is started a second time
var ErrAlreadyRun = errors.Base("runner already used")

// 📝 StepReport describes what one step did during a run
type StepReport struct {
	Index    int
	Name     string
	Kind     edit.Kind
	Pattern  string
	Outcome  edit.Outcome
	Span     match.Span
	Captured string
	Matches  int
	Err      error
}

// 📊 Report is the result of a run. It is returned on failure as well and
// then holds the steps up to and including the failing one.
type Report struct {
	Pipeline string
	State    State
	Steps    []StepReport

	// Guarded is true when SkipIf matched and no step ran
	Guarded bool

	// Input is the buffer the run started with
	Input string

	// Output is the final buffer, equal to Input unless State is StateDone
	Output string
}

// Changed reports whether the run finished and produced a different buffer
func (r *Report) Changed() bool {
	return r.State == StateDone && r.Output != r.Input
}

// Count returns how many steps ended with outcome
func (r *Report) Count(outcome edit.Outcome) int {
	n := 0
	for _, s := range r.Steps {
		if s.Err == nil && s.Outcome == outcome {
			n++
		}
	}
	return n
}
