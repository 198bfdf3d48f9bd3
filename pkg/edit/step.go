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

package edit

import (
	"fmt"
	"strings"

	"github.com/walteh/recast/pkg/match"
	"gitlab.com/tozd/go/errors"
)

// 🛠️ Kind is the action a Step performs on its matched region
type Kind int

const (
	KindUnknown      Kind = iota
	ReplaceLiteral        // replace one literal occurrence, missing is a no-op
	ExtractAndRemove      // capture the region and delete it, missing is fatal
	ReplaceRegion         // replace the region with new text, missing is fatal
	ReplaceAll            // replace every occurrence, missing is a no-op
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case ReplaceLiteral:
		return "replace_literal"
	case ExtractAndRemove:
		return "extract"
	case ReplaceRegion:
		return "replace_region"
	case ReplaceAll:
		return "replace_all"
	default:
		return "unknown"
	}
}

// ParseKind maps a config value to a Kind
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replace_literal", "replace":
		return ReplaceLiteral, nil
	case "extract", "extract_and_remove", "remove":
		return ExtractAndRemove, nil
	case "replace_region", "region":
		return ReplaceRegion, nil
	case "replace_all":
		return ReplaceAll, nil
	default:
		return KindUnknown, errors.Errorf("unknown step kind %q", s)
	}
}

// mandatory reports whether a missing match aborts the pipeline regardless of strict mode
func (k Kind) mandatory() bool {
	return k == ExtractAndRemove || k == ReplaceRegion
}

// 📊 Outcome records what a step did to the buffer
type Outcome int

const (
	OutcomeSkipped   Outcome = iota // nothing matched and the step tolerates that
	OutcomeApplied                  // the buffer changed
	OutcomeUnchanged                // the pattern matched but the replacement equals the matched text
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "skipped"
	}
}

// 📝 Step is a single transformation of a buffer
type Step struct {
	// Name identifies the step in logs and errors, optional
	Name string

	// Kind is the action to perform
	Kind Kind

	// Pattern locates the region the step acts on
	Pattern match.Pattern

	// Replacement is the new text, ignored by ExtractAndRemove
	Replacement string

	// Policy picks a match when the pattern occurs more than once
	Policy match.Policy
}

// Replace returns a ReplaceLiteral step
func Replace(from, to string) Step {
	return Step{Kind: ReplaceLiteral, Pattern: match.Literal(from), Replacement: to}
}

// Extract returns an ExtractAndRemove step
func Extract(p match.Pattern) Step {
	return Step{Kind: ExtractAndRemove, Pattern: p}
}

// Region returns a ReplaceRegion step
func Region(p match.Pattern, text string) Step {
	return Step{Kind: ReplaceRegion, Pattern: p, Replacement: text}
}

// All returns a ReplaceAll step
func All(p match.Pattern, text string) Step {
	return Step{Kind: ReplaceAll, Pattern: p, Replacement: text}
}

// Named returns a copy of s with the given name
func (s Step) Named(name string) Step {
	s.Name = name
	return s
}

// WithPolicy returns a copy of s using policy to pick among matches
func (s Step) WithPolicy(policy match.Policy) Step {
	s.Policy = policy
	return s
}

// Label is the name when set, otherwise the kind
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Kind.String()
}

// ✅ Validate checks that the step can run
func (s Step) Validate() error {
	switch s.Kind {
	case ReplaceLiteral:
		if s.Pattern.Kind != match.KindLiteral {
			return errors.Errorf("%s needs a literal pattern, got %s", s.Kind, s.Pattern.Kind)
		}
	case ExtractAndRemove, ReplaceRegion, ReplaceAll:
	default:
		return errors.Errorf("unknown step kind %d", int(s.Kind))
	}

	switch s.Policy {
	case match.First, match.Last, match.Unique:
	default:
		return errors.Errorf("unknown match policy %d", int(s.Policy))
	}

	if err := s.Pattern.Validate(); err != nil {
		return errors.Errorf("pattern: %w", err)
	}
	return nil
}

// Options tune how a step treats a missing match
type Options struct {
	// Strict makes ReplaceLiteral and ReplaceAll fail when nothing matches
	Strict bool
}

// 📦 Result describes one application of a step
type Result struct {
	// Buffer is the text after the step
	Buffer string

	// Outcome is what happened
	Outcome Outcome

	// Span is the region acted on in the input buffer, zero for skipped and ReplaceAll
	Span match.Span

	// Captured is the text the step matched in the input buffer
	Captured string

	// Matches is how many times the pattern occurred in the input buffer
	Matches int
}

// 🏃 Apply runs the step against buffer. The input is never modified; the
// returned Result carries the next buffer. A missing match is an error for
// ExtractAndRemove and ReplaceRegion, and for every kind in strict mode.
func (s Step) Apply(buffer string, opts Options) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.Errorf("invalid step %s: %w", s.Label(), err)
	}

	if s.Kind == ReplaceAll {
		return s.applyAll(buffer, opts)
	}

	spans, err := match.FindAll(buffer, s.Pattern)
	if err != nil {
		return nil, errors.Errorf("matching %s: %w", s.Pattern, err)
	}
	count := len(spans)

	pending := spans
	if s.Kind == ReplaceLiteral {
		pending = pendingLiterals(buffer, spans, s.Pattern.Text, s.Replacement)
		if count > 0 && len(pending) == 0 {
			// every occurrence already sits inside its replacement
			return &Result{Buffer: buffer, Outcome: OutcomeSkipped, Span: spans[0], Captured: spans[0].Text(buffer), Matches: count}, nil
		}
	}

	span, found, err := match.Pick(pending, s.Pattern, s.Policy)
	if err != nil {
		return nil, errors.Errorf("matching %s: %w", s.Pattern, err)
	}

	if !found {
		if s.Kind.mandatory() || opts.Strict {
			return nil, &PatternNotFoundError{Step: s.Label(), Pattern: s.Pattern}
		}
		return &Result{Buffer: buffer, Outcome: OutcomeSkipped}, nil
	}

	captured := span.Text(buffer)

	var replacement string
	switch s.Kind {
	case ReplaceLiteral, ReplaceRegion:
		replacement = s.Replacement
	case ExtractAndRemove:
		replacement = ""
	}

	res := &Result{
		Buffer:   match.Splice(buffer, span, replacement),
		Outcome:  OutcomeApplied,
		Span:     span,
		Captured: captured,
		Matches:  count,
	}
	if captured == replacement {
		res.Outcome = OutcomeUnchanged
	}
	return res, nil
}

// pendingLiterals drops the occurrences of from that a previous run already
// replaced with to.
func pendingLiterals(buffer string, spans []match.Span, from, to string) []match.Span {
	pending := make([]match.Span, 0, len(spans))
	for _, span := range spans {
		if !alreadyApplied(buffer, span, from, to) {
			pending = append(pending, span)
		}
	}
	return pending
}

// alreadyApplied reports whether the literal at span already sits inside a
// copy of its replacement, as happens when the replacement inserts text
// around the original literal and the pipeline runs a second time.
func alreadyApplied(buffer string, span match.Span, from, to string) bool {
	if from == to {
		return false
	}
	offset := strings.Index(to, from)
	if offset < 0 {
		return false
	}
	start := span.Start - offset
	end := start + len(to)
	if start < 0 || end > len(buffer) {
		return false
	}
	return buffer[start:end] == to
}

func (s Step) applyAll(buffer string, opts Options) (*Result, error) {
	out, count, err := match.ReplaceAll(buffer, s.Pattern, s.Replacement)
	if err != nil {
		return nil, errors.Errorf("replacing %s: %w", s.Pattern, err)
	}
	if count == 0 {
		if opts.Strict {
			return nil, &PatternNotFoundError{Step: s.Label(), Pattern: s.Pattern}
		}
		return &Result{Buffer: buffer, Outcome: OutcomeSkipped}, nil
	}

	res := &Result{Buffer: out, Outcome: OutcomeApplied, Matches: count}
	if first, ok := match.Find(buffer, s.Pattern); ok {
		res.Captured = first.Text(buffer)
	}
	if out == buffer {
		res.Outcome = OutcomeUnchanged
	}
	return res, nil
}

// 🚫 PatternNotFoundError is returned when a step that needs a match finds none
type PatternNotFoundError struct {
	Step    string
	Pattern match.Pattern
}

func (e *PatternNotFoundError) Error() string {
	return fmt.Sprintf("step %s: pattern not found: %s", e.Step, e.Pattern)
}
