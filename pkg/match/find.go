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

package match

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📏 Span is a half-open [Start, End) byte range within a buffer
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Text returns the slice of buffer covered by the span
func (s Span) Text(buffer string) string {
	return buffer[s.Start:s.End]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// 🎯 Policy decides which match a step uses when a pattern occurs more than once
type Policy int

const (
	First  Policy = iota // earliest match, the default
	Last                 // latest match
	Unique               // exactly one match or AmbiguousMatchError
)

// String returns a string representation of Policy
func (p Policy) String() string {
	switch p {
	case First:
		return "first"
	case Last:
		return "last"
	case Unique:
		return "unique"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a config value to a Policy. The empty string is First.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return First, nil
	case "last":
		return Last, nil
	case "unique":
		return Unique, nil
	default:
		return First, errors.Errorf("unknown match policy %q (want first, last or unique)", s)
	}
}

// ⚠️ AmbiguousMatchError is returned by Select under the Unique policy when
// the pattern occurs more than once.
type AmbiguousMatchError struct {
	Pattern Pattern
	Count   int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s matched %d times, expected exactly one", e.Pattern, e.Count)
}

// 🔍 Find returns the first span of buffer matched by p. The boolean is false
// when nothing matches; an invalid pattern also reports no match.
func Find(buffer string, p Pattern) (Span, bool) {
	if p.Kind == KindLiteral {
		if p.Text == "" {
			return Span{}, false
		}
		idx := strings.Index(buffer, p.Text)
		if idx < 0 {
			return Span{}, false
		}
		return Span{Start: idx, End: idx + len(p.Text)}, true
	}

	re, err := p.regexp()
	if err != nil {
		return Span{}, false
	}
	loc := re.FindStringIndex(buffer)
	if loc == nil {
		return Span{}, false
	}
	return Span{Start: loc[0], End: loc[1]}, true
}

// FindAll returns every non-overlapping span of buffer matched by p, in order.
func FindAll(buffer string, p Pattern) ([]Span, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Errorf("invalid pattern: %w", err)
	}

	if p.Kind == KindLiteral {
		var spans []Span
		for offset := 0; offset <= len(buffer); {
			idx := strings.Index(buffer[offset:], p.Text)
			if idx < 0 {
				break
			}
			start := offset + idx
			spans = append(spans, Span{Start: start, End: start + len(p.Text)})
			offset = start + len(p.Text)
		}
		return spans, nil
	}

	re, err := p.regexp()
	if err != nil {
		return nil, err
	}
	locs := re.FindAllStringIndex(buffer, -1)
	spans := make([]Span, 0, len(locs))
	for _, loc := range locs {
		spans = append(spans, Span{Start: loc[0], End: loc[1]})
	}
	return spans, nil
}

// Select applies policy to the matches of p in buffer. It returns the chosen
// span, the total number of matches, and whether anything matched. Under the
// Unique policy more than one match is an *AmbiguousMatchError.
func Select(buffer string, p Pattern, policy Policy) (Span, int, bool, error) {
	spans, err := FindAll(buffer, p)
	if err != nil {
		return Span{}, 0, false, err
	}
	span, found, err := Pick(spans, p, policy)
	return span, len(spans), found, err
}

// Pick applies policy to spans already found for p.
func Pick(spans []Span, p Pattern, policy Policy) (Span, bool, error) {
	if len(spans) == 0 {
		return Span{}, false, nil
	}

	switch policy {
	case First:
		return spans[0], true, nil
	case Last:
		return spans[len(spans)-1], true, nil
	case Unique:
		if len(spans) > 1 {
			return Span{}, true, &AmbiguousMatchError{Pattern: p, Count: len(spans)}
		}
		return spans[0], true, nil
	default:
		return Span{}, true, errors.Errorf("unknown match policy %d", int(policy))
	}
}

// Splice returns buffer with span replaced by text. Bytes outside span are
// copied unchanged.
func Splice(buffer string, span Span, text string) string {
	var b strings.Builder
	b.Grow(len(buffer) - span.Len() + len(text))
	b.WriteString(buffer[:span.Start])
	b.WriteString(text)
	b.WriteString(buffer[span.End:])
	return b.String()
}

// ReplaceAll replaces every non-overlapping match of p in buffer with text and
// reports how many matches were replaced. For regex and block patterns text
// may reference submatches as $1 or ${name}; literal text is inserted as is.
func ReplaceAll(buffer string, p Pattern, text string) (string, int, error) {
	spans, err := FindAll(buffer, p)
	if err != nil {
		return buffer, 0, err
	}
	if len(spans) == 0 {
		return buffer, 0, nil
	}

	if p.Kind == KindLiteral {
		return strings.ReplaceAll(buffer, p.Text, text), len(spans), nil
	}

	re, err := p.regexp()
	if err != nil {
		return buffer, 0, err
	}
	return re.ReplaceAllString(buffer, text), len(spans), nil
}
