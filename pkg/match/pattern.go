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
	"regexp"
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// 🧩 Kind identifies how a Pattern locates text
type Kind int

const (
	KindUnknown Kind = iota
	KindLiteral      // exact, case-sensitive substring
	KindRegex        // RE2 expression
	KindBlock        // start marker through end marker
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindRegex:
		return "regex"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// 🔍 Pattern describes a region of text. The zero value matches nothing and
// fails validation. Patterns are stateless and safe to reuse across buffers
// and goroutines. Compile caches the regex for regex and block patterns.
type Pattern struct {
	Kind Kind

	// Text is the literal for KindLiteral and the expression for KindRegex
	Text string

	// Start and End are the markers for KindBlock
	Start string
	End   string

	// Greedy makes a block run through the farthest End instead of the nearest
	Greedy bool

	// EatNewline makes a block also consume one line break following End
	EatNewline bool

	// DotAll lets "." match "\n" in a regex (the (?s) flag)
	DotAll bool

	// MultiLine makes ^ and $ match at line boundaries (the (?m) flag)
	MultiLine bool

	// Longest switches a regex to leftmost-longest matching
	Longest bool

	compiled *compiledRegex
}

type compiledRegex struct {
	once sync.Once
	re   *regexp.Regexp
	err  error
}

// Literal returns a pattern matching s exactly.
func Literal(s string) Pattern {
	return Pattern{Kind: KindLiteral, Text: s}
}

// Regex returns a pattern for the RE2 expression expr.
func Regex(expr string) Pattern {
	return Pattern{Kind: KindRegex, Text: expr}
}

// Block returns a lazy pattern spanning from start through the nearest end.
func Block(start, end string) Pattern {
	return Pattern{Kind: KindBlock, Start: start, End: end}
}

// WithGreedy returns a copy of p that runs through the farthest end marker.
func (p Pattern) WithGreedy() Pattern {
	p.Greedy = true
	p.compiled = nil
	return p
}

// WithEatNewline returns a copy of p that also swallows the line break after the end marker.
func (p Pattern) WithEatNewline() Pattern {
	p.EatNewline = true
	p.compiled = nil
	return p
}

// WithDotAll returns a copy of p with the (?s) flag set.
func (p Pattern) WithDotAll() Pattern {
	p.DotAll = true
	p.compiled = nil
	return p
}

// 📝 String returns a short, human readable form used in errors and logs
func (p Pattern) String() string {
	switch p.Kind {
	case KindLiteral:
		return fmt.Sprintf("literal %q", abbreviate(p.Text))
	case KindRegex:
		return fmt.Sprintf("regex /%s/", p.expr())
	case KindBlock:
		mode := "lazy"
		if p.Greedy {
			mode = "greedy"
		}
		return fmt.Sprintf("block %q..%q (%s)", abbreviate(p.Start), abbreviate(p.End), mode)
	default:
		return "invalid pattern"
	}
}

// ✅ Validate checks that the pattern can be used for matching
func (p Pattern) Validate() error {
	switch p.Kind {
	case KindLiteral:
		if p.Text == "" {
			return errors.New("literal pattern is empty")
		}
		return nil
	case KindRegex:
		if p.Text == "" {
			return errors.New("regex pattern is empty")
		}
	case KindBlock:
		if p.Start == "" || p.End == "" {
			return errors.New("block pattern needs both start and end markers")
		}
	default:
		return errors.Errorf("unknown pattern kind %d", p.Kind)
	}
	if _, err := p.regexp(); err != nil {
		return err
	}
	return nil
}

// expr builds the effective RE2 source for regex and block patterns
func (p Pattern) expr() string {
	switch p.Kind {
	case KindRegex:
		var flags string
		if p.DotAll {
			flags += "s"
		}
		if p.MultiLine {
			flags += "m"
		}
		if flags == "" {
			return p.Text
		}
		return "(?" + flags + ")" + p.Text
	case KindBlock:
		body := ".*?"
		if p.Greedy {
			body = ".*"
		}
		tail := ""
		if p.EatNewline {
			tail = `(?:\r?\n)?`
		}
		return "(?s)" + regexp.QuoteMeta(p.Start) + body + regexp.QuoteMeta(p.End) + tail
	default:
		return ""
	}
}

func (p Pattern) regexp() (*regexp.Regexp, error) {
	if p.compiled == nil {
		// not cached
		return compile(p)
	}
	p.compiled.once.Do(func() {
		p.compiled.re, p.compiled.err = compile(p)
	})
	return p.compiled.re, p.compiled.err
}

// Compile returns a copy of p whose regex is compiled once and shared by all
// copies made from the result. Literal patterns are returned unchanged.
func (p Pattern) Compile() (Pattern, error) {
	if err := p.Validate(); err != nil {
		return p, err
	}
	if p.Kind == KindLiteral {
		return p, nil
	}
	p.compiled = &compiledRegex{}
	if _, err := p.regexp(); err != nil {
		return p, err
	}
	return p, nil
}

func compile(p Pattern) (*regexp.Regexp, error) {
	re, err := regexp.Compile(p.expr())
	if err != nil {
		return nil, errors.Errorf("compiling %s: %w", p.Kind, err)
	}
	if p.Longest {
		re.Longest()
	}
	return re, nil
}

func abbreviate(s string) string {
	const max = 48
	r := []rune(strings.ReplaceAll(s, "\n", `\n`))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max]) + "…"
}
