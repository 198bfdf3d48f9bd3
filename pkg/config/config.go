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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/walteh/recast/pkg/edit"
	"github.com/walteh/recast/pkg/match"
	"github.com/walteh/recast/pkg/pipeline"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for pipeline file parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🧱 BlockConfig describes a start..end block pattern
type BlockConfig struct {
	Start      string `json:"start" yaml:"start"`
	End        string `json:"end" yaml:"end"`
	Greedy     bool   `json:"greedy,omitempty" yaml:"greedy,omitempty"`
	EatNewline bool   `json:"eat_newline,omitempty" yaml:"eat_newline,omitempty"`
}

// 🔍 PatternConfig holds exactly one of Literal, Regex or Block
type PatternConfig struct {
	Literal   string       `json:"literal,omitempty" yaml:"literal,omitempty"`
	Regex     string       `json:"regex,omitempty" yaml:"regex,omitempty"`
	Block     *BlockConfig `json:"block,omitempty" yaml:"block,omitempty"`
	DotAll    bool         `json:"dot_all,omitempty" yaml:"dot_all,omitempty"`
	MultiLine bool         `json:"multi_line,omitempty" yaml:"multi_line,omitempty"`
	Longest   bool         `json:"longest,omitempty" yaml:"longest,omitempty"`
}

// 📝 StepConfig is one entry of the steps list
type StepConfig struct {
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	Kind          string `json:"kind" yaml:"kind"`
	PatternConfig `yaml:",inline"`
	With          string `json:"with,omitempty" yaml:"with,omitempty"`
	Match         string `json:"match,omitempty" yaml:"match,omitempty"`
}

// 📚 Config is a complete pipeline file
type Config struct {
	Name          string         `json:"name,omitempty" yaml:"name,omitempty"`
	Target        string         `json:"target,omitempty" yaml:"target,omitempty"`
	Files         []string       `json:"files,omitempty" yaml:"files,omitempty"`
	Exclude       []string       `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Strict        bool           `json:"strict,omitempty" yaml:"strict,omitempty"`
	WarnAmbiguous bool           `json:"warn_ambiguous,omitempty" yaml:"warn_ambiguous,omitempty"`
	SkipIf        *PatternConfig `json:"skip_if,omitempty" yaml:"skip_if,omitempty"`
	Steps         []StepConfig   `json:"steps" yaml:"steps"`

	location string
}

// 🎯 Load reads, parses and validates the pipeline file at path
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading pipeline file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	cfg.location = path
	if cfg.Name == "" {
		cfg.Name = filepath.Base(path)
	}

	logger.Debug().Str("name", cfg.Name).Int("steps", len(cfg.Steps)).Msg("pipeline file loaded")
	return cfg, nil
}

// 🔍 Validate checks the file and every step. Step errors name the index and label.
func (cfg *Config) Validate() error {
	if len(cfg.Steps) == 0 {
		return errors.Errorf("no steps defined")
	}

	if cfg.SkipIf != nil {
		if _, err := cfg.SkipIf.Pattern(); err != nil {
			return errors.Errorf("skip_if: %w", err)
		}
	}

	for i, sc := range cfg.Steps {
		if _, err := sc.Step(); err != nil {
			return errors.Errorf("step %d (%s): %w", i, sc.label(), err)
		}
	}

	return nil
}

// Location is the path the config was loaded from, empty when parsed directly
func (cfg *Config) Location() string {
	return cfg.location
}

// Dir is the directory relative target and file paths resolve against
func (cfg *Config) Dir() string {
	if cfg.location == "" {
		return "."
	}
	return filepath.Dir(cfg.location)
}

// Paths returns the target followed by the files globs
func (cfg *Config) Paths() []string {
	var out []string
	if cfg.Target != "" {
		out = append(out, cfg.Target)
	}
	return append(out, cfg.Files...)
}

// Options returns the run options declared in the file
func (cfg *Config) Options() pipeline.Options {
	return pipeline.Options{
		Strict:        cfg.Strict,
		WarnAmbiguous: cfg.WarnAmbiguous,
	}
}

// 🏗️ Pipeline builds the runnable pipeline
func (cfg *Config) Pipeline() (*pipeline.Pipeline, error) {
	p := &pipeline.Pipeline{Name: cfg.Name}

	if cfg.SkipIf != nil {
		guard, err := cfg.SkipIf.Pattern()
		if err != nil {
			return nil, errors.Errorf("skip_if: %w", err)
		}
		p.SkipIf = &guard
	}

	for i, sc := range cfg.Steps {
		step, err := sc.Step()
		if err != nil {
			return nil, errors.Errorf("step %d (%s): %w", i, sc.label(), err)
		}
		p.Steps = append(p.Steps, step)
	}

	return p, nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s (%d steps) -> %v", cfg.Name, len(cfg.Steps), cfg.Paths())
}

// Pattern converts the config into a match.Pattern
func (pc PatternConfig) Pattern() (match.Pattern, error) {
	set := 0
	if pc.Literal != "" {
		set++
	}
	if pc.Regex != "" {
		set++
	}
	if pc.Block != nil {
		set++
	}
	switch {
	case set == 0:
		return match.Pattern{}, errors.Errorf("one of literal, regex or block is required")
	case set > 1:
		return match.Pattern{}, errors.Errorf("only one of literal, regex or block may be set")
	}

	var p match.Pattern
	switch {
	case pc.Literal != "":
		if pc.DotAll || pc.MultiLine || pc.Longest {
			return match.Pattern{}, errors.Errorf("dot_all, multi_line and longest only apply to regex patterns")
		}
		p = match.Literal(pc.Literal)
	case pc.Regex != "":
		p = match.Regex(pc.Regex)
		p.DotAll = pc.DotAll
		p.MultiLine = pc.MultiLine
		p.Longest = pc.Longest
	default:
		p = match.Block(pc.Block.Start, pc.Block.End)
		p.Greedy = pc.Block.Greedy
		p.EatNewline = pc.Block.EatNewline
	}

	compiled, err := p.Compile()
	if err != nil {
		return match.Pattern{}, err
	}
	return compiled, nil
}

// Step converts the config into an edit.Step
func (sc StepConfig) Step() (edit.Step, error) {
	kind, err := edit.ParseKind(sc.Kind)
	if err != nil {
		return edit.Step{}, err
	}

	policy, err := match.ParsePolicy(sc.Match)
	if err != nil {
		return edit.Step{}, err
	}

	p, err := sc.PatternConfig.Pattern()
	if err != nil {
		return edit.Step{}, err
	}

	if kind == edit.ExtractAndRemove && sc.With != "" {
		return edit.Step{}, errors.Errorf("%s steps take no replacement", kind)
	}

	step := edit.Step{
		Name:        sc.Name,
		Kind:        kind,
		Pattern:     p,
		Replacement: sc.With,
		Policy:      policy,
	}
	if err := step.Validate(); err != nil {
		return edit.Step{}, err
	}
	return step, nil
}

func (sc StepConfig) label() string {
	if sc.Name != "" {
		return sc.Name
	}
	if sc.Kind != "" {
		return sc.Kind
	}
	return "unnamed"
}
