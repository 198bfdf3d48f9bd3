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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

type hclBlock struct {
	Start      string `hcl:"start"`
	End        string `hcl:"end"`
	Greedy     bool   `hcl:"greedy,optional"`
	EatNewline bool   `hcl:"eat_newline,optional"`
}

type hclPattern struct {
	Literal   string    `hcl:"literal,optional"`
	Regex     string    `hcl:"regex,optional"`
	Block     *hclBlock `hcl:"block,block"`
	DotAll    bool      `hcl:"dot_all,optional"`
	MultiLine bool      `hcl:"multi_line,optional"`
	Longest   bool      `hcl:"longest,optional"`
}

type hclStep struct {
	Name      string    `hcl:"name,label"`
	Kind      string    `hcl:"kind"`
	Literal   string    `hcl:"literal,optional"`
	Regex     string    `hcl:"regex,optional"`
	Block     *hclBlock `hcl:"block,block"`
	DotAll    bool      `hcl:"dot_all,optional"`
	MultiLine bool      `hcl:"multi_line,optional"`
	Longest   bool      `hcl:"longest,optional"`
	With      string    `hcl:"with,optional"`
	Match     string    `hcl:"match,optional"`
}

type hclConfig struct {
	Name          string      `hcl:"name,optional"`
	Target        string      `hcl:"target,optional"`
	Files         []string    `hcl:"files,optional"`
	Exclude       []string    `hcl:"exclude,optional"`
	Strict        bool        `hcl:"strict,optional"`
	WarnAmbiguous bool        `hcl:"warn_ambiguous,optional"`
	SkipIf        *hclPattern `hcl:"skip_if,block"`
	Steps         []hclStep   `hcl:"step,block"`
}

// 📝 Parse parses the config from HCL. Expressions can read environment
// variables through env and call a small set of string functions.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "pipeline.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalContext(), &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Name:          hclCfg.Name,
		Target:        hclCfg.Target,
		Files:         hclCfg.Files,
		Exclude:       hclCfg.Exclude,
		Strict:        hclCfg.Strict,
		WarnAmbiguous: hclCfg.WarnAmbiguous,
	}

	if hclCfg.SkipIf != nil {
		pc := hclCfg.SkipIf.convert()
		cfg.SkipIf = &pc
	}

	for _, s := range hclCfg.Steps {
		cfg.Steps = append(cfg.Steps, StepConfig{
			Name: s.Name,
			Kind: s.Kind,
			PatternConfig: hclPattern{
				Literal:   s.Literal,
				Regex:     s.Regex,
				Block:     s.Block,
				DotAll:    s.DotAll,
				MultiLine: s.MultiLine,
				Longest:   s.Longest,
			}.convert(),
			With:  s.With,
			Match: s.Match,
		})
	}

	return cfg, nil
}

func (h hclPattern) convert() PatternConfig {
	pc := PatternConfig{
		Literal:   h.Literal,
		Regex:     h.Regex,
		DotAll:    h.DotAll,
		MultiLine: h.MultiLine,
		Longest:   h.Longest,
	}
	if h.Block != nil {
		pc.Block = &BlockConfig{
			Start:      h.Block.Start,
			End:        h.Block.End,
			Greedy:     h.Block.Greedy,
			EatNewline: h.Block.EatNewline,
		}
	}
	return pc
}

// evalContext exposes env.NAME and string helpers to HCL expressions
func evalContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}

	envVal := cty.EmptyObjectVal
	if len(env) > 0 {
		envVal = cty.ObjectVal(env)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envVal,
		},
		Functions: map[string]function.Function{
			"upper":     stdlib.UpperFunc,
			"lower":     stdlib.LowerFunc,
			"trimspace": stdlib.TrimSpaceFunc,
			"join":      stdlib.JoinFunc,
			"format":    stdlib.FormatFunc,
			"replace":   stdlib.ReplaceFunc,
		},
	}
}
