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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/recast/pkg/match"
	"gitlab.com/tozd/go/errors"
)

func TestStep_Apply(t *testing.T) {
	tests := []struct {
		name         string
		buffer       string
		step         Step
		opts         Options
		want         string
		wantOutcome  Outcome
		wantCaptured string
		wantNotFound bool
		wantError    string
	}{
		{
			name:         "replace_literal_first_occurrence_only",
			buffer:       "a OLD b OLD",
			step:         Replace("OLD", "NEW"),
			want:         "a NEW b OLD",
			wantOutcome:  OutcomeApplied,
			wantCaptured: "OLD",
		},
		{
			name:         "replace_literal_last_policy",
			buffer:       "a OLD b OLD",
			step:         Replace("OLD", "NEW").WithPolicy(match.Last),
			want:         "a OLD b NEW",
			wantOutcome:  OutcomeApplied,
			wantCaptured: "OLD",
		},
		{
			name:        "replace_literal_missing_is_noop",
			buffer:      "nothing to see",
			step:        Replace("OLD", "NEW"),
			want:        "nothing to see",
			wantOutcome: OutcomeSkipped,
		},
		{
			name:         "replace_literal_missing_strict_fails",
			buffer:       "nothing to see",
			step:         Replace("OLD", "NEW"),
			opts:         Options{Strict: true},
			wantNotFound: true,
		},
		{
			name:         "replace_literal_same_text_is_unchanged",
			buffer:       "keep OLD",
			step:         Replace("OLD", "OLD"),
			want:         "keep OLD",
			wantOutcome:  OutcomeUnchanged,
			wantCaptured: "OLD",
		},
		{
			name:         "replace_literal_insert_after_already_applied",
			buffer:       "import a;\nimport store;\nbody",
			step:         Replace("import a;", "import a;\nimport store;"),
			want:         "import a;\nimport store;\nbody",
			wantOutcome:  OutcomeSkipped,
			wantCaptured: "import a;",
		},
		{
			name:         "replace_literal_insert_before_already_applied",
			buffer:       "// header\nimport a;",
			step:         Replace("import a;", "// header\nimport a;"),
			want:         "// header\nimport a;",
			wantOutcome:  OutcomeSkipped,
			wantCaptured: "import a;",
		},
		{
			name:         "replace_literal_skips_replaced_occurrence_and_applies_pending",
			buffer:       "store.setData(a);\nsetData(b);\n",
			step:         Replace("setData(", "store.setData("),
			opts:         Options{Strict: true},
			want:         "store.setData(a);\nstore.setData(b);\n",
			wantOutcome:  OutcomeApplied,
			wantCaptured: "setData(",
		},
		{
			name:         "replace_literal_last_policy_ignores_replaced_occurrence",
			buffer:       "setData(a);\nstore.setData(b);\n",
			step:         Replace("setData(", "store.setData(").WithPolicy(match.Last),
			want:         "store.setData(a);\nstore.setData(b);\n",
			wantOutcome:  OutcomeApplied,
			wantCaptured: "setData(",
		},
		{
			name:         "replace_literal_all_replaced_is_skipped_under_strict",
			buffer:       "store.setData(a);\nstore.setData(b);\n",
			step:         Replace("setData(", "store.setData("),
			opts:         Options{Strict: true},
			want:         "store.setData(a);\nstore.setData(b);\n",
			wantOutcome:  OutcomeSkipped,
			wantCaptured: "setData(",
		},
		{
			name:      "replace_literal_rejects_regex_pattern",
			buffer:    "x",
			step:      Step{Kind: ReplaceLiteral, Pattern: match.Regex("x")},
			wantError: "needs a literal pattern",
		},
		{
			name:         "extract_lazy_block",
			buffer:       "keep\nSTART\nA\nEND\nB\nEND\n",
			step:         Extract(match.Block("START", "END").WithEatNewline()),
			want:         "keep\nB\nEND\n",
			wantOutcome:  OutcomeApplied,
			wantCaptured: "START\nA\nEND\n",
		},
		{
			name:         "extract_greedy_block",
			buffer:       "keep\nSTART\nA\nEND\nB\nEND\ntail",
			step:         Extract(match.Block("START", "END").WithGreedy().WithEatNewline()),
			want:         "keep\ntail",
			wantOutcome:  OutcomeApplied,
			wantCaptured: "START\nA\nEND\nB\nEND\n",
		},
		{
			name:         "extract_missing_is_fatal_even_when_lenient",
			buffer:       "keep",
			step:         Extract(match.Block("START", "END")),
			wantNotFound: true,
		},
		{
			name:         "region_replaces_exact_span",
			buffer:       "<header>old</header>\n<main/>",
			step:         Region(match.Regex(`<header>.*?</header>`), "<div>new</div>"),
			want:         "<div>new</div>\n<main/>",
			wantOutcome:  OutcomeApplied,
			wantCaptured: "<header>old</header>",
		},
		{
			name:         "region_missing_is_fatal",
			buffer:       "<main/>",
			step:         Region(match.Regex(`<header>.*?</header>`), "<div/>"),
			wantNotFound: true,
		},
		{
			name:      "region_unique_policy_ambiguous",
			buffer:    "x x",
			step:      Region(match.Literal("x"), "y").WithPolicy(match.Unique),
			wantError: "matched 2 times",
		},
		{
			name:         "replace_all_regex",
			buffer:       "setA(1); setB(2);",
			step:         All(match.Regex(`set(\w)\(`), "store.set$1("),
			want:         "store.setA(1); store.setB(2);",
			wantOutcome:  OutcomeApplied,
			wantCaptured: "setA(",
		},
		{
			name:        "replace_all_missing_is_noop",
			buffer:      "plain",
			step:        All(match.Literal("zzz"), "y"),
			want:        "plain",
			wantOutcome: OutcomeSkipped,
		},
		{
			name:         "replace_all_missing_strict_fails",
			buffer:       "plain",
			step:         All(match.Literal("zzz"), "y"),
			opts:         Options{Strict: true},
			wantNotFound: true,
		},
		{
			name:      "unknown_kind",
			buffer:    "x",
			step:      Step{Pattern: match.Literal("x")},
			wantError: "unknown step kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.step.Apply(tt.buffer, tt.opts)

			if tt.wantNotFound {
				require.Error(t, err, "Apply should fail")
				var nf *PatternNotFoundError
				require.True(t, errors.As(err, &nf), "error should be PatternNotFoundError")
				assert.Equal(t, tt.step.Label(), nf.Step, "error should name the step")
				return
			}

			if tt.wantError != "" {
				require.Error(t, err, "Apply should fail")
				assert.Contains(t, err.Error(), tt.wantError, "error should contain expected message")
				return
			}

			require.NoError(t, err, "Apply should succeed")
			require.NotNil(t, res, "result should not be nil")
			assert.Equal(t, tt.want, res.Buffer, "buffer should match")
			assert.Equal(t, tt.wantOutcome, res.Outcome, "outcome should match")
			assert.Equal(t, tt.wantCaptured, res.Captured, "captured text should match")
		})
	}
}

func TestStep_ApplyRegionPreservesOutside(t *testing.T) {
	buffer := "prefix line\n{/* banner */}\n<header>\n  nav\n</header>\nsuffix line\n"
	step := Region(match.Block("{/* banner", "</header>"), "<PageHeader />")

	res, err := step.Apply(buffer, Options{})
	require.NoError(t, err, "Apply should succeed")

	span := res.Span
	assert.Equal(t, buffer[:span.Start], res.Buffer[:span.Start], "bytes before the span should be identical")
	tail := buffer[span.End:]
	assert.Equal(t, tail, res.Buffer[len(res.Buffer)-len(tail):], "bytes after the span should be identical")
	assert.Equal(t, len(buffer)-span.Len()+len("<PageHeader />"), len(res.Buffer), "length should change by the span delta only")
}

func TestStep_ApplyIsIdempotentForLiterals(t *testing.T) {
	steps := []Step{
		Replace("import { X } from \"x\";", "import { X } from \"x\";\nimport { useStore } from \"@/lib/store\";"),
		Replace("setData(", "store.setData("),
	}
	buffer := "import { X } from \"x\";\nfunction f() { setData(1) }\n"

	run := func(in string) string {
		for _, s := range steps {
			res, err := s.Apply(in, Options{})
			require.NoError(t, err, "Apply should succeed")
			in = res.Buffer
		}
		return in
	}

	once := run(buffer)
	twice := run(once)
	assert.Equal(t, once, twice, "second run should not change the buffer")
	assert.Contains(t, once, "store.setData(1)", "first run should apply the setter rewrite")
}

func TestStep_Validate(t *testing.T) {
	tests := []struct {
		name      string
		step      Step
		wantError string
	}{
		{name: "valid_replace", step: Replace("a", "b")},
		{name: "valid_extract", step: Extract(match.Regex(`a.*b`))},
		{name: "empty_literal", step: Replace("", "b"), wantError: "literal pattern is empty"},
		{name: "bad_regex", step: Extract(match.Regex(`a(`)), wantError: "compiling regex"},
		{name: "bad_policy", step: Replace("a", "b").WithPolicy(match.Policy(9)), wantError: "unknown match policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.wantError != "" {
				require.Error(t, err, "Validate should fail")
				assert.Contains(t, err.Error(), tt.wantError, "error should contain expected message")
				return
			}
			require.NoError(t, err, "Validate should succeed")
		})
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"replace_literal": ReplaceLiteral,
		"replace":         ReplaceLiteral,
		"extract":         ExtractAndRemove,
		"REMOVE":          ExtractAndRemove,
		"replace_region":  ReplaceRegion,
		"replace_all":     ReplaceAll,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, "ParseKind(%q) should succeed", in)
		assert.Equal(t, want, got, "ParseKind(%q) should match", in)
	}

	_, err := ParseKind("rewrite")
	require.Error(t, err, "unknown kind should fail")
}
