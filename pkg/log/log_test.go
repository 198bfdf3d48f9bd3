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

package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_run_header",
			op: func(t *testing.T, logger *Logger) {
				logger.StartRun(context.Background(), RunHeader{
					Pipeline: "scenario",
					Files:    2,
					DryRun:   true,
				})
			},
			wantLogs: []string{
				"recast • recasting scenario",
				"◆ 2 files • dry run",
			},
		},
		{
			name: "log_file_and_steps",
			op: func(t *testing.T, logger *Logger) {
				logger.LogFile(context.Background(), FileLine{Path: "app/page.tsx", Status: "modified", IsChanged: true, Applied: 1})
				logger.LogStep(context.Background(), StepLine{Index: 0, Name: "swap-import", Outcome: "applied"})
				logger.LogStep(context.Background(), StepLine{Index: 1, Name: "rename", Outcome: "skipped", Matches: 0})
			},
			wantLogs: []string{
				"⟳ " + fmt.Sprintf("%-35s", "app/page.tsx") + " modified",
				fmt.Sprintf("0. %-31s applied", "swap-import"),
				fmt.Sprintf("1. %-31s skipped", "rename"),
			},
		},
		{
			name: "log_failed_step",
			op: func(t *testing.T, logger *Logger) {
				logger.LogStep(context.Background(), StepLine{Index: 2, Name: "drop-block", Outcome: "skipped", Err: errors.New("pattern not found")})
			},
			wantLogs: []string{
				fmt.Sprintf("2. %-31s failed pattern not found", "drop-block"),
			},
		},
		{
			name: "log_ambiguous_step",
			op: func(t *testing.T, logger *Logger) {
				logger.LogStep(context.Background(), StepLine{Index: 0, Name: "x", Outcome: "applied", Matches: 3})
			},
			wantLogs: []string{
				fmt.Sprintf("0. %-31s applied (3 matches)", "x"),
			},
		},
		{
			name: "log_diff",
			op: func(t *testing.T, logger *Logger) {
				logger.LogDiff("--- a/x\n+++ b/x\n-old\n+new\n")
			},
			wantLogs: []string{
				"--- a/x",
				"+++ b/x",
				"-old",
				"+new",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("rewriting files")
			},
			wantLogs: []string{
				"recast • rewriting files",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop())

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, strings.TrimSpace(want), strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLogger_MirrorsToZerolog(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var zbuf bytes.Buffer
	logger := New(io.Discard, zerolog.New(&zbuf))
	ctx := context.Background()

	logger.StartRun(ctx, RunHeader{Pipeline: "p", Files: 2})
	logger.LogFile(ctx, FileLine{Path: "a.txt", Status: "modified", IsChanged: true})
	logger.LogFile(ctx, FileLine{Path: "b.txt", Status: "failed", IsFailed: true})
	logger.EndRun(ctx)

	out := zbuf.String()
	assert.Contains(t, out, `"message":"starting run"`)
	assert.Contains(t, out, `"file":"a.txt"`)
	assert.Contains(t, out, `"changed":1`)
	assert.Contains(t, out, `"failed":1`)
	assert.Contains(t, out, `"message":"run complete"`)
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.Nop())

	ctx := context.Background()
	ctx = NewContext(ctx, logger)

	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}

func TestFileLineFormatting(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	pad := func(s string) string { return fmt.Sprintf("%-35s", s) }

	tests := []struct {
		name string
		line FileLine
		want string
	}{
		{
			name: "changed_file",
			line: FileLine{Path: "test.txt", Status: "modified", IsChanged: true},
			want: "⟳ " + pad("test.txt") + " modified",
		},
		{
			name: "failed_file",
			line: FileLine{Path: "test.txt", Status: "failed", IsFailed: true, IsChanged: true},
			want: "✗ " + pad("test.txt") + " failed",
		},
		{
			name: "guarded_file",
			line: FileLine{Path: "test.txt", Status: "already done", IsGuarded: true},
			want: "• " + pad("test.txt") + " already done",
		},
		{
			name: "unchanged_file",
			line: FileLine{Path: "test.txt", Status: "unchanged"},
			want: "- " + pad("test.txt") + " unchanged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.Nop())

			logger.LogFile(context.Background(), tt.line)

			assert.Equal(t, tt.want, strings.TrimSpace(buf.String()), "formatted output should match")
		})
	}
}

func TestUserLogger(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	t.Run("summary", func(t *testing.T) {
		var out, errOut bytes.Buffer
		u := NewUserLogger(context.Background(), &out, &errOut)

		err := u.Summary([]SummaryRow{
			{Path: "app/page.tsx", Status: "modified", Applied: 2, Skipped: 1},
			{Path: "app/about/page.tsx", Status: "unchanged", Unchanged: 1},
		})
		require.NoError(t, err, "Summary should render")

		table := out.String()
		assert.Contains(t, table, "File")
		assert.Contains(t, table, "app/page.tsx")
		assert.Contains(t, table, "modified")
		assert.Contains(t, table, "2 files")
		assert.Empty(t, errOut.String(), "summary should not write to errOut")
	})

	t.Run("failure_goes_to_err_out", func(t *testing.T) {
		var out, errOut bytes.Buffer
		u := NewUserLogger(context.Background(), &out, &errOut)

		u.LogFailure(Failure{
			Path:    "page.tsx",
			Step:    1,
			Name:    "drop-block",
			Pattern: `block "START".."END" (lazy)`,
			Err:     errors.New("pattern not found"),
		})

		assert.Empty(t, out.String(), "failure should not write to out")
		msg := errOut.String()
		assert.Contains(t, msg, "Failed page.tsx at step 1 (drop-block)")
		assert.Contains(t, msg, `block "START".."END" (lazy)`)
		assert.Contains(t, msg, "pattern not found")
	})

	t.Run("load_failure_without_step", func(t *testing.T) {
		var out, errOut bytes.Buffer
		u := NewUserLogger(context.Background(), &out, &errOut)

		u.LogFailure(Failure{Path: "missing.tsx", Step: -1, Err: errors.New("file not found")})
		assert.Contains(t, errOut.String(), "Failed missing.tsx")
		assert.NotContains(t, errOut.String(), "at step")
	})

	t.Run("validation", func(t *testing.T) {
		var out, errOut bytes.Buffer
		u := NewUserLogger(context.Background(), &out, &errOut)

		u.LogValidation(true, "pipeline.yaml is valid", nil)
		u.LogValidation(false, "pipeline.yaml is invalid", errors.New("no steps defined"))

		assert.Contains(t, out.String(), "pipeline.yaml is valid")
		assert.Contains(t, errOut.String(), "pipeline.yaml is invalid")
		assert.Contains(t, errOut.String(), "no steps defined")
	})
}
