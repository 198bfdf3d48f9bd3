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
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	stepIndent  = 8  // spaces to indent step entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 15 // Width for status text
)

// 🎯 FileLine is one file handled by a run
type FileLine struct {
	Path      string // File path
	Status    string // Result status text
	IsChanged bool   // Whether the file was or would be rewritten
	IsFailed  bool   // Whether loading, a step or the write failed
	IsGuarded bool   // Whether the skip guard matched
	Applied   int    // Number of steps that changed the buffer
}

// 🪜 StepLine is one step of a pipeline run
type StepLine struct {
	Index   int
	Name    string
	Outcome string
	Matches int
	Err     error
}

// 📦 RunHeader introduces a run
type RunHeader struct {
	Pipeline string // Pipeline name
	Files    int    // Number of files selected
	DryRun   bool   // Whether writes are suppressed
}

// 🎯 Logger prints console lines and mirrors each one to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *RunHeader
	files   []FileLine
}

// 🏭 New creates a new logger writing to console
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileLine formats a file line for display
func (l *Logger) formatFileLine(f FileLine) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case f.IsFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case f.IsChanged:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case f.IsGuarded:
		symbol = '•'
		symbolColor = color.FgCyan
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	statusColor := color.FgHiBlack
	switch {
	case f.IsFailed:
		statusColor = color.FgRed
	case f.IsChanged:
		statusColor = color.FgGreen
	}

	return fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", fileIndent),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, f.Path),
		color.New(statusColor).Sprint(fmt.Sprintf("%-*s", statusWidth, f.Status)))
}

// 📝 formatStepLine formats a step line for display
func (l *Logger) formatStepLine(s StepLine) string {
	outcome := s.Outcome
	outcomeColor := color.FgHiBlack
	switch {
	case s.Err != nil:
		outcome = "failed"
		outcomeColor = color.FgRed
	case s.Outcome == "applied":
		outcomeColor = color.FgGreen
	case s.Outcome == "unchanged":
		outcomeColor = color.FgYellow
	}

	line := fmt.Sprintf("%s%s %-*s %s",
		strings.Repeat(" ", stepIndent),
		color.New(color.Faint).Sprintf("%2d.", s.Index),
		nameWidth-stepIndent+fileIndent, s.Name,
		color.New(outcomeColor).Sprint(outcome))

	if s.Matches > 1 {
		line += color.New(color.Faint).Sprintf(" (%d matches)", s.Matches)
	}
	if s.Err != nil {
		line += " " + color.New(color.FgRed).Sprint(s.Err.Error())
	}
	return line
}

// 📝 LogFile logs a file result
func (l *Logger) LogFile(ctx context.Context, f FileLine) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.files = append(l.files, f)

	fmt.Fprintln(l.console, l.formatFileLine(f))

	l.zlog.Info().
		Str("file", f.Path).
		Str("status", f.Status).
		Bool("is_changed", f.IsChanged).
		Bool("is_failed", f.IsFailed).
		Bool("is_guarded", f.IsGuarded).
		Int("applied", f.Applied).
		Msg("file processed")
}

// 📝 LogStep logs a step result under the current file
func (l *Logger) LogStep(ctx context.Context, s StepLine) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatStepLine(s))

	ev := l.zlog.Debug()
	if s.Err != nil {
		ev = l.zlog.Error().Err(s.Err)
	}
	ev.Int("step", s.Index).
		Str("name", s.Name).
		Str("outcome", s.Outcome).
		Int("matches", s.Matches).
		Msg("step processed")
}

// 📝 StartRun starts a new run
func (l *Logger) StartRun(ctx context.Context, h RunHeader) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &h
	l.files = nil

	l.header("recasting " + h.Pipeline)

	mode := "write"
	if h.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprintf("%d files", h.Files),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(mode))

	l.zlog.Info().
		Str("pipeline", h.Pipeline).
		Int("files", h.Files).
		Bool("dry_run", h.DryRun).
		Msg("starting run")
}

// 📝 EndRun ends the current run
func (l *Logger) EndRun(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	changed, failed := 0, 0
	for _, f := range l.files {
		if f.IsFailed {
			failed++
		} else if f.IsChanged {
			changed++
		}
	}

	l.zlog.Info().
		Str("pipeline", l.current.Pipeline).
		Int("files", len(l.files)).
		Int("changed", changed).
		Int("failed", failed).
		Msg("run complete")

	l.current = nil
	l.files = nil
}

// 📝 LogDiff prints a line diff with added and removed lines colored
func (l *Logger) LogDiff(diff string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			line = color.New(color.Bold).Sprint(line)
		case strings.HasPrefix(line, "@@"):
			line = color.New(color.FgCyan).Sprint(line)
		case strings.HasPrefix(line, "+"):
			line = color.New(color.FgGreen).Sprint(line)
		case strings.HasPrefix(line, "-"):
			line = color.New(color.FgRed).Sprint(line)
		}
		fmt.Fprintln(l.console, line)
	}
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.header(msg)
	l.zlog.Info().Msg(msg)
}

func (l *Logger) header(msg string) {
	recastText := color.New(color.Bold, color.FgCyan).Sprint("recast")
	fmt.Fprintf(l.console, "\n%s %s\n\n", recastText, color.New(color.Faint).Sprint("• "+msg))
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
