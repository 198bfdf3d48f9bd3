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
	"strconv"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 📢 UserLogger prints run summaries and failures for people
type UserLogger struct {
	log    zerolog.Logger // for debug/error logging
	out    io.Writer
	errOut io.Writer
}

// 📊 SummaryRow is one file in the run summary table
type SummaryRow struct {
	Path      string
	Status    string
	Applied   int
	Unchanged int
	Skipped   int
}

// 🚨 Failure describes why a file was left untouched
type Failure struct {
	Path    string
	Step    int    // -1 when no step was involved
	Name    string // step name
	Pattern string // step pattern
	Err     error
}

// 🎯 NewUserLogger creates a user logger. Failures go to errOut.
func NewUserLogger(ctx context.Context, out, errOut io.Writer) *UserLogger {
	return &UserLogger{
		log:    *zerolog.Ctx(ctx),
		out:    out,
		errOut: errOut,
	}
}

// 📊 Summary renders one row per file plus totals
func (u *UserLogger) Summary(rows []SummaryRow) error {
	data := pterm.TableData{{"File", "Status", "Applied", "Unchanged", "Skipped"}}

	var applied, unchanged, skipped int
	for _, r := range rows {
		data = append(data, []string{
			r.Path,
			r.Status,
			strconv.Itoa(r.Applied),
			strconv.Itoa(r.Unchanged),
			strconv.Itoa(r.Skipped),
		})
		applied += r.Applied
		unchanged += r.Unchanged
		skipped += r.Skipped
	}
	data = append(data, []string{
		fmt.Sprintf("%d files", len(rows)),
		"",
		strconv.Itoa(applied),
		strconv.Itoa(unchanged),
		strconv.Itoa(skipped),
	})

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(u.out, table)

	u.log.Debug().Int("files", len(rows)).Int("applied", applied).Msg("summary rendered")
	return nil
}

// ❌ LogFailure prints the failing file, step index, step name and pattern
func (u *UserLogger) LogFailure(f Failure) {
	msg := fmt.Sprintf("Failed %s", f.Path)
	if f.Step >= 0 {
		msg += fmt.Sprintf(" at step %d (%s) %s", f.Step, f.Name, f.Pattern)
	}

	fmt.Fprint(u.errOut, pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Sprintln(msg))
	if f.Err != nil {
		fmt.Fprint(u.errOut, pterm.Error.Sprintln(f.Err))
	}

	u.log.Error().
		Err(f.Err).
		Str("file", f.Path).
		Int("step", f.Step).
		Str("name", f.Name).
		Str("pattern", f.Pattern).
		Msg("file left untouched")
}

// 🔍 LogValidation logs validation results
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		fmt.Fprint(u.out, pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Sprintln(description))
		u.log.Info().Msg(description)
		return
	}

	if err != nil {
		fmt.Fprint(u.errOut, pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Sprintln(description))
		fmt.Fprint(u.errOut, pterm.Error.Sprintln(err))
		u.log.Error().Err(err).Msg(description)
		return
	}

	fmt.Fprint(u.errOut, pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Sprintln(description))
	u.log.Warn().Msg(description)
}
