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

package rewrite

import (
	"io/fs"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// 📁 Expand resolves include patterns against fsys and drops anything that
// matches an exclude pattern. Entries without glob metacharacters are kept
// verbatim, so a missing explicit file surfaces later as a load error.
// The result is sorted and free of duplicates.
func Expand(fsys fs.FS, include, exclude []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(path string) error {
		for _, ex := range exclude {
			matched, err := doublestar.Match(ex, path)
			if err != nil {
				return errors.Errorf("matching exclude pattern %q: %w", ex, err)
			}
			if matched {
				return nil
			}
		}
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
		return nil
	}

	for _, pattern := range include {
		if !hasMeta(pattern) {
			if err := add(pattern); err != nil {
				return nil, err
			}
			continue
		}

		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid glob pattern %q", pattern)
		}

		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("expanding %q: %w", pattern, err)
		}
		for _, m := range matches {
			if err := add(m); err != nil {
				return nil, err
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
