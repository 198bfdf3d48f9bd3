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

package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const defaultMode fs.FileMode = 0o644

// 📁 FileStore reads and writes files on the local filesystem
type FileStore struct {
	// BaseDir resolves relative paths, empty means the working directory
	BaseDir string

	// Backup copies the previous contents to path.bak before replacing a file
	Backup bool
}

var _ Store = (*FileStore)(nil)

// 🏭 NewFileStore creates a FileStore rooted at baseDir
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{BaseDir: baseDir}
}

// abs resolves path against BaseDir
func (f *FileStore) abs(path string) string {
	if filepath.IsAbs(path) || f.BaseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(f.BaseDir, path)
}

func (f *FileStore) Load(ctx context.Context, path string) (string, error) {
	absPath := f.abs(path)

	content, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Path: path}
		}
		return "", &IOError{Op: "read", Path: path, Err: err}
	}

	zerolog.Ctx(ctx).Trace().Str("path", absPath).Int("bytes", len(content)).Msg("loaded file")
	return string(content), nil
}

// Store writes text to a temp file in the target directory, syncs it, and
// renames it over path. The original mode is kept. On failure the target is
// left untouched and the temp file is removed.
func (f *FileStore) Store(ctx context.Context, path string, text string) error {
	absPath := f.abs(path)

	mode := defaultMode
	info, err := os.Stat(absPath)
	switch {
	case err == nil:
		mode = info.Mode().Perm()
		if f.Backup {
			if err := backupFile(absPath, mode); err != nil {
				return &IOError{Op: "backup", Path: path, Err: err}
			}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return &IOError{Op: "stat", Path: path, Err: err}
	}

	if err := writeFileAtomic(absPath, []byte(text), mode); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	zerolog.Ctx(ctx).Debug().Str("path", absPath).Int("bytes", len(text)).Bool("backup", f.Backup).Msg("stored file")
	return nil
}

func writeFileAtomic(path string, content []byte, mode fs.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".recast-*")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return errors.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return errors.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, mode); err != nil {
		return errors.Errorf("setting file mode: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func backupFile(path string, mode fs.FileMode) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Errorf("reading original: %w", err)
	}
	if err := writeFileAtomic(path+".bak", content, mode); err != nil {
		return errors.Errorf("writing backup: %w", err)
	}
	return nil
}
