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
	"sync"
)

// 🧠 MemStore keeps buffers in memory and records every write. The zero
// value is an empty store.
type MemStore struct {
	mu     sync.RWMutex
	files  map[string]string
	writes []string
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates a MemStore seeded with files
func NewMemStore(files map[string]string) *MemStore {
	m := &MemStore{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

func (m *MemStore) Load(ctx context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	text, ok := m.files[path]
	if !ok {
		return "", &NotFoundError{Path: path}
	}
	return text, nil
}

func (m *MemStore) Store(ctx context.Context, path string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.files == nil {
		m.files = make(map[string]string)
	}
	m.files[path] = text
	m.writes = append(m.writes, path)
	return nil
}

// Get returns the current contents of path
func (m *MemStore) Get(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	text, ok := m.files[path]
	return text, ok
}

// Writes returns the paths passed to Store, in call order
func (m *MemStore) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.writes...)
}
