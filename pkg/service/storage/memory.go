// Copyright 2026 Ott-cop
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
//
// Author Ott-cop
//

package storage

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mutex  sync.Mutex
	values map[string][]byte
}

// NewMemoryBackend returns a backend that keeps values in memory.
// Values are lost when the process stops.
func NewMemoryBackend() Backend {
	return &memoryBackend{
		values: make(map[string][]byte),
	}
}

func (b *memoryBackend) Read(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	value, found := b.values[namespace+"/"+key]
	if !found {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (b *memoryBackend) Write(ctx context.Context, namespace, key string, value []byte) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.values[namespace+"/"+key] = append([]byte(nil), value...)
	return nil
}

func (b *memoryBackend) Close() error {
	return nil
}
