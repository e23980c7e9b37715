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
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
)

// failingBackend wraps a backend and fails reads and/or writes on demand.
type failingBackend struct {
	Backend
	mutex     sync.Mutex
	failRead  bool
	failWrite bool
}

func (b *failingBackend) Read(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	b.mutex.Lock()
	fail := b.failRead
	b.mutex.Unlock()
	if fail {
		return nil, false, errors.New("injected read failure")
	}
	return b.Backend.Read(ctx, namespace, key)
}

func (b *failingBackend) Write(ctx context.Context, namespace, key string, value []byte) error {
	b.mutex.Lock()
	fail := b.failWrite
	b.mutex.Unlock()
	if fail {
		return errors.New("injected write failure")
	}
	return b.Backend.Write(ctx, namespace, key, value)
}

func newTestStore(backend Backend) *LayoutStore {
	return NewLayoutStore(Config{Channels: model.DefaultChannels()}, backend, zerolog.Nop())
}

func TestLayoutStore_ReadAbsent(t *testing.T) {
	s := newTestStore(NewMemoryBackend())
	l, found, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, l)
}

func TestLayoutStore_WriteRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryBackend())
	l := model.NewDefaultLayout(model.DefaultChannels())
	l["pin_23"] = model.Device{ID: 23, Name: "pin_23", State: true}
	require.NoError(t, s.Write(ctx, l))

	got, found, err := s.Read(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, l, got)
}

func TestLayoutStore_InitializeDefault(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemoryBackend())

	l, err := s.InitializeDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.NewDefaultLayout(model.DefaultChannels()), l)

	// Does not overwrite an existing layout
	l["pin_2"] = model.Device{ID: 2, Name: "pin_2", State: true}
	require.NoError(t, s.Write(ctx, l))
	again, err := s.InitializeDefault(ctx)
	require.NoError(t, err)
	assert.True(t, again["pin_2"].State)
}

func TestLayoutStore_Errors(t *testing.T) {
	ctx := context.Background()
	fb := &failingBackend{Backend: NewMemoryBackend()}
	s := newTestStore(fb)

	fb.failWrite = true
	err := s.Write(ctx, model.NewDefaultLayout(model.DefaultChannels()))
	assert.True(t, model.IsStorage(err))
	_, err = s.InitializeDefault(ctx)
	assert.True(t, model.IsStorage(err))

	fb.failWrite = false
	fb.failRead = true
	_, _, err = s.Read(ctx)
	assert.True(t, model.IsStorage(err))
}

func TestLayoutStore_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	require.NoError(t, b.Write(ctx, DefaultNamespace, DefaultKey, []byte("{corrupt")))
	s := newTestStore(b)
	_, _, err := s.Read(ctx)
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
}

func TestLayoutStore_TransactionsAreSerialized(t *testing.T) {
	ctx := context.Background()
	channels := model.Channels{}
	for i := 0; i < 16; i++ {
		name := "ch" + string(rune('a'+i))
		channels = append(channels, model.Channel{Name: name, ID: i, Pin: i, Topic: name})
	}
	s := NewLayoutStore(Config{Channels: channels}, NewMemoryBackend(), zerolog.Nop())
	_, err := s.InitializeDefault(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, c := range channels {
		wg.Add(1)
		go func(c model.Channel) {
			defer wg.Done()
			err := s.Transaction(ctx, func(tx Tx) error {
				l, _, err := tx.Read(ctx)
				if err != nil {
					return err
				}
				l[c.Name] = model.Device{ID: c.ID, Name: c.Name, State: true}
				return tx.Write(ctx, l)
			})
			assert.NoError(t, err)
		}(c)
	}
	wg.Wait()

	l, found, err := s.Read(ctx)
	require.NoError(t, err)
	require.True(t, found)
	for _, c := range channels {
		assert.True(t, l[c.Name].State, c.Name)
	}
}

func TestBackends(t *testing.T) {
	dir := t.TempDir()
	backends := map[string]func() (Backend, error){
		"memory": func() (Backend, error) { return NewMemoryBackend(), nil },
		"badger-memory": func() (Backend, error) {
			return NewBadgerBackend(BadgerConfig{InMemory: true}, zerolog.Nop())
		},
		"badger-disk": func() (Backend, error) {
			return NewBadgerBackend(BadgerConfig{Path: filepath.Join(dir, "badger"), SyncWrites: true}, zerolog.Nop())
		},
		"sqlite-memory": func() (Backend, error) { return NewSQLiteBackend(":memory:") },
		"sqlite-disk":   func() (Backend, error) { return NewSQLiteBackend(filepath.Join(dir, "sqlite", "oner.db")) },
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b, err := open()
			require.NoError(t, err)
			defer b.Close()

			_, found, err := b.Read(ctx, "ns", "key")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, b.Write(ctx, "ns", "key", []byte("one")))
			require.NoError(t, b.Write(ctx, "ns", "key", []byte("two")))
			require.NoError(t, b.Write(ctx, "other", "key", []byte("three")))

			value, found, err := b.Read(ctx, "ns", "key")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "two", string(value))

			value, found, err = b.Read(ctx, "other", "key")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "three", string(value))
		})
	}
}

func TestBackends_SurviveReopen(t *testing.T) {
	dir := t.TempDir()
	open := map[string]func() (Backend, error){
		"badger": func() (Backend, error) {
			return NewBackend(BackendConfig{Type: BackendBadger, Path: filepath.Join(dir, "badger"), SyncWrites: true}, zerolog.Nop())
		},
		"sqlite": func() (Backend, error) {
			return NewBackend(BackendConfig{Type: BackendSQLite, Path: filepath.Join(dir, "oner.db")}, zerolog.Nop())
		},
	}
	for name, fn := range open {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b, err := fn()
			require.NoError(t, err)
			s := newTestStore(b)
			l, err := s.InitializeDefault(ctx)
			require.NoError(t, err)
			l["pin_2"] = model.Device{ID: 2, Name: "pin_2", State: true}
			require.NoError(t, s.Write(ctx, l))
			require.NoError(t, b.Close())

			b, err = fn()
			require.NoError(t, err)
			defer b.Close()
			got, found, err := newTestStore(b).Read(ctx)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, l, got)
		})
	}
}

func TestNewBackend_MemoryWarns(t *testing.T) {
	var buf bytes.Buffer
	b, err := NewBackend(BackendConfig{Type: BackendMemory}, zerolog.New(&buf))
	require.NoError(t, err)
	defer b.Close()
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "will not survive a restart")

	buf.Reset()
	b, err = NewBackend(BackendConfig{Type: BackendSQLite, Path: filepath.Join(t.TempDir(), "oner.db")}, zerolog.New(&buf))
	require.NoError(t, err)
	defer b.Close()
	assert.Empty(t, buf.String())
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := NewBackend(BackendConfig{Type: "etcd"}, zerolog.Nop())
	assert.True(t, model.IsValidation(err))
}
