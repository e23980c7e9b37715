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

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
)

const (
	// DefaultNamespace is the namespace the layout is stored in.
	DefaultNamespace = "oner"
	// DefaultKey is the key the layout is stored under.
	DefaultKey = "devices"
)

// Config of a LayoutStore.
type Config struct {
	Namespace string
	Key       string
	// Channels is used to build the default layout.
	Channels model.Channels
}

// LayoutStore persists the layout in a backend.
// All access is serialized by a single lock, so the read-modify-write
// of a Transaction is never interleaved with another one.
type LayoutStore struct {
	mutex     sync.Mutex
	log       zerolog.Logger
	backend   Backend
	namespace string
	key       string
	channels  model.Channels
}

// Tx gives access to the persisted layout while the store lock is held.
// It must not be used after the Transaction callback returned.
type Tx interface {
	// Read the persisted layout.
	Read(ctx context.Context) (model.Layout, bool, error)
	// Write the given layout.
	Write(ctx context.Context, layout model.Layout) error
}

// NewLayoutStore creates a store on top of the given backend.
func NewLayoutStore(conf Config, backend Backend, log zerolog.Logger) *LayoutStore {
	if conf.Namespace == "" {
		conf.Namespace = DefaultNamespace
	}
	if conf.Key == "" {
		conf.Key = DefaultKey
	}
	return &LayoutStore{
		log:       log.With().Str("component", "layout-store").Logger(),
		backend:   backend,
		namespace: conf.Namespace,
		key:       conf.Key,
		channels:  conf.Channels,
	}
}

// Read the persisted layout.
// Returns found=false if no layout has been written yet.
func (s *LayoutStore) Read(ctx context.Context) (model.Layout, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.read(ctx)
}

// Write the given layout.
func (s *LayoutStore) Write(ctx context.Context, layout model.Layout) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.write(ctx, layout)
}

// InitializeDefault writes the default (all off) layout if no layout
// has been written yet. Returns the persisted layout.
func (s *LayoutStore) InitializeDefault(ctx context.Context) (model.Layout, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	layout, found, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if found {
		return layout, nil
	}
	layout = model.NewDefaultLayout(s.channels)
	if err := s.write(ctx, layout); err != nil {
		return nil, err
	}
	s.log.Info().Strs("channels", s.channels.Names()).Msg("Initialized default layout")
	return layout, nil
}

// Transaction calls the given function while holding the store lock.
func (s *LayoutStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return fn(storeTx{s: s})
}

type storeTx struct {
	s *LayoutStore
}

func (tx storeTx) Read(ctx context.Context) (model.Layout, bool, error) {
	return tx.s.read(ctx)
}

func (tx storeTx) Write(ctx context.Context, layout model.Layout) error {
	return tx.s.write(ctx, layout)
}

// read the layout. Lock must be held.
func (s *LayoutStore) read(ctx context.Context) (model.Layout, bool, error) {
	layoutReadsTotal.Inc()
	data, found, err := s.backend.Read(ctx, s.namespace, s.key)
	if err != nil {
		layoutReadErrorsTotal.Inc()
		return nil, false, errors.Wrapf(model.StorageError, "read %s/%s: %s", s.namespace, s.key, err)
	}
	if !found {
		return nil, false, nil
	}
	layout, err := model.DecodeLayout(data)
	if err != nil {
		layoutReadErrorsTotal.Inc()
		return nil, false, errors.Wrapf(model.StorageError, "decode %s/%s: %s", s.namespace, s.key, err)
	}
	return layout, true, nil
}

// write the layout. Lock must be held.
func (s *LayoutStore) write(ctx context.Context, layout model.Layout) error {
	layoutWritesTotal.Inc()
	data, err := model.EncodeLayout(layout)
	if err != nil {
		layoutWriteErrorsTotal.Inc()
		return errors.Wrapf(model.StorageError, "encode %s/%s: %s", s.namespace, s.key, err)
	}
	if err := s.backend.Write(ctx, s.namespace, s.key, data); err != nil {
		layoutWriteErrorsTotal.Inc()
		return errors.Wrapf(model.StorageError, "write %s/%s: %s", s.namespace, s.key, err)
	}
	layoutSizeBytes.Set(float64(len(data)))
	return nil
}

var (
	maskAny = errors.WithStack
)
