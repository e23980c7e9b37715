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
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
)

// Backend is a key-value store the layout is persisted in.
// Values are addressed by namespace and key.
type Backend interface {
	// Read the value stored under given namespace & key.
	// Returns found=false when no value has been written.
	Read(ctx context.Context, namespace, key string) (value []byte, found bool, err error)
	// Write the value under given namespace & key, replacing any
	// previous value. Returns after the value is durable.
	Write(ctx context.Context, namespace, key string, value []byte) error
	// Close the backend.
	Close() error
}

// BackendType identifies a backend implementation.
type BackendType string

const (
	// BackendBadger stores values in an embedded badger database.
	BackendBadger BackendType = "badger"
	// BackendSQLite stores values in a sqlite database file.
	BackendSQLite BackendType = "sqlite"
	// BackendMemory keeps values in memory only.
	BackendMemory BackendType = "memory"
)

// BackendConfig selects and configures a backend.
type BackendConfig struct {
	Type BackendType
	// Path of the database (directory for badger, file for sqlite)
	Path string
	// SyncWrites forces badger to fsync every write.
	SyncWrites bool
}

// NewBackend opens the backend described by the given config.
func NewBackend(conf BackendConfig, log zerolog.Logger) (Backend, error) {
	switch BackendType(strings.ToLower(string(conf.Type))) {
	case BackendBadger, "":
		return NewBadgerBackend(BadgerConfig{
			Path:       conf.Path,
			SyncWrites: conf.SyncWrites,
		}, log)
	case BackendSQLite:
		return NewSQLiteBackend(conf.Path)
	case BackendMemory:
		log.Warn().Msg("Using memory storage; channel states will not survive a restart")
		return NewMemoryBackend(), nil
	default:
		return nil, errors.Wrapf(model.ValidationError, "unknown storage backend '%s'", conf.Type)
	}
}
