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
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// BadgerConfig configures a badger backend.
type BadgerConfig struct {
	// Path of the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps the database in memory.
	InMemory bool
	// SyncWrites forces an fsync after every write.
	SyncWrites bool
}

type badgerBackend struct {
	db *badger.DB
}

// badgerLogger forwards badger log output to zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// NewBadgerBackend opens (or creates) a badger database.
func NewBadgerBackend(conf BadgerConfig, log zerolog.Logger) (Backend, error) {
	var opts badger.Options
	if conf.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if conf.Path == "" {
			return nil, errors.New("path is required for persistent database")
		}
		if err := os.MkdirAll(conf.Path, 0750); err != nil {
			return nil, errors.Wrapf(err, "failed to create database directory %s", conf.Path)
		}
		opts = badger.DefaultOptions(conf.Path)
	}
	opts = opts.
		WithSyncWrites(conf.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{log: log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger database")
	}
	return &badgerBackend{db: db}, nil
}

func badgerKey(namespace, key string) []byte {
	return []byte(namespace + "/" + key)
}

func (b *badgerBackend) Read(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	var value []byte
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(namespace, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, maskAny(err)
	}
	return value, found, nil
}

func (b *badgerBackend) Write(ctx context.Context, namespace, key string, value []byte) error {
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(namespace, key), value)
	}); err != nil {
		return maskAny(err)
	}
	return nil
}

func (b *badgerBackend) Close() error {
	return maskAny(b.db.Close())
}
