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
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

type sqliteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) a sqlite database at the given path.
// Use ":memory:" for a database that is not persisted.
func NewSQLiteBackend(path string) (Backend, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("path is required for sqlite database")
	}
	if p != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
			return nil, errors.Wrapf(err, "failed to create database directory for %s", p)
		}
	}
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	// A single connection serializes writers and keeps ":memory:" alive.
	db.SetMaxOpenConns(1)
	_, _ = db.Exec("PRAGMA busy_timeout=3000;")
	_, _ = db.Exec("PRAGMA synchronous=FULL;")
	b := &sqliteBackend{db: db}
	if err := b.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *sqliteBackend) ensureSchema(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS kv (
		namespace  TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (namespace, key)
	);`
	if _, err := b.db.ExecContext(ctx, q); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}
	return nil
}

func (b *sqliteBackend) Read(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?;`, namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, maskAny(err)
	}
	return value, true, nil
}

func (b *sqliteBackend) Write(ctx context.Context, namespace, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO kv(namespace, key, value, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at;`,
		namespace, key, value, time.Now().UTC())
	if err != nil {
		return maskAny(err)
	}
	return nil
}

func (b *sqliteBackend) Close() error {
	return maskAny(b.db.Close())
}
