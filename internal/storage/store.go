/*
 * Copyright (c) 2026 by the Elara authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "github.com/chris-ha458/elara/internal/log"
	"github.com/chris-ha458/elara/internal/sim"
	"github.com/chris-ha458/elara/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// StoreDirName keeps the per-profile embedded database under the root.
	StoreDirName  = ".elara"
	StoreFileName = "elara.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump on breaking schema
	// changes and add a migration step.
	schemaVersion = 2
)

// StorePath returns the full path of the profile's database file.
func StorePath(root string) string {
	return filepath.Join(root, StoreDirName, StoreFileName)
}

// Attempt is one recorded run of a level.
type Attempt struct {
	ID        int64
	LevelID   string
	Outcome   string // "success" | "failure" | "continue" | "no_objective"
	Message   string
	Steps     int
	StartedAt time.Time
}

// Store wraps the embedded SQLite database holding scripts and attempts.
// It implements the script persistence collaborator of the editor.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// InitOrOpenStore opens (creating if needed) the database at root/.elara,
// enables WAL, and brings the schema up to date.
func InitOrOpenStore(root string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "store_init").With(
		slog.String("root", root),
	)
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("profile root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, StoreDirName), 0o755); err != nil {
		l.Error("create .elara dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .elara dir: %w", err)
	}

	path := StorePath(root)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("store ready", slog.String("path", path))
	return &Store{db: db, log: applog.WithComponent("storage")}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the stored schema for migrations; refresh app and timestamp
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		// one saved script per level, latest wins
		`CREATE TABLE IF NOT EXISTS scripts (
			level_id   TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		// every run attempt, for the stats view and classroom sync
		`CREATE TABLE IF NOT EXISTS attempts (
			id         INTEGER PRIMARY KEY,
			level_id   TEXT NOT NULL,
			outcome    TEXT NOT NULL,
			message    TEXT,
			steps      INTEGER NOT NULL,
			started_at TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// never downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_attempts_level ON attempts(level_id);`,
				`CREATE INDEX IF NOT EXISTS idx_attempts_started ON attempts(started_at);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		default:
			// unknown future step
		}
		cur = next
	}
	return nil
}

// SaveScript upserts the latest script text for a level.
func (s *Store) SaveScript(levelID, source string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO scripts (level_id, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(level_id) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at`,
		levelID, source, now)
	if err != nil {
		return fmt.Errorf("save script: %w", err)
	}
	return nil
}

// LatestScript returns the saved script for a level, if any.
func (s *Store) LatestScript(levelID string) (string, bool, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM scripts WHERE level_id=?`, levelID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load script: %w", err)
	}
	return body, true, nil
}

// RecordAttempt logs one run of a level.
func (s *Store) RecordAttempt(levelID string, outcome sim.Outcome, steps int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO attempts (level_id, outcome, message, steps, started_at) VALUES (?, ?, ?, ?, ?)`,
		levelID, outcome.Kind.String(), outcome.Message, steps, now)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Attempts lists the recorded attempts for a level, newest first.
func (s *Store) Attempts(levelID string) ([]Attempt, error) {
	rows, err := s.db.Query(
		`SELECT id, level_id, outcome, COALESCE(message, ''), steps, started_at
		 FROM attempts WHERE level_id=? ORDER BY id DESC`, levelID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var started string
		if err := rows.Scan(&a.ID, &a.LevelID, &a.Outcome, &a.Message, &a.Steps, &started); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, started); perr == nil {
			a.StartedAt = t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
