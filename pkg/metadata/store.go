// Copyright 2026 CodeGraph Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metadata stores the external snapshot registry spec §6.2 treats
// as a black box: (repo_id, snapshot_id, git_commit, indexed_at, status,
// duration, provenance). pkg/incremental's GC and query-time snapshot
// lookup depend only on the Store interface below, never on *sql.DB or
// *sqlx.DB directly, so a non-Postgres implementation stays a drop-in.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
)

var ErrNotFound = errors.New("metadata: snapshot not found")

// SnapshotRecord is one row of the snapshot registry.
type SnapshotRecord struct {
	RepoID     string    `db:"repo_id"`
	SnapshotID string    `db:"snapshot_id"`
	GitCommit  string    `db:"git_commit"`
	IndexedAt  time.Time `db:"indexed_at"`
	Status     string    `db:"status"`
	DurationMS int64     `db:"duration_ms"`
	Provenance []byte    `db:"provenance"` // packed ir.SemanticIR-style bytes; opaque to this store
	Tagged     bool      `db:"tagged"`
}

// Store is the snapshot metadata registry's interface. pkg/incremental's GC
// and the CLI's `codegraph status` listing both depend on this, not on a
// concrete driver.
type Store interface {
	Insert(ctx context.Context, rec SnapshotRecord) error
	Get(ctx context.Context, repoID, snapshotID string) (SnapshotRecord, error)
	ListByRepo(ctx context.Context, repoID string) ([]SnapshotRecord, error)
	// Eligible returns snapshots older than cutoff, excluding the
	// keepLatest most recent and any tagged snapshot, for GC to delete.
	Eligible(ctx context.Context, repoID string, cutoff time.Time, keepLatest int) ([]SnapshotRecord, error)
	Delete(ctx context.Context, repoID, snapshotID string) error
	Close() error
}

// SQLStore is a Postgres-backed Store using sqlx, mirroring the teacher's
// Database wrapper (a thin *sqlx.DB holder with context-scoped query
// methods) rather than a full ORM.
type SQLStore struct {
	db *sqlx.DB
}

// Open connects to dsn (a PostgreSQL connection string) and returns a ready
// SQLStore. Callers must run Migrate before first use on a fresh database.
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("metadata: connect: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Insert(ctx context.Context, rec SnapshotRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO snapshots (repo_id, snapshot_id, git_commit, indexed_at, status, duration_ms, provenance, tagged)
		VALUES (:repo_id, :snapshot_id, :git_commit, :indexed_at, :status, :duration_ms, :provenance, :tagged)
		ON CONFLICT (repo_id, snapshot_id) DO UPDATE SET
			status = EXCLUDED.status, duration_ms = EXCLUDED.duration_ms, provenance = EXCLUDED.provenance
	`, rec)
	if err != nil {
		return fmt.Errorf("metadata: insert snapshot %s/%s: %w", rec.RepoID, rec.SnapshotID, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, repoID, snapshotID string) (SnapshotRecord, error) {
	var rec SnapshotRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT repo_id, snapshot_id, git_commit, indexed_at, status, duration_ms, provenance, tagged
		FROM snapshots WHERE repo_id = $1 AND snapshot_id = $2
	`, repoID, snapshotID)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("metadata: get %s/%s: %w", repoID, snapshotID, errOrNotFound(err))
	}
	return rec, nil
}

func (s *SQLStore) ListByRepo(ctx context.Context, repoID string) ([]SnapshotRecord, error) {
	var recs []SnapshotRecord
	err := s.db.SelectContext(ctx, &recs, `
		SELECT repo_id, snapshot_id, git_commit, indexed_at, status, duration_ms, provenance, tagged
		FROM snapshots WHERE repo_id = $1 ORDER BY indexed_at DESC
	`, repoID)
	if err != nil {
		return nil, fmt.Errorf("metadata: list %s: %w", repoID, err)
	}
	return recs, nil
}

// Eligible implements the retention policy's candidate selection: older
// than cutoff, not tagged, and outside the keepLatest most-recent window.
// The SQL itself enforces keep_latest_count via OFFSET so a second
// in-process sort pass is unnecessary.
func (s *SQLStore) Eligible(ctx context.Context, repoID string, cutoff time.Time, keepLatest int) ([]SnapshotRecord, error) {
	var recs []SnapshotRecord
	err := s.db.SelectContext(ctx, &recs, `
		SELECT repo_id, snapshot_id, git_commit, indexed_at, status, duration_ms, provenance, tagged
		FROM snapshots
		WHERE repo_id = $1 AND tagged = FALSE AND indexed_at < $2
		ORDER BY indexed_at DESC
		OFFSET $3
	`, repoID, cutoff, keepLatest)
	if err != nil {
		return nil, fmt.Errorf("metadata: eligible %s: %w", repoID, err)
	}
	return recs, nil
}

func (s *SQLStore) Delete(ctx context.Context, repoID, snapshotID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE repo_id = $1 AND snapshot_id = $2`, repoID, snapshotID)
	if err != nil {
		return fmt.Errorf("metadata: delete %s/%s: %w", repoID, snapshotID, err)
	}
	return nil
}

func errOrNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
