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

package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(mockDB, "sqlmock")
	return &SQLStore{db: sqlxDB}, mock
}

var snapshotCols = []string{"repo_id", "snapshot_id", "git_commit", "indexed_at", "status", "duration_ms", "provenance", "tagged"}

func TestSQLStore_Get(t *testing.T) {
	s, mock := setupMockStore(t)
	defer s.Close()

	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(snapshotCols).
		AddRow("repo-1", "snap-1", "deadbeef", now, "complete", int64(1234), []byte("prov"), false)
	mock.ExpectQuery("SELECT (.|\n)*FROM snapshots WHERE repo_id = \\$1 AND snapshot_id = \\$2").
		WithArgs("repo-1", "snap-1").
		WillReturnRows(rows)

	rec, err := s.Get(context.Background(), "repo-1", "snap-1")
	require.NoError(t, err)
	require.Equal(t, "deadbeef", rec.GitCommit)
	require.Equal(t, "complete", rec.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_GetNotFound(t *testing.T) {
	s, mock := setupMockStore(t)
	defer s.Close()

	mock.ExpectQuery("SELECT (.|\n)*FROM snapshots WHERE repo_id = \\$1 AND snapshot_id = \\$2").
		WithArgs("repo-1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "repo-1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_Eligible(t *testing.T) {
	s, mock := setupMockStore(t)
	defer s.Close()

	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(snapshotCols).
		AddRow("repo-1", "snap-old", "aaaa", now.Add(-48*time.Hour), "complete", int64(10), nil, false)
	mock.ExpectQuery("SELECT (.|\n)*FROM snapshots(.|\n)*WHERE repo_id = \\$1 AND tagged = FALSE AND indexed_at < \\$2").
		WithArgs("repo-1", now, 5).
		WillReturnRows(rows)

	recs, err := s.Eligible(context.Background(), "repo-1", now, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "snap-old", recs[0].SnapshotID)
}

func TestSQLStore_Delete(t *testing.T) {
	s, mock := setupMockStore(t)
	defer s.Close()

	mock.ExpectExec("DELETE FROM snapshots WHERE repo_id = \\$1 AND snapshot_id = \\$2").
		WithArgs("repo-1", "snap-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Delete(context.Background(), "repo-1", "snap-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
