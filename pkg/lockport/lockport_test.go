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

package lockport

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNoOpLock_AlwaysGrants(t *testing.T) {
	var l LockPort = NoOpLock{}
	token, err := l.TryLock(context.Background(), "repo-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, l.Renew(context.Background(), "repo-1", token, time.Minute))
	require.NoError(t, l.Unlock(context.Background(), "repo-1", token))
}

func TestFileLock_SecondTryFailsUntilUnlocked(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLock(dir)

	token, err := l.TryLock(context.Background(), "repo-1", time.Minute)
	require.NoError(t, err)

	_, err = l.TryLock(context.Background(), "repo-1", time.Minute)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, l.Unlock(context.Background(), "repo-1", token))

	_, err = l.TryLock(context.Background(), "repo-1", time.Minute)
	require.NoError(t, err)
}

func TestFileLock_UnlockWrongTokenFails(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLock(dir)

	_, err := l.TryLock(context.Background(), "repo-1", time.Minute)
	require.NoError(t, err)

	err = l.Unlock(context.Background(), "repo-1", "not-the-token")
	require.ErrorIs(t, err, ErrNotHeld)
}

func newTestRedisLock(t *testing.T) *RedisLock {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLock(client, "codegraph:lock:")
}

func TestRedisLock_SecondTryFailsUntilUnlocked(t *testing.T) {
	l := newTestRedisLock(t)
	ctx := context.Background()

	token, err := l.TryLock(ctx, "repo-1", time.Minute)
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "repo-1", time.Minute)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, l.Unlock(ctx, "repo-1", token))

	_, err = l.TryLock(ctx, "repo-1", time.Minute)
	require.NoError(t, err)
}

func TestRedisLock_UnlockWrongTokenFails(t *testing.T) {
	l := newTestRedisLock(t)
	ctx := context.Background()

	_, err := l.TryLock(ctx, "repo-1", time.Minute)
	require.NoError(t, err)

	err = l.Unlock(ctx, "repo-1", "not-the-token")
	require.ErrorIs(t, err, ErrNotHeld)
}

func TestRedisLock_RenewExtendsTTL(t *testing.T) {
	l := newTestRedisLock(t)
	ctx := context.Background()

	token, err := l.TryLock(ctx, "repo-1", 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, l.Renew(ctx, "repo-1", token, time.Minute))

	_, err = l.TryLock(ctx, "repo-1", time.Minute)
	require.ErrorIs(t, err, ErrLocked)
}
