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

// Package lockport serializes concurrent full builds of the same
// repository at file granularity. A NoOpLock satisfies single-process use
// and tests; FileLock and RedisLock satisfy the same interface for
// multi-process and multi-machine deployments respectively, so the build
// coordinator never branches on which backend is active.
package lockport

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned by TryLock when another holder already owns the
// named lock.
var ErrLocked = errors.New("lockport: already locked")

// ErrNotHeld is returned by Unlock/Renew when the caller does not currently
// hold the named lock (already released, expired, or never acquired).
var ErrNotHeld = errors.New("lockport: lock not held")

// LockPort serializes full builds of a repository at file granularity.
// Implementations must be safe for concurrent use by multiple goroutines
// acting on behalf of different callers.
type LockPort interface {
	// TryLock attempts to acquire key for ttl, returning a lock token that
	// must be presented to Unlock/Renew. Returns ErrLocked if already held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	// Unlock releases key if token matches the current holder.
	Unlock(ctx context.Context, key, token string) error
	// Renew extends key's TTL if token matches the current holder.
	Renew(ctx context.Context, key, token string, ttl time.Duration) error
}
