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
	"time"
)

// NoOpLock always grants the lock immediately. Single-process deployments
// and tests use this: there is no second process to contend with.
type NoOpLock struct{}

func (NoOpLock) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "noop", nil
}

func (NoOpLock) Unlock(ctx context.Context, key, token string) error { return nil }

func (NoOpLock) Renew(ctx context.Context, key, token string, ttl time.Duration) error { return nil }
