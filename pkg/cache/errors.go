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

// Package cache implements the three-tier content-addressed cache: L0
// (in-process builder state), L1 (bounded memory LRU), L2 (persistent disk
// cache with framed binary records). Every cache-layer error stays a
// package-level sentinel so errors.Is keeps working through wrapping, and
// never escapes a Tiered method as a hard failure (spec §7 propagation
// rule) — callers observe a miss, never an error, from Get.
package cache

import "errors"

var (
	// ErrCorrupt is a framing or checksum mismatch on an L2 record.
	ErrCorrupt = errors.New("cache: corrupt record")
	// ErrSchemaMismatch is an L2 record whose schema version header does
	// not match the reader's expectation.
	ErrSchemaMismatch = errors.New("cache: schema version mismatch")
	// ErrTransient is a permission/ENOENT race observed during a
	// concurrent replace; callers retry.
	ErrTransient = errors.New("cache: transient read error")
	// ErrWriteDenied is a disk-full or permission failure on write.
	ErrWriteDenied = errors.New("cache: write denied")
	// ErrBreakerOpen is returned internally when the L2 circuit breaker
	// has tripped; writes are skipped without attempting the syscall.
	ErrBreakerOpen = errors.New("cache: write circuit open")
)
