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

package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// l1Entry is the value type stored in the L1 LRU, carrying its own
// estimated size so byte-bound eviction doesn't need to re-serialize.
type l1Entry[V any] struct {
	value         V
	estimatedSize int64
}

// l1Cache bounds by both entry count (delegated to hashicorp/golang-lru/v2,
// whose own New() already gives count-bound LRU behavior) and total
// estimated bytes, which the library has no concept of — so byte
// accounting and the eviction-on-overflow walk are layered on top here
// (spec §4.1 "L1 — Memory cache": bounded by both).
type l1Cache[V any] struct {
	mu         sync.Mutex
	lru        *lru.Cache[ir.Hash128, l1Entry[V]]
	maxBytes   int64
	usedBytes  int64
	entryCount int64
}

func newL1Cache[V any](maxEntries int, maxBytes int64) (*l1Cache[V], error) {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	out := &l1Cache[V]{maxBytes: maxBytes}
	// golang-lru's own count-bound eviction runs independently of the byte-bound
	// loop below; without this callback an entry it evicts on its own leaves
	// usedBytes/entryCount overcounted forever. The callback fires synchronously
	// from within Add/Remove, which Put/Remove/Purge already call under c.mu, so
	// it must mutate the fields directly rather than re-locking.
	c, err := lru.NewWithEvict[ir.Hash128, l1Entry[V]](maxEntries, func(_ ir.Hash128, evicted l1Entry[V]) {
		out.usedBytes -= evicted.estimatedSize
		out.entryCount--
	})
	if err != nil {
		return nil, err
	}
	out.lru = c
	return out, nil
}

func (c *l1Cache[V]) Get(key ir.Hash128) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put inserts key/value, evicting the least-recently-used entries until
// both the entry-count bound (enforced by the underlying LRU automatically,
// which drives the onEvict callback below for its own evictions) and the
// byte bound (enforced by the explicit loop, which relies on Remove driving
// that same callback) are satisfied. Bookkeeping for every eviction path —
// count-bound, byte-bound, or explicit Remove — flows through the single
// onEvict callback installed in newL1Cache; nothing here adjusts
// usedBytes/entryCount directly except for the in-place value replacement
// below, which the underlying LRU does not treat as an eviction.
func (c *l1Cache[V]) Put(key ir.Hash128, value V, estimatedSize int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.lru.Peek(key); ok {
		c.usedBytes -= old.estimatedSize
		c.entryCount--
	}

	c.lru.Add(key, l1Entry[V]{value: value, estimatedSize: estimatedSize})
	c.usedBytes += estimatedSize
	c.entryCount++

	for c.usedBytes > c.maxBytes && c.lru.Len() > 0 {
		evictedKey, _, ok := c.lru.GetOldest()
		if !ok {
			break
		}
		c.lru.Remove(evictedKey)
	}
}

func (c *l1Cache[V]) Remove(key ir.Hash128) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

func (c *l1Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.usedBytes = 0
	c.entryCount = 0
}

func (c *l1Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *l1Cache[V]) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usedBytes
}
