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
	"os"
	"sort"
	"sync"
	"time"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// FileMetadata is the fast-path change-detection fingerprint for one file
// (spec §3.1, §4.1 L0).
type FileMetadata struct {
	ModTime     time.Time
	Size        int64
	ContentHash ir.Hash128
}

// l0Slot is one L0 entry: a file's last-seen metadata plus its structural
// handle, carried generically so both the structural and semantic builders
// can keep their own L0 scratch space with the same eviction discipline.
type l0Slot[V any] struct {
	meta       FileMetadata
	value      V
	lastAccess time.Time
}

// BuilderState is the L0 tier: per-builder-instance, in-process scratch
// space that is never shared across builders and never persisted (spec
// §3.5, §4.1). It is owned exclusively by the Builder that created it.
type BuilderState[V any] struct {
	mu       sync.Mutex
	maxFiles int
	entries  map[ir.FileId]*l0Slot[V]
	stats    *Stats
}

// NewBuilderState constructs an L0 scratch space bounded by maxFiles
// entries (spec §4.1 default 2000).
func NewBuilderState[V any](maxFiles int, stats *Stats) *BuilderState[V] {
	if maxFiles <= 0 {
		maxFiles = 2000
	}
	return &BuilderState[V]{maxFiles: maxFiles, entries: make(map[ir.FileId]*l0Slot[V]), stats: stats}
}

// Check performs the fast-path mtime+size test for file against its stat
// result, falling back to a content-hash comparison supplied by the caller
// only when the fast path disagrees (spec §4.1 L0 "Fast-path check").
// hit is true when the builder may reuse the cached value without
// rebuilding. On a content-hash hit the slot's stored mtime and size are
// updated in place, so the next Check takes the fast path again.
func (b *BuilderState[V]) Check(fileID ir.FileId, info os.FileInfo, computeContentHash func() ir.Hash128) (value V, hit bool) {
	b.mu.Lock()
	slot, ok := b.entries[fileID]
	b.mu.Unlock()
	if !ok {
		var zero V
		return zero, false
	}

	if slot.meta.ModTime.Equal(info.ModTime()) && slot.meta.Size == info.Size() {
		b.touch(fileID)
		b.stats.addL0Hits(1)
		return slot.value, true
	}

	// mtime/size disagree; recompute content hash before declaring a miss
	// (spec: "if equal, promote metadata and still hit").
	h := computeContentHash()
	if h == slot.meta.ContentHash {
		b.mu.Lock()
		slot.meta.ModTime = info.ModTime()
		slot.meta.Size = info.Size()
		b.mu.Unlock()
		b.touch(fileID)
		b.stats.addL0Hits(1)
		return slot.value, true
	}

	var zero V
	return zero, false
}

func (b *BuilderState[V]) touch(fileID ir.FileId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slot, ok := b.entries[fileID]; ok {
		slot.lastAccess = time.Now()
	}
}

// Put records value for fileID with meta, evicting the oldest-accessed
// entry (tie-broken lexicographically by FileId, spec §4.1) when the
// builder state is at capacity.
func (b *BuilderState[V]) Put(fileID ir.FileId, meta FileMetadata, value V) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[fileID]; !exists && len(b.entries) >= b.maxFiles {
		b.evictOldestLocked()
	}
	b.entries[fileID] = &l0Slot[V]{meta: meta, value: value, lastAccess: time.Now()}
}

func (b *BuilderState[V]) evictOldestLocked() {
	var oldestID ir.FileId
	var oldestTime time.Time
	first := true
	for id, slot := range b.entries {
		if first || slot.lastAccess.Before(oldestTime) ||
			(slot.lastAccess.Equal(oldestTime) && id < oldestID) {
			oldestID = id
			oldestTime = slot.lastAccess
			first = false
		}
	}
	if !first {
		delete(b.entries, oldestID)
		b.stats.addEvictions(1)
	}
}

// PurgeOrphans drops every entry whose FileId is absent from liveFiles
// (spec §4.1 L0 "Purge-orphans": run at the start of every request).
func (b *BuilderState[V]) PurgeOrphans(liveFiles map[ir.FileId]struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	purged := int64(0)
	for id := range b.entries {
		if _, live := liveFiles[id]; !live {
			delete(b.entries, id)
			purged++
		}
	}
	b.stats.addPurged(purged)
}

// Len reports the current L0 entry count (spec §8 invariant 6: |L0| <=
// l0_max_files at all times).
func (b *BuilderState[V]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// FileIDs returns the live file set in sorted order, useful for
// deterministic iteration in tests and diagnostics.
func (b *BuilderState[V]) FileIDs() []ir.FileId {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]ir.FileId, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
