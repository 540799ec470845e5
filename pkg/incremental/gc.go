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

package incremental

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codegraph-dev/codegraph/pkg/config"
	"github.com/codegraph-dev/codegraph/pkg/ir"
	"github.com/codegraph-dev/codegraph/pkg/metadata"
)

// CacheInvalidator is the subset of pkg/cache.Tiered[V]'s API GC needs.
// Every tier namespace (Structural, Semantic, GraphNode, Chunk) satisfies
// this without GC needing to know V.
type CacheInvalidator interface {
	Invalidate(pred func(ir.Hash128) bool, knownKeys []ir.Hash128)
}

// SnapshotKeysFunc resolves the cache keys a snapshot produced, decoded
// from its opaque SnapshotRecord.Provenance bytes. pkg/metadata treats
// Provenance as opaque, so this decode step belongs to the caller wiring
// GC together (pkg/pipeline), not to pkg/metadata itself.
type SnapshotKeysFunc func(rec metadata.SnapshotRecord) ([]ir.Hash128, error)

// GC cascades snapshot retention through the metadata store and every
// cache namespace: enumerate snapshots via pkg/metadata.Store.Eligible,
// apply keep_latest_count/keep_days/keep_tagged, invalidate each evicted
// snapshot's cache entries, then delete its metadata row.
//
// True cross-system transactionality isn't available here — the metadata
// delete and the cache invalidation are two different storage systems.
// Only the metadata side gets a single SQL statement per snapshot; GC
// invalidates caches first so a crash mid-sweep leaves, at worst, a
// metadata row referencing already-evicted cache entries (a re-buildable
// miss), never a dangling cache entry with no owning snapshot.
type GC struct {
	store  metadata.Store
	caches map[string]CacheInvalidator
	keysOf SnapshotKeysFunc
	log    *slog.Logger
}

// NewGC builds a GC over store, invalidating the given namespace caches
// (keyed by the same Namespace string pkg/cache.Config uses) when a
// snapshot is evicted. keysOf may be nil if no cache cascade is desired
// (metadata-only retention).
func NewGC(store metadata.Store, caches map[string]CacheInvalidator, keysOf SnapshotKeysFunc, log *slog.Logger) *GC {
	if log == nil {
		log = slog.Default()
	}
	return &GC{store: store, caches: caches, keysOf: keysOf, log: log}
}

// Sweep applies policy to repoID's snapshots as of now, returning the
// number of snapshots deleted.
func (g *GC) Sweep(ctx context.Context, repoID string, policy config.GCPolicy, now time.Time) (int, error) {
	// Eligible always excludes tagged=true snapshots; policy.KeepTagged has
	// no "false" behavior to implement since untagging-by-GC is not a
	// supported operation — tags are a user decision, never GC's to revoke.
	cutoff := now.Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
	eligible, err := g.store.Eligible(ctx, repoID, cutoff, policy.KeepLatestCount)
	if err != nil {
		return 0, fmt.Errorf("incremental: gc eligible %s: %w", repoID, err)
	}

	deleted := 0
	for _, rec := range eligible {
		if err := g.evict(ctx, rec); err != nil {
			g.log.Warn("gc: failed to evict snapshot",
				"repo_id", rec.RepoID, "snapshot_id", rec.SnapshotID, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (g *GC) evict(ctx context.Context, rec metadata.SnapshotRecord) error {
	if g.keysOf != nil && len(g.caches) > 0 {
		keys, err := g.keysOf(rec)
		if err != nil {
			return fmt.Errorf("resolve cache keys for %s/%s: %w", rec.RepoID, rec.SnapshotID, err)
		}
		if len(keys) > 0 {
			keySet := make(map[ir.Hash128]bool, len(keys))
			for _, k := range keys {
				keySet[k] = true
			}
			pred := func(k ir.Hash128) bool { return keySet[k] }
			for _, c := range g.caches {
				c.Invalidate(pred, keys)
			}
		}
	}

	if err := g.store.Delete(ctx, rec.RepoID, rec.SnapshotID); err != nil {
		return fmt.Errorf("delete snapshot %s/%s: %w", rec.RepoID, rec.SnapshotID, err)
	}
	return nil
}
