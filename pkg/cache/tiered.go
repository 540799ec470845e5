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
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codegraph-dev/codegraph/pkg/ir"
)

// Codec packs/unpacks a namespace's value type to/from the canonical
// on-disk payload bytes, and estimates its in-memory footprint for L1's
// byte accounting. pkg/ir's StructuralIR/SemanticIR Pack/Unpack methods are
// the concrete implementations wired in by pkg/semantic and pkg/pipeline.
type Codec[V any] interface {
	Pack(v V) ([]byte, error)
	Unpack(b []byte) (V, error)
	EstimatedSize(v V) int64
}

// Config configures one Tiered cache namespace.
type Config struct {
	Namespace     string
	Root          string
	EngineVersion string
	SchemaVersion uint16
	Magic         [4]byte
	Ext           string
	Compress      bool
	L1MaxEntries  int
	L1MaxBytes    int64
	Logger        *slog.Logger
	Registerer    prometheus.Registerer
}

// Tiered is the L1+L2 cache for one namespace (Structural, Semantic,
// GraphNode, Chunk — spec §4.1). L0 is deliberately not part of Tiered: it
// is builder-private (see BuilderState) and never shared across requests.
type Tiered[V any] struct {
	codec Codec[V]
	l1    *l1Cache[V]
	l2    *l2Cache
	stats *Stats
}

// New constructs a Tiered cache namespace.
func New[V any](cfg Config, codec Codec[V]) (*Tiered[V], error) {
	stats := NewStats(cfg.Namespace, cfg.Registerer)
	l1, err := newL1Cache[V](cfg.L1MaxEntries, cfg.L1MaxBytes)
	if err != nil {
		return nil, err
	}
	l2 := newL2Cache(l2Config{
		Root:          cfg.Root,
		EngineVersion: cfg.EngineVersion,
		Ext:           cfg.Ext,
		Magic:         cfg.Magic,
		SchemaVersion: cfg.SchemaVersion,
		Compress:      cfg.Compress,
		Logger:        cfg.Logger,
		Stats:         stats,
	})
	return &Tiered[V]{codec: codec, l1: l1, l2: l2, stats: stats}, nil
}

// Get implements the cache contract's get(key): L1 hit returns immediately;
// L1 miss falls through to L2 and, on hit, promotes into L1 before
// returning; otherwise reports a miss. Never returns an error — cache
// errors never escape this interface (spec §7 propagation rule).
func (t *Tiered[V]) Get(key ir.Hash128) (V, bool) {
	if v, ok := t.l1.Get(key); ok {
		t.stats.addL1Hits(1)
		return v, true
	}

	payload, ok := t.l2.Get(key)
	if !ok {
		var zero V
		t.stats.addMisses(1)
		return zero, false
	}

	v, err := t.codec.Unpack(payload)
	if err != nil {
		// Successfully framed/checksummed but semantically undecodable —
		// treat identically to a corrupt record rather than propagate.
		var zero V
		t.stats.addCorrupt(1)
		t.stats.addMisses(1)
		return zero, false
	}
	t.l1.Put(key, v, t.codec.EstimatedSize(v))
	return v, true
}

// Set writes value through to L2 and populates L1 (spec §4.1 set(key,
// value): "write-through to L2, populate L1"). L2 write failures are
// logged internally (via Stats counters) and never returned as a build
// failure — only codec/encode errors, which indicate a programming bug
// rather than an environmental failure, are returned.
func (t *Tiered[V]) Set(key ir.Hash128, value V) error {
	payload, err := t.codec.Pack(value)
	if err != nil {
		return err
	}
	_ = t.l2.Set(key, payload) // disk-full/permission failures are swallowed by design
	t.l1.Put(key, value, t.codec.EstimatedSize(value))
	return nil
}

// Invalidate removes entries from L1 matching pred; L2 invalidation needs
// the caller-known key set since L2 itself does not enumerate keys (a
// directory scan would break the content-addressed, path-less design).
func (t *Tiered[V]) Invalidate(pred func(ir.Hash128) bool, knownKeys []ir.Hash128) {
	for _, k := range knownKeys {
		if pred(k) {
			t.l1.Remove(k)
		}
	}
	t.l2.Invalidate(pred, knownKeys)
}

// Stats returns the current counters for this namespace (spec §6.3
// Cache::stats()).
func (t *Tiered[V]) Stats() StatsSnapshot {
	return t.stats.snapshot(t.l1.Bytes(), int64(t.l1.Len()))
}
