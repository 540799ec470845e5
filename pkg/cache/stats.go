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
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsSnapshot is the read-only view returned by (*Tiered).Stats (spec
// §4.1 Cache::stats()).
type StatsSnapshot struct {
	L0Hits          int64
	L1Hits          int64
	L2Hits          int64
	Misses          int64
	Evictions       int64
	Purged          int64
	CorruptEntries  int64
	WriteFails      int64
	DiskFullErrors  int64
	Bytes           int64
	Entries         int64
}

// Stats is the mutable counter set backing one namespace's cache. Counters
// are plain atomics rather than a mutex-guarded struct so Get/Set's hot
// path never contends on bookkeeping, mirroring the atomic.AddInt32/Int64
// counters the teacher's worker pool uses in local_pipeline.go.
type Stats struct {
	namespace string

	l0Hits         int64
	l1Hits         int64
	l2Hits         int64
	misses         int64
	evictions      int64
	purged         int64
	corruptEntries int64
	writeFails     int64
	diskFullErrors int64

	promHits      *prometheus.CounterVec
	promMisses    prometheus.Counter
	promEvictions prometheus.Counter
}

// NewStats constructs a Stats for namespace, registering its Prometheus
// series against reg. A nil registry disables Prometheus export but keeps
// the in-memory counters (useful in tests).
func NewStats(namespace string, reg prometheus.Registerer) *Stats {
	s := &Stats{namespace: namespace}
	s.promHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codegraph_cache_hits_total",
		Help: "Cache hits by namespace and tier.",
	}, []string{"namespace", "tier"})
	s.promMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "codegraph_cache_misses_total",
		Help:        "Cache misses.",
		ConstLabels: prometheus.Labels{"namespace": namespace},
	})
	s.promEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "codegraph_cache_evictions_total",
		Help:        "L0 builder-state evictions.",
		ConstLabels: prometheus.Labels{"namespace": namespace},
	})
	if reg != nil {
		reg.MustRegister(s.promHits, s.promMisses, s.promEvictions)
	}
	return s
}

// Stats methods assume a non-nil receiver; NewStats is the only
// constructor and every cache layer is built through it, so this is safe
// to rely on rather than nil-check on every hot-path increment.

func (s *Stats) addL0Hits(n int64) {
	atomic.AddInt64(&s.l0Hits, n)
	s.incProm("l0", n)
}
func (s *Stats) addL1Hits(n int64) {
	atomic.AddInt64(&s.l1Hits, n)
	s.incProm("l1", n)
}
func (s *Stats) addL2Hits(n int64) {
	atomic.AddInt64(&s.l2Hits, n)
	s.incProm("l2", n)
}
func (s *Stats) addMisses(n int64) {
	atomic.AddInt64(&s.misses, n)
	if s.promMisses != nil {
		s.promMisses.Add(float64(n))
	}
}
func (s *Stats) addEvictions(n int64) {
	atomic.AddInt64(&s.evictions, n)
	if s.promEvictions != nil {
		s.promEvictions.Add(float64(n))
	}
}
func (s *Stats) addPurged(n int64)         { atomic.AddInt64(&s.purged, n) }
func (s *Stats) addCorrupt(n int64)        { atomic.AddInt64(&s.corruptEntries, n) }
func (s *Stats) addWriteFails(n int64)     { atomic.AddInt64(&s.writeFails, n) }
func (s *Stats) addDiskFullErrors(n int64) { atomic.AddInt64(&s.diskFullErrors, n) }

func (s *Stats) incProm(tier string, n int64) {
	if s == nil || s.promHits == nil {
		return
	}
	s.promHits.WithLabelValues(s.namespace, tier).Add(float64(n))
}

func (s *Stats) snapshot(bytes, entries int64) StatsSnapshot {
	return StatsSnapshot{
		L0Hits:         atomic.LoadInt64(&s.l0Hits),
		L1Hits:         atomic.LoadInt64(&s.l1Hits),
		L2Hits:         atomic.LoadInt64(&s.l2Hits),
		Misses:         atomic.LoadInt64(&s.misses),
		Evictions:      atomic.LoadInt64(&s.evictions),
		Purged:         atomic.LoadInt64(&s.purged),
		CorruptEntries: atomic.LoadInt64(&s.corruptEntries),
		WriteFails:     atomic.LoadInt64(&s.writeFails),
		DiskFullErrors: atomic.LoadInt64(&s.diskFullErrors),
		Bytes:          bytes,
		Entries:        entries,
	}
}
