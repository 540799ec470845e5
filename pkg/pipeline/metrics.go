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

package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wires build telemetry into a prometheus registry. A nil registry
// (via NewMetrics(nil)) still returns a usable Metrics backed by its own
// private registry, so tests and one-off CLI runs never need a live
// collector endpoint.
type Metrics struct {
	buildDuration prometheus.Histogram
	faultCount    prometheus.Histogram
	parseErrors   prometheus.Counter
	filesParsed   prometheus.Counter
}

// NewMetrics registers the pipeline's collectors against reg. Pass nil to
// get an isolated registry (safe for concurrent test runs that would
// otherwise collide on prometheus's global default registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codegraph",
			Subsystem: "pipeline",
			Name:      "build_duration_seconds",
			Help:      "Wall-clock duration of a full snapshot build.",
			Buckets:   prometheus.DefBuckets,
		}),
		faultCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codegraph",
			Subsystem: "pipeline",
			Name:      "build_faults",
			Help:      "Per-function/file build faults recorded in one run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codegraph",
			Subsystem: "pipeline",
			Name:      "parse_errors_total",
			Help:      "Total files that failed to parse.",
		}),
		filesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codegraph",
			Subsystem: "pipeline",
			Name:      "files_parsed_total",
			Help:      "Total files successfully parsed.",
		}),
	}
	reg.MustRegister(m.buildDuration, m.faultCount, m.parseErrors, m.filesParsed)
	return m
}

func (m *Metrics) ObserveBuildDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveFaultCount(n int) {
	if m == nil {
		return
	}
	m.faultCount.Observe(float64(n))
}

func (m *Metrics) IncParseError() {
	if m == nil {
		return
	}
	m.parseErrors.Inc()
}

func (m *Metrics) IncFilesParsed() {
	if m == nil {
		return
	}
	m.filesParsed.Inc()
}
