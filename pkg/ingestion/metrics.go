// Copyright 2025 KrakLabs
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
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/graphload/pkg/engine"
)

// metricsIngestion holds Prometheus metrics for the ingestion driver.
type metricsIngestion struct {
	once sync.Once

	batches  prometheus.Counter
	rows     prometheus.Counter
	nodes    prometheus.Counter
	messages *prometheus.CounterVec
	failures prometheus.Counter

	submitDuration prometheus.Histogram
	totalDuration  prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.batches = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_ing_batches_total", Help: "Batches submitted to the engine"})
		m.rows = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_ing_rows_total", Help: "Rows read from the input files"})
		m.nodes = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_ing_nodes_total", Help: "Node messages received"})
		m.messages = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "graphload_ing_messages_total", Help: "Engine messages received by kind"}, []string{"kind"})
		m.failures = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_ing_failures_total", Help: "Runs aborted by a fatal error"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.submitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "graphload_ing_batch_seconds", Help: "Time to submit and drain one batch", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "graphload_ing_total_seconds", Help: "Duration of a whole run", Buckets: buckets})

		prometheus.MustRegister(
			m.batches, m.rows, m.nodes, m.messages, m.failures,
			m.submitDuration, m.totalDuration,
		)
	})
}

func recordBatch(rows int, took time.Duration) {
	ingMetrics.init()
	ingMetrics.batches.Inc()
	ingMetrics.rows.Add(float64(rows))
	ingMetrics.submitDuration.Observe(took.Seconds())
}

func recordMessage(m engine.Message) {
	ingMetrics.init()
	ingMetrics.messages.WithLabelValues(m.Kind.Label()).Inc()
	if m.Kind == engine.KindNode {
		ingMetrics.nodes.Inc()
	}
}

func recordRun(took time.Duration, failed bool) {
	ingMetrics.init()
	ingMetrics.totalDuration.Observe(took.Seconds())
	if failed {
		ingMetrics.failures.Inc()
	}
}
