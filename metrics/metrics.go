// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package metrics

import (
	"context"

	"github.com/penny-vault/pvsec/data"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "pvsec"

// Collector holds the gauges describing the most recent run. pvsec is a
// batch job so metrics are pushed to a Prometheus pushgateway instead of
// being scraped.
type Collector struct {
	registry *prometheus.Registry

	entities *prometheus.GaugeVec
	skipped  *prometheus.GaugeVec
	written  *prometheus.GaugeVec
	duration *prometheus.GaugeVec
	success  prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pvsec_entities_processed",
			Help: "Number of entities or series visited in the last run",
		}, []string{"routine"}),
		skipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pvsec_entities_skipped",
			Help: "Number of entities whose remote source was unavailable in the last run",
		}, []string{"routine"}),
		written: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pvsec_rows_written",
			Help: "Number of rows inserted or replaced in the last run",
		}, []string{"routine"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pvsec_routine_duration_seconds",
			Help: "Wall-clock duration of each routine in the last run",
		}, []string{"routine"}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pvsec_last_run_success",
			Help: "1 if the last run completed without a fault, 0 otherwise",
		}),
	}

	registry.MustRegister(c.entities, c.skipped, c.written, c.duration, c.success)

	return c
}

// Observe records the outcome of a run
func (c *Collector) Observe(summaries []data.RunSummary, runErr error) {
	for _, summary := range summaries {
		c.entities.WithLabelValues(summary.Routine).Set(float64(summary.Entities))
		c.skipped.WithLabelValues(summary.Routine).Set(float64(summary.Skipped))
		c.written.WithLabelValues(summary.Routine).Set(float64(summary.Written))
		c.duration.WithLabelValues(summary.Routine).Set(summary.Duration().Seconds())
	}

	if runErr == nil {
		c.success.Set(1)
	} else {
		c.success.Set(0)
	}
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Push sends the collected metrics to the pushgateway at url
func (c *Collector) Push(ctx context.Context, url string) error {
	return push.New(url, jobName).Gatherer(c.registry).PushContext(ctx)
}
