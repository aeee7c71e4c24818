// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pgraph

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ==============================================================================
// Metrics
// ==============================================================================

var (
	buildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgplan_graph_builds_total",
		Help: "Planning graph builds by serial mode",
	}, []string{"serial"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pgplan_graph_build_duration_seconds",
		Help:    "Planning graph construction duration",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	})

	buildLevels = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pgplan_graph_fact_levels",
		Help:    "Fact levels per built graph",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	})

	buildMutexPairs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pgplan_graph_mutex_pairs",
		Help:    "Fact and action mutex pairs per built graph",
		Buckets: []float64{0, 10, 100, 1000, 10000, 100000},
	})
)

func recordBuild(_ context.Context, st Stats, serial bool) {
	label := "false"
	if serial {
		label = "true"
	}
	buildTotal.WithLabelValues(label).Inc()
	buildDuration.Observe(st.Duration.Seconds())
	buildLevels.Observe(float64(st.FactLevels))
	buildMutexPairs.Observe(float64(st.FactMutexPairs + st.ActionMutexPairs))
}

// ==============================================================================
// OTel Tracer
// ==============================================================================

var (
	tracerOnce sync.Once
	pgTracer   trace.Tracer
)

// getTracer returns the OTel tracer, initializing it lazily so that packages
// importing pgraph before telemetry is configured still get the global one.
//
// Thread Safety: Safe for concurrent use (sync.Once).
func getTracer() trace.Tracer {
	tracerOnce.Do(func() {
		pgTracer = otel.Tracer("aleutian.planner.pgraph")
	})
	return pgTracer
}
