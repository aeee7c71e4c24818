// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package heuristic

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("aleutian.planner.heuristic")
	meter  = otel.Meter("aleutian.planner.heuristic")
)

var (
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	cacheEvictions   metric.Int64Counter
	graphBuilds      metric.Int64Counter
	estimateDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics creates the instruments on first use. Safe to call repeatedly.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		if cacheHits, err = meter.Int64Counter(
			"pgplan_estimate_cache_hits_total",
			metric.WithDescription("Estimates served from the cache"),
		); err != nil {
			metricsErr = err
			return
		}
		if cacheMisses, err = meter.Int64Counter(
			"pgplan_estimate_cache_misses_total",
			metric.WithDescription("Estimates computed on a cache miss"),
		); err != nil {
			metricsErr = err
			return
		}
		if cacheEvictions, err = meter.Int64Counter(
			"pgplan_estimate_cache_evictions_total",
			metric.WithDescription("Estimates evicted from a full cache"),
		); err != nil {
			metricsErr = err
			return
		}
		if graphBuilds, err = meter.Int64Counter(
			"pgplan_estimate_graph_builds_total",
			metric.WithDescription("Planning graphs built for estimation"),
		); err != nil {
			metricsErr = err
			return
		}
		estimateDuration, metricsErr = meter.Float64Histogram(
			"pgplan_estimate_duration_seconds",
			metric.WithDescription("Duration of uncached estimates"),
			metric.WithUnit("s"),
		)
	})
	return metricsErr
}

func recordLookup(ctx context.Context, kind Kind, hit bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", string(kind)))
	if hit {
		cacheHits.Add(ctx, 1, attrs)
		return
	}
	cacheMisses.Add(ctx, 1, attrs)
}

func recordEviction(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheEvictions.Add(ctx, 1)
}

func recordCompute(ctx context.Context, kind Kind, d time.Duration, builtGraph bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", string(kind)))
	estimateDuration.Record(ctx, d.Seconds(), attrs)
	if builtGraph {
		graphBuilds.Add(ctx, 1, attrs)
	}
}

func startEstimateSpan(ctx context.Context, problemName string, kind Kind) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Estimator.Estimate",
		trace.WithAttributes(
			attribute.String("estimate.problem", problemName),
			attribute.String("estimate.kind", string(kind)),
		),
	)
}
