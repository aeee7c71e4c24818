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
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
	"github.com/AleutianAI/AleutianPlan/services/planner/pgraph"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
)

// DefaultCacheCapacity is the number of memoised estimates kept by default.
const DefaultCacheCapacity = 4096

// Estimate is one heuristic evaluation.
type Estimate struct {
	Value  float64
	Kind   Kind
	State  fluent.State
	Levels int
	Cached bool
}

// cacheKey identifies an estimate by value. The fingerprint changes whenever
// the problem does, so entries never leak across problems.
type cacheKey struct {
	fingerprint string
	state       fluent.State
	kind        Kind
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithCacheCapacity bounds the memo cache.
func WithCacheCapacity(n int) Option {
	return func(e *Estimator) { e.capacity = n }
}

// WithGraphOptions passes options to every planning graph the estimator builds.
func WithGraphOptions(opts ...pgraph.Option) Option {
	return func(e *Estimator) { e.graphOpts = append(e.graphOpts, opts...) }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Estimator is the heuristic entry point for a search driver.
//
// Description:
//
//	Evaluates a state of the current problem under a chosen Kind and memoises
//	the result in a bounded LRU keyed by (problem fingerprint, state, kind).
//	Graph-based kinds build a fresh planning graph per uncached state.
//
// Thread Safety: Safe for concurrent use. SetProblem may race with in-flight
// estimates; those complete against the problem they started with.
type Estimator struct {
	mu      sync.RWMutex
	problem problem.Problem

	capacity  int
	cache     *lru[cacheKey, Estimate]
	graphOpts []pgraph.Option
	logger    *slog.Logger
}

// NewEstimator creates an estimator for p. p may be nil and set later.
func NewEstimator(p problem.Problem, opts ...Option) *Estimator {
	e := &Estimator{
		problem: p,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "heuristic"))
	e.cache = newLRU[cacheKey, Estimate](e.capacity)
	return e
}

// Problem returns the current problem, or nil.
func (e *Estimator) Problem() problem.Problem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.problem
}

// SetProblem replaces the problem and purges the cache.
func (e *Estimator) SetProblem(p problem.Problem) {
	e.mu.Lock()
	e.problem = p
	e.mu.Unlock()

	dropped := e.cache.purge()
	name := ""
	if p != nil {
		name = p.Name()
	}
	e.logger.Info("problem replaced", slog.String("problem", name), slog.Int("purged", dropped))
}

// CacheStats reports memo cache effectiveness.
func (e *Estimator) CacheStats() CacheStats { return e.cache.stats() }

// Estimate returns the heuristic value of s under kind.
//
// Inputs:
//   - ctx: Context for tracing.
//   - s: State encoded against the current problem's universe.
//   - kind: The heuristic.
//
// Outputs:
//   - float64: Non-negative estimate, +Inf for unreachable goals.
//   - error: *PlannerError wrapping ErrNoProblem, ErrUnknownKind,
//     fluent.ErrStateLength or a graph construction error.
func (e *Estimator) Estimate(ctx context.Context, s fluent.State, kind Kind) (float64, error) {
	est, err := e.Evaluate(ctx, s, kind)
	if err != nil {
		return 0, err
	}
	return est.Value, nil
}

// Evaluate is Estimate with the full result.
func (e *Estimator) Evaluate(ctx context.Context, s fluent.State, kind Kind) (Estimate, error) {
	p := e.Problem()
	if p == nil {
		return Estimate{}, wrap("Evaluate", ErrNoProblem)
	}
	kind, err := ParseKind(string(kind))
	if err != nil {
		return Estimate{}, wrap("Evaluate", err)
	}
	if err := s.Validate(p.Universe()); err != nil {
		return Estimate{}, wrap("Evaluate", err)
	}

	ctx, span := startEstimateSpan(ctx, p.Name(), kind)
	defer span.End()

	key := cacheKey{fingerprint: p.Fingerprint(), state: s, kind: kind}
	if est, ok := e.cache.get(key); ok {
		recordLookup(ctx, kind, true)
		span.SetAttributes(attribute.Bool("estimate.cached", true))
		est.Cached = true
		return est, nil
	}
	recordLookup(ctx, kind, false)

	start := time.Now()
	est, err := e.compute(ctx, p, s, kind)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Estimate{}, wrap("Evaluate", err)
	}
	recordCompute(ctx, kind, time.Since(start), kind.NeedsGraph())

	if e.cache.add(key, est) {
		recordEviction(ctx)
	}
	span.SetAttributes(
		attribute.Bool("estimate.cached", false),
		attribute.Float64("estimate.value", est.Value),
	)
	e.logger.Debug("estimate computed",
		slog.String("problem", p.Name()),
		slog.String("kind", string(kind)),
		slog.String("state", string(s)),
		slog.Float64("value", est.Value),
	)
	return est, nil
}

func (e *Estimator) compute(ctx context.Context, p problem.Problem, s fluent.State, kind Kind) (Estimate, error) {
	est := Estimate{Kind: kind, State: s}
	switch kind {
	case KindConstant:
		est.Value = 1
		return est, nil
	case KindIgnorePreconditions:
		est.Value = IgnorePreconditions(p, s)
		return est, nil
	}

	g, err := pgraph.New(ctx, p, s, e.graphOpts...)
	if err != nil {
		return Estimate{}, err
	}
	est.Levels = g.Levels()
	goal := p.Goal()
	switch kind {
	case KindLevelSum:
		est.Value = LevelSum(g, goal)
	case KindMaxLevel:
		est.Value = MaxLevel(g, goal)
	case KindSetLevel:
		est.Value = SetLevel(g, goal)
	}
	return est, nil
}

// Graph builds the planning graph of s with the estimator's graph options.
// The graph is not cached.
func (e *Estimator) Graph(ctx context.Context, s fluent.State) (*pgraph.Graph, error) {
	p := e.Problem()
	if p == nil {
		return nil, wrap("Graph", ErrNoProblem)
	}
	g, err := pgraph.New(ctx, p, s, e.graphOpts...)
	if err != nil {
		return nil, wrap("Graph", err)
	}
	return g, nil
}
