// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package api serves planning-graph heuristics over HTTP.
package api

import (
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/AleutianAI/AleutianPlan/services/planner/heuristic"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
	"github.com/AleutianAI/AleutianPlan/services/planner/report"
)

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Store records estimates on request. Nil disables history.
	Store *report.Store

	// EstimatorOptions apply to every per-problem estimator.
	EstimatorOptions []heuristic.Option

	// DefaultKind is used when a request names no heuristic.
	DefaultKind heuristic.Kind

	// Workers bounds concurrent successor estimation.
	Workers int

	Logger *slog.Logger
}

// Service owns one Estimator per problem so memoised estimates survive
// across requests.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	mu         sync.Mutex
	registered map[string]problem.Problem
	estimators map[string]*heuristic.Estimator

	cfg    ServiceConfig
	logger *slog.Logger
}

// NewService creates a service over the built-in catalog.
func NewService(cfg ServiceConfig) *Service {
	if cfg.DefaultKind == "" {
		cfg.DefaultKind = heuristic.KindLevelSum
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registered: make(map[string]problem.Problem),
		estimators: make(map[string]*heuristic.Estimator),
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "planner_api")),
	}
}

// Register adds or replaces a problem. Replacing a problem purges its
// memoised estimates.
func (s *Service) Register(p problem.Problem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registered[p.Name()] = p
	if est, ok := s.estimators[p.Name()]; ok {
		est.SetProblem(p)
	}
	s.logger.Info("problem registered",
		slog.String("problem", p.Name()),
		slog.String("fingerprint", p.Fingerprint()),
	)
}

// Problems lists catalog and registered problem names, sorted.
func (s *Service) Problems() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, n := range problem.Names() {
		seen[n] = struct{}{}
	}
	for n := range s.registered {
		seen[n] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Estimator returns the estimator of the named problem, creating it on first
// use. Registered problems shadow catalog ones.
//
// Outputs:
//   - error: wraps problem.ErrUnknownProblem.
func (s *Service) Estimator(name string) (*heuristic.Estimator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if est, ok := s.estimators[name]; ok {
		return est, nil
	}
	p, ok := s.registered[name]
	if !ok {
		var err error
		if p, err = problem.Lookup(name); err != nil {
			return nil, err
		}
	}
	opts := append(slices.Clone(s.cfg.EstimatorOptions), heuristic.WithLogger(s.cfg.Logger))
	est := heuristic.NewEstimator(p, opts...)
	s.estimators[name] = est
	return est, nil
}
