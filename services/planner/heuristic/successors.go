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
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// Successor is the estimate of the state reached by one applicable action.
type Successor struct {
	Action   string
	Estimate Estimate
}

// Successors estimates every state one action away from s.
//
// Description:
//
//	Applies each applicable action of the current problem and evaluates the
//	result, up to workers estimates at a time. Results are ordered by value,
//	then by the problem's action order. The first failure cancels the rest.
//
// Inputs:
//   - ctx: Context for cancellation and tracing.
//   - s: The expanded state.
//   - kind: The heuristic.
//   - workers: Concurrency bound; values < 1 mean one.
//
// Outputs:
//   - []Successor: One entry per applicable action.
//   - error: As Evaluate, or the context's error.
func (e *Estimator) Successors(ctx context.Context, s fluent.State, kind Kind, workers int) ([]Successor, error) {
	p := e.Problem()
	if p == nil {
		return nil, wrap("Successors", ErrNoProblem)
	}
	if err := s.Validate(p.Universe()); err != nil {
		return nil, wrap("Successors", err)
	}

	actions := p.ApplicableActions(s)
	out := make([]Successor, len(actions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, a := range actions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			est, err := e.Evaluate(gctx, p.Result(s, a), kind)
			if err != nil {
				return err
			}
			out[i] = Successor{Action: a.String(), Estimate: est}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(x, y Successor) int {
		return cmp.Compare(x.Estimate.Value, y.Estimate.Value)
	})
	return out, nil
}
