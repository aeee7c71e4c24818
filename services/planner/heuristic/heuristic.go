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
	"math"

	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
	"github.com/AleutianAI/AleutianPlan/services/planner/pgraph"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
)

// Unreachable is the estimate for a goal the graph never reaches.
var Unreachable = math.Inf(1)

// IgnorePreconditions counts the goals not holding in s.
//
// Description:
//
//	Every false goal needs at least one action, whatever its preconditions,
//	so the count never overestimates. Panics like fluent.Decode when s does
//	not match the problem's universe.
func IgnorePreconditions(p problem.Problem, s fluent.State) float64 {
	u := p.Universe()
	count := 0
	for _, g := range p.Goal() {
		if !s.Holds(u, g) {
			count++
		}
	}
	return float64(count)
}

// LevelSum sums the first level at which each goal appears positively.
//
// Description:
//
//	Cheap and usually informative but not admissible when goals interact.
//	Goals are positive by type; callers are responsible for independence.
//
// Outputs:
//   - float64: The sum, or Unreachable if any goal never appears.
func LevelSum(g *pgraph.Graph, goal []fluent.Fluent) float64 {
	sum := 0
	for _, f := range goal {
		lvl, ok := g.LevelOf(fluent.Pos(f))
		if !ok {
			return Unreachable
		}
		sum += lvl
	}
	return float64(sum)
}

// MaxLevel returns the largest first level among the goals. Admissible.
func MaxLevel(g *pgraph.Graph, goal []fluent.Fluent) float64 {
	highest := 0
	for _, f := range goal {
		lvl, ok := g.LevelOf(fluent.Pos(f))
		if !ok {
			return Unreachable
		}
		highest = max(highest, lvl)
	}
	return float64(highest)
}

// SetLevel returns the first level where every goal is present and no two
// goals are mutex.
//
// Description:
//
//	The graph stops at the first repeated literal set, where goal mutexes may
//	not have settled yet. If every goal is present at the last level but some
//	pair is still mutex, the goals need more steps than the graph has levels,
//	so Levels() is returned as a lower bound.
//
// Outputs:
//   - float64: The level, Levels() for goals still mutex at the last level, or
//     Unreachable if some goal never appears.
func SetLevel(g *pgraph.Graph, goal []fluent.Fluent) float64 {
	lits := make([]fluent.Literal, len(goal))
	for i, f := range goal {
		lits[i] = fluent.Pos(f)
	}
levels:
	for i := 0; i < g.Levels(); i++ {
		fl := g.FactLevel(i)
		for j, a := range lits {
			if !fl.Contains(a) {
				continue levels
			}
			for _, b := range lits[j+1:] {
				if fl.IsMutex(a, b) {
					continue levels
				}
			}
		}
		return float64(i)
	}

	last := g.FactLevel(g.Levels() - 1)
	for _, l := range lits {
		if !last.Contains(l) {
			return Unreachable
		}
	}
	return float64(g.Levels())
}
