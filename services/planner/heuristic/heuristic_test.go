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
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
	"github.com/AleutianAI/AleutianPlan/services/planner/pgraph"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
)

func airCargo(t *testing.T) *problem.AirCargo {
	t.Helper()
	p, err := problem.AirCargoP1()
	require.NoError(t, err)
	return p
}

func haveCake(t *testing.T) *problem.Grounded {
	t.Helper()
	p, err := problem.HaveCake()
	require.NoError(t, err)
	return p
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"levelsum", KindLevelSum},
		{"LevelSum", KindLevelSum},
		{"h_pg_levelsum", KindLevelSum},
		{"ignore-preconditions", KindIgnorePreconditions},
		{"h_ignore_preconditions", KindIgnorePreconditions},
		{"h_1", KindConstant},
		{" setlevel ", KindSetLevel},
		{"max-level", KindMaxLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k, err := ParseKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, k)
		})
	}

	_, err := ParseKind("astar")
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = ParseKind("")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestIgnorePreconditions(t *testing.T) {
	p := airCargo(t)
	assert.Equal(t, 2.0, IgnorePreconditions(p, p.Initial()))

	s := p.Initial()
	for _, step := range []string{
		"Load(C1, P1, SFO)", "Fly(P1, SFO, JFK)", "Unload(C1, P1, JFK)",
	} {
		s = apply(t, p, s, step)
	}
	assert.Equal(t, 1.0, IgnorePreconditions(p, s))

	assert.Panics(t, func() { IgnorePreconditions(p, fluent.State("TF")) })
}

func apply(t *testing.T, p problem.Problem, s fluent.State, expr string) fluent.State {
	t.Helper()
	for _, a := range p.ApplicableActions(s) {
		if a.String() == expr {
			return p.Result(s, a)
		}
	}
	require.Failf(t, "not applicable", "%s in %s", expr, s)
	return s
}

func TestGraphHeuristics_AirCargo(t *testing.T) {
	p := airCargo(t)
	g, err := pgraph.New(context.Background(), p, p.Initial())
	require.NoError(t, err)

	assert.Equal(t, 4.0, LevelSum(g, p.Goal()))
	assert.Equal(t, 2.0, MaxLevel(g, p.Goal()))

	set := SetLevel(g, p.Goal())
	assert.False(t, math.IsInf(set, 1), "P1 is solvable")
	assert.GreaterOrEqual(t, set, MaxLevel(g, p.Goal()))
}

func TestSetLevel_GoalsMutexAtLastLevel(t *testing.T) {
	p := airCargo(t)
	g, err := pgraph.New(context.Background(), p, p.Initial())
	require.NoError(t, err)

	goal := p.Goal()
	require.Len(t, goal, 2)
	last := g.FactLevel(g.Levels() - 1)
	require.True(t, last.Contains(fluent.Pos(goal[0])))
	require.True(t, last.Contains(fluent.Pos(goal[1])))
	require.True(t, last.IsMutex(fluent.Pos(goal[0]), fluent.Pos(goal[1])),
		"serial graph levels off before the goals stop being mutex")

	assert.Equal(t, float64(g.Levels()), SetLevel(g, goal))

	s := p.Initial()
	for _, expr := range []string{
		"Load(C1, P1, SFO)", "Fly(P1, SFO, JFK)", "Unload(C1, P1, JFK)",
		"Load(C2, P2, JFK)", "Fly(P2, JFK, SFO)", "Unload(C2, P2, SFO)",
	} {
		s = apply(t, p, s, expr)
	}
	assert.True(t, p.GoalTest(s))
	assert.LessOrEqual(t, SetLevel(g, goal), 6.0, "never above the length of a real plan")
}

func TestGraphHeuristics_HaveCake(t *testing.T) {
	p := haveCake(t)
	g, err := pgraph.New(context.Background(), p, p.Initial())
	require.NoError(t, err)

	assert.Equal(t, 1.0, LevelSum(g, p.Goal()))
	assert.Equal(t, 1.0, MaxLevel(g, p.Goal()))
	assert.Equal(t, 2.0, SetLevel(g, p.Goal()), "Have and Eaten are mutex at level 1")
	assert.Equal(t, 1.0, IgnorePreconditions(p, p.Initial()))
}

func TestGraphHeuristics_EmptyAndUnreachable(t *testing.T) {
	p := haveCake(t)
	g, err := pgraph.New(context.Background(), p, p.Initial())
	require.NoError(t, err)

	assert.Zero(t, LevelSum(g, nil))
	assert.Zero(t, MaxLevel(g, nil))
	assert.Zero(t, SetLevel(g, nil))

	ghost := []fluent.Fluent{fluent.NewFluent("Sold", "Cake")}
	assert.True(t, math.IsInf(LevelSum(g, ghost), 1))
	assert.True(t, math.IsInf(MaxLevel(g, ghost), 1))
	assert.True(t, math.IsInf(SetLevel(g, ghost), 1))
}

func TestEstimator_Estimate(t *testing.T) {
	p := airCargo(t)
	e := NewEstimator(p)
	ctx := context.Background()

	tests := []struct {
		kind Kind
		want float64
	}{
		{KindConstant, 1},
		{KindIgnorePreconditions, 2},
		{KindLevelSum, 4},
		{KindMaxLevel, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			v, err := e.Estimate(ctx, p.Initial(), tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	v, err := e.Estimate(ctx, p.Initial(), Kind("h_pg_levelsum"))
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

func TestEstimator_Memoises(t *testing.T) {
	p := airCargo(t)
	e := NewEstimator(p)
	ctx := context.Background()

	first, err := e.Evaluate(ctx, p.Initial(), KindLevelSum)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Positive(t, first.Levels)

	second, err := e.Evaluate(ctx, p.Initial(), KindLevelSum)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Levels, second.Levels)

	st := e.CacheStats()
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)

	// Same state, different kind is a separate entry.
	_, err = e.Evaluate(ctx, p.Initial(), KindIgnorePreconditions)
	require.NoError(t, err)
	assert.Equal(t, 2, e.CacheStats().Entries)
}

func TestEstimator_Eviction(t *testing.T) {
	p := airCargo(t)
	e := NewEstimator(p, WithCacheCapacity(2))
	ctx := context.Background()

	states := []fluent.State{p.Initial()}
	for _, a := range p.ApplicableActions(p.Initial()) {
		states = append(states, p.Result(p.Initial(), a))
	}
	require.GreaterOrEqual(t, len(states), 3)

	for _, s := range states[:3] {
		_, err := e.Estimate(ctx, s, KindIgnorePreconditions)
		require.NoError(t, err)
	}
	st := e.CacheStats()
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, int64(1), st.Evictions)

	est, err := e.Evaluate(ctx, states[0], KindIgnorePreconditions)
	require.NoError(t, err)
	assert.False(t, est.Cached, "oldest entry was evicted")
}

func TestEstimator_SetProblemPurges(t *testing.T) {
	p := airCargo(t)
	e := NewEstimator(p)
	ctx := context.Background()

	_, err := e.Estimate(ctx, p.Initial(), KindLevelSum)
	require.NoError(t, err)
	require.Equal(t, 1, e.CacheStats().Entries)

	cake := haveCake(t)
	e.SetProblem(cake)
	assert.Zero(t, e.CacheStats().Entries)
	assert.Equal(t, problem.NameHaveCake, e.Problem().Name())

	v, err := e.Estimate(ctx, cake.Initial(), KindLevelSum)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = e.Estimate(ctx, p.Initial(), KindLevelSum)
	assert.ErrorIs(t, err, fluent.ErrStateLength)
}

func TestEstimator_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewEstimator(nil).Estimate(ctx, fluent.State("TF"), KindLevelSum)
	require.ErrorIs(t, err, ErrNoProblem)
	var pe *PlannerError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "heuristic", pe.Component)
	assert.Equal(t, "Evaluate", pe.Operation)

	p := haveCake(t)
	e := NewEstimator(p)
	_, err = e.Estimate(ctx, p.Initial(), Kind("bogus"))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = e.Estimate(ctx, fluent.State("TFT"), KindConstant)
	assert.ErrorIs(t, err, fluent.ErrStateLength)

	limited := NewEstimator(p, WithGraphOptions(pgraph.WithMaxLevels(1)))
	_, err = limited.Estimate(ctx, p.Initial(), KindSetLevel)
	assert.ErrorIs(t, err, pgraph.ErrLevelLimit)
	assert.Zero(t, limited.CacheStats().Entries)
}

func TestEstimator_Graph(t *testing.T) {
	p := haveCake(t)
	e := NewEstimator(p, WithGraphOptions(pgraph.WithSerialPlanning(false)))

	g, err := e.Graph(context.Background(), p.Initial())
	require.NoError(t, err)
	assert.False(t, g.Serial())
	assert.Equal(t, 3, g.Levels())
}

func TestEstimator_Concurrent(t *testing.T) {
	p := airCargo(t)
	e := NewEstimator(p, WithCacheCapacity(8))
	ctx := context.Background()

	states := []fluent.State{p.Initial()}
	for _, a := range p.ApplicableActions(p.Initial()) {
		states = append(states, p.Result(p.Initial(), a))
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.Estimate(ctx, states[i%len(states)], KindLevelSum)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st := e.CacheStats()
	assert.Equal(t, int64(16), st.Hits+st.Misses)
	assert.Equal(t, len(states), st.Entries)
}

func TestEstimator_Successors(t *testing.T) {
	p := airCargo(t)
	e := NewEstimator(p)
	ctx := context.Background()

	succ, err := e.Successors(ctx, p.Initial(), KindIgnorePreconditions, 3)
	require.NoError(t, err)
	require.Len(t, succ, 4)

	names := make([]string, len(succ))
	for i, s := range succ {
		names[i] = s.Action
		assert.Equal(t, 2.0, s.Estimate.Value, "no single action reaches a goal")
		assert.NotEqual(t, p.Initial(), s.Estimate.State)
	}
	assert.ElementsMatch(t, []string{
		"Load(C1, P1, SFO)", "Load(C2, P2, JFK)", "Fly(P1, SFO, JFK)", "Fly(P2, JFK, SFO)",
	}, names)

	sorted, err := e.Successors(ctx, p.Initial(), KindLevelSum, 0)
	require.NoError(t, err)
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, sorted[i-1].Estimate.Value, sorted[i].Estimate.Value)
	}

	_, err = e.Successors(ctx, fluent.State("T"), KindLevelSum, 2)
	assert.ErrorIs(t, err, fluent.ErrStateLength)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewEstimator(p).Successors(cancelled, p.Initial(), KindLevelSum, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
