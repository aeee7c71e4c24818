// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pgraph builds GraphPlan-style planning graphs.
//
// Description:
//
//	A planning graph alternates fact levels and action levels:
//
//	  S0 ──► A0 ──► S1 ──► A1 ──► S2 ...
//
//	S0 holds the literals of the starting state. A_L holds every action
//	(including one positive and one negative persistence action per fluent)
//	whose preconditions are all present in S_L. S_{L+1} holds every effect of
//	A_L. Each level carries a symmetric mutex relation between siblings.
//	Construction stops when two consecutive fact levels hold the same literals.
//
// Storage:
//
//	Levels are arenas. Parent and child links are indices into the adjacent
//	level; mutexes are index sets within a level. Nodes never hold pointers to
//	other nodes, so no reference cycles exist.
package pgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/AleutianPlan/services/planner/action"
	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// Package-level error definitions.
var (
	ErrAlreadyBuilt = errors.New("planning graph already built")
	ErrLevelLimit   = errors.New("planning graph exceeded level limit")
)

// Domain is the part of a planning problem the graph needs.
type Domain interface {
	Universe() *fluent.Universe
	Actions() []*action.Action
}

// Option configures a Graph.
type Option func(*Graph)

// WithSerialPlanning toggles the serial-planning assumption: when on (the
// default), any two non-persistent actions at a level are mutex.
func WithSerialPlanning(serial bool) Option {
	return func(g *Graph) { g.serial = serial }
}

// WithMaxLevels caps the number of fact levels. Values <= 0 keep the default,
// which is derived from the number of distinct literals and cannot be reached
// by a well-formed problem.
func WithMaxLevels(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxLevels = n
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// Graph is a planning graph built from a single starting state.
//
// Thread Safety: Build must complete before any query. Once built the graph
// is immutable and safe for concurrent reads.
type Graph struct {
	universe  *fluent.Universe
	state     fluent.State
	templates []*template
	serial    bool
	maxLevels int
	logger    *slog.Logger

	facts   []*FactLevel
	actions []*ActionLevel
	leveled bool
	stats   Stats
}

// Stats summarises a built graph.
type Stats struct {
	FactLevels       int
	ActionLevels     int
	FactNodes        int
	ActionNodes      int
	FactMutexPairs   int
	ActionMutexPairs int
	Duration         time.Duration
}

// New builds the planning graph of d from state s.
//
// Inputs:
//   - ctx: Context for tracing. Construction is bounded and not cancellable.
//   - d: The grounded problem.
//   - s: Starting state, encoded against d.Universe().
//   - opts: Optional configuration.
//
// Outputs:
//   - *Graph: The built graph.
//   - error: Wraps fluent.ErrStateLength for a mismatched state, or
//     ErrLevelLimit if the level cap is hit.
func New(ctx context.Context, d Domain, s fluent.State, opts ...Option) (*Graph, error) {
	g := Prepare(d, s, opts...)
	if err := g.Build(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Prepare returns an unbuilt graph. Most callers want New.
func Prepare(d Domain, s fluent.State, opts ...Option) *Graph {
	u := d.Universe()
	g := &Graph{
		universe: u,
		state:    s,
		serial:   true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(slog.String("component", "planning_graph"))

	problemActions := d.Actions()
	g.templates = make([]*template, 0, len(problemActions)+2*u.Len())
	for _, a := range problemActions {
		g.templates = append(g.templates, newTemplate(a))
	}
	for _, f := range u.Fluents() {
		g.templates = append(g.templates,
			newTemplate(action.NewPersistence(f, true)),
			newTemplate(action.NewPersistence(f, false)),
		)
	}

	if g.maxLevels == 0 {
		g.maxLevels = literalBound(u, g.templates) + 2
	}
	return g
}

// literalBound is the number of distinct literals any level can hold.
func literalBound(u *fluent.Universe, templates []*template) int {
	symbols := make(map[fluent.Fluent]struct{}, u.Len())
	for _, f := range u.Fluents() {
		symbols[f] = struct{}{}
	}
	for _, t := range templates {
		for _, l := range t.eff {
			symbols[l.Symbol] = struct{}{}
		}
	}
	return 2 * len(symbols)
}

// Build constructs the levels.
//
// Description:
//
//	Runs the level loop until the graph levels off. A graph is built exactly
//	once: calling Build again returns ErrAlreadyBuilt and leaves the graph
//	untouched.
func (g *Graph) Build(ctx context.Context) error {
	if len(g.facts) != 0 || len(g.actions) != 0 {
		return fmt.Errorf("%w: construct a new graph for each state", ErrAlreadyBuilt)
	}
	if err := g.state.Validate(g.universe); err != nil {
		return err
	}

	ctx, span := getTracer().Start(ctx, "PlanningGraph.Build",
		trace.WithAttributes(
			attribute.Int("pgraph.fluents", g.universe.Len()),
			attribute.Int("pgraph.actions", len(g.templates)),
			attribute.Bool("pgraph.serial", g.serial),
		),
	)
	defer span.End()
	start := time.Now()

	s0 := newFactLevel(g.universe.Len())
	for _, l := range fluent.Decode(g.state, g.universe).Literals() {
		s0.add(l)
	}
	g.facts = append(g.facts, s0)

	for level := 0; !g.leveled; level++ {
		if len(g.facts) >= g.maxLevels {
			err := fmt.Errorf("%w: %d fact levels", ErrLevelLimit, len(g.facts))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		al := g.addActionLevel(level)
		g.updateActionMutex(al, g.facts[level])

		next := g.addFactLevel(al)
		g.updateFactMutex(next, al)

		g.leveled = next.sameLiterals(g.facts[level])
	}

	g.stats = g.computeStats(time.Since(start))
	recordBuild(ctx, g.stats, g.serial)
	span.SetAttributes(
		attribute.Int("pgraph.fact_levels", g.stats.FactLevels),
		attribute.Int("pgraph.fact_mutex_pairs", g.stats.FactMutexPairs),
		attribute.Int("pgraph.action_mutex_pairs", g.stats.ActionMutexPairs),
	)
	g.logger.Debug("planning graph built",
		slog.Int("fact_levels", g.stats.FactLevels),
		slog.Int("action_nodes", g.stats.ActionNodes),
		slog.Duration("duration", g.stats.Duration),
	)
	return nil
}

// addActionLevel creates A_level from every action whose preconditions are
// all present in S_level, linking preconditions as parents.
func (g *Graph) addActionLevel(level int) *ActionLevel {
	sl := g.facts[level]
	al := newActionLevel(len(g.templates))

	for _, t := range g.templates {
		if !g.applicable(t, sl) {
			continue
		}
		if _, dup := al.index[t.key]; dup {
			continue
		}
		ai := len(al.nodes)
		node := actionNode{template: t, mutex: indexSet{}}
		for _, l := range t.pre {
			fi := sl.index[l]
			node.parents = append(node.parents, fi)
			sl.nodes[fi].children = append(sl.nodes[fi].children, ai)
		}
		al.nodes = append(al.nodes, node)
		al.index[t.key] = ai
	}

	g.actions = append(g.actions, al)
	return al
}

func (g *Graph) applicable(t *template, sl *FactLevel) bool {
	for _, l := range t.pre {
		if !sl.Contains(l) {
			return false
		}
	}
	return true
}

// addFactLevel creates S_{L+1} from the effects of A_L.
func (g *Graph) addFactLevel(al *ActionLevel) *FactLevel {
	next := newFactLevel(g.facts[len(g.facts)-1].Len())
	for ai := range al.nodes {
		an := &al.nodes[ai]
		for _, l := range an.eff {
			fi := next.add(l)
			next.nodes[fi].parents = append(next.nodes[fi].parents, ai)
			an.children = append(an.children, fi)
		}
	}
	g.facts = append(g.facts, next)
	return next
}

// Levels returns the number of fact levels, including the final repeated
// level that signalled the fixed point.
func (g *Graph) Levels() int { return len(g.facts) }

// FactLevel returns S_i. Panics if i is out of range.
func (g *Graph) FactLevel(i int) *FactLevel { return g.facts[i] }

// ActionLevel returns A_i. Panics if i is out of range.
func (g *Graph) ActionLevel(i int) *ActionLevel { return g.actions[i] }

// Leveled reports whether construction reached the fixed point.
func (g *Graph) Leveled() bool { return g.leveled }

// Serial reports whether the serial-planning assumption was used.
func (g *Graph) Serial() bool { return g.serial }

// Stats returns the build summary.
func (g *Graph) Stats() Stats { return g.stats }

// LevelOf returns the first fact level containing l.
func (g *Graph) LevelOf(l fluent.Literal) (int, bool) {
	for i, fl := range g.facts {
		if fl.Contains(l) {
			return i, true
		}
	}
	return 0, false
}

func (g *Graph) computeStats(d time.Duration) Stats {
	st := Stats{
		FactLevels:   len(g.facts),
		ActionLevels: len(g.actions),
		Duration:     d,
	}
	for _, fl := range g.facts {
		st.FactNodes += fl.Len()
		st.FactMutexPairs += fl.MutexPairs()
	}
	for _, al := range g.actions {
		st.ActionNodes += al.Len()
		st.ActionMutexPairs += al.MutexPairs()
	}
	return st
}
