// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package problem grounds planning problems into concrete actions and exposes
// the state-transition functions used by search and heuristics.
package problem

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/AleutianAI/AleutianPlan/services/planner/action"
	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// Package-level error definitions.
var (
	ErrUnknownGoal     = errors.New("goal fluent not in universe")
	ErrDuplicateObject = errors.New("duplicate domain object")
	ErrInvalidObject   = errors.New("invalid domain object name")
	ErrUnknownProblem  = errors.New("unknown problem")
	ErrInvalidProblem  = errors.New("invalid problem definition")
)

// FingerprintLength is the number of hex characters kept from the sha256 digest.
const FingerprintLength = 16

// Problem is a fully grounded planning problem.
type Problem interface {
	// Name identifies the problem for logs and reports.
	Name() string

	// Universe is the fixed fluent order every state is encoded against.
	Universe() *fluent.Universe

	// Initial is the encoded initial state.
	Initial() fluent.State

	// Goal lists the fluents that must all be true. Goals are positive.
	Goal() []fluent.Fluent

	// Actions lists every grounded action.
	Actions() []*action.Action

	// Fingerprint identifies the problem by value: two problems with the same
	// universe, goal and actions share a fingerprint.
	Fingerprint() string

	ApplicableActions(s fluent.State) []*action.Action
	Result(s fluent.State, a *action.Action) fluent.State
	GoalTest(s fluent.State) bool
}

// Grounded is the generic Problem implementation over an explicit action list.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Grounded struct {
	name        string
	universe    *fluent.Universe
	initial     fluent.State
	goal        []fluent.Fluent
	actions     []*action.Action
	fingerprint string
}

// NewGrounded builds a problem from an initial state, a goal and its actions.
//
// Description:
//
//	The universe order is fixed here as initial.Pos followed by initial.Neg.
//	Every goal fluent must belong to that universe.
//
// Outputs:
//   - *Grounded: The problem.
//   - error: ErrDuplicateFluent from the universe, or ErrUnknownGoal.
func NewGrounded(name string, initial fluent.FluentState, goal []fluent.Fluent, actions []*action.Action) (*Grounded, error) {
	u, err := fluent.NewUniverse(initial)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", name, err)
	}
	for _, g := range goal {
		if !u.Contains(g) {
			return nil, fmt.Errorf("problem %s: %w: %s", name, ErrUnknownGoal, g)
		}
	}
	p := &Grounded{
		name:     name,
		universe: u,
		initial:  fluent.Encode(initial, u),
		goal:     slices.Clone(goal),
		actions:  slices.Clone(actions),
	}
	p.fingerprint = computeFingerprint(p)
	return p, nil
}

// Name implements Problem.
func (p *Grounded) Name() string { return p.name }

// Universe implements Problem.
func (p *Grounded) Universe() *fluent.Universe { return p.universe }

// Initial implements Problem.
func (p *Grounded) Initial() fluent.State { return p.initial }

// Goal implements Problem.
func (p *Grounded) Goal() []fluent.Fluent { return slices.Clone(p.goal) }

// Actions implements Problem. The returned slice is a copy; the actions are
// shared and immutable.
func (p *Grounded) Actions() []*action.Action { return slices.Clone(p.actions) }

// Fingerprint implements Problem.
func (p *Grounded) Fingerprint() string { return p.fingerprint }

// ApplicableActions returns every action whose positive preconditions are all
// true in s and whose negative preconditions are all false, in grounding order.
func (p *Grounded) ApplicableActions(s fluent.State) []*action.Action {
	var out []*action.Action
	for _, a := range p.actions {
		if p.applicable(s, a) {
			out = append(out, a)
		}
	}
	return out
}

func (p *Grounded) applicable(s fluent.State, a *action.Action) bool {
	for _, l := range a.Preconditions() {
		if !s.Satisfies(p.universe, l) {
			return false
		}
	}
	return true
}

// Result returns the state reached by applying a to s.
//
// Description:
//
//	positives = (old positives - deletes) + adds
//	negatives = (old negatives - adds) + deletes
//
//	The input state is a value and is never modified. Applicability is not
//	checked; callers pick a from ApplicableActions. Effects on fluents outside
//	the universe are dropped.
func (p *Grounded) Result(s fluent.State, a *action.Action) fluent.State {
	if err := s.Validate(p.universe); err != nil {
		panic(err)
	}
	flags := []byte(s)
	for _, f := range a.EffectRem() {
		if i, ok := p.universe.Index(f); ok {
			flags[i] = fluent.FlagFalse
		}
	}
	for _, f := range a.EffectAdd() {
		if i, ok := p.universe.Index(f); ok {
			flags[i] = fluent.FlagTrue
		}
	}
	return fluent.State(flags)
}

// GoalTest reports whether every goal fluent is true in s.
func (p *Grounded) GoalTest(s fluent.State) bool {
	for _, g := range p.goal {
		if !s.Holds(p.universe, g) {
			return false
		}
	}
	return true
}

// computeFingerprint hashes the universe order, goal and action keys.
func computeFingerprint(p *Grounded) string {
	h := sha256.New()
	for _, f := range p.universe.Fluents() {
		h.Write([]byte("u:" + string(f) + "\n"))
	}
	for _, g := range p.goal {
		h.Write([]byte("g:" + string(g) + "\n"))
	}
	for _, a := range p.actions {
		h.Write([]byte("a:" + a.Key() + "\n"))
		for _, l := range a.Preconditions() {
			h.Write([]byte(" p:" + l.String()))
		}
		for _, l := range a.Effects() {
			h.Write([]byte(" e:" + l.String()))
		}
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))[:FingerprintLength]
}
