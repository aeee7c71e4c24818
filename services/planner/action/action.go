// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package action models concrete, variable-free STRIPS actions.
package action

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// ErrMalformedExpr is returned when an action expression is not of the form
// "Name(arg, ...)".
var ErrMalformedExpr = errors.New("malformed action expression")

// Persistence action names.
const (
	NoopPos = "Noop_pos"
	NoopNeg = "Noop_neg"
)

// Preconditions holds the positive and negative precondition fluents.
type Preconditions struct {
	Pos []fluent.Fluent
	Neg []fluent.Fluent
}

// Effects holds the added and deleted fluents.
type Effects struct {
	Add []fluent.Fluent
	Rem []fluent.Fluent
}

// Action is a grounded action.
//
// Description:
//
//	An action is identified by name plus ordered arguments and carries four
//	literal collections. It is immutable once built; accessors return copies.
//
//	Listing the same fluent in both Add and Rem is not detected here. Such an
//	action makes Result and the planning graph order-dependent.
//
// Thread Safety: Immutable; safe for concurrent use.
type Action struct {
	name   string
	args   []string
	key    string
	pre    Preconditions
	effect Effects
}

// New builds an action from an expression such as "Load(C1, P1, SFO)".
//
// Inputs:
//   - expr: Action name and arguments.
//   - pre: Positive and negative preconditions.
//   - eff: Add and delete effects.
//
// Outputs:
//   - *Action: The action.
//   - error: Wraps ErrMalformedExpr if expr cannot be parsed.
func New(expr string, pre Preconditions, eff Effects) (*Action, error) {
	name, args, err := fluent.ParseCall(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExpr, err)
	}
	return build(name, args, pre, eff), nil
}

// MustNew is like New but panics on a malformed expression.
func MustNew(expr string, pre Preconditions, eff Effects) *Action {
	a, err := New(expr, pre, eff)
	if err != nil {
		panic(err)
	}
	return a
}

// NewPersistence returns the no-op action that carries f forward with the
// given polarity: Noop_pos(f) requires and adds f, Noop_neg(f) requires and
// deletes it.
func NewPersistence(f fluent.Fluent, positive bool) *Action {
	one := []fluent.Fluent{f}
	if positive {
		return build(NoopPos, []string{string(f)}, Preconditions{Pos: one}, Effects{Add: one})
	}
	return build(NoopNeg, []string{string(f)}, Preconditions{Neg: one}, Effects{Rem: one})
}

func build(name string, args []string, pre Preconditions, eff Effects) *Action {
	a := &Action{
		name: name,
		args: slices.Clone(args),
		pre: Preconditions{
			Pos: slices.Clone(pre.Pos),
			Neg: slices.Clone(pre.Neg),
		},
		effect: Effects{
			Add: slices.Clone(eff.Add),
			Rem: slices.Clone(eff.Rem),
		},
	}
	a.key = name
	if len(args) > 0 {
		a.key = name + "(" + strings.Join(args, ", ") + ")"
	}
	return a
}

// Name returns the action name, e.g. "Load".
func (a *Action) Name() string { return a.name }

// Args returns a copy of the ordered arguments.
func (a *Action) Args() []string { return slices.Clone(a.args) }

// Key returns the canonical "Name(a, b)" form. Two actions with equal keys
// are the same grounded action.
func (a *Action) Key() string { return a.key }

// String implements fmt.Stringer.
func (a *Action) String() string { return a.key }

// PrecondPos returns a copy of the positive preconditions.
func (a *Action) PrecondPos() []fluent.Fluent { return slices.Clone(a.pre.Pos) }

// PrecondNeg returns a copy of the negative preconditions.
func (a *Action) PrecondNeg() []fluent.Fluent { return slices.Clone(a.pre.Neg) }

// EffectAdd returns a copy of the added fluents.
func (a *Action) EffectAdd() []fluent.Fluent { return slices.Clone(a.effect.Add) }

// EffectRem returns a copy of the deleted fluents.
func (a *Action) EffectRem() []fluent.Fluent { return slices.Clone(a.effect.Rem) }

// Preconditions returns the preconditions as literals, positives first.
func (a *Action) Preconditions() []fluent.Literal {
	return fluent.FluentState{Pos: a.pre.Pos, Neg: a.pre.Neg}.Literals()
}

// Effects returns the effects as literals: adds positive, deletes negative.
func (a *Action) Effects() []fluent.Literal {
	return fluent.FluentState{Pos: a.effect.Add, Neg: a.effect.Rem}.Literals()
}

// Adds reports whether f is an add effect.
func (a *Action) Adds(f fluent.Fluent) bool { return slices.Contains(a.effect.Add, f) }

// Deletes reports whether f is a delete effect.
func (a *Action) Deletes(f fluent.Fluent) bool { return slices.Contains(a.effect.Rem, f) }

// IsPersistence reports whether a was built by NewPersistence.
func (a *Action) IsPersistence() bool {
	return a.name == NoopPos || a.name == NoopNeg
}
