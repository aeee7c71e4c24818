// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package problem

import (
	"fmt"
	"slices"
	"strings"

	"github.com/AleutianAI/AleutianPlan/services/planner/action"
	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// AirCargo is the air cargo transport domain: cargo is loaded into planes,
// flown between airports and unloaded.
//
//	Load(c, p, a)    pre: At(c, a), At(p, a)   add: In(c, p)   del: At(c, a)
//	Unload(c, p, a)  pre: In(c, p), At(p, a)   add: At(c, a)   del: In(c, p)
//	Fly(p, from, to) pre: At(p, from)          add: At(p, to)  del: At(p, from)
type AirCargo struct {
	*Grounded

	cargos   []string
	planes   []string
	airports []string
}

// NewAirCargo grounds every Load, Unload and Fly instance over the given
// objects.
//
// Description:
//
//	Produces |cargos|*|planes|*|airports| Load actions, the same number of
//	Unload actions and |planes|*|airports|*(|airports|-1) Fly actions, one per
//	ordered pair of distinct airports.
//
// Inputs:
//   - name: Problem name used in logs and reports.
//   - cargos, planes, airports: Domain objects. Must be free of duplicates.
//   - initial: Positive and negative initial fluents; fixes the universe order.
//   - goal: Fluents that must all hold.
//
// Outputs:
//   - *AirCargo: The grounded problem.
//   - error: ErrInvalidObject, ErrDuplicateObject, ErrDuplicateFluent or
//     ErrUnknownGoal.
func NewAirCargo(name string, cargos, planes, airports []string, initial fluent.FluentState, goal []fluent.Fluent) (*AirCargo, error) {
	for kind, objs := range map[string][]string{"cargo": cargos, "plane": planes, "airport": airports} {
		seen := make(map[string]bool, len(objs))
		for _, o := range objs {
			if !validObject(o) {
				return nil, fmt.Errorf("problem %s: %w: %s %q", name, ErrInvalidObject, kind, o)
			}
			if seen[o] {
				return nil, fmt.Errorf("problem %s: %w: %s %s", name, ErrDuplicateObject, kind, o)
			}
			seen[o] = true
		}
	}

	var actions []*action.Action
	actions = append(actions, loadActions(cargos, planes, airports)...)
	actions = append(actions, unloadActions(cargos, planes, airports)...)
	actions = append(actions, flyActions(planes, airports)...)

	g, err := NewGrounded(name, initial, goal, actions)
	if err != nil {
		return nil, err
	}
	return &AirCargo{
		Grounded: g,
		cargos:   slices.Clone(cargos),
		planes:   slices.Clone(planes),
		airports: slices.Clone(airports),
	}, nil
}

// Cargos returns the cargo objects.
func (p *AirCargo) Cargos() []string { return slices.Clone(p.cargos) }

// Planes returns the plane objects.
func (p *AirCargo) Planes() []string { return slices.Clone(p.planes) }

// Airports returns the airport objects.
func (p *AirCargo) Airports() []string { return slices.Clone(p.airports) }

// validObject reports whether o can appear as an argument of an action
// expression: non-empty, no surrounding space, no parentheses or commas.
func validObject(o string) bool {
	return o != "" && strings.TrimSpace(o) == o && !strings.ContainsAny(o, "(),")
}

func at(obj, place string) fluent.Fluent { return fluent.NewFluent("At", obj, place) }
func in(c, p string) fluent.Fluent       { return fluent.NewFluent("In", c, p) }

func loadActions(cargos, planes, airports []string) []*action.Action {
	out := make([]*action.Action, 0, len(cargos)*len(planes)*len(airports))
	for _, c := range cargos {
		for _, p := range planes {
			for _, a := range airports {
				out = append(out, action.MustNew(fmt.Sprintf("Load(%s, %s, %s)", c, p, a),
					action.Preconditions{Pos: []fluent.Fluent{at(c, a), at(p, a)}},
					action.Effects{Add: []fluent.Fluent{in(c, p)}, Rem: []fluent.Fluent{at(c, a)}},
				))
			}
		}
	}
	return out
}

func unloadActions(cargos, planes, airports []string) []*action.Action {
	out := make([]*action.Action, 0, len(cargos)*len(planes)*len(airports))
	for _, c := range cargos {
		for _, p := range planes {
			for _, a := range airports {
				out = append(out, action.MustNew(fmt.Sprintf("Unload(%s, %s, %s)", c, p, a),
					action.Preconditions{Pos: []fluent.Fluent{in(c, p), at(p, a)}},
					action.Effects{Add: []fluent.Fluent{at(c, a)}, Rem: []fluent.Fluent{in(c, p)}},
				))
			}
		}
	}
	return out
}

func flyActions(planes, airports []string) []*action.Action {
	var out []*action.Action
	for _, from := range airports {
		for _, to := range airports {
			if from == to {
				continue
			}
			for _, p := range planes {
				out = append(out, action.MustNew(fmt.Sprintf("Fly(%s, %s, %s)", p, from, to),
					action.Preconditions{Pos: []fluent.Fluent{at(p, from)}},
					action.Effects{Add: []fluent.Fluent{at(p, to)}, Rem: []fluent.Fluent{at(p, from)}},
				))
			}
		}
	}
	return out
}

// ClosedWorld completes an initial state: every At and In fluent over the
// given objects that is not listed as positive becomes negative. Negatives are
// emitted cargo by cargo, then plane by plane, in object order.
func ClosedWorld(cargos, planes, airports []string, pos []fluent.Fluent) fluent.FluentState {
	known := make(map[fluent.Fluent]bool, len(pos))
	for _, f := range pos {
		known[f] = true
	}
	var neg []fluent.Fluent
	add := func(f fluent.Fluent) {
		if !known[f] {
			known[f] = true
			neg = append(neg, f)
		}
	}
	for _, c := range cargos {
		for _, a := range airports {
			add(at(c, a))
		}
		for _, p := range planes {
			add(in(c, p))
		}
	}
	for _, p := range planes {
		for _, a := range airports {
			add(at(p, a))
		}
	}
	return fluent.FluentState{Pos: slices.Clone(pos), Neg: neg}
}
