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
	"sort"

	"github.com/AleutianAI/AleutianPlan/services/planner/action"
	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// Catalog problem names.
const (
	NameAirCargoP1 = "air_cargo_p1"
	NameAirCargoP2 = "air_cargo_p2"
	NameAirCargoP3 = "air_cargo_p3"
	NameHaveCake   = "have_cake"
)

var catalog = map[string]func() (Problem, error){
	NameAirCargoP1: entry(AirCargoP1),
	NameAirCargoP2: entry(AirCargoP2),
	NameAirCargoP3: entry(AirCargoP3),
	NameHaveCake:   entry(HaveCake),
}

// entry erases the concrete problem type without leaking typed nils.
func entry[P Problem](build func() (P, error)) func() (Problem, error) {
	return func() (Problem, error) {
		p, err := build()
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// Names returns the catalog problem names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the catalog problem with the given name.
func Lookup(name string) (Problem, error) {
	build, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProblem, name)
	}
	return build()
}

func fluents(exprs ...string) []fluent.Fluent {
	out := make([]fluent.Fluent, len(exprs))
	for i, e := range exprs {
		out[i] = fluent.MustParse(e)
	}
	return out
}

// AirCargoP1 is two cargos, two planes, two airports. 12 fluents.
func AirCargoP1() (*AirCargo, error) {
	pos := fluents("At(C1, SFO)", "At(C2, JFK)", "At(P1, SFO)", "At(P2, JFK)")
	neg := fluents(
		"At(C2, SFO)", "In(C2, P1)", "In(C2, P2)",
		"At(C1, JFK)", "In(C1, P1)", "In(C1, P2)",
		"At(P1, JFK)", "At(P2, SFO)",
	)
	return NewAirCargo(NameAirCargoP1,
		[]string{"C1", "C2"}, []string{"P1", "P2"}, []string{"JFK", "SFO"},
		fluent.FluentState{Pos: pos, Neg: neg},
		fluents("At(C1, JFK)", "At(C2, SFO)"),
	)
}

// AirCargoP2 is three cargos, three planes, three airports. 27 fluents.
func AirCargoP2() (*AirCargo, error) {
	pos := fluents(
		"At(C1, SFO)", "At(C2, JFK)", "At(C3, ATL)",
		"At(P1, SFO)", "At(P2, JFK)", "At(P3, ATL)",
	)
	neg := fluents(
		"At(C3, SFO)", "At(C3, JFK)", "In(C3, P1)", "In(C3, P2)", "In(C3, P3)",
		"At(C2, SFO)", "At(C2, ATL)", "In(C2, P1)", "In(C2, P2)", "In(C2, P3)",
		"At(C1, JFK)", "At(C1, ATL)", "In(C1, P1)", "In(C1, P2)", "In(C1, P3)",
		"At(P1, JFK)", "At(P1, ATL)",
		"At(P2, SFO)", "At(P2, ATL)",
		"At(P3, SFO)", "At(P3, JFK)",
	)
	return NewAirCargo(NameAirCargoP2,
		[]string{"C1", "C2", "C3"}, []string{"P1", "P2", "P3"}, []string{"JFK", "SFO", "ATL"},
		fluent.FluentState{Pos: pos, Neg: neg},
		fluents("At(C1, JFK)", "At(C2, SFO)", "At(C3, SFO)"),
	)
}

// AirCargoP3 is four cargos, two planes, four airports. 32 fluents.
func AirCargoP3() (*AirCargo, error) {
	pos := fluents(
		"At(C1, SFO)", "At(C2, JFK)", "At(C3, ATL)", "At(C4, ORD)",
		"At(P1, SFO)", "At(P2, JFK)",
	)
	neg := fluents(
		"At(C4, SFO)", "At(C4, JFK)", "At(C4, ATL)", "In(C4, P1)", "In(C4, P2)",
		"At(C3, SFO)", "At(C3, JFK)", "At(C3, ORD)", "In(C3, P1)", "In(C3, P2)",
		"At(C2, SFO)", "At(C2, ATL)", "At(C2, ORD)", "In(C2, P1)", "In(C2, P2)",
		"At(C1, JFK)", "At(C1, ATL)", "At(C1, ORD)", "In(C1, P1)", "In(C1, P2)",
		"At(P1, JFK)", "At(P1, ATL)", "At(P1, ORD)",
		"At(P2, SFO)", "At(P2, ATL)", "At(P2, ORD)",
	)
	return NewAirCargo(NameAirCargoP3,
		[]string{"C1", "C2", "C3", "C4"}, []string{"P1", "P2"}, []string{"JFK", "SFO", "ATL", "ORD"},
		fluent.FluentState{Pos: pos, Neg: neg},
		fluents("At(C1, JFK)", "At(C2, SFO)", "At(C3, JFK)", "At(C4, SFO)"),
	)
}

// HaveCake is the two-fluent "have your cake and eat it too" problem.
//
//	Eat(Cake)   pre: Have(Cake)    add: Eaten(Cake)   del: Have(Cake)
//	Bake(Cake)  pre: ~Have(Cake)   add: Have(Cake)
func HaveCake() (*Grounded, error) {
	have := fluent.NewFluent("Have", "Cake")
	eaten := fluent.NewFluent("Eaten", "Cake")
	actions := []*action.Action{
		action.MustNew("Eat(Cake)",
			action.Preconditions{Pos: []fluent.Fluent{have}},
			action.Effects{Add: []fluent.Fluent{eaten}, Rem: []fluent.Fluent{have}},
		),
		action.MustNew("Bake(Cake)",
			action.Preconditions{Neg: []fluent.Fluent{have}},
			action.Effects{Add: []fluent.Fluent{have}},
		),
	}
	return NewGrounded(NameHaveCake,
		fluent.FluentState{Pos: []fluent.Fluent{have}, Neg: []fluent.Fluent{eaten}},
		[]fluent.Fluent{have, eaten},
		actions,
	)
}
