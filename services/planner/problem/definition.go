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
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
)

// definitionValidate validates problem definition files.
var definitionValidate = validator.New(validator.WithRequiredStructEnabled())

// Definition is the on-disk YAML form of an air cargo problem.
//
// Example:
//
//	name: two_hops
//	cargos: [C1]
//	planes: [P1]
//	airports: [SFO, JFK]
//	initial:
//	  pos: ["At(C1, SFO)", "At(P1, SFO)"]
//	goal: ["At(C1, JFK)"]
//
// When initial.neg is omitted the negatives are completed with ClosedWorld.
type Definition struct {
	Name     string        `yaml:"name" validate:"required"`
	Cargos   []string      `yaml:"cargos" validate:"required,min=1,unique,dive,required,excludesall=()0x2C"`
	Planes   []string      `yaml:"planes" validate:"required,min=1,unique,dive,required,excludesall=()0x2C"`
	Airports []string      `yaml:"airports" validate:"required,min=1,unique,dive,required,excludesall=()0x2C"`
	Initial  InitialStanza `yaml:"initial"`
	Goal     []string      `yaml:"goal" validate:"required,min=1,dive,required"`
}

// InitialStanza lists the initial fluents as expressions.
type InitialStanza struct {
	Pos []string `yaml:"pos" validate:"required,min=1,dive,required"`
	Neg []string `yaml:"neg" validate:"omitempty,dive,required"`
}

// ParseDefinition decodes and validates a YAML problem definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidProblem, err)
	}
	if err := definitionValidate.Struct(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	return &d, nil
}

// LoadDefinition reads and validates a problem definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem file %s: %w", path, err)
	}
	return ParseDefinition(data)
}

// Build grounds the defined problem.
//
// Outputs:
//   - *AirCargo: The grounded problem.
//   - error: ErrInvalidProblem for unparsable fluents, or any NewAirCargo error.
func (d *Definition) Build() (*AirCargo, error) {
	pos, err := parseAll(d.Initial.Pos)
	if err != nil {
		return nil, err
	}
	goal, err := parseAll(d.Goal)
	if err != nil {
		return nil, err
	}

	var initial fluent.FluentState
	if len(d.Initial.Neg) == 0 {
		initial = ClosedWorld(d.Cargos, d.Planes, d.Airports, pos)
	} else {
		neg, err := parseAll(d.Initial.Neg)
		if err != nil {
			return nil, err
		}
		initial = fluent.FluentState{Pos: pos, Neg: neg}
	}
	return NewAirCargo(d.Name, d.Cargos, d.Planes, d.Airports, initial, goal)
}

func parseAll(exprs []string) ([]fluent.Fluent, error) {
	out := make([]fluent.Fluent, 0, len(exprs))
	for _, e := range exprs {
		f, err := fluent.ParseFluent(e)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
		}
		out = append(out, f)
	}
	return out, nil
}
