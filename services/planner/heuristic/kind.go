// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package heuristic turns planning graphs into cost-to-goal estimates for a
// forward state-space search.
package heuristic

import (
	"errors"
	"fmt"
	"strings"
)

// Package-level error definitions.
var (
	ErrUnknownKind = errors.New("unknown heuristic kind")
	ErrNoProblem   = errors.New("no problem set")
)

// PlannerError wraps errors raised while estimating.
type PlannerError struct {
	Component string
	Operation string
	Err       error
}

func (e *PlannerError) Error() string {
	return e.Component + "." + e.Operation + ": " + e.Err.Error()
}

func (e *PlannerError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	return &PlannerError{Component: "heuristic", Operation: op, Err: err}
}

// Kind selects a heuristic.
type Kind string

const (
	// KindConstant always estimates 1. Useful as a baseline for search.
	KindConstant Kind = "constant"

	// KindLevelSum sums the first graph level of every goal.
	KindLevelSum Kind = "levelsum"

	// KindIgnorePreconditions counts goals false in the state.
	KindIgnorePreconditions Kind = "ignore-preconditions"

	// KindMaxLevel is the deepest first level among the goals.
	KindMaxLevel Kind = "maxlevel"

	// KindSetLevel is the first level holding every goal with no two mutex.
	KindSetLevel Kind = "setlevel"
)

var aliases = map[string]Kind{
	"h_1":                    KindConstant,
	"h_pg_levelsum":          KindLevelSum,
	"h_ignore_preconditions": KindIgnorePreconditions,
	"ignore_preconditions":   KindIgnorePreconditions,
	"level-sum":              KindLevelSum,
	"max-level":              KindMaxLevel,
	"set-level":              KindSetLevel,
}

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{KindConstant, KindLevelSum, KindIgnorePreconditions, KindMaxLevel, KindSetLevel}
}

// ParseKind resolves a kind by name, case-insensitively. The search-driver
// names h_1, h_pg_levelsum and h_ignore_preconditions are accepted too.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if string(k) == name {
			return k, nil
		}
	}
	if k, ok := aliases[name]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// String returns the canonical name.
func (k Kind) String() string { return string(k) }

// NeedsGraph reports whether the kind requires a planning graph.
func (k Kind) NeedsGraph() bool {
	switch k {
	case KindLevelSum, KindMaxLevel, KindSetLevel:
		return true
	}
	return false
}
