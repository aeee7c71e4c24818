// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package fluent provides the ground literal model and the fixed-width state
// codec used by the planner.
//
// A problem fixes an ordered universe of fluents once, at construction. Every
// state of that problem is a T/F flag string of the same length, one flag per
// fluent in universe order:
//
//	universe: [At(C1, SFO), At(P1, SFO), In(C1, P1)]
//	state:    "TTF"  ->  pos=[At(C1, SFO), At(P1, SFO)] neg=[In(C1, P1)]
//
// Encoding and decoding are pure and loss-free.
package fluent

import (
	"errors"
	"fmt"
	"strings"
)

// Package-level error definitions.
var (
	ErrMalformedFluent = errors.New("malformed fluent expression")
	ErrDuplicateFluent = errors.New("duplicate fluent in universe")
	ErrStateLength     = errors.New("state length does not match universe")
	ErrInvalidFlag     = errors.New("invalid state flag")
)

// Fluent is a ground predicate instance in canonical form, e.g. "At(C1, SFO)".
type Fluent string

// NewFluent builds the canonical fluent for a predicate and its arguments.
//
// Example:
//
//	NewFluent("At", "C1", "SFO") // "At(C1, SFO)"
//	NewFluent("Raining")         // "Raining"
func NewFluent(predicate string, args ...string) Fluent {
	if len(args) == 0 {
		return Fluent(predicate)
	}
	return Fluent(predicate + "(" + strings.Join(args, ", ") + ")")
}

// ParseFluent parses and canonicalises a fluent expression.
//
// Description:
//
//	Accepts "Pred", "Pred()" or "Pred(a, b, ...)" with arbitrary whitespace
//	around tokens, so "At(C1,SFO)" and "At( C1, SFO )" both yield
//	"At(C1, SFO)".
//
// Outputs:
//   - Fluent: The canonical fluent.
//   - error: Wraps ErrMalformedFluent if the expression cannot be parsed.
func ParseFluent(s string) (Fluent, error) {
	name, args, err := ParseCall(s)
	if err != nil {
		return "", err
	}
	return NewFluent(name, args...), nil
}

// MustParse is like ParseFluent but panics on malformed input. Intended for
// literals in problem tables and tests.
func MustParse(s string) Fluent {
	f, err := ParseFluent(s)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseCall splits a "Name(arg, ...)" expression into its name and arguments.
//
// Outputs:
//   - name: The leading identifier.
//   - args: Trimmed arguments, nil for a bare name.
//   - error: Wraps ErrMalformedFluent on empty names, empty arguments,
//     unbalanced or nested parentheses.
func ParseCall(s string) (name string, args []string, err error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if s == "" || strings.ContainsAny(s, ") ,") {
			return "", nil, fmt.Errorf("%w: %q", ErrMalformedFluent, s)
		}
		return s, nil, nil
	}

	name = strings.TrimSpace(s[:open])
	if name == "" || !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("%w: %q", ErrMalformedFluent, s)
	}
	inner := s[open+1 : len(s)-1]
	if strings.ContainsAny(inner, "()") {
		return "", nil, fmt.Errorf("%w: nested call in %q", ErrMalformedFluent, s)
	}
	if strings.TrimSpace(inner) == "" {
		return name, nil, nil
	}

	parts := strings.Split(inner, ",")
	args = make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return "", nil, fmt.Errorf("%w: empty argument in %q", ErrMalformedFluent, s)
		}
		args = append(args, p)
	}
	return name, args, nil
}

// Literal is a fluent with a polarity. Two literals are equal iff symbol and
// polarity match, so Literal can be used directly as a map key.
type Literal struct {
	Symbol   Fluent
	Positive bool
}

// Pos returns the positive literal of f.
func Pos(f Fluent) Literal { return Literal{Symbol: f, Positive: true} }

// Neg returns the negative literal of f.
func Neg(f Fluent) Literal { return Literal{Symbol: f, Positive: false} }

// Negate returns the literal with the opposite polarity.
func (l Literal) Negate() Literal {
	return Literal{Symbol: l.Symbol, Positive: !l.Positive}
}

// String renders negative literals with a leading "~".
func (l Literal) String() string {
	if l.Positive {
		return string(l.Symbol)
	}
	return "~" + string(l.Symbol)
}

// FluentState is a state expressed as its positive and negative fluents.
type FluentState struct {
	Pos []Fluent
	Neg []Fluent
}

// Literals returns the state as literals, positives first.
func (fs FluentState) Literals() []Literal {
	out := make([]Literal, 0, len(fs.Pos)+len(fs.Neg))
	for _, f := range fs.Pos {
		out = append(out, Pos(f))
	}
	for _, f := range fs.Neg {
		out = append(out, Neg(f))
	}
	return out
}
