// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package fluent

import (
	"fmt"
	"strings"
)

// Flag values used in a State.
const (
	FlagTrue  = 'T'
	FlagFalse = 'F'
)

// Universe is the fixed, ordered set of fluents known to a problem.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Universe struct {
	fluents []Fluent
	index   map[Fluent]int
}

// NewUniverse fixes the fluent order of a problem: the initial state's
// positive fluents followed by its negative fluents.
//
// Outputs:
//   - *Universe: The universe. Never nil on success.
//   - error: Wraps ErrDuplicateFluent if a fluent appears twice.
func NewUniverse(initial FluentState) (*Universe, error) {
	n := len(initial.Pos) + len(initial.Neg)
	u := &Universe{
		fluents: make([]Fluent, 0, n),
		index:   make(map[Fluent]int, n),
	}
	for _, list := range [][]Fluent{initial.Pos, initial.Neg} {
		for _, f := range list {
			if _, dup := u.index[f]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateFluent, f)
			}
			u.index[f] = len(u.fluents)
			u.fluents = append(u.fluents, f)
		}
	}
	return u, nil
}

// Len returns the number of fluents.
func (u *Universe) Len() int { return len(u.fluents) }

// Fluents returns a copy of the ordered fluent list.
func (u *Universe) Fluents() []Fluent {
	out := make([]Fluent, len(u.fluents))
	copy(out, u.fluents)
	return out
}

// At returns the fluent at position i.
func (u *Universe) At(i int) Fluent { return u.fluents[i] }

// Index returns the position of f, or false if f is unknown.
func (u *Universe) Index(f Fluent) (int, bool) {
	i, ok := u.index[f]
	return i, ok
}

// Contains reports whether f belongs to the universe.
func (u *Universe) Contains(f Fluent) bool {
	_, ok := u.index[f]
	return ok
}

// State is a fixed-width flag string, one FlagTrue/FlagFalse per universe
// fluent. States are plain values: comparable and usable as map keys.
type State string

// Encode builds the state for fs against u. Fluents listed in fs.Pos are
// true; everything else, including fluents absent from both lists, is false.
// Fluents unknown to u are ignored.
func Encode(fs FluentState, u *Universe) State {
	flags := make([]byte, u.Len())
	for i := range flags {
		flags[i] = FlagFalse
	}
	for _, f := range fs.Pos {
		if i, ok := u.index[f]; ok {
			flags[i] = FlagTrue
		}
	}
	return State(flags)
}

// Decode splits s into positive and negative fluents, each in universe order.
//
// Panics with an error wrapping ErrStateLength if s does not match u. Call
// Validate first when s comes from outside the process.
func Decode(s State, u *Universe) FluentState {
	mustMatch(s, u)
	fs := FluentState{
		Pos: make([]Fluent, 0, len(s)),
		Neg: make([]Fluent, 0, len(s)),
	}
	for i := 0; i < len(s); i++ {
		if s[i] == FlagTrue {
			fs.Pos = append(fs.Pos, u.fluents[i])
		} else {
			fs.Neg = append(fs.Neg, u.fluents[i])
		}
	}
	return fs
}

// Validate checks that s has one valid flag per fluent of u.
func (s State) Validate(u *Universe) error {
	if len(s) != u.Len() {
		return fmt.Errorf("%w: state %q has %d flags, universe has %d", ErrStateLength, string(s), len(s), u.Len())
	}
	if i := strings.IndexFunc(string(s), func(r rune) bool { return r != FlagTrue && r != FlagFalse }); i >= 0 {
		return fmt.Errorf("%w %q at position %d", ErrInvalidFlag, s[i], i)
	}
	return nil
}

// Holds reports whether f is asserted true in s. Unknown fluents never hold.
// Panics like Decode on a length mismatch.
func (s State) Holds(u *Universe, f Fluent) bool {
	mustMatch(s, u)
	i, ok := u.index[f]
	return ok && s[i] == FlagTrue
}

// Satisfies reports whether the literal l is asserted by s: positive literals
// must be true, negative literals false.
func (s State) Satisfies(u *Universe, l Literal) bool {
	return s.Holds(u, l.Symbol) == l.Positive
}

func mustMatch(s State, u *Universe) {
	if len(s) != u.Len() {
		panic(fmt.Errorf("%w: state has %d flags, universe has %d", ErrStateLength, len(s), u.Len()))
	}
}
