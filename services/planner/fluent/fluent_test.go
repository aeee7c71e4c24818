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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cargoState() FluentState {
	return FluentState{
		Pos: []Fluent{"At(C1, SFO)", "At(P1, SFO)"},
		Neg: []Fluent{"In(C1, P1)", "At(C1, JFK)", "At(P1, JFK)"},
	}
}

func TestParseFluent(t *testing.T) {
	tests := []struct {
		in   string
		want Fluent
	}{
		{"At(C1, SFO)", "At(C1, SFO)"},
		{"At(C1,SFO)", "At(C1, SFO)"},
		{"  At( C1 ,  SFO )  ", "At(C1, SFO)"},
		{"Have(Cake)", "Have(Cake)"},
		{"Raining", "Raining"},
		{"Raining()", "Raining"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFluent(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFluent_Malformed(t *testing.T) {
	for _, in := range []string{"", "(C1)", "At(C1, SFO", "At(C1,,SFO)", "At(In(C1), P1)", "Have Cake"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseFluent(in)
			assert.ErrorIs(t, err, ErrMalformedFluent)
		})
	}
}

func TestLiteral_Identity(t *testing.T) {
	a := Pos(MustParse("At(C1,SFO)"))
	b := Literal{Symbol: "At(C1, SFO)", Positive: true}
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, a.Negate())
	assert.Equal(t, a, a.Negate().Negate())
	assert.Equal(t, "~At(C1, SFO)", a.Negate().String())

	set := map[Literal]int{a: 1}
	set[b]++
	assert.Len(t, set, 1)
}

func TestNewUniverse(t *testing.T) {
	u, err := NewUniverse(cargoState())
	require.NoError(t, err)
	assert.Equal(t, 5, u.Len())
	assert.Equal(t, Fluent("At(C1, SFO)"), u.At(0))
	assert.Equal(t, Fluent("In(C1, P1)"), u.At(2))

	i, ok := u.Index("At(P1, JFK)")
	assert.True(t, ok)
	assert.Equal(t, 4, i)
	assert.False(t, u.Contains("At(C2, SFO)"))
}

func TestNewUniverse_Duplicate(t *testing.T) {
	_, err := NewUniverse(FluentState{
		Pos: []Fluent{"At(C1, SFO)"},
		Neg: []Fluent{"At(C1, SFO)"},
	})
	assert.ErrorIs(t, err, ErrDuplicateFluent)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	u, err := NewUniverse(cargoState())
	require.NoError(t, err)

	states := []FluentState{
		cargoState(),
		{Pos: nil, Neg: u.Fluents()},
		{Pos: u.Fluents(), Neg: nil},
		{Pos: []Fluent{"In(C1, P1)", "At(P1, JFK)"}, Neg: []Fluent{"At(C1, SFO)", "At(P1, SFO)", "At(C1, JFK)"}},
	}
	for _, fs := range states {
		s := Encode(fs, u)
		require.Len(t, string(s), u.Len())
		got := Decode(s, u)
		assert.ElementsMatch(t, fs.Pos, got.Pos)
		assert.ElementsMatch(t, fs.Neg, got.Neg)
		assert.Equal(t, s, Encode(got, u))
	}
}

func TestEncode_Flags(t *testing.T) {
	u, err := NewUniverse(cargoState())
	require.NoError(t, err)
	assert.Equal(t, State("TTFFF"), Encode(cargoState(), u))
}

func TestDecode_LengthMismatchPanics(t *testing.T) {
	u, err := NewUniverse(cargoState())
	require.NoError(t, err)

	assert.Panics(t, func() { Decode("TT", u) })
	assert.Panics(t, func() { State("TTFFFF").Holds(u, "At(C1, SFO)") })
}

func TestState_Validate(t *testing.T) {
	u, err := NewUniverse(cargoState())
	require.NoError(t, err)

	assert.NoError(t, State("TFTFT").Validate(u))
	err = State("TF").Validate(u)
	assert.ErrorIs(t, err, ErrStateLength)
	assert.ErrorContains(t, err, `"TF"`)
	assert.ErrorIs(t, State("TFXFT").Validate(u), ErrInvalidFlag)
}

func TestState_Satisfies(t *testing.T) {
	u, err := NewUniverse(cargoState())
	require.NoError(t, err)
	s := Encode(cargoState(), u)

	assert.True(t, s.Holds(u, "At(C1, SFO)"))
	assert.False(t, s.Holds(u, "In(C1, P1)"))
	assert.True(t, s.Satisfies(u, Neg("In(C1, P1)")))
	assert.False(t, s.Satisfies(u, Neg("At(P1, SFO)")))
	assert.False(t, s.Holds(u, "At(C9, ORD)"))
}
