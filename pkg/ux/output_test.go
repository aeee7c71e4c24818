// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMode(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ModePlain, DetectMode(&buf, false))
	assert.Equal(t, ModeMachine, DetectMode(&buf, true))
	assert.False(t, IsTerminal(&buf))
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModePlain)

	p.Title("air_cargo_p1")
	p.Success("estimate saved")
	p.Error("no such problem")

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "plain output has no ANSI escapes")
	assert.Contains(t, out, "air_cargo_p1\n")
	assert.Contains(t, out, "✓ estimate saved\n")
	assert.Contains(t, out, "✗ no such problem\n")
}

func TestPrinter_Machine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModeMachine)

	p.Title("ignored")
	p.Warning("cache purged")
	p.KeyValues([][2]string{{"kind", "levelsum"}, {"value", "4"}})
	p.Table([]string{"ACTION", "VALUE"}, [][]string{{"Load(C1, P1, SFO)", "4"}})

	assert.Equal(t,
		"WARN: cache purged\nkind\tlevelsum\nvalue\t4\nLoad(C1, P1, SFO)\t4\n",
		buf.String())
}

func TestPrinter_TableAligns(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, ModePlain).Table(
		[]string{"LEVEL", "FACTS"},
		[][]string{{"0", "12"}, {"10", "7"}},
	)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"LEVEL  FACTS", "0      12", "10     7"}, lines)
}

func TestPrinter_KeyValuesAlign(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, ModePlain).KeyValues([][2]string{{"kind", "setlevel"}, {"levels", "3"}})
	assert.Equal(t, "kind    setlevel\nlevels  3\n", buf.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "4", FormatValue(4))
	assert.Equal(t, "2.5", FormatValue(2.5))
	assert.Equal(t, "unreachable", FormatValue(math.Inf(1)))
}
