// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
)

const oneHop = `
name: hop
cargos: [C1]
planes: [P1]
airports: [SFO, JFK]
initial:
  pos: ["At(C1, SFO)", "At(P1, SFO)"]
goal: ["At(C1, JFK)"]
`

const alreadyThere = `
name: hop
cargos: [C1]
planes: [P1]
airports: [SFO, JFK]
initial:
  pos: ["At(C1, JFK)", "At(P1, SFO)"]
goal: ["At(C1, JFK)"]
`

func TestNew_NoFiles(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestWatcher_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneHop), 0o600))

	reloads := make(chan *problem.AirCargo, 8)
	failures := make(chan error, 8)
	w, err := New([]string{path},
		func(p *problem.AirCargo, _ string) { reloads <- p },
		WithDebounce(20*time.Millisecond),
		WithErrorHandler(func(err error, _ string) { failures <- err }),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, w.Files())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	var first *problem.AirCargo
	select {
	case first = <-reloads:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial load")
	}
	assert.False(t, first.GoalTest(first.Initial()))

	require.NoError(t, os.WriteFile(path, []byte("name: ["), 0o600))
	select {
	case err := <-failures:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("broken file not reported")
	}

	require.NoError(t, os.WriteFile(path, []byte(alreadyThere), 0o600))
	var second *problem.AirCargo
	select {
	case second = <-reloads:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after fix")
	}
	assert.True(t, second.GoalTest(second.Initial()))
	assert.NotEqual(t, first.Fingerprint(), second.Fingerprint())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneHop), 0o600))

	reloads := make(chan string, 8)
	w, err := New([]string{path}, func(_ *problem.AirCargo, p string) { reloads <- p },
		WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	select {
	case <-reloads:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial load")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte(oneHop), 0o600))
	select {
	case p := <-reloads:
		t.Fatalf("unexpected reload of %s", p)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_RejectsBadObjectNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := `
name: bad
cargos: [C1]
planes: [P1]
airports: [SFO, "J(FK)"]
initial:
  pos: ["At(C1, SFO)", "At(P1, SFO)"]
goal: ["At(C1, SFO)"]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	failures := make(chan error, 1)
	w, err := New([]string{path}, func(*problem.AirCargo, string) {
		t.Error("bad definition accepted")
	}, WithErrorHandler(func(err error, _ string) { failures <- err }))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	select {
	case err := <-failures:
		assert.ErrorIs(t, err, problem.ErrInvalidProblem)
	case <-time.After(5 * time.Second):
		t.Fatal("bad definition not reported")
	}
}
