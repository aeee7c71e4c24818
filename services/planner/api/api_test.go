// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
	"github.com/AleutianAI/AleutianPlan/services/planner/report"
	storage "github.com/AleutianAI/AleutianPlan/services/planner/storage/badger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const twoHops = `
name: two_hops
cargos: [C1]
planes: [P1]
airports: [SFO, JFK]
initial:
  pos: ["At(C1, SFO)", "At(P1, SFO)"]
goal: ["At(C1, JFK)"]
`

func newTestService(t *testing.T, withStore bool) *Service {
	t.Helper()
	cfg := ServiceConfig{Workers: 2}
	if withStore {
		db, err := storage.OpenInMemory()
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		cfg.Store = report.NewStore(db, nil)
	}
	return NewService(cfg)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	router := NewRouter("test", newTestService(t, false), nil)

	for _, path := range []string{"/health", "/v1/planner/health"} {
		w := do(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	}
}

func TestListProblems(t *testing.T) {
	svc := newTestService(t, false)
	d, err := problem.ParseDefinition([]byte(twoHops))
	require.NoError(t, err)
	p, err := d.Build()
	require.NoError(t, err)
	svc.Register(p)

	w := do(t, NewRouter("test", svc, nil), http.MethodGet, "/v1/planner/problems", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[map[string][]string](t, w)["problems"]
	assert.Equal(t, []string{"air_cargo_p1", "air_cargo_p2", "air_cargo_p3", "have_cake", "two_hops"}, got)
}

func TestGetProblem(t *testing.T) {
	router := NewRouter("test", newTestService(t, false), nil)

	w := do(t, router, http.MethodGet, "/v1/planner/problems/have_cake", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[ProblemInfo](t, w)
	assert.Equal(t, "have_cake", info.Name)
	assert.Equal(t, []string{"Have(Cake)", "Eaten(Cake)"}, info.Fluents)
	assert.Equal(t, "TF", info.Initial)
	assert.Equal(t, 2, info.Actions)
	assert.Len(t, info.Fingerprint, problem.FingerprintLength)

	w = do(t, router, http.MethodGet, "/v1/planner/problems/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEstimate(t *testing.T) {
	router := NewRouter("test", newTestService(t, false), nil)

	tests := []struct {
		name string
		req  EstimateRequest
		want float64
	}{
		{"default kind", EstimateRequest{Problem: "air_cargo_p1"}, 4},
		{"ignore preconditions", EstimateRequest{Problem: "air_cargo_p1", Kind: "ignore-preconditions"}, 2},
		{"alias", EstimateRequest{Problem: "air_cargo_p1", Kind: "h_1"}, 1},
		{"explicit state", EstimateRequest{Problem: "have_cake", State: "FT", Kind: "ignore-preconditions"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/v1/planner/estimate", tt.req)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			resp := decode[EstimateResponse](t, w)
			require.NotNil(t, resp.Value)
			assert.Equal(t, tt.want, *resp.Value)
			assert.False(t, resp.Unreachable)
		})
	}

	w := do(t, router, http.MethodPost, "/v1/planner/estimate", EstimateRequest{Problem: "air_cargo_p1"})
	assert.True(t, decode[EstimateResponse](t, w).Cached)
}

func TestEstimate_Errors(t *testing.T) {
	router := NewRouter("test", newTestService(t, false), nil)

	tests := []struct {
		name string
		body any
		code int
	}{
		{"missing problem", map[string]string{"kind": "levelsum"}, http.StatusBadRequest},
		{"unknown problem", EstimateRequest{Problem: "nope"}, http.StatusNotFound},
		{"unknown kind", EstimateRequest{Problem: "have_cake", Kind: "astar"}, http.StatusBadRequest},
		{"short state", EstimateRequest{Problem: "have_cake", State: "T"}, http.StatusBadRequest},
		{"bad flag", EstimateRequest{Problem: "have_cake", State: "TX"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/v1/planner/estimate", tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestEstimate_Unreachable(t *testing.T) {
	svc := newTestService(t, false)
	a, b := fluent.NewFluent("A"), fluent.NewFluent("B")
	stuck, err := problem.NewGrounded("stuck", fluent.FluentState{Pos: []fluent.Fluent{a}, Neg: []fluent.Fluent{b}}, []fluent.Fluent{b}, nil)
	require.NoError(t, err)
	svc.Register(stuck)

	w := do(t, NewRouter("test", svc, nil), http.MethodPost, "/v1/planner/estimate", EstimateRequest{Problem: "stuck"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[EstimateResponse](t, w)
	assert.True(t, resp.Unreachable)
	assert.Nil(t, resp.Value)
}

func TestSuccessors(t *testing.T) {
	router := NewRouter("test", newTestService(t, false), nil)

	w := do(t, router, http.MethodPost, "/v1/planner/successors",
		EstimateRequest{Problem: "air_cargo_p1", Kind: "ignore-preconditions"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		State      string              `json:"state"`
		Successors []SuccessorResponse `json:"successors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "TTTTFFFFFFFF", body.State)
	assert.Len(t, body.Successors, 4)
	for _, s := range body.Successors {
		assert.NotEmpty(t, s.Action)
		require.NotNil(t, s.Value)
		assert.Equal(t, 2.0, *s.Value)
	}
}

func TestHistory(t *testing.T) {
	router := NewRouter("test", newTestService(t, true), nil)

	w := do(t, router, http.MethodPost, "/v1/planner/estimate",
		EstimateRequest{Problem: "have_cake", Kind: "setlevel", Record: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[EstimateResponse](t, w).ReportID
	assert.NotEmpty(t, id)

	do(t, router, http.MethodPost, "/v1/planner/estimate", EstimateRequest{Problem: "have_cake"})

	w = do(t, router, http.MethodGet, "/v1/planner/history?problem=have_cake", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reports := decode[map[string][]report.Report](t, w)["reports"]
	require.Len(t, reports, 1, "only recorded estimates are kept")
	assert.Equal(t, id, reports[0].ID.String())
	assert.Equal(t, 2.0, reports[0].Value)

	w = do(t, router, http.MethodGet, "/v1/planner/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory_Disabled(t *testing.T) {
	router := NewRouter("test", newTestService(t, false), nil)
	w := do(t, router, http.MethodGet, "/v1/planner/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsRoute(t *testing.T) {
	router := NewRouter("test", newTestService(t, false), promhttp.Handler())
	do(t, router, http.MethodPost, "/v1/planner/estimate", EstimateRequest{Problem: "have_cake", Kind: "levelsum"})

	w := do(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pgplan_graph_build_duration_seconds")

	w = do(t, NewRouter("test", newTestService(t, false), nil), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegister_PurgesEstimates(t *testing.T) {
	svc := newTestService(t, false)
	est, err := svc.Estimator("have_cake")
	require.NoError(t, err)

	_, err = est.Estimate(t.Context(), est.Problem().Initial(), "levelsum")
	require.NoError(t, err)
	require.Equal(t, 1, est.CacheStats().Entries)

	p, err := problem.HaveCake()
	require.NoError(t, err)
	svc.Register(p)

	again, err := svc.Estimator("have_cake")
	require.NoError(t, err)
	assert.Same(t, est, again)
	assert.Zero(t, est.CacheStats().Entries)
}
