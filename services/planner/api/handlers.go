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
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
	"github.com/AleutianAI/AleutianPlan/services/planner/heuristic"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
	"github.com/AleutianAI/AleutianPlan/services/planner/report"
)

// EstimateRequest is the body of POST /v1/planner/estimate and /successors.
type EstimateRequest struct {
	Problem string `json:"problem" binding:"required"`
	// State defaults to the problem's initial state.
	State string `json:"state"`
	Kind  string `json:"kind"`
	// Record saves the estimate to the history store.
	Record bool `json:"record"`
}

// EstimateResponse carries one estimate. Value is null when the goal is
// unreachable.
type EstimateResponse struct {
	Problem     string   `json:"problem"`
	Kind        string   `json:"kind"`
	State       string   `json:"state"`
	Value       *float64 `json:"value"`
	Unreachable bool     `json:"unreachable,omitempty"`
	Levels      int      `json:"levels,omitempty"`
	Cached      bool     `json:"cached"`
	ReportID    string   `json:"report_id,omitempty"`
}

// SuccessorResponse is one entry of POST /v1/planner/successors.
type SuccessorResponse struct {
	Action string `json:"action"`
	EstimateResponse
}

// ProblemInfo describes a problem.
type ProblemInfo struct {
	Name        string   `json:"name"`
	Fingerprint string   `json:"fingerprint"`
	Fluents     []string `json:"fluents"`
	Initial     string   `json:"initial"`
	Goal        []string `json:"goal"`
	Actions     int      `json:"actions"`
}

func toResponse(name string, est heuristic.Estimate) EstimateResponse {
	resp := EstimateResponse{
		Problem: name,
		Kind:    string(est.Kind),
		State:   string(est.State),
		Levels:  est.Levels,
		Cached:  est.Cached,
	}
	if math.IsInf(est.Value, 1) {
		resp.Unreachable = true
	} else {
		v := est.Value
		resp.Value = &v
	}
	return resp
}

// statusFor maps planner errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, problem.ErrUnknownProblem):
		return http.StatusNotFound
	case errors.Is(err, fluent.ErrStateLength),
		errors.Is(err, fluent.ErrInvalidFlag),
		errors.Is(err, heuristic.ErrUnknownKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bind decodes the request and resolves its estimator, kind and state.
func (s *Service) bind(c *gin.Context) (EstimateRequest, *heuristic.Estimator, heuristic.Kind, fluent.State, bool) {
	var req EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, nil, "", "", false
	}
	est, err := s.Estimator(req.Problem)
	if err != nil {
		s.fail(c, "bind", err)
		return req, nil, "", "", false
	}
	kind := s.cfg.DefaultKind
	if req.Kind != "" {
		if kind, err = heuristic.ParseKind(req.Kind); err != nil {
			s.fail(c, "bind", err)
			return req, nil, "", "", false
		}
	}
	state := fluent.State(req.State)
	if state == "" {
		state = est.Problem().Initial()
	}
	return req, est, kind, state, true
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListProblems handles GET /v1/planner/problems.
func (s *Service) ListProblems() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"problems": s.Problems()})
	}
}

// GetProblem handles GET /v1/planner/problems/:name.
func (s *Service) GetProblem() gin.HandlerFunc {
	return func(c *gin.Context) {
		est, err := s.Estimator(c.Param("name"))
		if err != nil {
			s.fail(c, "get_problem", err)
			return
		}
		p := est.Problem()
		info := ProblemInfo{
			Name:        p.Name(),
			Fingerprint: p.Fingerprint(),
			Initial:     string(p.Initial()),
			Actions:     len(p.Actions()),
		}
		for _, f := range p.Universe().Fluents() {
			info.Fluents = append(info.Fluents, string(f))
		}
		for _, f := range p.Goal() {
			info.Goal = append(info.Goal, string(f))
		}
		c.JSON(http.StatusOK, info)
	}
}

// Estimate handles POST /v1/planner/estimate.
func (s *Service) Estimate() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, est, kind, state, ok := s.bind(c)
		if !ok {
			return
		}
		result, err := est.Evaluate(c.Request.Context(), state, kind)
		if err != nil {
			s.fail(c, "estimate", err)
			return
		}

		resp := toResponse(req.Problem, result)
		if req.Record && s.cfg.Store != nil {
			saved, err := s.cfg.Store.Save(c.Request.Context(), report.FromEstimate(est.Problem(), result))
			if err != nil {
				s.fail(c, "estimate", err)
				return
			}
			resp.ReportID = saved.ID.String()
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Successors handles POST /v1/planner/successors.
func (s *Service) Successors() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, est, kind, state, ok := s.bind(c)
		if !ok {
			return
		}
		succ, err := est.Successors(c.Request.Context(), state, kind, s.cfg.Workers)
		if err != nil {
			s.fail(c, "successors", err)
			return
		}
		out := make([]SuccessorResponse, len(succ))
		for i, sc := range succ {
			out[i] = SuccessorResponse{Action: sc.Action, EstimateResponse: toResponse(req.Problem, sc.Estimate)}
		}
		c.JSON(http.StatusOK, gin.H{"state": string(state), "successors": out})
	}
}

// History handles GET /v1/planner/history?problem=&limit=.
func (s *Service) History() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.Store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
			return
		}
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}
		reports, err := s.cfg.Store.List(c.Request.Context(), c.Query("problem"), limit)
		if err != nil {
			s.fail(c, "history", err)
			return
		}
		if reports == nil {
			reports = []report.Report{}
		}
		c.JSON(http.StatusOK, gin.H{"reports": reports})
	}
}
