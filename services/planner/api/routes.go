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
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// SetupRoutes registers the planner routes. metrics, when non-nil, is
// served at /metrics.
func SetupRoutes(router *gin.Engine, svc *Service, metrics http.Handler) {
	router.GET("/health", HealthCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/v1/planner")
	{
		v1.GET("/health", HealthCheck)
		v1.GET("/problems", svc.ListProblems())
		v1.GET("/problems/:name", svc.GetProblem())
		v1.POST("/estimate", svc.Estimate())
		v1.POST("/successors", svc.Successors())
		v1.GET("/history", svc.History())
	}
}

// NewRouter returns a gin engine with recovery, OpenTelemetry middleware and
// the planner routes.
func NewRouter(serviceName string, svc *Service, metrics http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	SetupRoutes(router, svc, metrics)
	return router
}
