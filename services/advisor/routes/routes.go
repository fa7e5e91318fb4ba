// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/handlers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the advisor's endpoints on the router.
func SetupRoutes(router *gin.Engine, query *handlers.QueryHandler, calc *handlers.CalculationHandler) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Kept at the root for compatibility with existing clients.
	router.POST("/perform_calculations", calc.PerformCalculations)

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.POST("/query", query.Query)
	}
}
