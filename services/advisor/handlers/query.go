// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the advisor's HTTP endpoints.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/agent"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var queryTracer = otel.Tracer("aleutian.advisor.handlers")

// QueryHandler serves the conversational endpoint.
type QueryHandler struct {
	Manager *agent.Manager
	Metrics *observability.AdvisorMetrics
}

// Query handles POST /v1/query.
//
// Internal failure detail never reaches the client: any turn failure is
// logged server-side and rendered as an opaque 500 body.
func (h *QueryHandler) Query(c *gin.Context) {
	ctx, span := queryTracer.Start(c.Request.Context(), "Query")
	defer span.End()
	start := time.Now()

	var req datatypes.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("Rejected malformed query request", "error", err)
		h.observe(false, observability.ErrorCodeValidation, start)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := h.Manager.HandleTurn(ctx, req)
	if err != nil {
		slog.Error("Query turn failed",
			"session_id", req.SessionId, "user_id", req.UserId, "error", err)
		h.observe(false, observability.ErrorCodeInternal, start)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error initiating request processing"})
		return
	}

	h.observe(true, "", start)
	c.JSON(http.StatusOK, resp)
}

func (h *QueryHandler) observe(success bool, code observability.ErrorCode, start time.Time) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.RecordRequest(observability.EndpointQuery, success)
	h.Metrics.RecordDuration(observability.EndpointQuery, time.Since(start).Seconds())
	if !success {
		h.Metrics.RecordError(observability.EndpointQuery, code)
	}
}
