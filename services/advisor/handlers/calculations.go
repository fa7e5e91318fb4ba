// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/pkg/validation"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/analytics"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/daterange"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/marketdata"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/observability"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/pipeline"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
)

var calculationsTracer = otel.Tracer("aleutian.advisor.handlers")

// CalculationHandler serves the direct calculation endpoint.
type CalculationHandler struct {
	Pipeline *pipeline.Pipeline
	Metrics  *observability.AdvisorMetrics
}

// PerformCalculations handles POST /perform_calculations.
//
// Bad dates and tickers are client errors, an empty series is a not-found,
// and everything else is an internal error. Publish warnings ride along in
// the response body without affecting the status.
func (h *CalculationHandler) PerformCalculations(c *gin.Context) {
	ctx, span := calculationsTracer.Start(c.Request.Context(), "PerformCalculations")
	defer span.End()
	start := time.Now()

	var req datatypes.CalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("Rejected malformed calculation request", "error", err)
		h.observe(false, observability.ErrorCodeValidation, start)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := h.Pipeline.Run(ctx, req)
	if err != nil {
		h.renderError(c, req.Ticker, err, start)
		return
	}

	h.observe(true, "", start)
	c.JSON(http.StatusOK, resp)
}

func (h *CalculationHandler) renderError(c *gin.Context, ticker string, err error, start time.Time) {
	switch {
	case errors.Is(err, daterange.ErrInvalidDateFormat), errors.Is(err, validation.ErrInvalidTicker):
		slog.Warn("Rejected calculation request", "ticker", ticker, "error", err)
		h.observe(false, observability.ErrorCodeValidation, start)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, pipeline.ErrNoData):
		slog.Info("No data for requested window", "ticker", ticker)
		h.observe(false, observability.ErrorCodeNoData, start)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, marketdata.ErrSourceUnavailable):
		slog.Error("Market data source unavailable", "ticker", ticker, "error", err)
		h.observe(false, observability.ErrorCodeSourceUnavailable, start)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "market data source unavailable"})

	case errors.Is(err, analytics.ErrInsufficientData):
		slog.Warn("Insufficient data for metrics", "ticker", ticker, "error", err)
		h.observe(false, observability.ErrorCodeValidation, start)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		slog.Error("Calculation failed", "ticker", ticker, "error", err)
		h.observe(false, observability.ErrorCodeInternal, start)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *CalculationHandler) observe(success bool, code observability.ErrorCode, start time.Time) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.RecordRequest(observability.EndpointCalculations, success)
	h.Metrics.RecordDuration(observability.EndpointCalculations, time.Since(start).Seconds())
	if !success {
		h.Metrics.RecordError(observability.EndpointCalculations, code)
	}
}
