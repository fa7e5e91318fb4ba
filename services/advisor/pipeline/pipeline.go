// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline drives the calculation path end to end: resolve the date
// window, fetch candles, compute metrics, and optionally fan artifacts out
// to the datastore.
//
// Both the HTTP handler and the agent's tools run calculations through this
// package, so metric sets cross those boundaries as structs rather than
// re-parsed strings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/AleutianAdvisor/pkg/validation"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/analytics"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/daterange"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/marketdata"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/observability"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/publisher"
)

// ErrNoData is returned when the resolved window holds no candles for the
// ticker. Maps to a client-facing not-found. Matched with errors.Is.
var ErrNoData = errors.New("no candle data for ticker in window")

// CandleFetcher is the slice of the market data provider the pipeline needs.
type CandleFetcher interface {
	FetchOne(ctx context.Context, ticker string, window daterange.Window) ([]datatypes.Candle, error)
}

// ArtifactPublisher is the slice of the publisher the pipeline needs.
type ArtifactPublisher interface {
	PublishRaw(ctx context.Context, candles []datatypes.Candle) publisher.RawResult
	PublishFeatures(ctx context.Context, metrics datatypes.MetricSet, window daterange.Window) error
}

// Pipeline wires the calculation collaborators together. Stateless and safe
// for concurrent use; concurrent identical requests fetch independently, no
// deduplication.
type Pipeline struct {
	Provider  CandleFetcher
	Publisher ArtifactPublisher
}

// Run executes one calculation request.
//
// Publish failures never fail the request: they are accumulated into the
// response's Warnings. Date, fetch, and compute failures abort with their
// typed errors (daterange.ErrInvalidDateFormat, marketdata.ErrSourceUnavailable,
// ErrNoData, analytics.ErrInsufficientData).
func (p *Pipeline) Run(ctx context.Context, req datatypes.CalculationRequest) (datatypes.CalculationResponse, error) {
	var resp datatypes.CalculationResponse

	ticker, err := validation.SanitizeTicker(req.Ticker)
	if err != nil {
		return resp, fmt.Errorf("invalid ticker: %w", err)
	}

	window, err := daterange.Resolve(req.StartDate, req.EndDate)
	if err != nil {
		return resp, err
	}

	candles, err := p.Provider.FetchOne(ctx, ticker, window)
	if err != nil {
		return resp, err
	}
	if len(candles) == 0 {
		return resp, fmt.Errorf("%w: %s [%s, %s]", ErrNoData,
			ticker, window.StartString(), window.EndString())
	}

	var warnings []string
	if req.StoreRaw {
		raw := p.Publisher.PublishRaw(ctx, candles)
		warnings = append(warnings, raw.Warnings()...)
		if m := observability.DefaultMetrics; m != nil {
			m.RecordPublishWarnings("raw", len(raw.Failures))
		}
	}

	metrics, err := analytics.ComputeMetrics(ticker, marketdata.Closes(candles))
	if err != nil {
		return resp, err
	}

	if req.StoreFeatures {
		if err := p.Publisher.PublishFeatures(ctx, metrics, window); err != nil {
			slog.Warn("Feature publish failed", "ticker", ticker, "error", err)
			warnings = append(warnings, err.Error())
			if m := observability.DefaultMetrics; m != nil {
				m.RecordPublishWarnings("features", 1)
			}
		}
	}

	return datatypes.CalculationResponse{
		Ticker:       ticker,
		StartDate:    window.StartString(),
		EndDate:      window.EndString(),
		Calculations: metrics,
		Warnings:     warnings,
	}, nil
}
