// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package publisher fans computed artifacts out to the datastore service:
// raw candle rows to the persistence endpoints and computed feature sets to
// the feature and vector indexes.
//
// Both operations are attempt-once. Retries, if any, belong to the
// transport; this layer's contract is to report the outcome truthfully,
// row by row.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/daterange"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
)

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Publisher forwards artifacts to the datastore service over HTTP.
type Publisher struct {
	client  HTTPClient
	baseURL string
	now     func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(p *Publisher) { p.client = c }
}

// WithClock replaces the record-id clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// New creates a Publisher against the datastore service at baseURL.
func New(baseURL string, opts ...Option) *Publisher {
	p := &Publisher{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RawResult summarizes a PublishRaw call: how many rows landed and which
// rows failed. Failures are warnings, not fatal to the batch.
type RawResult struct {
	Succeeded int
	Failures  []*RowPublishError
}

// Warnings renders the per-row failures as client-facing strings.
func (r RawResult) Warnings() []string {
	warnings := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		warnings = append(warnings, f.Error())
	}
	return warnings
}

// PublishRaw sends one MainData record per candle to the datastore's
// POST /store_data endpoint.
//
// Rows are processed independently: a malformed or rejected row is recorded
// as a RowPublishError carrying the row's ticker and timestamp, without
// discarding rows already published or aborting the remainder.
func (p *Publisher) PublishRaw(ctx context.Context, candles []datatypes.Candle) RawResult {
	var result RawResult
	for _, candle := range candles {
		if err := p.publishRow(ctx, candle); err != nil {
			result.Failures = append(result.Failures, &RowPublishError{
				Ticker:    candle.Ticker,
				Timestamp: candle.Timestamp,
				Err:       err,
			})
			continue
		}
		result.Succeeded++
	}
	if len(result.Failures) > 0 {
		slog.Warn("Raw publish completed with row failures",
			"succeeded", result.Succeeded, "failed", len(result.Failures))
	} else {
		slog.Info("Raw publish complete", "rows", result.Succeeded)
	}
	return result
}

func (p *Publisher) publishRow(ctx context.Context, candle datatypes.Candle) error {
	if candle.Ticker == "" {
		return fmt.Errorf("row has no ticker")
	}
	if candle.Timestamp.IsZero() {
		return fmt.Errorf("row has no timestamp")
	}
	return p.post(ctx, "/store_data", datatypes.MainDataFromCandle(candle))
}

// PublishFeatures forwards one computed metric set: the individual feature
// values go to POST /store_features, and a FeatureRecord with the
// stringified payload goes to the vector index via POST /store.
//
// The record id is ticker + "_features_" + the current UTC timestamp in
// ISO 8601, so repeated publishes for the same ticker create new records.
// Any failure is reported as a FeaturePublishError; raw-row publish outcome
// is unaffected either way.
func (p *Publisher) PublishFeatures(ctx context.Context, metrics datatypes.MetricSet, window daterange.Window) error {
	recordID := fmt.Sprintf("%s_features_%s",
		metrics.Ticker, p.now().UTC().Format(time.RFC3339))

	features := []datatypes.FeatureData{
		{Ticker: metrics.Ticker, Name: "risk", StartDate: window.StartString(), EndDate: window.EndString(), Value: metrics.Risk},
		{Ticker: metrics.Ticker, Name: "volatility", StartDate: window.StartString(), EndDate: window.EndString(), Value: metrics.Volatility},
		{Ticker: metrics.Ticker, Name: "annualized_return", StartDate: window.StartString(), EndDate: window.EndString(), Value: metrics.AnnualizedReturn},
	}
	for _, feature := range features {
		if err := p.post(ctx, "/store_features", feature); err != nil {
			return &FeaturePublishError{Ticker: metrics.Ticker, RecordID: recordID, Err: err}
		}
	}

	record := datatypes.FeatureRecord{
		ID:      recordID,
		Ticker:  metrics.Ticker,
		Payload: metrics.String(),
	}
	if err := p.post(ctx, "/store", record); err != nil {
		return &FeaturePublishError{Ticker: metrics.Ticker, RecordID: recordID, Err: err}
	}

	slog.Info("Feature publish complete", "ticker", metrics.Ticker, "record_id", recordID)
	return nil
}

func (p *Publisher) post(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("datastore unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("datastore returned status %s: %s", resp.Status, string(snippet))
	}
	return nil
}
