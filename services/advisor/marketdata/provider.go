// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package marketdata fetches OHLCV candle series from the upstream market
// data provider (Yahoo Finance chart API).
package marketdata

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/daterange"
)

// ErrSourceUnavailable is returned when the upstream provider cannot be
// reached or answers with a server failure. Matched with errors.Is.
var ErrSourceUnavailable = errors.New("market data source unavailable")

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider fetches candle series for one or more tickers over a resolved
// window. Safe for concurrent use; each call is an independent upstream
// request with no caching or deduplication.
type Provider struct {
	client  HTTPClient
	baseURL string
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(p *Provider) { p.client = c }
}

// WithBaseURL points the provider at a different chart API host. Used by
// tests to target an httptest server.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// NewProvider creates a Provider against the public Yahoo chart API.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://query1.finance.yahoo.com",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch retrieves the daily candle series for every ticker over the window,
// keyed by ticker. Rows are ordered by timestamp ascending.
//
// A ticker with no data in the window (or unknown to the provider) maps to
// an empty series; callers decide whether that is a not-found condition.
// Transport and provider failures return an error wrapping
// ErrSourceUnavailable.
func (p *Provider) Fetch(ctx context.Context, tickers []string, window daterange.Window) (map[string][]datatypes.Candle, error) {
	series := make(map[string][]datatypes.Candle, len(tickers))
	for _, ticker := range tickers {
		candles, err := p.fetchOne(ctx, ticker, window)
		if err != nil {
			return nil, err
		}
		series[ticker] = candles
	}
	return series, nil
}

// FetchOne is the single-ticker form of Fetch, returning one ordered series.
func (p *Provider) FetchOne(ctx context.Context, ticker string, window daterange.Window) ([]datatypes.Candle, error) {
	return p.fetchOne(ctx, ticker, window)
}

// Closes extracts the ordered close-price vector from a candle series.
func Closes(candles []datatypes.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
