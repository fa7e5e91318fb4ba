// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/daterange"
)

// --- Yahoo Finance chart API structs ---

type yahooChartResponse struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *yahooError   `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooResult struct {
	Meta struct {
		Currency string `json:"currency"`
		Symbol   string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		// Pointer slices: the chart API reports missing observations as
		// null, which must not decode to 0.0.
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (p *Provider) fetchOne(ctx context.Context, ticker string, window daterange.Window) ([]datatypes.Candle, error) {
	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history",
		p.baseURL, ticker, window.Start.Unix(), window.End.Add(24*time.Hour).Unix(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	// Unknown symbols come back as 404; that is an empty series for the
	// caller, not a provider outage.
	if resp.StatusCode == http.StatusNotFound {
		slog.Info("No chart data for ticker", "ticker", ticker)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: chart API returned status %s", ErrSourceUnavailable, resp.Status)
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("%w: failed to decode chart JSON: %v", ErrSourceUnavailable, err)
	}

	if chart.Chart.Error != nil {
		slog.Warn("Chart API reported an error for ticker",
			"ticker", ticker, "code", chart.Chart.Error.Code)
		return nil, nil
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	res := chart.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := res.Indicators.Quote[0]

	candles := make([]datatypes.Candle, 0, len(res.Timestamp))
	dropped := 0
	for i, ts := range res.Timestamp {
		if len(quote.Open) <= i || len(quote.High) <= i || len(quote.Low) <= i ||
			len(quote.Close) <= i || len(quote.Volume) <= i {
			continue
		}
		// Null price slots mark untraded or unreported days; a 0.0 close
		// would corrupt every return computed from the series.
		if quote.Open[i] == nil || quote.High[i] == nil ||
			quote.Low[i] == nil || quote.Close[i] == nil {
			dropped++
			continue
		}
		var volume float64
		if quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		candles = append(candles, datatypes.Candle{
			Ticker:    ticker,
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      *quote.Open[i],
			High:      *quote.High[i],
			Low:       *quote.Low[i],
			Close:     *quote.Close[i],
			Volume:    volume,
		})
	}
	if dropped > 0 {
		slog.Info("Dropped rows with missing prices", "ticker", ticker, "rows", dropped)
	}

	slog.Info("Fetched candle series", "ticker", ticker, "rows", len(candles),
		"start", window.StartString(), "end", window.EndString())
	return candles, nil
}
