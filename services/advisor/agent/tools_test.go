// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/daterange"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/pipeline"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/publisher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	candles []datatypes.Candle
}

func (f *stubFetcher) FetchOne(context.Context, string, daterange.Window) ([]datatypes.Candle, error) {
	return f.candles, nil
}

type stubPublisher struct {
	rawCalls     int
	featureCalls int
}

func (p *stubPublisher) PublishRaw(context.Context, []datatypes.Candle) publisher.RawResult {
	p.rawCalls++
	return publisher.RawResult{}
}

func (p *stubPublisher) PublishFeatures(context.Context, datatypes.MetricSet, daterange.Window) error {
	p.featureCalls++
	return nil
}

func testPipeline(closes ...float64) (*pipeline.Pipeline, *stubPublisher) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]datatypes.Candle, len(closes))
	for i, c := range closes {
		candles[i] = datatypes.Candle{Ticker: "AAPL", Timestamp: base.AddDate(0, 0, i), Close: c}
	}
	pub := &stubPublisher{}
	return &pipeline.Pipeline{Provider: &stubFetcher{candles: candles}, Publisher: pub}, pub
}

func TestDefaultRegistry_ComputeTool(t *testing.T) {
	p, pub := testPipeline(100, 110, 121)
	r := DefaultRegistry(p)

	result := r.Dispatch(context.Background(), "compute_asset_metrics",
		json.RawMessage(`{"ticker": "aapl"}`))

	var metrics datatypes.MetricSet
	require.NoError(t, json.Unmarshal([]byte(result), &metrics))
	assert.Equal(t, "AAPL", metrics.Ticker)
	assert.InDelta(t, 25.2, metrics.AnnualizedReturn, 1e-9)
	assert.Equal(t, metrics.Volatility, metrics.Risk)
	assert.Zero(t, pub.rawCalls, "compute tool must not persist")
	assert.Zero(t, pub.featureCalls)
}

func TestDefaultRegistry_StoreToolPersists(t *testing.T) {
	p, pub := testPipeline(100, 110, 121)
	r := DefaultRegistry(p)

	result := r.Dispatch(context.Background(), "store_asset_analysis",
		json.RawMessage(`{"ticker": "AAPL", "start_date": "2023-01-01", "end_date": "2023-06-01"}`))

	var resp datatypes.CalculationResponse
	require.NoError(t, json.Unmarshal([]byte(result), &resp))
	assert.Equal(t, "AAPL", resp.Ticker)
	assert.Equal(t, 1, pub.rawCalls)
	assert.Equal(t, 1, pub.featureCalls)
}

func TestDispatch_UnknownToolReturnsErrorPayload(t *testing.T) {
	r := NewRegistry()
	result := r.Dispatch(context.Background(), "no_such_tool", json.RawMessage(`{}`))

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(result), &payload))
	assert.Contains(t, payload["error"], "no_such_tool")
}

func TestDispatch_InvalidArgumentsReturnErrorPayload(t *testing.T) {
	p, _ := testPipeline(100, 110)
	r := DefaultRegistry(p)

	result := r.Dispatch(context.Background(), "compute_asset_metrics",
		json.RawMessage(`not json`))

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(result), &payload))
	assert.Contains(t, payload["error"], "invalid tool arguments")
}
