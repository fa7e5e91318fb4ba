// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store implements the datastore's three persistence backends:
// candle rows in InfluxDB, computed features in Badger, and document
// payloads in Weaviate.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/pkg/validation"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

const candleMeasurement = "stock_prices"

// CandleStore persists OHLCV rows in InfluxDB, one point per candle,
// tagged by ticker.
type CandleStore struct {
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
}

// NewCandleStore wraps the given InfluxDB APIs.
func NewCandleStore(writeAPI api.WriteAPIBlocking, queryAPI api.QueryAPI, bucket string) *CandleStore {
	return &CandleStore{writeAPI: writeAPI, queryAPI: queryAPI, bucket: bucket}
}

// StoreCandle writes one candle row and returns the point identity
// (ticker plus UTC timestamp).
func (s *CandleStore) StoreCandle(ctx context.Context, row datatypes.MainData) (string, error) {
	ticker, err := validation.SanitizeTicker(row.Ticker)
	if err != nil {
		return "", err
	}
	if row.DateTime.IsZero() {
		return "", fmt.Errorf("row has no date_time")
	}

	p := influxdb2.NewPoint(
		candleMeasurement,
		map[string]string{"ticker": ticker},
		map[string]interface{}{
			"open":   row.Open,
			"high":   row.High,
			"low":    row.Low,
			"close":  row.Close,
			"volume": row.Volume,
		},
		row.DateTime,
	)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return "", fmt.Errorf("failed to write candle: %w", err)
	}
	return fmt.Sprintf("%s_%s", ticker, row.DateTime.UTC().Format(time.RFC3339)), nil
}

// LoadCandles returns up to days of rows for ticker, oldest first.
// The ticker must already be sanitized before it is embedded in the Flux
// query.
func (s *CandleStore) LoadCandles(ctx context.Context, ticker string, days int) ([]datatypes.MainData, error) {
	ticker, err := validation.SanitizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 730
	}

	query := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -%dd)
		  |> filter(fn: (r) => r._measurement == "%s")
		  |> filter(fn: (r) => r.ticker == "%s")
		  |> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
		  |> sort(columns: ["_time"], desc: false)
	`, s.bucket, days+10, candleMeasurement, ticker)

	result, err := s.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("candle query failed: %w", err)
	}
	if result == nil {
		slog.Warn("Candle query returned nil result", "ticker", ticker)
		return nil, nil
	}

	var rows []datatypes.MainData
	for result.Next() {
		record := result.Record()
		row := datatypes.MainData{
			Ticker:   ticker,
			DateTime: record.Time().UTC(),
		}
		if val, ok := record.ValueByKey("open").(float64); ok {
			row.Open = val
		}
		if val, ok := record.ValueByKey("high").(float64); ok {
			row.High = val
		}
		if val, ok := record.ValueByKey("low").(float64); ok {
			row.Low = val
		}
		if val, ok := record.ValueByKey("close").(float64); ok {
			row.Close = val
		}
		if val, ok := record.ValueByKey("volume").(float64); ok {
			row.Volume = val
		}
		rows = append(rows, row)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("candle result error: %w", result.Err())
	}

	slog.Info("Candle query complete", "ticker", ticker, "rows", len(rows))
	return rows, nil
}
