// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the wire and value types shared across the
// advisor service: candles, computed metric sets, and the record shapes
// accepted by the datastore service.
package datatypes

import (
	"encoding/json"
	"time"
)

// Candle is one OHLCV observation for one ticker at one timestamp.
// Created by the market data provider and never mutated afterwards.
type Candle struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// MetricSet holds the computed risk/volatility/return triple for one ticker.
//
// Risk is intentionally the same number as Volatility. The product treats
// them as aliases; do not substitute a distinct risk model here without a
// product decision.
type MetricSet struct {
	Ticker           string  `json:"ticker"`
	Risk             float64 `json:"risk"`
	Volatility       float64 `json:"volatility"`
	AnnualizedReturn float64 `json:"annualized_return"`
}

// String renders the metric set as the compact JSON payload stored in
// feature records and handed to the reasoning model.
func (m MetricSet) String() string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// MainData is the raw-candle record shape accepted by the datastore's
// POST /store_data endpoint.
type MainData struct {
	Ticker   string    `json:"ticker" binding:"required"`
	DateTime time.Time `json:"date_time" binding:"required"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// MainDataFromCandle converts a provider candle into the datastore record
// shape.
func MainDataFromCandle(c Candle) MainData {
	return MainData{
		Ticker:   c.Ticker,
		DateTime: c.Timestamp,
		Open:     c.Open,
		High:     c.High,
		Low:      c.Low,
		Close:    c.Close,
		Volume:   c.Volume,
	}
}

// FeatureData is the per-feature record shape accepted by the datastore's
// POST /store_features endpoint. One record per named feature value over a
// date window.
type FeatureData struct {
	Ticker    string  `json:"ticker" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	StartDate string  `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string  `json:"end_date" binding:"required"`   // YYYY-MM-DD
	Value     float64 `json:"value"`
}

// FeatureRecord is a derived analytic artifact pushed to the vector index.
// Identity is the ID; records are created at publish time and never updated.
type FeatureRecord struct {
	ID      string `json:"id"`
	Ticker  string `json:"ticker"`
	Payload string `json:"text"`
}
