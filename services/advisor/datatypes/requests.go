// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// QueryRequest is the body of POST /v1/query.
//
// UserId and SessionId may be blank; the agent manager then mints fresh
// identifiers and a new session starts silently.
type QueryRequest struct {
	Query       string `json:"query" binding:"required"`
	UserId      string `json:"user_id"`
	SessionId   string `json:"session_id"`
	AssetTicker string `json:"asset_ticker"`
}

// QueryResponse is the body returned by POST /v1/query.
type QueryResponse struct {
	Answer    string `json:"answer"`
	UserId    string `json:"user_id"`
	SessionId string `json:"session_id"`
}

// CalculationRequest is the body of POST /perform_calculations.
type CalculationRequest struct {
	Ticker        string `json:"ticker" binding:"required"`
	StartDate     string `json:"start_date"` // optional, YYYY-MM-DD
	EndDate       string `json:"end_date"`   // optional, YYYY-MM-DD
	StoreRaw      bool   `json:"store_raw"`
	StoreFeatures bool   `json:"store_features"`
}

// CalculationResponse is the body returned by POST /perform_calculations.
// Warnings carries non-fatal publish failures; the calculation itself
// succeeded whenever this is returned.
type CalculationResponse struct {
	Ticker       string    `json:"ticker"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	Calculations MetricSet `json:"calculations"`
	Warnings     []string  `json:"warnings,omitempty"`
}
