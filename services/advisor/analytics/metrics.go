// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analytics computes risk, annualized volatility, and annualized
// return from close-price series.
//
// All functions are pure and safe for concurrent use.
package analytics

import (
	"errors"
	"fmt"
	"math"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
)

// TradingDaysPerYear is the annualization factor for daily statistics.
const TradingDaysPerYear = 252

// ErrInsufficientData is returned when a series has fewer than 2 price
// points: daily returns, and therefore mean and standard deviation, are
// undefined. Matched with errors.Is.
var ErrInsufficientData = errors.New("insufficient data: need at least 2 price points")

// DailyReturns computes simple daily returns r[i] = close[i]/close[i-1] - 1.
// The first price contributes no return, so the result has length n-1.
func DailyReturns(closes []float64) ([]float64, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrInsufficientData, len(closes))
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns, nil
}

// ComputeMetrics derives the full metric set for one ticker from its
// ordered close prices.
//
// Volatility is the sample-population standard deviation of daily returns
// scaled by sqrt(252); annualized return is their mean scaled by 252. Risk
// aliases volatility by design. A constant price series yields exactly zero
// volatility and return, which is a valid result, not an error.
func ComputeMetrics(ticker string, closes []float64) (datatypes.MetricSet, error) {
	returns, err := DailyReturns(closes)
	if err != nil {
		return datatypes.MetricSet{}, err
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	volatility := math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear)

	return datatypes.MetricSet{
		Ticker:           ticker,
		Risk:             volatility,
		Volatility:       volatility,
		AnnualizedReturn: mean * TradingDaysPerYear,
	}, nil
}

// ComputeMetricsForSeries processes each ticker's close series independently.
//
// One ticker with insufficient data does not abort the others: the result
// map holds every ticker that computed successfully, and the second return
// value maps each failed ticker to its error.
func ComputeMetricsForSeries(series map[string][]float64) (map[string]datatypes.MetricSet, map[string]error) {
	results := make(map[string]datatypes.MetricSet, len(series))
	failed := make(map[string]error)
	for ticker, closes := range series {
		m, err := ComputeMetrics(ticker, closes)
		if err != nil {
			failed[ticker] = err
			continue
		}
		results[ticker] = m
	}
	return results, failed
}
