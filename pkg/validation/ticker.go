// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for user-supplied
// identifiers that end up in database queries or upstream API calls.
//
// Every ticker symbol received over HTTP passes through here before it is
// interpolated into a Flux query or a market-data URL, which prevents
// injection through the symbol field.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidTicker is wrapped by all ticker validation failures so callers
// can classify them with errors.Is.
var ErrInvalidTicker = errors.New("invalid ticker")

// tickerPattern matches valid ticker symbols.
// Allows: uppercase letters, digits, dots (BRK.A), hyphens (BF-B, BTC-USD)
// Max length: 10 characters (covers most exchanges)
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,9}$`)

// ValidateTicker checks that a ticker symbol is safe to embed in queries
// and upstream request URLs.
//
// Valid tickers are 1-10 characters of uppercase letters, digits, dots,
// or hyphens. Returns an error describing the constraint otherwise.
func ValidateTicker(ticker string) error {
	if ticker == "" {
		return fmt.Errorf("%w: ticker cannot be empty", ErrInvalidTicker)
	}
	if !tickerPattern.MatchString(ticker) {
		return fmt.Errorf("%w: %q (must be 1-10 uppercase alphanumeric chars, dots, or hyphens)", ErrInvalidTicker, ticker)
	}
	return nil
}

// ValidateTickers validates multiple ticker symbols.
// Returns an error listing all invalid tickers if any fail validation.
func ValidateTickers(tickers []string) error {
	var invalid []string
	for _, t := range tickers {
		if err := ValidateTicker(t); err != nil {
			invalid = append(invalid, t)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid tickers: %v", invalid)
	}
	return nil
}

// SanitizeTicker normalizes and validates a ticker symbol.
// Returns the uppercase, trimmed ticker if valid, or an error if invalid.
func SanitizeTicker(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if err := ValidateTicker(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
