// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/daterange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow(t *testing.T) daterange.Window {
	t.Helper()
	w, err := daterange.Resolve("2022-01-01", "2023-01-01")
	require.NoError(t, err)
	return w
}

func chartJSON(symbol string, timestamps []int64, closes []float64) string {
	ts, op, hi, lo, cl, vol := "", "", "", "", "", ""
	for i := range timestamps {
		if i > 0 {
			ts, op, hi, lo, cl, vol = ts+",", op+",", hi+",", lo+",", cl+",", vol+","
		}
		ts += fmt.Sprintf("%d", timestamps[i])
		op += fmt.Sprintf("%g", closes[i]-1)
		hi += fmt.Sprintf("%g", closes[i]+1)
		lo += fmt.Sprintf("%g", closes[i]-2)
		cl += fmt.Sprintf("%g", closes[i])
		vol += "1000"
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"currency":"USD","symbol":%q},
		"timestamp":[%s],
		"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],
		"error":null}}`, symbol, ts, op, hi, lo, cl, vol)
}

func TestProvider_FetchOne(t *testing.T) {
	base := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/AAPL")
		fmt.Fprint(w, chartJSON("AAPL",
			[]int64{base, base + 86400, base + 2*86400},
			[]float64{100, 110, 121}))
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	candles, err := p.FetchOne(context.Background(), "AAPL", testWindow(t))
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, "AAPL", candles[0].Ticker)
	assert.Equal(t, 100.0, candles[0].Close)
	assert.Equal(t, 121.0, candles[2].Close)
	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp), "rows must be time ordered")
	assert.Equal(t, []float64{100, 110, 121}, Closes(candles))
}

func TestProvider_Fetch_MultiTicker(t *testing.T) {
	base := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v8/finance/chart/AAPL":
			fmt.Fprint(w, chartJSON("AAPL", []int64{base, base + 86400}, []float64{100, 110}))
		case "/v8/finance/chart/MSFT":
			fmt.Fprint(w, chartJSON("MSFT", []int64{base, base + 86400}, []float64{200, 210}))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	series, err := p.Fetch(context.Background(), []string{"AAPL", "MSFT"}, testWindow(t))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 110.0, series["AAPL"][1].Close)
	assert.Equal(t, 200.0, series["MSFT"][0].Close)
}

func TestProvider_UnknownSymbolIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	candles, err := p.FetchOne(context.Background(), "ZZZZ", testWindow(t))
	require.NoError(t, err, "unknown symbol is not a provider failure")
	assert.Empty(t, candles)
}

func TestProvider_ChartErrorIsEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	candles, err := p.FetchOne(context.Background(), "GONE", testWindow(t))
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestProvider_ServerFailureIsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	_, err := p.FetchOne(context.Background(), "AAPL", testWindow(t))
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestProvider_TransportFailureIsSourceUnavailable(t *testing.T) {
	p := NewProvider(WithBaseURL("http://127.0.0.1:1"))
	_, err := p.FetchOne(context.Background(), "AAPL", testWindow(t))
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestProvider_NullPriceRowsSkipped(t *testing.T) {
	base := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The middle day is an untraded slot: every price field is null.
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"symbol":"AAPL"},
			"timestamp":[%d,%d,%d],
			"indicators":{"quote":[{"open":[99,null,109],"high":[101,null,111],"low":[98,null,108],"close":[100,null,110],"volume":[10,null,30]}]}}],
			"error":null}}`, base, base+86400, base+2*86400)
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	candles, err := p.FetchOne(context.Background(), "AAPL", testWindow(t))
	require.NoError(t, err)
	require.Len(t, candles, 2, "null-price rows must be dropped, not zeroed")
	assert.Equal(t, []float64{100, 110}, Closes(candles))
}

func TestProvider_NullVolumeKeepsRow(t *testing.T) {
	base := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"symbol":"AAPL"},
			"timestamp":[%d,%d],
			"indicators":{"quote":[{"open":[99,109],"high":[101,111],"low":[98,108],"close":[100,110],"volume":[null,30]}]}}],
			"error":null}}`, base, base+86400)
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	candles, err := p.FetchOne(context.Background(), "AAPL", testWindow(t))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 0.0, candles[0].Volume)
	assert.Equal(t, 100.0, candles[0].Close)
}

func TestProvider_RaggedIndicatorRowsSkipped(t *testing.T) {
	base := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Three timestamps but only two complete quote rows.
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"symbol":"AAPL"},
			"timestamp":[%d,%d,%d],
			"indicators":{"quote":[{"open":[1,2],"high":[1,2],"low":[1,2],"close":[100,110],"volume":[10,20]}]}}],
			"error":null}}`, base, base+86400, base+2*86400)
	}))
	defer srv.Close()

	p := NewProvider(WithBaseURL(srv.URL))
	candles, err := p.FetchOne(context.Background(), "AAPL", testWindow(t))
	require.NoError(t, err)
	assert.Len(t, candles, 2)
}
