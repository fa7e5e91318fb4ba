// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the InfluxDB candle store

package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// --- Mock InfluxDB WriteAPI ---

type MockWriteAPI struct {
	WritePointFunc func(ctx context.Context, point ...*write.Point) error
	WrittenPoints  []*write.Point
}

func (m *MockWriteAPI) WritePoint(ctx context.Context, point ...*write.Point) error {
	m.WrittenPoints = append(m.WrittenPoints, point...)
	if m.WritePointFunc != nil {
		return m.WritePointFunc(ctx, point...)
	}
	return nil
}

func (m *MockWriteAPI) WriteRecord(ctx context.Context, line ...string) error {
	return nil
}

func (m *MockWriteAPI) EnableBatching()                 {}
func (m *MockWriteAPI) Flush(ctx context.Context) error { return nil }

// --- Mock InfluxDB QueryAPI ---

type MockQueryAPI struct {
	QueryFunc   func(ctx context.Context, query string) (*api.QueryTableResult, error)
	LastQuery   string
	QueryCalled bool
}

func (m *MockQueryAPI) Query(ctx context.Context, q string) (*api.QueryTableResult, error) {
	m.QueryCalled = true
	m.LastQuery = q
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, q)
	}
	return nil, nil
}

func (m *MockQueryAPI) QueryRaw(ctx context.Context, query string, dialect *domain.Dialect) (string, error) {
	return "", nil
}

func (m *MockQueryAPI) QueryRawWithParams(ctx context.Context, query string, dialect *domain.Dialect, params interface{}) (string, error) {
	return "", nil
}

func (m *MockQueryAPI) QueryWithParams(ctx context.Context, query string, params interface{}) (*api.QueryTableResult, error) {
	return nil, nil
}

// --- StoreCandle Tests ---

func TestStoreCandle_WritesPoint(t *testing.T) {
	mockWrite := &MockWriteAPI{}
	s := NewCandleStore(mockWrite, &MockQueryAPI{}, "financial-data")

	id, err := s.StoreCandle(context.Background(), datatypes.MainData{
		Ticker:   "aapl",
		DateTime: time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC),
		Open:     100, High: 105, Low: 99, Close: 102, Volume: 1000,
	})
	if err != nil {
		t.Fatalf("StoreCandle failed: %v", err)
	}
	if id != "AAPL_2023-05-01T00:00:00Z" {
		t.Errorf("Expected point identity from sanitized ticker and timestamp, got %q", id)
	}
	if len(mockWrite.WrittenPoints) != 1 {
		t.Fatalf("Expected 1 point written, got %d", len(mockWrite.WrittenPoints))
	}

	p := mockWrite.WrittenPoints[0]
	if p.Name() != "stock_prices" {
		t.Errorf("Expected measurement 'stock_prices', got %q", p.Name())
	}
	var tickerTag string
	for _, tag := range p.TagList() {
		if tag.Key == "ticker" {
			tickerTag = tag.Value
		}
	}
	if tickerTag != "AAPL" {
		t.Errorf("Expected sanitized ticker tag 'AAPL', got %q", tickerTag)
	}
}

func TestStoreCandle_RejectsInvalidTicker(t *testing.T) {
	mockWrite := &MockWriteAPI{}
	s := NewCandleStore(mockWrite, &MockQueryAPI{}, "financial-data")

	_, err := s.StoreCandle(context.Background(), datatypes.MainData{
		Ticker:   `AAPL") |> drop()`,
		DateTime: time.Now(),
	})
	if err == nil {
		t.Fatal("Expected error for malicious ticker")
	}
	if len(mockWrite.WrittenPoints) != 0 {
		t.Error("No point may be written for a rejected ticker")
	}
}

func TestStoreCandle_RejectsZeroTime(t *testing.T) {
	s := NewCandleStore(&MockWriteAPI{}, &MockQueryAPI{}, "financial-data")

	_, err := s.StoreCandle(context.Background(), datatypes.MainData{Ticker: "AAPL"})
	if err == nil {
		t.Fatal("Expected error for zero date_time")
	}
}

func TestStoreCandle_PropagatesWriteError(t *testing.T) {
	mockWrite := &MockWriteAPI{
		WritePointFunc: func(context.Context, ...*write.Point) error {
			return errors.New("bucket not found")
		},
	}
	s := NewCandleStore(mockWrite, &MockQueryAPI{}, "financial-data")

	_, err := s.StoreCandle(context.Background(), datatypes.MainData{
		Ticker: "AAPL", DateTime: time.Now(),
	})
	if err == nil || !strings.Contains(err.Error(), "bucket not found") {
		t.Fatalf("Expected wrapped write error, got %v", err)
	}
}

// --- LoadCandles Tests ---

func TestLoadCandles_BuildsSanitizedQuery(t *testing.T) {
	mockQuery := &MockQueryAPI{}
	s := NewCandleStore(&MockWriteAPI{}, mockQuery, "financial-data")

	_, err := s.LoadCandles(context.Background(), "aapl", 30)
	if err != nil {
		t.Fatalf("LoadCandles failed: %v", err)
	}
	if !mockQuery.QueryCalled {
		t.Fatal("Expected a query to be issued")
	}
	if !strings.Contains(mockQuery.LastQuery, `r.ticker == "AAPL"`) {
		t.Errorf("Query must filter on the sanitized ticker, got: %s", mockQuery.LastQuery)
	}
	if !strings.Contains(mockQuery.LastQuery, `from(bucket: "financial-data")`) {
		t.Errorf("Query must target the configured bucket, got: %s", mockQuery.LastQuery)
	}
}

func TestLoadCandles_RejectsInvalidTicker(t *testing.T) {
	mockQuery := &MockQueryAPI{}
	s := NewCandleStore(&MockWriteAPI{}, mockQuery, "financial-data")

	_, err := s.LoadCandles(context.Background(), `X") |> drop()`, 30)
	if err == nil {
		t.Fatal("Expected error for malicious ticker")
	}
	if mockQuery.QueryCalled {
		t.Error("No query may be issued for a rejected ticker")
	}
}

func TestLoadCandles_NilResultIsEmpty(t *testing.T) {
	s := NewCandleStore(&MockWriteAPI{}, &MockQueryAPI{}, "financial-data")

	rows, err := s.LoadCandles(context.Background(), "AAPL", 30)
	if err != nil {
		t.Fatalf("LoadCandles failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(rows))
	}
}

func TestLoadCandles_PropagatesQueryError(t *testing.T) {
	mockQuery := &MockQueryAPI{
		QueryFunc: func(context.Context, string) (*api.QueryTableResult, error) {
			return nil, errors.New("influx unreachable")
		},
	}
	s := NewCandleStore(&MockWriteAPI{}, mockQuery, "financial-data")

	_, err := s.LoadCandles(context.Background(), "AAPL", 30)
	if err == nil || !strings.Contains(err.Error(), "influx unreachable") {
		t.Fatalf("Expected wrapped query error, got %v", err)
	}
}
