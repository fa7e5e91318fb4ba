// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRemoteHandler_ShipsEntries(t *testing.T) {
	received := make(chan LogEntry, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logs" {
			t.Errorf("expected POST /logs, got %s", r.URL.Path)
		}
		var entry LogEntry
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			t.Errorf("failed to decode entry: %v", err)
		}
		received <- entry
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewRemoteHandler(srv.URL, "advisor-test")
	logger := slog.New(h)
	logger.Info("fetch complete", "ticker", "AAPL")

	select {
	case entry := <-received:
		if entry.LoggerName != "advisor-test" {
			t.Errorf("LoggerName = %q, want advisor-test", entry.LoggerName)
		}
		if entry.LogLevel != "INFO" {
			t.Errorf("LogLevel = %q, want INFO", entry.LogLevel)
		}
		if entry.Created <= 0 {
			t.Errorf("Created = %f, want positive timestamp", entry.Created)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("log entry never arrived at collector")
	}
}

func TestRemoteHandler_DropsOnUnreachableCollector(t *testing.T) {
	h := NewRemoteHandler("http://127.0.0.1:1", "advisor-test")
	var record slog.Record
	record.Message = "this must not error"
	record.Level = slog.LevelError
	record.Time = time.Now()
	if err := h.Handle(context.Background(), record); err != nil {
		t.Errorf("Handle returned error for unreachable collector: %v", err)
	}
}

func TestRemoteHandler_FiltersDebug(t *testing.T) {
	h := NewRemoteHandler("http://localhost:9", "advisor-test")
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug records should not be shipped remotely")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn records should be shipped remotely")
	}
}

func TestTeeHandler_FansOut(t *testing.T) {
	count := 0
	counter := &countingHandler{count: &count}
	tee := NewTeeHandler(counter, counter)

	logger := slog.New(tee)
	logger.Info("hello")

	if count != 2 {
		t.Errorf("expected 2 deliveries, got %d", count)
	}
}

type countingHandler struct {
	count *int
}

func (c *countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (c *countingHandler) Handle(context.Context, slog.Record) error {
	*c.count++
	return nil
}
func (c *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c *countingHandler) WithGroup(string) slog.Handler      { return c }
