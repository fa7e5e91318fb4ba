// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"
)

// LogEntry is the wire format accepted by the log collector's POST /logs
// endpoint.
type LogEntry struct {
	LoggerName string  `json:"loggerName"`
	LogLevel   string  `json:"logLevel"`
	Message    string  `json:"message"`
	Filename   string  `json:"filename"`
	LineNo     int     `json:"lineNo"`
	Created    float64 `json:"created"` // Unix timestamp with fractional seconds
}

// RemoteHandler is an slog.Handler that ships log records to a remote log
// collector via HTTP POST.
//
// Shipping is attempt-once with a short timeout. Any failure is swallowed:
// a broken collector must never block or crash the service, and logging
// about a logging failure would loop.
type RemoteHandler struct {
	endpoint string
	logger   string
	minLevel slog.Level
	client   *http.Client
	attrs    []slog.Attr
}

// NewRemoteHandler creates a handler that POSTs records at Info and above
// to endpoint + "/logs". The logger name identifies the originating service
// in the collector.
func NewRemoteHandler(endpoint, logger string) *RemoteHandler {
	return &RemoteHandler{
		endpoint: endpoint,
		logger:   logger,
		minLevel: slog.LevelInfo,
		client:   &http.Client{Timeout: 2 * time.Second},
	}
}

func (h *RemoteHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel
}

func (h *RemoteHandler) Handle(_ context.Context, record slog.Record) error {
	msg := record.Message
	record.Attrs(func(a slog.Attr) bool {
		msg += " " + a.String()
		return true
	})
	for _, a := range h.attrs {
		msg += " " + a.String()
	}

	var file string
	var line int
	if record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		frame, _ := frames.Next()
		file, line = frame.File, frame.Line
	}

	entry := LogEntry{
		LoggerName: h.logger,
		LogLevel:   record.Level.String(),
		Message:    msg,
		Filename:   file,
		LineNo:     line,
		Created:    float64(record.Time.UnixNano()) / 1e9,
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return nil
	}

	resp, err := h.client.Post(h.endpoint+"/logs", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	_ = resp.Body.Close()
	return nil
}

func (h *RemoteHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *RemoteHandler) WithGroup(_ string) slog.Handler {
	// Groups are flattened; the collector stores a single message string.
	return h
}

// TeeHandler fans a record out to several handlers. Used to pair local
// stdout logging with remote shipping.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler wraps the given handlers into one.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

func (t *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, h := range t.handlers {
		if h.Enabled(ctx, record.Level) {
			_ = h.Handle(ctx, record.Clone())
		}
	}
	return nil
}

func (t *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: next}
}

func (t *TeeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &TeeHandler{handlers: next}
}
