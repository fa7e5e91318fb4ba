// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for Aleutian Advisor services.
//
// The package is built on Go's standard library slog package. Each service
// installs a JSON handler on stdout at startup; when a remote log collector
// is configured (LOG_URL), log records are additionally shipped to it via
// the RemoteHandler in remote.go.
//
// # Basic Usage
//
//	logging.Setup("advisor")
//	slog.Info("request started", "ticker", ticker)
//
// # Thread Safety
//
// The returned logger is safe for concurrent use; slog handlers are
// thread-safe by contract.
package logging

import (
	"log/slog"
	"os"
)

// Setup installs the default slog logger for a service.
//
// Output is a JSON handler on stdout. If the LOG_URL environment variable
// is set, records at Info and above are also forwarded to the remote log
// collector; forwarding failures are dropped silently so that logging can
// never take the service down.
//
// Returns the installed logger for callers that want to carry it explicitly.
func Setup(service string) *slog.Logger {
	local := slog.NewJSONHandler(os.Stdout, nil)

	var handler slog.Handler = local
	if logURL := os.Getenv("LOG_URL"); logURL != "" {
		handler = NewTeeHandler(local, NewRemoteHandler(logURL, service))
	}

	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}
