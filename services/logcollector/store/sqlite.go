// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store persists forwarded log records in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AleutianAI/AleutianAdvisor/pkg/logging"
	_ "modernc.org/sqlite"
)

// LogStore persists log records to a SQLite database.
type LogStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewLogStore opens (or creates) the SQLite database and runs migrations.
// Use ":memory:" for an ephemeral store.
func NewLogStore(dbPath string) (*LogStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The modernc driver needs a single connection for in-memory databases,
	// and the store serializes writes anyway.
	db.SetMaxOpenConns(1)

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &LogStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("Log store opened", "path", dbPath)
	return s, nil
}

func (s *LogStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS logs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			logger_name TEXT,
			log_level   TEXT,
			message     TEXT,
			filename    TEXT,
			line_no     INTEGER,
			created     REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_created ON logs(created)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_level ON logs(log_level)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Insert stores one log record.
func (s *LogStore) Insert(entry logging.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO logs
		(logger_name, log_level, message, filename, line_no, created)
		VALUES (?,?,?,?,?,?)`,
		entry.LoggerName, entry.LogLevel, entry.Message,
		entry.Filename, entry.LineNo, entry.Created,
	)
	return err
}

// Query returns stored records, newest first. An empty level matches all
// levels; limit defaults to 100; skip offsets into the result for paging.
func (s *LogStore) Query(level string, limit, skip int) ([]logging.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}

	var rows *sql.Rows
	var err error
	if level == "" {
		rows, err = s.db.Query(`SELECT logger_name, log_level, message, filename, line_no, created
			FROM logs ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`, limit, skip)
	} else {
		rows, err = s.db.Query(`SELECT logger_name, log_level, message, filename, line_no, created
			FROM logs WHERE log_level = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`,
			level, limit, skip)
	}
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []logging.LogEntry
	for rows.Next() {
		var e logging.LogEntry
		if err := rows.Scan(&e.LoggerName, &e.LogLevel, &e.Message,
			&e.Filename, &e.LineNo, &e.Created); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteAll removes every stored record and reports how many were removed.
func (s *LogStore) DeleteAll() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`DELETE FROM logs`)
	if err != nil {
		return 0, fmt.Errorf("delete logs: %w", err)
	}
	return result.RowsAffected()
}

// Close releases the underlying database.
func (s *LogStore) Close() error {
	slog.Info("Closing log store")
	return s.db.Close()
}
