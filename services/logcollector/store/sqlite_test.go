// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the SQLite log store

package store

import (
	"testing"

	"github.com/AleutianAI/AleutianAdvisor/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *LogStore {
	t.Helper()
	s, err := NewLogStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(level, message string, created float64) logging.LogEntry {
	return logging.LogEntry{
		LoggerName: "advisor-service",
		LogLevel:   level,
		Message:    message,
		Filename:   "pipeline.go",
		LineNo:     42,
		Created:    created,
	}
}

func TestLogStore_InsertAndQuery(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Insert(entry("INFO", "first", 1000)))
	require.NoError(t, s.Insert(entry("ERROR", "second", 2000)))

	logs, err := s.Query("", 0, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].Message, "newest record comes first")
	assert.Equal(t, "first", logs[1].Message)
	assert.Equal(t, "advisor-service", logs[0].LoggerName)
	assert.Equal(t, 42, logs[0].LineNo)
}

func TestLogStore_LevelFilter(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Insert(entry("INFO", "fine", 1000)))
	require.NoError(t, s.Insert(entry("ERROR", "broken", 2000)))
	require.NoError(t, s.Insert(entry("ERROR", "still broken", 3000)))

	logs, err := s.Query("ERROR", 0, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, "ERROR", l.LogLevel)
	}
}

func TestLogStore_LimitAndSkip(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Insert(entry("INFO", "msg", float64(1000+i))))
	}

	page, err := s.Query("", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.Query("", 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestLogStore_DeleteAll(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Insert(entry("INFO", "one", 1000)))
	require.NoError(t, s.Insert(entry("INFO", "two", 2000)))

	deleted, err := s.DeleteAll()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	logs, err := s.Query("", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
