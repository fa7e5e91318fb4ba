// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/AleutianAI/AleutianAdvisor/pkg/logging"
	"github.com/AleutianAI/AleutianAdvisor/services/logcollector/store"
	"github.com/gin-gonic/gin"
)

// Server holds the log store dependency.
type Server struct {
	Store *store.LogStore
}

// Ingest handles POST /logs, one record per request. Records are accepted
// permissively; a collector that rejects logs loses them.
func (s *Server) Ingest(c *gin.Context) {
	var entry logging.LogEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := s.Store.Insert(entry); err != nil {
		slog.Error("Failed to insert log record", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// List handles GET /logs with optional level, limit, and skip queries.
func (s *Server) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	skip := 0
	if raw := c.Query("skip"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "skip must be a non-negative integer"})
			return
		}
		skip = parsed
	}

	entries, err := s.Store.Query(c.Query("level"), limit, skip)
	if err != nil {
		slog.Error("Failed to query logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query logs"})
		return
	}
	if entries == nil {
		entries = []logging.LogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
}

// Clear handles DELETE /logs.
func (s *Server) Clear(c *gin.Context) {
	deleted, err := s.Store.DeleteAll()
	if err != nil {
		slog.Error("Failed to clear logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "deleted": deleted})
}

// SetupRoutes registers all logcollector endpoints.
func (s *Server) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "aleutian-logcollector"})
	})
	router.POST("/logs", s.Ingest)
	router.GET("/logs", s.List)
	router.DELETE("/logs", s.Clear)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	dbPath := os.Getenv("LOG_DB_PATH")
	if dbPath == "" {
		dbPath = "/data/logs.db"
		slog.Warn("LOG_DB_PATH is not set, defaulting", "path", dbPath)
	}

	logStore, err := store.NewLogStore(dbPath)
	if err != nil {
		slog.Error("Failed to open log store", "error", err)
		os.Exit(1)
	}
	defer logStore.Close()

	server := &Server{Store: logStore}
	router := gin.Default()
	server.SetupRoutes(router)

	port := os.Getenv("LOGCOLLECTOR_PORT")
	if port == "" {
		port = "12330"
	}

	slog.Info("Starting log collector", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
