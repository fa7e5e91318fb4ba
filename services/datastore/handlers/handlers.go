// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the datastore's HTTP endpoints over the
// three persistence backends.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/pkg/validation"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/gin-gonic/gin"
)

// CandleStore persists and retrieves raw candle rows. Store operations
// return the identity of the stored record.
type CandleStore interface {
	StoreCandle(ctx context.Context, row datatypes.MainData) (string, error)
	LoadCandles(ctx context.Context, ticker string, days int) ([]datatypes.MainData, error)
}

// FeatureStore persists and retrieves computed feature values. Store
// operations return the identity of the stored record.
type FeatureStore interface {
	StoreFeature(f datatypes.FeatureData) (string, error)
	LoadFeatures(ticker string) ([]datatypes.FeatureData, error)
	QueryFeatures(ticker, name, start, end string) ([]datatypes.FeatureData, error)
}

// DocumentStore persists and retrieves document payloads.
type DocumentStore interface {
	StoreDocument(ctx context.Context, record datatypes.FeatureRecord) (int, error)
	LoadDocument(ctx context.Context, docID string) (datatypes.FeatureRecord, error)
}

// Server holds the backend dependencies for all endpoints.
type Server struct {
	Candles   CandleStore
	Features  FeatureStore
	Documents DocumentStore
}

// HealthCheck reports service liveness.
func (s *Server) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "aleutian-datastore"})
}

// StoreData handles POST /store_data, one candle row per request.
func (s *Server) StoreData(c *gin.Context) {
	var row datatypes.MainData
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	id, err := s.Candles.StoreCandle(c.Request.Context(), row)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidTicker) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticker", "details": err.Error()})
			return
		}
		slog.Error("Failed to store candle", "ticker", row.Ticker, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Data stored successfully", "id": id})
}

// LoadData handles GET /load_data/:ticker with an optional days query.
func (s *Server) LoadData(c *gin.Context) {
	ticker := c.Param("ticker")
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	rows, err := s.Candles.LoadCandles(c.Request.Context(), ticker, days)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidTicker) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticker", "details": err.Error()})
			return
		}
		slog.Error("Failed to load candles", "ticker", ticker, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load data"})
		return
	}
	if rows == nil {
		rows = []datatypes.MainData{}
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "data": rows, "count": len(rows)})
}

// StoreFeatures handles POST /store_features, one feature value per request.
func (s *Server) StoreFeatures(c *gin.Context) {
	var feature datatypes.FeatureData
	if err := c.ShouldBindJSON(&feature); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	id, err := s.Features.StoreFeature(feature)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidTicker) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticker", "details": err.Error()})
			return
		}
		slog.Error("Failed to store feature", "ticker", feature.Ticker, "name", feature.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store feature"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feature stored successfully", "id": id})
}

// LoadFeatures handles GET /load_features/:ticker.
func (s *Server) LoadFeatures(c *gin.Context) {
	ticker := c.Param("ticker")

	features, err := s.Features.LoadFeatures(ticker)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidTicker) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticker", "details": err.Error()})
			return
		}
		slog.Error("Failed to load features", "ticker", ticker, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load features"})
		return
	}
	if features == nil {
		features = []datatypes.FeatureData{}
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "features": features, "count": len(features)})
}

// QueryFeatures handles GET /query_features?name=X&start=Y&end=Z. All
// filters are optional but at least one of ticker or name must be given;
// start/end bound the feature windows when present.
func (s *Server) QueryFeatures(c *gin.Context) {
	ticker := c.Query("ticker")
	name := c.Query("name")
	if ticker == "" && name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker or name is required"})
		return
	}

	start := c.Query("start")
	end := c.Query("end")
	for _, date := range []string{start, end} {
		if date == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
			return
		}
	}

	features, err := s.Features.QueryFeatures(ticker, name, start, end)
	if err != nil {
		if errors.Is(err, validation.ErrInvalidTicker) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticker", "details": err.Error()})
			return
		}
		slog.Error("Failed to query features", "ticker", ticker, "name", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query features"})
		return
	}
	if features == nil {
		features = []datatypes.FeatureData{}
	}
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "features": features, "count": len(features)})
}

// StoreDocument handles POST /store.
func (s *Server) StoreDocument(c *gin.Context) {
	var record datatypes.FeatureRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if record.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	chunks, err := s.Documents.StoreDocument(c.Request.Context(), record)
	if err != nil {
		slog.Error("Failed to store document", "doc_id", record.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":           "success",
		"doc_id":           record.ID,
		"chunks_processed": chunks,
	})
}

// LoadDocument handles GET /load/:doc_id.
func (s *Server) LoadDocument(c *gin.Context) {
	docID := c.Param("doc_id")

	record, err := s.Documents.LoadDocument(c.Request.Context(), docID)
	if err != nil {
		slog.Error("Failed to load document", "doc_id", docID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
		return
	}
	if record.ID == "" && record.Payload == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// SetupRoutes registers all datastore endpoints.
func (s *Server) SetupRoutes(router *gin.Engine) {
	router.GET("/health", s.HealthCheck)

	router.POST("/store_data", s.StoreData)
	router.GET("/load_data/:ticker", s.LoadData)
	router.POST("/store_features", s.StoreFeatures)
	router.GET("/load_features/:ticker", s.LoadFeatures)
	router.GET("/query_features", s.QueryFeatures)
	router.POST("/store", s.StoreDocument)
	router.GET("/load/:doc_id", s.LoadDocument)
}
