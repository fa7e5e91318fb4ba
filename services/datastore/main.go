// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/pkg/logging"
	"github.com/AleutianAI/AleutianAdvisor/services/datastore/handlers"
	"github.com/AleutianAI/AleutianAdvisor/services/datastore/store"
	"github.com/gin-gonic/gin"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// InfluxDB configuration from environment
var (
	influxURL    = os.Getenv("INFLUXDB_URL")
	influxToken  = os.Getenv("INFLUXDB_TOKEN")
	influxOrg    = os.Getenv("INFLUXDB_ORG")
	influxBucket = os.Getenv("INFLUXDB_BUCKET")
)

func main() {
	logging.Setup("datastore-service")

	// Set defaults if not provided
	if influxURL == "" {
		influxURL = "http://influxdb:8086"
	}
	if influxToken == "" {
		slog.Error("INFLUXDB_TOKEN environment variable is required")
		os.Exit(1)
	}
	if influxOrg == "" {
		influxOrg = "aleutian-finance"
	}
	if influxBucket == "" {
		influxBucket = "financial-data"
	}

	slog.Info("Starting Aleutian Datastore",
		"influx_url", influxURL,
		"influx_org", influxOrg,
		"influx_bucket", influxBucket)

	influxClient := influxdb2.NewClient(influxURL, influxToken)
	defer influxClient.Close()

	// Wait for InfluxDB to be ready
	var influxReady bool
	slog.Info("Waiting for InfluxDB to be ready...")
	for i := 0; i < 10; i++ {
		health, err := influxClient.Health(context.Background())
		if err == nil && health.Status == "pass" {
			influxReady = true
			break
		}

		var errMsg string
		if err != nil {
			errMsg = err.Error()
		} else if health != nil && health.Message != nil {
			errMsg = *health.Message
		}
		slog.Warn("InfluxDB not ready, retrying...", "attempt", i+1, "error", errMsg)
		time.Sleep(3 * time.Second)
	}
	if !influxReady {
		slog.Error("Failed to connect to InfluxDB after all retries")
		os.Exit(1)
	}
	slog.Info("Successfully connected to InfluxDB")

	candles := store.NewCandleStore(
		influxClient.WriteAPIBlocking(influxOrg, influxBucket),
		influxClient.QueryAPI(influxOrg),
		influxBucket)

	featureDir := os.Getenv("FEATURE_DB_PATH")
	if featureDir == "" {
		featureDir = "/data/features"
		slog.Warn("FEATURE_DB_PATH is not set, defaulting", "path", featureDir)
	}
	features, err := store.NewFeatureStore(featureDir)
	if err != nil {
		slog.Error("Failed to open feature store", "error", err)
		os.Exit(1)
	}
	defer features.Close()

	weaviateURL := strings.Trim(os.Getenv("WEAVIATE_SERVICE_URL"), "\"' ")
	if weaviateURL == "" {
		weaviateURL = "http://weaviate:8080"
		slog.Warn("WEAVIATE_SERVICE_URL is not set, defaulting", "url", weaviateURL)
	}
	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Error("WEAVIATE_SERVICE_URL is invalid", "url", weaviateURL, "error", err)
		os.Exit(1)
	}
	weaviateClient, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		os.Exit(1)
	}
	store.EnsureSchema(weaviateClient)

	server := &handlers.Server{
		Candles:   candles,
		Features:  features,
		Documents: store.NewDocumentStore(weaviateClient),
	}

	router := gin.Default()
	server.SetupRoutes(router)

	port := os.Getenv("DATASTORE_PORT")
	if port == "" {
		port = "12320"
	}

	slog.Info("Starting datastore API server", "port", port)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
