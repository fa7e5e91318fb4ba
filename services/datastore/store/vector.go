// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const documentClass = "AssetDocument"

var (
	CHUNK_SIZE        = 1000
	CHUNK_OVERLAP     = int(float64(CHUNK_SIZE) * 0.10) // Chunk_overlap is 10% of the CHUNK_SIZE
	defaultSeparators = []string{"\n\n", "\n", " ", ""}
)

// GetAssetDocumentSchema returns the Weaviate class for stored documents.
// Documents are chunked before storage; chunks share a doc_id and carry a
// chunk_index for reassembly.
func GetAssetDocumentSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       documentClass,
		Description: "A chunked document holding analysis artifacts or conversation turns.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The chunk's text content.",
				Tokenization: "word",
			},
			{
				Name:            "doc_id",
				DataType:        []string{"text"},
				Description:     "Client-supplied document identifier shared by all chunks.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "ticker",
				DataType:        []string{"text"},
				Description:     "Asset ticker this document relates to, if any.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "chunk_index",
				DataType:        []string{"int"},
				Description:     "Position of this chunk within the original document.",
				IndexFilterable: indexFilterable,
			},
			{
				Name:            "stored_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of when the chunk was stored.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureSchema creates the document class if it does not exist yet.
func EnsureSchema(client *weaviate.Client) {
	class := GetAssetDocumentSchema()
	slog.Info("Checking schema", "class", class.Class)

	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(context.Background())
	if err != nil {
		slog.Info("Schema not found, creating it...", "class", class.Class)
		if err := client.Schema().ClassCreator().WithClass(class).Do(context.Background()); err != nil {
			log.Fatalf("Failed to create schema for class %s: %v", class.Class, err)
		}
		slog.Info("Successfully created schema", "class", class.Class)
	} else {
		slog.Info("Schema already exists", "class", class.Class)
	}
}

// DocumentStore persists document payloads as chunked Weaviate objects.
type DocumentStore struct {
	client   *weaviate.Client
	splitter textsplitter.TextSplitter
	now      func() time.Time
}

// NewDocumentStore wraps a Weaviate client.
func NewDocumentStore(client *weaviate.Client) *DocumentStore {
	return &DocumentStore{
		client: client,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(CHUNK_SIZE),
			textsplitter.WithChunkOverlap(CHUNK_OVERLAP),
			textsplitter.WithSeparators(defaultSeparators),
		),
		now: time.Now,
	}
}

// ChunkText splits a payload into storable chunks.
func (s *DocumentStore) ChunkText(text string) ([]string, error) {
	return s.splitter.SplitText(text)
}

// StoreDocument chunks the record's payload and batch-imports the chunks.
// Returns the number of chunks written.
func (s *DocumentStore) StoreDocument(ctx context.Context, record datatypes.FeatureRecord) (int, error) {
	chunks, err := s.ChunkText(record.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to split document %s: %w", record.ID, err)
	}
	if len(chunks) == 0 {
		slog.Warn("No chunks produced after splitting", "doc_id", record.ID)
		return 0, nil
	}

	batcher := s.client.Batch().ObjectsBatcher()
	objects := make([]*models.Object, len(chunks))
	storedAt := s.now().UnixMilli()

	for i, chunk := range chunks {
		hash := sha256.Sum256([]byte(record.ID + chunk))
		objUUID, _ := uuid.FromBytes(hash[:16])

		objects[i] = &models.Object{
			Class: documentClass,
			ID:    strfmt.UUID(objUUID.String()),
			Properties: map[string]interface{}{
				"content":     chunk,
				"doc_id":      record.ID,
				"ticker":      record.Ticker,
				"chunk_index": i,
				"stored_at":   storedAt,
			},
		}
	}
	batcher.WithObjects(objects...)

	resp, err := batcher.Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to batch import document %s: %w", record.ID, err)
	}

	written := 0
	for _, item := range resp {
		if item.Result != nil && item.Result.Status != nil && *item.Result.Status == "SUCCESS" {
			written++
		} else if item.Result != nil && item.Result.Errors != nil {
			for _, errItem := range item.Result.Errors.Error {
				slog.Warn("Error in Weaviate batch item", "doc_id", record.ID, "error", errItem.Message)
			}
		}
	}
	if written < len(chunks) {
		return written, fmt.Errorf("document %s: only %d of %d chunks written",
			record.ID, written, len(chunks))
	}

	slog.Info("Stored document", "doc_id", record.ID, "chunks", written)
	return written, nil
}

// LoadDocument reassembles a stored document from its chunks. Returns an
// empty record and no error when the id is unknown.
func (s *DocumentStore) LoadDocument(ctx context.Context, docID string) (datatypes.FeatureRecord, error) {
	where := filters.Where().
		WithPath([]string{"doc_id"}).
		WithOperator(filters.Equal).
		WithValueString(docID)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "ticker"},
		{Name: "chunk_index"},
	}

	resp, err := s.client.GraphQL().Get().
		WithClassName(documentClass).
		WithWhere(where).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return datatypes.FeatureRecord{}, fmt.Errorf("document query failed: %w", err)
	}
	if len(resp.Errors) > 0 {
		return datatypes.FeatureRecord{}, fmt.Errorf("document query error: %s", resp.Errors[0].Message)
	}

	type chunk struct {
		index   int
		content string
	}
	var chunks []chunk
	record := datatypes.FeatureRecord{ID: docID}

	if getData, ok := resp.Data["Get"].(map[string]interface{}); ok {
		if items, ok := getData[documentClass].([]interface{}); ok {
			for _, item := range items {
				props, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				c := chunk{}
				if content, ok := props["content"].(string); ok {
					c.content = content
				}
				if idx, ok := props["chunk_index"].(float64); ok {
					c.index = int(idx)
				}
				if ticker, ok := props["ticker"].(string); ok && ticker != "" {
					record.Ticker = ticker
				}
				chunks = append(chunks, c)
			}
		}
	}
	if len(chunks) == 0 {
		return datatypes.FeatureRecord{}, nil
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].index < chunks[j].index })
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.content
	}
	record.Payload = joinChunks(parts)
	return record, nil
}

// joinChunks reassembles overlapping chunks produced by the recursive
// splitter. Consecutive chunks share up to CHUNK_OVERLAP characters; the
// shared prefix is dropped before concatenation.
func joinChunks(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for i := 1; i < len(parts); i++ {
		prev, cur := parts[i-1], parts[i]
		overlap := 0
		max := CHUNK_OVERLAP
		if len(prev) < max {
			max = len(prev)
		}
		if len(cur) < max {
			max = len(cur)
		}
		for n := max; n > 0; n-- {
			if strings.HasSuffix(prev, cur[:n]) {
				overlap = n
				break
			}
		}
		b.WriteString(cur[overlap:])
	}
	return b.String()
}
