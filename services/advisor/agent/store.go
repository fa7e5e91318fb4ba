// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
)

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DatastoreConversationStore persists turns as documents in the
// datastore's vector index, one document per exchange, so past
// conversations are retrievable by semantic search.
type DatastoreConversationStore struct {
	client  HTTPClient
	baseURL string
}

// NewDatastoreConversationStore creates a store against the datastore
// service at baseURL.
func NewDatastoreConversationStore(baseURL string) *DatastoreConversationStore {
	return &DatastoreConversationStore{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
	}
}

// WithStoreHTTPClient replaces the default HTTP client, for tests.
func (s *DatastoreConversationStore) WithStoreHTTPClient(c HTTPClient) *DatastoreConversationStore {
	s.client = c
	return s
}

// SaveTurn writes one exchange to the vector index. The document id
// embeds the session and timestamp so repeated turns never collide.
func (s *DatastoreConversationStore) SaveTurn(ctx context.Context, userID, sessionID string, turn Turn) error {
	record := datatypes.FeatureRecord{
		ID: fmt.Sprintf("%s_turn_%s", sessionID, turn.At.UTC().Format(time.RFC3339)),
		Payload: fmt.Sprintf("User %s asked: %s\nAssistant answered: %s",
			userID, turn.Question, turn.Answer),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/store", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("datastore unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("datastore returned status %s: %s", resp.Status, string(snippet))
	}
	return nil
}
