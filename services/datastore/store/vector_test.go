// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortPayloadIsSingleChunk(t *testing.T) {
	s := NewDocumentStore(nil)

	payload := `{"ticker":"AAPL","risk":0.2,"volatility":0.2,"annualized_return":0.1}`
	chunks, err := s.ChunkText(payload)
	require.NoError(t, err)
	require.Len(t, chunks, 1, "metric payloads fit a single chunk")
	assert.Equal(t, payload, chunks[0])
}

func TestChunkText_LongPayloadSplits(t *testing.T) {
	s := NewDocumentStore(nil)

	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog.\n")
	}
	chunks, err := s.ChunkText(b.String())
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), CHUNK_SIZE)
	}
}

func TestJoinChunks_DropsOverlap(t *testing.T) {
	parts := []string{"abcdefgh", "efghijkl"}
	old := CHUNK_OVERLAP
	CHUNK_OVERLAP = 4
	defer func() { CHUNK_OVERLAP = old }()

	assert.Equal(t, "abcdefghijkl", joinChunks(parts))
}

func TestJoinChunks_NoOverlapConcatenates(t *testing.T) {
	assert.Equal(t, "abcdef", joinChunks([]string{"abc", "def"}))
	assert.Equal(t, "", joinChunks(nil))
	assert.Equal(t, "solo", joinChunks([]string{"solo"}))
}

func TestGetAssetDocumentSchema(t *testing.T) {
	class := GetAssetDocumentSchema()
	assert.Equal(t, "AssetDocument", class.Class)
	assert.Equal(t, "none", class.Vectorizer)

	names := map[string]bool{}
	for _, p := range class.Properties {
		names[p.Name] = true
	}
	for _, want := range []string{"content", "doc_id", "ticker", "chunk_index", "stored_at"} {
		assert.True(t, names[want], "schema must define %s", want)
	}
}
