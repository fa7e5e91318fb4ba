// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianAdvisor/pkg/validation"
	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	badger "github.com/dgraph-io/badger/v4"
)

// featureKeyPrefix namespaces feature entries within the Badger keyspace.
const featureKeyPrefix = "features"

// FeatureStore persists computed feature values in Badger.
//
// Keys are features/<ticker>/<name>/<start>_<end>, so a ticker prefix scan
// returns every feature for that ticker and a ticker+name prefix scan
// returns the history of one feature. Re-storing the same key overwrites.
type FeatureStore struct {
	db *badger.DB
}

// NewFeatureStore opens the Badger database at dir. An empty dir opens an
// in-memory database, used by tests.
func NewFeatureStore(dir string) (*FeatureStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature database: %w", err)
	}
	return &FeatureStore{db: db}, nil
}

// Close releases the underlying database.
func (s *FeatureStore) Close() error {
	return s.db.Close()
}

func featureKey(f datatypes.FeatureData) []byte {
	return []byte(fmt.Sprintf("%s/%s/%s/%s_%s",
		featureKeyPrefix, f.Ticker, f.Name, f.StartDate, f.EndDate))
}

// StoreFeature writes one feature value and returns the stored key.
func (s *FeatureStore) StoreFeature(f datatypes.FeatureData) (string, error) {
	ticker, err := validation.SanitizeTicker(f.Ticker)
	if err != nil {
		return "", err
	}
	f.Ticker = ticker
	if f.Name == "" || strings.Contains(f.Name, "/") {
		return "", fmt.Errorf("invalid feature name %q", f.Name)
	}

	value, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to marshal feature: %w", err)
	}

	key := featureKey(f)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store feature: %w", err)
	}
	slog.Info("Stored feature", "ticker", f.Ticker, "name", f.Name)
	return string(key), nil
}

// LoadFeatures returns every stored feature for a ticker.
func (s *FeatureStore) LoadFeatures(ticker string) ([]datatypes.FeatureData, error) {
	ticker, err := validation.SanitizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%s/%s/", featureKeyPrefix, ticker)
	return s.scan([]byte(prefix))
}

// QueryFeatures returns stored feature values filtered by any combination
// of ticker, name, and a date window. An empty ticker scans every ticker;
// an empty name matches every feature. Non-empty start/end bound the
// entries' windows: kept entries start no earlier than start and end no
// later than end (dates are YYYY-MM-DD, so string order is date order).
func (s *FeatureStore) QueryFeatures(ticker, name, start, end string) ([]datatypes.FeatureData, error) {
	prefix := featureKeyPrefix + "/"
	if ticker != "" {
		sanitized, err := validation.SanitizeTicker(ticker)
		if err != nil {
			return nil, err
		}
		prefix += sanitized + "/"
		if name != "" {
			prefix += name + "/"
		}
	}

	entries, err := s.scan([]byte(prefix))
	if err != nil {
		return nil, err
	}

	var features []datatypes.FeatureData
	for _, f := range entries {
		if name != "" && f.Name != name {
			continue
		}
		if start != "" && f.StartDate < start {
			continue
		}
		if end != "" && f.EndDate > end {
			continue
		}
		features = append(features, f)
	}
	return features, nil
}

func (s *FeatureStore) scan(prefix []byte) ([]datatypes.FeatureData, error) {
	var features []datatypes.FeatureData
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var f datatypes.FeatureData
				if err := json.Unmarshal(val, &f); err != nil {
					return fmt.Errorf("corrupt feature entry %q: %w", it.Item().Key(), err)
				}
				features = append(features, f)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return features, nil
}
