// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package publisher

import (
	"fmt"
	"time"
)

// RowPublishError records the failure of a single candle row during raw
// fan-out. The ticker and timestamp identify the row; the other rows of the
// same batch are unaffected.
type RowPublishError struct {
	Ticker    string
	Timestamp time.Time
	Err       error
}

func (e *RowPublishError) Error() string {
	return fmt.Sprintf("failed to publish row %s@%s: %v",
		e.Ticker, e.Timestamp.UTC().Format(time.RFC3339), e.Err)
}

func (e *RowPublishError) Unwrap() error { return e.Err }

// FeaturePublishError records the failure to forward a computed feature
// record. Independent of raw-row publishing: the two are not transactional.
type FeaturePublishError struct {
	Ticker   string
	RecordID string
	Err      error
}

func (e *FeaturePublishError) Error() string {
	return fmt.Sprintf("failed to publish features for %s (record %s): %v",
		e.Ticker, e.RecordID, e.Err)
}

func (e *FeaturePublishError) Unwrap() error { return e.Err }
