// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package daterange

import (
	"errors"
	"testing"
	"time"
)

func TestResolveAt_Defaults(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	w, err := resolveAt("", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantEnd := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !w.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", w.End, wantEnd)
	}
	wantStart := wantEnd.AddDate(0, 0, -730)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v (end - 730d)", w.Start, wantStart)
	}
}

func TestResolveAt_ExplicitWindowIgnoresClock(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC),
	} {
		w, err := resolveAt("2022-01-01", "2023-01-01", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w.StartString() != "2022-01-01" || w.EndString() != "2023-01-01" {
			t.Errorf("window = [%s, %s], want [2022-01-01, 2023-01-01]",
				w.StartString(), w.EndString())
		}
	}
}

func TestResolveAt_OnlyEndAnchorsLookback(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	w, err := resolveAt("", "2024-03-01", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.EndString() != "2024-03-01" {
		t.Errorf("End = %s, want 2024-03-01", w.EndString())
	}
	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -730)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", w.Start, wantStart)
	}
}

func TestResolveAt_OnlyStartDefaultsEndToToday(t *testing.T) {
	now := time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
	w, err := resolveAt("2024-01-01", "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.StartString() != "2024-01-01" {
		t.Errorf("Start = %s, want 2024-01-01", w.StartString())
	}
	if w.EndString() != "2025-06-15" {
		t.Errorf("End = %s, want 2025-06-15", w.EndString())
	}
}

func TestResolveAt_MalformedInput(t *testing.T) {
	now := time.Now()
	for _, tc := range []struct{ start, end string }{
		{"01/02/2022", ""},
		{"2022-13-01", ""},
		{"", "not-a-date"},
		{"2022-01-01", "2022/02/01"},
	} {
		_, err := resolveAt(tc.start, tc.end, now)
		if !errors.Is(err, ErrInvalidDateFormat) {
			t.Errorf("resolveAt(%q, %q) error = %v, want ErrInvalidDateFormat",
				tc.start, tc.end, err)
		}
	}
}

func TestResolveAt_StartAfterEnd(t *testing.T) {
	_, err := resolveAt("2023-06-01", "2023-01-01", time.Now())
	if err == nil {
		t.Error("expected error for inverted window")
	}
	if errors.Is(err, ErrInvalidDateFormat) {
		t.Error("inverted window is not a format error")
	}
}
