// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package daterange resolves optional start/end date inputs into a concrete
// analysis window with a fixed default lookback.
package daterange

import (
	"errors"
	"fmt"
	"time"
)

// DefaultLookbackDays is the window length applied when the start date is
// omitted: 2 * 365 days, not calendar-year aware.
const DefaultLookbackDays = 730

// DateLayout is the only accepted input format.
const DateLayout = "2006-01-02"

// ErrInvalidDateFormat is returned when an input does not parse as
// YYYY-MM-DD. Matched with errors.Is.
var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

// Window is a resolved, immutable [Start, End] date range. Start <= End
// always holds for windows produced by Resolve.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartString returns the start bound formatted as YYYY-MM-DD.
func (w Window) StartString() string { return w.Start.Format(DateLayout) }

// EndString returns the end bound formatted as YYYY-MM-DD.
func (w Window) EndString() string { return w.End.Format(DateLayout) }

// Resolve normalizes optional start/end strings into a Window.
//
// End defaults to the current date at processing time; start defaults to
// end minus 730 days. Each default is computed from whichever bound is
// present, so passing only an end date anchors the lookback to it.
//
// Pure function of its inputs and the clock: no side effects.
func Resolve(start, end string) (Window, error) {
	return resolveAt(start, end, time.Now().UTC())
}

// resolveAt is Resolve with an injected clock, for tests.
func resolveAt(start, end string, now time.Time) (Window, error) {
	var w Window

	if end == "" {
		w.End = now.Truncate(24 * time.Hour)
	} else {
		parsed, err := time.Parse(DateLayout, end)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end date %q", ErrInvalidDateFormat, end)
		}
		w.End = parsed
	}

	if start == "" {
		w.Start = w.End.AddDate(0, 0, -DefaultLookbackDays)
	} else {
		parsed, err := time.Parse(DateLayout, start)
		if err != nil {
			return Window{}, fmt.Errorf("%w: start date %q", ErrInvalidDateFormat, start)
		}
		w.Start = parsed
	}

	if w.Start.After(w.End) {
		return Window{}, fmt.Errorf("start date %s is after end date %s",
			w.StartString(), w.EndString())
	}
	return w, nil
}
