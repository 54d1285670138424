package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeRange scopes a data request to a trailing window.
type TimeRange string

const (
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
)

var ErrUnknownTimeRange = errors.New("unknown time range")

var timeRanges = []TimeRange{Range24h, Range7d, Range30d}

// AllTimeRanges lists the supported tokens in cycling order.
func AllTimeRanges() []TimeRange {
	out := make([]TimeRange, len(timeRanges))
	copy(out, timeRanges)
	return out
}

// ParseTimeRange accepts "24h", "7d" or "30d" (case-insensitive).
func ParseTimeRange(s string) (TimeRange, error) {
	tr := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	if !tr.Valid() {
		return "", fmt.Errorf("%w: %q (want 24h, 7d or 30d)", ErrUnknownTimeRange, s)
	}
	return tr, nil
}

func (r TimeRange) Valid() bool {
	for _, tr := range timeRanges {
		if r == tr {
			return true
		}
	}
	return false
}

// Next returns the following token, wrapping 30d back to 24h.
func (r TimeRange) Next() TimeRange {
	for i, tr := range timeRanges {
		if tr == r {
			return timeRanges[(i+1)%len(timeRanges)]
		}
	}
	return Range24h
}

// Points is the number of samples the window is reported in.
func (r TimeRange) Points() int {
	switch r {
	case Range7d:
		return 7
	case Range30d:
		return 30
	default:
		return 24
	}
}

// Step is the spacing between samples.
func (r TimeRange) Step() time.Duration {
	if r == Range24h {
		return time.Hour
	}
	return 24 * time.Hour
}

func (r TimeRange) String() string {
	return string(r)
}
