package util

import "time"

// epoch values above this are treated as milliseconds (year 2286 in seconds).
const millisThreshold = 1e10

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FromEpoch converts an epoch value in seconds or milliseconds to UTC.
func FromEpoch(v int64) time.Time {
	if v > millisThreshold || v < -millisThreshold {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}
