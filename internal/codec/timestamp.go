package codec

import (
	"time"
)

// CanonicalTimeLayout is the form timestamps are written in. Instants
// finer than a millisecond use PreciseTimeLayout instead.
const (
	CanonicalTimeLayout = "2006-01-02T15:04:05.000Z07:00"
	PreciseTimeLayout   = "2006-01-02T15:04:05.000000000Z07:00"
)

// Accepted wire forms, tried in order: RFC3339 with fractional seconds,
// then without.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseTimestamp parses an RFC3339 timestamp with or without fractional
// seconds. The result is UTC at full precision.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &DecodeError{Kind: KindMalformedTimestamp, Literal: s}
}

// FormatTimestamp writes t in UTC with millisecond digits, or nanosecond
// digits when t carries sub-millisecond precision, so ParseTimestamp
// returns the same instant.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond()%int(time.Millisecond) != 0 {
		return t.Format(PreciseTimeLayout)
	}
	return t.Format(CanonicalTimeLayout)
}
