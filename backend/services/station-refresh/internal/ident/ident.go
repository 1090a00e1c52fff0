// Package ident derives stable station identifiers and parses upstream timestamps.
package ident

import (
	"crypto/md5"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StationID maps an upstream station id to a UUID-formatted string. The value is
// the MD5 digest of the input laid out as 8-4-4-4-12 hex groups, so the same
// upstream station always upserts onto the same row.
func StationID(upstreamID string) string {
	return uuid.UUID(md5.Sum([]byte(upstreamID))).String()
}

// offset followed by a redundant zulu marker, e.g. "+00:00Z" or "-0500Z"
var redundantZulu = regexp.MustCompile(`[+-]\d{2}:?\d{2}Z$`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
}

// naive layouts carry no zone and are read as UTC
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an upstream timestamp. A trailing "Z" that follows a
// numeric offset is dropped first. ok is false when nothing matched; callers
// substitute the current time.
func ParseTimestamp(raw string) (t time.Time, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if redundantZulu.MatchString(s) {
		s = strings.TrimSuffix(s, "Z")
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), true
		}
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// TimestampOr parses raw and falls back to now.
func TimestampOr(raw string, now time.Time) time.Time {
	if t, ok := ParseTimestamp(raw); ok {
		return t
	}
	return now
}
