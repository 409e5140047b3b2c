package timeutil

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp is the persistence-layer representation of a point in time, the
// seconds/nanos pair used by document stores.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanos)).UTC()
}

func FromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// epochMillisCutoff separates epoch seconds from epoch milliseconds: values
// at or above it are read as milliseconds. 1e11 seconds is year 5138.
const epochMillisCutoff = int64(1e11)

// CoerceTime converts the heterogeneous timestamp representations seen at the
// persistence boundary into a time.Time. Unrecognized inputs degrade to now
// rather than an error; callers that care log at the boundary.
func CoerceTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case *time.Time:
		if x != nil {
			return *x
		}
	case interface{ Time() time.Time }:
		return x.Time()
	case map[string]any:
		// a Timestamp that went through JSON decoding
		if t, ok := fromTimestampMap(x); ok {
			return t
		}
	case string:
		if t, ok := parseString(x); ok {
			return t
		}
	case int:
		return fromEpoch(int64(x))
	case int32:
		return fromEpoch(int64(x))
	case int64:
		return fromEpoch(x)
	case float64:
		return fromEpoch(int64(x))
	}
	return time.Now().UTC()
}

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromEpoch(n), true
	}
	return time.Time{}, false
}

func fromTimestampMap(m map[string]any) (time.Time, bool) {
	secs, ok := m["seconds"].(float64)
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := m["nanos"].(float64)
	return time.Unix(int64(secs), int64(nanos)).UTC(), true
}

func fromEpoch(n int64) time.Time {
	if n >= epochMillisCutoff || n <= -epochMillisCutoff {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
