package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// The loose types below decode whatever older builds (or hand-edited
// storage) wrote for a field without ever failing the surrounding record.
// OK is false when the field was absent, null or unusable.

type Text struct {
	V  string
	OK bool
}

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text{V: s, OK: true}
		return nil
	}
	// numbers and booleans are kept verbatim (phones stored as numbers)
	if data[0] != '{' && data[0] != '[' {
		*t = Text{V: string(data), OK: true}
	}
	return nil
}

// Trimmed returns the trimmed value and whether it is non-empty.
func (t Text) Trimmed() (string, bool) {
	if !t.OK {
		return "", false
	}
	v := strings.TrimSpace(t.V)
	return v, v != ""
}

type Number struct {
	V  float64
	OK bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number{V: f, OK: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number{V: f, OK: true}
		}
	}
	return nil
}

type Flag struct {
	V  bool
	OK bool
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag{}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag{V: b, OK: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			*f = Flag{V: b, OK: true}
		}
	}
	return nil
}

// Stamp accepts RFC 3339 strings or epoch milliseconds.
type Stamp struct {
	V  time.Time
	OK bool
}

func (s *Stamp) UnmarshalJSON(data []byte) error {
	*s = Stamp{}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if t, ok := parseTime(str); ok {
			*s = Stamp{V: t, OK: true}
		}
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil && ms > 0 && ms < maxStampMillis {
		*s = Stamp{V: time.UnixMilli(int64(ms)).UTC(), OK: true}
	}
	return nil
}

// maxStampMillis is 10000-01-01T00:00:00Z; later instants cannot be
// encoded as RFC 3339.
const maxStampMillis = 253402300800000

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return t, t.Year() <= 9999
		}
	}
	return time.Time{}, false
}

// leadingInt reads "12 min" as 12.
func leadingInt(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0, false
	}
	return float64(n), true
}
