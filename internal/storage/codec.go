package storage

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Timestamps are stored as unix milliseconds and string slices as JSON text,
// matching the original schema so existing databases keep working.

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

func encodeStrings(s []string) string {
	if s == nil {
		s = []string{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var s []string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return []string{}
	}
	return s
}

func encodeBlob(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

func decodeBlob(raw string) json.RawMessage {
	if raw == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(raw)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
