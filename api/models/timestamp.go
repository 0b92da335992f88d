package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is the creation time of a record. The JSON value is kept
// exactly as decoded, so an imported document exports unchanged even when
// its timestamps are not RFC 3339 strings.
type Timestamp struct {
	raw json.RawMessage
}

// NewTimestamp returns the timestamp for t
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{raw: json.RawMessage(strconv.Quote(t.Format(time.RFC3339Nano)))}
}

// MarshalJSON implements json.Marshaler
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if len(ts.raw) == 0 {
		return []byte("null"), nil
	}
	return ts.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler. Any JSON value is accepted.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ts.raw = append(json.RawMessage(nil), data...)
	return nil
}

// Time interprets the timestamp. RFC 3339 strings, plain dates and Unix
// milliseconds are understood; ok is false for anything else.
func (ts *Timestamp) Time() (t time.Time, ok bool) {
	if ts == nil || len(ts.raw) == 0 {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(ts.raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}

	var ms float64
	if err := json.Unmarshal(ts.raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

// String returns the raw JSON value
func (ts *Timestamp) String() string {
	if ts == nil {
		return ""
	}
	return string(ts.raw)
}

// UnmarshalFilaments decodes a JSON array of records. Decoding is lenient:
// a field holding a value of the wrong type is left empty and an element
// that is not an object decodes to an empty record. Only a document that
// is not an array fails.
func UnmarshalFilaments(data []byte) ([]Filament, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, err
	}

	records := make([]Filament, len(elems))
	for i, elem := range elems {
		var f Filament
		if err := json.Unmarshal(elem, &f); err != nil {
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
		records[i] = f
	}
	return records, nil
}
