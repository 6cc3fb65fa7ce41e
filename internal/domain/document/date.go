package document

import (
	"encoding/json"
	"time"
)

// ISOLayout is the millisecond-precision UTC layout used for every normalized date.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Date is an optional document timestamp as found in the store: a real
// datetime, a plain string, or nothing at all.
type Date struct {
	t   time.Time
	raw string
	ok  bool
}

// DateFromTime wraps a parsed timestamp.
func DateFromTime(t time.Time) Date {
	return Date{t: t, ok: true}
}

// DateFromString keeps a stored string as-is. It is parsed opportunistically
// so Time() works, but ISO() returns the original text unchanged.
func DateFromString(s string) Date {
	if s == "" {
		return Date{}
	}
	d := Date{raw: s, ok: true}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		d.t = t
	}
	return d
}

// Valid reports whether the date is present.
func (d Date) Valid() bool { return d.ok }

// Time returns the parsed timestamp (zero if absent or unparseable).
func (d Date) Time() time.Time { return d.t }

// ISO returns the normalized representation and false when the date is absent.
func (d Date) ISO() (string, bool) {
	if !d.ok {
		return "", false
	}
	if d.raw != "" {
		return d.raw, true
	}
	return d.t.UTC().Format(ISOLayout), true
}

// MarshalJSON renders an ISO-8601 string or null.
func (d Date) MarshalJSON() ([]byte, error) {
	s, ok := d.ISO()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(s)
}
