// Package timeutil converts between timestamps and the fixed textual form
// used in persisted records and API payloads ("Mon May 25 15:30:11 2000", UTC).
package timeutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Layout is the textual timestamp format. Day of month is zero padded.
const Layout = "Mon Jan 02 15:04:05 2006"

// nullYear marks the reserved "never set" date (Jan 01 1900 00:00:00).
const nullYear = 1900

// ErrInvalidTimestamp is returned when a string does not match Layout.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Timestamp is a UTC instant serialized with Layout. The zero value is the
// null sentinel and serializes to "".
type Timestamp struct {
	time.Time
}

// Now returns the current time in UTC truncated to whole seconds, which is
// the precision Layout can carry.
func Now() Timestamp {
	return From(time.Now())
}

// Null returns the null sentinel.
func Null() Timestamp {
	return Timestamp{}
}

// From wraps t, normalizing to UTC and second precision.
func From(t time.Time) Timestamp {
	if t.IsZero() {
		return Null()
	}
	return Timestamp{t.UTC().Truncate(time.Second)}
}

// IsNull reports whether ts is the null sentinel.
func (ts Timestamp) IsNull() bool {
	if ts.Time.IsZero() {
		return true
	}
	t := ts.Time.UTC()
	return t.Year() == nullYear && t.YearDay() == 1 &&
		t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}

// String formats ts with Layout, or "" for the null sentinel.
func (ts Timestamp) String() string {
	if ts.IsNull() {
		return ""
	}
	return ts.Time.UTC().Format(Layout)
}

// Before reports whether ts is strictly earlier than other. The null
// sentinel sorts before every real timestamp.
func (ts Timestamp) Before(other Timestamp) bool {
	switch {
	case ts.IsNull() && other.IsNull():
		return false
	case ts.IsNull():
		return true
	case other.IsNull():
		return false
	}
	return ts.Time.Before(other.Time)
}

// Parse converts s to a Timestamp. The empty string yields the null
// sentinel. Both zero-padded and space-padded days are accepted.
func Parse(s string) (Timestamp, error) {
	if s == "" {
		return Null(), nil
	}
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		t, err = time.ParseInLocation(time.ANSIC, s, time.UTC)
		if err != nil {
			return Null(), fmt.Errorf("unable to parse the following date string: %q: %w", s, ErrInvalidTimestamp)
		}
	}
	ts := Timestamp{t}
	if ts.IsNull() {
		return Null(), nil
	}
	return ts, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constant fixtures.
func MustParse(s string) Timestamp {
	ts, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ts
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler. JSON null is treated as "".
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Null()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
