package service

import (
	"bytes"
	"encoding/json"
	"net/url"
	"slices"
)

// Filter selects records by exact field values. Distinct fields are ANDed;
// the values listed for one field are ORed. An empty filter matches
// everything. Its shape matches url.Values so query strings convert
// directly.
type Filter map[string][]string

// FilterFromQuery converts parsed query parameters.
func FilterFromQuery(q url.Values) Filter {
	f := make(Filter, len(q))
	for k, vs := range q {
		f[k] = append([]string(nil), vs...)
	}
	return f
}

// Where returns a filter with a single field.
func Where(field string, values ...string) Filter {
	return Filter{field: values}
}

// With returns a copy of f with field set to values.
func (f Filter) With(field string, values ...string) Filter {
	out := make(Filter, len(f)+1)
	for k, vs := range f {
		out[k] = vs
	}
	out[field] = values
	return out
}

// Match reports whether a decoded record satisfies f. A field absent from
// the record never matches. String fields compare by their unquoted value,
// any other JSON value by its compact text.
func (f Filter) Match(record map[string]json.RawMessage) bool {
	for field, values := range f {
		if len(values) == 0 {
			continue
		}
		raw, ok := record[field]
		if !ok {
			return false
		}
		if !slices.Contains(values, scalar(raw)) {
			return false
		}
	}
	return true
}

func scalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
