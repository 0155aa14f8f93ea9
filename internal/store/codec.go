package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// resolve replaces ServerTimestamp sentinels with now, recursing into
// nested Fields.
func resolve(data Fields, now time.Time) Fields {
	out := make(Fields, len(data))
	for k, v := range data {
		switch vv := v.(type) {
		case serverTimestamp:
			out[k] = now
		case Fields:
			out[k] = resolve(vv, now)
		default:
			out[k] = v
		}
	}
	return out
}

func encodeFields(data Fields, now time.Time) ([]byte, error) {
	body, err := json.Marshal(resolve(data, now))
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return body, nil
}

// mergeFields overlays the top-level fields of patch onto body.
func mergeFields(body []byte, patch Fields, now time.Time) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	for k, v := range resolve(patch, now) {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", k, err)
		}
		doc[k] = raw
	}
	return json.Marshal(doc)
}

// filterValue returns the JSON text a field must equal to match f.
func filterValue(f Filter) (string, error) {
	raw, err := json.Marshal(f.Value)
	if err != nil {
		return "", fmt.Errorf("failed to encode filter on %q: %w", f.Field, err)
	}
	return string(raw), nil
}

func matches(body []byte, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return false, fmt.Errorf("failed to decode document: %w", err)
	}
	for _, f := range filters {
		want, err := filterValue(f)
		if err != nil {
			return false, err
		}
		got, ok := doc[f.Field]
		if !ok {
			return false, nil
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, got); err != nil {
			return false, err
		}
		if compact.String() != want {
			return false, nil
		}
	}
	return true, nil
}

func jsonDecoder(body []byte) func(v any) error {
	return func(v any) error {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("failed to decode document: %w", err)
		}
		return nil
	}
}
