// Package patch holds the field wrapper used by partial-update payloads.
//
// A field decoded from JSON is in one of three states: absent (leave the stored
// value alone), null (clear it) or present (overwrite it).
package patch

import (
	"bytes"
	"encoding/json"
)

type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether the field carries a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Apply writes the field into a $set / $unset pair. nullable controls whether a
// null clears the stored value or is ignored.
func (o Optional[T]) Apply(field string, set, unset map[string]any, nullable bool) {
	switch {
	case !o.Set:
	case o.Null:
		if nullable {
			unset[field] = ""
		}
	default:
		set[field] = o.Value
	}
}
