package types

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes a JSON field that was omitted from one that was
// sent as null or with a value. Set is false when the key was absent.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON is only invoked when the key is present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		o.Null = true
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON writes the value, or null when unset.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Present reports whether a non-null value was supplied.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// apply overwrites *dst when the field was supplied; null resets it to the zero value.
func apply[T any](dst *T, o Optional[T]) {
	if o.Set {
		*dst = o.Value
	}
}
