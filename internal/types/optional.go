package types

import (
	"bytes"
	"encoding/json"
)

// Optional is a JSON field that remembers whether it was sent.
//
// encoding/json only calls UnmarshalJSON for keys that appear in the body,
// so a zero Optional means "absent". A literal null is treated the same as
// an absent key.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = v
	o.Set = true
	return nil
}
