package db

import (
	"bytes"
	"encoding/json"
)

type fieldState uint8

const (
	fieldUnset fieldState = iota
	fieldNull
	fieldValue
)

// Field is a tri-state update value that distinguishes an omitted field
// from one explicitly set to null. Decoded from JSON, an absent key stays
// Unset, a literal null becomes SetNull and anything else becomes SetValue.
type Field[T any] struct {
	state fieldState
	value T
}

// Unset returns a field that leaves the stored value unchanged
func Unset[T any]() Field[T] {
	return Field[T]{}
}

// SetNull returns a field that clears the stored value
func SetNull[T any]() Field[T] {
	return Field[T]{state: fieldNull}
}

// SetValue returns a field that replaces the stored value with v
func SetValue[T any](v T) Field[T] {
	return Field[T]{state: fieldValue, value: v}
}

// IsSet reports whether the field carries an update (null or a value)
func (f Field[T]) IsSet() bool {
	return f.state != fieldUnset
}

// IsNull reports whether the field explicitly clears the value
func (f Field[T]) IsNull() bool {
	return f.state == fieldNull
}

// Get returns the value and whether one is present
func (f Field[T]) Get() (T, bool) {
	return f.value, f.state == fieldValue
}

// Ptr resolves the field for persistence: nil for SetNull, a pointer to the value for SetValue.
// Callers must check IsSet first; Ptr on an Unset field returns nil.
func (f Field[T]) Ptr() *T {
	if f.state != fieldValue {
		return nil
	}
	v := f.value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.state = fieldNull
		f.value = zero
		return nil
	}
	if err := json.Unmarshal(data, &f.value); err != nil {
		return err
	}
	f.state = fieldValue
	return nil
}

// MarshalJSON implements json.Marshaler. Unset and SetNull both encode as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != fieldValue {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
