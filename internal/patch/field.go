// Package patch provides a tri-state field for partial updates: absent
// (leave unchanged), present as null (clear) or present with a value (set).
package patch

import (
	"bytes"
	"encoding/json"
)

// Field is one member of a partial-update payload. The zero value is absent.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// Null returns a Field that clears the target.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// Present reports whether the field appeared in the payload, null included.
func (f Field[T]) Present() bool { return f.set }

// IsNull reports whether the field was explicitly null.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// HasValue reports whether the field carries a non-null value.
func (f Field[T]) HasValue() bool { return f.set && !f.null }

// Value returns the carried value and whether there is one.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.HasValue()
}

// Ptr returns nil for null, a pointer to the value otherwise.
// It must only be used on present fields.
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.value
	return &v
}

// Apply writes the field onto dst when present: the value when set, the zero
// value when null. It reports whether dst was touched.
func (f Field[T]) Apply(dst *T) bool {
	if !f.set {
		return false
	}
	if f.null {
		var zero T
		*dst = zero
		return true
	}
	*dst = f.value
	return true
}

// UnmarshalJSON records presence. It is only called for keys present in the
// document, so absent keys keep the zero Field.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

// MarshalJSON writes null for absent or null fields.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
