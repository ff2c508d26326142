package models

import (
	"encoding/json"
)

type patchState uint8

const (
	patchUnset patchState = iota
	patchClear
	patchSet
)

// Patch is a tri-state partial-update field. A key missing from the JSON
// document decodes as Unset, an explicit null as Clear, anything else as Set.
// Only Clear and Set may cause a write.
type Patch[T any] struct {
	state patchState
	value T
}

// Unset returns a Patch that leaves the field untouched.
func Unset[T any]() Patch[T] { return Patch[T]{} }

// Clear returns a Patch that blanks the field.
func Clear[T any]() Patch[T] { return Patch[T]{state: patchClear} }

// Set returns a Patch that overwrites the field with v.
func Set[T any](v T) Patch[T] { return Patch[T]{state: patchSet, value: v} }

func (p Patch[T]) IsUnset() bool { return p.state == patchUnset }
func (p Patch[T]) IsClear() bool { return p.state == patchClear }
func (p Patch[T]) IsSet() bool   { return p.state == patchSet }

// Value returns the set value, or the zero value for Unset and Clear.
func (p Patch[T]) Value() T { return p.value }

// UnmarshalJSON is only invoked for keys present in the document.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Clear[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Set(v)
	return nil
}

// MarshalJSON renders Set values; Unset and Clear render as null.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if p.state != patchSet {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}
