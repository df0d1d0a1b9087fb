// internal/entity/record.go
package entity

import (
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// ErrUnknownField is returned by Get for a field the record does not expose.
var ErrUnknownField = errors.New("unknown field")

// Record is implemented by every structured value read from the UI. Fields
// lists the public field names in a stable order; Value answers for any name
// in that list. Bookkeeping such as the backing control is never a field.
type Record interface {
	Fields() []string
	Value(field string) (any, bool)
}

// Field is one entry of a record's ordered key/value view.
type Field struct {
	Name  string
	Value any
}

// Keys returns a copy of the record's field names.
func Keys(r Record) []string {
	return append([]string(nil), r.Fields()...)
}

func Len(r Record) int { return len(r.Fields()) }

// Contains reports whether field is one of the record's public fields.
func Contains(r Record, field string) bool {
	for _, f := range r.Fields() {
		if f == field {
			return true
		}
	}
	return false
}

// Get returns the value of field, or ErrUnknownField.
func Get(r Record, field string) (any, error) {
	if !Contains(r, field) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	v, ok := r.Value(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return v, nil
}

// GetOr returns the value of field, or def when the record lacks it.
func GetOr(r Record, field string, def any) any {
	v, err := Get(r, field)
	if err != nil {
		return def
	}
	return v
}

// Items returns the fields and their values in field order.
func Items(r Record) []Field {
	fields := r.Fields()
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		v, _ := r.Value(f)
		out = append(out, Field{Name: f, Value: v})
	}
	return out
}

func Values(r Record) []any {
	items := Items(r)
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it.Value
	}
	return out
}

func ToMap(r Record) map[string]any {
	items := Items(r)
	out := make(map[string]any, len(items))
	for _, it := range items {
		out[it.Name] = it.Value
	}
	return out
}

// Match reports whether every condition names a field of r whose value
// equals the given one. A condition on an unknown field never matches.
func Match(r Record, conditions map[string]any) bool {
	for field, want := range conditions {
		got, err := Get(r, field)
		if err != nil {
			return false
		}
		if !cmp.Equal(got, want) {
			return false
		}
	}
	return true
}
