package schema

import "github.com/latticedb/lattice/pkg/compare"

type (
	// FieldSpec is the static metadata for one named field of a schema object
	// kind. Reference collection fields are never inheritable (inheritance is
	// performed explicitly by the merge engine) and are always ephemeral and
	// coerced; scalar fields may opt into generic inheritance.
	FieldSpec struct {
		// Name is the field name, e.g. "type" or "own_pointers".
		Name string

		// Inheritable marks the field value as merged from bases when unset
		// locally.
		Inheritable bool

		// Ephemeral marks the field as recomputed rather than persisted.
		Ephemeral bool

		// Coerced marks the field value as normalized through the collection
		// constructor; a nil value reads as an empty collection.
		Coerced bool
	}

	// FieldValue is one schema object field value. Exactly one variant is set:
	// a scalar string, a boolean, a reference to another object (backrefs), or
	// a reference collection.
	FieldValue struct {
		Str  *string
		Bool *bool
		Ref  *Name
		Coll *Collection
	}
)

// StrValue wraps a scalar string field value.
func StrValue(s string) FieldValue { return FieldValue{Str: &s} }

// BoolValue wraps a boolean field value.
func BoolValue(b bool) FieldValue { return FieldValue{Bool: &b} }

// RefValue wraps an object reference field value.
func RefValue(n Name) FieldValue { return FieldValue{Ref: &n} }

// CollValue wraps a reference collection field value.
func CollValue(c *Collection) FieldValue { return FieldValue{Coll: c} }

// IsZero reports whether no variant is set.
func (v FieldValue) IsZero() bool {
	return v.Str == nil && v.Bool == nil && v.Ref == nil && v.Coll == nil
}

// Equal compares two field values structurally.
func (v FieldValue) Equal(other FieldValue) bool {
	return compare.Pointers(v.Str, other.Str) &&
		compare.Pointers(v.Bool, other.Bool) &&
		compare.Pointers(v.Ref, other.Ref) &&
		v.Coll.Equal(other.Coll)
}

// String renders the value for diagnostics and plan output.
func (v FieldValue) String() string {
	switch {
	case v.Str != nil:
		return *v.Str
	case v.Bool != nil:
		if *v.Bool {
			return "true"
		}
		return "false"
	case v.Ref != nil:
		return string(*v.Ref)
	case v.Coll != nil:
		return "<collection>"
	default:
		return "<unset>"
	}
}
