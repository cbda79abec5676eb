package schema

import (
	"sort"

	"github.com/google/uuid"

	"github.com/latticedb/lattice/pkg/compare"
)

// Object is one immutable schema object value. Once published into a
// snapshot an object is never mutated; every change produces a new value via
// the With* methods. Identity (ID) is stable across renames.
type Object struct {
	// ID is the stable identity of the object, preserved by renames.
	ID uuid.UUID

	// Name is the qualified catalog name.
	Name Name

	// Kind tags the object's schema kind in the registry.
	Kind Kind

	// Bases is the ordered list of declared base objects.
	Bases []Name

	// Ancestors is the cached linearization of the inheritance graph,
	// nearest first, excluding the object itself. Recomputed whenever Bases
	// changes.
	Ancestors []Name

	// Abstract marks objects that cannot be instantiated and exist only to
	// be inherited from.
	Abstract bool

	// DeclaredInherited is the explicit `inherited` tag asserting that this
	// declaration intentionally overrides an inherited one.
	DeclaredInherited bool

	// Derived marks objects materialized by the merge engine rather than
	// declared by the user.
	Derived bool

	// Source is the declaration's source location, for diagnostics.
	Source *SourceInfo

	fields map[string]FieldValue
}

// NewObject constructs a fresh object with a new identity.
func NewObject(name Name, kind Kind) *Object {
	return &Object{ID: uuid.New(), Name: name, Kind: kind}
}

// ShortName returns the collection key for this object.
func (o *Object) ShortName() string { return o.Name.Short() }

// Field returns the value of the named field.
func (o *Object) Field(name string) (FieldValue, bool) {
	v, ok := o.fields[name]
	return v, ok
}

// Collection returns the reference collection stored in field. Coerced
// fields read as an empty collection when unset.
func (o *Object) Collection(field string) *Collection {
	if v, ok := o.fields[field]; ok {
		return v.Coll
	}
	return nil
}

// FieldNames returns the names of all set fields in sorted order.
func (o *Object) FieldNames() []string {
	names := make([]string, 0, len(o.fields))
	for name := range o.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// clone returns a shallow copy with a copied field map.
func (o *Object) clone() *Object {
	dup := *o
	dup.fields = make(map[string]FieldValue, len(o.fields))
	for k, v := range o.fields {
		dup.fields[k] = v
	}
	return &dup
}

// WithField returns a copy of the object with field set to v.
func (o *Object) WithField(field string, v FieldValue) *Object {
	dup := o.clone()
	if v.IsZero() {
		delete(dup.fields, field)
	} else {
		dup.fields[field] = v
	}
	return dup
}

// WithCollection returns a copy with the collection field replaced.
func (o *Object) WithCollection(field string, c *Collection) *Object {
	return o.WithField(field, CollValue(c))
}

// WithBases returns a copy with new bases and their recomputed
// linearization.
func (o *Object) WithBases(bases, ancestors []Name) *Object {
	dup := o.clone()
	dup.Bases = append([]Name(nil), bases...)
	dup.Ancestors = append([]Name(nil), ancestors...)
	return dup
}

// WithName returns a copy renamed to name. Identity is preserved.
func (o *Object) WithName(name Name) *Object {
	dup := o.clone()
	dup.Name = name
	return dup
}

// FieldsEqual compares the set fields of two objects structurally, including
// reference collections.
func (o *Object) FieldsEqual(other *Object) bool {
	if len(o.fields) != len(other.fields) {
		return false
	}
	for k, v := range o.fields {
		ov, ok := other.fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// PropertiesMatch reports whether two objects have the same kind, bases,
// flags and fields, ignoring their names. Used for rename detection: two
// objects with matching properties but different names are one renamed
// object, not a drop plus a create.
func (o *Object) PropertiesMatch(other *Object) bool {
	return o.Kind == other.Kind &&
		o.Abstract == other.Abstract &&
		o.DeclaredInherited == other.DeclaredInherited &&
		compare.Slices(o.Bases, other.Bases, func(a, b Name) bool { return a == b }) &&
		o.FieldsEqual(other)
}
