package schema

import (
	"sort"

	"github.com/pkg/errors"
)

// Kind tags a schema object kind. Kinds form their own inheritance chain
// (e.g. Property and Link both specialize Pointer), which the registry walks
// when locating the reference dictionary responsible for a child kind.
type Kind string

const (
	// KindObjectType is an object type: the owner of pointers, constraints
	// and indexes.
	KindObjectType Kind = "type"
	// KindPointer is the abstract common kind of properties and links.
	KindPointer Kind = "pointer"
	// KindProperty is a scalar-valued pointer.
	KindProperty Kind = "property"
	// KindLink is an object-valued pointer.
	KindLink Kind = "link"
	// KindConstraint restricts the values of its subject.
	KindConstraint Kind = "constraint"
	// KindIndex is a lookup index declared on an object type.
	KindIndex Kind = "index"
)

type (
	// RefDict describes one owned child collection on a schema object kind:
	// which field holds the full (local plus inherited) collection, which
	// holds only local declarations, the backref field on children, and the
	// expected child kind.
	RefDict struct {
		// Attr is the field holding the full collection.
		Attr string

		// LocalAttr is the field holding only locally declared children.
		LocalAttr string

		// BackrefAttr is the field on a child object referring back to its
		// owner.
		BackrefAttr string

		// ChildKind is the expected kind of children in this collection.
		ChildKind Kind

		// RequiresExplicitInherit requires local children shadowing an
		// inherited name to carry the `inherited` keyword.
		RequiresExplicitInherit bool
	}

	// KindSpec declares one schema object kind for registration: its parent
	// kind, its fields, its own reference dictionaries, and kind-specific
	// inheritance behavior.
	KindSpec struct {
		Kind     Kind
		Base     Kind
		Fields   []FieldSpec
		RefDicts []RefDict

		// ImplicitAncestor marks kinds whose concrete children synthesize an
		// abstract parent automatically when the declared base is missing.
		ImplicitAncestor bool

		// MaterializeOnInherit reports whether a purely inherited child must
		// be copied onto the inheritor rather than shared by reference, e.g.
		// delegated constraints.
		MaterializeOnInherit func(child *Object) bool
	}

	// Registry is the static table of schema object kinds. It is built once
	// at startup; every invariant violation is a registration fault, not a
	// runtime data error.
	Registry struct {
		kinds map[Kind]*kindEntry
		order []Kind
	}

	kindEntry struct {
		spec      KindSpec
		ancestors []Kind // nearest first, excluding the kind itself
		fields    map[string]FieldSpec
		refdicts  []RefDict // effective: inherited then own, most-derived wins
		byField   map[string]RefDict
		byChild   map[Kind]RefDict
	}
)

// NewRegistry builds and validates a registry from the given kind specs.
// Specs may reference base kinds declared later in the list.
func NewRegistry(specs ...KindSpec) (*Registry, error) {
	r := &Registry{kinds: make(map[Kind]*kindEntry, len(specs))}

	for _, spec := range specs {
		if _, ok := r.kinds[spec.Kind]; ok {
			return nil, errors.Errorf("kind %q registered twice", spec.Kind)
		}
		r.kinds[spec.Kind] = &kindEntry{spec: spec}
		r.order = append(r.order, spec.Kind)
	}

	for _, k := range r.order {
		if err := r.link(k); err != nil {
			return nil, err
		}
	}
	for _, k := range r.order {
		if err := r.buildRefDicts(k); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error. Intended for
// static model definitions evaluated at package initialization.
func MustNewRegistry(specs ...KindSpec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

// link resolves the kind's ancestor chain and effective field set.
func (r *Registry) link(k Kind) error {
	entry := r.kinds[k]

	var ancestors []Kind
	for base := entry.spec.Base; base != ""; {
		parent, ok := r.kinds[base]
		if !ok {
			return errors.Errorf("kind %q has unknown base kind %q", k, base)
		}
		ancestors = append(ancestors, base)
		base = parent.spec.Base
	}
	entry.ancestors = ancestors

	// Fields: farthest ancestor first so derived kinds override.
	entry.fields = make(map[string]FieldSpec)
	for i := len(ancestors) - 1; i >= 0; i-- {
		for _, f := range r.kinds[ancestors[i]].spec.Fields {
			entry.fields[f.Name] = f
		}
	}
	for _, f := range entry.spec.Fields {
		entry.fields[f.Name] = f
	}

	return nil
}

// buildRefDicts collects effective reference dictionaries in reverse ancestor
// order, overriding by LocalAttr so the most-derived declaration wins, and
// validates the field contract and child-kind uniqueness.
func (r *Registry) buildRefDicts(k Kind) error {
	entry := r.kinds[k]

	var dicts []RefDict
	index := make(map[string]int)
	add := func(d RefDict) {
		if i, ok := index[d.LocalAttr]; ok {
			dicts[i] = d
			return
		}
		index[d.LocalAttr] = len(dicts)
		dicts = append(dicts, d)
	}
	for i := len(entry.ancestors) - 1; i >= 0; i-- {
		for _, d := range r.kinds[entry.ancestors[i]].spec.RefDicts {
			add(d)
		}
	}
	for _, d := range entry.spec.RefDicts {
		add(d)
	}

	entry.byField = make(map[string]RefDict, len(dicts))
	entry.byChild = make(map[Kind]RefDict, len(dicts))

	for _, d := range dicts {
		for _, attr := range []string{d.Attr, d.LocalAttr} {
			spec, ok := entry.fields[attr]
			if !ok {
				return &FieldContractError{Kind: k, Field: attr, Msg: "no such field"}
			}
			if spec.Inheritable {
				return &FieldContractError{Kind: k, Field: attr, Msg: "field must not be inheritable"}
			}
			if !spec.Ephemeral {
				return &FieldContractError{Kind: k, Field: attr, Msg: "field must be ephemeral"}
			}
			if !spec.Coerced {
				return &FieldContractError{Kind: k, Field: attr, Msg: "field must be coerced"}
			}
		}

		if other, ok := entry.byChild[d.ChildKind]; ok {
			return &AmbiguousReferenceError{
				Kind:      k,
				ChildKind: d.ChildKind,
				Attr:      d.Attr,
				OtherAttr: other.Attr,
			}
		}
		entry.byChild[d.ChildKind] = d
		entry.byField[d.Attr] = d
	}

	entry.refdicts = dicts
	return nil
}

func (r *Registry) entry(k Kind) (*kindEntry, error) {
	entry, ok := r.kinds[k]
	if !ok {
		return nil, errors.Errorf("unknown kind %q", k)
	}
	return entry, nil
}

// RefDicts returns the effective reference dictionaries of kind, in
// declaration order.
func (r *Registry) RefDicts(kind Kind) []RefDict {
	if entry, ok := r.kinds[kind]; ok {
		return entry.refdicts
	}
	return nil
}

// RefDictByField returns the reference dictionary whose full-collection field
// is field.
func (r *Registry) RefDictByField(kind Kind, field string) (RefDict, error) {
	entry, err := r.entry(kind)
	if err != nil {
		return RefDict{}, err
	}
	d, ok := entry.byField[field]
	if !ok {
		return RefDict{}, errors.Errorf("kind %q has no reference dictionary for field %q", kind, field)
	}
	return d, nil
}

// RefDictForChildKind locates the reference dictionary of kind responsible
// for children of childKind, walking the child kind's ancestor chain to find
// the first declared match.
func (r *Registry) RefDictForChildKind(kind, childKind Kind) (RefDict, error) {
	entry, err := r.entry(kind)
	if err != nil {
		return RefDict{}, err
	}
	childEntry, err := r.entry(childKind)
	if err != nil {
		return RefDict{}, err
	}

	for _, ck := range append([]Kind{childKind}, childEntry.ancestors...) {
		if d, ok := entry.byChild[ck]; ok {
			return d, nil
		}
	}
	return RefDict{}, errors.Errorf("kind %q has no reference dictionary for child kind %q", kind, childKind)
}

// FieldSpec returns the effective field metadata for field on kind.
func (r *Registry) FieldSpec(kind Kind, field string) (FieldSpec, bool) {
	entry, ok := r.kinds[kind]
	if !ok {
		return FieldSpec{}, false
	}
	spec, ok := entry.fields[field]
	return spec, ok
}

// Fields returns the effective field specs of kind in stable (sorted) order.
func (r *Registry) Fields(kind Kind) []FieldSpec {
	entry, ok := r.kinds[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(entry.fields))
	for name := range entry.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]FieldSpec, 0, len(names))
	for _, name := range names {
		out = append(out, entry.fields[name])
	}
	return out
}

// KindAncestors returns kind's ancestor kinds, nearest first.
func (r *Registry) KindAncestors(kind Kind) []Kind {
	if entry, ok := r.kinds[kind]; ok {
		return entry.ancestors
	}
	return nil
}

// HasImplicitAncestor reports whether concrete children of kind synthesize an
// abstract parent when their declared base does not exist.
func (r *Registry) HasImplicitAncestor(kind Kind) bool {
	if entry, ok := r.kinds[kind]; ok {
		return entry.spec.ImplicitAncestor
	}
	return false
}

// MaterializeOnInherit reports whether child, when purely inherited, must be
// copied rather than shared.
func (r *Registry) MaterializeOnInherit(child *Object) bool {
	entry, ok := r.kinds[child.Kind]
	if !ok || entry.spec.MaterializeOnInherit == nil {
		return false
	}
	return entry.spec.MaterializeOnInherit(child)
}
