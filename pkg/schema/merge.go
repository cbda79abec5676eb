package schema

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type (
	// DeltaRecorder collects structural change records produced by the merge
	// engine when an operation is recording migration deltas. A nil recorder
	// disables recording.
	DeltaRecorder interface {
		// RecordMerge is invoked whenever finalizing owner produced a merged
		// value for a child that differs from its local declaration. old is
		// nil when the child had no local declaration.
		RecordMerge(snap *Snapshot, owner Name, old, merged *Object)
	}

	// FinalizeOptions tunes one merge engine invocation.
	FinalizeOptions struct {
		// Declarative makes a local declaration shadowing an inherited name
		// without the `inherited` keyword a DefinitionError. Outside of
		// declarative mode the missing keyword is accepted silently.
		Declarative bool

		// Recorder, when non-nil, receives a structural delta for every
		// non-pure merge result.
		Recorder DeltaRecorder

		// RestrictKeys limits merging to the given reference names. Used for
		// incremental rebase; nil considers every key.
		RestrictKeys []string
	}
)

// Finalize recomputes the full and local reference collections of the named
// object from its local declarations plus the given bases (the object's own
// bases when nil). It resolves diamond inheritance by deduplicating
// inheritance sources on the origin owner's qualified name, produces merged
// derived copies where local and inherited definitions meet, and validates
// the `inherited` declaration contract. Key iteration is in lexicographic
// order so repeated merges of unchanged inputs are identical.
func (r *Registry) Finalize(snap *Snapshot, name Name, bases []Name, opts *FinalizeOptions) (*Snapshot, error) {
	if opts == nil {
		opts = &FinalizeOptions{}
	}

	obj, err := snap.Get(name)
	if err != nil {
		return nil, err
	}
	if bases == nil {
		bases = obj.Bases
	}

	baseObjs := make([]*Object, 0, len(bases))
	for _, b := range bases {
		base, err := snap.Get(b)
		if err != nil {
			return nil, errors.Wrapf(err, "finalizing %q", name)
		}
		baseObjs = append(baseObjs, base)
	}

	for _, refdict := range r.RefDicts(obj.Kind) {
		snap, err = r.mergeRefDict(snap, name, refdict, baseObjs, opts)
		if err != nil {
			return nil, err
		}
	}

	return snap, nil
}

// mergeRefDict merges one reference dictionary of the named object.
func (r *Registry) mergeRefDict(snap *Snapshot, name Name, refdict RefDict, bases []*Object, opts *FinalizeOptions) (*Snapshot, error) {
	obj := snap.Lookup(name)
	coll := obj.Collection(refdict.Attr)
	localColl := obj.Collection(refdict.LocalAttr)

	keys := opts.RestrictKeys
	if keys == nil {
		keys = mergeKeys(coll, bases, refdict.Attr)
	} else {
		keys = append([]string(nil), keys...)
		sort.Strings(keys)
	}

	for _, key := range keys {
		var local *Object
		if ref, ok := localColl.Get(key); ok {
			var err error
			if local, err = snap.Get(ref); err != nil {
				return nil, errors.Wrapf(err, "stale local reference %q in %q", key, name)
			}
		}

		// Collect inherited candidates, deduplicated by the qualified name
		// of the origin owner reachable through the backref field. Two bases
		// providing the same ancestor's child are one inheritance source.
		var (
			inherited []*Object
			ancestry  []Name
			seen      = make(map[Name]bool)
		)
		for _, base := range bases {
			ref, ok := base.Collection(refdict.Attr).Get(key)
			if !ok {
				continue
			}
			bref, err := snap.Get(ref)
			if err != nil {
				return nil, errors.Wrapf(err, "stale inherited reference %q in %q", key, base.Name)
			}
			origin := bref.Name
			if v, ok := bref.Field(refdict.BackrefAttr); ok && v.Ref != nil {
				origin = *v.Ref
			}
			if seen[origin] {
				continue
			}
			seen[origin] = true
			inherited = append(inherited, bref)
			ancestry = append(ancestry, origin)
		}

		var (
			merged *Object
			pure   bool
			err    error
		)
		switch {
		case local != nil && len(inherited) > 0:
			snap, merged, err = r.deriveMergedCopy(snap, local, obj, inherited, refdict, opts)

		case len(inherited) > 1:
			snap, merged, err = r.deriveNew(snap, key, obj, inherited, refdict, opts)

		case len(inherited) == 1:
			// Pure inheritance shares the child by reference. Some kinds
			// cannot share safely (e.g. delegated constraints) and
			// materialize a copy on the inheritor instead.
			item := inherited[0]
			if r.MaterializeOnInherit(item) {
				snap, merged, err = r.deriveNew(snap, key, obj, inherited, refdict, opts)
			} else {
				merged = item
				pure = true
			}

		default:
			merged = local
		}
		if err != nil {
			return nil, err
		}

		if local != nil && merged != local {
			if refdict.RequiresExplicitInherit && !local.DeclaredInherited && opts.Declarative {
				return nil, definitionErrorf(local.Source,
					"%s: %s must be declared using the `inherited` keyword because it is defined in the following ancestor(s): %s",
					obj.ShortName(), local.ShortName(), joinNames(ancestry))
			}
		}
		if local != nil && merged == local && local.DeclaredInherited {
			return nil, definitionErrorf(local.Source,
				"%s: %s cannot be declared `inherited` as there are no ancestors defining it",
				obj.ShortName(), local.ShortName())
		}

		if merged != local {
			ref := merged.Name
			if !pure {
				if opts.Recorder != nil {
					opts.Recorder.RecordMerge(snap, name, local, merged)
				}
				if local != nil {
					localColl = localColl.Replace(map[string]*Name{key: &ref})
				}
			}
			coll = coll.Replace(map[string]*Name{key: &ref})
		}
	}

	obj = snap.Lookup(name).
		WithCollection(refdict.Attr, coll).
		WithCollection(refdict.LocalAttr, localColl)
	return snap.Replace(obj), nil
}

// deriveMergedCopy replaces local with a derived copy of itself merged with
// the inherited definitions: unset inheritable scalar fields are filled from
// the inheritance sources in order, and the copy's own reference collections
// are finalized against them (e.g. constraint sets union). The copy keeps
// the local declaration's name and identity.
func (r *Registry) deriveMergedCopy(snap *Snapshot, local, owner *Object, mergeBases []*Object, refdict RefDict, opts *FinalizeOptions) (*Snapshot, *Object, error) {
	merged := local.WithBases(names(mergeBases), nil)
	merged.Derived = true
	merged = inheritScalars(r, merged, mergeBases)

	ancestors, err := Linearize(snap, merged.Bases)
	if err != nil {
		return nil, nil, err
	}
	merged = merged.WithBases(merged.Bases, ancestors)

	snap = snap.Replace(merged)
	snap, err = r.Finalize(snap, merged.Name, merged.Bases, &FinalizeOptions{
		Declarative: opts.Declarative,
		Recorder:    opts.Recorder,
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, snap.Lookup(merged.Name), nil
}

// deriveNew materializes a new derived child on owner from the inherited
// definitions alone: multi-source (diamond) merges and kinds that cannot be
// purely inherited both land here. The result is recorded only in the full
// collection since it is not locally declared.
func (r *Registry) deriveNew(snap *Snapshot, key string, owner *Object, mergeBases []*Object, refdict RefDict, opts *FinalizeOptions) (*Snapshot, *Object, error) {
	name := Specialize(key, owner.Name)

	merged := NewObject(name, mergeBases[0].Kind)
	if existing := snap.Lookup(name); existing != nil {
		merged.ID = existing.ID
	} else {
		merged.ID = uuid.New()
	}
	merged.Derived = true
	merged = merged.WithField(refdict.BackrefAttr, RefValue(owner.Name))
	merged = inheritScalars(r, merged, mergeBases)

	bases := names(mergeBases)
	ancestors, err := Linearize(snap, bases)
	if err != nil {
		return nil, nil, err
	}
	merged = merged.WithBases(bases, ancestors)

	snap = snap.Replace(merged)
	snap, err = r.Finalize(snap, merged.Name, merged.Bases, &FinalizeOptions{
		Declarative: opts.Declarative,
		Recorder:    opts.Recorder,
	})
	if err != nil {
		return nil, nil, err
	}
	return snap, snap.Lookup(merged.Name), nil
}

// inheritScalars fills unset inheritable scalar fields from the merge bases
// in order.
func inheritScalars(r *Registry, obj *Object, mergeBases []*Object) *Object {
	for _, spec := range r.Fields(obj.Kind) {
		if !spec.Inheritable {
			continue
		}
		if _, ok := obj.Field(spec.Name); ok {
			continue
		}
		for _, b := range mergeBases {
			if v, ok := b.Field(spec.Name); ok {
				obj = obj.WithField(spec.Name, v)
				break
			}
		}
	}
	return obj
}

// mergeKeys returns the sorted union of the object's full-collection keys
// and those of all bases.
func mergeKeys(coll *Collection, bases []*Object, attr string) []string {
	seen := make(map[string]bool)
	var keys []string
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				keys = append(keys, n)
			}
		}
	}
	add(coll.Names())
	for _, b := range bases {
		add(b.Collection(attr).Names())
	}
	sort.Strings(keys)
	return keys
}

func names(objs []*Object) []Name {
	out := make([]Name, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Name)
	}
	return out
}

func joinNames(ns []Name) string {
	parts := make([]string, 0, len(ns))
	for _, n := range ns {
		parts = append(parts, string(n))
	}
	return strings.Join(parts, ", ")
}
