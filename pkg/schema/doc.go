// Package schema implements the immutable, versioned schema catalog: object
// kinds and their reference dictionaries, persistent reference collections,
// the inheritance merge engine, and the classref mutation API with cascading
// propagation through the inheritance tree.
//
// The catalog is purely functional. A Snapshot is one immutable version of
// the whole catalog; every mutating operation takes a snapshot and returns a
// new one, so multiple candidate versions (for example, a pending migration
// validated against the live catalog) coexist without locking. Rolling back
// is discarding the candidate snapshot.
//
// Object kinds and their owned child collections are described statically by
// a Registry, built once at startup from explicit KindSpec registrations and
// validated eagerly: a reference dictionary whose fields violate the
// inheritable/ephemeral/coerced contract, or two dictionaries on one kind
// targeting the same child kind, fail registry construction rather than
// surfacing as data-dependent runtime errors.
//
// Basic usage:
//
//	reg := schema.DefaultRegistry
//	snap := schema.NewSnapshot()
//
//	base := schema.NewObject(schema.QName("default", "Named"), schema.KindObjectType)
//	snap, err := snap.Add(base)
//	if err != nil {
//		// ...
//	}
//
//	// Attach a property and recompute the effective collections.
//	snap, err = reg.AddClassref(snap, base.Name, schema.FieldPointers, prop, false)
//	if err != nil {
//		// ...
//	}
//	snap, err = reg.Finalize(snap, base.Name, nil, nil)
//
// The merge engine (Finalize) computes each object's effective child
// collections from its local declarations plus its bases, resolving diamond
// inheritance by deduplicating inheritance sources on the origin owner's
// qualified name and validating the `inherited` declaration contract.
package schema
