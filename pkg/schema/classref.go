package schema

// AddClassref inserts child into the owner's reference collection held in
// field (the full-collection field of one of the owner kind's reference
// dictionaries). The key is the child's short name. Adding a key already
// declared locally is a DuplicateReferenceError unless replace is set. Both
// the local and the full collection receive the reference.
func (r *Registry) AddClassref(snap *Snapshot, owner Name, field string, child *Object, replace bool) (*Snapshot, error) {
	obj, err := snap.Get(owner)
	if err != nil {
		return nil, err
	}
	refdict, err := r.RefDictByField(obj.Kind, field)
	if err != nil {
		return nil, err
	}

	key := child.ShortName()
	local := obj.Collection(refdict.LocalAttr)

	if local.Has(key) && !replace {
		return nil, &DuplicateReferenceError{
			Owner:  owner,
			Field:  refdict.Attr,
			Ref:    key,
			Source: child.Source,
		}
	}

	ref := child.Name
	updates := map[string]*Name{key: &ref}
	obj = obj.WithCollection(refdict.LocalAttr, local.Replace(updates))
	obj = obj.WithCollection(refdict.Attr, obj.Collection(refdict.Attr).Replace(updates))

	return snap.Replace(obj), nil
}

// DelClassref removes the reference named refName from the owner's
// collection held in field. If no base still provides the name, the removal
// cascades to every descendant that does not locally override it: a purely
// local definition, once removed, must vanish from all non-overriding
// descendants. The local collection always drops the key if present.
func (r *Registry) DelClassref(snap *Snapshot, owner Name, field string, refName string) (*Snapshot, error) {
	obj, err := snap.Get(owner)
	if err != nil {
		return nil, err
	}
	refdict, err := r.RefDictByField(obj.Kind, field)
	if err != nil {
		return nil, err
	}

	key := Name(refName).Short()
	tombstone := map[string]*Name{key: nil}

	isInherited := false
	for _, b := range obj.Bases {
		base, err := snap.Get(b)
		if err != nil {
			return nil, err
		}
		if base.Collection(refdict.Attr).Has(key) {
			isInherited = true
			break
		}
	}

	if !isInherited {
		obj = obj.WithCollection(refdict.Attr, obj.Collection(refdict.Attr).Replace(tombstone))
		snap = snap.Replace(obj)

		for _, descendant := range snap.Descendants(owner) {
			if descendant.Collection(refdict.LocalAttr).Has(key) {
				continue
			}
			coll := descendant.Collection(refdict.Attr)
			if !coll.Has(key) {
				continue
			}
			snap = snap.Replace(descendant.WithCollection(refdict.Attr, coll.Replace(tombstone)))
		}

		// Re-read: the cascade may have republished the owner.
		obj = snap.Lookup(owner)
	}

	if local := obj.Collection(refdict.LocalAttr); local.Has(key) {
		obj = obj.WithCollection(refdict.LocalAttr, local.Replace(tombstone))
		snap = snap.Replace(obj)
	}

	return snap, nil
}

// ClassrefOrigin walks the owner and its ancestors in linearization order
// and returns the first (or, with farthest, the last) object whose local
// collection declares refName. Failure signals internal catalog
// inconsistency, such as a stale reference surviving a rebase, and must
// abort the enclosing operation.
func (r *Registry) ClassrefOrigin(snap *Snapshot, owner Name, field string, refName string, farthest bool) (*Object, error) {
	obj, err := snap.Get(owner)
	if err != nil {
		return nil, err
	}
	refdict, err := r.RefDictByField(obj.Kind, field)
	if err != nil {
		return nil, err
	}

	key := Name(refName).Short()

	var result *Object
	if obj.Collection(refdict.LocalAttr).Has(key) {
		result = obj
	}

	if result == nil || farthest {
		for _, a := range obj.Ancestors {
			ancestor, err := snap.Get(a)
			if err != nil {
				return nil, err
			}
			if ancestor.Collection(refdict.LocalAttr).Has(key) {
				result = ancestor
				if !farthest {
					break
				}
			}
		}
	}

	if result == nil {
		return nil, &OriginNotFoundError{Owner: owner, Field: refdict.Attr, Ref: key}
	}
	return result, nil
}
