package schema

import "sort"

// Rebase changes the object's declared bases and propagates the change
// through the inheritance tree. For the object and every descendant, the
// linearization is recomputed and any full-collection reference with no
// surviving origin under the new base list is pruned. Pruning runs before
// the merge engine so reinheritance from the new bases is not shadowed by
// stale entries.
func (r *Registry) Rebase(snap *Snapshot, name Name, bases []Name, opts *FinalizeOptions) (*Snapshot, error) {
	obj, err := snap.Get(name)
	if err != nil {
		return nil, err
	}

	ancestors, err := Linearize(snap, bases)
	if err != nil {
		return nil, err
	}
	snap = snap.Replace(obj.WithBases(bases, ancestors))

	// Descendant linearizations change with the new bases. Recompute from
	// the shallowest descendant down so each sees its bases' fresh caches.
	descendants := sortByDepth(snap.Descendants(name))
	for _, d := range descendants {
		danc, err := Linearize(snap, snap.Lookup(d.Name).Bases)
		if err != nil {
			return nil, err
		}
		snap = snap.Replace(snap.Lookup(d.Name).WithBases(snap.Lookup(d.Name).Bases, danc))
	}

	affected := append([]Name{name}, objectNames(descendants)...)

	for _, target := range affected {
		if snap, err = r.pruneDangling(snap, target); err != nil {
			return nil, err
		}
	}

	for _, target := range affected {
		if snap, err = r.Finalize(snap, target, nil, opts); err != nil {
			return nil, err
		}
	}

	return snap, nil
}

// pruneDangling removes full-collection references that are not local and
// whose origin can no longer be found among the object's ancestors.
func (r *Registry) pruneDangling(snap *Snapshot, name Name) (*Snapshot, error) {
	obj := snap.Lookup(name)

	for _, refdict := range r.RefDicts(obj.Kind) {
		coll := obj.Collection(refdict.Attr)
		localColl := obj.Collection(refdict.LocalAttr)

		for _, key := range coll.Names() {
			if localColl.Has(key) {
				continue
			}
			_, err := r.ClassrefOrigin(snap, name, refdict.Attr, key, false)
			if err == nil {
				continue
			}
			if _, ok := err.(*OriginNotFoundError); !ok {
				return nil, err
			}
			coll = coll.Replace(map[string]*Name{key: nil})
		}

		obj = obj.WithCollection(refdict.Attr, coll)
		snap = snap.Replace(obj)
	}

	return snap, nil
}

// sortByDepth orders objects by ancestor count so bases precede their
// descendants.
func sortByDepth(objs []*Object) []*Object {
	out := append([]*Object(nil), objs...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Ancestors) < len(out[j].Ancestors)
	})
	return out
}

func objectNames(objs []*Object) []Name {
	out := make([]Name, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Name)
	}
	return out
}
