package schema

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Snapshot is one immutable version of the whole catalog: an association
// from qualified names to object values. Mutating operations return a new
// snapshot sharing structure with the old one; no snapshot is ever modified
// after being returned, so multiple candidate catalog versions can coexist
// without locking. Discarding a candidate snapshot is a free rollback.
type Snapshot struct {
	id      uuid.UUID
	version int
	objects map[Name]*Object
}

// NewSnapshot returns an empty catalog version.
func NewSnapshot() *Snapshot {
	return &Snapshot{id: uuid.New(), objects: make(map[Name]*Object)}
}

// ID is the snapshot's unique version identity.
func (s *Snapshot) ID() uuid.UUID { return s.id }

// Version is a monotonically increasing counter across derived snapshots.
func (s *Snapshot) Version() int { return s.version }

// Len returns the number of objects in the catalog.
func (s *Snapshot) Len() int { return len(s.objects) }

// Has reports whether name exists in the catalog.
func (s *Snapshot) Has(name Name) bool {
	_, ok := s.objects[name]
	return ok
}

// Lookup returns the object stored under name, or nil.
func (s *Snapshot) Lookup(name Name) *Object {
	return s.objects[name]
}

// Get returns the object stored under name or an error.
func (s *Snapshot) Get(name Name) (*Object, error) {
	obj, ok := s.objects[name]
	if !ok {
		return nil, errors.Errorf("schema object %q does not exist", name)
	}
	return obj, nil
}

// Names returns all object names in sorted order.
func (s *Snapshot) Names() []Name {
	names := make([]Name, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Objects returns all objects in name order.
func (s *Snapshot) Objects() []*Object {
	names := s.Names()
	out := make([]*Object, 0, len(names))
	for _, name := range names {
		out = append(out, s.objects[name])
	}
	return out
}

// derive clones the snapshot for a copy-on-write update.
func (s *Snapshot) derive() *Snapshot {
	objects := make(map[Name]*Object, len(s.objects)+1)
	for k, v := range s.objects {
		objects[k] = v
	}
	return &Snapshot{id: uuid.New(), version: s.version + 1, objects: objects}
}

// Add publishes a new object into a derived snapshot. Adding a name that
// already exists is an error.
func (s *Snapshot) Add(obj *Object) (*Snapshot, error) {
	if s.Has(obj.Name) {
		return nil, errors.Errorf("schema object %q already exists", obj.Name)
	}
	next := s.derive()
	next.objects[obj.Name] = obj
	return next, nil
}

// Replace publishes a new value for an existing (or new) name.
func (s *Snapshot) Replace(obj *Object) *Snapshot {
	next := s.derive()
	next.objects[obj.Name] = obj
	return next
}

// Delete removes name from a derived snapshot.
func (s *Snapshot) Delete(name Name) *Snapshot {
	next := s.derive()
	delete(next.objects, name)
	return next
}

// Rename moves the object stored under old to newName, preserving identity.
func (s *Snapshot) Rename(old, newName Name) (*Snapshot, error) {
	obj, err := s.Get(old)
	if err != nil {
		return nil, err
	}
	if s.Has(newName) {
		return nil, errors.Errorf("schema object %q already exists", newName)
	}
	next := s.derive()
	delete(next.objects, old)
	next.objects[newName] = obj.WithName(newName)
	return next, nil
}

// Children returns the objects whose declared bases include name, in name
// order.
func (s *Snapshot) Children(name Name) []*Object {
	var out []*Object
	for _, obj := range s.Objects() {
		for _, b := range obj.Bases {
			if b == name {
				out = append(out, obj)
				break
			}
		}
	}
	return out
}

// Descendants returns the objects whose ancestor linearization includes
// name, in name order. This is a reverse index lookup over the catalog, not
// state carried on the object.
func (s *Snapshot) Descendants(name Name) []*Object {
	var out []*Object
	for _, obj := range s.Objects() {
		for _, a := range obj.Ancestors {
			if a == name {
				out = append(out, obj)
				break
			}
		}
	}
	return out
}
