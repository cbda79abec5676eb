package schema

import "sort"

type (
	// Collection is an immutable, ordered mapping from short reference names
	// to qualified object names. Keys iterate in lexicographic order so that
	// repeated merges over unchanged inputs produce identical results.
	//
	// A nil *Collection behaves as an empty collection; all operations are
	// pure and return new values, never mutating shared state.
	Collection struct {
		keys []string
		refs map[string]Name
	}

	// CollectionItem is one key/reference pair of a Collection.
	CollectionItem struct {
		Key string
		Ref Name
	}
)

// NewCollection builds a collection from the given references.
func NewCollection(refs map[string]Name) *Collection {
	c := &Collection{
		keys: make([]string, 0, len(refs)),
		refs: make(map[string]Name, len(refs)),
	}
	for k, v := range refs {
		c.keys = append(c.keys, k)
		c.refs[k] = v
	}
	sort.Strings(c.keys)
	return c
}

// Has reports whether the collection contains key.
func (c *Collection) Has(key string) bool {
	if c == nil {
		return false
	}
	_, ok := c.refs[key]
	return ok
}

// Get returns the reference stored under key.
func (c *Collection) Get(key string) (Name, bool) {
	if c == nil {
		return "", false
	}
	ref, ok := c.refs[key]
	return ref, ok
}

// Names returns the keys in lexicographic order.
func (c *Collection) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Items returns the key/reference pairs in key order.
func (c *Collection) Items() []CollectionItem {
	if c == nil {
		return nil
	}
	out := make([]CollectionItem, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, CollectionItem{Key: k, Ref: c.refs[k]})
	}
	return out
}

// Len returns the number of entries.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Replace produces a new collection with updates applied. A nil value in
// updates is a tombstone removing the key; a non-nil value inserts or
// replaces the reference under that key. The receiver is left untouched.
func (c *Collection) Replace(updates map[string]*Name) *Collection {
	refs := make(map[string]Name, c.Len()+len(updates))
	for _, item := range c.Items() {
		refs[item.Key] = item.Ref
	}
	for k, v := range updates {
		if v == nil {
			delete(refs, k)
		} else {
			refs[k] = *v
		}
	}
	return NewCollection(refs)
}

// Equal compares two collections by keys and references.
func (c *Collection) Equal(other *Collection) bool {
	if c.Len() != other.Len() {
		return false
	}
	for _, item := range c.Items() {
		ref, ok := other.Get(item.Key)
		if !ok || ref != item.Ref {
			return false
		}
	}
	return true
}
