package delta

import (
	"github.com/latticedb/lattice/pkg/schema"
	"github.com/pkg/errors"
)

// Apply implements Command for Group: subcommands apply in list order.
func (g *Group) Apply(snap *schema.Snapshot, ctx *Context) (*schema.Snapshot, *schema.Object, error) {
	var (
		last *schema.Object
		err  error
	)
	for _, sub := range g.Subcommands() {
		if snap, last, err = sub.Apply(snap, ctx); err != nil {
			return nil, nil, err
		}
	}
	return snap, last, nil
}

// Apply implements Command for CreateObject.
//
// CreateBegin: when nested inside an owner, the declared base type (the
// unspecialized short name) is resolved; if it does not exist and the kind
// has an implicit abstract ancestor, one is synthesized automatically.
// CreateInnards: the child's backref is set to the owner, the owner's
// collections receive the reference, and every descendant of the owner
// lacking a local override receives the same reference into its full
// collection. Nested subcommands then apply within this object's scope, and
// the merge engine finalizes the effective collections.
func (c *CreateObject) Apply(snap *schema.Snapshot, ctx *Context) (*schema.Snapshot, *schema.Object, error) {
	referrer := ctx.Current()

	snap, obj, err := c.createBegin(snap, ctx, referrer)
	if err != nil {
		return nil, nil, err
	}

	if snap, obj, err = c.createInnards(snap, ctx, referrer, obj); err != nil {
		return nil, nil, err
	}

	frame := &Frame{Op: c, Obj: obj}
	ctx.Push(frame)
	for _, sub := range c.Subcommands() {
		if _, ok := sub.(*SetField); ok {
			continue
		}
		if snap, _, err = sub.Apply(snap, ctx); err != nil {
			ctx.Pop()
			return nil, nil, err
		}
		frame.Obj = snap.Lookup(obj.Name)
	}
	ctx.Pop()

	if snap, err = ctx.Registry.Finalize(snap, obj.Name, nil, ctx.finalizeOptions()); err != nil {
		return nil, nil, err
	}
	return snap, snap.Lookup(obj.Name), nil
}

func (c *CreateObject) createBegin(snap *schema.Snapshot, ctx *Context, referrer *Frame) (*schema.Snapshot, *schema.Object, error) {
	obj := schema.NewObject(c.ClassName, c.Kind)
	obj.Abstract = c.Abstract
	obj.DeclaredInherited = c.DeclaredInherited
	obj.Source = c.Source

	bases := c.Bases
	if referrer != nil && len(bases) == 0 {
		baseName := schema.QName(c.ClassName.Module(), c.ClassName.Short())
		if !snap.Has(baseName) {
			if !ctx.Registry.HasImplicitAncestor(c.Kind) {
				return nil, nil, errors.Errorf(
					"cannot create %q: base type %q does not exist", c.ClassName, baseName)
			}
			// Certain concrete child kinds create their abstract parent
			// implicitly.
			parent := schema.NewObject(baseName, c.Kind)
			parent.Abstract = true
			var err error
			if snap, err = snap.Add(parent); err != nil {
				return nil, nil, err
			}
		}
		bases = []schema.Name{baseName}
	}

	for _, sf := range c.SetFields() {
		obj = obj.WithField(sf.Field, sf.Value)
	}

	ancestors, err := schema.Linearize(snap, bases)
	if err != nil {
		return nil, nil, err
	}
	obj = obj.WithBases(bases, ancestors)

	if snap, err = snap.Add(obj); err != nil {
		return nil, nil, err
	}
	return snap, snap.Lookup(obj.Name), nil
}

func (c *CreateObject) createInnards(snap *schema.Snapshot, ctx *Context, referrer *Frame, obj *schema.Object) (*schema.Snapshot, *schema.Object, error) {
	if referrer == nil {
		return snap, obj, nil
	}

	refdict, err := ctx.Registry.RefDictForChildKind(referrer.Obj.Kind, obj.Kind)
	if err != nil {
		return nil, nil, err
	}

	obj = obj.WithField(refdict.BackrefAttr, schema.RefValue(referrer.Obj.Name))
	snap = snap.Replace(obj)

	if snap, err = ctx.Registry.AddClassref(snap, referrer.Obj.Name, refdict.Attr, obj, false); err != nil {
		return nil, nil, err
	}
	referrer.Obj = snap.Lookup(referrer.Obj.Name)

	// Propagate the new reference to every descendant of the owner without a
	// local override of this name.
	refName := obj.ShortName()
	ref := obj.Name
	for _, d := range snap.Descendants(referrer.Obj.Name) {
		if d.Collection(refdict.LocalAttr).Has(refName) {
			continue
		}
		coll := d.Collection(refdict.Attr).Replace(map[string]*schema.Name{refName: &ref})
		snap = snap.Replace(d.WithCollection(refdict.Attr, coll))
	}

	return snap, snap.Lookup(obj.Name), nil
}

// Apply implements Command for AlterObject: scalar field changes apply
// first, then nested subcommands within this object's scope; a bases change
// triggers rebase propagation, otherwise the collections are refinalized.
func (a *AlterObject) Apply(snap *schema.Snapshot, ctx *Context) (*schema.Snapshot, *schema.Object, error) {
	obj, err := snap.Get(a.ClassName)
	if err != nil {
		return nil, nil, err
	}

	for _, sf := range a.SetFields() {
		obj = obj.WithField(sf.Field, sf.Value)
	}
	snap = snap.Replace(obj)

	frame := &Frame{Op: a, Obj: obj}
	ctx.Push(frame)
	for _, sub := range a.Subcommands() {
		if _, ok := sub.(*SetField); ok {
			continue
		}
		if snap, _, err = sub.Apply(snap, ctx); err != nil {
			ctx.Pop()
			return nil, nil, err
		}
		frame.Obj = snap.Lookup(obj.Name)
	}
	ctx.Pop()

	if a.NewBases != nil {
		snap, err = ctx.Registry.Rebase(snap, obj.Name, a.NewBases, ctx.finalizeOptions())
	} else {
		snap, err = ctx.Registry.Finalize(snap, obj.Name, nil, ctx.finalizeOptions())
	}
	if err != nil {
		return nil, nil, err
	}
	return snap, snap.Lookup(obj.Name), nil
}

// Apply implements Command for RenameObject: the object is renamed in the
// catalog preserving identity; when nested inside an owner, the key moves in
// the owner's full and local collections and in every non-overriding
// descendant's full collection.
func (r *RenameObject) Apply(snap *schema.Snapshot, ctx *Context) (*schema.Snapshot, *schema.Object, error) {
	referrer := ctx.Current()

	obj, err := snap.Get(r.ClassName)
	if err != nil {
		return nil, nil, err
	}

	if snap, err = snap.Rename(r.ClassName, r.NewName); err != nil {
		return nil, nil, err
	}

	if referrer != nil {
		oldKey := r.ClassName.Short()
		newKey := r.NewName.Short()
		if oldKey != newKey {
			refdict, err := ctx.Registry.RefDictForChildKind(referrer.Obj.Kind, obj.Kind)
			if err != nil {
				return nil, nil, err
			}
			newRef := r.NewName

			owner := snap.Lookup(referrer.Obj.Name)
			for _, field := range []string{refdict.Attr, refdict.LocalAttr} {
				coll := owner.Collection(field)
				if !coll.Has(oldKey) {
					continue
				}
				owner = owner.WithCollection(field, coll.Replace(map[string]*schema.Name{
					oldKey: nil,
					newKey: &newRef,
				}))
			}
			snap = snap.Replace(owner)
			referrer.Obj = owner

			for _, d := range snap.Descendants(owner.Name) {
				if d.Collection(refdict.LocalAttr).Has(oldKey) {
					continue
				}
				coll := d.Collection(refdict.Attr)
				if !coll.Has(oldKey) {
					continue
				}
				snap = snap.Replace(d.WithCollection(refdict.Attr, coll.Replace(map[string]*schema.Name{
					oldKey: nil,
					newKey: &newRef,
				})))
			}
		}
	}

	return snap, snap.Lookup(r.NewName), nil
}

// Apply implements Command for DeleteObject: explicit child subcommands
// apply first, then an implicit Delete is synthesized for every child still
// present in a local collection, so deleting an owner never leaves orphaned
// locally-declared children. Finally the owner's reference is removed from
// its own referrer, cascading per the classref deletion rules.
func (d *DeleteObject) Apply(snap *schema.Snapshot, ctx *Context) (*schema.Snapshot, *schema.Object, error) {
	referrer := ctx.Current()

	obj, err := snap.Get(d.ClassName)
	if err != nil {
		return nil, nil, err
	}

	frame := &Frame{Op: d, Obj: obj}
	ctx.Push(frame)

	deleted := make(map[schema.Name]bool)
	for _, refdict := range ctx.Registry.RefDicts(obj.Kind) {
		for _, sub := range d.SubcommandsForKind(ctx.Registry, refdict.ChildKind) {
			var child *schema.Object
			if snap, child, err = sub.Apply(snap, ctx); err != nil {
				ctx.Pop()
				return nil, nil, err
			}
			if child != nil {
				deleted[child.Name] = true
			}
			frame.Obj = snap.Lookup(obj.Name)
		}

		// Implicit deletes for local children not covered explicitly.
		for _, item := range frame.Obj.Collection(refdict.LocalAttr).Items() {
			if deleted[item.Ref] {
				continue
			}
			child := snap.Lookup(item.Ref)
			if child == nil {
				ctx.Pop()
				return nil, nil, &schema.OriginNotFoundError{
					Owner: obj.Name, Field: refdict.Attr, Ref: item.Key,
				}
			}
			op := &DeleteObject{CommandBase: CommandBase{ClassName: item.Ref, Kind: child.Kind}}
			if snap, _, err = op.Apply(snap, ctx); err != nil {
				ctx.Pop()
				return nil, nil, err
			}
			d.Add(op)
			deleted[item.Ref] = true
			frame.Obj = snap.Lookup(obj.Name)
		}
	}
	ctx.Pop()

	if referrer != nil {
		refdict, err := ctx.Registry.RefDictForChildKind(referrer.Obj.Kind, obj.Kind)
		if err != nil {
			return nil, nil, err
		}
		if snap, err = ctx.Registry.DelClassref(snap, referrer.Obj.Name, refdict.Attr, obj.ShortName()); err != nil {
			return nil, nil, err
		}
		referrer.Obj = snap.Lookup(referrer.Obj.Name)
	}

	return snap.Delete(obj.Name), obj, nil
}
