package sdl

import (
	"github.com/latticedb/lattice/pkg/delta"
	"github.com/latticedb/lattice/pkg/schema"
)

// Decl implements delta.SyntaxNode so parsed declarations feed directly into
// the command parser.

// ElementKind implements delta.SyntaxNode.
func (d *Decl) ElementKind() string { return d.Kind }

// DeclaredName implements delta.SyntaxNode.
func (d *Decl) DeclaredName() string { return d.Name }

// DeclaredBases implements delta.SyntaxNode.
func (d *Decl) DeclaredBases() []string { return d.Extends }

// NodeChildren implements delta.SyntaxNode.
func (d *Decl) NodeChildren() []delta.SyntaxNode {
	out := make([]delta.SyntaxNode, 0, len(d.Body))
	for _, child := range d.Body {
		out = append(out, child)
	}
	return out
}

// IsAbstract implements delta.SyntaxNode.
func (d *Decl) IsAbstract() bool { return d.Abstract }

// IsInherited implements delta.SyntaxNode.
func (d *Decl) IsInherited() bool { return d.Inherited }

// ScalarFields implements delta.SyntaxNode, mapping declaration clauses to
// catalog field values.
func (d *Decl) ScalarFields() map[string]schema.FieldValue {
	fields := make(map[string]schema.FieldValue)
	if d.Target != nil {
		fields[schema.FieldType] = schema.StrValue(*d.Target)
	}
	if d.Default != nil {
		fields[schema.FieldDefault] = schema.StrValue(*d.Default)
	}
	if d.Expr != nil {
		fields[schema.FieldExpr] = schema.StrValue(*d.Expr)
	}
	if d.Required {
		fields[schema.FieldRequired] = schema.BoolValue(true)
	}
	if d.Delegated {
		fields[schema.FieldDelegated] = schema.BoolValue(true)
	}
	return fields
}

// Location implements delta.SyntaxNode.
func (d *Decl) Location() *schema.SourceInfo {
	return &schema.SourceInfo{
		File:   d.Pos.Filename,
		Line:   d.Pos.Line,
		Column: d.Pos.Column,
	}
}

// Compile parses an SDL document and applies it declaratively to an empty
// catalog, returning the resulting snapshot. Declarations apply in document
// order; any definition error aborts compilation with the offending
// declaration's source location.
func Compile(name, input string) (*schema.Snapshot, error) {
	return CompileInto(schema.NewSnapshot(), name, input)
}

// CompileInto applies a parsed SDL document on top of an existing snapshot.
func CompileInto(snap *schema.Snapshot, name, input string) (*schema.Snapshot, error) {
	doc, err := ParseString(name, input)
	if err != nil {
		return nil, err
	}

	ctx := delta.NewContext(schema.DefaultRegistry)
	ctx.Declarative = true

	for _, decl := range doc.Decls {
		cmd, err := delta.CommandFromSyntax(decl, ctx)
		if err != nil {
			return nil, err
		}
		if snap, _, err = cmd.Apply(snap, ctx); err != nil {
			return nil, err
		}
	}

	return snap, nil
}
