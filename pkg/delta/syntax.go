package delta

import (
	"sort"

	"github.com/latticedb/lattice/pkg/schema"
	"github.com/pkg/errors"
)

// SyntaxNode is the contract between the upstream syntax layer and the
// command parser. Parsed declarations expose their element kind tag, the
// declared name and bases, nested child declarations, modifier flags, scalar
// field values and source-location metadata.
type SyntaxNode interface {
	// ElementKind is the declaration's kind tag: "type", "property",
	// "link", "constraint" or "index".
	ElementKind() string

	// DeclaredName is the declared (unqualified or qualified) name.
	DeclaredName() string

	// DeclaredBases lists the declared base type names.
	DeclaredBases() []string

	// NodeChildren returns the nested child declarations.
	NodeChildren() []SyntaxNode

	// IsAbstract reports the `abstract` modifier.
	IsAbstract() bool

	// IsInherited reports the `inherited` modifier.
	IsInherited() bool

	// ScalarFields returns the declaration's scalar field values keyed by
	// catalog field name.
	ScalarFields() map[string]schema.FieldValue

	// Location returns source-location metadata for diagnostics.
	Location() *schema.SourceInfo
}

// DefaultModule qualifies unqualified declaration names.
const DefaultModule = "default"

var elementKinds = map[string]schema.Kind{
	"type":       schema.KindObjectType,
	"property":   schema.KindProperty,
	"link":       schema.KindLink,
	"constraint": schema.KindConstraint,
	"index":      schema.KindIndex,
}

// CommandFromSyntax classifies a parsed declaration into a typed Create
// command tree. A child declared nested inside an owner has its classname
// qualified by combining the owner's name with the child's local name (the
// specialized name scheme), so identically-named children of different
// owners never collide in the catalog.
func CommandFromSyntax(node SyntaxNode, ctx *Context) (Command, error) {
	kind, ok := elementKinds[node.ElementKind()]
	if !ok {
		return nil, errors.Errorf("unknown schema element kind %q", node.ElementKind())
	}

	name := qualify(node.DeclaredName())
	if cur := ctx.Current(); cur != nil {
		name = schema.Specialize(node.DeclaredName(), cur.Op.Target())
	}

	cmd := &CreateObject{
		CommandBase:       CommandBase{ClassName: name, Kind: kind},
		Abstract:          node.IsAbstract(),
		DeclaredInherited: node.IsInherited(),
		Source:            node.Location(),
	}

	if ctx.Current() == nil {
		for _, b := range node.DeclaredBases() {
			cmd.Bases = append(cmd.Bases, qualify(b))
		}
	}

	fields := node.ScalarFields()
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	for _, f := range names {
		cmd.Add(&SetField{Field: f, Value: fields[f]})
	}

	ctx.Push(&Frame{Op: cmd})
	for _, child := range node.NodeChildren() {
		sub, err := CommandFromSyntax(child, ctx)
		if err != nil {
			ctx.Pop()
			return nil, err
		}
		cmd.Add(sub)
	}
	ctx.Pop()

	return cmd, nil
}

func qualify(name string) schema.Name {
	if schema.Name(name).Module() != "" {
		return schema.Name(name)
	}
	return schema.QName(DefaultModule, name)
}
