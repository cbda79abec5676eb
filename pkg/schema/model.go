package schema

// Field names of the standard catalog model.
const (
	FieldPointers       = "pointers"
	FieldOwnPointers    = "own_pointers"
	FieldConstraints    = "constraints"
	FieldOwnConstraints = "own_constraints"
	FieldIndexes        = "indexes"
	FieldOwnIndexes     = "own_indexes"
	FieldSource         = "source"
	FieldSubject        = "subject"
	FieldType           = "type"
	FieldRequired       = "required"
	FieldDefault        = "default"
	FieldExpr           = "expr"
	FieldDelegated      = "delegated"
)

// DefaultRegistry is the standard catalog model: object types owning
// pointers (properties and links), constraints and indexes; pointers owning
// their own constraints. Built and validated once at package initialization.
var DefaultRegistry = MustNewRegistry(
	KindSpec{
		Kind: KindObjectType,
		Fields: []FieldSpec{
			{Name: FieldPointers, Ephemeral: true, Coerced: true},
			{Name: FieldOwnPointers, Ephemeral: true, Coerced: true},
			{Name: FieldConstraints, Ephemeral: true, Coerced: true},
			{Name: FieldOwnConstraints, Ephemeral: true, Coerced: true},
			{Name: FieldIndexes, Ephemeral: true, Coerced: true},
			{Name: FieldOwnIndexes, Ephemeral: true, Coerced: true},
		},
		RefDicts: []RefDict{
			{
				Attr:                    FieldPointers,
				LocalAttr:               FieldOwnPointers,
				BackrefAttr:             FieldSource,
				ChildKind:               KindPointer,
				RequiresExplicitInherit: true,
			},
			{
				Attr:        FieldConstraints,
				LocalAttr:   FieldOwnConstraints,
				BackrefAttr: FieldSubject,
				ChildKind:   KindConstraint,
			},
			{
				Attr:        FieldIndexes,
				LocalAttr:   FieldOwnIndexes,
				BackrefAttr: FieldSubject,
				ChildKind:   KindIndex,
			},
		},
	},
	KindSpec{
		Kind: KindPointer,
		Fields: []FieldSpec{
			{Name: FieldType, Inheritable: true},
			{Name: FieldRequired, Inheritable: true},
			{Name: FieldDefault, Inheritable: true},
			{Name: FieldSource},
			{Name: FieldConstraints, Ephemeral: true, Coerced: true},
			{Name: FieldOwnConstraints, Ephemeral: true, Coerced: true},
		},
		RefDicts: []RefDict{
			{
				Attr:        FieldConstraints,
				LocalAttr:   FieldOwnConstraints,
				BackrefAttr: FieldSubject,
				ChildKind:   KindConstraint,
			},
		},
	},
	KindSpec{
		Kind:             KindProperty,
		Base:             KindPointer,
		ImplicitAncestor: true,
	},
	KindSpec{
		Kind:             KindLink,
		Base:             KindPointer,
		ImplicitAncestor: true,
	},
	KindSpec{
		Kind:             KindConstraint,
		ImplicitAncestor: true,
		Fields: []FieldSpec{
			{Name: FieldExpr, Inheritable: true},
			// Delegated constraints are not inheritable as such: inheriting
			// one materializes a concrete, non-delegated copy.
			{Name: FieldDelegated},
			{Name: FieldSubject},
		},
		MaterializeOnInherit: func(child *Object) bool {
			v, ok := child.Field(FieldDelegated)
			return ok && v.Bool != nil && *v.Bool
		},
	},
	KindSpec{
		Kind: KindIndex,
		Fields: []FieldSpec{
			{Name: FieldExpr, Inheritable: true},
			{Name: FieldSubject},
		},
	},
)
