package schema

import "fmt"

type (
	// DefinitionError reports a user-facing schema definition problem, such as
	// a local declaration that shadows an inherited one without the
	// `inherited` keyword, or an `inherited` keyword with nothing to inherit.
	// It carries the source location of the offending declaration and aborts
	// the enclosing command.
	DefinitionError struct {
		Msg    string
		Source *SourceInfo
	}

	// DuplicateReferenceError reports an attempt to add a reference under a
	// name already declared locally on the owner, without replace semantics.
	DuplicateReferenceError struct {
		Owner  Name
		Field  string
		Ref    string
		Source *SourceInfo
	}

	// AmbiguousReferenceError reports two reference dictionaries on the same
	// owner kind targeting the same child kind. Raised at registry build time.
	AmbiguousReferenceError struct {
		Kind      Kind
		ChildKind Kind
		Attr      string
		OtherAttr string
	}

	// FieldContractError reports a reference dictionary whose declared fields
	// violate the inheritable/ephemeral/coerced contract. Raised at registry
	// build time.
	FieldContractError struct {
		Kind  Kind
		Field string
		Msg   string
	}

	// OriginNotFoundError reports that no ancestor declares a reference that
	// the full collection claims is inherited. It signals internal catalog
	// inconsistency (e.g. stale rebase state) and must abort the operation.
	OriginNotFoundError struct {
		Owner Name
		Field string
		Ref   string
	}
)

func definitionErrorf(src *SourceInfo, format string, args ...any) *DefinitionError {
	return &DefinitionError{Msg: fmt.Sprintf(format, args...), Source: src}
}

func (e *DefinitionError) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("%s: %s", e.Source, e.Msg)
	}
	return e.Msg
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("%s %q is already present in %q", e.Field, e.Ref, e.Owner)
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf(
		"multiple reference dictionaries for %q in %q: %s and %s",
		e.ChildKind, e.Kind, e.Attr, e.OtherAttr,
	)
}

func (e *FieldContractError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Field, e.Msg)
}

func (e *OriginNotFoundError) Error() string {
	return fmt.Sprintf("could not find origin of %s %q in %q", e.Field, e.Ref, e.Owner)
}
