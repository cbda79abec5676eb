package schema

import (
	"fmt"
	"strings"
)

// Name is a qualified schema object name in "module::short" form, e.g.
// "default::User". Children declared inside an owner carry a specialized
// short name ("short@@flattened-owner") so that identically-named children
// of different owners never collide in the catalog.
type Name string

// QName builds a qualified name from a module and a short name.
func QName(module, short string) Name {
	return Name(module + "::" + short)
}

// Module returns the module portion of the name, or "" for unqualified names.
func (n Name) Module() string {
	if i := strings.Index(string(n), "::"); i >= 0 {
		return string(n)[:i]
	}
	return ""
}

// Local returns the name portion without the module qualifier, including any
// specialization suffix.
func (n Name) Local() string {
	if i := strings.Index(string(n), "::"); i >= 0 {
		return string(n)[i+2:]
	}
	return string(n)
}

// Short returns the unqualified short name with any specialization suffix
// stripped. This is the key used in reference collections.
func (n Name) Short() string {
	local := n.Local()
	if i := strings.Index(local, "@@"); i >= 0 {
		return local[:i]
	}
	return local
}

// IsSpecialized reports whether the name carries an owner qualification.
func (n Name) IsSpecialized() bool {
	return strings.Contains(n.Local(), "@@")
}

// Specialize derives the catalog name for a child named short declared on
// owner. The owner name is flattened into the specialization suffix so the
// result remains a single qualified name.
func Specialize(short string, owner Name) Name {
	flat := strings.ReplaceAll(string(owner), "::", "|")
	return QName(owner.Module(), short+"@@"+flat)
}

// SourceInfo records where a declaration originated, for diagnostics.
type SourceInfo struct {
	File   string
	Line   int
	Column int
}

func (s *SourceInfo) String() string {
	if s == nil {
		return "<unknown>"
	}
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}
