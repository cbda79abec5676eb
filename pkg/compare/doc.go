// Package compare provides generic comparison utilities for structural
// equality testing.
//
// These helpers eliminate boilerplate when implementing equality over catalog
// values: nil-safe pointer comparisons and slice comparisons with custom
// element equality. They are used by the schema package's field and object
// equality and by the delta engine's diffing.
package compare
