// Package sdl parses the schema definition language into syntax trees and
// compiles them into catalog snapshots.
//
// The language declares object types with nested properties, links,
// constraints and indexes:
//
//	abstract type Named {
//	    property name: str {
//	        constraint exclusive;
//	    }
//	}
//
//	type User extends Named {
//	    inherited property name: str;
//	    index idx_name on (name);
//	}
//
// Parsed declarations implement delta.SyntaxNode and feed the command parser
// directly; Compile is the convenience path from source text to a finalized
// snapshot. Declarations are applied in declarative mode: a local
// declaration shadowing an inherited name must carry the `inherited`
// keyword.
package sdl
