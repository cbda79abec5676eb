// Package format renders delta command trees as human-readable migration
// plans.
//
// A plan line per command, nested subcommands indented one level deeper:
//
//	CREATE TYPE default::Named
//	ALTER TYPE default::Named
//	    CREATE PROPERTY default::name@@default|Named
//	        SET type := str
//
// Rendering is deterministic for identical inputs, matching the delta
// engine's reproducible ordering guarantees, so plans can be diffed and
// checked into version control.
package format
