// Package cmd provides the CLI commands for the lattice tool.
//
// The package implements the command-line interface for lattice,
// providing commands for schema validation, catalog inspection and
// migration plan generation. Commands work standalone on explicit schema
// files or inside a project directory carrying a lattice.yaml.
//
// # Available Commands
//
//   - diff: Compile two schema versions and print the migration plan
//   - check: Validate a schema definition in declarative mode
//   - inspect: Dump the compiled catalog snapshot as YAML
//
// Each command is implemented as a separate function returning a
// *cli.Command, following the urfave/cli/v3 pattern.
package cmd
