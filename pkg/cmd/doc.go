// Package cmd provides CLI commands for the chmigrate tool.
//
// # Available Commands
//
//   - migrate: Apply pending migrations (with --dry-run to preview them)
//   - status: Show applied, pending and divergent migrations as text or JSON
//
// # Command Structure
//
// Each command is implemented as a separate function that returns a
// *cli.Command, following the urfave/cli/v3 pattern, and is registered with
// fx through the "commands" group.
//
// # Configuration
//
// Settings are resolved in this order, later sources winning:
//
//  1. built-in defaults
//  2. the config file (chmigrate.yaml, --config or CH_MIGRATIONS_CONFIG)
//  3. CH_MIGRATIONS_* environment variables
//  4. command line flags
//
// # Example Usage
//
//	chmigrate migrate --host localhost:8123 --db analytics
//	chmigrate migrate --host https://ch.internal:8443 --user migrator --dry-run
//	chmigrate status --db analytics --output json
//	chmigrate --log-format json migrate --setting insert_quorum=2
//
// Any error is printed to stderr and the process exits with status 1.
package cmd
