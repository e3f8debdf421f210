// Package main hosts the perlentaucher CLI.
//
// Running the binary without a subcommand processes the recommendation feed
// once. Subcommands inspect and edit the state file, scaffold configuration
// and send a test notification. Flags on the run path override the matching
// configuration keys for that invocation only.
package main
