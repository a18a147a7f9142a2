// Package cli implements the command-line interface for tour-snoop.
//
// The root command fetches every requested artist's listing, diffs it against
// the snapshot kept in the cache directory, reports added and removed dates
// as text or JSON and then saves the new snapshots. The show subcommand
// prints the snapshots themselves. The process exit code is 0 when nothing
// changed, 2 when there are changes and 1 on error.
package cli
