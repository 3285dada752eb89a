// Command playctl inspects a signage player from the command line.
//
// It supports the following operations:
//   - check: Fetch the channel playlist once and summarize it
//   - history: Show the most recent plays from the journal
//   - fetches: Show the most recent playlist fetches from the journal
//
// Usage:
//
//	playctl <command> [limit]
//
// Commands:
//
//	check    Resolve the channel from PAGE_URL, fetch its playlist with the
//	         same headers as the player and print every item with its
//	         duration and first segment URL. Exits non-zero when the
//	         channel is missing or the fetch fails.
//
//	history  Print the last plays (default 20) recorded in the journal.
//
//	fetches  Print the last playlist fetches recorded in the journal.
//
// Environment:
//
//	PAGE_URL     - Page URL carrying ?canal=
//	DATABASE_DIR - Path to journal directory (default: /database)
//
// When stdout is a terminal, journal rows are clipped to its width.
package main
