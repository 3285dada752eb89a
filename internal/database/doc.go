// Package database keeps the play journal of the player in SQLite.
//
// Two tables are written: plays (one row per slide shown to completion) and
// fetches (one row per playlist fetch attempt, successful or not). Rows carry
// the run id of the process and the channel name so several runs can share
// one file. The Journal type writes them from player events; the web
// surface and playctl read them back.
//
// The database uses WAL mode so readers do not block the player.
package database
