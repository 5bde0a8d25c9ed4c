// Package database provides the SQLite feed cache for the playlist widget
// service.
//
// It stores the last successful fetch of every playlist feed so that
// layouts can be initialised without contacting the upstream while the
// copy is fresh, and can still be served when the upstream is down.
//
// The database uses WAL mode and creates its schema on first open.
package database
