// Package main provides the entry point for the playlist widget server.
//
// The server renders interactive playlist widgets: for each layout it
// fetches a public video feed, keeps a selectable list of the entries and
// drives an embedded player, following the status messages the player
// reports back so that the list and the player agree on the current entry.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables and validates the database directory
//  2. Database Initialization: Opens the SQLite feed cache
//  3. Component Initialization:
//     - Feed provider: HTTP feed client behind the feed cache
//     - Registry: binds player handles to playlist sessions
//     - Layout manager and player message router
//     - Metrics Collector: Gathers layout counts for Prometheus
//  4. HTTP Server Setup: Configures routes, access logging, metrics and compression middleware and starts the servers
//  5. Layout Bootstrap: Loads PLAYLIST_LAYOUTS concurrently; /readyz turns ready afterwards
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM and releases every layout
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Layout API under /api/layouts
//     - Player message relay under /api/player
//     - Feed and feed cache endpoints under /api/feed and /api/feeds
//     - Health and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// See [playlist-widget/internal/startup] for the environment variables.
package main
