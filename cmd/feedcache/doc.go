// Command feedcache inspects and maintains the playlist widget's SQLite
// feed cache from the command line.
//
// Usage:
//
//	feedcache [--database-dir DIR] <command>
//
// Commands:
//
//	list             List cached feeds with their entry counts and fetch times.
//	show ID          Print the cached entries of one playlist.
//	fetch ID...      Fetch playlists from the feed endpoint and store them,
//	                 replacing any cached copy.
//	purge ID...      Remove cached playlists. With --all, remove every feed.
//
// Environment:
//
//	DATABASE_DIR  - Path to database directory (default: /database)
//	FEED_BASE_URL - Feed endpoint used by fetch
//
// The server reads the same database, so a purge forces the next layout
// load of that playlist to go upstream.
package main
