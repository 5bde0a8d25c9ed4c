// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - DATABASE_DIR: Directory holding the feed cache database (default: /database)
//   - FEED_BASE_URL: Playlist feed endpoint (default: YouTube public feeds)
//   - FEED_TIMEOUT: Feed request timeout as Go duration (default: 10s)
//   - FEED_CACHE_TTL: How long a cached feed is served without refetching (default: 15m)
//   - EMBED_BASE: Player embed location (default: youtube-nocookie.com/embed/)
//   - PLAYER_ORIGIN: Public origin of the page hosting the players (default: http://localhost:PORT)
//   - ALLOWED_MESSAGE_ORIGIN: Comma-separated hosts players may post from
//     (default: youtube.com,youtube-nocookie.com)
//   - PLAYLIST_LAYOUTS: Comma-separated playlist ids to load at startup
//   - INITIAL_INDEX: Entry selected when a layout loads (default: 0)
//   - FEED_WORKERS: Overrides the number of concurrent startup feed fetches
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - COMPRESSION_ENABLED: Encode responses with brotli or gzip (default: true)
//   - ENV_FILE: Dotenv file read before the variables above (default: .env, optional)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogDatabaseInit(dbInitDuration)
//	startup.LogBootstrapInit(len(config.Layouts))
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
