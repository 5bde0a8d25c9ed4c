package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_widget_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlist_widget_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlist_widget_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Feed metrics
var (
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_widget_feed_fetches_total",
			Help: "Total number of upstream playlist feed fetches",
		},
		[]string{"status"}, // "success", "fetch_error", "parse_error", "error"
	)

	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playlist_widget_feed_fetch_duration_seconds",
			Help:    "Upstream playlist feed fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	FeedEntriesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlist_widget_feed_entries_fetched_total",
			Help: "Total number of playlist entries returned by successful fetches",
		},
	)

	FeedCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlist_widget_feed_cache_hits_total",
			Help: "Total number of fresh feed cache hits",
		},
	)

	FeedCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlist_widget_feed_cache_misses_total",
			Help: "Total number of feed cache misses",
		},
	)

	FeedCacheStaleServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playlist_widget_feed_cache_stale_served_total",
			Help: "Total number of expired cache entries served because the upstream failed",
		},
	)
)

// Selection metrics
var (
	SelectionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_widget_selection_transitions_total",
			Help: "Total number of selection inputs by source and result",
		},
		[]string{"source", "result"}, // source: seed/user/player; result: applied/noop/rejected
	)

	PlayerMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_widget_player_messages_total",
			Help: "Total number of inbound player messages by result",
		},
		[]string{"result"}, // "routed", "dropped"
	)

	PlayerMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_widget_player_messages_dropped_total",
			Help: "Total number of dropped player messages by reason",
		},
		[]string{"reason"},
	)

	RegisteredPlayers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlist_widget_registered_players",
			Help: "Number of player handles currently bound to a session",
		},
	)

	LayoutInitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_widget_layout_init_total",
			Help: "Total number of layout initialisations by outcome",
		},
		[]string{"outcome"}, // "ready", "degraded", "stale"
	)

	LayoutsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "playlist_widget_layouts",
			Help: "Number of layouts by lifecycle state",
		},
		[]string{"state"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_widget_db_queries_total",
			Help: "Total number of feed cache queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlist_widget_db_query_duration_seconds",
			Help:    "Feed cache query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Drop reasons reported by the player message router.
const (
	DropOrigin     = "origin"
	DropMalformed  = "malformed"
	DropEventKind  = "event_kind"
	DropNoIndex    = "no_index"
	DropUnresolved = "unresolved"
)

// DropReasons lists every reason label used with PlayerMessagesDropped.
var DropReasons = []string{DropOrigin, DropMalformed, DropEventKind, DropNoIndex, DropUnresolved}
