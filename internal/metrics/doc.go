// Package metrics provides Prometheus instrumentation for the playlist
// widget service.
//
// All metrics are prefixed with "playlist_widget_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal: requests by method, path and status
//   - HTTPRequestDuration: request latency by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Feed Metrics
//   - FeedFetchesTotal: upstream feed fetches by outcome
//   - FeedFetchDuration: upstream feed latency
//   - FeedEntriesFetched: entries returned by successful fetches
//   - FeedCacheHits / FeedCacheMisses / FeedCacheStaleServed: feed cache behaviour
//
// ## Selection Metrics
//   - SelectionTransitionsTotal: state machine inputs by source and result
//   - PlayerMessagesTotal: inbound player messages by result
//   - PlayerMessagesDropped: dropped player messages by reason
//   - RegisteredPlayers: player handles currently bound to a session
//   - LayoutInitTotal: layout initialisations by outcome
//   - LayoutsByState: layouts grouped by lifecycle state (collected periodically)
//
// ## Database Metrics
//   - DBQueryTotal / DBQueryDuration: feed cache queries by operation
//
// # Usage
//
// Metrics are registered with the default registry through promauto and
// exposed by promhttp on METRICS_PORT:
//
//	curl http://localhost:9090/metrics | grep playlist_widget_
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
