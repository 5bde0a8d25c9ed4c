package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, status := range []string{"success", "fetch_error", "parse_error", "error"} {
		FeedFetchesTotal.WithLabelValues(status)
	}

	for _, source := range []string{"seed", "user", "player"} {
		for _, result := range []string{"applied", "noop", "rejected"} {
			SelectionTransitionsTotal.WithLabelValues(source, result)
		}
	}

	PlayerMessagesTotal.WithLabelValues("routed")
	PlayerMessagesTotal.WithLabelValues("dropped")
	for _, reason := range DropReasons {
		PlayerMessagesDropped.WithLabelValues(reason)
	}

	for _, outcome := range []string{"ready", "degraded", "stale"} {
		LayoutInitTotal.WithLabelValues(outcome)
	}

	for _, state := range []string{"pending", "ready", "degraded"} {
		LayoutsByState.WithLabelValues(state)
	}

	for _, op := range []string{"initialize_schema", "save_feed", "load_feed", "delete_feed", "count_feeds"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
