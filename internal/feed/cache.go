package feed

import (
	"context"
	"errors"
	"time"

	"playlist-widget/internal/database"
	"playlist-widget/internal/logging"
	"playlist-widget/internal/metrics"
	"playlist-widget/internal/playlist"
)

// Store persists fetched feeds.
type Store interface {
	SaveFeed(ctx context.Context, playlistID string, entries []playlist.Entry, fetchedAt time.Time) error
	LoadFeed(ctx context.Context, playlistID string) ([]playlist.Entry, time.Time, error)
}

// CachingProvider serves feeds from a Store while they are younger than
// the TTL and refreshes them from the upstream Provider otherwise.
type CachingProvider struct {
	upstream Provider
	store    Store
	ttl      time.Duration
	now      func() time.Time
}

// NewCachingProvider wraps upstream with store.
func NewCachingProvider(upstream Provider, store Store, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		upstream: upstream,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Fetch returns a cached copy when fresh, otherwise fetches from the
// upstream. When the upstream fails and an expired copy exists, the expired
// copy is returned instead of the error.
func (c *CachingProvider) Fetch(ctx context.Context, playlistID string) ([]playlist.Entry, error) {
	cached, fetchedAt, loadErr := c.store.LoadFeed(ctx, playlistID)
	switch {
	case loadErr == nil && c.now().Sub(fetchedAt) < c.ttl:
		metrics.FeedCacheHits.Inc()
		logging.Debug("Feed cache hit for playlist %s (age %v)", playlistID, c.now().Sub(fetchedAt))
		return cached, nil
	case loadErr != nil && !errors.Is(loadErr, database.ErrFeedNotCached):
		logging.Warn("Feed cache read for playlist %s failed: %v", playlistID, loadErr)
	}
	metrics.FeedCacheMisses.Inc()

	entries, err := c.upstream.Fetch(ctx, playlistID)
	if err != nil {
		if loadErr == nil {
			metrics.FeedCacheStaleServed.Inc()
			logging.Warn("Serving cached feed for playlist %s from %s: %v",
				playlistID, fetchedAt.Format(time.RFC3339), err)
			return cached, nil
		}
		return nil, err
	}

	if err := c.store.SaveFeed(ctx, playlistID, entries, c.now()); err != nil {
		logging.Warn("Feed cache write for playlist %s failed: %v", playlistID, err)
	}
	return entries, nil
}
