package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"playlist-widget/internal/logging"
	"playlist-widget/internal/playlist"
)

// ErrFeedNotCached is returned by LoadFeed when no copy of the feed exists.
var ErrFeedNotCached = errors.New("feed not cached")

// CachedFeed summarises one cached playlist feed.
type CachedFeed struct {
	PlaylistID string    `json:"playlistId"`
	Entries    int       `json:"entries"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// SaveFeed replaces the cached copy of a playlist feed.
func (d *Database) SaveFeed(ctx context.Context, playlistID string, entries []playlist.Entry, fetchedAt time.Time) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	defer func() { recordQuery("save_feed", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save feed: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM feed_entries WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("clear cached entries: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO feeds (playlist_id, fetched_at) VALUES (?, ?)
		ON CONFLICT(playlist_id) DO UPDATE SET fetched_at = excluded.fetched_at
	`, playlistID, fetchedAt.UnixNano()); err != nil {
		return fmt.Errorf("upsert feed: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feed_entries (playlist_id, idx, video_id, title, link, published)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, playlistID, e.Index, e.ID, e.Title, e.Link, e.Published); err != nil {
			return fmt.Errorf("insert entry %d: %w", e.Index, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save feed: %w", err)
	}

	logging.Debug("Cached %d entries for playlist %s", len(entries), playlistID)
	return nil
}

// LoadFeed returns the cached entries of a playlist and when they were
// fetched. Returns ErrFeedNotCached when there is no copy.
func (d *Database) LoadFeed(ctx context.Context, playlistID string) (entries []playlist.Entry, fetchedAt time.Time, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	start := time.Now()
	defer func() {
		if errors.Is(err, ErrFeedNotCached) {
			recordQuery("load_feed", start, nil)
			return
		}
		recordQuery("load_feed", start, err)
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var fetchedNanos int64
	err = d.db.QueryRowContext(ctx, "SELECT fetched_at FROM feeds WHERE playlist_id = ?", playlistID).Scan(&fetchedNanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrFeedNotCached
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load feed: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT idx, video_id, title, link, published
		FROM feed_entries
		WHERE playlist_id = ?
		ORDER BY idx
	`, playlistID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load feed entries: %w", err)
	}
	defer rows.Close()

	entries = []playlist.Entry{}
	for rows.Next() {
		var e playlist.Entry
		if err = rows.Scan(&e.Index, &e.ID, &e.Title, &e.Link, &e.Published); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan feed entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate feed entries: %w", err)
	}

	return entries, time.Unix(0, fetchedNanos), nil
}

// DeleteFeed removes the cached copy of a playlist feed.
func (d *Database) DeleteFeed(ctx context.Context, playlistID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM feeds WHERE playlist_id = ?", playlistID)
	recordQuery("delete_feed", start, err)
	return err
}

// ListFeeds summarises every cached feed, most recently fetched first.
func (d *Database) ListFeeds(ctx context.Context) ([]CachedFeed, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT f.playlist_id, f.fetched_at, COUNT(e.idx)
		FROM feeds f
		LEFT JOIN feed_entries e ON e.playlist_id = f.playlist_id
		GROUP BY f.playlist_id
		ORDER BY f.fetched_at DESC
	`)
	if err != nil {
		recordQuery("count_feeds", start, err)
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer rows.Close()

	feeds := []CachedFeed{}
	for rows.Next() {
		var f CachedFeed
		var fetchedNanos int64
		if err := rows.Scan(&f.PlaylistID, &fetchedNanos, &f.Entries); err != nil {
			recordQuery("count_feeds", start, err)
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		f.FetchedAt = time.Unix(0, fetchedNanos)
		feeds = append(feeds, f)
	}

	err = rows.Err()
	recordQuery("count_feeds", start, err)
	return feeds, err
}
