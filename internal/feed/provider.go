package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"playlist-widget/internal/logging"
	"playlist-widget/internal/metrics"
	"playlist-widget/internal/playlist"
)

// DefaultBaseURL is the public YouTube playlist feed endpoint.
const DefaultBaseURL = "https://www.youtube.com/feeds/videos.xml"

// maxFeedBytes bounds how much of a feed response is read.
const maxFeedBytes = 4 << 20

// Provider returns the entries of a playlist in feed order.
type Provider interface {
	Fetch(ctx context.Context, playlistID string) ([]playlist.Entry, error)
}

// HTTPProvider fetches feeds over HTTP.
type HTTPProvider struct {
	client  *http.Client
	baseURL string
}

// NewHTTPProvider creates a provider for baseURL. An empty baseURL uses
// DefaultBaseURL; a zero timeout disables the client timeout.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FeedURL returns the feed location for playlistID.
func (p *HTTPProvider) FeedURL(playlistID string) string {
	return p.baseURL + "?playlist_id=" + url.QueryEscape(playlistID)
}

// Fetch retrieves and parses the feed for playlistID.
func (p *HTTPProvider) Fetch(ctx context.Context, playlistID string) ([]playlist.Entry, error) {
	start := time.Now()
	entries, err := p.fetch(ctx, playlistID)
	metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())
	metrics.FeedFetchesTotal.WithLabelValues(fetchStatus(err)).Inc()

	if err != nil {
		logging.Warn("Feed fetch for playlist %s failed: %v", playlistID, err)
		return nil, err
	}

	metrics.FeedEntriesFetched.Add(float64(len(entries)))
	logging.Debug("Fetched %d entries for playlist %s in %v", len(entries), playlistID, time.Since(start))
	return entries, nil
}

func (p *HTTPProvider) fetch(ctx context.Context, playlistID string) ([]playlist.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.FeedURL(playlistID), nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml, application/xml;q=0.9, */*;q=0.1")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Debug("closing feed response body: %v", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Status: resp.StatusCode}
	}

	return Parse(io.LimitReader(resp.Body, maxFeedBytes))
}

func fetchStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrFetch):
		return "fetch_error"
	case errors.Is(err, ErrParse):
		return "parse_error"
	default:
		return "error"
	}
}
