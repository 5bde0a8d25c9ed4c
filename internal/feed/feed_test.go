package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"playlist-widget/internal/database"
	"playlist-widget/internal/playlist"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <id>yt:playlist:PLtest</id>
 <yt:playlistId>PLtest</yt:playlistId>
 <title>Conference 2024</title>
 <entry>
  <id>yt:video:aaa</id>
  <yt:videoId>aaa</yt:videoId>
  <title>  Opening keynote  </title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=aaa"/>
  <published>2024-03-01T10:00:00+00:00</published>
  <media:group><media:title>Opening keynote</media:title></media:group>
 </entry>
 <entry>
  <id>yt:video:missing</id>
  <title>Private video</title>
 </entry>
 <entry>
  <yt:videoId>ccc</yt:videoId>
  <title></title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=ccc"/>
 </entry>
</feed>`

// =============================================================================
// Parse
// =============================================================================

func TestParse(t *testing.T) {
	t.Parallel()

	entries, err := Parse(strings.NewReader(sampleFeed))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (entry without video id skipped)", len(entries))
	}

	first := entries[0]
	if first.Index != 0 || first.ID != "aaa" || first.Title != "Opening keynote" {
		t.Errorf("first entry = %+v", first)
	}
	if first.Link != "https://www.youtube.com/watch?v=aaa" {
		t.Errorf("first link = %q", first.Link)
	}
	if first.Published != "2024-03-01T10:00:00+00:00" {
		t.Errorf("first published = %q", first.Published)
	}

	second := entries[1]
	if second.Index != 1 {
		t.Errorf("second index = %d, want 1 (indices stay contiguous)", second.Index)
	}
	if second.Title != "Video 3" {
		t.Errorf("untitled entry title = %q, want %q", second.Title, "Video 3")
	}

	if _, err := playlist.NewSession("PLtest", entries); err != nil {
		t.Errorf("parsed entries should form a valid session: %v", err)
	}
}

func TestParseEmptyFeed(t *testing.T) {
	t.Parallel()

	entries, err := Parse(strings.NewReader(`<feed xmlns="http://www.w3.org/2005/Atom"><title>Empty</title></feed>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "truncated", body: `<feed><entry><title>x`},
		{name: "html page", body: `<html><body>Not found</body></html>`},
		{name: "plain text", body: `service unavailable`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.body))
			if !errors.Is(err, ErrParse) {
				t.Errorf("expected ErrParse, got %v", err)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("expected *ParseError, got %T", err)
			}
		})
	}
}

// =============================================================================
// HTTPProvider
// =============================================================================

func TestHTTPProviderFetch(t *testing.T) {
	t.Parallel()

	gotQuery := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery <- r.URL.Query().Get("playlist_id")
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, 5*time.Second)
	entries, err := p.Fetch(context.Background(), "PL test&x")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if q := <-gotQuery; q != "PL test&x" {
		t.Errorf("server saw playlist_id %q", q)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestHTTPProviderBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, 5*time.Second).Fetch(context.Background(), "PL")
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Status != http.StatusServiceUnavailable {
		t.Errorf("expected FetchError with status 503, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error message should mention the status: %q", err.Error())
	}
}

func TestHTTPProviderMalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<feed><entry>"))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, 5*time.Second).Fetch(context.Background(), "PL")
	if !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestHTTPProviderTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPProvider(url, time.Second).Fetch(context.Background(), "PL")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fetchErr.Status != 0 {
		t.Errorf("status = %d, want 0 for transport errors", fetchErr.Status)
	}
}

func TestHTTPProviderContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPProvider(srv.URL, time.Second).Fetch(ctx, "PL")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestFeedURL(t *testing.T) {
	t.Parallel()

	p := NewHTTPProvider("", 0)
	want := DefaultBaseURL + "?playlist_id=PL%2Fa+b"
	if got := p.FeedURL("PL/a b"); got != want {
		t.Errorf("FeedURL = %q, want %q", got, want)
	}
}

// =============================================================================
// CachingProvider
// =============================================================================

type stubProvider struct {
	calls   atomic.Int32
	entries []playlist.Entry
	err     error
}

func (s *stubProvider) Fetch(context.Context, string) ([]playlist.Entry, error) {
	s.calls.Add(1)
	return s.entries, s.err
}

func newCache(t *testing.T, upstream Provider, ttl time.Duration) (*CachingProvider, *database.Database) {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewCachingProvider(upstream, db, ttl), db
}

func twoEntries() []playlist.Entry {
	return []playlist.Entry{{Index: 0, ID: "a", Title: "A"}, {Index: 1, ID: "b", Title: "B"}}
}

func TestCachingProviderHit(t *testing.T) {
	t.Parallel()

	upstream := &stubProvider{entries: twoEntries()}
	c, _ := newCache(t, upstream, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entries, err := c.Fetch(ctx, "PL")
		if err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
		if len(entries) != 2 {
			t.Fatalf("Fetch %d returned %d entries", i, len(entries))
		}
	}

	if n := upstream.calls.Load(); n != 1 {
		t.Errorf("upstream called %d times, want 1", n)
	}
}

func TestCachingProviderExpired(t *testing.T) {
	t.Parallel()

	upstream := &stubProvider{entries: twoEntries()}
	c, _ := newCache(t, upstream, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := c.Fetch(ctx, "PL"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := c.Fetch(ctx, "PL"); err != nil {
		t.Fatal(err)
	}

	if n := upstream.calls.Load(); n != 2 {
		t.Errorf("upstream called %d times, want 2", n)
	}
}

func TestCachingProviderServesStaleOnFailure(t *testing.T) {
	t.Parallel()

	upstream := &stubProvider{entries: twoEntries()}
	c, _ := newCache(t, upstream, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := c.Fetch(ctx, "PL"); err != nil {
		t.Fatal(err)
	}

	upstream.err = &FetchError{Status: http.StatusServiceUnavailable}
	upstream.entries = nil
	now = now.Add(time.Hour)

	entries, err := c.Fetch(ctx, "PL")
	if err != nil {
		t.Fatalf("expected stale copy, got error %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want the 2 cached ones", len(entries))
	}
}

func TestCachingProviderPropagatesErrorWithoutCopy(t *testing.T) {
	t.Parallel()

	upstream := &stubProvider{err: &FetchError{Status: http.StatusServiceUnavailable}}
	c, db := newCache(t, upstream, time.Minute)

	_, err := c.Fetch(context.Background(), "PL")
	if !errors.Is(err, ErrFetch) {
		t.Errorf("expected ErrFetch, got %v", err)
	}

	if _, _, err := db.LoadFeed(context.Background(), "PL"); !errors.Is(err, database.ErrFeedNotCached) {
		t.Error("failed fetch should not be cached")
	}
}
