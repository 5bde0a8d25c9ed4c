package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"playlist-widget/internal/database"
	"playlist-widget/internal/playlist"
)

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
 <entry><yt:videoId>v0</yt:videoId><title>Intro</title></entry>
 <entry><yt:videoId>v1</yt:videoId><title>Outro</title></entry>
</feed>`

// run executes the CLI with args against dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--database-dir", dir}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, dir string, playlistIDs ...string) {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(dir, databaseFile))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	entries := []playlist.Entry{{Index: 0, ID: "a", Title: "A"}, {Index: 1, ID: "b", Title: "B"}}
	for _, id := range playlistIDs {
		if err := db.SaveFeed(context.Background(), id, entries, time.Now()); err != nil {
			t.Fatalf("SaveFeed failed: %v", err)
		}
	}
}

// =============================================================================
// list / show
// =============================================================================

func TestListEmpty(t *testing.T) {
	out, err := run(t, t.TempDir(), "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No cached feeds") {
		t.Errorf("output = %q", out)
	}
}

func TestListAndShow(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "PLone", "PLtwo")

	out, err := run(t, dir, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"PLAYLIST", "PLone", "PLtwo"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, dir, "show", "PLone")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "  0  a  A") || !strings.Contains(out, "  1  b  B") {
		t.Errorf("show output = %q", out)
	}
}

func TestShowNotCached(t *testing.T) {
	if _, err := run(t, t.TempDir(), "show", "PLmissing"); err == nil {
		t.Error("expected error for uncached playlist")
	}
}

func TestMissingDatabaseDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	if _, err := run(t, dir, "list"); err == nil {
		t.Error("expected error for missing database directory")
	}
}

// =============================================================================
// fetch
// =============================================================================

func TestFetch(t *testing.T) {
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("playlist_id") == "PLdown" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(testFeed))
	}))
	defer feedSrv.Close()

	dir := t.TempDir()
	out, err := run(t, dir, "fetch", "--base-url", feedSrv.URL, "PLgood", "PLdown")
	if err == nil {
		t.Error("expected error when one playlist fails")
	}
	if !strings.Contains(out, "Cached PLgood (2 entries)") {
		t.Errorf("fetch output = %q", out)
	}

	out, err = run(t, dir, "show", "PLgood")
	if err != nil {
		t.Fatalf("show after fetch failed: %v", err)
	}
	if !strings.Contains(out, "v1  Outro") {
		t.Errorf("show output = %q", out)
	}

	if _, err := run(t, dir, "show", "PLdown"); err == nil {
		t.Error("failed playlist should not be cached")
	}
}

func TestFetchRequiresArgs(t *testing.T) {
	if _, err := run(t, t.TempDir(), "fetch"); err == nil {
		t.Error("expected error without playlist IDs")
	}
}

// =============================================================================
// purge
// =============================================================================

func TestPurge(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "PLone", "PLtwo", "PLthree")

	out, err := run(t, dir, "purge", "PLone")
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if !strings.Contains(out, "Purged 1 feed(s)") {
		t.Errorf("purge output = %q", out)
	}

	out, err = run(t, dir, "purge", "--all")
	if err != nil {
		t.Fatalf("purge --all failed: %v", err)
	}
	if !strings.Contains(out, "Purged 2 feed(s)") {
		t.Errorf("purge --all output = %q", out)
	}

	out, _ = run(t, dir, "list")
	if !strings.Contains(out, "No cached feeds") {
		t.Errorf("list after purge = %q", out)
	}
}

func TestPurgeArgumentValidation(t *testing.T) {
	dir := t.TempDir()

	if _, err := run(t, dir, "purge"); err == nil {
		t.Error("expected error without IDs or --all")
	}
	if _, err := run(t, dir, "purge", "--all", "PLone"); err == nil {
		t.Error("expected error with both IDs and --all")
	}
}
