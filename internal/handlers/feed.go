package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"playlist-widget/internal/feed"
	"playlist-widget/internal/logging"
	"playlist-widget/internal/playlist"
)

// GetFeed returns the entries of a playlist feed.
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	playlistID := mux.Vars(r)["playlistId"]

	entries, err := h.feeds.Fetch(r.Context(), playlistID)
	if err != nil {
		logging.Warn("Feed request for playlist %s failed: %v", playlistID, err)
		switch {
		case errors.Is(err, feed.ErrFetch):
			writeJSONError(w, "Feed unavailable", http.StatusBadGateway)
		case errors.Is(err, feed.ErrParse):
			writeJSONError(w, "Feed malformed", http.StatusBadGateway)
		default:
			writeJSONError(w, "Failed to load feed", http.StatusInternalServerError)
		}
		return
	}

	if entries == nil {
		entries = []playlist.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, entries)
}

// ListCachedFeeds summarises the feed cache.
func (h *Handlers) ListCachedFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.db.ListFeeds(r.Context())
	if err != nil {
		writeJSONError(w, "Failed to list cached feeds", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, feeds)
}

// DeleteCachedFeed drops a playlist from the feed cache so the next load
// fetches it again.
func (h *Handlers) DeleteCachedFeed(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteFeed(r.Context(), mux.Vars(r)["playlistId"]); err != nil {
		writeJSONError(w, "Failed to delete cached feed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
