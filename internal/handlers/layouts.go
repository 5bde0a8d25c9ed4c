package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"playlist-widget/internal/logging"
	"playlist-widget/internal/playlist"
	"playlist-widget/internal/widget"
)

// CreateLayoutRequest is the body of POST /api/layouts.
type CreateLayoutRequest struct {
	PlaylistID   string `json:"playlistId"`
	InitialIndex *int   `json:"initialIndex,omitempty"`
}

// SelectRequest is the body of POST /api/layouts/{handle}/select.
type SelectRequest struct {
	Index *int `json:"index"`
}

// SelectResponse reports the commands a selection produced and the
// resulting player frame source.
type SelectResponse struct {
	Commands  playlist.Commands `json:"commands"`
	PlayerSrc string            `json:"playerSrc,omitempty"`
}

// CreateLayout creates a layout and loads its feed. A layout whose feed
// could not be loaded is still created and is returned with 502.
func (h *Handlers) CreateLayout(w http.ResponseWriter, r *http.Request) {
	var req CreateLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PlaylistID == "" {
		writeJSONError(w, "playlistId is required", http.StatusBadRequest)
		return
	}

	spec := widget.Spec{PlaylistID: req.PlaylistID, InitialIndex: h.initialIndex}
	if req.InitialIndex != nil {
		spec.InitialIndex = *req.InitialIndex
	}

	layout, err := h.manager.Open(r.Context(), spec)
	w.Header().Set("Location", "/api/layouts/"+layout.Handle().String())
	if err != nil {
		logging.Warn("Layout %s created degraded: %v", layout.Handle(), err)
		writeJSONStatusCode(w, http.StatusBadGateway, layout.Snapshot())
		return
	}

	writeJSONStatusCode(w, http.StatusCreated, layout.Snapshot())
}

// ListLayouts returns every layout, oldest first.
func (h *Handlers) ListLayouts(w http.ResponseWriter, _ *http.Request) {
	layouts := h.manager.List()
	snapshots := make([]widget.Snapshot, 0, len(layouts))
	for _, layout := range layouts {
		snapshots = append(snapshots, layout.Snapshot())
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, snapshots)
}

// GetLayout returns one layout.
func (h *Handlers) GetLayout(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, layout.Snapshot())
}

// GetLayoutList renders the layout's status line, player frame and list as
// an HTML fragment.
func (h *Handlers) GetLayoutList(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := layout.View().WriteHTML(w); err != nil {
		logging.Error("failed to render layout %s: %v", layout.Handle(), err)
	}
}

// SelectEntry applies a visitor's choice of entry.
func (h *Handlers) SelectEntry(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Index == nil {
		writeJSONError(w, "index is required", http.StatusBadRequest)
		return
	}

	cmds, err := layout.Select(*req.Index)
	switch {
	case err == nil:
	case errors.Is(err, playlist.ErrRange):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, widget.ErrNotReady):
		writeJSONError(w, "Layout has no playlist loaded", http.StatusConflict)
		return
	case errors.Is(err, widget.ErrClosed):
		writeJSONError(w, "Layout not found", http.StatusNotFound)
		return
	default:
		writeJSONError(w, "Failed to select entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, SelectResponse{
		Commands:  cmds,
		PlayerSrc: layout.View().Snapshot().PlayerSrc,
	})
}

// ReloadLayout fetches the layout's feed again.
func (h *Handlers) ReloadLayout(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}

	err := layout.Init(r.Context())
	switch {
	case err == nil:
		writeJSONStatusCode(w, http.StatusOK, layout.Snapshot())
	case errors.Is(err, widget.ErrStale):
		writeJSONStatusCode(w, http.StatusConflict, layout.Snapshot())
	case errors.Is(err, widget.ErrClosed):
		writeJSONError(w, "Layout not found", http.StatusNotFound)
	default:
		writeJSONStatusCode(w, http.StatusBadGateway, layout.Snapshot())
	}
}

// DeleteLayout tears a layout down and releases its player handle.
func (h *Handlers) DeleteLayout(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.lookupLayout(w, r)
	if !ok {
		return
	}

	if !h.manager.Remove(layout.Handle()) {
		writeJSONError(w, "Layout not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
