package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"playlist-widget/internal/registry"
	"playlist-widget/internal/router"
)

// maxPlayerMessageBytes bounds the body of a relayed player message.
const maxPlayerMessageBytes = 64 << 10

// PlayerMessageResponse tells the relay what happened to a message.
type PlayerMessageResponse struct {
	Routed bool   `json:"routed"`
	Reason string `json:"reason,omitempty"`
}

// PostPlayerMessage relays a raw status message posted by an embedded
// player. Filtering is silent: every message is accepted with 202 and the
// response only reports whether it was routed.
func (h *Handlers) PostPlayerMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPlayerMessageBytes))
	if err != nil {
		// Unreadable bodies are dropped as malformed.
		body = nil
	}

	origin := r.Header.Get("X-Player-Origin")
	if origin == "" {
		origin = r.Header.Get("Origin")
	}

	outcome := h.router.Route(router.Message{
		Source: registry.Handle(mux.Vars(r)["handle"]),
		Origin: origin,
		Data:   body,
	})

	writeJSONStatusCode(w, http.StatusAccepted, PlayerMessageResponse{
		Routed: outcome.Routed,
		Reason: outcome.Reason,
	})
}
