package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"playlist-widget/internal/logging"
	"playlist-widget/internal/registry"
	"playlist-widget/internal/widget"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatusCode writes v as JSON with the given status code.
func writeJSONStatusCode(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatusCode(w, statusCode, map[string]string{"error": message})
}

// lookupLayout resolves the {handle} route variable, writing the error
// response itself when it fails.
func (h *Handlers) lookupLayout(w http.ResponseWriter, r *http.Request) (*widget.Layout, bool) {
	handle, err := registry.ParseHandle(mux.Vars(r)["handle"])
	if err != nil {
		writeJSONError(w, "Invalid layout handle", http.StatusBadRequest)
		return nil, false
	}

	layout, ok := h.manager.Get(handle)
	if !ok {
		writeJSONError(w, "Layout not found", http.StatusNotFound)
		return nil, false
	}
	return layout, true
}
