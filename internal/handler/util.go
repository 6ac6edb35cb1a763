package handler

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the envelope every failing endpoint returns. The
// message stays coarse on purpose; retry_after is only present when a
// lockout window is running.
type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeRetryError(w http.ResponseWriter, status int, message string, retryAfter int) {
	writeJSON(w, status, errorResponse{Error: message, RetryAfter: retryAfter})
}
