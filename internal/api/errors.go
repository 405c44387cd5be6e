package api

import (
	"encoding/json"
	"net/http"
)

// Error is the JSON envelope for every non-2xx API response. The web page
// shows the message field to the user verbatim, so messages are written
// for people, not for parsers; code is the machine-readable half.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried in the envelope, one per way a request can fail.
const (
	ErrCodeBadRequest     = "bad_request"        // body did not parse
	ErrCodeValidation     = "validation_error"   // parsed but rejected
	ErrCodeNotFound       = "not_found"          // no such endpoint
	ErrCodeMethodNotAllow = "method_not_allowed" // endpoint exists, verb wrong
	ErrCodeInternal       = "internal_error"     // persistence failure or panic
)

// writeJSON serialises body to the response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // nothing useful to do when the client has gone
	json.NewEncoder(w).Encode(body)
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}
