package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/spotauth/internal/auth"
)

// Result is the JSON envelope of every non-redirect response.
type Result struct {
	Success bool           `json:"success"`
	Message *string        `json:"message"`
	Data    *auth.TokenSet `json:"data"`
}

// Success wraps a token set.
func Success(tokens auth.TokenSet) Result {
	return Result{Success: true, Data: &tokens}
}

// Failure builds a failed result. A nil message encodes as null.
func Failure(message *string) Result {
	return Result{Success: false, Message: message}
}

// FailureMessage builds a failed result carrying message.
func FailureMessage(message string) Result {
	return Failure(&message)
}

func writeResult(w http.ResponseWriter, status int, result Result) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	// headers are already sent; an encode error only means the client went away
	_ = json.NewEncoder(w).Encode(result)
}

// writeUnhandled writes the generic 500 envelope; details stay in the server log.
func writeUnhandled(w http.ResponseWriter) {
	writeResult(w, http.StatusInternalServerError, Failure(nil))
}
