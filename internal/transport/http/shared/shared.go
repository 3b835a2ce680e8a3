// Package shared holds the JSON helpers every handler package uses, keeping
// the error envelope consistent across the API.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "agentbook/pkg/domain-errors"
)

// WriteJSON encodes v with the given status. Encoding failures are swallowed;
// by then the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Only the
// code is exposed to clients; messages stay in logs.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{"error": string(code)})
}
