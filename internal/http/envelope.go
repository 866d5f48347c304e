// Package http provides the JSON API server for the ledger service.
//
// Every response body is a two-shape envelope: {"success":true,"data":...}
// on the happy path, {"success":false,"error":"..."} on failure. Callers
// check success before reading data.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeData writes a success envelope with the given payload.
func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a failure envelope with a human-readable message.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: false, Error: msg}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// emptyList substitutes an empty slice for nil so list endpoints always
// return a JSON array.
func emptyList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
