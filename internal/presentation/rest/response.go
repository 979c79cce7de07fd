package rest

import (
	"encoding/json"
	"net/http"
)

// successEnvelope always carries data, so an absent profile renders as null.
type successEnvelope struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Success: false, Error: msg})
}
