package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"patchpanel/internal/logging"
)

var (
	errMethodNotAllowed = errors.New("method not allowed")
	errNotFound         = errors.New("not found")
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Get(logging.CategoryServer).Warn("encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, code int, err error) {
	respondJSON(w, code, errorBody{Error: err.Error()})
}

// nonNil renders empty lists as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
