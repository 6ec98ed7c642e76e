package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the engine's error kinds to transport codes: validation
// problems are the caller's to fix, transition and version conflicts are
// conflicts, the rest is the store's fault.
func writeErr(w http.ResponseWriter, err error) {
	var ve *lifecycle.ValidationError
	var te *lifecycle.InvalidTransitionError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
	case errors.As(err, &te):
		writeJSON(w, http.StatusConflict, map[string]string{"error": te.Error()})
	case errors.Is(err, lifecycle.ErrConcurrencyConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
