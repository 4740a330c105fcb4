package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/PaperSplit/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps a domain error onto its HTTP status. Internal errors are
// logged and never echoed to the client.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var de *core.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("request failed")
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch de.Kind {
	case core.KindInput:
		writeErrorMsg(w, http.StatusBadRequest, de.Message)
	case core.KindNotFound:
		writeErrorMsg(w, http.StatusNotFound, "task not found")
	case core.KindNotReady:
		writeErrorMsg(w, http.StatusBadRequest, "not ready")
	case core.KindOverloaded:
		w.Header().Set("Retry-After", "30")
		writeErrorMsg(w, http.StatusServiceUnavailable, de.Message)
	default:
		logger.Error().Err(err).Str("kind", string(de.Kind)).Msg("request failed")
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}
