package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/logger"
	"github.com/kazmiyai/favuls/internal/store/kv"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain and storage sentinels onto HTTP statuses. Three
// distinct user-facing families: data validation (4xx with the specific
// reason), quota (507 with an actionable message), and backing-store
// failure (503, a generic environment problem distinct from bad data).
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrURLNotFound),
		errors.Is(err, domain.ErrGroupNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrDuplicateURL),
		errors.Is(err, domain.ErrURLLimit),
		errors.Is(err, domain.ErrGroupLimit):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrProtectedGroup):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrInvalidRecord),
		errors.Is(err, domain.ErrInvalidImport),
		errors.Is(err, domain.ErrCrossGroupReorder):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, kv.ErrQuotaExceeded):
		writeJSON(w, http.StatusInsufficientStorage, errorResponse{
			Error: "storage quota exceeded - delete some bookmarks to free space and retry",
		})

	case errors.Is(err, kv.ErrUnavailable):
		log.Error("backing store unavailable", logger.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage unavailable"})

	default:
		log.Error("request failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}
