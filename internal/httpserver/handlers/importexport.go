package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/kazmiyai/favuls/internal/domain"
	"github.com/kazmiyai/favuls/internal/httpserver/deps"
	"github.com/kazmiyai/favuls/internal/store/chunk"
)

// Import accepts a backup file as the request body. Mode comes from the
// ?mode query parameter (replace or merge, default replace). The body is
// capped at the snapshot size limit so an oversized upload is refused
// before parsing.
func Import(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modeStr := r.URL.Query().Get("mode")
		if modeStr == "" {
			modeStr = string(domain.ImportReplace)
		}
		mode, err := domain.ParseImportMode(modeStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		data, err := io.ReadAll(io.LimitReader(r.Body, domain.MaxSnapshotBytes+1))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
			return
		}
		if len(data) > domain.MaxSnapshotBytes {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: fmt.Sprintf("backup file exceeds %d bytes", domain.MaxSnapshotBytes),
			})
			return
		}

		res, err := d.Session.Import(r.Context(), data, mode)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// Export streams the backup file with a download filename.
func Export(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, filename, err := d.Session.Export(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Session.Stats(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func GetPreferences(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Session.Preferences(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func PutPreferences(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p chunk.Preferences
		if !decodeBody(w, r, &p) {
			return
		}
		if err := d.Session.SetPreferences(r.Context(), p); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func GetTheme(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := d.Session.Theme(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func PutTheme(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t chunk.Theme
		if !decodeBody(w, r, &t) {
			return
		}
		if err := d.Session.SetTheme(r.Context(), t); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}
